// Command tin scaffolds Express + MongoDB API projects.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/NielsdaWheelz/tin/internal/cli"
	"github.com/NielsdaWheelz/tin/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
