// Package commands implements tin CLI commands.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/pipeline"
	"github.com/NielsdaWheelz/tin/internal/render"
)

// CreateOpts holds output options for the create command.
type CreateOpts struct {
	// JSON writes the result envelope to stdout instead of the summary.
	JSON bool
}

// Create scaffolds the project described by req.
// Post-processing failures are reported but do not fail the command.
func Create(ctx context.Context, svc pipeline.ScaffoldService, req pipeline.Request, opts CreateOpts, stdout, stderr io.Writer) error {
	res, err := pipeline.NewPipeline(svc).Run(ctx, req)
	if err != nil {
		if opts.JSON {
			if werr := render.WriteJSON(stdout, nil, err); werr != nil {
				return errors.Wrap(errors.EInternal, "failed to write output", werr)
			}
		}
		printCreateError(stderr, err)
		return err
	}

	if opts.JSON {
		err = render.WriteJSON(stdout, render.NewResultJSON(req, res), nil)
	} else {
		err = render.WriteResult(stdout, req, res)
	}
	if err != nil {
		return errors.Wrap(errors.EInternal, "failed to write output", err)
	}

	for _, o := range res.Report.Failed() {
		fmt.Fprintf(stderr, "warning: %s: %s\n", o.Task, o.Reason)
	}
	return nil
}

// printCreateError points at a partially built project, if one was left behind.
func printCreateError(w io.Writer, err error) {
	te, ok := errors.AsTinError(err)
	if !ok {
		return
	}
	if dir := te.Details["staging_dir"]; dir != "" {
		fmt.Fprintf(w, "partial project left in %s; remove it before retrying\n", dir)
	}
}
