// Package exec provides a stub-friendly interface for running external commands.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Synthetic exit codes for outcomes where the process did not exit on its own.
const (
	ExitTimeout   = 124 // killed after RunOpts.Timeout elapsed
	ExitCanceled  = 125 // parent context canceled
	ExitStartFail = 127 // binary not found or could not be started
)

// ErrNotFound is returned (wrapped) when the binary is not on PATH.
var ErrNotFound = exec.ErrNotFound

// CmdResult holds the result of a command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// RunOpts holds optional parameters for command execution.
type RunOpts struct {
	Dir     string            // working directory (optional)
	Env     map[string]string // extra environment variables (overlay)
	Timeout time.Duration     // zero means no timeout
}

// CommandRunner is the interface for running external commands.
// Implementations must be safe for stubbing in tests and for concurrent use.
type CommandRunner interface {
	// Run executes a command and returns the result.
	// Returns CmdResult with ExitCode set if the process exits (even non-zero)
	// or is killed by RunOpts.Timeout (ExitTimeout, TimedOut=true, nil error).
	// Returns error only for execution failures (binary not found, ctx canceled, io failure).
	Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error)
}

// RealRunner is the production implementation of CommandRunner using os/exec.
type RealRunner struct{}

// NewRealRunner creates a new RealRunner.
func NewRealRunner() *RealRunner {
	return &RealRunner{}
}

// Run executes the command and captures stdout/stderr.
func (r *RealRunner) Run(ctx context.Context, name string, args []string, opts RunOpts) (CmdResult, error) {
	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	if len(opts.Env) > 0 {
		cmd.Env = cmd.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	start := time.Now()
	err := cmd.Run()

	result := CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	// Parent cancellation wins over everything else
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = ExitCanceled
		return result, ctxErr
	}

	if opts.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = ExitTimeout
		result.TimedOut = true
		return result, nil
	}

	if err != nil {
		// Process ran but exited non-zero
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// Binary not found, permission denied, etc.
		result.ExitCode = ExitStartFail
		return result, err
	}

	result.ExitCode = 0
	return result, nil
}
