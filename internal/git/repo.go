// Package git initializes a generated project's repository via CommandRunner.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/NielsdaWheelz/tin/internal/exec"
	"github.com/NielsdaWheelz/tin/internal/fs"
)

// Default identity used when the environment does not configure one.
const (
	DefaultUserName  = "Developer"
	DefaultUserEmail = "dev@example.com"
)

// CommandError describes a git invocation that ran but did not succeed.
type CommandError struct {
	Args     []string
	ExitCode int
	TimedOut bool
	Stderr   string
}

func (e *CommandError) Error() string {
	cmd := "git " + strings.Join(e.Args, " ")
	if e.TimedOut {
		return cmd + ": timed out"
	}
	msg := fmt.Sprintf("%s: exit %d", cmd, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Opts are shared by every git invocation.
type Opts struct {
	Env     map[string]string
	Timeout time.Duration
}

// CommandEnv returns the environment overlay for non-interactive git runs.
// Terminal prompts are disabled. The default identity is set only for the
// variables lookup reports as unset, so a user's own configuration wins.
func CommandEnv(lookup func(string) (string, bool)) map[string]string {
	env := map[string]string{"GIT_TERMINAL_PROMPT": "0"}
	defaults := map[string]string{
		"GIT_AUTHOR_NAME":     DefaultUserName,
		"GIT_AUTHOR_EMAIL":    DefaultUserEmail,
		"GIT_COMMITTER_NAME":  DefaultUserName,
		"GIT_COMMITTER_EMAIL": DefaultUserEmail,
	}
	for k, v := range defaults {
		if cur, ok := lookup(k); !ok || cur == "" {
			env[k] = v
		}
	}
	return env
}

// HasMetadata reports whether dir already contains a .git entry.
func HasMetadata(fsys fs.FS, dir string) (bool, error) {
	return fs.Exists(fsys, filepath.Join(dir, ".git"))
}

// Init runs `git init` in dir.
func Init(ctx context.Context, cr exec.CommandRunner, dir string, opts Opts) error {
	_, err := run(ctx, cr, dir, opts, "init")
	return err
}

// AddAll stages every file in dir.
func AddAll(ctx context.Context, cr exec.CommandRunner, dir string, opts Opts) error {
	_, err := run(ctx, cr, dir, opts, "add", ".")
	return err
}

// Commit records the staged tree with message.
func Commit(ctx context.Context, cr exec.CommandRunner, dir, message string, opts Opts) error {
	_, err := run(ctx, cr, dir, opts, "commit", "-m", message)
	return err
}

// run executes git with args in dir. Start failures are returned wrapped
// (errors.Is(err, exec.ErrNotFound) holds for a missing binary); a non-zero
// exit or timeout yields *CommandError.
func run(ctx context.Context, cr exec.CommandRunner, dir string, opts Opts, args ...string) (string, error) {
	result, err := cr.Run(ctx, "git", args, exec.RunOpts{Dir: dir, Env: opts.Env, Timeout: opts.Timeout})
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	if result.TimedOut || result.ExitCode != 0 {
		return "", &CommandError{Args: args, ExitCode: result.ExitCode, TimedOut: result.TimedOut, Stderr: result.Stderr}
	}
	return result.Stdout, nil
}
