package postprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NielsdaWheelz/tin/internal/exec"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/git"
)

// Task names.
const (
	TaskInstall = "install"
	TaskGit     = "git"
)

// DefaultGitTimeout bounds the whole init/add/commit sequence.
const DefaultGitTimeout = 10 * time.Second

// InitialCommitMessage is the message of the first commit.
const InitialCommitMessage = "Initial commit"

// InstallHint is appended to install failures.
const InstallHint = "run `npm install` manually"

// stderrTailLines is how much installer output a failure reason carries.
const stderrTailLines = 5

// Task is one independent post-processing step. Run must not panic and
// always returns an outcome.
type Task struct {
	Name string
	Run  func(ctx context.Context) Outcome
}

// Plan selects the optional tasks.
type Plan struct {
	Git bool
}

// Orchestrator schedules post-processing tasks for a delivered project.
type Orchestrator struct {
	Runner    exec.CommandRunner
	FS        fs.FS
	Log       *slog.Logger
	GOOS      string
	LookupEnv func(string) (string, bool)

	// GitTimeout bounds repository init; zero means DefaultGitTimeout.
	GitTimeout time.Duration
}

// New returns an Orchestrator for the current platform and environment.
func New(cr exec.CommandRunner, fsys fs.FS, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		Runner:     cr,
		FS:         fsys,
		Log:        log,
		GOOS:       runtime.GOOS,
		LookupEnv:  os.LookupEnv,
		GitTimeout: DefaultGitTimeout,
	}
}

// Run executes the tasks plan selects against dest and waits for all of
// them. It never returns an error; failures are reported per task.
func (o *Orchestrator) Run(ctx context.Context, dest string, plan Plan) Report {
	return RunTasks(ctx, o.Tasks(dest, plan))
}

// Tasks returns the tasks for plan in scheduling order.
func (o *Orchestrator) Tasks(dest string, plan Plan) []Task {
	tasks := []Task{{Name: TaskInstall, Run: func(ctx context.Context) Outcome { return o.install(ctx, dest) }}}
	if plan.Git {
		tasks = append(tasks, Task{Name: TaskGit, Run: func(ctx context.Context) Outcome { return o.initRepo(ctx, dest) }})
	}
	return tasks
}

// RunTasks runs tasks concurrently. Goroutines never return an error, so one
// task's failure cannot cancel its siblings; every slot is filled before the
// report is returned.
func RunTasks(ctx context.Context, tasks []Task) Report {
	outcomes := make([]Outcome, len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			start := time.Now()
			out := t.Run(ctx)
			out.Task = t.Name
			if out.Duration == 0 {
				out.Duration = time.Since(start)
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()
	return Report{Outcomes: outcomes}
}

func (o *Orchestrator) npm() string {
	if o.GOOS == "windows" {
		return "npm.cmd"
	}
	return "npm"
}

func (o *Orchestrator) install(ctx context.Context, dest string) Outcome {
	o.Log.Debug("installing dependencies", "dir", dest)
	result, err := o.Runner.Run(ctx, o.npm(), []string{"install"}, exec.RunOpts{Dir: dest})
	if err != nil {
		reason := fmt.Sprintf("%s could not be started: %v; %s", o.npm(), err, InstallHint)
		o.Log.Warn("dependency install failed", "reason", reason)
		return Outcome{Status: StatusFailed, Reason: reason, Duration: result.Duration}
	}
	if result.ExitCode != 0 {
		reason := fmt.Sprintf("%s install exited %d", o.npm(), result.ExitCode)
		if tail := tailLines(result.Stderr, stderrTailLines); tail != "" {
			reason += ": " + tail
		}
		reason += "; " + InstallHint
		o.Log.Warn("dependency install failed", "exit_code", result.ExitCode)
		return Outcome{Status: StatusFailed, Reason: reason, Duration: result.Duration}
	}
	return Outcome{Status: StatusSuccess, Duration: result.Duration}
}

func (o *Orchestrator) initRepo(ctx context.Context, dest string) Outcome {
	exists, err := git.HasMetadata(o.FS, dest)
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("cannot inspect .git: %v", err)}
	}
	if exists {
		return Outcome{Status: StatusSkipped, Reason: "repository already exists"}
	}

	timeout := o.GitTimeout
	if timeout <= 0 {
		timeout = DefaultGitTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts := git.Opts{Env: git.CommandEnv(o.LookupEnv)}

	steps := []func() error{
		func() error { return git.Init(ctx, o.Runner, dest, opts) },
		func() error { return git.AddAll(ctx, o.Runner, dest, opts) },
		func() error { return git.Commit(ctx, o.Runner, dest, InitialCommitMessage, opts) },
	}
	for _, step := range steps {
		err := step()
		if err == nil {
			continue
		}
		if errors.Is(err, exec.ErrNotFound) {
			return Outcome{Status: StatusSkipped, Reason: "git not available"}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s", timeout)
		}
		o.Log.Warn("repository init failed", "error", err)
		return Outcome{Status: StatusFailed, Reason: err.Error()}
	}
	return Outcome{Status: StatusSuccess}
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
