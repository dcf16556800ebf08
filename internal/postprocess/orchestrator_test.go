package postprocess

import (
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NielsdaWheelz/tin/internal/exec"
	"github.com/NielsdaWheelz/tin/internal/fs"
)

// stubRunner answers by command name; it is safe for concurrent use.
type stubRunner struct {
	mu      sync.Mutex
	results map[string]exec.CmdResult // key: "name arg0"
	errs    map[string]error
	calls   []string
}

func newStubRunner() *stubRunner {
	return &stubRunner{results: map[string]exec.CmdResult{}, errs: map[string]error{}}
}

func (s *stubRunner) Run(_ context.Context, name string, args []string, _ exec.RunOpts) (exec.CmdResult, error) {
	key := name
	if len(args) > 0 {
		key += " " + args[0]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, key)
	if err, ok := s.errs[key]; ok {
		return exec.CmdResult{ExitCode: exec.ExitStartFail}, err
	}
	return s.results[key], nil
}

func (s *stubRunner) called(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == key {
			return true
		}
	}
	return false
}

// blockingGit answers npm at once and holds every git call until ctx ends.
type blockingGit struct{}

func (blockingGit) Run(ctx context.Context, name string, _ []string, _ exec.RunOpts) (exec.CmdResult, error) {
	if name != "git" {
		return exec.CmdResult{}, nil
	}
	<-ctx.Done()
	return exec.CmdResult{ExitCode: exec.ExitCanceled}, ctx.Err()
}

func TestRun_GitTimeoutFailsOnlyGit(t *testing.T) {
	o := newTestOrchestrator(blockingGit{})
	o.GitTimeout = 50 * time.Millisecond

	report := o.Run(context.Background(), t.TempDir(), Plan{Git: true})

	gitOut, ok := report.Outcome(TaskGit)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, gitOut.Status)
	assert.Equal(t, "timed out after 50ms", gitOut.Reason)

	install, ok := report.Outcome(TaskInstall)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, install.Status)
}

func TestNew_DefaultGitTimeout(t *testing.T) {
	assert.Equal(t, DefaultGitTimeout, New(newStubRunner(), fs.NewRealFS(), nil).GitTimeout)
}

func newTestOrchestrator(cr exec.CommandRunner) *Orchestrator {
	o := New(cr, fs.NewRealFS(), nil)
	o.GOOS = "linux"
	o.LookupEnv = func(string) (string, bool) { return "", false }
	return o
}

func TestRun_InstallFailureDoesNotAffectGit(t *testing.T) {
	cr := newStubRunner()
	cr.results["npm install"] = exec.CmdResult{ExitCode: 1, Stderr: "npm ERR! network\nnpm ERR! ETIMEDOUT\n"}

	report := newTestOrchestrator(cr).Run(context.Background(), t.TempDir(), Plan{Git: true})

	install, ok := report.Outcome(TaskInstall)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, install.Status)
	assert.Contains(t, install.Reason, InstallHint)
	assert.Contains(t, install.Reason, "ETIMEDOUT")

	gitOut, ok := report.Outcome(TaskGit)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, gitOut.Status)
	assert.True(t, cr.called("git commit"))

	assert.False(t, report.AllSucceeded())
	assert.Len(t, report.Failed(), 1)
}

func TestRun_GitSkippedWhenRepositoryExists(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dest, ".git"), 0o755))
	cr := newStubRunner()

	report := newTestOrchestrator(cr).Run(context.Background(), dest, Plan{Git: true})

	gitOut, _ := report.Outcome(TaskGit)
	assert.Equal(t, StatusSkipped, gitOut.Status)
	assert.Equal(t, "repository already exists", gitOut.Reason)
	assert.False(t, cr.called("git init"))
	assert.True(t, report.AllSucceeded())
}

func TestRun_GitMissingBinaryIsSkipped(t *testing.T) {
	cr := newStubRunner()
	cr.errs["git init"] = fmt.Errorf("exec: \"git\": %w", exec.ErrNotFound)

	report := newTestOrchestrator(cr).Run(context.Background(), t.TempDir(), Plan{Git: true})

	gitOut, _ := report.Outcome(TaskGit)
	assert.Equal(t, StatusSkipped, gitOut.Status)
	assert.Equal(t, "git not available", gitOut.Reason)
}

func TestRun_GitCommitFailure(t *testing.T) {
	cr := newStubRunner()
	cr.results["git commit"] = exec.CmdResult{ExitCode: 128, Stderr: "fatal: empty ident"}

	report := newTestOrchestrator(cr).Run(context.Background(), t.TempDir(), Plan{Git: true})

	gitOut, _ := report.Outcome(TaskGit)
	assert.Equal(t, StatusFailed, gitOut.Status)
	assert.Contains(t, gitOut.Reason, "empty ident")
	install, _ := report.Outcome(TaskInstall)
	assert.Equal(t, StatusSuccess, install.Status)
}

func TestRun_NoGitWhenNotRequested(t *testing.T) {
	cr := newStubRunner()

	report := newTestOrchestrator(cr).Run(context.Background(), t.TempDir(), Plan{})

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, TaskInstall, report.Outcomes[0].Task)
	_, ok := report.Outcome(TaskGit)
	assert.False(t, ok)
}

func TestRun_WindowsUsesNpmCmd(t *testing.T) {
	cr := newStubRunner()
	o := newTestOrchestrator(cr)
	o.GOOS = "windows"

	o.Run(context.Background(), t.TempDir(), Plan{})
	assert.True(t, cr.called("npm.cmd install"))
}

func TestRun_InstallStartFailure(t *testing.T) {
	cr := newStubRunner()
	cr.errs["npm install"] = fmt.Errorf("exec: \"npm\": %w", exec.ErrNotFound)

	report := newTestOrchestrator(cr).Run(context.Background(), t.TempDir(), Plan{})

	install, _ := report.Outcome(TaskInstall)
	assert.Equal(t, StatusFailed, install.Status)
	assert.Contains(t, install.Reason, InstallHint)
}

func TestRunTasks_ConcurrentAndComplete(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)

	slow := func(name string, status Status) Task {
		return Task{Name: name, Run: func(ctx context.Context) Outcome {
			started <- name
			<-release
			return Outcome{Status: status}
		}}
	}
	done := make(chan Report)
	go func() {
		done <- RunTasks(context.Background(), []Task{slow("a", StatusFailed), slow("b", StatusSuccess)})
	}()

	// Both tasks must be running at once before either finishes.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("tasks did not start concurrently")
		}
	}
	close(release)

	report := <-done
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "a", report.Outcomes[0].Task)
	assert.Equal(t, StatusFailed, report.Outcomes[0].Status)
	assert.Equal(t, "b", report.Outcomes[1].Task)
	assert.Equal(t, StatusSuccess, report.Outcomes[1].Status)
}

func TestRun_RealGitDoesNotRecommit(t *testing.T) {
	if _, err := osexec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "package.json"), []byte("{}\n"), 0o644))

	cr := exec.NewRealRunner()
	o := New(cr, fs.NewRealFS(), nil)
	o.LookupEnv = func(string) (string, bool) { return "", false }
	ctx := context.Background()

	first := RunTasks(ctx, o.Tasks(dest, Plan{Git: true})[1:])
	out, _ := first.Outcome(TaskGit)
	require.Equal(t, StatusSuccess, out.Status, out.Reason)

	second := RunTasks(ctx, o.Tasks(dest, Plan{Git: true})[1:])
	out, _ = second.Outcome(TaskGit)
	assert.Equal(t, StatusSkipped, out.Status)

	count, err := cr.Run(ctx, "git", []string{"rev-list", "--count", "HEAD"}, exec.RunOpts{Dir: dest})
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(count.Stdout))
}

func TestTailLines(t *testing.T) {
	in := strings.Repeat("line\n", 10) + "last\n"
	got := tailLines(in, 2)
	assert.Equal(t, "line\nlast", got)
}
