package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/exec"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/paths"
	"github.com/NielsdaWheelz/tin/internal/pipeline"
	"github.com/NielsdaWheelz/tin/internal/postprocess"
	"github.com/NielsdaWheelz/tin/internal/render"
)

// mockRunner implements exec.CommandRunner for testing.
type mockRunner struct {
	responses map[string]exec.CmdResult
}

func (m *mockRunner) Run(_ context.Context, name string, args []string, _ exec.RunOpts) (exec.CmdResult, error) {
	key := name + " " + strings.Join(args, " ")
	if result, ok := m.responses[key]; ok {
		return result, nil
	}
	return exec.CmdResult{ExitCode: exec.ExitStartFail}, fmt.Errorf("mock: %s: %w", key, exec.ErrNotFound)
}

// fakeService succeeds every step unless failAt names one.
type fakeService struct {
	failAt string
	err    error
}

func (f *fakeService) fail(step string) error {
	if f.failAt == step {
		return f.err
	}
	return nil
}

func (f *fakeService) ResolveTemplate(_ context.Context, st *pipeline.State) error {
	st.TemplateDir = "/tpl/ts/jwt"
	return f.fail(pipeline.StepResolveTemplate)
}

func (f *fakeService) CheckDestination(_ context.Context, st *pipeline.State) error {
	st.Dest = "/work/" + st.Request.ProjectName
	return f.fail(pipeline.StepCheckDestination)
}

func (f *fakeService) CopyTemplate(_ context.Context, st *pipeline.State) error {
	st.StagingDir = "/work/.api.tin-1"
	return f.fail(pipeline.StepCopyTemplate)
}

func (f *fakeService) RewriteManifest(context.Context, *pipeline.State) error {
	return f.fail(pipeline.StepRewriteManifest)
}

func (f *fakeService) WriteEnv(_ context.Context, st *pipeline.State) error {
	st.Files = append(st.Files, ".env", ".env.example")
	return f.fail(pipeline.StepWriteEnv)
}

func (f *fakeService) ComposeFeatures(context.Context, *pipeline.State) error {
	return f.fail(pipeline.StepComposeFeatures)
}

func (f *fakeService) Publish(_ context.Context, st *pipeline.State) error {
	if err := f.fail(pipeline.StepPublish); err != nil {
		return err
	}
	st.StagingDir = ""
	return nil
}

func (f *fakeService) PostProcess(_ context.Context, st *pipeline.State) {
	st.Report = postprocess.Report{Outcomes: []postprocess.Outcome{
		{Task: postprocess.TaskInstall, Status: postprocess.StatusFailed, Reason: "npm install exited 1; " + postprocess.InstallHint},
	}}
}

func testRequest() pipeline.Request {
	return pipeline.Request{ProjectName: "api", Language: "ts", Auth: "jwt", Port: 3000}
}

func TestCreate_Human(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Create(context.Background(), &fakeService{}, testRequest(), CreateOpts{}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "created api") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "warning: install:") {
		t.Errorf("stderr = %q, want install warning", stderr.String())
	}
}

func TestCreate_JSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Create(context.Background(), &fakeService{}, testRequest(), CreateOpts{JSON: true}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	var env render.JSONEnvelope
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if env.Data == nil || env.Data.Dest != "/work/api" || len(env.Data.Files) != 2 {
		t.Errorf("data = %+v", env.Data)
	}
}

func TestCreate_FailureReportsStaging(t *testing.T) {
	svc := &fakeService{failAt: pipeline.StepComposeFeatures, err: errors.New(errors.EFeature, "docker failed")}
	var stdout, stderr bytes.Buffer
	err := Create(context.Background(), svc, testRequest(), CreateOpts{JSON: true}, &stdout, &stderr)

	if errors.GetCode(err) != errors.EFeature {
		t.Fatalf("code = %q, want E_FEATURE", errors.GetCode(err))
	}
	if !strings.Contains(stderr.String(), "partial project left in /work/.api.tin-1") {
		t.Errorf("stderr = %q", stderr.String())
	}
	var env render.JSONEnvelope
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if env.Data != nil || env.Error == nil || env.Error.Code != "E_FEATURE" {
		t.Errorf("envelope = %+v", env)
	}
	if env.Error.Details["staging_dir"] != "/work/.api.tin-1" {
		t.Errorf("details = %v", env.Error.Details)
	}
}

func doctorLayout(t *testing.T, withTemplates bool) paths.Layout {
	t.Helper()
	root := t.TempDir()
	if withTemplates {
		for _, rel := range []string{"ts/jwt", "ts/cookies", "js/jwt", "js/cookies"} {
			dir := filepath.Join(root, "templates", filepath.FromSlash(rel))
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	env := map[string]string{
		paths.TemplatesDirEnv: filepath.Join(root, "templates"),
		"TIN_DATA_DIR":        filepath.Join(root, "data"),
		"TIN_CONFIG_DIR":      filepath.Join(root, "config"),
	}
	return paths.Layout{
		Cwd:     filepath.Join(root, "empty"),
		HomeDir: root,
		GOOS:    "linux",
		Env:     paths.EnvFunc(func(k string) string { return env[k] }),
	}
}

func TestDoctor_OK(t *testing.T) {
	layout := doctorLayout(t, true)
	cr := &mockRunner{responses: map[string]exec.CmdResult{
		"git --version": {Stdout: "git version 2.43.0\n"},
		"npm --version": {Stdout: "10.2.4\n"},
	}}
	var stdout bytes.Buffer
	if err := Doctor(context.Background(), cr, fs.NewRealFS(), layout, "", &stdout); err != nil {
		t.Fatalf("Doctor() error = %v\n%s", err, stdout.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"tin_data_dir: " + layout.Env.Get("TIN_DATA_DIR") + "\n",
		"config_file: <none>\n",
		"template_ts_jwt: " + filepath.Join(layout.Env.Get(paths.TemplatesDirEnv), "ts", "jwt") + "\n",
		"template_js_cookies: ",
		"git_version: git version 2.43.0\n",
		"npm_version: 10.2.4\n",
		"status: ok\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctor_MissingTemplatesAndTools(t *testing.T) {
	layout := doctorLayout(t, false)
	var stdout bytes.Buffer
	err := Doctor(context.Background(), &mockRunner{}, fs.NewRealFS(), layout, "/cfg/config.yaml", &stdout)

	if errors.GetCode(err) != errors.ETemplateNotFound {
		t.Fatalf("code = %q, want E_TEMPLATE_NOT_FOUND", errors.GetCode(err))
	}
	out := stdout.String()
	for _, want := range []string{
		"config_file: /cfg/config.yaml\n",
		"template_ts_jwt: <not found>\n",
		"git_version: <not found>\n",
		"status: error\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
