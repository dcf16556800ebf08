package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/exec"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/paths"
	"github.com/NielsdaWheelz/tin/internal/tmpl"
)

// notFound is reported for tools and templates that could not be located.
const notFound = "<not found>"

// TemplateStatus is the resolution of one bundled template.
type TemplateStatus struct {
	ID  tmpl.ID
	Dir string // empty when not found
}

// DoctorReport holds all the data for doctor output.
type DoctorReport struct {
	DataDir    string
	ConfigDir  string
	ConfigFile string // empty when no config file exists

	Templates []TemplateStatus

	GitVersion string
	NpmVersion string
}

// Doctor implements the `tin doctor` command.
// It reports resolved directories, template locations and tool versions.
// Missing tools are reported only; a missing template fails with
// E_TEMPLATE_NOT_FOUND after the report is written.
func Doctor(ctx context.Context, cr exec.CommandRunner, fsys fs.FS, layout paths.Layout, configFile string, stdout io.Writer) error {
	dirs := paths.ResolveDirsWithOS(layout.Env, layout.HomeDir, layout.GOOS == "darwin")
	report := DoctorReport{
		DataDir:    dirs.DataDir,
		ConfigDir:  dirs.ConfigDir,
		ConfigFile: configFile,
		GitVersion: toolVersion(ctx, cr, "git", "--version"),
		NpmVersion: toolVersion(ctx, cr, npmCommand(layout.GOOS), "--version"),
	}

	var missing []string
	for _, id := range tmpl.All() {
		dir, err := tmpl.Resolve(fsys, id, tmpl.Candidates(layout, id))
		if err != nil {
			missing = append(missing, id.String())
		}
		report.Templates = append(report.Templates, TemplateStatus{ID: id, Dir: dir})
	}

	writeDoctorOutput(stdout, report)

	if len(missing) > 0 {
		return errors.NewWithDetails(errors.ETemplateNotFound,
			"templates not found: "+strings.Join(missing, ", "),
			map[string]string{"hint": "set " + paths.TemplatesDirEnv + " to the templates directory"})
	}
	return nil
}

// toolVersion returns the first output line of name args, or notFound.
func toolVersion(ctx context.Context, cr exec.CommandRunner, name string, args ...string) string {
	result, err := cr.Run(ctx, name, args, exec.RunOpts{})
	if err != nil || result.ExitCode != 0 {
		return notFound
	}
	line, _, _ := strings.Cut(strings.TrimSpace(result.Stdout), "\n")
	return strings.TrimSpace(line)
}

func npmCommand(goos string) string {
	if goos == "windows" {
		return "npm.cmd"
	}
	return "npm"
}

// writeDoctorOutput writes the stable key: value output.
func writeDoctorOutput(w io.Writer, r DoctorReport) {
	fmt.Fprintf(w, "tin_data_dir: %s\n", r.DataDir)
	fmt.Fprintf(w, "tin_config_dir: %s\n", r.ConfigDir)
	fmt.Fprintf(w, "config_file: %s\n", orNone(r.ConfigFile))

	for _, t := range r.Templates {
		key := "template_" + t.ID.Language + "_" + t.ID.Auth
		dir := t.Dir
		if dir == "" {
			dir = notFound
		}
		fmt.Fprintf(w, "%s: %s\n", key, dir)
	}

	fmt.Fprintf(w, "git_version: %s\n", r.GitVersion)
	fmt.Fprintf(w, "npm_version: %s\n", r.NpmVersion)

	status := "ok"
	for _, t := range r.Templates {
		if t.Dir == "" {
			status = "error"
		}
	}
	fmt.Fprintf(w, "status: %s\n", status)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
