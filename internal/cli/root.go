// Package cli builds the tin command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NielsdaWheelz/tin/internal/commands"
	"github.com/NielsdaWheelz/tin/internal/config"
	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/exec"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/logging"
	"github.com/NielsdaWheelz/tin/internal/paths"
	"github.com/NielsdaWheelz/tin/internal/pipeline"
	"github.com/NielsdaWheelz/tin/internal/runservice"
)

// Version is set at build time with -ldflags "-X github.com/NielsdaWheelz/tin/internal/cli.Version=v1.2.3".
var Version = "dev"

// Deps holds everything the commands touch outside the process.
type Deps struct {
	Stdout io.Writer
	Stderr io.Writer

	// Interactive enables prompts for choices missing from the flags.
	Interactive bool
	Prompter    Prompter

	Layout     func() (paths.Layout, error)
	Runner     exec.CommandRunner
	FS         fs.FS
	NewService func(paths.Layout, *slog.Logger) pipeline.ScaffoldService
}

// DefaultDeps returns production dependencies.
func DefaultDeps(stdout, stderr io.Writer) Deps {
	cr := exec.NewRealRunner()
	fsys := fs.NewRealFS()
	fd := os.Stdin.Fd()
	return Deps{
		Stdout:      stdout,
		Stderr:      stderr,
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		Prompter:    newSurveyPrompter(),
		Layout:      paths.CurrentLayout,
		Runner:      cr,
		FS:          fsys,
		NewService: func(l paths.Layout, log *slog.Logger) pipeline.ScaffoldService {
			return runservice.NewWithDeps(cr, fsys, l, log)
		},
	}
}

// Run parses args and executes the matching command with production dependencies.
// Returns an error if the command fails; the caller should print the error and exit.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return RunWithDeps(ctx, args, DefaultDeps(stdout, stderr))
}

// RunWithDeps is Run with injected dependencies.
// Errors that carry no code (flag parsing, argument counts) become E_USAGE.
func RunWithDeps(ctx context.Context, args []string, d Deps) error {
	root := NewRootCommand(d)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if _, ok := errors.AsTinError(err); ok {
		return err
	}
	return errors.Wrap(errors.EUsage, err.Error(), err)
}

// env holds what every command resolves before doing work.
type env struct {
	layout   paths.Layout
	settings config.Settings
	log      *slog.Logger
}

func (d Deps) setup(verbose bool) (env, error) {
	layout, err := d.Layout()
	if err != nil {
		return env{}, errors.Wrap(errors.EInternal, "failed to inspect process layout", err)
	}
	dirs := paths.ResolveDirsWithOS(layout.Env, layout.HomeDir, layout.GOOS == "darwin")
	settings, err := config.Load(viper.New(), dirs.ConfigDir)
	if err != nil {
		return env{}, err
	}
	log := logging.New(d.Stderr, settings.LogLevel, verbose)
	log.Debug("settings loaded", "config_file", settings.File, "config_dir", dirs.ConfigDir)
	return env{layout: layout, settings: settings, log: log}, nil
}

// NewRootCommand builds the command tree. The root command creates a project.
func NewRootCommand(d Deps) *cobra.Command {
	var c choices

	root := &cobra.Command{
		Use:   "tin [project-name]",
		Short: "Scaffold an Express + MongoDB API in TypeScript or JavaScript",
		Long: `tin creates a new Express + MongoDB API project from a bundled template.

Choices not given as flags are prompted for when stdin is a terminal, and
otherwise taken from ` + paths.AppName + `'s config file (TIN_* environment
variables override it).`,
		Example: `  tin shop-api --ts --jwt --port 4000
  tin shop-api --js --cookies --skip-docker --yes`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.portSet = cmd.Flags().Changed("port")
			e, err := d.setup(c.verbose)
			if err != nil {
				return err
			}

			var p Prompter
			if d.Interactive && !c.yes {
				p = d.Prompter
			}
			req, err := resolveRequest(args, c, e.settings, p)
			if err != nil {
				return err
			}
			e.log.Debug("request resolved", "project", req.ProjectName, "template", req.TemplateID().String())

			svc := d.NewService(e.layout, e.log)
			return commands.Create(cmd.Context(), svc, req, commands.CreateOpts{JSON: c.jsonOutput}, d.Stdout, d.Stderr)
		},
	}
	root.SetOut(d.Stdout)
	root.SetErr(d.Stderr)
	root.SetVersionTemplate(fmt.Sprintf("%s {{.Version}}\n", paths.AppName))

	f := root.Flags()
	f.BoolVar(&c.ts, "ts", false, "use TypeScript")
	f.BoolVar(&c.js, "js", false, "use JavaScript")
	f.BoolVar(&c.jwt, "jwt", false, "use JWT (header-based) authentication")
	f.BoolVar(&c.cookies, "cookies", false, "use cookie-based authentication")
	f.BoolVar(&c.git, "git", false, "initialize a Git repository")
	f.BoolVar(&c.skipGit, "skip-git", false, "skip Git repository initialization")
	f.BoolVar(&c.docker, "docker", false, "include Docker configuration")
	f.BoolVar(&c.skipDocker, "skip-docker", false, "skip Docker configuration")
	f.BoolVar(&c.swagger, "swagger", false, "include Swagger API documentation")
	f.BoolVar(&c.skipSwagger, "skip-swagger", false, "skip Swagger API documentation")
	f.IntVar(&c.port, "port", 3000, "port the application listens on")
	f.BoolVarP(&c.yes, "yes", "y", false, "never prompt; use config defaults for missing choices")
	f.BoolVar(&c.jsonOutput, "json", false, "write the result as JSON to stdout")
	root.PersistentFlags().BoolVar(&c.verbose, "verbose", false, "log debug output to stderr")

	root.MarkFlagsMutuallyExclusive("ts", "js")
	root.MarkFlagsMutuallyExclusive("jwt", "cookies")
	root.MarkFlagsMutuallyExclusive("git", "skip-git")
	root.MarkFlagsMutuallyExclusive("docker", "skip-docker")
	root.MarkFlagsMutuallyExclusive("swagger", "skip-swagger")

	root.AddCommand(newDoctorCommand(d, &c.verbose))
	return root
}

func newDoctorCommand(d Deps, verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Show resolved directories, template locations and tool versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := d.setup(*verbose)
			if err != nil {
				return err
			}
			return commands.Doctor(cmd.Context(), d.Runner, d.FS, e.layout, e.settings.File, d.Stdout)
		},
	}
}
