// Package feature adds optional files and dependencies to a copied project.
package feature

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/tmpl"
)

// Options carries the request fields features depend on.
type Options struct {
	ProjectName string
	Language    string // tmpl.LangJS or tmpl.LangTS
	CookieAuth  bool
	Port        int
	Docker      bool
	APIDocs     bool
}

// TypeScript reports whether the project is a TypeScript project.
func (o Options) TypeScript() bool {
	return o.Language == tmpl.LangTS
}

// SourceExt is the extension of the project's source files.
func (o Options) SourceExt() string {
	if o.TypeScript() {
		return ".ts"
	}
	return ".js"
}

// Feature is one optional customization. Apply returns the project-relative
// paths it wrote. A disabled feature is never applied.
type Feature struct {
	Name    string
	Enabled func(Options) bool
	Apply   func(ctx context.Context, fsys fs.FS, dir string, opts Options) ([]string, error)
}

// Features returns the features in the order Compose applies them.
func Features() []Feature {
	return []Feature{
		{Name: "docker", Enabled: func(o Options) bool { return o.Docker }, Apply: applyDocker},
		{Name: "apidocs", Enabled: func(o Options) bool { return o.APIDocs }, Apply: applyAPIDocs},
		{Name: "gitignore", Enabled: func(Options) bool { return true }, Apply: applyGitignore},
	}
}

// Compose applies every enabled feature to dir in order and returns the
// paths written. The first failure stops composition with E_FEATURE.
func Compose(ctx context.Context, fsys fs.FS, dir string, opts Options, log *slog.Logger) ([]string, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var written []string
	for _, f := range Features() {
		if !f.Enabled(opts) {
			log.Debug("feature disabled", "feature", f.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, errors.WrapWithDetails(errors.EFeature, "feature composition canceled", err,
				map[string]string{"feature": f.Name})
		}

		files, err := f.Apply(ctx, fsys, dir, opts)
		if err != nil {
			return written, featureError(f.Name, err)
		}
		log.Debug("feature applied", "feature", f.Name, "files", files)
		written = append(written, files...)
	}
	return written, nil
}

func featureError(name string, err error) error {
	details := map[string]string{"feature": name}
	if te, ok := errors.AsTinError(err); ok {
		for k, v := range te.Details {
			details[k] = v
		}
		if te.Code == errors.EFeature {
			return errors.WrapWithDetails(errors.EFeature, te.Msg, te.Cause, details)
		}
		return errors.WrapWithDetails(errors.EFeature, name+": "+te.Msg, err, details)
	}
	return errors.WrapWithDetails(errors.EFeature, name+" feature failed", err, details)
}

// writeFile writes data to dir/rel atomically, creating parent directories.
func writeFile(fsys fs.FS, dir, rel string, data []byte, perm os.FileMode) error {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithDetails(errors.EWriteFailed, "failed to create directory for "+rel, err,
			map[string]string{"path": path})
	}
	if err := fs.WriteFileAtomic(fsys, path, data, perm); err != nil {
		return errors.WrapWithDetails(errors.EWriteFailed, "failed to write "+rel, err,
			map[string]string{"path": path})
	}
	return nil
}
