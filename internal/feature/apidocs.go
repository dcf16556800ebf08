package feature

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/scaffold"
)

// API docs feature outputs, relative to the project root.
const (
	OpenAPIPath    = "src/docs/openapi.yaml"
	SwaggerCSSPath = "src/docs/swagger-dark.css"
)

// Dependencies added by the apidocs feature.
var (
	DocsDependencies = [][2]string{
		{"swagger-ui-express", "^5.0.0"},
		{"js-yaml", "^4.1.0"},
	}
	DocsDevDependencies = [][2]string{
		{"@types/swagger-ui-express", "^4.1.6"},
		{"@types/js-yaml", "^4.0.9"},
	}
)

// SwaggerConfigPath returns the documentation service module path.
func SwaggerConfigPath(opts Options) string {
	return "src/config/swagger" + opts.SourceExt()
}

// EntryPath returns the project's entry point.
func EntryPath(opts Options) string {
	return "src/index" + opts.SourceExt()
}

func applyAPIDocs(ctx context.Context, fsys fs.FS, dir string, opts Options) ([]string, error) {
	var written []string

	if err := mergeDocsDependencies(fsys, dir, opts); err != nil {
		return written, err
	}
	written = append(written, scaffold.ManifestFile)

	doc, err := RenderOpenAPI(ctx, opts)
	if err != nil {
		return written, err
	}
	if err := writeFile(fsys, dir, OpenAPIPath, doc, 0o644); err != nil {
		return written, err
	}
	written = append(written, OpenAPIPath)

	css, err := renderSwaggerCSS()
	if err != nil {
		return written, err
	}
	if err := writeFile(fsys, dir, SwaggerCSSPath, css, 0o644); err != nil {
		return written, err
	}
	written = append(written, SwaggerCSSPath)

	cfg, err := render("swagger"+opts.SourceExt()+".tpl", pongo2.Context{"title": opts.ProjectName + " API Documentation"})
	if err != nil {
		return written, err
	}
	if err := writeFile(fsys, dir, SwaggerConfigPath(opts), cfg, 0o644); err != nil {
		return written, err
	}
	written = append(written, SwaggerConfigPath(opts))

	if err := patchEntryFile(fsys, dir, opts); err != nil {
		return written, err
	}
	return append(written, EntryPath(opts)), nil
}

func mergeDocsDependencies(fsys fs.FS, dir string, opts Options) error {
	m, err := scaffold.LoadManifest(fsys, dir)
	if err != nil {
		return err
	}
	if _, err := m.MergeSection("dependencies", DocsDependencies); err != nil {
		return errors.Wrap(errors.EManifestInvalid, "cannot merge dependencies", err)
	}
	if opts.TypeScript() {
		if _, err := m.MergeSection("devDependencies", DocsDevDependencies); err != nil {
			return errors.Wrap(errors.EManifestInvalid, "cannot merge devDependencies", err)
		}
	}
	return m.Save(fsys)
}

// RenderOpenAPI renders the project's OpenAPI document and validates it.
func RenderOpenAPI(ctx context.Context, opts Options) ([]byte, error) {
	scheme := "BearerAuth"
	if opts.CookieAuth {
		scheme = "CookieAuth"
	}
	doc, err := render("openapi.yaml.tpl", pongo2.Context{
		"title":       opts.ProjectName + " API",
		"description": "API documentation for " + opts.ProjectName,
		"port":        opts.Port,
		"cookie_auth": opts.CookieAuth,
		"scheme":      scheme,
	})
	if err != nil {
		return nil, err
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return nil, errors.Wrap(errors.EFeature, "generated OpenAPI document does not parse", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, errors.Wrap(errors.EFeature, "generated OpenAPI document is invalid", err)
	}
	return doc, nil
}

func patchEntryFile(fsys fs.FS, dir string, opts Options) error {
	rel := EntryPath(opts)
	path := filepath.Join(dir, filepath.FromSlash(rel))
	src, err := fsys.ReadFile(path)
	if err != nil {
		return errors.WrapWithDetails(errors.EFeature, fmt.Sprintf("cannot read entry point %s", rel), err,
			map[string]string{"path": path})
	}
	patched, _ := PatchEntry(string(src))
	if patched == string(src) {
		return nil
	}
	info, err := fsys.Stat(path)
	if err != nil {
		return errors.Wrap(errors.EFeature, "cannot stat entry point", err)
	}
	return writeFile(fsys, dir, rel, []byte(patched), info.Mode().Perm())
}
