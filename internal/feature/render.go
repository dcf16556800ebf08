package feature

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	iofs "io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tpl
var templateFiles embed.FS

var (
	templateSetOnce sync.Once
	templateSet     *pongo2.TemplateSet
)

func templates() *pongo2.TemplateSet {
	templateSetOnce.Do(func() {
		sub, err := iofs.Sub(templateFiles, "templates")
		if err != nil {
			panic(err) // embed layout is fixed at build time
		}
		templateSet = pongo2.NewSet("tin-features", pongo2.NewFSLoader(sub))
		if !pongo2.FilterExists("quote") {
			_ = pongo2.RegisterFilter("quote", filterQuote)
		}
	})
	return templateSet
}

// filterQuote renders a value as a double-quoted string literal that is
// valid in both YAML and JavaScript.
func filterQuote(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(in.String()); err != nil {
		return nil, &pongo2.Error{Sender: "filter:quote", OrigError: err}
	}
	return pongo2.AsValue(strings.TrimSuffix(buf.String(), "\n")), nil
}

// render executes the embedded template name with ctx.
// Templates wrap their body in {% autoescape off %}; output is never HTML.
// The result ends with exactly one newline.
func render(name string, ctx pongo2.Context) ([]byte, error) {
	t, err := templates().FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("load template %q: %w", name, err)
	}
	out, err := t.ExecuteBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("render template %q: %w", name, err)
	}
	return append(bytes.TrimRight(out, "\n"), '\n'), nil
}
