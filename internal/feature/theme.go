package feature

import (
	"fmt"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
)

// SwaggerVariant is the theme variant the documentation stylesheet uses.
const SwaggerVariant = "dark"

// SwaggerTheme describes the colors of the generated documentation page.
// Base tokens are a neutral palette; variants override individual tokens.
var SwaggerTheme = &theme.Manifest{
	Name:    "tin-swagger",
	Version: "1.0.0",
	Tokens: map[string]string{
		"background": "#fafafa",
		"surface":    "#ffffff",
		"text":       "#1f2328",
		"muted":      "#57606a",
		"border":     "#d0d7de",
		"accent":     "#0969da",
		"code_bg":    "#f6f8fa",
		"get":        "#1f6feb",
		"post":       "#1a7f37",
		"put":        "#9a6700",
		"delete":     "#cf222e",
		"patch":      "#8250df",
	},
	Variants: map[string]theme.Variant{
		"dark": {
			Tokens: map[string]string{
				"background": "#1a1a1a",
				"surface":    "#242424",
				"text":       "#ffffff",
				"muted":      "#b0b0b0",
				"border":     "#3a3a3a",
				"accent":     "#61affe",
				"code_bg":    "#2d2d2d",
				"get":        "#61affe",
				"post":       "#49cc90",
				"put":        "#fca130",
				"delete":     "#f93e3e",
				"patch":      "#50e3c2",
			},
		},
	},
}

func renderSwaggerCSS() ([]byte, error) {
	if err := SwaggerTheme.Validate(); err != nil {
		return nil, fmt.Errorf("theme %s: %w", SwaggerTheme.Name, err)
	}
	return render("swagger-dark.css.tpl", pongo2.Context{
		"theme":  SwaggerTheme.Name,
		"tokens": SwaggerTheme.TokensForVariant(SwaggerVariant),
	})
}
