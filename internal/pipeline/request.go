package pipeline

import (
	"fmt"

	"github.com/NielsdaWheelz/tin/internal/core"
	"github.com/NielsdaWheelz/tin/internal/envfile"
	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/feature"
	"github.com/NielsdaWheelz/tin/internal/tmpl"
)

// DefaultPort is applied by the CLI when no port is given.
const DefaultPort = 3000

// Request is a fully resolved scaffold request. It is read-only once built.
type Request struct {
	ProjectName string
	Language    string // tmpl.LangJS or tmpl.LangTS
	Auth        string // tmpl.AuthJWT or tmpl.AuthCookies
	Port        int
	Git         bool
	Docker      bool
	APIDocs     bool
}

// Validate checks the request invariants. Errors are E_INVALID_REQUEST.
func (r Request) Validate() error {
	if err := core.ValidateProjectName(r.ProjectName); err != nil {
		return errors.WrapWithDetails(errors.EInvalidRequest, err.Error(), err,
			map[string]string{"field": "project_name"})
	}
	if r.Language != tmpl.LangJS && r.Language != tmpl.LangTS {
		return errors.NewWithDetails(errors.EInvalidRequest,
			fmt.Sprintf("language must be %q or %q, got %q", tmpl.LangJS, tmpl.LangTS, r.Language),
			map[string]string{"field": "language"})
	}
	if r.Auth != tmpl.AuthJWT && r.Auth != tmpl.AuthCookies {
		return errors.NewWithDetails(errors.EInvalidRequest,
			fmt.Sprintf("auth must be %q or %q, got %q", tmpl.AuthJWT, tmpl.AuthCookies, r.Auth),
			map[string]string{"field": "auth"})
	}
	if r.Port < 0 || r.Port > 65535 {
		return errors.NewWithDetails(errors.EInvalidRequest,
			fmt.Sprintf("port %d out of range 0-65535", r.Port),
			map[string]string{"field": "port"})
	}
	return nil
}

// TemplateID returns the template the request selects.
func (r Request) TemplateID() tmpl.ID {
	return tmpl.ID{Language: r.Language, Auth: r.Auth}
}

// EnvInput projects the request onto the env file generator's input.
func (r Request) EnvInput() envfile.Input {
	return envfile.Input{
		ProjectName: r.ProjectName,
		Port:        r.Port,
		CookieAuth:  r.Auth == tmpl.AuthCookies,
		Docker:      r.Docker,
		APIDocs:     r.APIDocs,
	}
}

// FeatureOptions projects the request onto the feature composer's options.
func (r Request) FeatureOptions() feature.Options {
	return feature.Options{
		ProjectName: r.ProjectName,
		Language:    r.Language,
		CookieAuth:  r.Auth == tmpl.AuthCookies,
		Port:        r.Port,
		Docker:      r.Docker,
		APIDocs:     r.APIDocs,
	}
}
