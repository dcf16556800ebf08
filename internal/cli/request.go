package cli

import (
	"github.com/NielsdaWheelz/tin/internal/config"
	"github.com/NielsdaWheelz/tin/internal/core"
	"github.com/NielsdaWheelz/tin/internal/pipeline"
	"github.com/NielsdaWheelz/tin/internal/tmpl"
)

// choices holds the create flags. For each pair at most one side is set;
// cobra enforces the exclusion.
type choices struct {
	ts, js                   bool
	jwt, cookies             bool
	git, skipGit             bool
	docker, skipDocker       bool
	swagger, skipSwagger     bool
	port                     int
	portSet                  bool
	yes, verbose, jsonOutput bool
}

var languageOptions = []Option{
	{Label: "TypeScript - type-safe JavaScript", Value: tmpl.LangTS},
	{Label: "JavaScript - classic JavaScript", Value: tmpl.LangJS},
}

var authOptions = []Option{
	{Label: "JWT (header-based) - classic token authentication", Value: tmpl.AuthJWT},
	{Label: "Cookies - JWT stored in an httpOnly cookie", Value: tmpl.AuthCookies},
}

// resolveRequest builds the scaffold request. Flags win; otherwise the user
// is asked when p is non-nil; otherwise settings supply the value.
func resolveRequest(args []string, c choices, s config.Settings, p Prompter) (pipeline.Request, error) {
	req := pipeline.Request{ProjectName: core.DefaultProjectName}
	if len(args) > 0 {
		req.ProjectName = args[0]
	}

	var err error
	if req.Language, err = pickString(c.ts, c.js, tmpl.LangTS, tmpl.LangJS, s.Language, p,
		"Choose a language:", languageOptions); err != nil {
		return req, err
	}
	if req.Auth, err = pickString(c.jwt, c.cookies, tmpl.AuthJWT, tmpl.AuthCookies, s.Auth, p,
		"Choose authentication method:", authOptions); err != nil {
		return req, err
	}
	if req.Git, err = pickBool(c.git, c.skipGit, s.Git, p, "Initialize Git repository?"); err != nil {
		return req, err
	}

	switch {
	case c.portSet:
		req.Port = c.port
	case p != nil:
		if req.Port, err = p.Port("Enter the port number for your application:", s.Port); err != nil {
			return req, err
		}
	default:
		req.Port = s.Port
	}

	if req.Docker, err = pickBool(c.docker, c.skipDocker, s.Docker, p, "Include Docker configuration?"); err != nil {
		return req, err
	}
	if req.APIDocs, err = pickBool(c.swagger, c.skipSwagger, s.Swagger, p, "Include Swagger API documentation?"); err != nil {
		return req, err
	}
	return req, nil
}

func pickString(a, b bool, aVal, bVal, def string, p Prompter, msg string, opts []Option) (string, error) {
	switch {
	case a:
		return aVal, nil
	case b:
		return bVal, nil
	case p != nil:
		return p.Select(msg, opts, def)
	}
	return def, nil
}

func pickBool(yes, no, def bool, p Prompter, msg string) (bool, error) {
	switch {
	case yes:
		return true, nil
	case no:
		return false, nil
	case p != nil:
		return p.Confirm(msg, def)
	}
	return def, nil
}
