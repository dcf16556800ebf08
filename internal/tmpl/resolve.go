// Package tmpl locates bundled project templates on disk.
package tmpl

import (
	"fmt"
	"strings"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/fs"
	"github.com/NielsdaWheelz/tin/internal/paths"
)

// Languages and auth methods with a bundled template.
const (
	LangJS = "js"
	LangTS = "ts"

	AuthJWT     = "jwt"
	AuthCookies = "cookies"
)

// ID names a template by language and, optionally, auth method.
type ID struct {
	Language string
	Auth     string
}

// String returns the template's path relative to a templates root,
// e.g. "ts/jwt", or "ts" when Auth is empty.
func (id ID) String() string {
	if id.Auth == "" {
		return id.Language
	}
	return id.Language + "/" + id.Auth
}

// All returns every bundled template in a stable order.
func All() []ID {
	var ids []ID
	for _, lang := range []string{LangTS, LangJS} {
		for _, auth := range []string{AuthJWT, AuthCookies} {
			ids = append(ids, ID{Language: lang, Auth: auth})
		}
	}
	return ids
}

// Candidates returns the search path for id under layout l.
func Candidates(l paths.Layout, id ID) []string {
	return paths.TemplateCandidates(l, id.String())
}

// Resolve returns the first candidate that exists, is a directory and has at
// least one entry. When none qualifies it returns E_TEMPLATE_NOT_FOUND listing
// every path tried, in order.
func Resolve(fsys fs.FS, id ID, candidates []string) (string, error) {
	for _, c := range candidates {
		if usable(fsys, c) {
			return c, nil
		}
	}

	msg := fmt.Sprintf("template %q not found; searched:", id.String())
	if len(candidates) == 0 {
		msg += " (no candidate locations)"
	}
	for _, c := range candidates {
		msg += "\n  " + c
	}
	return "", errors.NewWithDetails(errors.ETemplateNotFound, msg, map[string]string{
		"template": id.String(),
		"searched": strings.Join(candidates, ":"),
	})
}

func usable(fsys fs.FS, dir string) bool {
	info, err := fsys.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := fsys.ReadDir(dir)
	return err == nil && len(entries) > 0
}
