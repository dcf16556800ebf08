// Package envfile builds the environment variable set of a generated project
// and renders it as .env and .env.example.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/NielsdaWheelz/tin/internal/core"
	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/fs"
)

// File names and modes. The live file holds a secret and is owner-only.
const (
	LiveFile    = ".env"
	ExampleFile = ".env.example"

	LiveMode    = 0o600
	ExampleMode = 0o644
)

// MinSecretBytes is the minimum signing-secret entropy Build accepts.
const MinSecretBytes = 32

// Section headers, in file order.
const (
	SectionServer   = "Server Configuration"
	SectionDatabase = "Database Configuration"
	SectionAuth     = "Authentication"
	SectionDocker   = "Docker Configuration"
	SectionAPIDocs  = "API Documentation (Swagger)"
)

// Input is the subset of a scaffold request the env files depend on.
type Input struct {
	ProjectName string
	Port        int
	CookieAuth  bool
	Docker      bool
	APIDocs     bool
}

// Var is one variable: its live value, the placeholder written to the
// example file, and optional example-only comment lines.
type Var struct {
	Section string
	Value   string
	Example string
	Notes   []string
}

// VarSet is an ordered name -> Var mapping; insertion order is file order.
type VarSet struct {
	vars *orderedmap.OrderedMap[string, Var]
}

func newVarSet() *VarSet {
	return &VarSet{vars: orderedmap.New[string, Var]()}
}

func (s *VarSet) set(name string, v Var) {
	s.vars.Set(name, v)
}

// Get returns the live value of name.
func (s *VarSet) Get(name string) (string, bool) {
	v, ok := s.vars.Get(name)
	return v.Value, ok
}

// Names returns variable names in file order.
func (s *VarSet) Names() []string {
	names := make([]string, 0, s.vars.Len())
	for pair := s.vars.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Build computes the variable set for in. secret must be hex encoded and
// carry at least MinSecretBytes of entropy.
func Build(in Input, secret string) (*VarSet, error) {
	if len(secret) < MinSecretBytes*2 {
		return nil, errors.New(errors.EInternal,
			fmt.Sprintf("signing secret shorter than %d bytes", MinSecretBytes))
	}

	db := core.SanitizeDBName(in.ProjectName)
	host := "localhost"
	if in.Docker {
		host = "mongo"
	}

	s := newVarSet()
	s.set("PORT", Var{Section: SectionServer, Value: strconv.Itoa(in.Port), Example: "3000"})
	s.set("NODE_ENV", Var{Section: SectionServer, Value: "development", Example: "development"})
	s.set("MONGODB_URI", Var{
		Section: SectionDatabase,
		Value:   fmt.Sprintf("mongodb://%s:27017/%s", host, db),
		Example: "your_mongodb_connection_string",
		Notes: []string{
			"Local MongoDB: mongodb://localhost:27017/your-database-name",
			"Docker MongoDB: mongodb://mongo:27017/your-database-name",
			"MongoDB Atlas: mongodb+srv://<username>:<password>@cluster.mongodb.net/your-database-name",
		},
	})
	s.set("JWT_SECRET", Var{
		Section: SectionAuth,
		Value:   secret,
		Example: "your_jwt_secret_key",
		Notes:   []string{"Generate a secure random string for production"},
	})
	if in.CookieAuth {
		s.set("COOKIE_NAME", Var{Section: SectionAuth, Value: "token", Example: "token"})
		s.set("COOKIE_SECURE", Var{Section: SectionAuth, Value: "false", Example: "false"})
	}
	if in.Docker {
		s.set("DOCKER_ENABLED", Var{Section: SectionDocker, Value: "true", Example: "true"})
	}
	if in.APIDocs {
		s.set("SWAGGER_ENABLED", Var{Section: SectionAPIDocs, Value: "true", Example: "true"})
		s.set("API_TITLE", Var{Section: SectionAPIDocs, Value: in.ProjectName + " API", Example: "Your API Name"})
		s.set("API_VERSION", Var{Section: SectionAPIDocs, Value: "1.0.0", Example: "1.0.0"})
		s.set("API_DESCRIPTION", Var{
			Section: SectionAPIDocs,
			Value:   "API documentation for " + in.ProjectName,
			Example: "API documentation description",
		})
	}
	return s, nil
}

// RenderLive renders the .env file.
func RenderLive(s *VarSet) string {
	return render(s, []string{
		"Environment Configuration",
		"Generated automatically by tin",
		"DO NOT commit this file to version control",
	}, false)
}

// RenderExample renders the .env.example file: same sections and names,
// placeholder values only.
func RenderExample(s *VarSet) string {
	return render(s, []string{
		"Environment Configuration",
		"Copy this file to .env and fill in the values",
	}, true)
}

func render(s *VarSet, header []string, example bool) string {
	var b strings.Builder
	for _, h := range header {
		b.WriteString("# " + h + "\n")
	}

	section := ""
	for pair := s.vars.Oldest(); pair != nil; pair = pair.Next() {
		v := pair.Value
		if v.Section != section {
			section = v.Section
			b.WriteString("\n# " + section + "\n")
		}
		value := v.Value
		if example {
			for _, n := range v.Notes {
				b.WriteString("# " + n + "\n")
			}
			value = v.Example
		}
		b.WriteString(pair.Key + "=" + value + "\n")
	}
	return b.String()
}

// Write generates a fresh secret, builds the set for in and replaces both
// env files under dir. It returns the file names written.
func Write(fsys fs.FS, dir string, in Input) ([]string, error) {
	secret, err := core.NewSecret()
	if err != nil {
		return nil, errors.Wrap(errors.EInternal, "failed to generate signing secret", err)
	}
	set, err := Build(in, secret)
	if err != nil {
		return nil, err
	}

	files := []struct {
		name string
		body string
		mode os.FileMode
	}{
		{LiveFile, RenderLive(set), LiveMode},
		{ExampleFile, RenderExample(set), ExampleMode},
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := fs.WriteFileAtomic(fsys, path, []byte(f.body), f.mode); err != nil {
			return written, errors.WrapWithDetails(errors.EWriteFailed, "failed to write "+f.name, err,
				map[string]string{"path": path})
		}
		written = append(written, f.name)
	}
	return written, nil
}
