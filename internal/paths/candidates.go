package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// TemplatesDirEnv overrides every other template location when set.
const TemplatesDirEnv = "TIN_TEMPLATES_DIR"

// Layout describes where the running binary lives and the environment it
// runs in. It is the only input to TemplateCandidates.
type Layout struct {
	ExeDir  string // directory containing the resolved executable
	Cwd     string
	HomeDir string
	GOOS    string
	Env     Env
}

// CurrentLayout captures the Layout of the running process.
// Symlinks on the executable path are resolved so that a binary linked into
// ~/bin still finds templates next to its real location.
func CurrentLayout() (Layout, error) {
	exe, err := os.Executable()
	if err != nil {
		return Layout{}, err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	cwd, err := os.Getwd()
	if err != nil {
		return Layout{}, err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, err
	}
	return Layout{
		ExeDir:  filepath.Dir(exe),
		Cwd:     cwd,
		HomeDir: home,
		GOOS:    runtime.GOOS,
		Env:     EnvFunc(os.Getenv),
	}, nil
}

// TemplateCandidates returns the ordered list of directories that may hold
// the template at rel (for example "ts/jwt"). Packaged locations come first,
// source-checkout locations last:
//
//  1. $TIN_TEMPLATES_DIR/<rel>
//  2. <exe>/templates/<rel>
//  3. <exe>/../share/tin/templates/<rel>
//  4. <data dir>/templates/<rel>
//  5. /usr/local/share/tin/templates/<rel>, /usr/share/tin/templates/<rel> (not on windows)
//  6. <cwd>/templates/<rel>
//
// The returned slice is freshly allocated on every call.
func TemplateCandidates(l Layout, rel string) []string {
	rel = filepath.FromSlash(rel)
	env := l.Env
	if env == nil {
		env = EnvFunc(func(string) string { return "" })
	}

	var out []string
	if v := env.Get(TemplatesDirEnv); v != "" {
		out = append(out, filepath.Join(v, rel))
	}
	if l.ExeDir != "" {
		out = append(out,
			filepath.Join(l.ExeDir, "templates", rel),
			filepath.Join(l.ExeDir, "..", "share", AppName, "templates", rel),
		)
	}
	if l.HomeDir != "" {
		dirs := ResolveDirsWithOS(env, l.HomeDir, l.GOOS == "darwin")
		out = append(out, filepath.Join(dirs.DataDir, "templates", rel))
	}
	if l.GOOS != "windows" {
		out = append(out,
			filepath.Join("/usr/local/share", AppName, "templates", rel),
			filepath.Join("/usr/share", AppName, "templates", rel),
		)
	}
	if l.Cwd != "" {
		out = append(out, filepath.Join(l.Cwd, "templates", rel))
	}
	return out
}
