// Package paths resolves tin's per-user directories and the template search path.
package paths

import (
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under every base directory.
const AppName = "tin"

// Dirs holds the resolved directory paths for tin data and config.
type Dirs struct {
	DataDir   string
	ConfigDir string
}

// Env is the interface for environment variable lookups.
// Implementations must return "" for unset variables.
type Env interface {
	Get(key string) string
}

// EnvFunc adapts a lookup function (such as os.Getenv) to Env.
type EnvFunc func(string) string

func (f EnvFunc) Get(key string) string { return f(key) }

// baseDir describes how one kind of directory is located.
type baseDir struct {
	override string   // tin-specific env override
	xdgVar   string   // XDG base-dir variable
	xdgParts []string // fallback under $HOME when xdgVar is unset
	darwin   []string // macOS location under $HOME
}

var (
	dataBase = baseDir{
		override: "TIN_DATA_DIR",
		xdgVar:   "XDG_DATA_HOME",
		xdgParts: []string{".local", "share"},
		darwin:   []string{"Library", "Application Support"},
	}
	configBase = baseDir{
		override: "TIN_CONFIG_DIR",
		xdgVar:   "XDG_CONFIG_HOME",
		xdgParts: []string{".config"},
		darwin:   []string{"Library", "Preferences"},
	}
)

// ResolveDirs computes the data and config directories from environment
// variables and platform defaults.
//
// For each directory the order is:
//  1. TIN_DATA_DIR / TIN_CONFIG_DIR (used verbatim)
//  2. macOS: ~/Library/{Application Support,Preferences}/tin
//  3. $XDG_DATA_HOME/tin / $XDG_CONFIG_HOME/tin
//  4. ~/.local/share/tin / ~/.config/tin
//
// ResolveDirs does not touch the filesystem. ~ inside env vars is literal.
func ResolveDirs(env Env, homeDir string) Dirs {
	return ResolveDirsWithOS(env, homeDir, IsDarwin())
}

// IsDarwin returns true if the current OS is macOS.
func IsDarwin() bool {
	return runtime.GOOS == "darwin"
}

// ResolveDirsWithOS is like ResolveDirs but accepts an explicit OS flag for testing.
func ResolveDirsWithOS(env Env, homeDir string, isDarwin bool) Dirs {
	return Dirs{
		DataDir:   dataBase.resolve(env, homeDir, isDarwin),
		ConfigDir: configBase.resolve(env, homeDir, isDarwin),
	}
}

func (b baseDir) resolve(env Env, homeDir string, isDarwin bool) string {
	if v := env.Get(b.override); v != "" {
		return v
	}
	if isDarwin {
		return filepath.Join(append(append([]string{homeDir}, b.darwin...), AppName)...)
	}
	if v := env.Get(b.xdgVar); v != "" {
		return filepath.Join(v, AppName)
	}
	return filepath.Join(append(append([]string{homeDir}, b.xdgParts...), AppName)...)
}
