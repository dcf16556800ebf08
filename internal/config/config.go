// Package config loads user defaults for scaffold requests.
//
// Sources, highest precedence first: TIN_* environment variables, the
// optional <config dir>/config.yaml, built-in defaults. Command-line flags are
// applied on top by the CLI.
package config

import (
	stderrors "errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/NielsdaWheelz/tin/internal/errors"
	"github.com/NielsdaWheelz/tin/internal/tmpl"
)

// FileName is the config file inside the tin config directory.
const FileName = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. TIN_PORT.
const EnvPrefix = "TIN"

// Config keys.
const (
	KeyLanguage = "language"
	KeyAuth     = "auth"
	KeyPort     = "port"
	KeyGit      = "git"
	KeyDocker   = "docker"
	KeySwagger  = "swagger"
	KeyLogLevel = "log_level"
)

// Settings are the defaults applied to any choice not given on the command line.
type Settings struct {
	Language string `mapstructure:"language"`
	Auth     string `mapstructure:"auth"`
	Port     int    `mapstructure:"port"`
	Git      bool   `mapstructure:"git"`
	Docker   bool   `mapstructure:"docker"`
	Swagger  bool   `mapstructure:"swagger"`
	LogLevel string `mapstructure:"log_level"`

	// File is the config file that was read, or "" if none existed.
	File string `mapstructure:"-"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Language: tmpl.LangTS,
		Auth:     tmpl.AuthJWT,
		Port:     3000,
		Git:      true,
		Docker:   true,
		Swagger:  true,
		LogLevel: "warn",
	}
}

// Load reads settings from configDir and the environment into v.
// A missing config file is not an error.
// Errors are E_INVALID_CONFIG.
func Load(v *viper.Viper, configDir string) (Settings, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	path := filepath.Join(configDir, FileName)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	file := path
	if err := v.ReadInConfig(); err != nil {
		if !stderrors.Is(err, iofs.ErrNotExist) {
			return Settings{}, errors.WrapWithDetails(errors.EInvalidConfig, "failed to read config file", err,
				map[string]string{"path": path})
		}
		file = ""
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, errors.WrapWithDetails(errors.EInvalidConfig, "invalid config value", err,
			map[string]string{"path": path})
	}
	s.File = file

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyLanguage, d.Language)
	v.SetDefault(KeyAuth, d.Auth)
	v.SetDefault(KeyPort, d.Port)
	v.SetDefault(KeyGit, d.Git)
	v.SetDefault(KeyDocker, d.Docker)
	v.SetDefault(KeySwagger, d.Swagger)
	v.SetDefault(KeyLogLevel, d.LogLevel)
}

// Validate checks enum and range fields.
func (s Settings) Validate() error {
	switch {
	case s.Language != tmpl.LangJS && s.Language != tmpl.LangTS:
		return invalid(KeyLanguage, fmt.Sprintf("must be %q or %q", tmpl.LangJS, tmpl.LangTS))
	case s.Auth != tmpl.AuthJWT && s.Auth != tmpl.AuthCookies:
		return invalid(KeyAuth, fmt.Sprintf("must be %q or %q", tmpl.AuthJWT, tmpl.AuthCookies))
	case s.Port < 0 || s.Port > 65535:
		return invalid(KeyPort, "must be between 0 and 65535")
	}
	return nil
}

func invalid(key, msg string) error {
	return errors.NewWithDetails(errors.EInvalidConfig, key+" "+msg, map[string]string{"key": key})
}
