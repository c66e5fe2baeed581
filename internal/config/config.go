// Package config assembles the server's startup configuration from
// CLI flags, environment variables, and an optional config file,
// generalizing the teacher's near-empty lsp/main.go entrypoint to the
// richer flag surface this server needs (§10).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the fully-resolved set of startup options, built once in
// main and passed explicitly into the registry, document service, and
// server constructors — never read back out of a global.
type Config struct {
	Flavor           string
	FlavorDirs       []string
	LongDescriptions bool
	LogLevel         string
}

// UsageError marks a configuration problem that should cause main to
// print the error and exit(2), distinguishing it from an
// initialization failure (exit(1)).
type UsageError struct {
	err error
}

func (e *UsageError) Error() string { return e.err.Error() }
func (e *UsageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{err: fmt.Errorf(format, args...)}
}

// IsUsageError reports whether err (or something it wraps) is a
// UsageError.
func IsUsageError(err error) bool {
	var u *UsageError
	return errors.As(err, &u)
}

// BindFlags registers every configuration flag on cmd and binds each
// to v, so the same setting can come from argv, a GCODE_LS_* env var,
// or a discovered gcode-ls.yaml/.toml config file — viper's standard
// flag/env/file precedence chain, per §10.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().String("flavor", "", "startup-default G-code flavor name")
	cmd.Flags().StringArray("flavor-dir", nil, "additional flavor directory to load (repeatable)")
	cmd.Flags().Bool("long-descriptions", false, "prefer long-form command descriptions in hover text")
	cmd.Flags().String("log-level", "info", "log level: trace, debug, info, warn, error")

	v.SetEnvPrefix("GCODE_LS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"flavor", "flavor-dir", "long-descriptions", "log-level"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}

	v.SetConfigName("gcode-ls")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "gcode-ls"))
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			logrus.WithError(err).Warn("reading gcode-ls config file")
		}
	}
}

// Resolve builds a Config from v, validating the parsed --log-level
// and appending the XDG user-global flavor directory (§14) after any
// CLI-supplied --flavor-dir values.
func Resolve(v *viper.Viper) (Config, error) {
	cfg := Config{
		Flavor:           v.GetString("flavor"),
		FlavorDirs:       v.GetStringSlice("flavor-dir"),
		LongDescriptions: v.GetBool("long-descriptions"),
		LogLevel:         v.GetString("log-level"),
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, usageErrorf("invalid --log-level %q: %w", cfg.LogLevel, err)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		cfg.FlavorDirs = append(cfg.FlavorDirs, filepath.Join(dir, "gcode-ls", "flavors"))
	}

	return cfg, nil
}
