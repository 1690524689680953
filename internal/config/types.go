// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"runtime"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme selects the terminal palette for styled output.
	ColorScheme string

	// Config holds the tool-level settings of envmatrix: preferences
	// about how runs execute, as opposed to what they execute (which
	// lives in the project's envmatrix.ini).
	Config struct {
		// Parallel is the default number of environments run
		// concurrently when --parallel is not given.
		Parallel int `mapstructure:"parallel" toml:"parallel"`

		// WorkRoot overrides where per-environment directories are
		// created. Empty means .envmatrix next to the configuration
		// file.
		WorkRoot string `mapstructure:"workroot" toml:"workroot,omitempty"`

		// UI holds presentation settings.
		UI UIConfig `mapstructure:"ui" toml:"ui"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		// ColorScheme selects the output palette.
		ColorScheme ColorScheme `mapstructure:"color_scheme" toml:"color_scheme"`
		// Verbose enables debug-level output by default.
		Verbose bool `mapstructure:"verbose" toml:"verbose"`
	}

	// InvalidConfigError reports a config that fails validation.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		Field string
		Msg   string
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Msg)
}

// Unwrap returns ErrInvalidConfig for programmatic detection.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks the ColorScheme is one of the recognized values.
func (s ColorScheme) Validate() error {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	}
	return fmt.Errorf("%w: %q (must be auto, dark, or light)", ErrInvalidColorScheme, s)
}

// DefaultConfig returns the built-in defaults used when no config
// file exists.
func DefaultConfig() *Config {
	return &Config{
		Parallel: runtime.NumCPU(),
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.Parallel < 1 {
		return &InvalidConfigError{Field: "parallel", Msg: "must be at least 1"}
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		return &InvalidConfigError{Field: "ui.color_scheme", Msg: err.Error()}
	}
	return nil
}
