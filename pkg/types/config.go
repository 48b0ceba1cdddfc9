// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the configuration and conversion records shared by
// the freeplane-helper packages.
package types

import "time"

// FreeplaneConfig holds settings for locating and driving the Freeplane
// application.
type FreeplaneConfig struct {
	// Binary is the Freeplane executable name or path (default "freeplane").
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// Version selects the versioned user directory under
	// ~/.config/freeplane/ (default "1.6.x").
	Version string `json:"version" yaml:"version" mapstructure:"version"`

	// ConfigDir overrides the user directory entirely when set.
	ConfigDir string `json:"config_dir,omitempty" yaml:"config_dir,omitempty" mapstructure:"config_dir"`
}

// ToolConfig names an external converter binary. The name may contain glob
// metacharacters (e.g. "libreoffice*").
type ToolConfig struct {
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`
}

// HistoryConfig holds settings for the conversion history database.
type HistoryConfig struct {
	// Enabled controls whether convert runs are recorded (default true).
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// DBPath is the SQLite database file
	// (default <user config dir>/freeplane-helper/history.db).
	DBPath string `json:"db" yaml:"db" mapstructure:"db"`
}

// Config groups all settings for a freeplane-helper invocation.
type Config struct {
	Freeplane FreeplaneConfig `json:"freeplane" yaml:"freeplane" mapstructure:"freeplane"`
	Pandoc    ToolConfig      `json:"pandoc" yaml:"pandoc" mapstructure:"pandoc"`
	Office    ToolConfig      `json:"office" yaml:"office" mapstructure:"office"`
	History   HistoryConfig   `json:"history" yaml:"history" mapstructure:"history"`

	// WorkDir is where the exported Markdown and converted outputs are
	// written. Empty means the process working directory.
	WorkDir string `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`

	// Timeout bounds each external process. Zero waits indefinitely.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// LogLevel is the slog level name for diagnostics (default "warn").
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Defaults used when neither the config file, environment nor flags set a value.
const (
	DefaultFreeplaneBinary  = "freeplane"
	DefaultFreeplaneVersion = "1.6.x"
	DefaultPandocBinary     = "pandoc"
	DefaultOfficeBinary     = "libreoffice*"
	DefaultLogLevel         = "warn"
)

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Freeplane: FreeplaneConfig{
			Binary:  DefaultFreeplaneBinary,
			Version: DefaultFreeplaneVersion,
		},
		Pandoc:   ToolConfig{Binary: DefaultPandocBinary},
		Office:   ToolConfig{Binary: DefaultOfficeBinary},
		History:  HistoryConfig{Enabled: true},
		LogLevel: DefaultLogLevel,
	}
}
