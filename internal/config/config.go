// Package config defines the taskdist configuration surface and its
// viper-backed loading. Configuration comes from a YAML config file,
// TASKDIST_* environment variables, and built-in defaults, in that
// order of precedence.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete taskdist configuration.
type Config struct {
	// Workers is the number of worker goroutines in the pool.
	Workers   int            `mapstructure:"workers"`
	Logging   LoggingConfig  `mapstructure:"logging"`
	Taskfiles TaskfileConfig `mapstructure:"taskfiles"`
}

// LoggingConfig controls the structured log stream.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory for the log file. Empty means log to stderr.
	Dir string `mapstructure:"dir"`
}

// TaskfileConfig controls where task definitions are read from.
type TaskfileConfig struct {
	// Dir is the directory scanned for taskfiles at startup (default: "taskfiles")
	Dir string `mapstructure:"dir"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Workers: 4,
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
		Taskfiles: TaskfileConfig{
			Dir: "taskfiles",
		},
	}
}

// SetDefaults registers all default values with viper. Called before the
// config file is read so defaults apply even without one.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("workers", defaults.Workers)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Taskfile defaults
	viper.SetDefault("taskfiles.dir", defaults.Taskfiles.Dir)
}

// Load reads the configuration from viper into a Config struct and validates
// it. Validation warnings do not fail the load; they are returned for the
// caller to surface.
func Load() (*Config, []ValidationWarning, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, nil, err
	}

	errs, warnings := cfg.Validate()
	if len(errs) > 0 {
		return nil, warnings, ValidationErrors(errs)
	}

	return &cfg, warnings, nil
}

// Get returns the current configuration, falling back to defaults if
// unmarshaling fails.
func Get() *Config {
	cfg, _, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "taskdist")
	}
	// Fall back to ~/.config/taskdist
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskdist"
	}
	return filepath.Join(home, ".config", "taskdist")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
