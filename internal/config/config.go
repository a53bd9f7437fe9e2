package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/wizard/internal/logging"
	"github.com/Iron-Ham/wizard/internal/wizard"
)

// Config represents the complete wizard configuration
type Config struct {
	Wizard  WizardConfig  `mapstructure:"wizard"`
	Logging LoggingConfig `mapstructure:"logging"`
	TUI     TUIConfig     `mapstructure:"tui"`
	Output  OutputConfig  `mapstructure:"output"`
}

// WizardConfig holds the default navigation policy. A flow file may override
// any of these per flow.
type WizardConfig struct {
	// AllowBack enables moving to the previous step (default: true)
	AllowBack bool `mapstructure:"allow_back"`
	// AllowJump permits jumping to any step regardless of order (default: false)
	AllowJump bool `mapstructure:"allow_jump"`
	// ValidateOnLeave validates the current step before moving forward (default: true)
	ValidateOnLeave bool `mapstructure:"validate_on_leave"`
	// Linear restricts forward moves to the next step unless the target was
	// already visited (default: true)
	Linear bool `mapstructure:"linear"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether a run writes a log at all (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory for wizard.log. Empty logs to stderr instead.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the log file size in megabytes that triggers rotation.
	// 0 disables rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files kept (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// TUIConfig controls the interactive driver
type TUIConfig struct {
	// ShowProgress renders the progress bar under the current step (default: true)
	ShowProgress bool `mapstructure:"show_progress"`
	// SidebarWidth is the width of the step list in columns (default: 28, min: 16, max: 60)
	SidebarWidth int `mapstructure:"sidebar_width"`
	// ConfirmQuit asks before quitting an unfinished wizard (default: true)
	ConfirmQuit bool `mapstructure:"confirm_quit"`
}

// OutputConfig controls how collected data is written
type OutputConfig struct {
	// Format is "json" or "yaml" (default: "json")
	Format string `mapstructure:"format"`
	// File is the output path. Empty writes to stdout.
	File string `mapstructure:"file"`
}

// EngineOptions maps the wizard section onto engine options.
func (c *Config) EngineOptions() wizard.Options {
	return wizard.Options{
		AllowBack:       c.Wizard.AllowBack,
		AllowJump:       c.Wizard.AllowJump,
		ValidateOnLeave: c.Wizard.ValidateOnLeave,
		Linear:          c.Wizard.Linear,
	}
}

// Rotation returns the log rotation settings.
func (l *LoggingConfig) Rotation() logging.RotationConfig {
	return logging.RotationConfig{
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
	}
}

// ResolveDir returns the absolute log directory, expanding a leading ~.
// Returns "" when no directory is configured.
func (l *LoggingConfig) ResolveDir(baseDir string) string {
	if l.Dir == "" {
		return ""
	}

	path := l.Dir

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	opts := wizard.DefaultOptions()
	return &Config{
		Wizard: WizardConfig{
			AllowBack:       opts.AllowBack,
			AllowJump:       opts.AllowJump,
			ValidateOnLeave: opts.ValidateOnLeave,
			Linear:          opts.Linear,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "", // Empty means log to stderr
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		TUI: TUIConfig{
			ShowProgress: true,
			SidebarWidth: 28,
			ConfirmQuit:  true,
		},
		Output: OutputConfig{
			Format: "json",
			File:   "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Wizard defaults
	viper.SetDefault("wizard.allow_back", defaults.Wizard.AllowBack)
	viper.SetDefault("wizard.allow_jump", defaults.Wizard.AllowJump)
	viper.SetDefault("wizard.validate_on_leave", defaults.Wizard.ValidateOnLeave)
	viper.SetDefault("wizard.linear", defaults.Wizard.Linear)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// TUI defaults
	viper.SetDefault("tui.show_progress", defaults.TUI.ShowProgress)
	viper.SetDefault("tui.sidebar_width", defaults.TUI.SidebarWidth)
	viper.SetDefault("tui.confirm_quit", defaults.TUI.ConfirmQuit)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.file", defaults.Output.File)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	if cfg.Logging.Level != "" {
		cfg.Logging.Level = strings.ToLower(logging.ParseLevel(cfg.Logging.Level))
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wizard")
	}
	// Fall back to ~/.config/wizard
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wizard"
	}
	return filepath.Join(home, ".config", "wizard")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
