// Package config provides CLI commands for managing wizard configuration.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appconfig "github.com/Iron-Ham/wizard/internal/config"
	tuiconfig "github.com/Iron-Ham/wizard/internal/tui/config"
)

// Wrapper functions for exec to allow testing
var execLookPath = exec.LookPath
var execCommand = exec.Command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify wizard configuration",
	Long: `View or modify wizard configuration.

Without arguments, opens an interactive configuration UI.
Use 'config show' to display configuration non-interactively.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigInteractive,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  wizard config set wizard.allow_jump true
  wizard config set tui.sidebar_width 32
  wizard config set output.format yaml

Valid keys:
  wizard.allow_back         - Allow moving to the previous step (true/false)
  wizard.allow_jump         - Allow jumping to any step (true/false)
  wizard.validate_on_leave  - Validate before moving forward (true/false)
  wizard.linear             - Move forward one step at a time (true/false)
  logging.enabled           - Write a log for each run (true/false)
  logging.level             - Options: debug, info, warn, error
  logging.dir               - Directory for wizard.log (empty = stderr)
  logging.max_size_mb       - Rotate wizard.log past this size (0 = never)
  logging.max_backups       - Rotated log files to keep
  tui.show_progress         - Show the progress bar (true/false)
  tui.sidebar_width         - Step list width in columns (16-60)
  tui.confirm_quit          - Ask before quitting (true/false)
  output.format             - Options: json, yaml
  output.file               - Output path (empty = stdout)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/wizard/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in your editor",
	Long: `Open the config file in your preferred editor.

Uses $EDITOR environment variable, or falls back to common editors (vim, nano, vi).
If no config file exists, creates one with default values first.`,
	RunE: runConfigEdit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset [key]",
	Short: "Reset configuration to defaults",
	Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  wizard config reset                    # Reset all to defaults
  wizard config reset wizard.allow_jump  # Reset only wizard.allow_jump to default`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigReset,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configResetCmd)
}

// Register adds all config-related commands to the given parent command.
func Register(parent *cobra.Command) {
	parent.AddCommand(configCmd)
}

// keyTypes lists every settable key and how its value is parsed.
var keyTypes = map[string]string{
	"wizard.allow_back":        "bool",
	"wizard.allow_jump":        "bool",
	"wizard.validate_on_leave": "bool",
	"wizard.linear":            "bool",
	"logging.enabled":          "bool",
	"logging.level":            "level",
	"logging.dir":              "string",
	"logging.max_size_mb":      "int",
	"logging.max_backups":      "int",
	"tui.show_progress":        "bool",
	"tui.sidebar_width":        "int",
	"tui.confirm_quit":         "bool",
	"output.format":            "format",
	"output.file":              "string",
}

func defaultValues() map[string]any {
	d := appconfig.Default()
	return map[string]any{
		"wizard.allow_back":        d.Wizard.AllowBack,
		"wizard.allow_jump":        d.Wizard.AllowJump,
		"wizard.validate_on_leave": d.Wizard.ValidateOnLeave,
		"wizard.linear":            d.Wizard.Linear,
		"logging.enabled":          d.Logging.Enabled,
		"logging.level":            d.Logging.Level,
		"logging.dir":              d.Logging.Dir,
		"logging.max_size_mb":      d.Logging.MaxSizeMB,
		"logging.max_backups":      d.Logging.MaxBackups,
		"tui.show_progress":        d.TUI.ShowProgress,
		"tui.sidebar_width":        d.TUI.SidebarWidth,
		"tui.confirm_quit":         d.TUI.ConfirmQuit,
		"output.format":            d.Output.Format,
		"output.file":              d.Output.File,
	}
}

// configFile is where set, reset and the interactive editor write: the file
// in use, or the default path when none was read.
func configFile() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return appconfig.ConfigFile()
}

func runConfigInteractive(cmd *cobra.Command, args []string) error {
	return tuiconfig.Run(configFile())
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := appconfig.Load()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "Current configuration:")
	_, _ = fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		_, _ = fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		_, _ = fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	_, _ = fmt.Fprintln(out)

	_, _ = fmt.Fprintln(out, "wizard:")
	_, _ = fmt.Fprintf(out, "  allow_back: %v\n", cfg.Wizard.AllowBack)
	_, _ = fmt.Fprintf(out, "  allow_jump: %v\n", cfg.Wizard.AllowJump)
	_, _ = fmt.Fprintf(out, "  validate_on_leave: %v\n", cfg.Wizard.ValidateOnLeave)
	_, _ = fmt.Fprintf(out, "  linear: %v\n", cfg.Wizard.Linear)

	_, _ = fmt.Fprintln(out, "logging:")
	_, _ = fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	_, _ = fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	_, _ = fmt.Fprintf(out, "  dir: %s\n", cfg.Logging.Dir)
	_, _ = fmt.Fprintf(out, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	_, _ = fmt.Fprintf(out, "  max_backups: %d\n", cfg.Logging.MaxBackups)

	_, _ = fmt.Fprintln(out, "tui:")
	_, _ = fmt.Fprintf(out, "  show_progress: %v\n", cfg.TUI.ShowProgress)
	_, _ = fmt.Fprintf(out, "  sidebar_width: %d\n", cfg.TUI.SidebarWidth)
	_, _ = fmt.Fprintf(out, "  confirm_quit: %v\n", cfg.TUI.ConfirmQuit)

	_, _ = fmt.Fprintln(out, "output:")
	_, _ = fmt.Fprintf(out, "  format: %s\n", cfg.Output.Format)
	_, _ = fmt.Fprintf(out, "  file: %s\n", cfg.Output.File)

	return nil
}

// parseValue checks value against the key's type and returns it typed.
func parseValue(key, value string) (any, error) {
	keyType, ok := keyTypes[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'wizard config set --help' to see valid keys", key)
	}

	switch keyType {
	case "level":
		if !slices.Contains(appconfig.ValidLogLevels(), value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidLogLevels(), ", "))
		}
		return value, nil
	case "format":
		if !slices.Contains(appconfig.ValidOutputFormats(), value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidOutputFormats(), ", "))
		}
		return value, nil
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	}
	return value, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]

	typedValue, err := parseValue(key, args[1])
	if err != nil {
		return err
	}

	prev := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := appconfig.Load(); err != nil {
		viper.Set(key, prev)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	path, err := writeConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	_, _ = fmt.Fprintf(out, "Config saved to %s\n", path)
	return nil
}

const defaultConfigContent = `# Wizard Configuration

# Default navigation policy. A flow file may override any of these.
wizard:
  # Allow moving to the previous step
  allow_back: true
  # Allow jumping to any step regardless of order
  allow_jump: false
  # Validate the current step before moving forward
  validate_on_leave: true
  # Only move forward one step at a time unless the target was visited
  linear: true

# Logging
logging:
  enabled: true
  # debug, info, warn or error
  level: info
  # Directory for wizard.log. Empty logs to stderr.
  dir: ""
  # Rotate wizard.log past this many megabytes (0 = never)
  max_size_mb: 10
  # Rotated log files to keep
  max_backups: 3

# TUI (terminal user interface) settings
tui:
  # Show the progress bar under the current step
  show_progress: true
  # Width of the step list in columns (16-60)
  sidebar_width: 28
  # Ask before quitting an unfinished wizard
  confirm_quit: true

# Where collected answers go
output:
  # json or yaml
  format: json
  # Output path. Empty writes to stdout.
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'wizard config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Created config file at %s\n", configFile)
	_, _ = fmt.Fprintln(out, "Edit this file to change the default wizard behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		_, _ = fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		_, _ = fmt.Fprintf(out, "Default path: %s (not created)\n", appconfig.ConfigFile())
	}

	// Also show config search paths
	_, _ = fmt.Fprintln(out, "\nSearch paths:")
	_, _ = fmt.Fprintf(out, "  1. %s\n", filepath.Join(appconfig.ConfigDir(), "config.yaml"))
	_, _ = fmt.Fprintf(out, "  2. ./config.yaml (current directory)\n")
	_, _ = fmt.Fprintln(out, "\nEnvironment variables: WIZARD_* (e.g., WIZARD_OUTPUT_FORMAT)")
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configFile := appconfig.ConfigFile()
	out := cmd.OutOrStdout()

	// Check if config file exists, if not create it
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		_, _ = fmt.Fprintf(out, "Config file doesn't exist, creating with defaults...\n")
		if err := runConfigInit(cmd, args); err != nil {
			return err
		}
	}

	editor, err := findEditor()
	if err != nil {
		return err
	}

	editorCmd := execCommand(editor, configFile)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Config file saved: %s\n", configFile)
	return nil
}

func findEditor() (string, error) {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor, nil
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor, nil
	}
	for _, e := range []string{"vim", "nano", "vi"} {
		if _, err := execLookPath(e); err == nil {
			return e, nil
		}
	}
	return "", fmt.Errorf("no editor found. Set $EDITOR environment variable")
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	defaults := defaultValues()
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		keys := make([]string, 0, len(defaults))
		for key := range defaults {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			viper.Set(key, defaults[key])
		}
		_, _ = fmt.Fprintln(out, "Reset all configuration to defaults.")
	} else {
		key := args[0]
		value, ok := defaults[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'wizard config set --help' to see valid keys", key)
		}
		viper.Set(key, value)
		_, _ = fmt.Fprintf(out, "Reset %s to default: %v\n", key, value)
	}

	path, err := writeConfig()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Config saved to %s\n", path)
	return nil
}

func writeConfig() (string, error) {
	path := configFile()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
