// Package config provides CLI commands for managing archmetrics configuration.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appconfig "github.com/Iron-Ham/archmetrics/internal/config"
)

// Value kinds accepted by 'config set'.
const (
	kindString  = "string"
	kindInt     = "int"
	kindFloat   = "float"
	kindFormat  = "format"
	kindLevel   = "level"
	kindPattern = "pattern"
)

// validKeys maps every settable key to its value kind.
var validKeys = map[string]string{
	"layers.structural":          kindString,
	"layers.business":            kindString,
	"metrics.use_case_marker":    kindString,
	"metrics.size_constant":      kindFloat,
	"metrics.depth_constant":     kindFloat,
	"metrics.path_search_budget": kindInt,
	"batch.workers":              kindInt,
	"batch.document_timeout_ms":  kindInt,
	"batch.pattern":              kindPattern,
	"output.format":              kindFormat,
	"output.aggregate_precision": kindInt,
	"logging.level":              kindLevel,
	"logging.file":               kindString,
	"logging.max_size_mb":        kindInt,
	"logging.max_backups":        kindInt,
	"store.path":                 kindString,
	"watch.debounce_ms":          kindInt,
	"watch.cache_size":           kindInt,
}

// Keys returns every settable configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(validKeys))
	for k := range validKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Register adds all config-related commands to the given parent command.
// This is the main entry point for integrating the config subpackage with
// the root command.
func Register(parent *cobra.Command) {
	parent.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	var showFormat string

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or modify archmetrics configuration",
		Long: `View or modify archmetrics configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, "yaml")
		},
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, showFormat)
		},
	}
	configShowCmd.Flags().StringVarP(&showFormat, "format", "f", "yaml", "output format: yaml, toml, json")

	configSetCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  archmetrics config set metrics.path_search_budget 1000000
  archmetrics config set batch.workers 4
  archmetrics config set output.format csv

Valid keys:
  layers.structural           - Document key of the structural layer
  layers.business             - Document key of the business use-case layer
  metrics.use_case_marker     - Text a story label must contain (case-insensitive)
  metrics.size_constant       - K in SMAD = 1 - MAD/(MAD+K)
  metrics.depth_constant      - c' in DCCMD = 1 - MAD/(MAD+c')
  metrics.path_search_budget  - Max longest-path expansions per document (0 = unlimited)
  batch.workers               - Documents processed at once (0 = number of CPUs)
  batch.document_timeout_ms   - Time bound per document (0 = none)
  batch.pattern               - File pattern inside the folder
  output.format               - Default output: table, csv, json, yaml
  output.aggregate_precision  - Decimals in aggregated tables
  logging.level               - debug, info, warn, error
  logging.file                - Log file path (empty = stderr)
  logging.max_size_mb         - Rotate the log file at this size (0 = never)
  logging.max_backups         - Rotated log files to keep
  store.path                  - SQLite results store path
  watch.debounce_ms           - Quiet period before recomputing in watch mode
  watch.cache_size            - Records cached by content hash (0 = off)`,
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	}

	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		Long:  `Create a default config file at ~/.config/archmetrics/config.yaml with all available options.`,
		RunE:  runConfigInit,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the config file path",
		RunE:  runConfigPath,
	}

	configResetCmd := &cobra.Command{
		Use:   "reset [key]",
		Short: "Reset configuration to defaults",
		Long: `Reset configuration values to their defaults.

Without arguments, resets all configuration to defaults.
With a key argument, resets only that specific key.

Examples:
  archmetrics config reset                       # Reset all to defaults
  archmetrics config reset metrics.size_constant # Reset only one key`,
		Args: cobra.MaximumNArgs(1),
		RunE: runConfigReset,
	}

	configCmd.AddCommand(configShowCmd, configSetCmd, configInitCmd, configPathCmd, configResetCmd)
	return configCmd
}

func runConfigShow(cmd *cobra.Command, format string) error {
	cfg := appconfig.Get()
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "# Config file: (none - using defaults)\n")
	}

	return encodeConfig(out, cfg, format)
}

func encodeConfig(w io.Writer, cfg *appconfig.Config, format string) error {
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("invalid format: %s\nValid options: yaml, toml, json", format)
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	typedValue, err := parseValue(key, value)
	if err != nil {
		return err
	}

	// Set the value in viper and make sure the result is still valid
	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := appconfig.Load(); err != nil {
		viper.Set(key, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	if err := writeConfig(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", appconfig.ConfigFile())
	return nil
}

// parseValue validates value for key and converts it to the key's type.
func parseValue(key, value string) (any, error) {
	keyType, ok := validKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'archmetrics config set --help' to see valid keys", key)
	}

	switch keyType {
	case kindFormat:
		if !appconfig.IsValidOutputFormat(value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidOutputFormats(), ", "))
		}
		return value, nil
	case kindLevel:
		level := strings.ToLower(value)
		if !slices.Contains(appconfig.ValidLogLevels(), level) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(appconfig.ValidLogLevels(), ", "))
		}
		return level, nil
	case kindPattern:
		if _, err := filepath.Match(value, ""); err != nil || value == "" {
			return nil, fmt.Errorf("invalid value for %s: %q is not a valid file pattern", key, value)
		}
		return value, nil
	case kindInt:
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected number", key)
		}
		if f <= 0 {
			return nil, fmt.Errorf("invalid value for %s: must be positive", key)
		}
		return f, nil
	default:
		return value, nil
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := appconfig.ConfigDir()
	configFile := appconfig.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'archmetrics config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to customize how metrics are computed.")
	return nil
}

const defaultConfigContent = `# archmetrics configuration

# Top-level keys of a decomposition document
layers:
  # Partitions ("decomposition") and node-to-node "links"
  structural: 1_structural_static
  # Story-to-node use-case "links", read by DCCMD only
  business: 3_business_use_cases

metrics:
  # A story label must contain this text (case-insensitive) to count
  use_case_marker: USE CASE
  # K in SMAD = 1 - MAD/(MAD+K)
  size_constant: 7
  # c' in DCCMD = 1 - MAD/(MAD+c')
  depth_constant: 2.0
  # Max longest-path expansions per document; 0 means unlimited.
  # When exceeded, DCCMD is NA for that document.
  path_search_budget: 0

batch:
  # Documents processed at once; 0 uses the number of CPUs
  workers: 0
  # Time bound per document in milliseconds; 0 disables it
  document_timeout_ms: 0
  # Input files inside the folder
  pattern: "*.json"

output:
  # Default output of 'compute': table, csv, json or yaml
  format: table
  # Decimals in aggregated tables
  aggregate_precision: 2

logging:
  # debug, info, warn or error
  level: warn
  # Log file; empty logs to stderr
  file: ""
  # Rotate the log file at this size in MB; 0 never rotates
  max_size_mb: 10
  # Rotated files kept as <file>.1 .. <file>.N
  max_backups: 3

store:
  # SQLite results store; empty keeps it off unless --store is given
  path: ""

watch:
  # Quiet period before recomputing in watch mode
  debounce_ms: 200
  # Records cached by content hash; 0 disables the cache
  cache_size: 512
`

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := appconfig.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(appconfig.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/archmetrics/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: ARCHMETRICS_* (e.g., ARCHMETRICS_BATCH_WORKERS)")

	return nil
}

func runConfigReset(cmd *cobra.Command, args []string) error {
	defaults := defaultValues()

	if len(args) == 0 {
		for key, value := range defaults {
			viper.Set(key, value)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Reset all configuration to defaults.")
	} else {
		key := args[0]
		value, ok := defaults[key]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s\nRun 'archmetrics config set --help' to see valid keys", key)
		}
		viper.Set(key, value)
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to default: %v\n", key, value)
	}

	if err := writeConfig(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", appconfig.ConfigFile())
	return nil
}

// defaultValues maps every settable key to its default.
func defaultValues() map[string]any {
	d := appconfig.Default()
	return map[string]any{
		"layers.structural":          d.Layers.Structural,
		"layers.business":            d.Layers.Business,
		"metrics.use_case_marker":    d.Metrics.UseCaseMarker,
		"metrics.size_constant":      d.Metrics.SizeConstant,
		"metrics.depth_constant":     d.Metrics.DepthConstant,
		"metrics.path_search_budget": d.Metrics.PathSearchBudget,
		"batch.workers":              d.Batch.Workers,
		"batch.document_timeout_ms":  d.Batch.DocumentTimeoutMs,
		"batch.pattern":              d.Batch.Pattern,
		"output.format":              d.Output.Format,
		"output.aggregate_precision": d.Output.AggregatePrecision,
		"logging.level":              d.Logging.Level,
		"logging.file":               d.Logging.File,
		"logging.max_size_mb":        d.Logging.MaxSizeMB,
		"logging.max_backups":        d.Logging.MaxBackups,
		"store.path":                 d.Store.Path,
		"watch.debounce_ms":          d.Watch.DebounceMs,
		"watch.cache_size":           d.Watch.CacheSize,
	}
}

func writeConfig() error {
	if err := os.MkdirAll(appconfig.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(appconfig.ConfigFile()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
