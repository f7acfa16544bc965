package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete archmetrics configuration
type Config struct {
	Layers  LayersConfig  `mapstructure:"layers" yaml:"layers" toml:"layers" json:"layers"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" toml:"metrics" json:"metrics"`
	Batch   BatchConfig   `mapstructure:"batch" yaml:"batch" toml:"batch" json:"batch"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output" toml:"output" json:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" toml:"logging" json:"logging"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store" toml:"store" json:"store"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch" toml:"watch" json:"watch"`
}

// LayersConfig names the top-level keys of a decomposition document
type LayersConfig struct {
	// Structural holds the partitions and node-to-node links
	Structural string `mapstructure:"structural" yaml:"structural" toml:"structural" json:"structural"`
	// Business holds the story-to-node use-case links (only read for DCCMD)
	Business string `mapstructure:"business" yaml:"business" toml:"business" json:"business"`
}

// MetricsConfig holds the constants of the metric formulas
type MetricsConfig struct {
	// UseCaseMarker must appear (case-insensitively) in a story label for the
	// story's links to count as use-case edges
	UseCaseMarker string `mapstructure:"use_case_marker" yaml:"use_case_marker" toml:"use_case_marker" json:"use_case_marker"`
	// SizeConstant is K in SMAD = 1 - MAD/(MAD+K) (default: 7)
	SizeConstant float64 `mapstructure:"size_constant" yaml:"size_constant" toml:"size_constant" json:"size_constant"`
	// DepthConstant is c' in DCCMD = 1 - MAD/(MAD+c') (default: 2.0)
	DepthConstant float64 `mapstructure:"depth_constant" yaml:"depth_constant" toml:"depth_constant" json:"depth_constant"`
	// PathSearchBudget caps longest-path DFS expansions per document (0 = unlimited)
	PathSearchBudget int `mapstructure:"path_search_budget" yaml:"path_search_budget" toml:"path_search_budget" json:"path_search_budget"`
}

// BatchConfig controls how a folder of documents is processed
type BatchConfig struct {
	// Workers is the number of documents processed concurrently (0 = number of CPUs)
	Workers int `mapstructure:"workers" yaml:"workers" toml:"workers" json:"workers"`
	// DocumentTimeoutMs bounds the computation of one document (0 = disabled)
	DocumentTimeoutMs int `mapstructure:"document_timeout_ms" yaml:"document_timeout_ms" toml:"document_timeout_ms" json:"document_timeout_ms"`
	// Pattern selects input files inside the folder (default: "*.json")
	Pattern string `mapstructure:"pattern" yaml:"pattern" toml:"pattern" json:"pattern"`
}

// OutputConfig controls how records are rendered
type OutputConfig struct {
	// Format is the default record format: "table", "csv", "json" or "yaml"
	Format string `mapstructure:"format" yaml:"format" toml:"format" json:"format"`
	// AggregatePrecision is the number of decimals in aggregated tables (default: 2)
	AggregatePrecision int `mapstructure:"aggregate_precision" yaml:"aggregate_precision" toml:"aggregate_precision" json:"aggregate_precision"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level" yaml:"level" toml:"level" json:"level"`
	// File is the log file path; empty logs to stderr
	File string `mapstructure:"file" yaml:"file" toml:"file" json:"file"`
	// MaxSizeMB rotates the log file once it reaches this size (0 = no rotation)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb" json:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups" toml:"max_backups" json:"max_backups"`
}

// StoreConfig controls the SQLite results store
type StoreConfig struct {
	// Path is the database file; empty disables the store unless --store is given
	Path string `mapstructure:"path" yaml:"path" toml:"path" json:"path"`
}

// WatchConfig controls watch mode
type WatchConfig struct {
	// DebounceMs is how long to wait for file events to settle before recomputing
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms" toml:"debounce_ms" json:"debounce_ms"`
	// CacheSize is the number of records kept by content hash (0 disables the cache)
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size" toml:"cache_size" json:"cache_size"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Layers: LayersConfig{
			Structural: "1_structural_static",
			Business:   "3_business_use_cases",
		},
		Metrics: MetricsConfig{
			UseCaseMarker:    "USE CASE",
			SizeConstant:     7,
			DepthConstant:    2.0,
			PathSearchBudget: 0, // Unlimited
		},
		Batch: BatchConfig{
			Workers:           0,
			DocumentTimeoutMs: 0,
			Pattern:           "*.json",
		},
		Output: OutputConfig{
			Format:             "table",
			AggregatePrecision: 2,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Store: StoreConfig{
			Path: "",
		},
		Watch: WatchConfig{
			DebounceMs: 200,
			CacheSize:  512,
		},
	}
}

// WorkerCount returns the effective number of workers
func (c *BatchConfig) WorkerCount() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// DocumentTimeout returns the per-document timeout as a time.Duration (0 means disabled)
func (c *BatchConfig) DocumentTimeout() time.Duration {
	return time.Duration(c.DocumentTimeoutMs) * time.Millisecond
}

// Debounce returns the watch debounce interval as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Layer defaults
	viper.SetDefault("layers.structural", defaults.Layers.Structural)
	viper.SetDefault("layers.business", defaults.Layers.Business)

	// Metric defaults
	viper.SetDefault("metrics.use_case_marker", defaults.Metrics.UseCaseMarker)
	viper.SetDefault("metrics.size_constant", defaults.Metrics.SizeConstant)
	viper.SetDefault("metrics.depth_constant", defaults.Metrics.DepthConstant)
	viper.SetDefault("metrics.path_search_budget", defaults.Metrics.PathSearchBudget)

	// Batch defaults
	viper.SetDefault("batch.workers", defaults.Batch.Workers)
	viper.SetDefault("batch.document_timeout_ms", defaults.Batch.DocumentTimeoutMs)
	viper.SetDefault("batch.pattern", defaults.Batch.Pattern)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.aggregate_precision", defaults.Output.AggregatePrecision)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.file", defaults.Logging.File)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Store defaults
	viper.SetDefault("store.path", defaults.Store.Path)

	// Watch defaults
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	viper.SetDefault("watch.cache_size", defaults.Watch.CacheSize)
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
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "archmetrics")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".archmetrics"
	}
	return filepath.Join(home, ".config", "archmetrics")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
