package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "metrics.size_constant")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidOutputFormats returns the list of valid record output formats
func ValidOutputFormats() []string {
	return []string{"table", "csv", "json", "yaml"}
}

// IsValidOutputFormat checks if the given format is valid
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLayers()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateBatch()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateWatch()...)

	return errors
}

// validateLayers validates the LayersConfig
func (c *Config) validateLayers() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Layers.Structural) == "" {
		errors = append(errors, ValidationError{
			Field:   "layers.structural",
			Value:   c.Layers.Structural,
			Message: "must not be empty",
		})
	}
	if strings.TrimSpace(c.Layers.Business) == "" {
		errors = append(errors, ValidationError{
			Field:   "layers.business",
			Value:   c.Layers.Business,
			Message: "must not be empty",
		})
	}
	if c.Layers.Structural != "" && c.Layers.Structural == c.Layers.Business {
		errors = append(errors, ValidationError{
			Field:   "layers.business",
			Value:   c.Layers.Business,
			Message: "must differ from layers.structural",
		})
	}

	return errors
}

// validateMetrics validates the MetricsConfig
func (c *Config) validateMetrics() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Metrics.UseCaseMarker) == "" {
		errors = append(errors, ValidationError{
			Field:   "metrics.use_case_marker",
			Value:   c.Metrics.UseCaseMarker,
			Message: "must not be empty",
		})
	}
	// A zero constant turns the score into a 0/1 step at MAD == 0
	if c.Metrics.SizeConstant <= 0 {
		errors = append(errors, ValidationError{
			Field:   "metrics.size_constant",
			Value:   c.Metrics.SizeConstant,
			Message: "must be positive",
		})
	}
	if c.Metrics.DepthConstant <= 0 {
		errors = append(errors, ValidationError{
			Field:   "metrics.depth_constant",
			Value:   c.Metrics.DepthConstant,
			Message: "must be positive",
		})
	}
	if c.Metrics.PathSearchBudget < 0 {
		errors = append(errors, ValidationError{
			Field:   "metrics.path_search_budget",
			Value:   c.Metrics.PathSearchBudget,
			Message: "must be non-negative (0 = unlimited)",
		})
	}

	return errors
}

// validateBatch validates the BatchConfig
func (c *Config) validateBatch() []ValidationError {
	var errors []ValidationError

	const maxWorkers = 1024
	if c.Batch.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "batch.workers",
			Value:   c.Batch.Workers,
			Message: "must be non-negative (0 = number of CPUs)",
		})
	}
	if c.Batch.Workers > maxWorkers {
		errors = append(errors, ValidationError{
			Field:   "batch.workers",
			Value:   c.Batch.Workers,
			Message: fmt.Sprintf("exceeds maximum of %d", maxWorkers),
		})
	}
	if c.Batch.DocumentTimeoutMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "batch.document_timeout_ms",
			Value:   c.Batch.DocumentTimeoutMs,
			Message: "must be non-negative (0 = disabled)",
		})
	}
	if c.Batch.Pattern == "" {
		errors = append(errors, ValidationError{
			Field:   "batch.pattern",
			Value:   c.Batch.Pattern,
			Message: "must not be empty",
		})
	} else if _, err := filepath.Match(c.Batch.Pattern, ""); err != nil {
		errors = append(errors, ValidationError{
			Field:   "batch.pattern",
			Value:   c.Batch.Pattern,
			Message: fmt.Sprintf("invalid glob pattern: %v", err),
		})
	}

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if !IsValidOutputFormat(c.Output.Format) {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOutputFormats(), ", ")),
		})
	}

	const maxPrecision = 10
	if c.Output.AggregatePrecision < 0 || c.Output.AggregatePrecision > maxPrecision {
		errors = append(errors, ValidationError{
			Field:   "output.aggregate_precision",
			Value:   c.Output.AggregatePrecision,
			Message: fmt.Sprintf("must be between 0 and %d", maxPrecision),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative (0 = no rotation)",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateWatch validates the WatchConfig
func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	const maxDebounceMs = 60_000
	if c.Watch.DebounceMs < 0 || c.Watch.DebounceMs > maxDebounceMs {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: fmt.Sprintf("must be between 0 and %d", maxDebounceMs),
		})
	}
	if c.Watch.CacheSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.cache_size",
			Value:   c.Watch.CacheSize,
			Message: "must be non-negative (0 = disabled)",
		})
	}

	return errors
}
