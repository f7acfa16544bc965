// Package errors provides centralized error definitions and error handling utilities
// for archmetrics. It defines sentinel errors, typed errors carrying document and
// metric context, and classification helpers.
//
// # Error Types
//
// Two typed errors cover the failure taxonomy of metric computation:
//   - DocumentError: the whole document could not be turned into a decomposition graph
//   - MetricError: a single metric's preconditions were not met
//
// Neither is fatal to a batch. The engine converts both into "not available" values
// on the record and keeps going.
//
// # Usage
//
//	err := errors.NewDocumentError("structural layer missing", errors.ErrLayerMissing).
//	    WithDocument("shop_c1.json").
//	    WithLayer("1_structural_static")
//
//	if errors.Is(err, errors.ErrLayerMissing) { ... }
//
//	var docErr *errors.DocumentError
//	if errors.As(err, &docErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for expected conditions, such as a metric with no input.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that lose data, such as a malformed document.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Document-related sentinel errors
var (
	// ErrInvalidJSON indicates the document bytes are not valid JSON.
	ErrInvalidJSON = New("invalid JSON")
	// ErrLayerMissing indicates a required layer key is absent from the document.
	ErrLayerMissing = New("layer missing")
	// ErrInvalidStructure indicates a field has the wrong JSON type.
	ErrInvalidStructure = New("invalid document structure")
)

// Metric-related sentinel errors
var (
	// ErrNoPartitions indicates the decomposition declares no partitions.
	ErrNoPartitions = New("no partitions")
	// ErrNoClusteredPartitions indicates no partition touches any edge.
	ErrNoClusteredPartitions = New("no partition has edges")
	// ErrNoStories indicates no use-case story reaches a known node.
	ErrNoStories = New("no use-case stories")
	// ErrSearchBudgetExceeded indicates the longest-path search ran out of budget.
	ErrSearchBudgetExceeded = New("path search budget exceeded")
	// ErrUnknownMetric indicates a metric name that is not implemented.
	ErrUnknownMetric = New("unknown metric")
)

// General sentinel errors
var (
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// format renders "prefix [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// DocumentError represents a document that could not be parsed into a
// decomposition graph. Every metric of such a document is unavailable.
//
// Example:
//
//	err := errors.NewDocumentError("partition is not an array", errors.ErrInvalidStructure)
//	err = err.WithDocument("shop_c1.json").WithField("decomposition.orders")
//	fmt.Println(err) // "document error [document=shop_c1.json, field=decomposition.orders]: ..."
type DocumentError struct {
	baseError
	Document string
	Layer    string
	Field    string
}

// NewDocumentError creates a new DocumentError.
func NewDocumentError(message string, cause error) *DocumentError {
	return &DocumentError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityWarning,
		},
	}
}

// WithDocument adds the document name to the error context.
func (e *DocumentError) WithDocument(name string) *DocumentError {
	e.Document = name
	return e
}

// WithLayer adds the layer key to the error context.
func (e *DocumentError) WithLayer(layer string) *DocumentError {
	e.Layer = layer
	return e
}

// WithField adds the offending field path to the error context.
func (e *DocumentError) WithField(field string) *DocumentError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *DocumentError) Error() string {
	var parts []string
	if e.Document != "" {
		parts = append(parts, fmt.Sprintf("document=%s", e.Document))
	}
	if e.Layer != "" {
		parts = append(parts, fmt.Sprintf("layer=%s", e.Layer))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	return e.format("document error", parts)
}

// Is checks if this error matches the target.
func (e *DocumentError) Is(target error) bool {
	if _, ok := target.(*DocumentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// MetricError represents a metric whose preconditions were not met.
// Sibling metrics of the same document are unaffected.
//
// Example:
//
//	err := errors.NewMetricError("DCCMD", errors.ErrNoStories)
//	fmt.Println(err) // "metric error [metric=DCCMD]: not available: no use-case stories"
type MetricError struct {
	baseError
	Metric string
}

// NewMetricError creates a new MetricError for the named metric.
func NewMetricError(metric string, cause error) *MetricError {
	return &MetricError{
		baseError: baseError{
			message:  "not available",
			cause:    cause,
			severity: SeverityDebug,
		},
		Metric: metric,
	}
}

// WithSeverity sets the error severity.
func (e *MetricError) WithSeverity(s Severity) *MetricError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *MetricError) Error() string {
	var parts []string
	if e.Metric != "" {
		parts = append(parts, fmt.Sprintf("metric=%s", e.Metric))
	}
	return e.format("metric error", parts)
}

// Is checks if this error matches the target.
func (e *MetricError) Is(target error) bool {
	if _, ok := target.(*MetricError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsDocumentError returns true if err is, or wraps, a DocumentError.
func IsDocumentError(err error) bool {
	if err == nil {
		return false
	}
	var docErr *DocumentError
	return As(err, &docErr)
}

// IsUnavailable returns true if err marks a value as "not available" rather
// than a failure of the tool itself: document errors and metric errors.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var metricErr *MetricError
	return IsDocumentError(err) || As(err, &metricErr)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that are not typed archmetrics errors.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var sev interface{ Severity() Severity }
	if As(err, &sev) {
		return sev.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
