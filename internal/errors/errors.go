package errors

import (
	"fmt"
	"time"
)

// Error types for the grepline engine
type ErrorType string

const (
	// Pattern errors
	ErrorTypePattern ErrorType = "pattern"
	ErrorTypeDialect ErrorType = "dialect"

	// Source errors
	ErrorTypeSourceOpen ErrorType = "source_open"
	ErrorTypeSourceRead ErrorType = "source_read"
	ErrorTypePermission ErrorType = "permission"

	// Output errors
	ErrorTypeSink ErrorType = "sink"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// PatternError reports a raw pattern that failed to compile for its dialect.
// Pattern compilation is a pre-flight step, so this error always surfaces
// before any line has been read.
type PatternError struct {
	Type       ErrorType
	Pattern    string
	Dialect    string
	Underlying error
	Timestamp  time.Time
}

// NewPatternError creates a new pattern compilation error
func NewPatternError(pattern, dialect string, err error) *PatternError {
	return &PatternError{
		Type:       ErrorTypePattern,
		Pattern:    pattern,
		Dialect:    dialect,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithDialect overrides the dialect name recorded on the error
func (e *PatternError) WithDialect(dialect string) *PatternError {
	e.Dialect = dialect
	return e
}

// Error implements the error interface
func (e *PatternError) Error() string {
	if e.Dialect != "" {
		return fmt.Sprintf("invalid %s pattern %q: %v", e.Dialect, e.Pattern, e.Underlying)
	}
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *PatternError) Unwrap() error {
	return e.Underlying
}

// SourceError reports a failure opening or reading one input source.
// Source errors are recoverable per source: the engine reports them and
// continues with the remaining sources.
type SourceError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewSourceError creates a new source error with operation context
func NewSourceError(op, path string, err error) *SourceError {
	errorType := ErrorTypeSourceOpen
	if op == "read" {
		errorType = ErrorTypeSourceRead
	}
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &SourceError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface
func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SourceError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether the run can continue past this error.
// Open and read failures never abort the whole run.
func (e *SourceError) IsRecoverable() bool {
	return true
}

// SinkError reports a failed write to the output sink. A broken sink is
// fatal to the run but is not surfaced as a top-level error: the engine
// stops reading and terminates quietly.
type SinkError struct {
	Type       ErrorType
	Underlying error
	Timestamp  time.Time
}

// NewSinkError creates a new sink error
func NewSinkError(err error) *SinkError {
	return &SinkError{
		Type:       ErrorTypeSink,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SinkError) Error() string {
	return fmt.Sprintf("output sink failed: %v", e.Underlying)
}

// Unwrap returns the underlying error
func (e *SinkError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}
