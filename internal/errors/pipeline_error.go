// Package errors provides standardized error types for pipeline operations.
// This package defines PipelineError for consistent error handling across
// all stages, with operation context and error wrapping support.
package errors

import (
	"fmt"
)

// PipelineError represents standardized errors across all pipeline stages
type PipelineError struct {
	Op      string // Operation name (e.g., "load", "derive", "train")
	Field   string // Column or path if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s failed on %q: %s", e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *PipelineError) Is(target error) bool {
	if pe, ok := target.(*PipelineError); ok {
		return e.Op == pe.Op && e.Field == pe.Field && e.Message == pe.Message
	}
	return false
}

// Common error constructors for consistent error creation

// NewMissingInputError creates a fatal error for an input path with no
// readable source files
func NewMissingInputError(op, path string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Field:   path,
		Message: "no input files found",
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: message,
	}
}

// NewColumnError creates an error for a malformed or unsupported column
func NewColumnError(op, column, message string) *PipelineError {
	return &PipelineError{
		Op:      op,
		Field:   column,
		Message: message,
	}
}

// NewIOError wraps a file read/write failure with path context
func NewIOError(op, path string, cause error) *PipelineError {
	return &PipelineError{
		Op:      op,
		Field:   path,
		Message: "io error",
		Cause:   cause,
	}
}

// NewInternalError creates an error for internal stage failures
func NewInternalError(op string, cause error) *PipelineError {
	return &PipelineError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// Predefined error variables for common cases
var (
	// ErrEmptyCatalog indicates a stage invoked on an empty working set
	ErrEmptyCatalog = &PipelineError{
		Op:      "validation",
		Message: "operation not supported on empty catalog",
	}

	// ErrMismatchedLength indicates length mismatches between columns
	ErrMismatchedLength = &PipelineError{
		Op:      "validation",
		Message: "columns must have the same length",
	}

	// ErrSessionReleased indicates a run attempted on a released session
	ErrSessionReleased = &PipelineError{
		Op:      "session",
		Message: "session has been released",
	}
)
