// Package errors provides custom error types for the splitbook engine.
// These errors enable programmatic error checking across the matching,
// split-calculation, and reconciliation components while keeping per-line
// failures contained at the orchestrator boundary.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
var As = errors.As

// Common sentinel errors for the splitbook engine
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCacheUnavailable indicates the catalog backing store could not be
	// reached during a cache refresh
	ErrCacheUnavailable = errors.New("catalog cache unavailable")

	// ErrInvalidLine indicates a statement line is missing required data
	ErrInvalidLine = errors.New("invalid statement line")

	// ErrNoMatch indicates no catalog work cleared the confidence threshold.
	// This is a normal reconciliation outcome, not a failure.
	ErrNoMatch = errors.New("no match found")

	// ErrReadOnly indicates an attempt to modify a read-only resource
	ErrReadOnly = errors.New("read only")
)

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// StoreError represents a failure in a backing store collaborator
// (catalog store, identity directory, or historical ledger).
type StoreError struct {
	Store string
	Op    string
	Err   error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Store, e.Op, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *StoreError) Is(target error) bool {
	return target == ErrCacheUnavailable
}

// NewStoreError creates a new StoreError
func NewStoreError(store, op string, err error) *StoreError {
	return &StoreError{Store: store, Op: op, Err: err}
}

// LineError represents a failure while processing a single statement line.
// It is caught at the per-line boundary; the line is recorded as untracked
// with this error's text and the batch continues.
type LineError struct {
	Title string
	Err   error
}

// Error implements the error interface
func (e *LineError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("line %q: %v", e.Title, e.Err)
	}
	return fmt.Sprintf("line: %v", e.Err)
}

// Unwrap implements errors.Unwrap
func (e *LineError) Unwrap() error {
	return e.Err
}

// NewLineError creates a new LineError
func NewLineError(title string, err error) *LineError {
	return &LineError{Title: title, Err: err}
}

// WrapResource wraps an error with a standard operation/resource prefix.
func WrapResource(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if id != "" {
		return fmt.Errorf("%s %s %s: %w", op, resource, id, err)
	}
	return fmt.Errorf("%s %s: %w", op, resource, err)
}
