package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError reports a stored-value invariant violated at commit time.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidOperationError reports an action attempted in a state that forbids it.
type InvalidOperationError struct {
	Message string `json:"message"`
}

func NewInvalidOperation(format string, args ...interface{}) *InvalidOperationError {
	return &InvalidOperationError{Message: fmt.Sprintf(format, args...)}
}

func (e *InvalidOperationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInvalidOperation reports whether err wraps an InvalidOperationError.
func IsInvalidOperation(err error) bool {
	var target *InvalidOperationError
	return errors.As(err, &target)
}

// Warning is a non-blocking notice returned next to a successful result.
type Warning struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
