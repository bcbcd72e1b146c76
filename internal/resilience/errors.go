// Package resilience classifies pipeline errors as fatal configuration
// errors or recoverable per-step cleaning errors.
package resilience

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an invalid pipeline configuration. It is fatal
// and is raised before any record is processed.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError builds a ConfigurationError for a config key.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// CleaningError wraps a failure inside a single cleaning step. The field
// keeps its original value and the pipeline continues with the next step.
type CleaningError struct {
	Step  string
	Field string
	Err   error
}

func (e *CleaningError) Error() string {
	return fmt.Sprintf("cleaning step %s (%s): %v", e.Step, e.Field, e.Err)
}

func (e *CleaningError) Unwrap() error {
	return e.Err
}

// NewCleaningError wraps err as a CleaningError for the given step.
func NewCleaningError(step, field string, err error) *CleaningError {
	return &CleaningError{Step: step, Field: field, Err: err}
}

// IsFatal returns true if the error (or any error in its chain) must abort
// the batch. Only configuration errors do; per-record failures degrade.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsCleaningError returns true if the error chain contains a CleaningError.
func IsCleaningError(err error) bool {
	if err == nil {
		return false
	}
	var ce *CleaningError
	return errors.As(err, &ce)
}

// Guard runs fn and converts a panic into a CleaningError.
func Guard(step, field string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewCleaningError(step, field, fmt.Errorf("panic: %v", r))
		}
	}()
	if ferr := fn(); ferr != nil {
		return NewCleaningError(step, field, ferr)
	}
	return nil
}
