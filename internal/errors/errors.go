package errors

import (
	"fmt"
)

// MaarError is the structured error type for maar.
// It provides rich context for error handling, logging, and user presentation.
type MaarError struct {
	// Code is the unique error code (e.g., "ERR_501_RETRIEVAL_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Storage, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *MaarError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *MaarError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with MaarError.
func (e *MaarError) Is(target error) bool {
	if t, ok := target.(*MaarError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *MaarError) WithDetail(key, value string) *MaarError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new MaarError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *MaarError {
	return &MaarError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a MaarError from an existing error.
// The error's message becomes the MaarError message.
func Wrap(code string, err error) *MaarError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *MaarError {
	return New(ErrCodeInvalidInput, message, cause)
}

// RetrievalUnavailable creates the fatal both-paths-failed error.
func RetrievalUnavailable(message string, cause error) *MaarError {
	return New(ErrCodeRetrievalUnavailable, message, cause)
}

// DegradedRetrieval creates the non-fatal single-path-failed error.
// Callers log it and continue with the remaining path.
func DegradedRetrieval(message string, cause error) *MaarError {
	return New(ErrCodeDegradedRetrieval, message, cause)
}

// IndexNotReady creates the search-before-first-build error.
// Callers translate it into an empty result set, not a failure.
func IndexNotReady(message string) *MaarError {
	return New(ErrCodeIndexNotReady, message, nil)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a MaarError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if me, ok := err.(*MaarError); ok {
		return me.Retryable
	}
	return false
}

// GetCode extracts the error code from a MaarError.
// Returns empty string if not a MaarError.
func GetCode(err error) string {
	if me, ok := err.(*MaarError); ok {
		return me.Code
	}
	return ""
}

// GetCategory extracts the category from a MaarError.
// Returns empty string if not a MaarError.
func GetCategory(err error) Category {
	if me, ok := err.(*MaarError); ok {
		return me.Category
	}
	return ""
}
