package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates insufficient permissions
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrExternal indicates an upstream service returned an error
	ErrExternal = errors.New("external service error")

	// ErrNotImplemented indicates the capability is not implemented
	ErrNotImplemented = errors.New("not implemented")
)

// Chat session errors

var (
	// ErrRateLimited indicates the caller exhausted its request quota
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrEntitlement indicates the caller's tier does not allow the model
	ErrEntitlement = errors.New("model not allowed for caller tier")

	// ErrModelUnknown indicates the requested model is not registered
	ErrModelUnknown = errors.New("unknown model")

	// ErrGenerationUnavailable indicates the generation capability failed
	ErrGenerationUnavailable = errors.New("generation capability unavailable")

	// ErrEmptyQuery indicates the query text was empty or malformed
	ErrEmptyQuery = errors.New("empty query")

	// ErrSessionClosed indicates the session already reached a terminal state
	ErrSessionClosed = errors.New("session closed")
)

// Tool execution errors

var (
	// ErrToolNotFound indicates a planned tool is not registered
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolTimeout indicates a single tool call exceeded its deadline
	ErrToolTimeout = errors.New("tool call timeout")

	// ErrArgValidation indicates tool arguments failed schema validation
	ErrArgValidation = errors.New("tool argument validation failed")
)

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
