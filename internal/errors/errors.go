// Package apperrors defines the application-level error types of cascalc,
// separating user configuration mistakes from evaluation failures and server
// faults while keeping the underlying cause reachable.
//
// All wrapper types implement Unwrap so errors.Is and errors.As see through
// them.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes.
const (
	ExitSuccess         = 0   // Indicates successful execution.
	ExitErrorGeneric    = 1   // Indicates a generic error.
	ExitErrorTimeout    = 2   // Indicates the evaluation timed out.
	ExitErrorEvaluation = 3   // Indicates the engine rejected an expression.
	ExitErrorConfig     = 4   // Indicates a configuration error.
	ExitErrorCanceled   = 130 // Indicates the run was canceled (e.g., SIGINT).
)

// ConfigError represents invalid flags, environment values or option
// combinations.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// EvaluationError records that the engine failed on an expression. The
// message is the engine's own text.
type EvaluationError struct {
	// Expr is the expression that failed.
	Expr string
	// Cause is the underlying engine error.
	Cause error
}

// Error returns the engine message.
func (e EvaluationError) Error() string { return e.Cause.Error() }

// Unwrap returns the engine error.
func (e EvaluationError) Unwrap() error { return e.Cause }

// NewEvaluationError wraps cause as a failure of expr.
//
// Parameters:
//   - expr: The expression that failed.
//   - cause: The engine error.
//
// Returns:
//   - error: An EvaluationError.
func NewEvaluationError(expr string, cause error) error {
	return EvaluationError{Expr: expr, Cause: cause}
}

// ServerError represents errors that occur in the HTTP server component.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error combines the message and the cause when there is one.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
//
// Parameters:
//   - message: A description of the error context.
//   - cause: The underlying error that occurred (can be nil).
//
// Returns:
//   - error: A new ServerError instance.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError adds context to err with %w, or returns nil when err is nil.
//
// Parameters:
//   - err: The error to wrap; nil stays nil.
//   - format: The context message format.
//   - args: The format arguments.
//
// Returns:
//   - error: The wrapped error, or nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err is a cancellation or a deadline.
//
// Parameters:
//   - err: The error to inspect.
//
// Returns:
//   - bool: True for context.Canceled or context.DeadlineExceeded.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError represents an invalid request or configuration field.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
//
// Parameters:
//   - field: The invalid request field, empty for the whole request.
//   - message: What is wrong.
//   - value: The offending value.
//
// Returns:
//   - error: A ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}
