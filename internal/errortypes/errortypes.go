// Package errortypes provides error types and handling for the Notion MCP adapter.
package errortypes

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrorType classifies a failure by what the caller can do about it.
type ErrorType string

// Error types
const (
	// ErrorTypeValidation indicates the tool arguments failed local checks.
	// No remote call was made; fix the arguments and retry.
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeUnauthorized indicates the integration token was rejected.
	// This is a configuration problem, not retryable as-is.
	ErrorTypeUnauthorized ErrorType = "unauthorized"

	// ErrorTypeRejected indicates the remote API refused the request
	// (4xx other than 401): bad ID, malformed schema, missing permission.
	ErrorTypeRejected ErrorType = "rejected"

	// ErrorTypeUpstream indicates the remote API is unavailable (5xx,
	// network failure, timeout). Safe to retry non-mutating calls.
	ErrorTypeUpstream ErrorType = "upstream"

	// ErrorTypeUnsupported indicates an unknown tool name.
	ErrorTypeUnsupported ErrorType = "unsupported"

	// ErrorTypeConfig indicates a startup configuration problem.
	ErrorTypeConfig ErrorType = "config"

	// ErrorTypeInternal indicates a bug in the adapter itself.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError carries the error classification plus whatever the remote API
// told us about the failure.
type AppError struct {
	Err     error
	Type    ErrorType
	Message string

	// RemoteStatus is the HTTP status from the Notion API, 0 when the
	// failure happened before or without a response.
	RemoteStatus int

	// RemoteCode is the machine-readable error code from the Notion API
	// error body (e.g. "object_not_found"), empty when unavailable.
	RemoteCode string

	Fields map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Err.Error()
}

// Unwrap supports errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField adds a field to the error for additional context.
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithRemote attaches the remote status code and error code.
func (e *AppError) WithRemote(status int, code string) *AppError {
	e.RemoteStatus = status
	e.RemoteCode = code
	return e
}

func newAppError(errType ErrorType, err error, message string) *AppError {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &AppError{
		Err:     err,
		Type:    errType,
		Message: message,
		Fields:  make(map[string]interface{}),
	}
}

// ValidationError creates a new validation error.
func ValidationError(err error, message string) *AppError {
	return newAppError(ErrorTypeValidation, err, message)
}

// UnauthorizedError creates a new unauthorized error.
func UnauthorizedError(err error, message string) *AppError {
	return newAppError(ErrorTypeUnauthorized, err, message)
}

// RejectedError creates a new request-rejected error.
func RejectedError(err error, message string) *AppError {
	return newAppError(ErrorTypeRejected, err, message)
}

// UpstreamError creates a new upstream-unavailable error.
func UpstreamError(err error, message string) *AppError {
	return newAppError(ErrorTypeUpstream, err, message)
}

// UnsupportedError creates a new unsupported-tool error.
func UnsupportedError(err error, message string) *AppError {
	return newAppError(ErrorTypeUnsupported, err, message)
}

// ConfigError creates a new configuration error.
func ConfigError(err error, message string) *AppError {
	return newAppError(ErrorTypeConfig, err, message)
}

// InternalError creates a new internal error.
func InternalError(err error, message string) *AppError {
	return newAppError(ErrorTypeInternal, err, message)
}

// TypeOf returns the classification of err, or ErrorTypeInternal for
// errors that did not originate in this package.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Retryable reports whether the caller is advised to retry with backoff.
// Only upstream failures qualify; mutating calls must not be retried
// automatically even then.
func Retryable(err error) bool {
	return TypeOf(err) == ErrorTypeUpstream
}

// LogError logs an AppError using the provided slog.Logger or the default
// slog logger, including its type, remote detail, and context fields.
func LogError(logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		args := []any{
			"type", string(appErr.Type),
			"original_error", appErr.Err.Error(),
		}
		if appErr.RemoteStatus != 0 {
			args = append(args, "remote_status", appErr.RemoteStatus)
		}
		if appErr.RemoteCode != "" {
			args = append(args, "remote_code", appErr.RemoteCode)
		}
		for k, v := range appErr.Fields {
			args = append(args, k, v)
		}
		logger.Error(appErr.Message, args...)
	} else {
		logger.Error(err.Error(), "error", err)
	}
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error.
func IsUnauthorizedError(err error) bool {
	return TypeOf(err) == ErrorTypeUnauthorized
}

// IsRejectedError checks if an error is a request-rejected error.
func IsRejectedError(err error) bool {
	return TypeOf(err) == ErrorTypeRejected
}

// IsUpstreamError checks if an error is an upstream-unavailable error.
func IsUpstreamError(err error) bool {
	return TypeOf(err) == ErrorTypeUpstream
}

// IsUnsupportedError checks if an error is an unsupported-tool error.
func IsUnsupportedError(err error) bool {
	return TypeOf(err) == ErrorTypeUnsupported
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return TypeOf(err) == ErrorTypeConfig
}
