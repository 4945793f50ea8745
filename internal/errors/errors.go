// Package errors defines the service error type shared by HTTP
// middleware and handlers. A ServiceError pairs a stable machine code
// with the HTTP status it should map to, so transport code never has to
// guess.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies an error class across service boundaries.
type ErrorCode string

const (
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeForbidden     ErrorCode = "FORBIDDEN"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeConflict      ErrorCode = "CONFLICT"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeInvalidToken  ErrorCode = "INVALID_TOKEN"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeRateLimited   ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// ServiceError carries an error code, a human-readable message and the
// HTTP status the error maps to. Details hold structured context safe to
// return to clients.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}

	cause error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// WithDetails attaches one key/value pair and returns the error so calls
// can be chained.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Unauthorized signals a missing or failed authentication.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Authentication required"
	}
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// Forbidden signals an authenticated caller without permission.
func Forbidden(message string) *ServiceError {
	if message == "" {
		message = "Access denied"
	}
	return &ServiceError{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// NotFound signals a missing resource.
func NotFound(resource string) *ServiceError {
	return &ServiceError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// Conflict signals a uniqueness or state conflict.
func Conflict(message string) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: message, HTTPStatus: http.StatusConflict}
}

// InvalidInput signals a request that parsed but failed validation.
func InvalidInput(message string) *ServiceError {
	return &ServiceError{Code: CodeInvalidInput, Message: message, HTTPStatus: http.StatusBadRequest}
}

// InvalidToken signals an unparsable, expired or otherwise rejected token.
func InvalidToken(cause error) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidToken,
		Message:    "Invalid or expired token",
		HTTPStatus: http.StatusUnauthorized,
		cause:      cause,
	}
}

// InvalidFormat signals a field that does not match its expected format.
func InvalidFormat(field, expected string) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidFormat,
		Message:    fmt.Sprintf("invalid %s", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]interface{}{"field": field, "expected": expected},
	}
}

// RateLimitExceeded signals the caller went over limit requests per window.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return &ServiceError{
		Code:       CodeRateLimited,
		Message:    "Rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
		Details:    map[string]interface{}{"limit": limit, "window": window},
	}
}

// Internal wraps an unexpected failure. The cause stays server-side; only
// the message is intended for clients.
func Internal(message string, cause error) *ServiceError {
	if message == "" {
		message = "Internal server error"
	}
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, cause: cause}
}

// GetServiceError extracts a ServiceError from anywhere in err's chain,
// or returns nil when err is not one.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if stderrors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}
