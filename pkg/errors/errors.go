package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternal       = errors.New("internal error")
	ErrSecurityCheck  = errors.New("security check failed")
	ErrValidation     = errors.New("validation failed")
	ErrPersistence    = errors.New("persistence failed")
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError represents a structured application error with HTTP status mapping.
// Message is always safe to show to an end user.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// SecurityCheckFailed creates a 403 error. The cause is kept for logs only.
func SecurityCheckFailed(cause error) *AppError {
	err := ErrSecurityCheck
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrSecurityCheck, cause)
	}
	return &AppError{
		Code:    "SECURITY_CHECK_FAILED",
		Message: "Security check failed. Please try again.",
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// ValidationFailed creates a 400 error carrying per-field messages.
func ValidationFailed(fields map[string]string) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Message: "Please fill all required fields.",
		Fields:  fields,
		Status:  http.StatusBadRequest,
		Err:     ErrValidation,
	}
}

// PersistenceFailed creates a 503 error for a store that rejected a write.
func PersistenceFailed(cause error) *AppError {
	err := ErrPersistence
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrPersistence, cause)
	}
	return &AppError{
		Code:    "PERSISTENCE_FAILED",
		Message: "There was an error. Try again later.",
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrSecurityCheck):
		return http.StatusForbidden
	case errors.Is(err, ErrPersistence), errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// As reports whether err wraps an *AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
