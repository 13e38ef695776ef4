package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation error")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInternal          = errors.New("internal server error")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NotAuthenticated(message string) *AppError {
	return New(http.StatusUnauthorized, message, ErrNotAuthenticated)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, ErrForbidden)
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message, ErrNotFound)
}

// InvalidState is returned when a role or status precondition does not hold.
// The message should carry the actual current value.
func InvalidState(message string) *AppError {
	return New(http.StatusBadRequest, message, ErrInvalidState)
}

func Conflict(message string) *AppError {
	return New(http.StatusConflict, message, ErrConflict)
}

func Validation(message string) *AppError {
	return New(http.StatusBadRequest, message, ErrValidation)
}

func RateLimited(message string) *AppError {
	return New(http.StatusTooManyRequests, message, ErrRateLimitExceeded)
}

// Internal wraps an unexpected failure. The cause is kept for server-side logging only.
func Internal(message string, cause error) *AppError {
	return New(http.StatusInternalServerError, message, errors.Join(ErrInternal, cause))
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
