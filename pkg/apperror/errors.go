package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrBadRequest        = errors.New("bad request")
	ErrInternal          = errors.New("internal server error")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict, please retry")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrLevelNotFound     = errors.New("level not found for challenge")
	ErrSkillNotFound     = errors.New("skill not found")
	ErrNoPointsAvailable = errors.New("no skill points available")
)

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
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

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	if errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrChallengeNotFound) ||
		errors.Is(err, ErrLevelNotFound) ||
		errors.Is(err, ErrSkillNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNoPointsAvailable) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
