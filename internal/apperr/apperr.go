package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the pricing and forecasting core.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrInsufficientData = errors.New("insufficient data")
	ErrModelNotTrained  = errors.New("model not trained")
)

// Error kinds raised by the surrounding service layer.
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Validation wraps ErrValidation with a formatted message
func Validation(format string, args ...interface{}) error {
	return wrap(ErrValidation, format, args...)
}

// NotFound wraps ErrNotFound with a formatted message
func NotFound(format string, args ...interface{}) error {
	return wrap(ErrNotFound, format, args...)
}

// InsufficientData wraps ErrInsufficientData with a formatted message
func InsufficientData(format string, args ...interface{}) error {
	return wrap(ErrInsufficientData, format, args...)
}

// ModelNotTrained wraps ErrModelNotTrained with a formatted message
func ModelNotTrained(format string, args ...interface{}) error {
	return wrap(ErrModelNotTrained, format, args...)
}

// Conflict wraps ErrConflict with a formatted message
func Conflict(format string, args ...interface{}) error {
	return wrap(ErrConflict, format, args...)
}

// Unauthorized wraps ErrUnauthorized with a formatted message
func Unauthorized(format string, args ...interface{}) error {
	return wrap(ErrUnauthorized, format, args...)
}

// Forbidden wraps ErrForbidden with a formatted message
func Forbidden(format string, args ...interface{}) error {
	return wrap(ErrForbidden, format, args...)
}

func wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// HTTPStatus maps an error kind to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrModelNotTrained), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
