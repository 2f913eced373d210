package models

import (
	"errors"
	"net/http"
)

// ValidationError reports a malformed request, mapped to 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// AuthorizationError reports a rejected bearer token, mapped to 401.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// NotFoundError reports an unmatched route, mapped to 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// NewValidationError creates a ValidationError.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// StatusCode maps an error to its HTTP status, anything unclassified is an
// operation failure.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		authz      *AuthorizationError
		notFound   *NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &authz):
		return http.StatusUnauthorized
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
