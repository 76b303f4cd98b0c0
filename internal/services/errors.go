package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is a failure a caller can act on. StatusCode is the HTTP status handlers answer with.
type ServiceError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// GetStatusCode returns the HTTP status code for this error
func (e *ServiceError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

var (
	ErrUnauthenticated   = &ServiceError{Type: "UNAUTHENTICATED", Message: "authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden         = &ServiceError{Type: "FORBIDDEN", Message: "not allowed", StatusCode: http.StatusForbidden}
	ErrNotFound          = &ServiceError{Type: "NOT_FOUND", Message: "not found", StatusCode: http.StatusNotFound}
	ErrConflict          = &ServiceError{Type: "CONFLICT", Message: "already exists", StatusCode: http.StatusConflict}
	ErrInvalidTransition = &ServiceError{Type: "INVALID_TRANSITION", Message: "status change not allowed", StatusCode: http.StatusConflict}
	ErrOwnerUnresolved   = &ServiceError{Type: "OWNER_UNRESOLVED", Message: "portfolio owner could not be resolved", StatusCode: http.StatusUnprocessableEntity}
	ErrInvalidInput      = &ServiceError{Type: "VALIDATION_ERROR", Message: "invalid input", StatusCode: http.StatusBadRequest}
)

// StatusCode returns the HTTP status for err, 500 for anything that is not a ServiceError
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.GetStatusCode()
	}
	return http.StatusInternalServerError
}

// invalid wraps ErrInvalidInput with a reason
func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}
