// Package apperror defines the domain errors shared by every layer.
//
// Services return these; handlers translate them to HTTP status codes with
// errors.Is, so the service layer never needs to know about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingRelation is returned by the data store when a table the
	// caller asked for does not exist (a fresh backend with no migrations).
	ErrMissingRelation = errors.New("relation does not exist")
)

// AdminRequiredMessage is the fixed message for non-admin callers of admin
// operations.
const AdminRequiredMessage = "Unauthorized: Admin access required"

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict is used both for unique-key clashes and for business rules such
// as "only one active job posting per user".
func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, message),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// AdminRequired is the Forbidden error every admin operation returns for a
// caller whose profile is not Admin.
func AdminRequired() *AppError {
	return Forbidden(AdminRequiredMessage)
}

// Unauthorized means there is no signed-in user, or the credentials were
// rejected. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// MissingRelation wraps ErrMissingRelation for the named table.
func MissingRelation(table string) *AppError {
	return &AppError{
		Err:     ErrMissingRelation,
		Message: fmt.Sprintf("relation %q does not exist", table),
	}
}
