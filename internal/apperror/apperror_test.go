package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	// Each test case checks that errors.Is() correctly identifies the error type
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("candidate", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("name", "name is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("job posting", "already active"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "AdminRequired wraps ErrForbidden",
			err:       AdminRequired(),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid login credentials"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "MissingRelation wraps ErrMissingRelation",
			err:       MissingRelation("user_profiles"),
			target:    ErrMissingRelation,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("candidate", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "ValidationFailed does NOT match ErrNotFound",
			err:       ValidationFailed("name", "too long"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("candidate", "abc123"),
			wantMessage: "candidate not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("name", "name is required"),
			wantMessage: "name is required",
		},
		{
			name:        "Conflict message includes resource and reason",
			err:         Conflict("job posting", "user already has an active posting"),
			wantMessage: "job posting conflict: user already has an active posting",
		},
		{
			name:        "AdminRequired uses the fixed message",
			err:         AdminRequired(),
			wantMessage: "Unauthorized: Admin access required",
		},
		{
			name:        "MissingRelation names the table",
			err:         MissingRelation("meetings"),
			wantMessage: `relation "meetings" does not exist`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("candidate", "abc123")
	unwrapped := err.Unwrap()

	if unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("email", "invalid email format")

	if err.Field != "email" {
		t.Errorf("Field = %q, want %q", err.Field, "email")
	}
}

func TestWrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("creating job posting: %w", Conflict("job posting", "already active"))

	if !errors.Is(err, ErrConflict) {
		t.Errorf("errors.Is(wrapped, ErrConflict) = false")
	}
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Message != "job posting conflict: already active" {
		t.Errorf("errors.As did not recover the AppError: %v", appErr)
	}
}
