package session

import (
	"strings"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/auth"
)

// ValidateSignUp runs the checks the sign-up form makes before anything is
// sent to the auth service.
func ValidateSignUp(email, password, confirm string) error {
	if strings.TrimSpace(email) == "" {
		return apperror.ValidationFailed("email", "Email is required")
	}
	if len(password) < auth.MinPasswordLength {
		return apperror.ValidationFailed("password", "Password must be at least 6 characters")
	}
	if password != confirm {
		return apperror.ValidationFailed("confirm_password", "Passwords do not match")
	}
	return nil
}
