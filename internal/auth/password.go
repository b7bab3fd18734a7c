package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for production hashing (~250ms).
const defaultCost = 12

// MinPasswordLength is the shortest password sign-up accepts.
const MinPasswordLength = 6

// ErrInvalidPassword is returned by Verify when the password does not match.
var ErrInvalidPassword = errors.New("auth: invalid password")

// PasswordService hashes and verifies passwords with bcrypt. The cost is a
// field so tests can hash at cost 4.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest lets tests in other packages use a cheap cost.
// Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext. bcrypt silently truncates
// input past 72 bytes, so longer passwords are rejected instead.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrInvalidPassword when
// it does not. An identity created through GitHub has no hash; that is also
// ErrInvalidPassword.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if hash == "" {
		return ErrInvalidPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
