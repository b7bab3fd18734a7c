// Package auth holds the credential primitives the local backend is built on:
// signed session access tokens, password hashing, GitHub sign-in, and the
// cookies that carry a browser's token between requests.
//
// The dashboard itself never looks inside a token. Only backend/local mints
// and validates them, the same way a hosted auth service would.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "asynchire"

	// DefaultSessionTTL is how long a session access token stays valid.
	DefaultSessionTTL = time.Hour
)

// ErrTokenExpired is returned by Validate for a well-formed token past its
// expiry. Callers treat it like "no session".
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and the
// default session lifetime.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultSessionTTL}, nil
}

// WithTTL returns a copy of s that issues tokens valid for ttl. A
// non-positive ttl keeps the current one.
func (s *TokenService) WithTTL(ttl time.Duration) *TokenService {
	out := *s
	if ttl > 0 {
		out.ttl = ttl
	}
	return &out
}

// Claims is what a session token asserts about its holder.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generate signs a token for the user valid for the service's session TTL.
func (s *TokenService) Generate(userID, email string) (string, time.Time, error) {
	return s.GenerateWithDuration(userID, email, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to get an already-expired token.
func (s *TokenService) GenerateWithDuration(userID, email string, d time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(d)

	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies a token string.
//
// Checks performed: HS256 signature, expiry present and in the future, issuer.
// Restricting the method list rejects "alg: none" tokens.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}

	return &Claims{
		UserID:    c.Subject,
		Email:     c.Email,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
