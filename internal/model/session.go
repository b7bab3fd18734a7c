package model

import "time"

// Session is the auth service's view of a signed-in user. The access token is
// opaque to everything outside the backend package.
type Session struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// User is the identity half of a session, the part the dashboard keeps.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// User returns the identity carried by s, or nil for a nil session.
func (s *Session) User() *User {
	if s == nil {
		return nil
	}
	return &User{ID: s.UserID, Email: s.Email}
}

// Identity is the auth-service user row. It never leaves the backend.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	GitHubID     *int64
	CreatedAt    time.Time
}
