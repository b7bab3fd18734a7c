// Package backend describes the hosted auth service the dashboard talks to.
//
// Only the contract lives here. backend/local implements it in-process over
// the sqlite repositories; a hosted implementation would wrap an HTTP client.
package backend

import (
	"context"

	"github.com/sakif/asynchire/internal/model"
)

// AuthEvent names a session change notification.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
)

// AuthListener receives session changes. session is nil for EventSignedOut.
type AuthListener func(event AuthEvent, session *model.Session)

// SignUpMetadata is stored alongside a new identity and copied onto the
// profile the backend creates for it.
type SignUpMetadata struct {
	FullName string `json:"full_name"`
}

// AuthClient is one browser's handle on the auth service. It owns the current
// session; callers only read it.
//
// Listeners are invoked synchronously, in registration order, after the state
// change that caused the event. A listener must not call back into the client
// that is notifying it.
type AuthClient interface {
	// GetSession returns the stored session, or nil when signed out or expired.
	GetSession(ctx context.Context) (*model.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*model.Session, error)
	// SignInWithGitHub completes an OAuth callback, creating the identity and
	// profile on first use.
	SignInWithGitHub(ctx context.Context, code string) (*model.Session, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange registers fn and returns a function that removes it.
	OnAuthStateChange(fn AuthListener) (unsubscribe func())
}

// ProfileSource is the slice of the data API the session controller needs.
type ProfileSource interface {
	GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
}
