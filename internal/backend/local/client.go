package local

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/auth"
	"github.com/sakif/asynchire/internal/backend"
	"github.com/sakif/asynchire/internal/model"
)

// refreshWindow is how close to expiry GetSession renews the access token.
const refreshWindow = 5 * time.Minute

var _ backend.AuthClient = (*Client)(nil)

type listener struct {
	id int
	fn backend.AuthListener
}

// Client is one browser's auth handle.
//
// opMu serialises every operation that changes the session and is held while
// listeners run, so notifications arrive in the order the changes happened.
// mu guards the fields below it.
type Client struct {
	svc *Service

	opMu sync.Mutex

	mu        sync.Mutex
	session   *model.Session
	stored    string
	listeners []listener
	nextID    int
}

// GetSession returns the current session. A token restored from the browser
// is validated here; an expired one is dropped silently. A live session that
// has since expired is cleared and announced with SIGNED_OUT. A session close
// to expiry is renewed and announced with TOKEN_REFRESHED.
func (c *Client) GetSession(ctx context.Context) (*model.Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.session == nil && c.stored != "" {
		token := c.stored
		c.stored = ""
		claims, err := c.svc.tokens.Validate(token)
		if err == nil {
			c.session = &model.Session{
				AccessToken: token,
				UserID:      claims.UserID,
				Email:       claims.Email,
				ExpiresAt:   claims.ExpiresAt,
			}
		} else if !errors.Is(err, auth.ErrTokenExpired) {
			c.svc.logger.Warn("discarding invalid persisted token", slog.String("error", err.Error()))
		}
	}
	current := c.session
	c.mu.Unlock()

	if current == nil {
		return nil, nil
	}

	now := time.Now()
	if !now.Before(current.ExpiresAt) {
		c.setSession(nil)
		c.notify(backend.EventSignedOut, nil)
		return nil, nil
	}
	if current.ExpiresAt.Sub(now) > refreshWindow {
		return copySession(current), nil
	}

	token, expiresAt, err := c.svc.tokens.Generate(current.UserID, current.Email)
	if err != nil {
		// Still valid for a few minutes; keep using it.
		c.svc.logger.Error("refreshing session token", slog.String("error", err.Error()))
		return copySession(current), nil
	}
	refreshed := &model.Session{
		AccessToken: token,
		UserID:      current.UserID,
		Email:       current.Email,
		ExpiresAt:   expiresAt,
	}
	c.setSession(refreshed)
	c.notify(backend.EventTokenRefreshed, refreshed)
	return copySession(refreshed), nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	identity, err := c.svc.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.start(identity)
}

// SignUp registers a new identity and signs it in. The new profile's role is
// Admin for configured admin emails and Client otherwise.
func (c *Client) SignUp(ctx context.Context, email, password string, meta backend.SignUpMetadata) (*model.Session, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if normalizeEmail(email) == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperror.ValidationFailed("password", "Password must be at least 6 characters")
	}
	hash, err := c.svc.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	identity := &model.Identity{Email: email, PasswordHash: hash}
	if err := c.svc.register(ctx, identity, meta.FullName); err != nil {
		return nil, err
	}
	return c.start(identity)
}

func (c *Client) SignInWithGitHub(ctx context.Context, code string) (*model.Session, error) {
	if c.svc.github == nil {
		return nil, apperror.Unauthorized("GitHub sign-in is not configured")
	}
	gh, err := c.svc.github.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	identity, err := c.svc.githubIdentity(ctx, gh)
	if err != nil {
		return nil, err
	}
	return c.start(identity)
}

// SignOut clears the session and always announces SIGNED_OUT, even when
// there was no session to clear.
func (c *Client) SignOut(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.stored = ""
	c.mu.Unlock()
	c.setSession(nil)
	c.notify(backend.EventSignedOut, nil)
	return nil
}

func (c *Client) OnAuthStateChange(fn backend.AuthListener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// start installs a fresh session for identity and announces SIGNED_IN.
// Caller holds opMu.
func (c *Client) start(identity *model.Identity) (*model.Session, error) {
	session, err := c.svc.issue(identity)
	if err != nil {
		return nil, err
	}
	c.setSession(session)
	c.notify(backend.EventSignedIn, session)
	return copySession(session), nil
}

func (c *Client) setSession(s *model.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// notify calls every listener with its own copy of the session. Caller holds
// opMu but not mu.
func (c *Client) notify(event backend.AuthEvent, s *model.Session) {
	c.mu.Lock()
	ls := make([]listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.Unlock()

	for _, l := range ls {
		l.fn(event, copySession(s))
	}
}

func copySession(s *model.Session) *model.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
