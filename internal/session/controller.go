// Package session turns a browser's auth client into one coherent
// {user, profile, loading, initializing} state the views render from.
//
// The Controller is a small state machine. Its inputs are the bootstrap
// getSession result, auth change notifications, profile fetch results and a
// safety timer; every one of them goes through apply, which is the only code
// that changes state. Inputs can race (the bootstrap check and the change
// subscription run at the same time, and profile fetches run in their own
// goroutines), so each fetch carries the epoch it started in. Signing out or
// switching user bumps the epoch, and apply drops any result from an older
// one. That is what makes SIGNED_OUT win over a fetch already in flight.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/asynchire/internal/backend"
	"github.com/sakif/asynchire/internal/model"
)

// DefaultSafetyTimeout forces initializing off if bootstrap never finishes.
const DefaultSafetyTimeout = 12 * time.Second

// Phase is the controller's named state.
type Phase int

const (
	Uninitialized Phase = iota
	Initializing
	Unauthenticated
	AuthenticatedNoProfile
	AuthenticatedWithProfile
)

var phaseNames = [...]string{
	Uninitialized:            "uninitialized",
	Initializing:             "initializing",
	Unauthenticated:          "unauthenticated",
	AuthenticatedNoProfile:   "authenticated_no_profile",
	AuthenticatedWithProfile: "authenticated_with_profile",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a point-in-time copy of what the controller exposes.
type State struct {
	Phase           Phase          `json:"phase"`
	User            *model.User    `json:"user"`
	Profile         *model.Profile `json:"profile"`
	IsAuthenticated bool           `json:"is_authenticated"`
	IsAdmin         bool           `json:"is_admin"`
	Loading         bool           `json:"loading"`
	Initializing    bool           `json:"initializing"`
}

type eventKind int

const (
	evStart eventKind = iota
	evBootstrap
	evAuthChange
	evProfileResolved
	evSafetyTimeout
)

type event struct {
	kind eventKind

	// evBootstrap, evAuthChange
	authEvent backend.AuthEvent
	session   *model.Session

	// evProfileResolved
	epoch   uint64
	seq     uint64
	userID  string
	profile *model.Profile
}

// fetch is a profile load apply asked for.
type fetch struct {
	epoch  uint64
	seq    uint64
	userID string
}

// Controller owns one browser's session state. Create with NewController,
// call Start once, and Close when the browser goes away.
type Controller struct {
	client        backend.AuthClient
	loader        *ProfileLoader
	logger        *slog.Logger
	safetyTimeout time.Duration

	mu              sync.Mutex
	phase           Phase
	initializing    bool
	user            *model.User
	profile         *model.Profile
	profileResolved bool
	epoch           uint64
	seq             uint64
	appliedSeq      uint64
	updated         chan struct{}
	closed          bool
	unsubscribe     func()
	safetyTimer     *time.Timer
	ctx             context.Context
	cancel          context.CancelFunc
}

func NewController(client backend.AuthClient, loader *ProfileLoader, safetyTimeout time.Duration, logger *slog.Logger) *Controller {
	if safetyTimeout <= 0 {
		safetyTimeout = DefaultSafetyTimeout
	}
	return &Controller{
		client:        client,
		loader:        loader,
		logger:        logger,
		safetyTimeout: safetyTimeout,
		updated:       make(chan struct{}),
	}
}

// Start enters Initializing, subscribes to auth changes and checks for an
// existing session in the background. Calls after the first are no-ops.
//
// Background work keeps ctx's values but not its cancellation; it ends on
// Close.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.phase != Uninitialized {
		c.mu.Unlock()
		return
	}
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.applyAndBroadcast(event{kind: evStart})
	c.mu.Unlock()

	unsubscribe := c.client.OnAuthStateChange(c.onAuthEvent)
	timer := time.AfterFunc(c.safetyTimeout, func() {
		c.dispatch(event{kind: evSafetyTimeout})
	})

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.safetyTimer = timer
	closed := c.closed
	c.mu.Unlock()
	if closed {
		// Close ran between the two critical sections.
		unsubscribe()
		timer.Stop()
		return
	}

	go c.bootstrap()
}

func (c *Controller) bootstrap() {
	session, err := c.client.GetSession(c.ctx)
	if err != nil {
		c.logger.Error("getting session", slog.String("error", err.Error()))
		session = nil
	}
	c.dispatch(event{kind: evBootstrap, session: session})
}

func (c *Controller) onAuthEvent(ev backend.AuthEvent, s *model.Session) {
	c.logger.Debug("auth state change", slog.String("event", string(ev)))
	c.dispatch(event{kind: evAuthChange, authEvent: ev, session: s})
}

// dispatch applies e and starts whatever profile fetch it asked for.
func (c *Controller) dispatch(e event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	f := c.applyAndBroadcast(e)
	ctx := c.ctx
	c.mu.Unlock()

	if f != nil {
		go c.runFetch(ctx, f)
	}
}

func (c *Controller) runFetch(ctx context.Context, f *fetch) {
	profile := c.loader.Load(ctx, f.userID)
	c.dispatch(event{
		kind:    evProfileResolved,
		epoch:   f.epoch,
		seq:     f.seq,
		userID:  f.userID,
		profile: profile,
	})
}

// applyAndBroadcast runs apply and wakes Updated waiters on a change.
// Caller holds mu.
func (c *Controller) applyAndBroadcast(e event) *fetch {
	f, changed := c.apply(e)
	if changed {
		close(c.updated)
		c.updated = make(chan struct{})
	}
	return f
}

// apply is the transition table. Caller holds mu.
func (c *Controller) apply(e event) (*fetch, bool) {
	switch e.kind {
	case evStart:
		if c.phase != Uninitialized {
			return nil, false
		}
		c.phase = Initializing
		c.initializing = true
		return nil, true

	case evBootstrap:
		// A change notification or a sign-out already decided the outcome.
		if c.phase != Initializing {
			return nil, false
		}
		if e.session == nil {
			c.phase = Unauthenticated
			c.initializing = false
			return nil, true
		}
		return c.authenticate(e.session.User()), true

	case evAuthChange:
		switch e.authEvent {
		case backend.EventSignedOut:
			c.epoch++
			c.phase = Unauthenticated
			c.user = nil
			c.profile = nil
			c.profileResolved = false
			c.initializing = false
			return nil, true
		case backend.EventTokenRefreshed:
			return nil, false
		}

		if e.session == nil {
			if c.phase == Initializing {
				c.phase = Unauthenticated
				c.initializing = false
				return nil, true
			}
			return nil, false
		}

		user := e.session.User()
		switch c.phase {
		case Initializing, Unauthenticated:
			return c.authenticate(user), true
		case AuthenticatedNoProfile, AuthenticatedWithProfile:
			if c.user != nil && c.user.ID == user.ID {
				if c.user.Email == user.Email {
					return nil, false
				}
				c.user = user
				return nil, true
			}
			c.epoch++
			return c.authenticate(user), true
		}
		return nil, false

	case evProfileResolved:
		if e.epoch != c.epoch || e.seq < c.appliedSeq || c.user == nil || c.user.ID != e.userID {
			return nil, false
		}
		c.appliedSeq = e.seq
		c.profile = e.profile
		c.profileResolved = true
		c.phase = AuthenticatedWithProfile
		c.initializing = false
		return nil, true

	case evSafetyTimeout:
		if !c.initializing {
			return nil, false
		}
		c.logger.Warn("session bootstrap hit safety timeout",
			slog.String("phase", c.phase.String()),
			slog.Duration("timeout", c.safetyTimeout),
		)
		c.initializing = false
		return nil, true
	}
	return nil, false
}

// authenticate moves to AuthenticatedNoProfile for user and returns the fetch
// that will complete the transition. Caller holds mu.
func (c *Controller) authenticate(user *model.User) *fetch {
	c.user = user
	c.profile = nil
	c.profileResolved = false
	c.phase = AuthenticatedNoProfile
	return c.nextFetch()
}

func (c *Controller) nextFetch() *fetch {
	c.seq++
	return &fetch{epoch: c.epoch, seq: c.seq, userID: c.user.ID}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Phase:           c.phase,
		IsAuthenticated: c.user != nil,
		IsAdmin:         c.profile.IsAdmin(),
		Loading:         c.loadingLocked(),
		Initializing:    c.initializing,
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	if c.profile != nil {
		p := *c.profile
		s.Profile = &p
	}
	return s
}

func (c *Controller) loadingLocked() bool {
	return c.initializing || (c.user != nil && !c.profileResolved)
}

// Updated returns a channel that is closed on the next state change.
func (c *Controller) Updated() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updated
}

// WaitSettled blocks until Loading is false, the controller is closed, or
// ctx is done.
func (c *Controller) WaitSettled(ctx context.Context) error {
	for {
		c.mu.Lock()
		settled := c.closed || !c.loadingLocked()
		ch := c.updated
		c.mu.Unlock()

		if settled {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SignIn asks the auth service for a session. The resulting SIGNED_IN
// notification, not this call, moves the state.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	if _, err := c.client.SignInWithPassword(ctx, strings.TrimSpace(email), password); err != nil {
		c.logger.Info("sign-in failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// SignUp validates locally, then registers with the auth service.
func (c *Controller) SignUp(ctx context.Context, email, password, fullName string) error {
	if err := ValidateSignUp(email, password, password); err != nil {
		return err
	}
	meta := backend.SignUpMetadata{FullName: fullName}
	if _, err := c.client.SignUp(ctx, strings.TrimSpace(email), password, meta); err != nil {
		c.logger.Info("sign-up failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (c *Controller) SignInWithGitHub(ctx context.Context, code string) error {
	if _, err := c.client.SignInWithGitHub(ctx, code); err != nil {
		c.logger.Info("GitHub sign-in failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// SignOut only delegates. Local state is cleared by the SIGNED_OUT
// notification.
func (c *Controller) SignOut(ctx context.Context) error {
	if err := c.client.SignOut(ctx); err != nil {
		c.logger.Error("sign-out failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// RefreshProfile reloads the current user's profile and returns once the
// result has been applied (or dropped as stale). No-op without a user.
func (c *Controller) RefreshProfile(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.user == nil {
		c.mu.Unlock()
		return
	}
	f := c.nextFetch()
	c.mu.Unlock()

	profile := c.loader.Load(ctx, f.userID)
	c.dispatch(event{
		kind:    evProfileResolved,
		epoch:   f.epoch,
		seq:     f.seq,
		userID:  f.userID,
		profile: profile,
	})
}

// Close unsubscribes, stops the safety timer and abandons in-flight fetches.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	if c.safetyTimer != nil {
		c.safetyTimer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
	// Left closed: every later Updated call returns immediately.
	close(c.updated)
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
