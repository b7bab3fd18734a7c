package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/backend"
	"github.com/sakif/asynchire/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeAuth is an AuthClient whose session and notifications the test drives.
type fakeAuth struct {
	mu        sync.Mutex
	session   *model.Session
	err       error
	block     chan struct{} // GetSession waits for close when non-nil
	listeners []backend.AuthListener
	unsubs    int
	signUps   int
	signErr   error
}

func (f *fakeAuth) GetSession(ctx context.Context) (*model.Session, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.err
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	s := sessionFor("user-" + email)
	f.emit(backend.EventSignedIn, s)
	return s, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string, meta backend.SignUpMetadata) (*model.Session, error) {
	f.mu.Lock()
	f.signUps++
	f.mu.Unlock()
	return f.SignInWithPassword(ctx, email, password)
}

func (f *fakeAuth) SignInWithGitHub(ctx context.Context, code string) (*model.Session, error) {
	return f.SignInWithPassword(ctx, code, "")
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.emit(backend.EventSignedOut, nil)
	return nil
}

func (f *fakeAuth) OnAuthStateChange(fn backend.AuthListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubs++
		f.listeners = nil
	}
}

func (f *fakeAuth) emit(ev backend.AuthEvent, s *model.Session) {
	f.mu.Lock()
	ls := append([]backend.AuthListener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range ls {
		l(ev, s)
	}
}

// fakeProfiles serves profiles from a map. With gate set, every call blocks
// until the gate closes and ignores ctx, like a hung request.
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	err      error
	gate     chan struct{}
	calls    int
}

func (f *fakeProfiles) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfiles) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProfiles) set(p *model.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profiles == nil {
		f.profiles = map[string]*model.Profile{}
	}
	f.profiles[p.UserID] = p
}

func sessionFor(userID string) *model.Session {
	return &model.Session{
		AccessToken: "token-" + userID,
		UserID:      userID,
		Email:       userID + "@example.com",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func profileFor(userID string, role model.Role, status model.HiringStatus) *model.Profile {
	return &model.Profile{ID: "p-" + userID, UserID: userID, Role: role, HiringStatus: status}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const (
	testProfileTimeout = 50 * time.Millisecond
	testSafetyTimeout  = 80 * time.Millisecond
	eventually         = 2 * time.Second
	tick               = 5 * time.Millisecond
)

func newTestController(t *testing.T, a *fakeAuth, p *fakeProfiles) *Controller {
	t.Helper()
	loader := NewProfileLoader(p, testProfileTimeout, testLogger())
	c := NewController(a, loader, testSafetyTimeout, testLogger())
	t.Cleanup(c.Close)
	return c
}

func settle(t *testing.T, c *Controller) State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), eventually)
	defer cancel()
	require.NoError(t, c.WaitSettled(ctx))
	return c.Snapshot()
}

// =========================================================================
// BOOTSTRAP
// =========================================================================

func TestBootstrap_NoSession(t *testing.T) {
	c := newTestController(t, &fakeAuth{}, &fakeProfiles{})
	assert.Equal(t, Uninitialized, c.Snapshot().Phase)

	c.Start(context.Background())
	s := settle(t, c)

	assert.Equal(t, Unauthenticated, s.Phase)
	assert.False(t, s.Initializing)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
}

func TestBootstrap_SessionWithProfile(t *testing.T) {
	profiles := &fakeProfiles{}
	profiles.set(profileFor("u1", model.RoleClient, model.StatusJobPosting))
	c := newTestController(t, &fakeAuth{session: sessionFor("u1")}, profiles)

	c.Start(context.Background())
	s := settle(t, c)

	assert.Equal(t, AuthenticatedWithProfile, s.Phase)
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsAdmin)
	require.NotNil(t, s.Profile)
	assert.Equal(t, model.StatusJobPosting, s.Profile.HiringStatus)
	assert.Equal(t, "u1@example.com", s.User.Email)
}

func TestBootstrap_GetSessionErrorIsNoSession(t *testing.T) {
	c := newTestController(t, &fakeAuth{err: errors.New("network down")}, &fakeProfiles{})

	c.Start(context.Background())
	s := settle(t, c)

	assert.Equal(t, Unauthenticated, s.Phase)
	assert.False(t, s.Initializing)
}

// Every combination of session presence and profile outcome must end with
// initializing=false.
func TestBootstrap_AlwaysFinishesInitializing(t *testing.T) {
	outcomes := map[string]func(*fakeProfiles){
		"success": func(p *fakeProfiles) { p.set(profileFor("u1", model.RoleAdmin, model.StatusNotStarted)) },
		"timeout": func(p *fakeProfiles) { p.gate = make(chan struct{}) },
		"error":   func(p *fakeProfiles) { p.err = errors.New("boom") },
		"missing": func(p *fakeProfiles) { p.err = apperror.MissingRelation("user_profiles") },
	}
	sessions := map[string]*model.Session{"present": sessionFor("u1"), "absent": nil}

	for sName, session := range sessions {
		for oName, setup := range outcomes {
			t.Run(sName+"/"+oName, func(t *testing.T) {
				profiles := &fakeProfiles{}
				setup(profiles)
				if profiles.gate != nil {
					t.Cleanup(func() { close(profiles.gate) })
				}
				c := newTestController(t, &fakeAuth{session: session}, profiles)

				c.Start(context.Background())
				assert.Eventually(t, func() bool { return !c.Snapshot().Initializing }, eventually, tick)
				s := settle(t, c)
				assert.False(t, s.Loading)
				assert.Equal(t, session != nil, s.IsAuthenticated)
			})
		}
	}
}

func TestBootstrap_ProfileFailureLeavesNilProfile(t *testing.T) {
	profiles := &fakeProfiles{err: errors.New("boom")}
	c := newTestController(t, &fakeAuth{session: sessionFor("u1")}, profiles)

	c.Start(context.Background())
	s := settle(t, c)

	assert.Equal(t, AuthenticatedWithProfile, s.Phase)
	assert.True(t, s.IsAuthenticated)
	assert.Nil(t, s.Profile)
	assert.False(t, s.IsAdmin)
}

func TestStart_Idempotent(t *testing.T) {
	a := &fakeAuth{}
	c := newTestController(t, a, &fakeProfiles{})

	c.Start(context.Background())
	c.Start(context.Background())
	settle(t, c)

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Len(t, a.listeners, 1)
}

// =========================================================================
// SAFETY TIMEOUT
// =========================================================================

func TestSafetyTimeout_HungSessionCheck(t *testing.T) {
	a := &fakeAuth{block: make(chan struct{})}
	profiles := &fakeProfiles{}
	profiles.set(profileFor("u1", model.RoleClient, model.StatusNotStarted))
	c := newTestController(t, a, profiles)

	c.Start(context.Background())
	assert.True(t, c.Snapshot().Initializing)

	assert.Eventually(t, func() bool { return !c.Snapshot().Initializing }, eventually, tick)
	s := c.Snapshot()
	assert.Equal(t, Initializing, s.Phase)
	assert.False(t, s.Loading)

	// A late bootstrap result is still accepted.
	a.mu.Lock()
	a.session = sessionFor("u1")
	a.mu.Unlock()
	close(a.block)

	assert.Eventually(t, func() bool { return c.Snapshot().Phase == AuthenticatedWithProfile }, eventually, tick)
}

// =========================================================================
// CHANGE NOTIFICATIONS
// =========================================================================

func TestSignedOut_WinsOverInFlightFetch(t *testing.T) {
	a := &fakeAuth{session: sessionFor("u1")}
	profiles := &fakeProfiles{gate: make(chan struct{})}
	profiles.set(profileFor("u1", model.RoleAdmin, model.StatusPicked))
	loader := NewProfileLoader(profiles, time.Minute, testLogger())
	c := NewController(a, loader, time.Minute, testLogger())
	t.Cleanup(c.Close)

	c.Start(context.Background())
	assert.Eventually(t, func() bool {
		return c.Snapshot().Phase == AuthenticatedNoProfile && profiles.callCount() == 1
	}, eventually, tick)

	a.emit(backend.EventSignedOut, nil)
	close(profiles.gate)

	assert.Never(t, func() bool {
		s := c.Snapshot()
		return s.User != nil || s.Profile != nil || s.IsAuthenticated
	}, 150*time.Millisecond, tick)

	s := c.Snapshot()
	assert.Equal(t, Unauthenticated, s.Phase)
	assert.False(t, s.Loading)
	assert.False(t, s.IsAdmin)
}

func TestSignedOut_DuringInitializing(t *testing.T) {
	a := &fakeAuth{block: make(chan struct{}), session: sessionFor("u1")}
	c := newTestController(t, a, &fakeProfiles{})

	c.Start(context.Background())
	a.emit(backend.EventSignedOut, nil)
	close(a.block)

	s := settle(t, c)
	assert.Equal(t, Unauthenticated, s.Phase)
	assert.False(t, s.Initializing)

	// The bootstrap result that arrives afterwards is ignored.
	assert.Never(t, func() bool { return c.Snapshot().IsAuthenticated }, 100*time.Millisecond, tick)
}

func TestChangeEvent_BeforeBootstrapDrivesTransitionOnce(t *testing.T) {
	a := &fakeAuth{block: make(chan struct{}), session: sessionFor("u1")}
	profiles := &fakeProfiles{}
	profiles.set(profileFor("u1", model.RoleClient, model.StatusNotStarted))
	c := newTestController(t, a, profiles)

	c.Start(context.Background())
	a.emit(backend.EventInitialSession, sessionFor("u1"))
	s := settle(t, c)
	assert.Equal(t, AuthenticatedWithProfile, s.Phase)

	close(a.block)
	assert.Never(t, func() bool { return profiles.callCount() > 1 }, 100*time.Millisecond, tick)
}

func TestChangeEvent_SameUserIsNoop(t *testing.T) {
	a := &fakeAuth{session: sessionFor("u1")}
	profiles := &fakeProfiles{}
	profiles.set(profileFor("u1", model.RoleClient, model.StatusNotStarted))
	c := newTestController(t, a, profiles)
	c.Start(context.Background())
	settle(t, c)

	updated := c.Updated()
	a.emit(backend.EventSignedIn, sessionFor("u1"))
	a.emit(backend.EventTokenRefreshed, sessionFor("u1"))

	select {
	case <-updated:
		t.Fatal("state changed on a same-user event")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, profiles.callCount())
}

func TestChangeEvent_DifferentUserRefetches(t *testing.T) {
	a := &fakeAuth{session: sessionFor("u1")}
	profiles := &fakeProfiles{}
	profiles.set(profileFor("u1", model.RoleClient, model.StatusNotStarted))
	profiles.set(profileFor("u2", model.RoleAdmin, model.StatusNotStarted))
	c := newTestController(t, a, profiles)
	c.Start(context.Background())
	settle(t, c)

	a.emit(backend.EventSignedIn, sessionFor("u2"))
	s := settle(t, c)
	assert.Equal(t, "u2", s.User.ID)
	assert.True(t, s.IsAdmin)
}

func TestTokenRefreshed_DuringInitializingIsNoop(t *testing.T) {
	a := &fakeAuth{block: make(chan struct{})}
	t.Cleanup(func() { close(a.block) })
	c := newTestController(t, a, &fakeProfiles{})

	c.Start(context.Background())
	a.emit(backend.EventTokenRefreshed, sessionFor("u1"))

	s := c.Snapshot()
	assert.Equal(t, Initializing, s.Phase)
	assert.Nil(t, s.User)
}

// =========================================================================
// ACTIONS
// =========================================================================

func TestSignInAndOut(t *testing.T) {
	a := &fakeAuth{}
	profiles := &fakeProfiles{}
	profiles.set(profileFor("user-a@example.com", model.RoleAdmin, model.StatusNotStarted))
	c := newTestController(t, a, profiles)
	c.Start(context.Background())
	settle(t, c)

	require.NoError(t, c.SignIn(context.Background(), " a@example.com ", "pw"))
	s := settle(t, c)
	assert.True(t, s.IsAuthenticated)
	assert.True(t, s.IsAdmin)

	require.NoError(t, c.SignOut(context.Background()))
	s = c.Snapshot()
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.Profile)
}

func TestSignIn_ReturnsError(t *testing.T) {
	a := &fakeAuth{signErr: apperror.Unauthorized("Invalid login credentials")}
	c := newTestController(t, a, &fakeProfiles{})
	c.Start(context.Background())

	err := c.SignIn(context.Background(), "a@example.com", "bad")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestSignUp_ValidatesBeforeCallingBackend(t *testing.T) {
	a := &fakeAuth{}
	c := newTestController(t, a, &fakeProfiles{})
	c.Start(context.Background())

	err := c.SignUp(context.Background(), "a@example.com", "12345", "Ada")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, 0, a.signUps)
}

func TestRefreshProfile(t *testing.T) {
	a := &fakeAuth{session: sessionFor("u1")}
	profiles := &fakeProfiles{}
	profiles.set(profileFor("u1", model.RoleClient, model.StatusNotStarted))
	c := newTestController(t, a, profiles)
	c.Start(context.Background())
	settle(t, c)

	profiles.set(profileFor("u1", model.RoleClient, model.StatusVideosReady))
	c.RefreshProfile(context.Background())

	assert.Equal(t, model.StatusVideosReady, c.Snapshot().Profile.HiringStatus)
}

func TestRefreshProfile_NoUserIsNoop(t *testing.T) {
	profiles := &fakeProfiles{}
	c := newTestController(t, &fakeAuth{}, profiles)
	c.Start(context.Background())
	settle(t, c)

	c.RefreshProfile(context.Background())
	assert.Equal(t, 0, profiles.callCount())
}

func TestClose_Unsubscribes(t *testing.T) {
	a := &fakeAuth{}
	c := newTestController(t, a, &fakeProfiles{})
	c.Start(context.Background())
	settle(t, c)

	c.Close()
	c.Close()

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, 1, a.unsubs)
	assert.NoError(t, c.WaitSettled(context.Background()))
}

// =========================================================================
// isAdmin
// =========================================================================

func TestIsAdmin_OnlyForAdminRole(t *testing.T) {
	cases := []struct {
		name    string
		profile *model.Profile
		want    bool
	}{
		{"admin", profileFor("u1", model.RoleAdmin, model.StatusNotStarted), true},
		{"client", profileFor("u1", model.RoleClient, model.StatusNotStarted), false},
		{"no profile", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profiles := &fakeProfiles{}
			if tc.profile != nil {
				profiles.set(tc.profile)
			}
			c := newTestController(t, &fakeAuth{session: sessionFor("u1")}, profiles)
			c.Start(context.Background())

			assert.Equal(t, tc.want, settle(t, c).IsAdmin)
		})
	}
}
