package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/asynchire/internal/backend"
	"github.com/sakif/asynchire/internal/intake"
)

// DefaultIdleTTL is how long a browser entry survives without requests.
const DefaultIdleTTL = 30 * time.Minute

// Entry is everything the server keeps for one browser.
type Entry struct {
	ID         string
	Auth       backend.AuthClient
	Controller *Controller
	Wizard     *intake.Wizard

	lastSeen time.Time
}

// ClientFactory makes the auth client for a new browser entry.
// persistedToken is the token cookie the browser sent, possibly "".
type ClientFactory func(persistedToken string) backend.AuthClient

// Registry maps browser session ids to entries, creating them on first use
// and sweeping the idle ones.
type Registry struct {
	newClient     ClientFactory
	loader        *ProfileLoader
	safetyTimeout time.Duration
	idleTTL       time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
}

func NewRegistry(newClient ClientFactory, loader *ProfileLoader, safetyTimeout, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		newClient:     newClient,
		loader:        loader,
		safetyTimeout: safetyTimeout,
		idleTTL:       idleTTL,
		logger:        logger,
		now:           time.Now,
		entries:       make(map[string]*Entry),
	}
}

// Get returns the entry for id, creating and starting a new one if needed.
func (r *Registry) Get(ctx context.Context, id, persistedToken string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.lastSeen = r.now()
		return e
	}

	client := r.newClient(persistedToken)
	e := &Entry{
		ID:         id,
		Auth:       client,
		Controller: NewController(client, r.loader, r.safetyTimeout, r.logger.With(slog.String("sid", shortID(id)))),
		Wizard:     intake.NewWizard(),
		lastSeen:   r.now(),
	}
	e.Controller.Start(ctx)
	r.entries[id] = e
	return e
}

// Len reports how many browsers have a live entry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep closes and removes every entry idle for longer than the TTL and
// returns how many it removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Entry
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range idle {
		e.Controller.Close()
	}
	if len(idle) > 0 {
		r.logger.Debug("swept idle sessions", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps every half TTL until ctx is done, then closes all entries.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every entry.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.Controller.Close()
	}
}

type entryKey struct{}

// WithEntry returns a copy of ctx carrying e.
func WithEntry(ctx context.Context, e *Entry) context.Context {
	return context.WithValue(ctx, entryKey{}, e)
}

// EntryFromContext returns the entry stored by WithEntry, if any.
func EntryFromContext(ctx context.Context) (*Entry, bool) {
	e, ok := ctx.Value(entryKey{}).(*Entry)
	return e, ok && e != nil
}

// shortID keeps log lines readable without printing the full session id.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
