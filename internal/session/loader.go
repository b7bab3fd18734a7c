package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/backend"
	"github.com/sakif/asynchire/internal/model"
)

// DefaultProfileTimeout bounds one profile fetch.
const DefaultProfileTimeout = 6 * time.Second

// ProfileLoader fetches a user's profile with a deadline and fails open:
// every failure comes back as a nil profile.
type ProfileLoader struct {
	source  backend.ProfileSource
	timeout time.Duration
	logger  *slog.Logger
}

func NewProfileLoader(source backend.ProfileSource, timeout time.Duration, logger *slog.Logger) *ProfileLoader {
	if timeout <= 0 {
		timeout = DefaultProfileTimeout
	}
	return &ProfileLoader{source: source, timeout: timeout, logger: logger}
}

type loadResult struct {
	profile *model.Profile
	err     error
}

// Load returns the profile for userID, or nil on timeout, on a missing
// profiles table, or on any other error.
//
// The fetch runs in its own goroutine, so a source that ignores ctx still
// cannot hold the caller past the timeout. The abandoned goroutine finishes
// into a buffered channel nobody reads.
func (l *ProfileLoader) Load(ctx context.Context, userID string) *model.Profile {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	done := make(chan loadResult, 1)
	go func() {
		p, err := l.source.GetProfileByUserID(ctx, userID)
		done <- loadResult{profile: p, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.profile
		}
		switch {
		case errors.Is(r.err, apperror.ErrMissingRelation):
			l.logger.Warn("profiles table missing, continuing without profile",
				slog.String("userID", userID),
			)
		case errors.Is(r.err, apperror.ErrNotFound):
			l.logger.Info("no profile for user", slog.String("userID", userID))
		default:
			l.logger.Error("fetching profile",
				slog.String("userID", userID),
				slog.String("error", r.err.Error()),
			)
		}
		return nil
	case <-ctx.Done():
		l.logger.Warn("profile fetch timed out",
			slog.String("userID", userID),
			slog.Duration("timeout", l.timeout),
		)
		return nil
	}
}
