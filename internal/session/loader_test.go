package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
)

func TestProfileLoader_Success(t *testing.T) {
	profiles := &fakeProfiles{}
	profiles.set(profileFor("u1", model.RoleClient, model.StatusInterviewing))
	l := NewProfileLoader(profiles, time.Second, testLogger())

	p := l.Load(context.Background(), "u1")
	if assert.NotNil(t, p) {
		assert.Equal(t, model.StatusInterviewing, p.HiringStatus)
	}
}

func TestProfileLoader_FailsOpen(t *testing.T) {
	cases := map[string]error{
		"missing relation": apperror.MissingRelation("user_profiles"),
		"not found":        apperror.NotFound("profile", "u1"),
		"other":            errors.New("connection reset"),
	}
	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			l := NewProfileLoader(&fakeProfiles{err: err}, time.Second, testLogger())
			assert.Nil(t, l.Load(context.Background(), "u1"))
		})
	}
}

// A source that ignores ctx must not hold the caller past the timeout.
func TestProfileLoader_HungSourceResolvesByDeadline(t *testing.T) {
	profiles := &fakeProfiles{gate: make(chan struct{})}
	t.Cleanup(func() { close(profiles.gate) })
	l := NewProfileLoader(profiles, testProfileTimeout, testLogger())

	start := time.Now()
	p := l.Load(context.Background(), "u1")
	elapsed := time.Since(start)

	assert.Nil(t, p)
	assert.Less(t, elapsed, testProfileTimeout+500*time.Millisecond)
}

func TestProfileLoader_DefaultTimeout(t *testing.T) {
	l := NewProfileLoader(&fakeProfiles{}, 0, testLogger())
	assert.Equal(t, DefaultProfileTimeout, l.timeout)
}

func TestValidateSignUp(t *testing.T) {
	cases := []struct {
		name                     string
		email, password, confirm string
		field                    string
	}{
		{"ok", "a@example.com", "secret1", "secret1", ""},
		{"missing email", "  ", "secret1", "secret1", "email"},
		{"short password", "a@example.com", "12345", "12345", "password"},
		{"mismatch", "a@example.com", "secret1", "secret2", "confirm_password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSignUp(tc.email, tc.password, tc.confirm)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperror.AppError
			if assert.True(t, errors.As(err, &appErr)) {
				assert.Equal(t, tc.field, appErr.Field)
				assert.True(t, errors.Is(err, apperror.ErrValidation))
			}
		})
	}
}
