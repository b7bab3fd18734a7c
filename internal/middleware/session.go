package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sakif/asynchire/internal/auth"
	"github.com/sakif/asynchire/internal/session"
)

// SessionCookie names the browser session id cookie.
const SessionCookie = "sid"

type contextKey string

const userIDKey contextKey = "userID"

// BrowserSession attaches the browser's session entry to the request
// context, issuing a new "sid" cookie when the browser has none. A fresh
// entry is seeded from the token cookie so a restarted server or a swept
// entry picks the signed-in user back up.
//
// Every request re-checks the auth session before anything reads the
// controller: an expired session signs the browser out and a renewed token
// is written back to the token cookie.
func BrowserSession(registry *session.Registry, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := sessionID(r)
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			token := auth.TokenFromRequest(r)
			entry := registry.Get(r.Context(), sid, token)
			revalidate(w, r, entry, token, secure)
			next.ServeHTTP(w, r.WithContext(session.WithEntry(r.Context(), entry)))
		})
	}
}

func revalidate(w http.ResponseWriter, r *http.Request, entry *session.Entry, token string, secure bool) {
	current, err := entry.Auth.GetSession(r.Context())
	if err != nil {
		return
	}
	switch {
	case current == nil && token != "":
		auth.ClearTokenCookie(w, secure)
	case current != nil && current.AccessToken != token:
		auth.SetTokenCookie(w, current.AccessToken, current.ExpiresAt, secure)
	}
}

// sessionID returns the sid cookie if it holds a well-formed UUID.
func sessionID(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// RequireUser rejects the request with 401 unless the browser's session has
// a signed-in user. It waits for the session to settle first, so a request
// that races the startup restore is not turned away.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry, ok := session.EntryFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
			return
		}
		if err := entry.Controller.WaitSettled(r.Context()); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "unavailable", "session is still loading")
			return
		}

		state := entry.Controller.Snapshot()
		if !state.IsAuthenticated || state.User == nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, state.User.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the user id stored by RequireUser.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
