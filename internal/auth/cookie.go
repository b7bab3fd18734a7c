package auth

import (
	"net/http"
	"time"
)

// Cookie names. "token" carries the session access token so a browser whose
// in-memory session entry was swept can be restored from it; "oauth_state"
// carries the CSRF state of a pending GitHub sign-in.
const (
	TokenCookie = "token"
	StateCookie = "oauth_state"
)

// SetTokenCookie stores a session token in an HttpOnly cookie that expires
// with the token.
func SetTokenCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie removes the token cookie.
func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the token cookie value, or "" when absent.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// SetStateCookie stores the OAuth state for ten minutes, long enough to
// finish the GitHub round trip.
func SetStateCookie(w http.ResponseWriter, state string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth/github",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CheckStateCookie reports whether the callback's state matches the cookie
// and clears the cookie either way.
func CheckStateCookie(w http.ResponseWriter, r *http.Request, state string) bool {
	c, err := r.Cookie(StateCookie)
	http.SetCookie(w, &http.Cookie{Name: StateCookie, Path: "/auth/github", MaxAge: -1})
	return err == nil && state != "" && c.Value == state
}
