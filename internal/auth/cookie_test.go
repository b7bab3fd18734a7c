package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenCookie_RoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	SetTokenCookie(rec, "tok", time.Now().Add(time.Hour), false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	assert.Equal(t, "tok", TokenFromRequest(req))
}

func TestTokenFromRequest_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", TokenFromRequest(req))
}

func TestClearTokenCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearTokenCookie(rec, true)

	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, TokenCookie, cookies[0].Name)
		assert.True(t, cookies[0].MaxAge < 0)
		assert.True(t, cookies[0].Secure)
	}
}

func TestCheckStateCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil)
	req.AddCookie(&http.Cookie{Name: StateCookie, Value: "abc"})

	assert.True(t, CheckStateCookie(httptest.NewRecorder(), req, "abc"))
	assert.False(t, CheckStateCookie(httptest.NewRecorder(), req, "other"))
	assert.False(t, CheckStateCookie(httptest.NewRecorder(), req, ""))

	bare := httptest.NewRequest(http.MethodGet, "/auth/github/callback", nil)
	assert.False(t, CheckStateCookie(httptest.NewRecorder(), bare, "abc"))
}
