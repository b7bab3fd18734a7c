package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/auth"
	"github.com/sakif/asynchire/internal/session"
)

// settleTimeout bounds how long a request waits for its session to finish
// loading before answering with whatever state it has.
const settleTimeout = 3 * time.Second

// GitHubAuthorizer builds the GitHub consent URL. *auth.GitHubProvider
// satisfies it.
type GitHubAuthorizer interface {
	AuthURL(state string) string
}

// AuthHandler serves sign-in, sign-up and sign-out for both the landing
// page forms and JSON clients.
//
// Form posts are answered with a 303 back to "/" (carrying ?error= on
// failure); JSON requests get the session state or an ErrorResponse.
type AuthHandler struct {
	github GitHubAuthorizer // nil when GitHub sign-in is off
	secure bool
	logger *slog.Logger
}

func NewAuthHandler(github GitHubAuthorizer, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{github: github, secure: secureCookies, logger: logger}
}

type credentials struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
}

func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials
	if isJSON(r) {
		err := decodeJSON(w, r, &c)
		return c, err
	}
	if err := r.ParseForm(); err != nil {
		return c, apperror.ValidationFailed("body", "invalid form body")
	}
	c.Email = r.PostFormValue("email")
	c.Password = r.PostFormValue("password")
	c.ConfirmPassword = r.PostFormValue("confirm_password")
	c.FullName = r.PostFormValue("full_name")
	return c, nil
}

// HandleSignIn signs in with email and password.
//
// HTTP: POST /auth/signin
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	e, err := entryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := readCredentials(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		h.fail(w, r, apperror.ValidationFailed("email", "Email and password are required"))
		return
	}

	if err := e.Controller.SignIn(r.Context(), c.Email, c.Password); err != nil {
		h.fail(w, r, err)
		return
	}
	h.succeed(w, r, e)
}

// HandleSignUp registers a new client account and signs it in.
//
// HTTP: POST /auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	e, err := entryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := readCredentials(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := session.ValidateSignUp(c.Email, c.Password, c.ConfirmPassword); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := e.Controller.SignUp(r.Context(), c.Email, c.Password, strings.TrimSpace(c.FullName)); err != nil {
		h.fail(w, r, err)
		return
	}
	h.succeed(w, r, e)
}

// HandleSignOut ends the session. The token cookie is cleared and the
// intake draft dropped even if the backend call fails.
//
// HTTP: POST /auth/signout
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	e, err := entryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := e.Controller.SignOut(r.Context()); err != nil {
		h.logger.Warn("sign-out returned an error", slog.String("error", err.Error()))
	}
	auth.ClearTokenCookie(w, h.secure)
	e.Wizard.Reset()

	if isJSON(r) {
		writeJSON(w, http.StatusOK, newSessionResponse(e.Controller.Snapshot()))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGitHubLogin redirects to GitHub with a fresh CSRF state kept in a
// short-lived cookie.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeError(w, apperror.NotFound("sign-in provider", "github"))
		return
	}
	state := xid.New().String()
	auth.SetStateCookie(w, state, h.secure)
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes a GitHub sign-in.
//
// HTTP: GET /auth/github/callback?code=...&state=...
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if !auth.CheckStateCookie(w, r, q.Get("state")) {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}
	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		redirectWithError(w, r, "GitHub sign-in was cancelled")
		return
	}
	code := q.Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	e, err := entryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := e.Controller.SignInWithGitHub(r.Context(), code); err != nil {
		redirectWithError(w, r, userMessage(err))
		return
	}
	h.persistToken(w, r, e)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// succeed stores the new token cookie, waits for the profile to load and
// answers in the request's format.
func (h *AuthHandler) succeed(w http.ResponseWriter, r *http.Request, e *session.Entry) {
	h.persistToken(w, r, e)

	ctx, cancel := context.WithTimeout(r.Context(), settleTimeout)
	defer cancel()
	_ = e.Controller.WaitSettled(ctx)

	if isJSON(r) {
		writeJSON(w, http.StatusOK, newSessionResponse(e.Controller.Snapshot()))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) persistToken(w http.ResponseWriter, r *http.Request, e *session.Entry) {
	s, err := e.Auth.GetSession(r.Context())
	if err != nil || s == nil {
		h.logger.Warn("no session to persist after sign-in")
		return
	}
	auth.SetTokenCookie(w, s.AccessToken, s.ExpiresAt, h.secure)
}

func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if isJSON(r) {
		writeError(w, err)
		return
	}
	redirectWithError(w, r, userMessage(err))
}

// userMessage is the text shown on the landing page for err.
func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrMissingRelation) {
		return appErr.Message
	}
	return "Something went wrong, please try again"
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
