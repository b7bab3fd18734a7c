package handler

import (
	"context"
	"net/http"

	"github.com/sakif/asynchire/internal/session"
	"github.com/sakif/asynchire/internal/view"
)

// sessionResponse is the controller state plus the page it selects.
type sessionResponse struct {
	session.State
	View view.Kind `json:"view"`
}

func newSessionResponse(s session.State) sessionResponse {
	return sessionResponse{State: s, View: view.Select(s)}
}

// HandleMe returns the browser's session state. It works signed out too:
// the landing page polls it while the session restores.
//
// HTTP: GET /api/me
func HandleMe(w http.ResponseWriter, r *http.Request) {
	e, err := entryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), settleTimeout)
	defer cancel()
	_ = e.Controller.WaitSettled(ctx)

	writeJSON(w, http.StatusOK, newSessionResponse(e.Controller.Snapshot()))
}

// HandleRefreshProfile reloads the signed-in user's profile.
//
// HTTP: POST /api/profile/refresh
func HandleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	e, err := entryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	e.Controller.RefreshProfile(r.Context())
	writeJSON(w, http.StatusOK, newSessionResponse(e.Controller.Snapshot()))
}
