package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/intake"
	"github.com/sakif/asynchire/internal/middleware"
	"github.com/sakif/asynchire/internal/service"
	"github.com/sakif/asynchire/internal/session"
)

// IntakeHandler drives the browser's intake wizard. Every route sits behind
// middleware.RequireUser.
type IntakeHandler struct {
	jobs      *service.JobService
	submitter *intake.Submitter
	logger    *slog.Logger
}

func NewIntakeHandler(jobs *service.JobService, submitter *intake.Submitter, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{jobs: jobs, submitter: submitter, logger: logger}
}

type intakeResponse struct {
	intake.View
	CanCreateNewJob bool `json:"can_create_new_job"`
}

type toggleRequest struct {
	Kind  string `json:"kind"` // "language" or "challenge"
	Value string `json:"value"`
}

// HTTP: GET /api/intake
func (h *IntakeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)
}

// HTTP: POST /api/intake/next
func (h *IntakeHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	e, err := wizardEntry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	e.Wizard.Next()
	h.respond(w, r)
}

// HTTP: POST /api/intake/back
func (h *IntakeHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	e, err := wizardEntry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	e.Wizard.Back()
	h.respond(w, r)
}

// HandleFields sets text answers, e.g. {"job_title": "Backend Engineer"}.
//
// HTTP: POST /api/intake/fields
func (h *IntakeHandler) HandleFields(w http.ResponseWriter, r *http.Request) {
	e, err := wizardEntry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var values map[string]string
	if err := decodeJSON(w, r, &values); err != nil {
		writeError(w, err)
		return
	}
	if err := e.Wizard.SetFields(values); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r)
}

// HTTP: POST /api/intake/toggle
func (h *IntakeHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	e, err := wizardEntry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	switch req.Kind {
	case "language":
		err = e.Wizard.ToggleLanguage(req.Value)
	case "challenge":
		err = e.Wizard.ToggleChallenge(req.Value)
	default:
		err = apperror.ValidationFailed("kind", `kind must be "language" or "challenge"`)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r)
}

// HandleSubmit turns the wizard into a job posting (and kickoff meeting),
// then refreshes the profile so the dashboard shows Job Posting and clears
// the draft.
//
// HTTP: POST /api/intake/submit
func (h *IntakeHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	e, err := wizardEntry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())

	job, err := h.submitter.Submit(r.Context(), userID, e.Wizard.Form())
	if err != nil {
		writeError(w, err)
		return
	}

	e.Controller.RefreshProfile(r.Context())
	e.Wizard.Reset()
	writeJSON(w, http.StatusCreated, job)
}

// wizardEntry returns the browser's entry with its wizard claimed by the
// signed-in user.
func wizardEntry(r *http.Request) (*session.Entry, error) {
	e, err := entryFrom(r)
	if err != nil {
		return nil, err
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	e.Wizard.Claim(userID)
	return e, nil
}

func (h *IntakeHandler) respond(w http.ResponseWriter, r *http.Request) {
	e, err := wizardEntry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	can, err := h.jobs.CanCreateNewJob(r.Context(), userID)
	if err != nil {
		h.logger.Error("checking for an active job", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intakeResponse{View: e.Wizard.View(), CanCreateNewJob: can})
}
