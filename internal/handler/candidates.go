package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/asynchire/internal/middleware"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/service"
)

// CandidateHandler serves the client dashboard's job and candidate data.
type CandidateHandler struct {
	jobs       *service.JobService
	candidates *service.CandidateService
	logger     *slog.Logger
}

func NewCandidateHandler(jobs *service.JobService, candidates *service.CandidateService, logger *slog.Logger) *CandidateHandler {
	return &CandidateHandler{jobs: jobs, candidates: candidates, logger: logger}
}

type jobsResponse struct {
	Jobs            []model.JobPosting `json:"jobs"`
	CanCreateNewJob bool               `json:"can_create_new_job"`
}

type candidatesResponse struct {
	Job        *model.JobPosting `json:"job"`
	Candidates []model.Candidate `json:"candidates"`
}

// HTTP: GET /api/jobs
func (h *CandidateHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	jobs, err := h.jobs.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobsResponse{Jobs: jobs, CanCreateNewJob: model.CanCreateNewJob(jobs)})
}

// HandleListCandidates returns the candidates of the user's newest posting.
//
// HTTP: GET /api/candidates
func (h *CandidateHandler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	job, candidates, err := h.candidates.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}
	writeJSON(w, http.StatusOK, candidatesResponse{Job: job, Candidates: candidates})
}

// HandleSelect picks a candidate and refreshes the profile, which is now
// Picked.
//
// HTTP: POST /api/candidates/{id}/select
func (h *CandidateHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	e, err := entryFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())

	candidate, err := h.candidates.Select(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	e.Controller.RefreshProfile(r.Context())
	writeJSON(w, http.StatusOK, candidate)
}
