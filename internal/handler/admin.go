package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/middleware"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
	"github.com/sakif/asynchire/internal/service"
)

// AdminHandler is the admin dashboard API. The role check lives in
// AdminService, so these handlers only need a signed-in user.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

type uploadCandidate struct {
	Name     string                `json:"name"`
	Headline string                `json:"headline"`
	VideoURL string                `json:"video_url"`
	Notes    string                `json:"notes"`
	Status   model.CandidateStatus `json:"status"`
}

type uploadRequest struct {
	Candidates []uploadCandidate `json:"candidates"`
}

type statusRequest struct {
	HiringStatus model.HiringStatus `json:"hiring_status"`
}

// HTTP: GET /api/admin/clients?limit=20&offset=0
func (h *AdminHandler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())

	opts, err := listOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	clients, err := h.admin.ListClients(r.Context(), callerID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

// HTTP: GET /api/admin/stats
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())
	stats, err := h.admin.Stats(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleUploadCandidates replaces a posting's candidates.
//
// HTTP: PUT /api/admin/jobs/{id}/candidates
func (h *AdminHandler) HandleUploadCandidates(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())

	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	batch := make([]model.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		batch[i] = model.Candidate{
			Name:     c.Name,
			Headline: c.Headline,
			VideoURL: c.VideoURL,
			Notes:    c.Notes,
			Status:   c.Status,
		}
	}

	stored, err := h.admin.UploadCandidates(r.Context(), callerID, chi.URLParam(r, "id"), batch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": stored})
}

// HTTP: PUT /api/admin/profiles/{userID}/status
func (h *AdminHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.admin.SetHiringStatus(r.Context(), callerID, chi.URLParam(r, "userID"), req.HiringStatus); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, apperror.ValidationFailed("limit", "limit must be a number")
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, apperror.ValidationFailed("offset", "offset must be a number")
		}
		opts.Offset = n
	}
	return opts, nil
}

func defaultListOptions() repository.ListOptions {
	return repository.ListOptions{Limit: service.DefaultListLimit}
}
