package handler

// Every JSON error from the API has the same shape:
//
//	{"error": "not_found", "message": "job posting not found with id abc123"}
//
// writeError is the only place a domain error becomes an HTTP status.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/session"
)

// maxBodyBytes caps JSON request bodies. A full candidate upload is the
// largest legitimate body.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable, e.g. "not_found"
	Message string `json:"message"`         // human-readable
	Field   string `json:"field,omitempty"` // set for validation errors
}

// writeJSON sets headers and status before the body; later header changes
// are ignored by net/http.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to a status code. Anything that is not an
// *apperror.AppError is a 500 with a generic message; the cause is never
// sent to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		message := appErr.Message
		if status == http.StatusInternalServerError {
			message = "An internal error occurred"
		}
		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: message,
			Field:   appErr.Field,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a JSON body into dst. Unknown fields are rejected so a
// typo in a field name is a 400, not a silent no-op.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// isJSON reports whether the request body is JSON rather than a form post.
func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// entryFrom returns the browser's session entry. The BrowserSession
// middleware always sets one, so a miss is a wiring bug.
func entryFrom(r *http.Request) (*session.Entry, error) {
	e, ok := session.EntryFromContext(r.Context())
	if !ok {
		return nil, errors.New("handler: no session entry on request")
	}
	return e, nil
}
