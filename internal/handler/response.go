package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sitecraft/backend/internal/service"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// decodeJSON reads a JSON body of at most maxJSONBody bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

// writeServiceError maps service errors to status codes. Unexpected errors are
// logged with op and reported as fallback without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op, fallback string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Code)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
	case service.IsMailFailure(err):
		slog.Error(op+" failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadGateway, "mail_failed")
	default:
		slog.Error(op+" failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
