package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/service"
)

// ContentHandler serves the public and admin endpoints of one catalog type.
type ContentHandler[T any] struct {
	svc service.ContentService[T]
	// name is the plural resource name and the list envelope key, e.g. "services".
	name   string
	decode func(data []byte) (*T, error)
}

// NewContentHandler creates a ContentHandler that decodes request bodies
// straight into T.
func NewContentHandler[T any](svc service.ContentService[T], name string) *ContentHandler[T] {
	return &ContentHandler[T]{svc: svc, name: name, decode: decodeInto[T]}
}

// WithDecoder replaces the request body decoder.
func (h *ContentHandler[T]) WithDecoder(decode func(data []byte) (*T, error)) *ContentHandler[T] {
	h.decode = decode
	return h
}

func decodeInto[T any](data []byte) (*T, error) {
	item := new(T)
	if err := json.Unmarshal(data, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (h *ContentHandler[T]) list(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	items, err := h.svc.List(r.Context(), model.ContentListOptions{
		Category:        r.URL.Query().Get("category"),
		IncludeInactive: includeInactive,
	})
	if err != nil {
		writeServiceError(w, r, err, "list "+h.name, "list_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]*T{h.name: items})
}

// List handles GET /api/<name>?category=. Only active items are returned.
func (h *ContentHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// AdminList handles GET /api/admin/<name>, including inactive items.
func (h *ContentHandler[T]) AdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// Get handles GET /api/<name>/{id}.
func (h *ContentHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetPublic(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "get "+h.name, "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// GetBySlug handles GET /api/<name>/{slug}.
func (h *ContentHandler[T]) GetBySlug(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, r, err, "get "+h.name, "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// AdminGet handles GET /api/admin/<name>/{id}.
func (h *ContentHandler[T]) AdminGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "get "+h.name, "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ContentHandler[T]) readItem(w http.ResponseWriter, r *http.Request) (*T, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return nil, false
	}
	item, err := h.decode(data)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Code)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid_json")
		return nil, false
	}
	return item, true
}

// Create handles POST /api/admin/<name>.
func (h *ContentHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	item, ok := h.readItem(w, r)
	if !ok {
		return
	}
	if err := h.svc.Create(r.Context(), item); err != nil {
		writeServiceError(w, r, err, "create "+h.name, "create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Update handles PUT /api/admin/<name>/{id}.
func (h *ContentHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.readItem(w, r)
	if !ok {
		return
	}
	if err := h.svc.Update(r.Context(), r.PathValue("id"), item); err != nil {
		writeServiceError(w, r, err, "update "+h.name, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/admin/<name>/{id}.
func (h *ContentHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "delete "+h.name, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// Reorder handles PUT /api/admin/<name>/reorder.
func (h *ContentHandler[T]) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Reorder(r.Context(), req.IDs); err != nil {
		writeServiceError(w, r, err, "reorder "+h.name, "reorder_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ---------------------------------------------------------------------------
// projects
// ---------------------------------------------------------------------------

// parseDate は "YYYY-MM-DD" または RFC3339 の文字列を *time.Time にパースする。
// 空文字の場合は nil を返す。
func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d, true
	}
	return nil, false
}

// DecodeProject accepts completed_on as a plain date.
func DecodeProject(data []byte) (*model.Project, error) {
	type projectAlias model.Project
	var req struct {
		projectAlias
		CompletedOn *string `json:"completed_on"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	p := model.Project(req.projectAlias)
	if req.CompletedOn != nil {
		d, ok := parseDate(*req.CompletedOn)
		if !ok {
			return nil, &service.ValidationError{Field: "completed_on", Code: "completed_on_invalid"}
		}
		p.CompletedOn = d
	}
	return &p, nil
}
