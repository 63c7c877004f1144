package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rmcgowen/haven/internal/catalog"
	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/store"
)

// ListActions handles GET /api/actions.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListActions(r.Context())
	if err != nil {
		slog.Error("failed to list actions", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list actions")
		return
	}
	JSON(w, http.StatusOK, items)
}

// NextAction handles GET /api/actions/next: the highest-priority pending
// item, or {"done":true} when everything is finished.
func (h *Handler) NextAction(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListActions(r.Context())
	if err != nil {
		slog.Error("failed to list actions", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list actions")
		return
	}
	next, ok := catalog.Next(items)
	if !ok {
		JSON(w, http.StatusOK, map[string]bool{"done": true})
		return
	}
	JSON(w, http.StatusOK, next)
}

type updateStatusRequest struct {
	Status domain.ActionStatus `json:"status"`
	Notes  string              `json:"notes,omitempty"`
}

// UpdateActionStatus handles PUT /api/actions/{id}/status.
func (h *Handler) UpdateActionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		Error(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.repo.UpdateActionStatus(r.Context(), id, req.Status, req.Notes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "action not found")
			return
		}
		slog.Error("failed to update action status", "id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to update action")
		return
	}

	items, err := h.repo.ListActions(r.Context())
	if err != nil {
		slog.Error("failed to list actions", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list actions")
		return
	}
	JSON(w, http.StatusOK, items)
}
