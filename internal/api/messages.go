package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

// defaultMessageLimit bounds GET /api/messages when the client sends no
// limit.
const defaultMessageLimit = 100

// ListMessages handles GET /api/messages?limit=.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	msgs, err := h.repo.RecentMessages(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list messages", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	JSON(w, http.StatusOK, msgs)
}

// ClearMessages handles DELETE /api/messages. Only the message history is
// wiped; actions, context, profile and records stay.
func (h *Handler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.ClearMessages(r.Context()); err != nil {
		slog.Error("failed to clear messages", "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear messages")
		return
	}
	if h.resetter != nil {
		h.resetter.Reset()
	}
	JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// GetContext handles GET /api/context.
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	uc, err := h.repo.Context(r.Context())
	if err != nil {
		slog.Error("failed to load context", "error", err)
		Error(w, http.StatusInternalServerError, "failed to load context")
		return
	}
	JSON(w, http.StatusOK, uc)
}

// ClearContext handles DELETE /api/context.
func (h *Handler) ClearContext(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.ClearContext(r.Context()); err != nil {
		slog.Error("failed to clear context", "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear context")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
