//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rmcgowen/haven/internal/store"
)

// HistoryResetter is notified after the stored message history is cleared so
// in-memory session state can follow.
type HistoryResetter interface {
	Reset()
}

// Handler serves the personal data surface: action plan, profile, records,
// history and context.
type Handler struct {
	repo     store.Repository
	resetter HistoryResetter
}

// NewHandler creates a new Handler. The resetter may be nil.
func NewHandler(repo store.Repository, resetter HistoryResetter) *Handler {
	return &Handler{repo: repo, resetter: resetter}
}

// RegisterRoutes registers all /api routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/actions", func(r chi.Router) {
			r.Get("/", h.ListActions)
			r.Get("/next", h.NextAction)
			r.Put("/{id}/status", h.UpdateActionStatus)
		})

		r.Get("/profile", h.GetProfile)
		r.Put("/profile", h.UpdateProfile)

		r.Get("/messages", h.ListMessages)
		r.Delete("/messages", h.ClearMessages)
		r.Get("/context", h.GetContext)
		r.Delete("/context", h.ClearContext)

		h.registerRecordRoutes(r)
	})
}

// Health reports store connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		JSON(w, http.StatusOK, map[string]string{"status": "degraded", "store": err.Error()})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
