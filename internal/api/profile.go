package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rmcgowen/haven/internal/domain"
)

// GetProfile handles GET /api/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Profile(r.Context())
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	JSON(w, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/profile, replacing the stored profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.repo.UpdateProfile(r.Context(), p); err != nil {
		slog.Error("failed to update profile", "error", err)
		Error(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	JSON(w, http.StatusOK, p)
}
