package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rmcgowen/haven/internal/api"
	"github.com/rmcgowen/haven/internal/config"
	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/provider"
)

// maxRequestBodySize caps the chat request body (1MB).
const maxRequestBodySize = 1 << 20

// chatRequest is the POST /chat body. The client sends its full history;
// the last user message is the submission and the rest feeds replay
// reconciliation.
type chatRequest struct {
	Messages    []domain.Message `json:"messages"`
	Model       string           `json:"model,omitempty"`
	UserContext string           `json:"userContext,omitempty"`
	Location    *geoLocation     `json:"location,omitempty"`
}

// geoLocation is the device coordinates the client may attach to a
// submission.
type geoLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (g *geoLocation) promptText() string {
	if g == nil {
		return ""
	}
	return fmt.Sprintf("lat %.4f, lng %.4f", g.Lat, g.Lng)
}

// Handler serves the chat endpoints.
type Handler struct {
	pipeline    *Pipeline
	resolver    *provider.Resolver
	session     *Session
	rateLimiter *RateLimiter
}

// NewHandler wires the chat HTTP surface.
func NewHandler(pipeline *Pipeline, resolver *provider.Resolver, session *Session, cfg *config.Config) *Handler {
	return &Handler{
		pipeline:    pipeline,
		resolver:    resolver,
		session:     session,
		rateLimiter: NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration),
	}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Get("/chat", h.HandleProviders)
}

// HandleProviders handles GET /chat: the provider availability probe.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	def, err := h.resolver.Default()
	if err != nil {
		def = ""
	}
	api.JSON(w, http.StatusOK, map[string]any{
		"providers": h.resolver.Availability(),
		"default":   def,
	})
}

// HandleChat handles POST /chat. The response body is plain text streamed
// token by token; an empty body before EOF is an empty reply, not an error.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(clientKey(r)) {
		api.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	providerID, err := provider.ParseID(req.Model)
	if err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	text, ok := latestUserText(req.Messages)
	if !ok {
		api.Error(w, http.StatusBadRequest, "messages must end with a user message")
		return
	}

	// Reconcile everything before the submission so resent history is not
	// double-counted.
	h.session.Sync(req.Messages[:len(req.Messages)-1])

	stream, err := h.pipeline.Submit(r.Context(), SubmitRequest{
		Text:          text,
		Provider:      providerID,
		Location:      req.Location.promptText(),
		ClientContext: req.UserContext,
	})
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		api.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Provider", string(stream.Provider))
	w.WriteHeader(http.StatusOK)

	wrote := false
	for tok, err := range stream.Tokens() {
		if err != nil {
			// Headers are gone; all we can do is log and cut the stream.
			slog.Error("chat stream aborted", "provider", stream.Provider, "error", err, "partial", wrote)
			return
		}
		if _, err := w.Write([]byte(tok)); err != nil {
			slog.Warn("chat client write failed", "error", err)
			return
		}
		wrote = true
		flusher.Flush()
	}
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyMessage):
		api.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrBusy):
		api.Error(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, provider.ErrNoProvider):
		api.Error(w, http.StatusServiceUnavailable, provider.ErrNoProvider.Error())
	default:
		api.Error(w, http.StatusInternalServerError, "failed to start chat request")
	}
}

// latestUserText returns the content of the trailing user message.
func latestUserText(msgs []domain.Message) (string, bool) {
	if len(msgs) == 0 {
		return "", false
	}
	last := msgs[len(msgs)-1]
	if last.Role != domain.RoleUser {
		return "", false
	}
	return last.Content, true
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
