package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/rmcgowen/haven/internal/provider"
)

// wsFrame is the WebSocket chat frame in both directions.
//
// Client -> server: {"type":"submit","content":...,"model":...,"location":...}
// and {"type":"ping"}. Server -> client: "token" frames while streaming,
// then one "done" or "error" frame.
type wsFrame struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	Model    string `json:"model,omitempty"`
	Location string `json:"location,omitempty"`
	Provider string `json:"provider,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WSHandler serves chat over a WebSocket for clients that keep one
// long-lived connection instead of per-request POSTs.
type WSHandler struct {
	pipeline      *Pipeline
	allowedOrigin string
	isDev         bool
}

// NewWSHandler creates the WebSocket chat handler.
func NewWSHandler(pipeline *Pipeline, allowedOrigin string, isDev bool) *WSHandler {
	return &WSHandler{
		pipeline:      pipeline,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept chat websocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("failed to close chat websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("chat websocket closed by client")
			} else if ctx.Err() == nil {
				slog.Warn("chat websocket read error", "error", err)
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			h.writeFrame(ctx, ws, wsFrame{Type: "error", Error: "invalid frame"})
			continue
		}

		switch frame.Type {
		case "submit":
			h.handleSubmit(ctx, ws, frame)
		case "ping":
			h.writeFrame(ctx, ws, wsFrame{Type: "pong"})
		default:
			h.writeFrame(ctx, ws, wsFrame{Type: "error", Error: "unknown frame type"})
		}
	}
}

func (h *WSHandler) handleSubmit(ctx context.Context, ws *websocket.Conn, frame wsFrame) {
	providerID, err := provider.ParseID(frame.Model)
	if err != nil {
		h.writeFrame(ctx, ws, wsFrame{Type: "error", Error: err.Error()})
		return
	}

	stream, err := h.pipeline.Submit(ctx, SubmitRequest{
		Text:     frame.Content,
		Provider: providerID,
		Location: frame.Location,
	})
	if err != nil {
		h.writeFrame(ctx, ws, wsFrame{Type: "error", Error: err.Error()})
		return
	}

	for tok, err := range stream.Tokens() {
		if err != nil {
			h.writeFrame(ctx, ws, wsFrame{Type: "error", Error: err.Error()})
			return
		}
		if !h.writeFrame(ctx, ws, wsFrame{Type: "token", Content: tok}) {
			return
		}
	}
	h.writeFrame(ctx, ws, wsFrame{Type: "done", Provider: string(stream.Provider)})
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("chat websocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WSHandler) writeFrame(ctx context.Context, ws *websocket.Conn, frame wsFrame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Warn("failed to marshal websocket frame", "error", err)
		return false
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		slog.Debug("chat websocket write failed", "error", err)
		return false
	}
	return true
}
