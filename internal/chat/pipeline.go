package chat

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rmcgowen/haven/internal/config"
	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/extract"
	"github.com/rmcgowen/haven/internal/provider"
	"github.com/rmcgowen/haven/internal/store"
)

// finalizeTimeout bounds the post-stream store writes so a cancelled request
// context cannot abort them.
const finalizeTimeout = 5 * time.Second

type state int

const (
	stateIdle state = iota
	stateSubmitting
	stateStreaming
)

// SubmitRequest is one user submission. ClientContext carries context the
// client already holds, rendered as prompt text; it joins the system prompt
// alongside whatever the store remembers.
type SubmitRequest struct {
	Text          string
	Provider      provider.ID
	Location      string
	ClientContext string
}

// Stream is the token stream for one accepted submission. Tokens must be
// consumed; the pipeline returns to idle when the iterator finishes or the
// consumer stops early.
type Stream struct {
	// Provider is the backend that actually serves this request, after
	// fallback.
	Provider provider.ID

	tokens iter.Seq2[string, error]
}

// Tokens yields response tokens in order. A non-nil error ends the stream;
// by then any partial assistant output has been discarded.
func (s *Stream) Tokens() iter.Seq2[string, error] { return s.tokens }

// Pipeline runs chat requests one at a time: Idle -> Submitting ->
// Streaming -> Idle. Concurrent submissions are rejected, not queued.
type Pipeline struct {
	session    *Session
	resolver   *provider.Resolver
	repo       store.Repository
	toolset    provider.Toolset
	log        ConversationLogger
	toolBudget int
	timeout    time.Duration

	mu    sync.Mutex
	state state
}

// NewPipeline wires the pipeline. The toolset and conversation logger are
// optional.
func NewPipeline(session *Session, resolver *provider.Resolver, repo store.Repository, toolset provider.Toolset, log ConversationLogger, cfg *config.Config) *Pipeline {
	if log == nil {
		log = noopConversationLogger{}
	}
	return &Pipeline{
		session:    session,
		resolver:   resolver,
		repo:       repo,
		toolset:    toolset,
		log:        log,
		toolBudget: cfg.ToolBudget,
		timeout:    cfg.RequestTimeout,
	}
}

// Submit validates and starts one chat turn. Empty submissions fail with
// ErrEmptyMessage before any state changes; a submission while another
// request is in flight fails with ErrBusy.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*Stream, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	p.mu.Lock()
	if p.state != stateIdle {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	p.state = stateSubmitting
	p.mu.Unlock()

	client, id, err := p.resolver.Resolve(req.Provider)
	if err != nil {
		p.setState(stateIdle)
		return nil, err
	}

	// Optimistic append: the user message enters history before the first
	// token arrives and survives a failed stream.
	userMsg := p.session.Append(domain.RoleUser, text)
	p.session.Flush(ctx)
	p.logMessage("outbound", "user_message", userMsg.Content, map[string]any{
		"provider": string(id),
	})

	preq := provider.Request{
		System:     p.systemPrompt(ctx, req.ClientContext, req.Location),
		Messages:   p.session.Messages(),
		Toolset:    p.toolset,
		ToolBudget: p.toolBudget,
	}

	p.setState(stateStreaming)

	return &Stream{
		Provider: id,
		tokens:   p.run(ctx, client, id, preq, text),
	}, nil
}

func (p *Pipeline) run(ctx context.Context, client provider.Client, id provider.ID, preq provider.Request, userText string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer p.setState(stateIdle)

		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		var reply strings.Builder
		chunks := 0
		for tok, err := range client.Stream(ctx, preq) {
			if err != nil {
				slog.Error("chat stream failed", "provider", id, "error", err)
				p.logAssistant(id, reply.String(), chunks, err)
				yield("", &TransportError{Provider: id, Err: err})
				return
			}
			chunks++
			reply.WriteString(tok)
			if !yield(tok, nil) {
				// Consumer disconnected mid-stream. The partial reply is
				// discarded, same as a transport failure.
				p.logAssistant(id, reply.String(), chunks, context.Canceled)
				return
			}
		}

		p.finalize(id, reply.String(), chunks, userText)
	}
}

// finalize commits a completed turn: the assistant message joins and flushes
// to history, and extracted context is merged. Store failures degrade to
// logs; the turn already succeeded from the user's point of view.
func (p *Pipeline) finalize(id provider.ID, reply string, chunks int, userText string) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if reply != "" {
		p.session.Append(domain.RoleAssistant, reply)
		p.session.Flush(ctx)
	}

	if update := extract.Extract(userText); !update.IsZero() {
		if _, err := p.repo.MergeContext(ctx, update); err != nil {
			slog.Warn("failed to merge extracted context", "error", err)
		}
	}

	p.logAssistant(id, reply, chunks, nil)
}

// systemPrompt assembles the prompt from stored profile and context. Either
// read failing falls back to zero values; prompting still works without the
// store.
func (p *Pipeline) systemPrompt(ctx context.Context, clientContext, location string) string {
	profile, err := p.repo.Profile(ctx)
	if err != nil {
		slog.Warn("failed to load profile for prompt", "error", err)
	}
	uc, err := p.repo.Context(ctx)
	if err != nil {
		slog.Warn("failed to load user context for prompt", "error", err)
	}
	return buildSystemPrompt(profile, uc, clientContext, location)
}

func (p *Pipeline) setState(s state) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pipeline) logAssistant(id provider.ID, content string, chunks int, streamErr error) {
	meta := map[string]any{
		"provider":      string(id),
		"stream_chunks": chunks,
		"partial":       streamErr != nil,
	}
	if streamErr != nil {
		meta["stream_error"] = streamErr.Error()
	}
	p.logMessage("inbound", "assistant_message", content, meta)
}

func (p *Pipeline) logMessage(direction, eventType, content string, meta map[string]any) {
	p.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	})
}
