package chat

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/rmcgowen/haven/internal/config"
	"github.com/rmcgowen/haven/internal/domain"
	"github.com/rmcgowen/haven/internal/provider"
	"github.com/rmcgowen/haven/internal/store"
)

// fakeClient yields its tokens, then its error if set. It records the last
// request so tests can inspect the prompt it was given.
type fakeClient struct {
	tokens  []string
	err     error
	lastReq provider.Request
}

func (f *fakeClient) Stream(ctx context.Context, req provider.Request) iter.Seq2[string, error] {
	f.lastReq = req
	return func(yield func(string, error) bool) {
		for _, tok := range f.tokens {
			if !yield(tok, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

func testConfig() *config.Config {
	return &config.Config{
		AnthropicAPIKey: "test-key",
		RequestTimeout:  5 * time.Second,
		ToolBudget:      3,
		RateLimit: config.RateLimitConfig{
			RequestsPerWindow: 100,
			WindowDuration:    time.Minute,
		},
	}
}

func newTestPipeline(t *testing.T, client provider.Client) (*Pipeline, *Session, store.Repository) {
	t.Helper()

	cfg := testConfig()
	registry := provider.Registry{
		provider.Claude: func(*config.Config) (provider.Client, error) {
			return client, nil
		},
	}
	resolver := provider.NewResolver(cfg, registry)
	repo := store.NewMemory()
	session := NewSession(repo)
	if err := session.Restore(context.Background(), 100); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	return NewPipeline(session, resolver, repo, nil, nil, cfg), session, repo
}

func drain(t *testing.T, stream *Stream) (string, error) {
	t.Helper()
	var b strings.Builder
	for tok, err := range stream.Tokens() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(tok)
	}
	return b.String(), nil
}

func TestSubmitEmptyMessage(t *testing.T) {
	t.Parallel()

	p, session, _ := newTestPipeline(t, &fakeClient{})
	before := len(session.Messages())

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := p.Submit(context.Background(), SubmitRequest{Text: text}); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Submit(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}

	if got := len(session.Messages()); got != before {
		t.Errorf("history changed on rejected submission: %d -> %d", before, got)
	}

	// A valid submission still works afterwards.
	stream, err := p.Submit(context.Background(), SubmitRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("Submit after rejection failed: %v", err)
	}
	if _, err := drain(t, stream); err != nil {
		t.Fatalf("drain failed: %v", err)
	}
}

func TestSubmitRejectsConcurrent(t *testing.T) {
	t.Parallel()

	p, _, _ := newTestPipeline(t, &fakeClient{tokens: []string{"hi"}})

	stream, err := p.Submit(context.Background(), SubmitRequest{Text: "first"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The stream has not been consumed, so the pipeline is still busy.
	if _, err := p.Submit(context.Background(), SubmitRequest{Text: "second"}); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Submit error = %v, want ErrBusy", err)
	}

	if _, err := drain(t, stream); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	// Idle again once the stream finished.
	stream, err = p.Submit(context.Background(), SubmitRequest{Text: "third"})
	if err != nil {
		t.Fatalf("Submit after drain failed: %v", err)
	}
	if _, err := drain(t, stream); err != nil {
		t.Fatalf("drain failed: %v", err)
	}
}

func TestCompletedTurnPersists(t *testing.T) {
	t.Parallel()

	p, _, repo := newTestPipeline(t, &fakeClient{tokens: []string{"Hello ", "Jennifer"}})

	stream, err := p.Submit(context.Background(), SubmitRequest{Text: "good morning"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	got, err := drain(t, stream)
	if err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if got != "Hello Jennifer" {
		t.Errorf("reply = %q, want %q", got, "Hello Jennifer")
	}

	msgs, err := repo.RecentMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != domain.RoleUser || msgs[0].Content != "good morning" {
		t.Errorf("first persisted message = %+v", msgs[0])
	}
	if msgs[1].Role != domain.RoleAssistant || msgs[1].Content != "Hello Jennifer" {
		t.Errorf("second persisted message = %+v", msgs[1])
	}
}

func TestTransportFailureDropsPartialAssistant(t *testing.T) {
	t.Parallel()

	p, session, repo := newTestPipeline(t, &fakeClient{
		tokens: []string{"partial ", "output"},
		err:    errors.New("connection reset"),
	})

	stream, err := p.Submit(context.Background(), SubmitRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	_, streamErr := drain(t, stream)

	var terr *TransportError
	if !errors.As(streamErr, &terr) {
		t.Fatalf("stream error = %v, want TransportError", streamErr)
	}
	if terr.Provider != provider.Claude {
		t.Errorf("TransportError.Provider = %s, want claude", terr.Provider)
	}

	// Only the user message survives; the partial assistant output is gone.
	msgs, err := repo.RecentMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != domain.RoleUser {
		t.Fatalf("persisted messages = %+v, want only the user message", msgs)
	}
	for _, m := range session.Messages() {
		if m.Role == domain.RoleAssistant && strings.Contains(m.Content, "partial") {
			t.Errorf("partial assistant message kept in session: %+v", m)
		}
	}

	// The pipeline recovered to idle.
	stream, err = p.Submit(context.Background(), SubmitRequest{Text: "retry"})
	if err != nil {
		t.Fatalf("Submit after failure = %v", err)
	}
	if _, err := drain(t, stream); err == nil {
		t.Log("retry streamed")
	}
}

func TestEmptyReplyIsNotAnError(t *testing.T) {
	t.Parallel()

	p, session, repo := newTestPipeline(t, &fakeClient{})

	stream, err := p.Submit(context.Background(), SubmitRequest{Text: "hello"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	got, streamErr := drain(t, stream)
	if streamErr != nil {
		t.Fatalf("stream error = %v, want nil", streamErr)
	}
	if got != "" {
		t.Errorf("reply = %q, want empty", got)
	}

	msgs, err := repo.RecentMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("persisted %d messages, want just the user message", len(msgs))
	}
	for _, m := range session.Messages() {
		if m.Role == domain.RoleAssistant && m.Content == "" {
			t.Error("empty assistant message kept in session")
		}
	}
}

func TestCompletionMergesExtractedContext(t *testing.T) {
	t.Parallel()

	p, _, repo := newTestPipeline(t, &fakeClient{tokens: []string{"ok"}})

	stream, err := p.Submit(context.Background(), SubmitRequest{
		Text: "I already called 211 about housing",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := drain(t, stream); err != nil {
		t.Fatalf("stream error: %v", err)
	}

	uc, err := repo.Context(context.Background())
	if err != nil {
		t.Fatalf("Context failed: %v", err)
	}
	if len(uc.ContactedResources) != 1 || !strings.HasPrefix(uc.ContactedResources[0], "211") {
		t.Errorf("ContactedResources = %v, want 211 entry", uc.ContactedResources)
	}
}

func TestResolveFailureSurfacesBeforeStreaming(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.AnthropicAPIKey = ""
	resolver := provider.NewResolver(cfg, provider.Registry{})
	repo := store.NewMemory()
	session := NewSession(repo)
	p := NewPipeline(session, resolver, repo, nil, nil, cfg)

	_, err := p.Submit(context.Background(), SubmitRequest{Text: "hello"})
	if !errors.Is(err, provider.ErrNoProvider) {
		t.Fatalf("Submit error = %v, want ErrNoProvider", err)
	}

	// Rejection leaves the pipeline idle for the next attempt.
	if _, err := p.Submit(context.Background(), SubmitRequest{Text: "again"}); !errors.Is(err, provider.ErrNoProvider) {
		t.Fatalf("second Submit error = %v, want ErrNoProvider", err)
	}
}
