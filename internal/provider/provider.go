// Package provider selects and drives LLM backends. Backends are registered
// in a data-driven registry so adding one is a map entry, not a new branch.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/rmcgowen/haven/internal/config"
	"github.com/rmcgowen/haven/internal/domain"
)

// ErrNoProvider indicates no backend is configured. This is an operator
// problem, not a user problem, and is surfaced verbatim.
var ErrNoProvider = errors.New("no provider configured")

// ID identifies one LLM backend.
type ID string

const (
	Claude ID = "claude"
	Gemini ID = "gemini"
	Groq   ID = "groq"
	Ollama ID = "ollama"
)

// priorityOrder is the fallback order when the caller expresses no choice.
var priorityOrder = []ID{Claude, Gemini, Groq, Ollama}

// ParseID validates a client-supplied provider id. Empty input is valid and
// means "no preference".
func ParseID(s string) (ID, error) {
	switch ID(s) {
	case "", Claude, Gemini, Groq, Ollama:
		return ID(s), nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// Request is one chat completion request.
type Request struct {
	// System is the system prompt, already augmented with user context.
	System string
	// Messages is the full ordered conversation history, last message from
	// the user.
	Messages []domain.Message
	// Toolset optionally exposes tools to backends that support them.
	Toolset Toolset
	// ToolBudget caps follow-up tool rounds before the final answer is
	// forced.
	ToolBudget int
}

// Client streams one completion. The iterator yields content tokens; a
// non-nil error terminates the stream.
type Client interface {
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
}

// Tool describes one callable tool.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON-schema object describing the arguments.
	Parameters map[string]any
}

// Toolset exposes tools to a backend.
type Toolset interface {
	Tools() []Tool
	Call(ctx context.Context, name string, args json.RawMessage) (string, error)
}

// Factory builds a Client from configuration.
type Factory func(cfg *config.Config) (Client, error)

// Registry maps provider ids to factories.
type Registry map[ID]Factory

// DefaultRegistry returns the built-in providers.
func DefaultRegistry() Registry {
	return Registry{
		Claude: func(cfg *config.Config) (Client, error) {
			return newAnthropicClient(cfg.AnthropicAPIKey), nil
		},
		Gemini: func(cfg *config.Config) (Client, error) {
			return newGeminiClient(cfg.GeminiAPIKey)
		},
		Groq: func(cfg *config.Config) (Client, error) {
			return newGroqClient(cfg.GroqAPIKey), nil
		},
		Ollama: func(cfg *config.Config) (Client, error) {
			return newOllamaClient(cfg.OllamaHost), nil
		},
	}
}

// Resolver picks a backend from configuration and an optional explicit
// choice. Selection is pure given the availability snapshot.
type Resolver struct {
	cfg      *config.Config
	registry Registry
}

// NewResolver creates a resolver over the given registry.
func NewResolver(cfg *config.Config, registry Registry) *Resolver {
	return &Resolver{cfg: cfg, registry: registry}
}

// Availability derives the provider availability map from configuration.
// Ollama is only offered in development mode.
func (r *Resolver) Availability() map[ID]bool {
	return map[ID]bool{
		Claude: r.cfg.AnthropicAPIKey != "",
		Gemini: r.cfg.GeminiAPIKey != "",
		Groq:   r.cfg.GroqAPIKey != "",
		Ollama: r.cfg.OllamaHost != "" && r.cfg.IsDevelopment(),
	}
}

// Default returns the provider a choice-less request resolves to, or
// ErrNoProvider when nothing is configured.
func (r *Resolver) Default() (ID, error) {
	avail := r.Availability()
	if preferred := ID(r.cfg.DefaultModel); preferred != "" && avail[preferred] {
		return preferred, nil
	}
	for _, id := range priorityOrder {
		if avail[id] {
			return id, nil
		}
	}
	return "", ErrNoProvider
}

// Resolve returns a client for the requested provider if it is available,
// otherwise the first available provider in priority order. With nothing
// available it fails with ErrNoProvider.
func (r *Resolver) Resolve(requested ID) (Client, ID, error) {
	avail := r.Availability()

	id := requested
	if id == "" || !avail[id] {
		var err error
		id, err = r.Default()
		if err != nil {
			return nil, "", err
		}
	}

	factory, ok := r.registry[id]
	if !ok {
		return nil, "", fmt.Errorf("provider %s not registered: %w", id, ErrNoProvider)
	}
	client, err := factory(r.cfg)
	if err != nil {
		return nil, "", fmt.Errorf("initialize provider %s: %w", id, err)
	}
	return client, id, nil
}
