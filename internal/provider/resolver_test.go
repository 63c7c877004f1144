package provider

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/rmcgowen/haven/internal/config"
)

type stubClient struct{ id ID }

func (s *stubClient) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {}
}

func stubRegistry() Registry {
	reg := Registry{}
	for _, id := range []ID{Claude, Gemini, Groq, Ollama} {
		id := id
		reg[id] = func(cfg *config.Config) (Client, error) {
			return &stubClient{id: id}, nil
		}
	}
	return reg
}

func TestAvailability(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		GeminiAPIKey: "key",
		OllamaHost:   "http://localhost:11434",
		FrontendURL:  "https://haven.example.com",
	}
	r := NewResolver(cfg, stubRegistry())

	avail := r.Availability()
	if avail[Claude] {
		t.Error("claude available without api key")
	}
	if !avail[Gemini] {
		t.Error("gemini unavailable despite api key")
	}
	if avail[Ollama] {
		t.Error("ollama available outside development mode")
	}
}

func TestAvailabilityOllamaDevOnly(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		OllamaHost:  "http://localhost:11434",
		FrontendURL: "http://localhost:5173",
	}
	r := NewResolver(cfg, stubRegistry())

	if !r.Availability()[Ollama] {
		t.Error("ollama unavailable in development mode")
	}
}

func TestResolveFallbackOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       *config.Config
		requested ID
		want      ID
	}{
		{
			name:      "requested provider wins when available",
			cfg:       &config.Config{AnthropicAPIKey: "a", GroqAPIKey: "g"},
			requested: Groq,
			want:      Groq,
		},
		{
			name:      "unavailable request falls back by priority",
			cfg:       &config.Config{GeminiAPIKey: "g", GroqAPIKey: "q"},
			requested: Claude,
			want:      Gemini,
		},
		{
			name:      "no preference resolves to highest priority",
			cfg:       &config.Config{AnthropicAPIKey: "a", GeminiAPIKey: "g"},
			requested: "",
			want:      Claude,
		},
		{
			name:      "default model overrides priority",
			cfg:       &config.Config{AnthropicAPIKey: "a", GroqAPIKey: "q", DefaultModel: "groq"},
			requested: "",
			want:      Groq,
		},
		{
			name:      "unavailable default model is ignored",
			cfg:       &config.Config{GeminiAPIKey: "g", DefaultModel: "claude"},
			requested: "",
			want:      Gemini,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewResolver(tt.cfg, stubRegistry())
			client, got, err := r.Resolve(tt.requested)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
			if client == nil {
				t.Error("Resolve() returned nil client")
			}
		})
	}
}

func TestResolveNoProvider(t *testing.T) {
	t.Parallel()

	r := NewResolver(&config.Config{}, stubRegistry())
	_, _, err := r.Resolve("")
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("Resolve() error = %v, want ErrNoProvider", err)
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	if _, err := ParseID("claude"); err != nil {
		t.Errorf("ParseID(claude) error = %v", err)
	}
	if _, err := ParseID(""); err != nil {
		t.Errorf("ParseID(empty) error = %v", err)
	}
	if _, err := ParseID("gpt4"); err == nil {
		t.Error("ParseID(gpt4) expected error")
	}
}
