package provider

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/rmcgowen/haven/internal/domain"
)

const geminiModel = "gemini-2.0-flash"

type geminiClient struct {
	client *genai.Client
	model  string
}

func newGeminiClient(apiKey string) (*geminiClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &geminiClient{client: client, model: geminiModel}, nil
}

// geminiContents maps conversation history onto genai content turns.
func geminiContents(msgs []domain.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

// Stream runs text-only rounds; this backend does not consume
// Request.Toolset or ToolBudget.
func (c *geminiClient) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cfg := &genai.GenerateContentConfig{}
		if req.System != "" {
			cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
		}

		contents := geminiContents(req.Messages)

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, cfg) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}
