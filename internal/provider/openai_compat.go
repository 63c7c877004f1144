package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rmcgowen/haven/internal/domain"
)

const (
	groqBaseURL = "https://api.groq.com/openai/v1"
	groqModel   = "llama-3.3-70b-versatile"
	ollamaModel = "llama3.2"
)

// openAICompatClient drives any OpenAI-compatible chat completions endpoint.
// Both Groq and a local Ollama daemon speak this protocol.
type openAICompatClient struct {
	client *openai.Client
	model  string
}

func newGroqClient(apiKey string) *openAICompatClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	return &openAICompatClient{
		client: openai.NewClientWithConfig(cfg),
		model:  groqModel,
	}
}

func newOllamaClient(host string) *openAICompatClient {
	// Ollama ignores the token but the client requires one.
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = strings.TrimRight(host, "/") + "/v1"
	return &openAICompatClient{
		client: openai.NewClientWithConfig(cfg),
		model:  ollamaModel,
	}
}

func (c *openAICompatClient) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
		if req.System != "" {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			})
		}
		for _, m := range req.Messages {
			role := openai.ChatMessageRoleUser
			if m.Role == domain.RoleAssistant {
				role = openai.ChatMessageRoleAssistant
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    role,
				Content: m.Content,
			})
		}

		var tools []openai.Tool
		if req.Toolset != nil {
			for _, t := range req.Toolset.Tools() {
				tools = append(tools, openai.Tool{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        t.Name,
						Description: t.Description,
						Parameters:  t.Parameters,
					},
				})
			}
		}

		for round := 0; ; round++ {
			calls, done := c.streamOnce(ctx, messages, tools, yield)
			if done || len(calls) == 0 {
				return
			}
			if round >= req.ToolBudget {
				// Budget spent. Rerun without tools to force the final
				// answer instead of looping.
				tools = nil
				continue
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				ToolCalls: calls,
			})
			for _, call := range calls {
				out, err := req.Toolset.Call(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
				if err != nil {
					out = fmt.Sprintf("error: %v", err)
				}
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    out,
					ToolCallID: call.ID,
				})
			}
		}
	}
}

// streamOnce runs one completion pass, yielding content tokens as they
// arrive. It returns any tool calls the model requested, and done=true when
// the caller should stop (error yielded or consumer gone).
func (c *openAICompatClient) streamOnce(
	ctx context.Context,
	messages []openai.ChatCompletionMessage,
	tools []openai.Tool,
	yield func(string, error) bool,
) (calls []openai.ToolCall, done bool) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
		Stream:   true,
	})
	if err != nil {
		yield("", fmt.Errorf("chat completion stream: %w", err))
		return nil, true
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return calls, false
		}
		if err != nil {
			yield("", fmt.Errorf("chat completion recv: %w", err))
			return nil, true
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta
		if delta.Content != "" && !yield(delta.Content, nil) {
			return nil, true
		}
		calls = mergeToolCalls(calls, delta.ToolCalls)
	}
}

// mergeToolCalls folds streamed tool-call fragments into complete calls.
// Fragments carry an index; the first fragment for an index has the id and
// name, later ones append argument text.
func mergeToolCalls(calls []openai.ToolCall, fragments []openai.ToolCall) []openai.ToolCall {
	for _, frag := range fragments {
		idx := len(calls)
		if frag.Index != nil {
			idx = *frag.Index
		}
		for idx >= len(calls) {
			calls = append(calls, openai.ToolCall{Type: openai.ToolTypeFunction})
		}
		if frag.ID != "" {
			calls[idx].ID = frag.ID
		}
		if frag.Function.Name != "" {
			calls[idx].Function.Name = frag.Function.Name
		}
		calls[idx].Function.Arguments += frag.Function.Arguments
	}
	return calls
}
