package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rmcgowen/haven/internal/catalog"
	"github.com/rmcgowen/haven/internal/provider"
	"github.com/rmcgowen/haven/internal/store"
)

// ActionToolset exposes the stored action plan to providers that support
// tool calling, so the model answers progress questions from real state
// instead of guessing.
type ActionToolset struct {
	repo store.Repository
}

// NewActionToolset creates the toolset over the given store.
func NewActionToolset(repo store.Repository) *ActionToolset {
	return &ActionToolset{repo: repo}
}

// Tools implements provider.Toolset.
func (t *ActionToolset) Tools() []provider.Tool {
	return []provider.Tool{
		{
			Name:        "list_actions",
			Description: "List the user's action plan with the current status of each item.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "next_action",
			Description: "Get the highest-priority action item the user has not completed yet.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

// Call implements provider.Toolset.
func (t *ActionToolset) Call(ctx context.Context, name string, _ json.RawMessage) (string, error) {
	switch name {
	case "list_actions":
		items, err := t.repo.ListActions(ctx)
		if err != nil {
			return "", fmt.Errorf("list actions: %w", err)
		}
		out, err := json.Marshal(items)
		if err != nil {
			return "", err
		}
		return string(out), nil

	case "next_action":
		items, err := t.repo.ListActions(ctx)
		if err != nil {
			return "", fmt.Errorf("list actions: %w", err)
		}
		next, ok := catalog.Next(items)
		if !ok {
			return `{"done":true}`, nil
		}
		out, err := json.Marshal(next)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return "", fmt.Errorf("unknown tool %q", name)
}
