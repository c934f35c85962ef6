package ai

import (
	"context"
	"encoding/json"
	"fmt"
)

// call is one provider round-trip, already resolved against the gateway
// configuration.
type call struct {
	prompt       string
	systemPrompt string
	files        []File
	schemaName   string
	schema       json.RawMessage // nil for plain completions
	maxTokens    int
	temperature  float64
}

// backend is the provider bound at construction. Both functions must honor
// ctx and return the fully assembled content.
type backend struct {
	provider Provider
	model    string
	complete func(ctx context.Context, c *call) (*Response, error)
	stream   func(ctx context.Context, c *call, onChunk func()) (*Response, error)
}

// newBackend resolves the provider enum once into bound call functions.
func newBackend(ctx context.Context, p Provider, cfg Config) (backend, error) {
	switch p {
	case ProviderOpenAI:
		return newOpenAIBackend(cfg), nil
	case ProviderGemini, ProviderVertex, ProviderVertexServiceAccount:
		return newGenAIBackend(ctx, p, cfg)
	default:
		return backend{}, fmt.Errorf("unsupported AI provider %q", p)
	}
}

// schemaObject decodes a schema for SDKs that take it as a Go value.
func schemaObject(raw json.RawMessage) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("schema is not a JSON object: %w", err)
	}
	return m, nil
}
