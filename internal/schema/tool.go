package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface all LLM-callable tools must satisfy.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// AgentSettings bundles the per-turn LLM parameters used by the agent loop.
type AgentSettings struct {
	Model       string
	MaxIter     int
	Temperature float64
	MaxTokens   int
}

func NewAgentSettings(model string, maxIter int, temperature float64, maxTokens int) AgentSettings {
	return AgentSettings{
		Model:       model,
		MaxIter:     maxIter,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}
