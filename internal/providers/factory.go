package providers

import (
	"fmt"

	"github.com/farmstay/farmstay/internal/config"
	"github.com/farmstay/farmstay/internal/schema"
)

// NewFromConfig resolves the provider credentials for the configured default
// model and builds the matching LLM provider.
func NewFromConfig(cfg *config.Config) (schema.LLMProvider, error) {
	model := cfg.Agents.Defaults.Model
	match := cfg.MatchProvider(model)
	if match.Provider == nil {
		return nil, fmt.Errorf("no LLM provider configured for model %q", model)
	}
	return NewOpenAIProvider(
		match.Provider.APIKey,
		match.Provider.APIBase,
		model,
		match.Name,
		match.Provider.ExtraHeaders,
	), nil
}
