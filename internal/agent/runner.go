package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/farmstay/farmstay/internal/schema"
	"github.com/farmstay/farmstay/internal/shared/stringutils"
	"github.com/farmstay/farmstay/internal/tools"
)

// LoopRunner executes the LLM and tool iteration loop for one turn.
type LoopRunner struct {
	provider schema.LLMProvider
	settings schema.AgentSettings
}

func NewLoopRunner(provider schema.LLMProvider, settings schema.AgentSettings) LoopRunner {
	return LoopRunner{provider: provider, settings: settings}
}

// Run drives the conversation until the model stops requesting tools or the
// iteration cap is hit. Tool failures are reported back to the model as tool
// results rather than aborting the turn.
func (r *LoopRunner) Run(ctx context.Context, conversation schema.Messages, registry *tools.Registry) (string, []string) {
	var toolsUsed []string

	for i := 0; i < r.settings.MaxIter; i++ {
		resp, err := r.provider.Chat(ctx,
			conversation,
			registry.Definitions(),
			schema.NewChatOptions(r.settings.Model, r.settings.MaxTokens, r.settings.Temperature),
		)
		if err != nil {
			slog.Error("LLM error", "err", err)
			return "Sorry, something went wrong on my side. Please try again in a moment.", toolsUsed
		}

		if len(resp.ToolCalls) == 0 {
			content := ""
			if resp.Content != nil {
				content = *resp.Content
			}
			return stringutils.StripThink(content), toolsUsed
		}

		var toolCalls []schema.ToolCall
		for _, tc := range resp.ToolCalls {
			toolCalls = append(toolCalls, schema.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
		}
		conversation.AddAssistant(resp.Content, toolCalls)

		for _, tc := range resp.ToolCalls {
			toolsUsed = append(toolsUsed, tc.Name)
			argsJSON, _ := json.Marshal(tc.Arguments)
			slog.Info("Tool call", "name", tc.Name, "args", stringutils.Truncate(string(argsJSON), 200))

			var result string
			if t := registry.Get(tc.Name); t != nil {
				var execErr error
				result, execErr = t.Execute(ctx, tc.Arguments)
				if execErr != nil {
					result = fmt.Sprintf("Error: %v", execErr)
				}
			} else {
				result = fmt.Sprintf("Error: tool %q not found", tc.Name)
			}
			conversation.AddToolResult(tc.ID, tc.Name, result)
		}
	}

	return "I could not finish that request. Could you rephrase or try again?", toolsUsed
}
