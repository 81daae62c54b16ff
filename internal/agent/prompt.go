package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmstay/farmstay/internal/memory"
	"github.com/farmstay/farmstay/internal/schema"
)

// PromptBuilder assembles the system prompt and message list for one turn
// from the persona and the prepared memory context.
type PromptBuilder struct {
	persona Persona
}

func NewPromptBuilder(persona Persona) *PromptBuilder {
	return &PromptBuilder{persona: persona}
}

// stateLabels fixes the render order of session facts in the prompt.
var stateLabels = []struct {
	key   string
	label string
}{
	{"property_type", "Property type"},
	{"booking_date", "Booking date"},
	{"shift_type", "Shift"},
	{"property_id", "Property id"},
	{"booking_id", "Booking id"},
	{"min_price", "Min price"},
	{"max_price", "Max price"},
	{"max_occupancy", "Guests"},
}

// BuildMessages produces the conversation for the LLM: a system message with
// persona, summary, and session facts, followed by the recent turn window.
// The incoming user message arrives as the last entry of mc.RecentMessages.
func (b *PromptBuilder) BuildMessages(mc *memory.MemoryContext, channel string) schema.Messages {
	conversation := schema.NewMessages(schema.NewSystemMessage(b.buildSystemPrompt(mc, channel)))
	for _, turn := range mc.RecentMessages {
		conversation.AddTurn(turn)
	}
	return conversation
}

func (b *PromptBuilder) buildSystemPrompt(mc *memory.MemoryContext, channel string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are %s. %s\n", b.persona.Name, b.persona.Description)
	fmt.Fprintf(&sb, "Today is %s. The guest is chatting over %s.\n", time.Now().Format("2006-01-02 (Monday)"), channel)

	if len(b.persona.Style) > 0 {
		sb.WriteString("\nStyle:\n")
		for _, s := range b.persona.Style {
			sb.WriteString("- " + s + "\n")
		}
	}
	if len(b.persona.Rules) > 0 {
		sb.WriteString("\nRules:\n")
		for _, r := range b.persona.Rules {
			sb.WriteString("- " + r + "\n")
		}
	}

	if mc.Summary != nil && *mc.Summary != "" {
		sb.WriteString("\nConversation so far:\n" + *mc.Summary + "\n")
	}

	sb.WriteString("\nRecorded booking facts (ground truth; do not contradict):\n")
	printed := 0
	for _, f := range stateLabels {
		v := mc.SessionState[f.key]
		if v == nil {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %v\n", f.label, v)
		printed++
	}
	if printed == 0 {
		sb.WriteString("- none recorded yet\n")
	}

	return sb.String()
}
