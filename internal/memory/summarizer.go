package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/farmstay/farmstay/internal/schema"
	"github.com/farmstay/farmstay/internal/shared/stringutils"
)

// summaryPlaceholder is returned when summarization fails and no previous
// summary exists. The turn proceeds with it instead of aborting.
const summaryPlaceholder = "Conversation in progress, no summary available yet."

// Notifier receives operator-facing alerts. Implementations must not block
// the turn; a nil Notifier disables alerting.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// compressionTier describes how aggressively one summary generation
// compresses history. Selection is a pure function of the generation count.
type compressionTier struct {
	label       string
	instruction string
}

var compressionTiers = [...]compressionTier{
	{
		label: "initial",
		instruction: "Write the first summary of this conversation. Capture what the guest " +
			"is looking for, which properties were discussed, and any decisions made.",
	},
	{
		label: "merge",
		instruction: "Update the summary. Preserve every detail from the previous summary, " +
			"append the new developments, and keep events in chronological order.",
	},
	{
		label: "compress",
		instruction: "Rewrite the summary aggressively. Keep only the current booking core: " +
			"chosen property, date, shift, and booking status. Drop resolved questions and " +
			"early exploration, and emphasize the newest developments.",
	},
}

func tierFor(generation int) compressionTier {
	switch {
	case generation <= 0:
		return compressionTiers[0]
	case generation <= 2:
		return compressionTiers[1]
	default:
		return compressionTiers[2]
	}
}

// SummarizerOptions tune the single completion request the summarizer makes.
type SummarizerOptions struct {
	Model        string
	MaxWords     int // soft cap stated in the prompt, not enforced
	SnippetChars int // per-message truncation in the prompt window
	MaxTokens    int
	Temperature  float64
}

func (o SummarizerOptions) withDefaults() SummarizerOptions {
	if o.MaxWords <= 0 {
		o.MaxWords = 100
	}
	if o.SnippetChars <= 0 {
		o.SnippetChars = 500
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 512
	}
	return o
}

// Summarizer compresses conversation history into a rolling summary with a
// single completion call per refresh.
type Summarizer struct {
	provider schema.LLMProvider
	opts     SummarizerOptions
	notifier Notifier
	logger   *slog.Logger
}

func NewSummarizer(provider schema.LLMProvider, opts SummarizerOptions, notifier Notifier, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		provider: provider,
		opts:     opts.withDefaults(),
		notifier: notifier,
		logger:   logger,
	}
}

// GenerateSummary produces a new summary from the previous one, the recent
// turn window, and the session facts. It never fails: on any provider error
// it returns the previous summary unchanged, or a fixed placeholder when no
// previous summary exists.
func (s *Summarizer) GenerateSummary(ctx context.Context, prev *string, msgs []schema.ChatTurn, state map[string]any, generation int) string {
	prompt := s.buildPrompt(prev, msgs, state, generation)

	messages := schema.NewMessages(
		schema.NewSystemMessage("You maintain the running memory of a farmstay booking conversation. Reply with the summary text only."),
		schema.NewUserMessage(prompt),
	)

	opts := schema.NewChatOptions(
		stringutils.StringOrDefault(s.opts.Model, s.provider.DefaultModel()),
		s.opts.MaxTokens,
		s.opts.Temperature,
	)

	resp, err := s.provider.Chat(ctx, messages, nil, opts)
	if err != nil {
		return s.fallback(ctx, prev, err)
	}
	if resp.Content == nil {
		return s.fallback(ctx, prev, fmt.Errorf("empty completion"))
	}
	summary := strings.TrimSpace(stringutils.StripThink(*resp.Content))
	if summary == "" {
		return s.fallback(ctx, prev, fmt.Errorf("blank completion"))
	}
	return summary
}

func (s *Summarizer) fallback(ctx context.Context, prev *string, err error) string {
	s.logger.Warn("summarizer failed, keeping previous summary", "error", err)
	if s.notifier != nil {
		s.notifier.Notify(ctx, fmt.Sprintf("summarizer failure: %v", err))
	}
	if prev != nil && *prev != "" {
		return *prev
	}
	return summaryPlaceholder
}

// factChecklist renders session facts in a fixed order so the model anchors
// on stored ground truth instead of inferring facts from chat history.
var factChecklist = []struct {
	label string
	key   string
}{
	{"Property type", "property_type"},
	{"Booking date", "booking_date"},
	{"Shift", "shift_type"},
	{"Property id", "property_id"},
	{"Booking id", "booking_id"},
}

func (s *Summarizer) buildPrompt(prev *string, msgs []schema.ChatTurn, state map[string]any, generation int) string {
	var b strings.Builder

	b.WriteString(tierFor(generation).instruction)
	b.WriteString("\n\nPrevious summary:\n")
	if prev != nil && *prev != "" {
		b.WriteString(*prev)
	} else {
		b.WriteString("(none)")
	}

	b.WriteString("\n\nRecent conversation:\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, stringutils.Truncate(m.Content, s.opts.SnippetChars))
	}

	b.WriteString("\nConfirmed booking facts (trust these over the chat history):\n")
	for _, f := range factChecklist {
		v := state[f.key]
		if v == nil {
			v = "(not set)"
		}
		fmt.Fprintf(&b, "- %s: %v\n", f.label, v)
	}

	fmt.Fprintf(&b, "\nKeep the summary under roughly %d words.", s.opts.MaxWords)
	return b.String()
}
