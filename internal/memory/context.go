// Package memory maintains per-conversation memory for the booking agent: a
// rolling natural-language summary, a short window of recent turns, and the
// structured session facts. Every agent turn goes through PrepareMemory,
// which conditionally refreshes the summary before the agent runs.
package memory

import (
	"github.com/farmstay/farmstay/internal/schema"
)

// MemoryContext is the per-turn view handed to the agent. It is built fresh
// on every turn and discarded afterwards; nothing outside the session row is
// persisted from it.
type MemoryContext struct {
	// Summary is the current conversation summary, nil when none exists yet.
	Summary *string

	// RecentMessages holds the trailing window of turns, oldest-first,
	// including the incoming not-yet-persisted user message. Never longer
	// than the configured window (4 by default).
	RecentMessages []schema.ChatTurn

	// SessionState is the canonical fact map extracted from the session row
	// after any summary commit, so it always reflects the stored row.
	SessionState map[string]any
}
