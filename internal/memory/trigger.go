package memory

import (
	"github.com/farmstay/farmstay/internal/schema"
	"github.com/farmstay/farmstay/internal/store"
)

// DefaultSummaryInterval is the message-count period at which the summary is
// refreshed when no explicit interval is configured.
const DefaultSummaryInterval = 6

// ShouldSummarize decides whether a summary refresh must run before the next
// agent turn. Pure and deterministic:
//   - the message count is a positive multiple of interval, or
//   - the session carries the needs_summarization flag, set by domain tools
//     when a booking fact changed.
//
// recent is accepted for contract stability but unused by the current rules.
func ShouldSummarize(messageCount, interval int, sess *store.Session, recent []schema.ChatTurn) bool {
	_ = recent
	if interval <= 0 {
		interval = DefaultSummaryInterval
	}
	if messageCount > 0 && messageCount%interval == 0 {
		return true
	}
	return sess != nil && sess.NeedsSummarization
}
