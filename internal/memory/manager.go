package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/farmstay/farmstay/internal/schema"
	"github.com/farmstay/farmstay/internal/store"
)

// ErrSessionNotFound aborts memory preparation: the agent must not run a
// turn without valid session facts.
var ErrSessionNotFound = errors.New("session not found")

// DefaultRecentWindow bounds the turn window handed to the agent.
const DefaultRecentWindow = 4

// DefaultMessageLoadLimit is how many persisted messages are loaded per turn.
const DefaultMessageLoadLimit = 6

// Options tune the manager. Zero values fall back to the defaults above.
type Options struct {
	SummaryInterval  int
	RecentWindow     int
	MessageLoadLimit int
}

func (o Options) withDefaults() Options {
	if o.SummaryInterval <= 0 {
		o.SummaryInterval = DefaultSummaryInterval
	}
	if o.RecentWindow <= 0 {
		o.RecentWindow = DefaultRecentWindow
	}
	if o.MessageLoadLimit <= 0 {
		o.MessageLoadLimit = DefaultMessageLoadLimit
	}
	return o
}

// Manager orchestrates trigger evaluation, summarization, and session-state
// extraction into the MemoryContext consumed by the agent each turn.
//
// The read-modify-write on the session row is not atomic against concurrent
// turns for the same session; callers serialize turns per session.
type Manager struct {
	store      *store.Store
	summarizer *Summarizer
	opts       Options
	logger     *slog.Logger
}

func NewManager(st *store.Store, summarizer *Summarizer, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:      st,
		summarizer: summarizer,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

// PrepareMemory builds the MemoryContext for one turn. incomingText is the
// not-yet-persisted user message; it counts toward the trigger and appears
// in the returned window, but is excluded from what gets summarized so the
// summary covers only settled conversation. Persisting the raw message stays
// the caller's responsibility.
func (m *Manager) PrepareMemory(ctx context.Context, sessionID int64, incomingText string) (*MemoryContext, error) {
	sess, err := m.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrSessionNotFound)
	}

	recent, err := m.store.ListRecentMessages(ctx, sess.UserKey, m.opts.MessageLoadLimit)
	if err != nil {
		return nil, fmt.Errorf("load messages for session %d: %w", sessionID, err)
	}

	// recent arrives newest-first; rebuild chronological order.
	turns := make([]schema.ChatTurn, 0, len(recent)+1)
	for i := len(recent) - 1; i >= 0; i-- {
		turns = append(turns, schema.ChatTurn{
			Role:    schema.RoleForSender(recent[i].Sender),
			Content: recent[i].Content,
		})
	}
	turns = append(turns, schema.ChatTurn{Role: "user", Content: incomingText})

	if ShouldSummarize(len(turns), m.opts.SummaryInterval, sess, turns) {
		summary := m.summarizer.GenerateSummary(ctx,
			sess.ConversationSummary,
			turns[:len(turns)-1],
			ExtractSessionState(sess),
			sess.SummaryGenerationCount,
		)

		now := time.Now()
		generation := sess.SummaryGenerationCount + 1
		flag := false
		if err := m.store.UpdateSession(ctx, &store.UpdateSession{
			ID:                     sess.ID,
			ConversationSummary:    &summary,
			SummaryUpdatedAt:       &now,
			SummaryGenerationCount: &generation,
			NeedsSummarization:     &flag,
		}); err != nil {
			return nil, fmt.Errorf("persist summary for session %d: %w", sessionID, err)
		}
		m.logger.Info("conversation summary refreshed",
			"session_id", sess.ID, "generation", generation)
	}

	if len(turns) > m.opts.RecentWindow {
		turns = turns[len(turns)-m.opts.RecentWindow:]
	}

	// Re-read rather than reuse the pre-commit snapshot so the returned
	// state reflects the stored row, including the cleared flag.
	fresh, err := m.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reload session %d: %w", sessionID, err)
	}
	if fresh == nil {
		return nil, fmt.Errorf("session %d: %w", sessionID, ErrSessionNotFound)
	}

	return &MemoryContext{
		Summary:        fresh.ConversationSummary,
		RecentMessages: turns,
		SessionState:   ExtractSessionState(fresh),
	}, nil
}

// ClearMemory nulls the session's summary and its timestamp, leaving the
// generation counter and all booking facts untouched. It reports whether a
// matching session existed; a missing session is not an error.
func (m *Manager) ClearMemory(ctx context.Context, sessionID int64) (bool, error) {
	sess, err := m.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("load session %d: %w", sessionID, err)
	}
	if sess == nil {
		return false, nil
	}
	if err := m.store.UpdateSession(ctx, &store.UpdateSession{
		ID:           sess.ID,
		ClearSummary: true,
	}); err != nil {
		return false, fmt.Errorf("clear summary for session %d: %w", sessionID, err)
	}
	return true, nil
}

// MarkStateChange raises the needs_summarization flag so the next turn
// refreshes the summary regardless of message count. Domain tools call this
// whenever they change a booking fact.
func (m *Manager) MarkStateChange(ctx context.Context, sessionID int64) error {
	flag := true
	if err := m.store.UpdateSession(ctx, &store.UpdateSession{
		ID:                 sessionID,
		NeedsSummarization: &flag,
	}); err != nil {
		return fmt.Errorf("mark state change for session %d: %w", sessionID, err)
	}
	return nil
}
