package memory

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/farmstay/farmstay/internal/store"
	"github.com/farmstay/farmstay/internal/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return store.New(db)
}

func newTestManager(t *testing.T, provider *fakeProvider) (*Manager, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	summarizer := NewSummarizer(provider, SummarizerOptions{}, nil, nil)
	mgr := NewManager(st, summarizer, Options{}, nil)
	return mgr, st
}

func seedMessages(t *testing.T, st *store.Store, userKey string, contents []string) {
	t.Helper()
	base := time.Now().Unix() - int64(len(contents)) - 10
	for i, c := range contents {
		sender := "user"
		if i%2 == 1 {
			sender = "assistant"
		}
		if _, err := st.CreateMessage(context.Background(), &store.Message{
			UserKey:   userKey,
			Sender:    sender,
			Content:   c,
			CreatedTs: base + int64(i),
		}); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}
}

func TestPrepareMemorySessionNotFound(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeProvider{})

	_, err := mgr.PrepareMemory(context.Background(), 999, "hello")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestPrepareMemoryNoTrigger(t *testing.T) {
	provider := &fakeProvider{reply: "should not be called"}
	mgr, st := newTestManager(t, provider)
	ctx := context.Background()

	sess, err := st.GetOrCreateSession(ctx, "whatsapp:1")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	seedMessages(t, st, sess.UserKey, []string{"hi", "hello, how can I help?", "any farmhouses?"})

	mc, err := mgr.PrepareMemory(ctx, sess.ID, "for 8 people")
	if err != nil {
		t.Fatalf("PrepareMemory: %v", err)
	}

	if provider.calls != 0 {
		t.Errorf("summarizer called %d times, want 0", provider.calls)
	}
	if mc.Summary != nil {
		t.Errorf("summary = %v, want nil", *mc.Summary)
	}
	if len(mc.RecentMessages) != 4 {
		t.Fatalf("window length = %d, want 4", len(mc.RecentMessages))
	}
	last := mc.RecentMessages[len(mc.RecentMessages)-1]
	if last.Role != "user" || last.Content != "for 8 people" {
		t.Errorf("last turn = %+v, want the incoming message", last)
	}

	after, err := st.GetSessionByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if after.ConversationSummary != nil || after.SummaryUpdatedAt != nil {
		t.Error("untriggered turn must not write summary fields")
	}
	if after.SummaryGenerationCount != 0 {
		t.Errorf("generation count = %d, want 0", after.SummaryGenerationCount)
	}
}

func TestPrepareMemorySixthMessageTriggers(t *testing.T) {
	provider := &fakeProvider{reply: "Guest wants a farmhouse on 2026-09-05."}
	mgr, st := newTestManager(t, provider)
	ctx := context.Background()

	sess, err := st.GetOrCreateSession(ctx, "whatsapp:2")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	seedMessages(t, st, sess.UserKey, []string{
		"hi", "hello!", "any farmhouses?", "yes, three", "what about Sep 5?",
	})

	mc, err := mgr.PrepareMemory(ctx, sess.ID, "book the big one")
	if err != nil {
		t.Fatalf("PrepareMemory: %v", err)
	}

	if provider.calls != 1 {
		t.Fatalf("summarizer called %d times, want 1", provider.calls)
	}
	// The window that gets summarized is the settled conversation: the five
	// stored messages, not the incoming sixth.
	if !strings.Contains(provider.lastPrompt, "what about Sep 5?") {
		t.Error("summarizer prompt should include the stored messages")
	}
	if strings.Contains(provider.lastPrompt, "book the big one") {
		t.Error("summarizer prompt must not include the incoming message")
	}

	if mc.Summary == nil || *mc.Summary != provider.reply {
		t.Errorf("context summary = %v, want the fresh summary", mc.Summary)
	}
	if len(mc.RecentMessages) != 4 {
		t.Fatalf("window length = %d, want 4", len(mc.RecentMessages))
	}
	if mc.RecentMessages[0].Content != "any farmhouses?" {
		t.Errorf("window should keep the last 4 of 6 turns, starts with %q", mc.RecentMessages[0].Content)
	}
	if mc.RecentMessages[3].Content != "book the big one" {
		t.Errorf("window should end with the incoming message, ends with %q", mc.RecentMessages[3].Content)
	}

	after, err := st.GetSessionByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if after.ConversationSummary == nil || *after.ConversationSummary != provider.reply {
		t.Error("summary was not persisted")
	}
	if after.SummaryUpdatedAt == nil {
		t.Error("summary_updated_at was not set")
	}
	if after.SummaryGenerationCount != 1 {
		t.Errorf("generation count = %d, want 1", after.SummaryGenerationCount)
	}
	if after.NeedsSummarization {
		t.Error("needs_summarization should be cleared after refresh")
	}
}

func TestPrepareMemoryFlagTriggers(t *testing.T) {
	provider := &fakeProvider{reply: "Guest picked hut 2."}
	mgr, st := newTestManager(t, provider)
	ctx := context.Background()

	sess, err := st.GetOrCreateSession(ctx, "web:flag")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	seedMessages(t, st, sess.UserKey, []string{"hi", "hello!"})
	if err := mgr.MarkStateChange(ctx, sess.ID); err != nil {
		t.Fatalf("MarkStateChange: %v", err)
	}

	// 3 turns total, not a multiple of 6; only the flag can trigger.
	mc, err := mgr.PrepareMemory(ctx, sess.ID, "the second hut please")
	if err != nil {
		t.Fatalf("PrepareMemory: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("summarizer called %d times, want 1", provider.calls)
	}
	if mc.SessionState["source"] != "Bot" {
		t.Errorf("session state source = %v", mc.SessionState["source"])
	}

	after, err := st.GetSessionByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if after.NeedsSummarization {
		t.Error("flag should be cleared by the refresh")
	}

	// Once cleared, the next short turn must not re-trigger.
	if _, err := mgr.PrepareMemory(ctx, sess.ID, "thanks"); err != nil {
		t.Fatalf("PrepareMemory: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("summarizer called %d times after cleared flag, want still 1", provider.calls)
	}
}

func TestPrepareMemorySummarizerFailureIsNonFatal(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model unavailable")}
	mgr, st := newTestManager(t, provider)
	ctx := context.Background()

	sess, err := st.GetOrCreateSession(ctx, "whatsapp:3")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	prev := "Guest was comparing farmhouses."
	if err := st.UpdateSession(ctx, &store.UpdateSession{ID: sess.ID, ConversationSummary: &prev}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	seedMessages(t, st, sess.UserKey, []string{"a", "b", "c", "d", "e"})

	mc, err := mgr.PrepareMemory(ctx, sess.ID, "sixth message")
	if err != nil {
		t.Fatalf("PrepareMemory should not fail on summarizer errors: %v", err)
	}
	if mc.Summary == nil || *mc.Summary != prev {
		t.Errorf("summary = %v, want previous summary preserved", mc.Summary)
	}
}

func TestPrepareMemoryWindowNeverExceedsFour(t *testing.T) {
	provider := &fakeProvider{reply: "s"}
	mgr, st := newTestManager(t, provider)
	ctx := context.Background()

	sess, err := st.GetOrCreateSession(ctx, "telegram:9")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}

	for i, text := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"} {
		mc, err := mgr.PrepareMemory(ctx, sess.ID, text)
		if err != nil {
			t.Fatalf("PrepareMemory #%d: %v", i, err)
		}
		if len(mc.RecentMessages) > 4 {
			t.Fatalf("window length = %d after turn %d, want <= 4", len(mc.RecentMessages), i)
		}
		if _, err := st.CreateMessage(ctx, &store.Message{
			UserKey: sess.UserKey, Sender: "user", Content: text,
			CreatedTs: time.Now().Unix() + int64(i),
		}); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}
}

func TestClearMemory(t *testing.T) {
	mgr, st := newTestManager(t, &fakeProvider{})
	ctx := context.Background()

	sess, err := st.GetOrCreateSession(ctx, "whatsapp:clear")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	summary := "old summary"
	now := time.Now()
	gen := 3
	propertyType := "hut"
	if err := st.UpdateSession(ctx, &store.UpdateSession{
		ID:                     sess.ID,
		ConversationSummary:    &summary,
		SummaryUpdatedAt:       &now,
		SummaryGenerationCount: &gen,
		PropertyType:           &propertyType,
	}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	ok, err := mgr.ClearMemory(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ClearMemory: %v", err)
	}
	if !ok {
		t.Fatal("ClearMemory on existing session = false, want true")
	}

	after, err := st.GetSessionByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSessionByID: %v", err)
	}
	if after.ConversationSummary != nil || after.SummaryUpdatedAt != nil {
		t.Error("summary fields should be nulled")
	}
	if after.SummaryGenerationCount != 3 {
		t.Errorf("generation count = %d, want 3 (untouched)", after.SummaryGenerationCount)
	}
	if after.PropertyType == nil || *after.PropertyType != "hut" {
		t.Error("booking facts must survive ClearMemory")
	}

	// Idempotent: clearing an already-clear session still reports true.
	ok, err = mgr.ClearMemory(ctx, sess.ID)
	if err != nil {
		t.Fatalf("second ClearMemory: %v", err)
	}
	if !ok {
		t.Error("second ClearMemory = false, want true")
	}

	ok, err = mgr.ClearMemory(ctx, 424242)
	if err != nil {
		t.Fatalf("ClearMemory missing: %v", err)
	}
	if ok {
		t.Error("ClearMemory on missing session = true, want false")
	}
}

func TestPrepareMemorySenderNormalization(t *testing.T) {
	mgr, st := newTestManager(t, &fakeProvider{})
	ctx := context.Background()

	sess, err := st.GetOrCreateSession(ctx, "whatsapp:roles")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	base := time.Now().Unix() - 10
	for i, m := range []store.Message{
		{Sender: "user", Content: "q"},
		{Sender: "admin", Content: "operator reply"},
		{Sender: "assistant", Content: "bot reply"},
	} {
		m.UserKey = sess.UserKey
		m.CreatedTs = base + int64(i)
		if _, err := st.CreateMessage(ctx, &m); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	mc, err := mgr.PrepareMemory(ctx, sess.ID, "next")
	if err != nil {
		t.Fatalf("PrepareMemory: %v", err)
	}
	want := []string{"user", "assistant", "assistant", "user"}
	if len(mc.RecentMessages) != len(want) {
		t.Fatalf("window length = %d, want %d", len(mc.RecentMessages), len(want))
	}
	for i, role := range want {
		if mc.RecentMessages[i].Role != role {
			t.Errorf("turn %d role = %s, want %s", i, mc.RecentMessages[i].Role, role)
		}
	}
}
