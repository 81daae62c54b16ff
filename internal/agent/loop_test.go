package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/memory"
	"github.com/farmstay/farmstay/internal/schema"
	"github.com/farmstay/farmstay/internal/store"
	"github.com/farmstay/farmstay/internal/store/db/sqlite"
	"github.com/farmstay/farmstay/internal/tools"
)

// scriptedProvider replies with a fixed sequence of responses, one per call.
type scriptedProvider struct {
	responses []schema.LLMResponse
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, messages schema.Messages, defs []map[string]any, opts schema.ChatOptions) (schema.LLMResponse, error) {
	if p.calls >= len(p.responses) {
		content := "fallback"
		return schema.LLMResponse{Content: &content, FinishReason: "stop"}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *scriptedProvider) DefaultModel() string { return "test-model" }

func text(s string) *string { return &s }

func newLoopFixture(t *testing.T, provider schema.LLMProvider) (*Loop, *store.Store) {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "loop.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	st := store.New(db)

	summarizer := memory.NewSummarizer(provider, memory.SummarizerOptions{}, nil, nil)
	mem := memory.NewManager(st, summarizer, memory.Options{}, nil)

	registry := tools.NewRegistryBuilder().
		WithTool(tools.NewSetShiftTool(st, mem)).
		Build()

	loop := NewLoop(
		bus.NewMessageBus(16),
		st,
		mem,
		NewPromptBuilder(DefaultPersona()),
		registry,
		provider,
		schema.NewAgentSettings("test-model", 5, 0.7, 1024),
		nil,
	)
	return loop, st
}

func TestProcessDirectPlainReply(t *testing.T) {
	provider := &scriptedProvider{responses: []schema.LLMResponse{
		{Content: text("We have three farmhouses available."), FinishReason: "stop"},
	}}
	loop, st := newLoopFixture(t, provider)
	ctx := context.Background()

	got := loop.ProcessDirect(ctx, bus.ChannelCLI, "tester", "any farmhouses?")
	if got != "We have three farmhouses available." {
		t.Errorf("reply = %q", got)
	}

	// Both sides of the turn are persisted after the reply.
	msgs, err := st.ListRecentMessages(ctx, "cli:tester", 10)
	if err != nil {
		t.Fatalf("ListRecentMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs))
	}
	if msgs[0].Sender != schema.SenderAssistant || msgs[1].Sender != schema.SenderUser {
		t.Errorf("senders = %s, %s", msgs[0].Sender, msgs[1].Sender)
	}
}

func TestProcessDirectRunsToolLoop(t *testing.T) {
	provider := &scriptedProvider{responses: []schema.LLMResponse{
		{
			ToolCalls: []schema.ToolCallRequest{
				{ID: "call_1", Name: "set_shift", Arguments: map[string]any{"shift": "night"}},
			},
			FinishReason: "tool_calls",
		},
		{Content: text("Night shift it is."), FinishReason: "stop"},
	}}
	loop, st := newLoopFixture(t, provider)
	ctx := context.Background()

	got := loop.ProcessDirect(ctx, bus.ChannelCLI, "tester", "evening please")
	if got != "Night shift it is." {
		t.Errorf("reply = %q", got)
	}

	sess, err := st.GetSessionByUserKey(ctx, "cli:tester")
	if err != nil || sess == nil {
		t.Fatalf("session lookup: %v %v", sess, err)
	}
	if sess.ShiftType == nil || *sess.ShiftType != "night" {
		t.Errorf("shift_type = %v, want night", sess.ShiftType)
	}
	if !sess.NeedsSummarization {
		t.Error("tool mutation should raise the summarization flag")
	}
}

func TestSlashNewClearsSummary(t *testing.T) {
	provider := &scriptedProvider{}
	loop, st := newLoopFixture(t, provider)
	ctx := context.Background()

	sess, err := st.GetOrCreateSession(ctx, "cli:tester")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	summary := "old context"
	if err := st.UpdateSession(ctx, &store.UpdateSession{ID: sess.ID, ConversationSummary: &summary}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	got := loop.ProcessDirect(ctx, bus.ChannelCLI, "tester", "/new")
	if !strings.Contains(got, "Fresh start") {
		t.Errorf("reply = %q", got)
	}
	if provider.calls != 0 {
		t.Errorf("slash command must not call the LLM, calls = %d", provider.calls)
	}

	after, _ := st.GetSessionByID(ctx, sess.ID)
	if after.ConversationSummary != nil {
		t.Error("summary should be cleared by /new")
	}
}

func TestSlashHelp(t *testing.T) {
	provider := &scriptedProvider{}
	loop, _ := newLoopFixture(t, provider)

	got := loop.ProcessDirect(context.Background(), bus.ChannelCLI, "tester", "/help")
	if !strings.Contains(got, "/new") {
		t.Errorf("help text = %q", got)
	}
	if provider.calls != 0 {
		t.Errorf("slash command must not call the LLM, calls = %d", provider.calls)
	}
}
