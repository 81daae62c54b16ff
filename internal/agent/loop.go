// Package agent runs the conversational core: it consumes inbound messages
// from the bus, prepares conversation memory, drives the LLM and tool loop,
// persists the exchanged messages, and publishes replies.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/memory"
	"github.com/farmstay/farmstay/internal/schema"
	"github.com/farmstay/farmstay/internal/store"
	"github.com/farmstay/farmstay/internal/tools"
)

const helpText = `farmstay commands:
/new — Forget the conversation summary and start fresh
/help — Show available commands`

// Loop is the core processing engine. Each inbound message is handled in its
// own goroutine; turns for the same session are serialized with a keyed
// mutex, turns for different sessions run concurrently.
type Loop struct {
	bus      bus.Bus
	store    *store.Store
	mem      *memory.Manager
	prompt   *PromptBuilder
	registry *tools.Registry
	runner   LoopRunner
	locks    *keyedMutex
	logger   *slog.Logger
}

func NewLoop(
	b bus.Bus,
	st *store.Store,
	mem *memory.Manager,
	prompt *PromptBuilder,
	registry *tools.Registry,
	provider schema.LLMProvider,
	settings schema.AgentSettings,
	logger *slog.Logger,
) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		bus:      b,
		store:    st,
		mem:      mem,
		prompt:   prompt,
		registry: registry,
		runner:   NewLoopRunner(provider, settings),
		locks:    newKeyedMutex(),
		logger:   logger,
	}
}

// Run reads from the inbound bus and processes each message in a goroutine.
// Blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("agent loop started")
	for {
		select {
		case msg := <-l.bus.InboundChan():
			go l.handleMessage(ctx, msg)
		case <-ctx.Done():
			l.logger.Info("agent loop stopping")
			return ctx.Err()
		}
	}
}

// ProcessDirect handles a message outside the bus (CLI, diagnostics).
// Returns the final text response.
func (l *Loop) ProcessDirect(ctx context.Context, channel bus.ChannelType, chatID, content string) string {
	msg := bus.NewInboundMessage(channel, "user", chatID, content)
	out := l.processMessage(ctx, msg)
	if out == nil {
		return ""
	}
	return out.Content()
}

func (l *Loop) handleMessage(ctx context.Context, msg bus.InboundMessage) {
	if out := l.processMessage(ctx, msg); out != nil {
		l.bus.PublishOutbound(*out)
	}
}

func (l *Loop) processMessage(ctx context.Context, msg bus.InboundMessage) *bus.OutboundMessage {
	key := msg.SessionKey()
	l.locks.Lock(key)
	defer l.locks.Unlock(key)

	l.logger.Info("processing message",
		"channel", msg.Channel(), "sender", msg.SenderID(), "content", msg.Preview())

	sess, err := l.store.GetOrCreateSession(ctx, key)
	if err != nil {
		l.logger.Error("session lookup failed", "session_key", key, "err", err)
		return l.reply(msg, "Sorry, something went wrong. Please try again.")
	}

	if out := l.handleSlashCommand(ctx, msg, sess); out != nil {
		return out
	}

	mc, err := l.mem.PrepareMemory(ctx, sess.ID, msg.Content())
	if err != nil {
		if errors.Is(err, memory.ErrSessionNotFound) {
			l.logger.Warn("session vanished mid-turn", "session_key", key)
			return l.reply(msg, "Sorry, I lost track of this conversation. Please start again.")
		}
		l.logger.Error("memory preparation failed", "session_key", key, "err", err)
		return l.reply(msg, "Sorry, something went wrong. Please try again.")
	}

	ctx = tools.WithTurn(ctx, tools.TurnContext{
		SessionID: sess.ID,
		Channel:   string(msg.Channel()),
		ChatID:    msg.ChatID(),
	})

	conversation := l.prompt.BuildMessages(mc, string(msg.Channel()))
	final, toolsUsed := l.runner.Run(ctx, conversation, l.registry)
	if final == "" {
		final = "Is there anything else I can help you with?"
	}

	l.logger.Info("response ready",
		"channel", msg.Channel(), "tools", toolsUsed, "length", len(final))

	// The raw exchange is persisted only after the turn so the memory
	// manager's in-flight view stays the source of the incoming message.
	l.persistTurn(ctx, key, msg.Content(), final)

	return l.reply(msg, final)
}

func (l *Loop) persistTurn(ctx context.Context, userKey, userText, assistantText string) {
	if _, err := l.store.CreateMessage(ctx, &store.Message{
		UserKey: userKey, Sender: schema.SenderUser, Content: userText,
	}); err != nil {
		l.logger.Error("persist user message failed", "session_key", userKey, "err", err)
	}
	if _, err := l.store.CreateMessage(ctx, &store.Message{
		UserKey: userKey, Sender: schema.SenderAssistant, Content: assistantText,
	}); err != nil {
		l.logger.Error("persist assistant message failed", "session_key", userKey, "err", err)
	}
}

// handleSlashCommand checks msg.Content for a known slash command.
// Returns non-nil if the command was handled.
func (l *Loop) handleSlashCommand(ctx context.Context, msg bus.InboundMessage, sess *store.Session) *bus.OutboundMessage {
	switch strings.TrimSpace(strings.ToLower(msg.Content())) {
	case "/new":
		if _, err := l.mem.ClearMemory(ctx, sess.ID); err != nil {
			l.logger.Error("clear memory failed", "session_id", sess.ID, "err", err)
			return l.reply(msg, "Sorry, I could not reset the conversation.")
		}
		return l.reply(msg, "Fresh start! What kind of stay are you looking for?")
	case "/help":
		return l.reply(msg, helpText)
	}
	return nil
}

func (l *Loop) reply(msg bus.InboundMessage, content string) *bus.OutboundMessage {
	out := bus.NewOutboundMessage(msg.Channel(), msg.ChatID(), content)
	out.SetMetadata(msg.Metadata())
	return &out
}
