package channels

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/config"
)

// TelegramChannel implements the Telegram bot via long polling.
type TelegramChannel struct {
	Base
	cfg config.TelegramConfig
	bot *tgbotapi.BotAPI
}

func NewTelegramChannel(cfg config.TelegramConfig, b bus.Bus) *TelegramChannel {
	return &TelegramChannel{
		Base: NewBase(bus.ChannelTelegram, b, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (t *TelegramChannel) Name() string { return string(bus.ChannelTelegram) }

func (t *TelegramChannel) Start(ctx context.Context) error {
	if t.cfg.Token == "" {
		return fmt.Errorf("telegram: bot token not configured")
	}
	bot, err := tgbotapi.NewBotAPI(t.cfg.Token)
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	slog.Info("telegram: connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go t.handleUpdate(ctx, update)
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (t *TelegramChannel) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	senderID := fmt.Sprintf("%d", msg.From.ID)
	if msg.From.UserName != "" {
		senderID = senderID + "|" + msg.From.UserName
	}
	chatID := fmt.Sprintf("%d", msg.Chat.ID)

	content := msg.Text
	if content == "" && msg.Caption != "" {
		content = msg.Caption
	}
	if content == "" {
		// Photos, stickers and voice notes carry no text the agent can act on.
		content = "[unsupported message, please type your request]"
	}

	// Keep the typing indicator alive while the agent thinks.
	typingCtx, cancelTyping := context.WithCancel(ctx)
	defer cancelTyping()
	go t.sendTypingLoop(typingCtx, msg.Chat.ID)

	t.HandleMessage(senderID, chatID, content, map[string]any{
		"message_id": msg.MessageID,
		"user_id":    msg.From.ID,
		"username":   msg.From.UserName,
		"first_name": msg.From.FirstName,
		"is_group":   msg.Chat.Type != "private",
	})
}

func (t *TelegramChannel) sendTypingLoop(ctx context.Context, chatID int64) {
	for {
		if t.bot != nil {
			action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
			_, _ = t.bot.Send(action)
		}
		select {
		case <-time.After(4 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func (t *TelegramChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if t.bot == nil {
		return fmt.Errorf("telegram: bot not running")
	}
	chatID, err := parseChatID(msg.ChatID())
	if err != nil {
		return err
	}

	for _, chunk := range splitMessage(msg.Content(), 4000) {
		html := markdownToTelegramHTML(chunk)
		m := tgbotapi.NewMessage(chatID, html)
		m.ParseMode = "HTML"
		if _, err := t.bot.Send(m); err != nil {
			// Malformed HTML from the model; retry as plain text.
			m2 := tgbotapi.NewMessage(chatID, chunk)
			_, _ = t.bot.Send(m2)
		}
	}
	return nil
}

func parseChatID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid chat_id: %s", s)
	}
	return id, nil
}

// Markdown to Telegram HTML conversion. Telegram rejects most Markdown, so
// model output is rewritten into the HTML subset the Bot API accepts.
var (
	reTGCodeBlock  = regexp.MustCompile("(?s)```[\\w]*\\n?([\\s\\S]*?)```")
	reTGInlineCode = regexp.MustCompile("`([^`]+)`")
	reTGHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	reTGBlockquote = regexp.MustCompile(`(?m)^>\s*(.*)$`)
	reTGLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reTGBold1      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reTGBold2      = regexp.MustCompile(`__(.+?)__`)
	reTGItalic     = regexp.MustCompile(`(?:^|[^a-zA-Z0-9])_([^_]+)_(?:[^a-zA-Z0-9]|$)`)
	reTGStrike     = regexp.MustCompile(`~~(.+?)~~`)
	reTGBullet     = regexp.MustCompile(`(?m)^[-*]\s+`)
)

func markdownToTelegramHTML(text string) string {
	if text == "" {
		return ""
	}

	var codeBlocks []string
	text = reTGCodeBlock.ReplaceAllStringFunc(text, func(m string) string {
		groups := reTGCodeBlock.FindStringSubmatch(m)
		codeBlocks = append(codeBlocks, groups[1])
		return fmt.Sprintf("\x00CB%d\x00", len(codeBlocks)-1)
	})

	var inlineCodes []string
	text = reTGInlineCode.ReplaceAllStringFunc(text, func(m string) string {
		groups := reTGInlineCode.FindStringSubmatch(m)
		inlineCodes = append(inlineCodes, groups[1])
		return fmt.Sprintf("\x00IC%d\x00", len(inlineCodes)-1)
	})

	text = reTGHeader.ReplaceAllString(text, "$1")
	text = reTGBlockquote.ReplaceAllString(text, "$1")

	text = htmlEscape(text)

	text = reTGLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = reTGBold1.ReplaceAllString(text, "<b>$1</b>")
	text = reTGBold2.ReplaceAllString(text, "<b>$1</b>")
	text = reTGItalic.ReplaceAllString(text, "<i>$1</i>")
	text = reTGStrike.ReplaceAllString(text, "<s>$1</s>")
	text = reTGBullet.ReplaceAllString(text, "• ")

	for i, code := range inlineCodes {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00IC%d\x00", i),
			"<code>"+htmlEscape(code)+"</code>")
	}
	for i, code := range codeBlocks {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00CB%d\x00", i),
			"<pre><code>"+htmlEscape(code)+"</code></pre>")
	}
	return text
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
