// Package notify alerts the farm operators when something needs their
// attention, such as a failed summary generation. Alerts go to a Slack
// channel; when Slack is not configured the notifier degrades to a log line.
package notify

import (
	"context"
	"log/slog"

	slackgo "github.com/slack-go/slack"

	"github.com/farmstay/farmstay/internal/config"
)

// SlackNotifier posts operator alerts to a Slack channel.
type SlackNotifier struct {
	client  *slackgo.Client
	channel string
	logger  *slog.Logger
}

// NewSlackNotifier creates a notifier from the notifications config.
// With no token configured the notifier only logs.
func NewSlackNotifier(cfg config.NotificationsConfig, logger *slog.Logger) *SlackNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &SlackNotifier{channel: cfg.SlackChannel, logger: logger}
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		n.client = slackgo.New(cfg.SlackToken)
	}
	return n
}

// Notify delivers text to the operators. Delivery is best effort; a failed
// post is logged and never propagated to the caller.
func (n *SlackNotifier) Notify(ctx context.Context, text string) {
	if n.client == nil {
		n.logger.Warn("operator alert", "text", text)
		return
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channel,
		slackgo.MsgOptionText(text, false))
	if err != nil {
		n.logger.Error("slack alert failed", "err", err, "text", text)
	}
}
