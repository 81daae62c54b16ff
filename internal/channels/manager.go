package channels

import (
	"context"
	"log/slog"

	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/config"
	"github.com/farmstay/farmstay/internal/schema"
)

// Manager owns all enabled channels and routes outbound messages to them.
type Manager struct {
	channels map[string]schema.Channel
	b        bus.Bus
}

// NewManager creates a Manager with every channel enabled in cfg.
// When interactive is true the terminal REPL is registered as well.
func NewManager(cfg *config.Config, b bus.Bus, interactive bool) *Manager {
	m := &Manager{
		channels: make(map[string]schema.Channel),
		b:        b,
	}

	if interactive {
		m.add(NewCLIChannel(b))
	}
	if cfg.Channels.WhatsApp.Enabled {
		m.add(NewWhatsAppChannel(cfg.Channels.WhatsApp, b))
	}
	if cfg.Channels.Web.Enabled {
		m.add(NewWebChannel(cfg.Channels.Web, b))
	}
	if cfg.Channels.Telegram.Enabled {
		m.add(NewTelegramChannel(cfg.Channels.Telegram, b))
	}

	return m
}

func (m *Manager) add(ch schema.Channel) {
	m.channels[ch.Name()] = ch
	slog.Info("channel enabled", "name", ch.Name())
}

// EnabledChannels returns the names of all enabled channels.
func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	return names
}

// StartAll starts every channel plus the outbound dispatcher.
// Blocks until ctx is cancelled.
func (m *Manager) StartAll(ctx context.Context) error {
	go m.dispatchOutbound(ctx)

	for name, ch := range m.channels {
		go func(n string, c schema.Channel) {
			slog.Info("starting channel", "name", n)
			if err := c.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("channel exited with error", "name", n, "err", err)
			}
		}(name, ch)
	}

	<-ctx.Done()
	return ctx.Err()
}

// dispatchOutbound routes each agent reply to its channel's Send method,
// chunking long replies so no platform limit is exceeded.
func (m *Manager) dispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-m.b.OutboundChan():
			ch, ok := m.channels[string(msg.Channel())]
			if !ok {
				slog.Debug("no channel for outbound message", "channel", msg.Channel())
				continue
			}
			if err := ch.Send(ctx, msg); err != nil {
				slog.Error("send error", "channel", msg.Channel(), "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
