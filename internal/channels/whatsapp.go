package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/config"
)

// WhatsAppChannel connects to the Node.js Baileys bridge via WebSocket.
// The bridge owns the WhatsApp session; this side speaks a small JSON
// protocol with it: {"type":"message"|"status"|"qr"|"error"} inbound and
// {"type":"send","to":...,"text":...} outbound.
type WhatsAppChannel struct {
	Base
	cfg config.WhatsAppConfig

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func NewWhatsAppChannel(cfg config.WhatsAppConfig, b bus.Bus) *WhatsAppChannel {
	return &WhatsAppChannel{
		Base: NewBase(bus.ChannelWhatsApp, b, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (w *WhatsAppChannel) Name() string { return string(bus.ChannelWhatsApp) }

// Start dials the bridge and keeps the connection alive, reconnecting
// after five seconds whenever it drops. Blocks until ctx is cancelled.
func (w *WhatsAppChannel) Start(ctx context.Context) error {
	bridgeURL := w.cfg.BridgeURL
	if bridgeURL == "" {
		bridgeURL = "ws://localhost:3001"
	}
	slog.Info("whatsapp: connecting to bridge", "url", bridgeURL)

	for {
		if err := w.connectOnce(ctx, bridgeURL); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("whatsapp: connection lost, reconnecting in 5s", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

func (w *WhatsAppChannel) connectOnce(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	w.setConn(conn, true)
	defer func() {
		conn.Close()
		w.setConn(nil, false)
	}()

	slog.Info("whatsapp: connected to bridge")

	if w.cfg.BridgeToken != "" {
		auth, _ := json.Marshal(map[string]string{"type": "auth", "token": w.cfg.BridgeToken})
		_ = conn.WriteMessage(websocket.TextMessage, auth)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		go w.handleBridgeMessage(raw)
	}
}

func (w *WhatsAppChannel) setConn(conn *websocket.Conn, connected bool) {
	w.mu.Lock()
	w.conn = conn
	w.connected = connected
	w.mu.Unlock()
}

func (w *WhatsAppChannel) handleBridgeMessage(raw []byte) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	msgType, _ := data["type"].(string)
	switch msgType {
	case "message":
		pn, _ := data["pn"].(string)
		sender, _ := data["sender"].(string)
		content, _ := data["content"].(string)

		userID := pn
		if userID == "" {
			userID = sender
		}
		// Strip the "@s.whatsapp.net" JID suffix for the allowlist check.
		senderID := userID
		if i := strings.IndexByte(userID, '@'); i >= 0 {
			senderID = userID[:i]
		}

		if content == "[Voice Message]" {
			content = "[Voice Message: transcription is not available, please type your request]"
		}

		chatID := sender
		if chatID == "" {
			chatID = userID
		}

		w.HandleMessage(senderID, chatID, content, map[string]any{
			"message_id": data["id"],
			"timestamp":  data["timestamp"],
			"is_group":   data["isGroup"],
		})
	case "status":
		status, _ := data["status"].(string)
		slog.Info("whatsapp: status", "status", status)
		w.mu.Lock()
		w.connected = status == "connected"
		w.mu.Unlock()
	case "qr":
		slog.Info("whatsapp: scan QR code in the bridge terminal")
	case "error":
		slog.Error("whatsapp: bridge error", "error", data["error"])
	}
}

func (w *WhatsAppChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil || !w.connected {
		return fmt.Errorf("whatsapp: bridge not connected")
	}
	payload, _ := json.Marshal(map[string]string{
		"type": "send",
		"to":   msg.ChatID(),
		"text": msg.Content(),
	})
	return w.conn.WriteMessage(websocket.TextMessage, payload)
}
