package channels

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/farmstay/farmstay/internal/bus"
	"github.com/farmstay/farmstay/internal/config"
)

// WebChannel serves the WebSocket endpoint the booking widget connects to.
// Each browser session holds one connection identified by a visitor ID;
// the widget may pass its stored ID as ?visitor= to resume a conversation.
type WebChannel struct {
	Base
	cfg config.WebConfig

	mu    sync.Mutex
	conns map[string]*websocket.Conn // visitor ID -> connection
}

type webFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Visitor string `json:"visitor,omitempty"`
}

func NewWebChannel(cfg config.WebConfig, b bus.Bus) *WebChannel {
	return &WebChannel{
		Base:  NewBase(bus.ChannelWeb, b, nil),
		cfg:   cfg,
		conns: make(map[string]*websocket.Conn),
	}
}

func (w *WebChannel) Name() string { return string(bus.ChannelWeb) }

// Start runs the HTTP server hosting the widget endpoint.
// Blocks until ctx is cancelled.
func (w *WebChannel) Start(ctx context.Context) error {
	path := w.cfg.Path
	if path == "" {
		path = "/ws"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, w.serveWS)

	addr := fmt.Sprintf("%s:%d", w.cfg.Host, w.cfg.Port)
	srv := &http.Server{Addr: addr, Handler: mux}

	slog.Info("web: listening", "addr", addr, "path", path)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

var webUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The widget is embedded on the booking site; origin policy is
	// enforced by the reverse proxy in front of this endpoint.
	CheckOrigin: func(*http.Request) bool { return true },
}

func (w *WebChannel) serveWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := webUpgrader.Upgrade(rw, r, nil)
	if err != nil {
		slog.Warn("web: upgrade failed", "err", err)
		return
	}

	visitor := r.URL.Query().Get("visitor")
	if visitor == "" {
		visitor = newVisitorID()
	}

	w.register(visitor, conn)
	defer w.unregister(visitor, conn)

	// Tell the widget its ID so it can resume after a reload.
	_ = conn.WriteJSON(webFrame{Type: "welcome", Visitor: visitor})

	slog.Info("web: visitor connected", "visitor", visitor)

	for {
		var frame webFrame
		if err := conn.ReadJSON(&frame); err != nil {
			slog.Info("web: visitor disconnected", "visitor", visitor)
			return
		}
		if frame.Type != "message" || frame.Content == "" {
			continue
		}
		w.HandleMessage(visitor, visitor, frame.Content, nil)
	}
}

func (w *WebChannel) register(visitor string, conn *websocket.Conn) {
	w.mu.Lock()
	if old, ok := w.conns[visitor]; ok {
		old.Close()
	}
	w.conns[visitor] = conn
	w.mu.Unlock()
}

func (w *WebChannel) unregister(visitor string, conn *websocket.Conn) {
	w.mu.Lock()
	if w.conns[visitor] == conn {
		delete(w.conns, visitor)
	}
	w.mu.Unlock()
	conn.Close()
}

func (w *WebChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	w.mu.Lock()
	conn, ok := w.conns[msg.ChatID()]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("web: visitor %s not connected", msg.ChatID())
	}
	return conn.WriteJSON(webFrame{Type: "message", Content: msg.Content()})
}

func newVisitorID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "web-" + hex.EncodeToString(buf)
}
