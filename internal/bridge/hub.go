package bridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/claimsense/claimsense/internal/analysis"
	"github.com/claimsense/claimsense/internal/app"
	"github.com/claimsense/claimsense/internal/logging"
	"github.com/claimsense/claimsense/internal/settings"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// client is one websocket connection
type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

// Hub is the app.View of the bridge: every view call is broadcast to all
// connected browsers.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) ShowNavigation(nav app.Navigation) { h.broadcast(navigationEvent(nav)) }
func (h *Hub) ShowResult(result analysis.Result) { h.broadcast(resultEvent(result)) }
func (h *Hub) ShowSettings(s settings.Settings)  { h.broadcast(settingsEvent(s)) }
func (h *Hub) Notify(n app.Notification)         { h.broadcast(notificationEvent(n)) }

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logging.Error("Failed to encode bridge event", zap.String("type", e.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueue(c, data, e.Type)
	}
}

// sendTo queues e for one client only
func (h *Hub) sendTo(c *client, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logging.Error("Failed to encode bridge event", zap.String("type", e.Type), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.enqueue(c, data, e.Type)
	}
}

// enqueue must be called with h.mu held. A client that cannot keep up
// loses the event.
func (h *Hub) enqueue(c *client, data []byte, kind string) {
	select {
	case c.send <- data:
		logging.LogBridgeEvent(c.remote, "out", kind)
	default:
		logging.Warn("Bridge client too slow, dropping event",
			zap.String("remote_addr", c.remote),
			zap.String("type", kind),
		)
	}
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// writePump owns all writes to the connection. It exits when send is
// closed or a write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logging.Debug("Bridge write failed", zap.String("remote_addr", c.remote), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads commands until the connection fails, passing each to
// handle.
func (c *client) readPump(handle func(c *client, data []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("Bridge connection closed unexpectedly",
					zap.String("remote_addr", c.remote),
					zap.Error(err),
				)
			}
			return
		}
		if msgType != websocket.TextMessage {
			logging.LogRawBytes("Ignoring non-text bridge frame", data)
			continue
		}
		handle(c, data)
	}
}
