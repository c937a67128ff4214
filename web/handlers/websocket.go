package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// ChangeEvent is the message broadcast to WebSocket clients whenever the
// contact list changes. Clients use it to invalidate cached dashboards.
type ChangeEvent struct {
	Type      string    `json:"type"` // contact.created, contact.updated, contact.deleted, contact.bulk_status, card.changed
	ContactID string    `json:"contact_id,omitempty"`
	Time      time.Time `json:"time"`
}

// subscriber receives broadcast frames. deliver must not block; it reports
// false when the subscriber cannot keep up and should be dropped.
type subscriber interface {
	deliver(msg []byte) bool
	shutdown()
}

// WebSocketHub fans change events out to connected dashboards. Subscribers
// that fall behind are dropped rather than allowed to stall a broadcast.
type WebSocketHub struct {
	allowedOrigins []string

	mu     sync.Mutex
	subs   map[subscriber]struct{}
	closed bool
}

// NewWebSocketHub creates a hub. allowedOrigins lists the host:port origins
// permitted to upgrade; an empty list allows same-host only.
func NewWebSocketHub(allowedOrigins []string) *WebSocketHub {
	return &WebSocketHub{
		allowedOrigins: allowedOrigins,
		subs:           make(map[subscriber]struct{}),
	}
}

// Register adds a subscriber to the hub.
func (h *WebSocketHub) Register(s subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.shutdown()
		return
	}
	h.subs[s] = struct{}{}
	log.Printf("WebSocket client connected (total: %d)", len(h.subs))
}

// Unregister removes a subscriber. Safe to call more than once.
func (h *WebSocketHub) Unregister(s subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	s.shutdown()
	log.Printf("WebSocket client disconnected (total: %d)", len(h.subs))
}

// Stop disconnects every subscriber and refuses further upgrades.
func (h *WebSocketHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		s.shutdown()
	}
	h.subs = make(map[subscriber]struct{})
}

// BroadcastChange stamps a ChangeEvent and sends it to every subscriber.
func (h *WebSocketHub) BroadcastChange(eventType, contactID string) {
	data, err := json.Marshal(ChangeEvent{
		Type:      eventType,
		ContactID: contactID,
		Time:      time.Now(),
	})
	if err != nil {
		log.Printf("ERROR: Failed to marshal WebSocket message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.deliver(data) {
			delete(h.subs, s)
			s.shutdown()
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" && len(h.allowedOrigins) > 0 {
		ok := false
		for _, o := range h.allowedOrigins {
			if origin == "http://"+o || origin == "https://"+o {
				ok = true
				break
			}
		}
		if !ok {
			http.Error(w, "Forbidden: invalid origin", http.StatusForbidden)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		log.Printf("ERROR: WebSocket upgrade failed: %v", err)
		return
	}

	c := &wsClient{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.Register(c)

	go c.writeLoop()
	go c.readLoop()
}

// wsClient is one live WebSocket connection.
type wsClient struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan []byte

	once sync.Once
}

func (c *wsClient) deliver(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *wsClient) shutdown() {
	c.once.Do(func() { close(c.send) })
}

// writeLoop drains the send buffer into the connection. Ends when the hub
// closes the buffer or a write fails.
func (c *wsClient) writeLoop() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for msg := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			return
		}
	}
}

// readLoop discards inbound frames; its only job is noticing disconnects.
func (c *wsClient) readLoop() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		if _, _, err := c.conn.Read(context.Background()); err != nil {
			return
		}
	}
}

// MockClient is a test subscriber backed by a plain channel.
type MockClient struct {
	SendChan chan []byte
}

func (m *MockClient) deliver(msg []byte) bool {
	select {
	case m.SendChan <- msg:
		return true
	default:
		return false
	}
}

func (m *MockClient) shutdown() {}
