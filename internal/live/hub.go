package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultSubscriberBuffer = 64
	defaultWriteTimeout     = 10 * time.Second
	defaultPongTimeout      = 60 * time.Second
	maxInboundMessage       = 512
)

// Message is the envelope every realtime push uses.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// HubOptions tunes per-subscriber buffering and keepalive.
type HubOptions struct {
	// SubscriberBuffer is how many messages may queue for one slow client
	// before further messages to it are dropped.
	SubscriberBuffer int
	WriteTimeout     time.Duration
	// PongTimeout is how long a client may stay silent. Pings are sent at
	// 9/10 of it.
	PongTimeout time.Duration
	// CheckOrigin overrides the upgrader's origin check. Nil accepts all.
	CheckOrigin func(r *http.Request) bool
}

func (o HubOptions) normalized() HubOptions {
	n := o
	if n.SubscriberBuffer <= 0 {
		n.SubscriberBuffer = defaultSubscriberBuffer
	}
	if n.WriteTimeout <= 0 {
		n.WriteTimeout = defaultWriteTimeout
	}
	if n.PongTimeout <= 0 {
		n.PongTimeout = defaultPongTimeout
	}
	if n.CheckOrigin == nil {
		n.CheckOrigin = func(*http.Request) bool { return true }
	}
	return n
}

// Hub fans realtime messages out to websocket subscribers.
// Publish never blocks: a subscriber whose queue is full misses the message.
type Hub struct {
	opts     HubOptions
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	dropped atomic.Uint64
}

// NewHub creates a hub with no subscribers.
func NewHub(opts HubOptions) *Hub {
	opts = opts.normalized()
	return &Hub{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish encodes the message once and queues it for every subscriber.
func (h *Hub) Publish(event string, data any) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s message: %w", event, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.dropped.Add(1)
			slog.Warn("[Hub] Subscriber queue full, dropping message",
				"remote", c.remote,
				"event", event)
		}
	}
	return nil
}

// ServeWS upgrades the request and registers the connection as a subscriber.
// It returns once the connection's pumps are running.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.opts.SubscriberBuffer),
		remote: r.RemoteAddr,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(h.opts.WriteTimeout))
		return conn.Close()
	}
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	slog.Info("[Hub] Subscriber connected", "remote", c.remote, "subscribers", count)

	go c.writePump()
	go c.readPump()
	return nil
}

// Subscribers reports how many connections are registered.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped reports how many messages were dropped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	slog.Info("[Hub] Subscriber disconnected", "remote", c.remote, "subscribers", len(h.clients))
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte // closed by the hub on unregister
	remote string
}

// writePump is the only writer of conn.
func (c *client) writePump() {
	opts := c.hub.opts
	ticker := time.NewTicker(opts.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("[Hub] Write failed", "remote", c.remote, "error", err)
				c.hub.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("[Hub] Ping failed", "remote", c.remote, "error", err)
				c.hub.unregister(c)
				return
			}
		}
	}
}

// readPump drains inbound frames so pongs and close frames are processed.
// Subscribers have nothing to say; payloads are discarded.
func (c *client) readPump() {
	defer c.hub.unregister(c)

	pongTimeout := c.hub.opts.PongTimeout
	c.conn.SetReadLimit(maxInboundMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("[Hub] Read failed", "remote", c.remote, "error", err)
			}
			return
		}
	}
}
