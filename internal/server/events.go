package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is one pattern lifecycle notification pushed to /events
// subscribers.
type Event struct {
	Type        string    `json:"type"`
	PatternID   string    `json:"pattern_id,omitempty"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	Count       int       `json:"count,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Hub fans pattern lifecycle events out to websocket subscribers.
// Slow subscribers are dropped rather than blocking the broadcaster.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
	closed  bool
}

// NewHub creates an event hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for local dev
			},
		},
		clients: make(map[*websocket.Conn]chan Event),
	}
}

// ServeWS upgrades the request and streams events until the client
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	events := make(chan Event, 16)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = events
	h.mu.Unlock()

	h.logger.Debug("event subscriber connected", "remote", conn.RemoteAddr())

	// Reader goroutine: detect client disconnect and pings.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()

	for event := range events {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			h.remove(conn)
			return
		}
	}
	conn.Close()
}

// Broadcast sends an event to all connected subscribers. A subscriber
// with a full buffer misses the event instead of stalling everyone.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, events := range h.clients {
		select {
		case events <- event:
		default:
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	events, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(events)
	}
	h.mu.Unlock()
	conn.Close()
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for conn, events := range h.clients {
		close(events)
		conn.Close()
		delete(h.clients, conn)
	}
}
