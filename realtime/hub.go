// Package realtime pushes storefront events to connected admin dashboards
// over websockets.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 5 * time.Second
	// queueSize bounds the events waiting for delivery. Broadcasts beyond
	// it are dropped.
	queueSize = 64
)

// Event is the envelope written to every client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks connected clients and fans events out from a single delivery
// goroutine. It is safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	log      *zap.Logger

	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub accepts upgrades from allowedOrigins; an empty list accepts any
// origin.
func NewHub(log *zap.Logger, allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	h := &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		log:     log,
		events:  make(chan []byte, queueSize),
		done:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
	go h.run()
	return h
}

// Serve upgrades the request and keeps the client registered until it
// disconnects. Client messages are read and discarded.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.add(conn)
	defer h.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("websocket client connected", zap.Int("clients", n))
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues the event for delivery and returns without waiting on
// any client. A full queue drops the event.
func (h *Hub) Broadcast(eventType string, data any) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.log.Error("marshal websocket event", zap.String("type", eventType), zap.Error(err))
		return
	}

	select {
	case h.events <- payload:
	default:
		h.log.Warn("websocket queue full, dropping event", zap.String("type", eventType))
	}
}

// Close stops delivery and disconnects every client. Later broadcasts are
// dropped once the queue fills.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for conn := range h.clients {
			_ = conn.Close()
			delete(h.clients, conn)
		}
	})
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case payload := <-h.events:
			h.deliver(payload)
		}
	}
}

// deliver writes to a snapshot of the clients so that slow writes never hold
// the lock. Clients that fail the write are dropped.
func (h *Hub) deliver(payload []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("dropping websocket client", zap.Error(err))
			h.remove(conn)
			_ = conn.Close()
		}
	}
}
