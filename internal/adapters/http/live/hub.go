// Package live pushes published snapshots to browsers over websockets.
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	repository "github.com/okian/tagboard/internal/adapters/repository"
	"github.com/okian/tagboard/internal/domain/types"
	"github.com/okian/tagboard/pkg/logger"
	"github.com/okian/tagboard/pkg/metrics"
)

const (
	sendBuffer = 8
	writeWait  = 5 * time.Second
)

// Source is where the hub reads snapshots from.
type Source interface {
	Snapshot() *repository.Snapshot
	Subscribe() (<-chan *repository.Snapshot, func())
}

// Message is the JSON frame sent to clients.
type Message struct {
	Type         string             `json:"type"`
	Version      uint64             `json:"version"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Holder       string             `json:"holder,omitempty"`
	Events       int                `json:"events"`
	Entries      []types.Entry      `json:"entries"`
	Achievements types.Achievements `json:"achievements"`
}

// NewMessage builds the board frame for snap.
func NewMessage(snap *repository.Snapshot) Message {
	return Message{
		Type:         "board",
		Version:      snap.Version,
		GeneratedAt:  snap.GeneratedAt,
		Holder:       snap.Holder,
		Events:       snap.Events,
		Entries:      snap.Entries,
		Achievements: snap.Achievements,
	}
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// Hub fans snapshots out to connected clients. Slow clients are dropped.
type Hub struct {
	source   Source
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	logger logger.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithCheckOrigin overrides the upgrader's origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// NewHub creates a hub reading from src.
func NewHub(src Source, opts ...Option) *Hub {
	h := &Hub{
		source: src,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("live")
	}
	return h
}

// Start subscribes to the source and forwards snapshots until ctx is done,
// then disconnects everyone.
func (h *Hub) Start(ctx context.Context) {
	snaps, cancel := h.source.Subscribe()
	go func() {
		defer cancel()
		defer h.closeAll()

		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				h.broadcast(NewMessage(snap))
			}
		}
	}()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams board frames to it. The current
// board is sent first.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		metrics.RecordErrorByComponent("live", "upgrade")
		return
	}

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	c.send <- NewMessage(h.source.Snapshot())
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	metrics.UpdateLiveClients(len(h.clients))
}

// unregisterLocked assumes h.mu is already held.
func (h *Hub) unregisterLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.UpdateLiveClients(len(h.clients))
}

func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
			metrics.RecordLiveMessage()
		default:
			h.unregisterLocked(c)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.unregisterLocked(c)
		_ = c.conn.Close()
	}
}

// readPump only watches for the peer going away; clients send nothing.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		h.unregisterLocked(c)
		h.mu.Unlock()
		_ = c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
