// Package statusapi exposes a small read-only HTTP/WebSocket surface for
// operational visibility into a running modbus.Server: liveness, point-in-
// time counters, and a connection-lifecycle event stream. It never serves
// coil or register values — spec.md's Non-goals forbid a channel that
// reads back what a client wrote, and this surface is built so that there
// is no code path through which a register value could reach it.
package statusapi

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// EventKind distinguishes the two connection-lifecycle events the hub
// broadcasts.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
)

// Event is a single connection-lifecycle notification. It carries no
// register or coil data — only metadata about the TCP connection itself.
type Event struct {
	Kind      EventKind `json:"kind"`
	ConnID    string    `json:"conn_id"`
	Remote    string    `json:"remote"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans out Events to any number of connected WebSocket clients,
// following the register/unregister/broadcast channel pattern common to
// this corpus's fiber-based services.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]chan Event
	register   chan client
	unregister chan string
	broadcast  chan Event
}

type client struct {
	id string
	ch chan Event
}

// NewHub constructs a Hub. Call Run on its own goroutine before serving
// any /ws/events connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]chan Event),
		register:   make(chan client),
		unregister: make(chan string),
		broadcast:  make(chan Event, 256),
	}
}

// Run drives the hub's registration and fan-out loop until stop is
// closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c.ch
			h.mu.Unlock()
		case id := <-h.unregister:
			h.mu.Lock()
			if ch, ok := h.clients[id]; ok {
				delete(h.clients, id)
				close(ch)
			}
			h.mu.Unlock()
		case ev := <-h.broadcast:
			h.mu.RLock()
			for _, ch := range h.clients {
				select {
				case ch <- ev:
				default: // slow client, drop rather than block the hub
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish enqueues an event for delivery to every connected client.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default: // hub backlog full; drop rather than block the caller
	}
}

// ClientCount reports how many WebSocket clients are currently attached.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket serves one /ws/events connection until the client
// disconnects.
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	id := fmt.Sprintf("%p", c)
	ch := make(chan Event, 16)
	h.register <- client{id: id, ch: ch}
	defer func() { h.unregister <- id }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
