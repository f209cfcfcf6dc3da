package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/floor/pkg"
)

// Event is the frame pushed to terminals.
type Event struct {
	Type    string          `json:"type"`
	TableID string          `json:"tableId,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans floor events out to connected terminals. A client that asked for
// a single table only receives events for that table and floor-wide events.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu     sync.RWMutex
	logger apt.Logger
	done   chan struct{}
	once   sync.Once
}

func NewHub(logger apt.Logger) *Hub {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

func (h *Hub) Start(ctx context.Context) error {
	go h.Run(ctx)
	h.logger.Info("websocket hub started")
	return nil
}

func (h *Hub) Stop(ctx context.Context) error {
	h.once.Do(func() { close(h.done) })
	return nil
}

// Run processes registrations and broadcasts until ctx ends or Stop is
// called. Remaining clients are disconnected on exit.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.once.Do(func() { close(h.done) })
		h.closeAll()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("cannot marshal websocket event", "error", err, "type", event.Type)
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				if !client.wants(event) {
					continue
				}
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Publish forwards a floor event payload to connected terminals. It never
// blocks past ctx.
func (h *Hub) Publish(ctx context.Context, topic string, msg []byte) error {
	var floorEvent pkg.FloorEvent
	if err := json.Unmarshal(msg, &floorEvent); err != nil {
		return fmt.Errorf("cannot decode floor event on %s: %w", topic, err)
	}

	event := Event{
		Type:    floorEvent.EventType,
		TableID: floorEvent.TableID,
		Payload: json.RawMessage(msg),
	}

	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount reports the number of connected terminals.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
