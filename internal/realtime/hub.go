// Package realtime fans change notifications out to connected WebSocket
// clients so open pages can reload when the data underneath them moves.
package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/project-mc/server/pkg/metrics"
)

// Hub maintains the set of connected clients and routes change events to
// the clients belonging to the affected owner.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan ChangeEvent
	register   chan *Client
	unregister chan *Client

	log     *zap.Logger
	metrics *metrics.Collector
	mu      sync.RWMutex
}

func NewHub(log *zap.Logger, collector *metrics.Collector) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan ChangeEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
		metrics:    collector,
	}
}

// Run is the hub's event loop; call it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.metrics.RealtimeClients.Set(float64(total))
			h.log.Debug("realtime client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.metrics.RealtimeClients.Set(float64(total))
			h.log.Debug("realtime client disconnected", zap.Int("total", total))

		case event := <-h.broadcast:
			payload, err := event.JSON()
			if err != nil {
				h.log.Error("failed to encode change event", zap.Error(err))
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				if client.ownerID != event.OwnerID {
					continue
				}
				select {
				case client.send <- payload:
				default:
					// Send buffer full; drop the client, it will reconnect.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish enqueues a change event. Never blocks; under pressure the event
// is dropped and clients catch up on their next reload.
func (h *Hub) Publish(event ChangeEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Warn("realtime broadcast buffer full, dropping event",
			zap.String("table", event.Table),
			zap.String("action", string(event.Action)),
		)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Notifier is the narrow interface services use to publish changes.
type Notifier interface {
	Publish(event ChangeEvent)
}

// NopNotifier discards events; used in tests.
type NopNotifier struct{}

func (NopNotifier) Publish(ChangeEvent) {}

var _ Notifier = (*Hub)(nil)
