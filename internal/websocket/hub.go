package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/metrics"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients map: client ID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	// Outbound messages for every client
	broadcast chan []byte

	done chan struct{}

	// Guards clients for readers outside Run
	mu  sync.RWMutex
	log *logger.Logger
}

// NewHub creates a new Hub instance
func NewHub(baseLog *logger.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		log:        baseLog.With("component", "WebsocketHub"),
	}
}

// Run is the hub's main loop; it returns when ctx is cancelled and closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			metrics.WebsocketClients.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(n))
			h.log.Debug("websocket client connected", "client_id", client.ID, "clients", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(n))
			h.log.Debug("websocket client disconnected", "client_id", client.ID, "clients", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead
					close(client.send)
					delete(h.clients, id)
					h.log.Warn("dropping slow websocket client", "client_id", id)
				}
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebsocketClients.Set(float64(n))
		}
	}
}

// Broadcast sends v as JSON to every connected client. It never blocks
// once the hub has stopped.
func (h *Hub) Broadcast(v interface{}) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue registers c unless the hub has stopped
func (h *Hub) enqueue(ch chan *Client, c *Client) bool {
	select {
	case ch <- c:
		return true
	case <-h.done:
		return false
	}
}
