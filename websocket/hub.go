package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/ideuxs/toumai-admin/models"
)

// BroadcastMessage is the envelope sent to connected consoles.
type BroadcastMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub manages WebSocket connections and broadcasts moderation events to
// every connected admin console.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to all clients
	broadcast chan []byte

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mutex sync.RWMutex

	connectedClients int
	eventsBroadcast  int
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			log.Infof("Console connected. Total clients: %d", h.connectedClients)

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			log.Infof("Console disconnected. Total clients: %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
		}
	}
}

// RecordModerationEvent broadcasts a moderation event to all connected
// consoles. Implements the controller's event sink contract; a hub with no
// listeners is a successful no-op.
func (h *Hub) RecordModerationEvent(_ context.Context, ev models.ModerationEvent) error {
	message := BroadcastMessage{
		Type:      "moderation_event",
		Data:      ev,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mutex.Lock()
	h.eventsBroadcast++
	h.mutex.Unlock()

	h.broadcast <- data
	return nil
}

// GetStats returns current hub statistics.
func (h *Hub) GetStats() (int, int) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.eventsBroadcast
}
