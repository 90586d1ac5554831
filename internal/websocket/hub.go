package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"mythos-curation-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Hub fans curation events out to WebSocket subscribers. Clients subscribe
// per curation session; every state-machine transition and analysis
// sub-state change for that session is pushed as a JSON event.
type Hub struct {
	// Registered clients map: SessionID -> List of Clients (multi-tab)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// In-process event bus carrying curation events from the service
	pubSub    *gochannel.GoChannel
	topicName string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		pubSub:     pubSub,
		topicName:  topicName,
		logger:     log,
	}
}

func (h *Hub) Run() {
	go h.consumeBus()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						// Remove from slice
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// consumeBus routes curation events from the watermill bus to the clients
// subscribed to the event's session.
func (h *Hub) consumeBus() {
	messages, err := h.pubSub.Subscribe(context.Background(), h.topicName)
	if err != nil {
		h.logger.Error("Hub", "Failed to subscribe to event bus", map[string]interface{}{"error": err.Error()})
		return
	}

	for msg := range messages {
		var envelope struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
			h.logger.Warn("Hub", "Dropping malformed bus message", map[string]interface{}{"error": err.Error()})
			msg.Ack()
			continue
		}

		sessionID, _ := envelope.Data["session_id"].(string)
		if sessionID != "" {
			h.send(sessionID, msg.Payload)
		}
		msg.Ack()
	}
}

// send delivers a payload to every client of one session.
func (h *Hub) send(sessionID string, data []byte) {
	h.mu.RLock()
	clients, found := h.clients[sessionID]
	h.mu.RUnlock()

	if !found {
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping message", map[string]interface{}{"session_id": sessionID})
			close(client.Send)
			h.unregister <- client
		}
	}
}
