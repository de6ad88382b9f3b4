package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"healthmate-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// Hub tracks connected clients per conversation. With Redis configured,
// frames are also published to a cluster channel so clients attached to
// another instance still receive them; without Redis it degrades to
// single-instance delivery.
type Hub struct {
	// ConversationId -> clients (a conversation can be open in several tabs)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ConversationId] = append(h.clients[client.ConversationId], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"conversation_id": client.ConversationId})

		case client := <-h.unregister:
			// shutdown is idempotent: readPump and a full-buffer drop can
			// both unregister the same client.
			client.shutdown()
			h.mu.Lock()
			if clients, ok := h.clients[client.ConversationId]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ConversationId] = append(clients[:i], clients[i+1:]...)
						break
					}
				}
				if len(h.clients[client.ConversationId]) == 0 {
					delete(h.clients, client.ConversationId)
					h.logger.Info("Hub", "Conversation has no clients left", map[string]interface{}{"conversation_id": client.ConversationId})
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToConversation delivers a frame to every client attached to the
// conversation, locally and via the cluster channel.
func (h *Hub) SendToConversation(conversationId string, payload []byte) {
	h.deliverLocal(conversationId, payload)

	if h.rdb != nil {
		wrapped, _ := json.Marshal(map[string]interface{}{
			"target_conversation_id": conversationId,
			"message":                json.RawMessage(payload),
		})
		h.rdb.Publish(context.Background(), clusterChannel, wrapped)
	}
}

// Broadcast delivers a frame to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.deliverLocal(id, payload)
	}

	if h.rdb != nil {
		wrapped, _ := json.Marshal(map[string]interface{}{
			"target_conversation_id": "*",
			"message":                json.RawMessage(payload),
		})
		h.rdb.Publish(context.Background(), clusterChannel, wrapped)
	}
}

func (h *Hub) deliverLocal(conversationId string, payload []byte) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[conversationId]...)
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"conversation_id": conversationId})
			h.unregister <- client
		}
	}
}

// subscribeToRedis relays cluster frames to local clients. Frames published
// by this instance come back on the channel as well; notification traffic
// tolerates the occasional duplicate.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetConversationId string          `json:"target_conversation_id"`
			Message              json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.TargetConversationId == "*" {
			h.mu.RLock()
			ids := make([]string, 0, len(h.clients))
			for id := range h.clients {
				ids = append(ids, id)
			}
			h.mu.RUnlock()
			for _, id := range ids {
				h.deliverLocal(id, payload.Message)
			}
			continue
		}

		h.deliverLocal(payload.TargetConversationId, payload.Message)
	}
}
