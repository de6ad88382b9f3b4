package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"healthmate-be/internal/dto"
	"healthmate-be/internal/service"

	"github.com/gofiber/websocket/v2"
)

const (
	// SentinelDone terminates a successful stream; SentinelError terminates a
	// failed one. Nothing follows either.
	SentinelDone  = "__DONE__"
	SentinelError = "__ERROR__"

	chatTurnTimeout = 120 * time.Second
)

// ServeWs attaches one websocket connection to the hub and the chat flow.
// Each inbound frame is a chat payload; the reply streams back in word
// chunks followed by a terminal sentinel.
func ServeWs(hub *Hub, c *websocket.Conn, conversationId string, chatService service.IChatService) {
	client := newClient(hub, c, conversationId)
	client.handleInbound = func(data []byte) {
		handleChatFrame(client, chatService, data)
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}

// handleChatFrame validates the payload before any model work, runs the turn,
// and streams the reply. A connected peer always sees either SentinelDone or
// an error frame followed by SentinelError; a peer that disconnected
// mid-stream just ends the stream.
func handleChatFrame(client *Client, chatService service.IChatService, data []byte) {
	var payload dto.WsChatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		sendError(client, "invalid payload: expected JSON with conversation_id and message")
		return
	}
	if payload.ConversationId == "" {
		payload.ConversationId = client.ConversationId
	}
	if strings.TrimSpace(payload.Message) == "" || payload.ConversationId == "" {
		sendError(client, "both conversation_id and message are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), chatTurnTimeout)
	defer cancel()

	response, err := chatService.SendChat(ctx, &dto.SendChatRequest{
		ConversationId: payload.ConversationId,
		Message:        payload.Message,
	})
	if err != nil {
		sendError(client, err.Error())
		return
	}

	streamReply(client, response.Reply.Content)
}

// streamReply emits the reply word by word, then the completion sentinel.
// Stops as soon as the client shuts down mid-stream.
func streamReply(client *Client, reply string) {
	for _, word := range strings.Fields(reply) {
		if !client.enqueue([]byte(word + " ")) {
			return
		}
	}
	client.enqueue([]byte(SentinelDone))
}

func sendError(client *Client, message string) {
	frame, _ := json.Marshal(map[string]string{"error": message})
	if !client.enqueue(frame) {
		return
	}
	client.enqueue([]byte(SentinelError))
}
