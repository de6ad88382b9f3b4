package dto

type SendChatRequest struct {
	ConversationId string `json:"conversation_id" validate:"required"`
	Message        string `json:"message" validate:"required"`
}

type SendChatResponse struct {
	ConversationId string       `json:"conversation_id"`
	Reply          *ChatMessage `json:"reply"`
	Branch         string       `json:"branch"` // "medical" | "casual"
	NumPassages    int          `json:"num_passages"`
	Citations      string       `json:"citations,omitempty"`
}

type ChatMessage struct {
	MessageId string `json:"message_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// WsChatPayload is the inbound websocket frame.
type WsChatPayload struct {
	ConversationId string `json:"conversation_id"`
	Message        string `json:"message"`
}
