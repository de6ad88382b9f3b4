package dto

type CreateSessionRequest struct {
	Title string `json:"title" validate:"required"`
}

type CreateSessionResponse struct {
	ConversationId string `json:"conversation_id"`
	Title          string `json:"title"`
}

type SessionResponse struct {
	ConversationId string `json:"conversation_id"`
	Title          string `json:"title"`
	MessageCount   int    `json:"message_count"`
}

type GetMessagesResponse struct {
	ConversationId string        `json:"conversation_id"`
	Messages       []ChatMessage `json:"messages"`
}

type DefaultSessionResponse struct {
	ConversationId string `json:"conversation_id"`
}
