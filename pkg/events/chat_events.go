package events

import "time"

const (
	TypeChatReplyCreated    = "CHAT_REPLY_CREATED"
	TypeConversationCreated = "CONVERSATION_CREATED"
	TypeKnowledgeIngested   = "KNOWLEDGE_INGESTED"
)

// ChatReplyCreatedEvent fires after an assistant reply is persisted to a
// conversation, so listeners (notifier, audit log) can react without sitting
// in the request path.
type ChatReplyCreatedEvent struct {
	ConversationId string
	MessageId      string
	Branch         string // "medical" or "casual"
	NumPassages    int
	OccurredAt     time.Time
}

func (e ChatReplyCreatedEvent) EventType() string { return TypeChatReplyCreated }

func (e ChatReplyCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"conversation_id": e.ConversationId,
		"message_id":      e.MessageId,
		"branch":          e.Branch,
		"num_passages":    e.NumPassages,
	}
}

func (e ChatReplyCreatedEvent) Timestamp() time.Time { return e.OccurredAt }

// ConversationCreatedEvent fires when a new session is created.
type ConversationCreatedEvent struct {
	ConversationId string
	Title          string
	OccurredAt     time.Time
}

func (e ConversationCreatedEvent) EventType() string { return TypeConversationCreated }

func (e ConversationCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"conversation_id": e.ConversationId,
		"title":           e.Title,
	}
}

func (e ConversationCreatedEvent) Timestamp() time.Time { return e.OccurredAt }

// KnowledgeIngestedEvent fires after a source document's chunks land in the
// vector index.
type KnowledgeIngestedEvent struct {
	Source     string
	NumChunks  int
	OccurredAt time.Time
}

func (e KnowledgeIngestedEvent) EventType() string { return TypeKnowledgeIngested }

func (e KnowledgeIngestedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"source":     e.Source,
		"num_chunks": e.NumChunks,
	}
}

func (e KnowledgeIngestedEvent) Timestamp() time.Time { return e.OccurredAt }
