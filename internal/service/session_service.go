package service

import (
	"context"
	"fmt"
	"time"

	"healthmate-be/internal/constant"
	"healthmate-be/internal/dto"
	"healthmate-be/internal/pkg/logger"
	"healthmate-be/pkg/events"
	"healthmate-be/pkg/memory"
	pktNats "healthmate-be/pkg/nats"

	"github.com/google/uuid"
)

// ErrDefaultConversation is returned when a caller tries to delete the
// default conversation. The store itself has no default; the policy lives
// here.
var ErrDefaultConversation = fmt.Errorf("the default conversation cannot be deleted")

type ISessionService interface {
	CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context) ([]*dto.SessionResponse, error)
	GetMessages(ctx context.Context, conversationId string) (*dto.GetMessagesResponse, error)
	ClearSession(ctx context.Context, conversationId string) error
	DeleteSession(ctx context.Context, conversationId string) error
	DefaultSessionId() string
}

type sessionService struct {
	store          *memory.Store
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	defaultId      string
}

// NewSessionService resolves or creates the default conversation at
// construction so DefaultSessionId is always answerable.
func NewSessionService(store *memory.Store, eventPublisher *pktNats.Publisher, log logger.ILogger) (ISessionService, error) {
	s := &sessionService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         log,
	}

	if id, ok := store.FindByTitle(constant.DefaultConversationTitle); ok {
		s.defaultId = id
	} else {
		id := uuid.NewString()
		if _, err := store.GetState(id, constant.DefaultConversationTitle); err != nil {
			return nil, fmt.Errorf("failed to create default conversation: %w", err)
		}
		s.defaultId = id
		log.Info("SessionService", "Created default conversation", map[string]interface{}{"conversation_id": id})
	}

	return s, nil
}

func (s *sessionService) DefaultSessionId() string {
	return s.defaultId
}

func (s *sessionService) CreateSession(ctx context.Context, request *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	id := uuid.NewString()
	conv, err := s.store.GetState(id, request.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.eventPublisher != nil {
		evt := events.ConversationCreatedEvent{
			ConversationId: id,
			Title:          conv.Title,
			OccurredAt:     time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("SessionService", "Failed to publish conversation created event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.CreateSessionResponse{ConversationId: id, Title: conv.Title}, nil
}

func (s *sessionService) GetAllSessions(_ context.Context) ([]*dto.SessionResponse, error) {
	sessions := s.store.ListSessions()
	responses := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, &dto.SessionResponse{
			ConversationId: session.ConversationId,
			Title:          session.Title,
			MessageCount:   session.MessageCount,
		})
	}
	return responses, nil
}

func (s *sessionService) GetMessages(_ context.Context, conversationId string) (*dto.GetMessagesResponse, error) {
	messages, err := s.store.GetMessages(conversationId)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, dto.ChatMessage{
			MessageId: m.MessageId,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return &dto.GetMessagesResponse{ConversationId: conversationId, Messages: out}, nil
}

// ClearSession empties the message log; clearing the default conversation is
// allowed, only deletion is protected.
func (s *sessionService) ClearSession(_ context.Context, conversationId string) error {
	cleared, err := s.store.ClearMessages(conversationId)
	if err != nil {
		return err
	}
	if !cleared {
		return fmt.Errorf("%w: %s", memory.ErrConversationNotFound, conversationId)
	}
	return nil
}

func (s *sessionService) DeleteSession(_ context.Context, conversationId string) error {
	if conversationId == s.defaultId {
		return ErrDefaultConversation
	}

	deleted, err := s.store.DeleteConversation(conversationId)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s", memory.ErrConversationNotFound, conversationId)
	}
	return nil
}
