package service

import (
	"context"
	"encoding/json"
	"time"

	"healthmate-be/internal/pkg/logger"
	"healthmate-be/pkg/events"
	pktNats "healthmate-be/pkg/nats"
)

// NotificationDelivery pushes real-time frames to connected clients.
// Implemented by the websocket hub.
type NotificationDelivery interface {
	SendToConversation(conversationId string, payload []byte)
	Broadcast(payload []byte)
}

// NotifierService relays bus events to websocket clients, so a UI can show
// activity (replies persisted, knowledge indexed) without polling.
type NotifierService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotifierService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotifierService {
	return &NotifierService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus with a durable consumer.
func (s *NotifierService) Start() {
	err := s.subscriber.Subscribe("events.>", "notifier-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotifierService", "Failed to start event subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotifierService", "Listening to events.>", nil)
}

func (s *NotifierService) handleEvent(_ context.Context, event events.Event) error {
	frame, err := json.Marshal(map[string]interface{}{
		"type":        event.EventType(),
		"data":        event.Payload(),
		"occurred_at": event.Timestamp().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if id, ok := event.Payload()["conversation_id"].(string); ok && id != "" {
		s.delivery.SendToConversation(id, frame)
		return nil
	}
	s.delivery.Broadcast(frame)
	return nil
}
