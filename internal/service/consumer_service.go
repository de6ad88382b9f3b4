package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthmate-be/internal/dto"
	"healthmate-be/internal/pkg/logger"
	"healthmate-be/pkg/events"
	pktNats "healthmate-be/pkg/nats"
	"healthmate-be/pkg/store"
	"healthmate-be/pkg/utils"
	"healthmate-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the embed-job queue: chunk, embed, index.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	gateway        *vectorstore.Gateway
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	chunkSize      int
	chunkOverlap   int
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	gateway *vectorstore.Gateway,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	chunkSize int,
	chunkOverlap int,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		gateway:        gateway,
		eventPublisher: eventPublisher,
		logger:         log,
		chunkSize:      chunkSize,
		chunkOverlap:   chunkOverlap,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmbedJobPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal embed job", map[string]interface{}{"error": err.Error()})
		// a malformed job will never parse; ack so it does not loop forever
		msg.Ack()
		return
	}

	cs.logger.Info("ConsumerService", "Processing embed job", map[string]interface{}{"source": payload.Source})

	// re-ingesting a source replaces its old chunks
	if err := cs.gateway.DeleteSource(ctx, payload.Source); err != nil {
		cs.logger.Error("ConsumerService", "Failed to clear previous chunks", map[string]interface{}{"source": payload.Source, "error": err.Error()})
		msg.Nack()
		return
	}

	chunks := utils.SplitText(payload.Content, cs.chunkSize, cs.chunkOverlap)

	texts := make([]string, 0, len(chunks))
	metadatas := make([]store.ChunkMetadata, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		texts = append(texts, chunk)
		metadatas = append(metadatas, store.ChunkMetadata{
			Source:      payload.Source,
			Path:        payload.Path,
			Pages:       payload.Pages,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
		})
		ids = append(ids, fmt.Sprintf("%s_chunk_%d", payload.Source, i))
	}

	if _, err := cs.gateway.AddDocuments(ctx, texts, metadatas, ids); err != nil {
		cs.logger.Error("ConsumerService", "Failed to index document", map[string]interface{}{"source": payload.Source, "error": err.Error()})
		msg.Nack()
		return
	}

	cs.logger.Info("ConsumerService", "Indexed document", map[string]interface{}{"source": payload.Source, "num_chunks": len(chunks)})

	if cs.eventPublisher != nil {
		evt := events.KnowledgeIngestedEvent{
			Source:     payload.Source,
			NumChunks:  len(chunks),
			OccurredAt: time.Now(),
		}
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish knowledge ingested event", map[string]interface{}{"error": err.Error()})
		}
	}

	msg.Ack()
}
