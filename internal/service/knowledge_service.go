package service

import (
	"context"
	"encoding/json"
	"fmt"

	"healthmate-be/internal/dto"
	"healthmate-be/internal/pkg/logger"
	"healthmate-be/pkg/vectorstore"
)

type IKnowledgeService interface {
	IngestDocument(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	DeleteSource(ctx context.Context, source string) error
	Stats(ctx context.Context) (*dto.KnowledgeStatsResponse, error)
}

type knowledgeService struct {
	gateway          *vectorstore.Gateway
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewKnowledgeService(gateway *vectorstore.Gateway, publisherService IPublisherService, log logger.ILogger) IKnowledgeService {
	return &knowledgeService{
		gateway:          gateway,
		publisherService: publisherService,
		logger:           log,
	}
}

// IngestDocument queues the document for embedding. Chunking and indexing
// happen on the consumer side.
func (k *knowledgeService) IngestDocument(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	payload := dto.EmbedJobPayload{
		Source:  request.Source,
		Path:    request.Path,
		Pages:   request.Pages,
		Content: request.Content,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed job: %w", err)
	}

	if err := k.publisherService.Publish(ctx, payloadJson); err != nil {
		return nil, fmt.Errorf("failed to queue embed job: %w", err)
	}

	k.logger.Info("KnowledgeService", "Queued document for embedding", map[string]interface{}{"source": request.Source})
	return &dto.IngestDocumentResponse{Source: request.Source, Queued: true}, nil
}

func (k *knowledgeService) DeleteSource(ctx context.Context, source string) error {
	return k.gateway.DeleteSource(ctx, source)
}

func (k *knowledgeService) Stats(ctx context.Context) (*dto.KnowledgeStatsResponse, error) {
	count, err := k.gateway.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	sources, err := k.gateway.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return &dto.KnowledgeStatsResponse{NumChunks: count, Sources: sources}, nil
}
