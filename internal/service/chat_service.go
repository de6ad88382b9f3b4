package service

import (
	"context"
	"fmt"
	"time"

	"healthmate-be/internal/constant"
	"healthmate-be/internal/dto"
	"healthmate-be/internal/pkg/logger"
	"healthmate-be/pkg/events"
	"healthmate-be/pkg/llm"
	"healthmate-be/pkg/memory"
	pktNats "healthmate-be/pkg/nats"
	"healthmate-be/pkg/rag/contextbuilder"
	"healthmate-be/pkg/rag/retriever"
	"healthmate-be/pkg/rag/router"
	"healthmate-be/pkg/store"
)

type IChatService interface {
	SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

// Classifier is the routing decision the chat flow depends on.
type Classifier interface {
	Classify(ctx context.Context, message string) (router.Verdict, error)
}

// PassageRetriever is the slice of the retriever the chat flow depends on.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string, topK int, applyDedup bool) ([]store.Passage, error)
}

type ChatConfig struct {
	MaxHistoryMessages int
	Temperature        float64
	TopP               float64
}

type chatService struct {
	store          *memory.Store
	classifier     Classifier
	retriever      PassageRetriever
	builder        *contextbuilder.Builder
	llmProvider    llm.LLMProvider
	eventPublisher *pktNats.Publisher
	logger         logger.ILogger
	cfg            ChatConfig
}

func NewChatService(
	store *memory.Store,
	classifier Classifier,
	passageRetriever PassageRetriever,
	builder *contextbuilder.Builder,
	llmProvider llm.LLMProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	cfg ChatConfig,
) IChatService {
	if cfg.MaxHistoryMessages <= 0 {
		cfg.MaxHistoryMessages = 4
	}
	return &chatService{
		store:          store,
		classifier:     classifier,
		retriever:      passageRetriever,
		builder:        builder,
		llmProvider:    llmProvider,
		eventPublisher: eventPublisher,
		logger:         log,
		cfg:            cfg,
	}
}

// SendChat runs one full turn: persist the user message, classify it, generate
// through the medical or casual branch, persist the reply.
func (c *chatService) SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	conv, err := c.store.GetState(request.ConversationId, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	userMsg, err := c.store.AddMessage(request.ConversationId, constant.ChatMessageRoleUser, request.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	verdict, err := c.classifier.Classify(ctx, request.Message)
	if err != nil {
		return nil, err
	}

	history := c.buildHistory(conv.Messages, userMsg)

	var reply string
	var numPassages int
	var citations string
	branch := string(verdict.Decision)

	switch verdict.Decision {
	case router.DecisionMedical:
		reply, numPassages, citations, err = c.medicalReply(ctx, request.Message, history)
	default:
		reply, err = c.casualReply(ctx, history)
	}
	if err != nil {
		return nil, err
	}

	assistantMsg, err := c.store.AddMessage(request.ConversationId, constant.ChatMessageRoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to record assistant reply: %w", err)
	}

	if c.eventPublisher != nil {
		evt := events.ChatReplyCreatedEvent{
			ConversationId: request.ConversationId,
			MessageId:      assistantMsg.MessageId,
			Branch:         branch,
			NumPassages:    numPassages,
			OccurredAt:     time.Now(),
		}
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			c.logger.Warn("ChatService", "Failed to publish chat reply event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.SendChatResponse{
		ConversationId: request.ConversationId,
		Reply: &dto.ChatMessage{
			MessageId: assistantMsg.MessageId,
			Role:      assistantMsg.Role,
			Content:   assistantMsg.Content,
			Timestamp: assistantMsg.Timestamp,
		},
		Branch:      branch,
		NumPassages: numPassages,
		Citations:   citations,
	}, nil
}

// medicalReply retrieves knowledge and prompts the instructor persona. A
// retrieval failure is downgraded to the base prompt rather than failing the
// turn; empty retrieval likewise proceeds with base instructions only.
func (c *chatService) medicalReply(ctx context.Context, query string, history []llm.Message) (string, int, string, error) {
	passages, err := c.retriever.Retrieve(ctx, query, 0, true)
	if err != nil {
		c.logger.Warn("ChatService", "Retrieval failed, falling back to base instructions", map[string]interface{}{"error": err.Error()})
		passages = nil
	}

	result := c.builder.BuildContext(passages, true, "")

	systemPrompt := constant.InstructorSystemPrompt
	citations := ""
	if result.NumPassages > 0 {
		systemPrompt = fmt.Sprintf(constant.InstructorRAGPromptTemplate, result.Context, result.Citations, query)
		citations = retriever.FormatCitations(retriever.ExtractCitations(passages))
	}

	reply, err := c.generate(ctx, systemPrompt, history)
	if err != nil {
		return "", 0, "", err
	}
	return reply, result.NumPassages, citations, nil
}

func (c *chatService) casualReply(ctx context.Context, history []llm.Message) (string, error) {
	return c.generate(ctx, constant.ChatterSystemPrompt, history)
}

func (c *chatService) generate(ctx context.Context, systemPrompt string, history []llm.Message) (string, error) {
	messages := append([]llm.Message{{Role: constant.ChatMessageRoleSystem, Content: systemPrompt}}, history...)

	reply, err := c.llmProvider.Chat(ctx, messages,
		llm.WithTemperature(c.cfg.Temperature),
		llm.WithTopP(c.cfg.TopP),
	)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return reply, nil
}

// buildHistory keeps the most recent turns plus the message just appended.
func (c *chatService) buildHistory(previous []memory.Message, current memory.Message) []llm.Message {
	all := append(append([]memory.Message(nil), previous...), current)
	if len(all) > c.cfg.MaxHistoryMessages {
		all = all[len(all)-c.cfg.MaxHistoryMessages:]
	}

	history := make([]llm.Message, 0, len(all))
	for _, m := range all {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return history
}
