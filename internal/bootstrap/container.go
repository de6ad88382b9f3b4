package bootstrap

import (
	"context"
	"log"
	"path/filepath"

	"healthmate-be/internal/config"
	"healthmate-be/internal/controller"
	"healthmate-be/internal/pkg/logger"
	"healthmate-be/internal/repository/implementation"
	"healthmate-be/internal/service"
	"healthmate-be/internal/websocket"
	"healthmate-be/pkg/embedding"
	"healthmate-be/pkg/llm/factory"
	llmretry "healthmate-be/pkg/llm/retry"
	"healthmate-be/pkg/memory"
	pktNats "healthmate-be/pkg/nats"
	"healthmate-be/pkg/rag/contextbuilder"
	"healthmate-be/pkg/rag/retriever"
	"healthmate-be/pkg/rag/router"
	"healthmate-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	SessionController   controller.ISessionController
	KnowledgeController controller.IKnowledgeController

	// Background services (main.go runs these)
	ConsumerService service.IConsumerService
	NotifierService *service.NotifierService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus (in-process job queue)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	baseProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	// retries absorb rate limiting and timeouts on every completion call
	llmProvider := llmretry.Wrap(baseProvider)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Retrieval pipeline
	chunkRepo := implementation.NewDocumentChunkRepository(db)
	gateway := vectorstore.NewGateway(embeddingProvider, chunkRepo)

	passageRetriever := retriever.New(gateway, retriever.Options{
		TopK:                cfg.Rag.TopK,
		SimilarityThreshold: cfg.Rag.SimilarityThreshold,
		DedupThreshold:      cfg.Rag.DedupThreshold,
	})

	tokenCounter, err := contextbuilder.NewTiktokenCounter()
	if err != nil {
		log.Printf("[WARN] Tokenizer unavailable, falling back to estimator: %v", err)
		tokenCounter = contextbuilder.EstimatingCounter{}
	}
	builder := contextbuilder.NewBuilder(tokenCounter, cfg.Rag.MaxContextTokens)

	decisionRouter := router.New(llmProvider)

	// 5. Conversation state
	convStore, err := memory.NewStore(filepath.Join(cfg.Memory.StoragePath, "conversations.json"))
	if err != nil {
		log.Fatalf("[FATAL] Failed to open conversation store: %v", err)
	}

	// 6. Infrastructure: NATS + Redis
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// 7. WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 8. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.EmbedTopic)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.EmbedTopic,
		gateway,
		natsPub,
		sysLogger,
		cfg.Rag.ChunkSize,
		cfg.Rag.ChunkOverlap,
	)

	sessionService, err := service.NewSessionService(convStore, natsPub, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize session service: %v", err)
	}

	chatService := service.NewChatService(
		convStore,
		decisionRouter,
		passageRetriever,
		builder,
		llmProvider,
		natsPub,
		sysLogger,
		service.ChatConfig{
			MaxHistoryMessages: cfg.Memory.MaxHistoryMessages,
			Temperature:        cfg.Ai.Temperature,
			TopP:               cfg.Ai.TopP,
		},
	)

	knowledgeService := service.NewKnowledgeService(gateway, publisherService, sysLogger)

	var notifierService *service.NotifierService
	if natsSub != nil {
		notifierService = service.NewNotifierService(natsSub, wsHub, wsLogger)
	}

	// 9. Controllers
	return &Container{
		ChatController:      controller.NewChatController(chatService, wsHub),
		SessionController:   controller.NewSessionController(sessionService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),
		ConsumerService:     consumerService,
		NotifierService:     notifierService,
		WebSocketHub:        wsHub,
	}
}
