package bootstrap

import (
	"context"
	"log"

	"rag-chat-be/internal/config"
	"rag-chat-be/internal/controller"
	"rag-chat-be/internal/handler"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/implementation"
	"rag-chat-be/internal/repository/memory"
	"rag-chat-be/internal/repository/redisstore"
	"rag-chat-be/internal/service"
	"rag-chat-be/internal/websocket"
	"rag-chat-be/pkg/embedding"
	"rag-chat-be/pkg/embedding/jina"
	"rag-chat-be/pkg/llm/factory"

	pktNats "rag-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	ChatWsHandler *handler.ChatWsHandler
	WsHub         *websocket.Hub
}

// NewContainer wires the query pipeline. db may be nil when Postgres is
// disabled; retrieval and the durable log then fall back to in-process stores.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.EmbeddingModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	} else if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: JINA AI (%s)", cfg.Ai.EmbeddingModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis backs the session cache and embedding cache; without it both
	// fall back to process-local caches.
	var sessionStore contract.SessionStore
	var embedCache contract.EmbeddingCache
	rdb := connectRedis(cfg.App.RedisURL)
	if rdb != nil {
		sessionStore = redisstore.NewSessionStore(rdb)
		embedCache = redisstore.NewEmbeddingCache(rdb)
	} else {
		log.Printf("[WARN] Redis unavailable, using in-memory session and embedding stores")
		sessionStore = memory.NewSessionStore(cfg.Rag.SessionTTL)
		embedCache = memory.NewEmbeddingCache(cfg.Rag.EmbeddingTTL)
	}

	var passageRepo contract.PassageRepository
	var chatLogRepo contract.ChatLogRepository
	if db != nil {
		passageRepo = implementation.NewPassageRepository(db)
		chatLogRepo = implementation.NewChatLogRepository(db)
	} else {
		log.Printf("[WARN] Postgres disabled, retrieval and durable log run in memory")
		passageRepo = memory.NewPassageRepository()
		chatLogRepo = memory.NewChatLogRepository()
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/chat_ws.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.TurnTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.TurnTopic,
		chatLogRepo,
		natsPub,
		sysLogger,
	)

	ragService := service.NewRagService(
		embeddingProvider,
		embedCache,
		passageRepo,
		sessionStore,
		chatLogRepo,
		llmProvider,
		publisherService,
		sysLogger,
		cfg.Rag,
	)

	chatWsHandler := handler.NewChatWsHandler(ragService, wsHub, wsLogger)

	return &Container{
		ChatController:  controller.NewChatController(ragService),
		ConsumerService: consumerService,
		ChatWsHandler:   chatWsHandler,
		WsHub:           wsHub,
	}
}

func connectRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		return nil
	}
	return rdb
}
