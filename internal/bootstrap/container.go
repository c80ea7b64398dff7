package bootstrap

import (
	"context"
	"fmt"
	"log"

	"flowershop-chat-be/internal/config"
	"flowershop-chat-be/internal/controller"
	"flowershop-chat-be/internal/pkg/logger"
	"flowershop-chat-be/internal/repository/contract"
	"flowershop-chat-be/internal/repository/implementation"
	"flowershop-chat-be/internal/repository/memory"
	"flowershop-chat-be/internal/repository/unitofwork"
	"flowershop-chat-be/internal/service"
	"flowershop-chat-be/internal/websocket"
	"flowershop-chat-be/pkg/embedding"
	"flowershop-chat-be/pkg/embedding/jina"
	"flowershop-chat-be/pkg/llm/factory"
	"flowershop-chat-be/pkg/rag/search"
	"flowershop-chat-be/pkg/rag/session"

	pktNats "flowershop-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatbotController controller.IChatbotController
	CatalogController controller.ICatalogController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	IngestionService service.IIngestionService

	CatalogBackend    string
	CatalogRepository contract.CatalogRecordRepository
	SessionRepository *memory.SessionRepository

	// Optional infrastructure, nil when unreachable
	Subscriber   *pktNats.Subscriber
	Redis        *redis.Client
	WebSocketHub *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewEmbeddingProvider selects the provider named by EMBEDDING_PROVIDER.
func NewEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		baseURL := cfg.Ai.EmbeddingBaseURL
		if baseURL == "" {
			baseURL = cfg.Ai.OllamaBaseURL
		}
		return embedding.NewOllamaProvider(baseURL, cfg.Ai.EmbeddingModel), nil
	case "jina":
		return jina.NewJinaProvider(cfg.Keys.Jina, cfg.Ai.EmbeddingModel), nil
	case "gemini":
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingModel), nil
	case "openai":
		return embedding.NewOpenAIProvider(cfg.Keys.OpenAI, cfg.Ai.EmbeddingBaseURL, cfg.Ai.EmbeddingModel), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Ai.EmbeddingProvider)
	}
}

// NewCatalogBackend opens the catalog index selected by CATALOG_BACKEND. db
// is only used by the postgres backend. The returned func releases the
// backend's connections.
func NewCatalogBackend(db *gorm.DB, cfg *config.Config) (contract.CatalogRecordRepository, unitofwork.RepositoryFactory, func(), error) {
	switch cfg.Catalog.Backend {
	case "postgres":
		if db == nil {
			return nil, nil, nil, fmt.Errorf("postgres catalog backend requires DB_CONNECTION_STRING")
		}
		return implementation.NewCatalogRecordRepository(db), unitofwork.NewRepositoryFactory(db), func() {}, nil
	case "qdrant":
		client, err := qdrant.NewClient(&qdrant.Config{
			Host: cfg.Catalog.QdrantHost,
			Port: cfg.Catalog.QdrantPort,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect qdrant: %w", err)
		}
		repo := implementation.NewCatalogRecordQdrantRepository(client, cfg.Catalog.QdrantCollection)
		return repo, unitofwork.NewQdrantRepositoryFactory(repo), func() { _ = repo.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported catalog backend: %s", cfg.Catalog.Backend)
	}
}

// NewRedisClient returns nil when Redis cannot be reached.
func NewRedisClient(ctx context.Context, url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{CatalogBackend: cfg.Catalog.Backend}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	c.Logger = sysLogger

	catalogRepo, uowFactory, closeCatalog, err := NewCatalogBackend(db, cfg)
	if err != nil {
		return nil, err
	}
	c.CatalogRepository = catalogRepo
	c.closers = append(c.closers, closeCatalog)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. AI capabilities
	embeddingProvider, err := NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.LLMBaseURL(),
		cfg.LLMAPIKey(),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		c.Subscriber = natsSub
		c.closers = append(c.closers, natsSub.Close)
	}

	c.Redis = NewRedisClient(ctx, cfg.App.RedisURL)
	if c.Redis != nil {
		rdb := c.Redis
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	c.WebSocketHub = websocket.NewHub(c.Redis, wsLogger)

	// 5. Services
	sessionRepo := memory.NewSessionRepository()
	c.SessionRepository = sessionRepo
	sessions := session.NewManager(sessionRepo)

	retriever := search.NewRetriever(catalogRepo)
	queryEmbedder := embedding.NewEmbedder(embeddingProvider)
	documentEmbedder := embedding.NewDocumentEmbedder(embeddingProvider)

	chatCfg := service.ChatbotConfig{
		Limit:                   cfg.Catalog.Limit,
		NumCandidates:           cfg.Catalog.NumCandidates,
		Temperature:             cfg.Ai.LLMTemperature,
		EmbedTimeout:            cfg.Timeouts.Embed,
		RetrievalTimeout:        cfg.Timeouts.Retrieval,
		LLMTimeout:              cfg.Timeouts.LLM,
		DegradeOnRetrievalError: cfg.Catalog.DegradeOnRetrievalError,
	}
	chatbotService := service.NewChatbotService(
		chatCfg,
		queryEmbedder,
		retriever,
		sessions,
		llmProvider,
		eventPublisher,
		sysLogger,
	)

	ingestionService := service.NewIngestionService(uowFactory, documentEmbedder, eventPublisher, sysLogger)
	c.IngestionService = ingestionService

	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.IngestTopic, ingestionService, sysLogger)

	catalogService := service.NewCatalogService(
		uowFactory,
		queryEmbedder,
		retriever,
		publisherService,
		search.Config{Limit: cfg.Catalog.Limit, NumCandidates: cfg.Catalog.NumCandidates},
		sysLogger,
	)

	// 6. Controllers
	c.ChatbotController = controller.NewChatbotController(ctx, chatbotService, c.WebSocketHub)
	c.CatalogController = controller.NewCatalogController(catalogService)

	return c, nil
}

// Close releases infrastructure in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
