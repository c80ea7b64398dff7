package service

import (
	"context"
	"time"

	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/logger"
	"flowershop-chat-be/pkg/embedding"
	"flowershop-chat-be/pkg/events"
	"flowershop-chat-be/pkg/llm"
	"flowershop-chat-be/pkg/rag"
	ragcontext "flowershop-chat-be/pkg/rag/context"
	"flowershop-chat-be/pkg/rag/prompt"
	"flowershop-chat-be/pkg/rag/search"
	"flowershop-chat-be/pkg/rag/session"
	"flowershop-chat-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const chatbotModule = "ChatbotService"

var tracer = otel.Tracer("flowershop-chat-be/service")

// IChatbotService defines the chatbot service interface
type IChatbotService interface {
	SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetChatHistory(ctx context.Context, sessionId string) (*dto.GetChatHistoryResponse, error)
}

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ChatbotConfig struct {
	Limit         int
	NumCandidates int
	Temperature   float64

	EmbedTimeout     time.Duration
	RetrievalTimeout time.Duration
	LLMTimeout       time.Duration

	DegradeOnRetrievalError bool
}

func DefaultChatbotConfig() ChatbotConfig {
	return ChatbotConfig{
		Limit:            search.DefaultLimit,
		NumCandidates:    search.DefaultNumCandidates,
		EmbedTimeout:     15 * time.Second,
		RetrievalTimeout: 10 * time.Second,
		LLMTimeout:       120 * time.Second,
	}
}

// chatbotService runs one retrieval-augmented turn per request
type chatbotService struct {
	cfg         ChatbotConfig
	embedder    embedding.Embedder
	retriever   *search.Retriever
	formatter   *ragcontext.Formatter
	composer    *prompt.Composer
	sessions    *session.Manager
	llmProvider llm.LLMProvider
	publisher   EventPublisher
	logger      logger.ILogger
}

// NewChatbotService wires the turn pipeline. publisher may be nil.
func NewChatbotService(
	cfg ChatbotConfig,
	embedder embedding.Embedder,
	retriever *search.Retriever,
	sessions *session.Manager,
	llmProvider llm.LLMProvider,
	publisher EventPublisher,
	log logger.ILogger,
) IChatbotService {
	return &chatbotService{
		cfg:         cfg,
		embedder:    embedder,
		retriever:   retriever,
		formatter:   ragcontext.NewFormatter(),
		composer:    prompt.NewComposer(),
		sessions:    sessions,
		llmProvider: llmProvider,
		publisher:   publisher,
		logger:      log,
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// SendChat runs a full turn. History is only touched once the model replied,
// so a failed turn leaves the session exactly as it was.
func (cs *chatbotService) SendChat(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	start := time.Now()
	sessionID := request.SessionId
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	message := request.Message.Content

	ctx, span := tracer.Start(ctx, "chatbot.SendChat", trace.WithAttributes(
		attribute.String("chat.session_id", sessionID),
		attribute.Int("chat.message_chars", len(message)),
	))
	defer span.End()

	unlock, err := cs.sessions.Lock(ctx, sessionID)
	if err != nil {
		return nil, cs.fail(span, sessionID, "gave up waiting for session turn", err)
	}
	defer unlock()

	products, err := cs.retrieveProducts(ctx, message)
	if err != nil {
		return nil, cs.fail(span, sessionID, "retrieval step failed", err)
	}

	contextText := cs.formatter.Format(products)
	augmented := cs.composer.Compose(message, contextText)

	history := cs.sessions.History(sessionID)
	messages := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: augmented})

	reply, err := cs.invokeModel(ctx, messages)
	if err != nil {
		return nil, cs.fail(span, sessionID, "model invocation failed", err)
	}

	// the augmented prompt is dropped here, only the raw message is kept
	cs.sessions.Append(sessionID,
		store.Turn{Role: store.RoleUser, Content: message},
		store.Turn{Role: store.RoleAssistant, Content: reply},
	)

	shown := countPriced(products)
	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.Int("chat.products_found", len(products)),
		attribute.Int("chat.products_shown", shown),
	)
	cs.logger.Info(chatbotModule, "Turn completed", map[string]interface{}{
		"session_id":     sessionID,
		"history_len":    len(history),
		"products_found": len(products),
		"products_shown": shown,
		"duration_ms":    elapsed.Milliseconds(),
	})

	cs.publishTurn(events.TurnCompleted{
		SessionID:     sessionID,
		MessageChars:  len(message),
		ReplyChars:    len(reply),
		ProductsFound: len(products),
		ProductsShown: shown,
		Duration:      elapsed,
		OccurredAt:    time.Now(),
	})

	return &dto.SendChatResponse{
		Content: reply,
		Role:    store.RoleAssistant,
	}, nil
}

func (cs *chatbotService) GetChatHistory(ctx context.Context, sessionId string) (*dto.GetChatHistoryResponse, error) {
	if sessionId == "" {
		sessionId = store.DefaultSessionID
	}

	turns := cs.sessions.History(sessionId)
	res := &dto.GetChatHistoryResponse{
		SessionId: sessionId,
		Turns:     make([]dto.ChatTurnDTO, len(turns)),
	}
	for i, t := range turns {
		res.Turns[i] = dto.ChatTurnDTO{Role: t.Role, Content: t.Content, CreatedAt: t.CreatedAt}
	}
	return res, nil
}

// retrieveProducts embeds the message and queries the index. Blank messages
// give an empty vector and therefore an empty product list.
func (cs *chatbotService) retrieveProducts(ctx context.Context, message string) ([]store.ScoredProduct, error) {
	embedCtx, cancel := withTimeout(ctx, cs.cfg.EmbedTimeout)
	embedCtx, span := tracer.Start(embedCtx, "chatbot.Embed")
	vector, err := cs.embedder.Embed(embedCtx, message)
	span.End()
	cancel()
	if err != nil {
		return nil, rag.Wrap(rag.ErrEmbedding, err)
	}
	if len(vector) == 0 {
		cs.logger.Debug(chatbotModule, "Empty query vector, skipping retrieval", nil)
		return []store.ScoredProduct{}, nil
	}

	searchCtx, cancel := withTimeout(ctx, cs.cfg.RetrievalTimeout)
	defer cancel()
	searchCtx, span = tracer.Start(searchCtx, "chatbot.Retrieve", trace.WithAttributes(
		attribute.Int("retrieval.limit", cs.cfg.Limit),
		attribute.Int("retrieval.num_candidates", cs.cfg.NumCandidates),
	))
	defer span.End()

	products, err := cs.retriever.Retrieve(searchCtx, vector, cs.cfg.Limit, cs.cfg.NumCandidates)
	if err != nil {
		if cs.cfg.DegradeOnRetrievalError {
			cs.logger.Warn(chatbotModule, "Retrieval failed, answering without catalog context", map[string]interface{}{
				"error": err.Error(),
			})
			return []store.ScoredProduct{}, nil
		}
		return nil, err
	}

	cs.logger.Debug(chatbotModule, "Catalog retrieval", map[string]interface{}{
		"results": len(products),
	})
	return products, nil
}

func (cs *chatbotService) invokeModel(ctx context.Context, messages []llm.Message) (string, error) {
	llmCtx, cancel := withTimeout(ctx, cs.cfg.LLMTimeout)
	defer cancel()
	llmCtx, span := tracer.Start(llmCtx, "chatbot.InvokeModel", trace.WithAttributes(
		attribute.Int("llm.messages", len(messages)),
	))
	defer span.End()

	var opts []llm.Option
	if cs.cfg.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(cs.cfg.Temperature))
	}

	reply, err := cs.llmProvider.Chat(llmCtx, messages, opts...)
	if err != nil {
		return "", rag.Wrap(rag.ErrModelInvocation, err)
	}
	return reply, nil
}

func (cs *chatbotService) fail(span trace.Span, sessionID, message string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)
	cs.logger.Error(chatbotModule, message, map[string]interface{}{
		"session_id": sessionID,
		"error":      err.Error(),
	})
	return err
}

func (cs *chatbotService) publishTurn(event events.TurnCompleted) {
	if cs.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cs.publisher.Publish(ctx, event); err != nil {
			cs.logger.Warn(chatbotModule, "Failed to publish turn event", map[string]interface{}{
				"session_id": event.SessionID,
				"error":      err.Error(),
			})
		}
	}()
}

func countPriced(products []store.ScoredProduct) int {
	n := 0
	for _, p := range products {
		if p.HasPrice() {
			n++
		}
	}
	return n
}
