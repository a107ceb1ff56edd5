// Package ellie embeds the course question-answering pipeline as a library:
// retrieval-augmented answers over per-course material indexes in Redis, with
// optional web search blending and per-user conversation history.
package ellie

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/ellie-edu/ellie/internal/db/redis"
	"github.com/ellie-edu/ellie/internal/domain"
	"github.com/ellie-edu/ellie/internal/metrics"
	conversationrepo "github.com/ellie-edu/ellie/internal/repository/conversation"
	courseindexrepo "github.com/ellie-edu/ellie/internal/repository/courseindex"
	"github.com/ellie-edu/ellie/internal/repository/embcache"
	feedbackrepo "github.com/ellie-edu/ellie/internal/repository/feedback"
	openaiClient "github.com/ellie-edu/ellie/internal/transport/openai"
	"github.com/ellie-edu/ellie/internal/transport/tavily"
	answeruc "github.com/ellie-edu/ellie/internal/usecase/answer"
	"github.com/ellie-edu/ellie/internal/usecase/assembly"
	feedbackuc "github.com/ellie-edu/ellie/internal/usecase/feedback"
	ingestuc "github.com/ellie-edu/ellie/internal/usecase/ingest"
	"github.com/ellie-edu/ellie/internal/usecase/registry"
	routeruc "github.com/ellie-edu/ellie/internal/usecase/router"
	"github.com/ellie-edu/ellie/internal/usecase/websearch"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	embeddingCacheTTL       = 24 * time.Hour
)

// Client is the ellie SDK entry point.
type Client struct {
	store         *dbRedis.Store
	answers       *answeruc.Service
	ingest        *ingestuc.Service
	conversations *conversationrepo.Repo
	feedback      *feedbackuc.Service
	historyLimit  int
}

// New creates an ellie Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{logger: zap.NewNop()}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("ellie: database address required (use WithRedis)")
	}
	if cfg.embedding.APIKey == "" || cfg.embedding.Model == "" {
		return nil, errors.New("ellie: embedding provider required (use WithEmbedding)")
	}
	if cfg.models.APIKey == "" || cfg.models.RouterModel == "" || cfg.models.AnswerModel == "" {
		return nil, errors.New("ellie: reasoning models required (use WithModels)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("ellie: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ellie: database not ready: %w", err)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	return wireClient(store, cfg), nil
}

func wireClient(store *dbRedis.Store, cfg *clientConfig) *Client {
	base := openaiClient.NewEmbedder(&openaiClient.EmbedderConfig{
		APIKey:     cfg.embedding.APIKey,
		BaseURL:    cfg.embedding.BaseURL,
		Model:      cfg.embedding.Model,
		Dimensions: cfg.embedding.Dimensions,
		Provider:   "openai",
		Logger:     cfg.logger,
	})
	docEmbedder := decorateEmbedder(base, cfg.embedding.DocumentInstruction, store, cfg.logger)
	queryEmbedder := decorateEmbedder(base, cfg.embedding.QueryInstruction, store, cfg.logger)

	routerChat := openaiClient.NewChatClient(&openaiClient.ChatConfig{
		APIKey:   cfg.models.APIKey,
		BaseURL:  cfg.models.BaseURL,
		Model:    cfg.models.RouterModel,
		Provider: "chat",
		Logger:   cfg.logger,
	})
	answerChat := openaiClient.NewChatClient(&openaiClient.ChatConfig{
		APIKey:   cfg.models.APIKey,
		BaseURL:  cfg.models.BaseURL,
		Model:    cfg.models.AnswerModel,
		Provider: "chat",
		Logger:   cfg.logger,
	})

	var searchProvider websearch.Provider
	if cfg.webSearch != "" {
		searchProvider = tavily.NewClient(&tavily.Config{
			APIKey: cfg.webSearch,
			Logger: cfg.logger,
		})
	}
	gateway := websearch.New(searchProvider, websearch.Config{})

	courseIdx := courseindexrepo.New(store)
	if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
		courseIdx = courseIdx.WithHNSW(courseindexrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
	}
	conversations := conversationrepo.New(store)

	routerSvc := routeruc.New(routerChat, cfg.models.RouterTimeout)
	assemblySvc := assembly.New(queryEmbedder, courseIdx, gateway)
	answerSvc := answeruc.New(routerSvc, assemblySvc, answerChat, conversations, answeruc.Config{
		HistoryWindow: cfg.historyWindow,
		Temperature:   cfg.models.AnswerTemperature,
		Timeout:       cfg.models.AnswerTimeout,
	})

	historyLimit := cfg.historyWindow * 4
	if historyLimit <= 0 {
		historyLimit = 32
	}

	return &Client{
		store:         store,
		answers:       answerSvc,
		ingest:        ingestuc.New(courseIdx, docEmbedder, registry.New(nil)),
		conversations: conversations,
		feedback:      feedbackuc.New(feedbackrepo.New(store)),
		historyLimit:  historyLimit,
	}
}

func decorateEmbedder(base domain.Embedder, instruction string, store *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	embedder := embcache.New(base, store, embeddingCacheTTL, metrics.EmbeddingCacheTotal, logger)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Ask answers a question over the course materials, persisting the exchange
// to the user's conversation history. It always returns a well-formed answer;
// pipeline failures degrade to a fixed apology with no references.
func (c *Client) Ask(ctx context.Context, courseID, userID, question string) Answer {
	a := c.answers.Answer(ctx, courseID, userID, question)
	return Answer{Text: a.Text, References: referencesFromDomain(a.References)}
}

// Context retrieves course material for a question without generating an
// answer or touching history.
func (c *Client) Context(ctx context.Context, courseID, question string, topK int) (string, []Reference, error) {
	assembled, err := c.answers.Context(ctx, courseID, question, topK)
	if err != nil {
		return "", nil, fmt.Errorf("get context: %w", err)
	}
	return assembled.Text, referencesFromDomain(assembled.References), nil
}

// History returns the user's recent conversation for a course.
func (c *Client) History(ctx context.Context, courseID, userID string) ([]Message, error) {
	msgs, err := c.conversations.History(ctx, courseID, userID, c.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = messageFromDomain(m)
	}
	return out, nil
}

// ClearHistory deletes the user's conversation for a course.
func (c *Client) ClearHistory(ctx context.Context, courseID, userID string) error {
	if err := c.conversations.Clear(ctx, courseID, userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// AddFeedback records a 1..5 rating of a question-answer exchange.
func (c *Client) AddFeedback(ctx context.Context, courseID, userID, question, answer string, rating int, comment string) error {
	if _, err := c.feedback.Add(ctx, courseID, userID, question, answer, rating, comment); err != nil {
		return fmt.Errorf("add feedback: %w", err)
	}
	return nil
}

// FeedbackReport aggregates all feedback recorded for a course.
func (c *Client) FeedbackReport(ctx context.Context, courseID string) (FeedbackReport, error) {
	report, err := c.feedback.Report(ctx, courseID)
	if err != nil {
		return FeedbackReport{}, fmt.Errorf("feedback report: %w", err)
	}
	return reportFromInternal(report), nil
}

// RebuildMaterials replaces the course index with the given pre-extracted
// chunks and returns the number indexed.
func (c *Client) RebuildMaterials(ctx context.Context, courseID string, chunks []Chunk) (int, error) {
	domChunks := make([]domain.Chunk, len(chunks))
	for i, ch := range chunks {
		domChunks[i] = chunkToDomain(ch)
	}
	n, err := c.ingest.Rebuild(ctx, courseID, domChunks)
	if err != nil {
		return 0, fmt.Errorf("rebuild materials: %w", err)
	}
	return n, nil
}

// MaterialsCount reports how many chunks are indexed for a course.
func (c *Client) MaterialsCount(ctx context.Context, courseID string) (int, error) {
	n, err := c.ingest.Count(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("materials count: %w", err)
	}
	return n, nil
}
