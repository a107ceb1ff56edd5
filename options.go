package ellie

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	embedding EmbeddingOptions
	models    ModelOptions
	webSearch string // Tavily API key, empty = disabled

	hnswM           int
	hnswEFConstruct int
	historyWindow   int

	logger *zap.Logger
}

// EmbeddingOptions selects the OpenAI-compatible embedding provider.
type EmbeddingOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	// Optional instruction prefixes for asymmetric embedding models.
	DocumentInstruction string
	QueryInstruction    string
}

// ModelOptions selects the OpenAI-compatible reasoning models for routing
// and answering. Both stages share one provider endpoint.
type ModelOptions struct {
	APIKey  string
	BaseURL string

	RouterModel   string
	RouterTimeout time.Duration

	AnswerModel       string
	AnswerTemperature float32
	AnswerTimeout     time.Duration
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedisUsername sets the ACL username for the Redis connection.
func WithRedisUsername(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithRedisDB selects the logical Redis database.
func WithRedisDB(db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = db
	})
}

// WithEmbedding sets the embedding provider. Required.
func WithEmbedding(opts EmbeddingOptions) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedding = opts
	})
}

// WithModels sets the routing and answering models. Required.
func WithModels(opts ModelOptions) Option {
	return optionFunc(func(c *clientConfig) {
		c.models = opts
	})
}

// WithWebSearch enables the Tavily web search gateway.
func WithWebSearch(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.webSearch = apiKey
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithHistoryWindow sets how many recent messages feed each prompt.
// Default: 8.
func WithHistoryWindow(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.historyWindow = n
	})
}

// WithLogger enables structured logging for pipeline operations.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
