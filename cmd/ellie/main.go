package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ellie-edu/ellie/internal/config"
	dbRedis "github.com/ellie-edu/ellie/internal/db/redis"
	"github.com/ellie-edu/ellie/internal/domain"
	logpkg "github.com/ellie-edu/ellie/internal/logger"
	"github.com/ellie-edu/ellie/internal/metrics"
	conversationrepo "github.com/ellie-edu/ellie/internal/repository/conversation"
	courseindexrepo "github.com/ellie-edu/ellie/internal/repository/courseindex"
	"github.com/ellie-edu/ellie/internal/repository/embcache"
	feedbackrepo "github.com/ellie-edu/ellie/internal/repository/feedback"
	chiTransport "github.com/ellie-edu/ellie/internal/transport/chi"
	openaiClient "github.com/ellie-edu/ellie/internal/transport/openai"
	"github.com/ellie-edu/ellie/internal/transport/tavily"
	answeruc "github.com/ellie-edu/ellie/internal/usecase/answer"
	"github.com/ellie-edu/ellie/internal/usecase/assembly"
	feedbackuc "github.com/ellie-edu/ellie/internal/usecase/feedback"
	healthuc "github.com/ellie-edu/ellie/internal/usecase/health"
	ingestuc "github.com/ellie-edu/ellie/internal/usecase/ingest"
	"github.com/ellie-edu/ellie/internal/usecase/registry"
	routeruc "github.com/ellie-edu/ellie/internal/usecase/router"
	"github.com/ellie-edu/ellie/internal/usecase/websearch"
	"github.com/ellie-edu/ellie/internal/version"
)

func main() {
	// Local development convenience; real deployments set the environment.
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ellie API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("web_search", cfg.WebSearch.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Embedder decorator chain, instruction outermost so cache keys include it
	vecCfg := cfg.Embedding.Vectorizers[cfg.Embedding.Vectorizer]
	embProvCfg := cfg.Embedding.Providers[vecCfg.Provider]
	baseEmbedder := openaiClient.NewEmbedder(&openaiClient.EmbedderConfig{
		APIKey:     embProvCfg.APIKey,
		BaseURL:    embProvCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   vecCfg.Provider,
		Logger:     logger,
	})
	docEmbedder := buildEmbedder(baseEmbedder, vecCfg.DocumentInstruction, store, cfg, logger)
	queryEmbedder := buildEmbedder(baseEmbedder, vecCfg.QueryInstruction, store, cfg, logger)
	logger.Info("Embedders created",
		zap.String("provider", vecCfg.Provider),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	routerChat := newChatClient(cfg, cfg.Models.Router, logger)
	answerChat := newChatClient(cfg, cfg.Models.Answer, logger)

	// Web search gateway; a nil provider leaves it disabled.
	var searchProvider websearch.Provider
	if cfg.WebSearch.Enabled {
		searchProvider = tavily.NewClient(&tavily.Config{
			APIKey:  cfg.WebSearch.APIKey,
			BaseURL: cfg.WebSearch.BaseURL,
			Logger:  logger,
		})
	}
	gateway := websearch.New(searchProvider, websearch.Config{
		Timeout:  time.Duration(cfg.WebSearch.TimeoutSec) * time.Second,
		CacheTTL: time.Duration(cfg.WebSearch.CacheTTLSec) * time.Second,
	})

	// Repositories
	courseIdx := courseindexrepo.New(store).WithHNSW(courseindexrepo.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	conversations := conversationrepo.New(store)
	feedbackStore := feedbackrepo.New(store)

	// Use case services
	courses := registry.New(nil)
	routerSvc := routeruc.New(routerChat, time.Duration(cfg.Models.Router.TimeoutSec)*time.Second)
	assemblySvc := assembly.New(queryEmbedder, courseIdx, gateway)
	answerSvc := answeruc.New(routerSvc, assemblySvc, answerChat, conversations, answeruc.Config{
		HistoryWindow: cfg.Pipeline.HistoryWindow,
		Temperature:   cfg.Models.Answer.Temperature,
		Timeout:       time.Duration(cfg.Models.Answer.TimeoutSec) * time.Second,
	})
	ingestSvc := ingestuc.New(courseIdx, docEmbedder, courses)
	feedbackSvc := feedbackuc.New(feedbackStore)
	healthSvc := healthuc.New(store, baseEmbedder, answerChat)

	server := chiTransport.NewServer(
		answerSvc, ingestSvc, conversations, feedbackSvc, healthSvc,
		cfg.Pipeline.HistoryWindow*4, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
func buildEmbedder(
	base domain.Embedder,
	instruction string,
	store *dbRedis.Store,
	cfg config.Config,
	logger *zap.Logger,
) domain.Embedder {
	embedder := base
	if store != nil {
		embedder = embcache.New(base, store,
			time.Duration(cfg.Embedding.CacheTTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix goes outermost so the cache key includes it.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

func newChatClient(cfg config.Config, model config.ChatModelConfig, logger *zap.Logger) *openaiClient.ChatClient {
	provCfg := cfg.Models.Providers[model.Provider]
	return openaiClient.NewChatClient(&openaiClient.ChatConfig{
		APIKey:   provCfg.APIKey,
		BaseURL:  provCfg.BaseURL,
		Model:    model.Model,
		Provider: model.Provider,
		Logger:   logger,
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
