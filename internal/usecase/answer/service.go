package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ellie-edu/ellie/internal/domain"
	"github.com/ellie-edu/ellie/internal/logger"
	"github.com/ellie-edu/ellie/internal/metrics"
)

const (
	// FallbackAnswer is returned whenever the pipeline cannot produce a real
	// answer. The caller always gets a well-formed (answer, references) pair.
	FallbackAnswer = "I'm sorry, I ran into an issue answering that. Please try again."

	previewChunks  = 3
	defaultContext = 5
)

const systemTemplate = "You are Ellie, an AI teaching assistant for the course %s. " +
	"Prefer course materials when sufficient. If the course context is insufficient, use any provided web snippets. " +
	"Always cite sources inline as [refN] that correspond to the provided references. " +
	"Be concise, accurate, and say when information is not available."

// Config tunes one answering pipeline.
type Config struct {
	// HistoryWindow is the number of recent messages loaded per turn.
	HistoryWindow int
	// Temperature is passed to the answer model.
	Temperature float32
	// Timeout bounds a single answer completion.
	Timeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 8
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// Service orchestrates one question-answering turn: history, retrieval
// preview, routing, context assembly, generation, persistence. Each call is
// an independent run; the only cross-call state is the conversation store.
type Service struct {
	router        Router
	assembler     Assembler
	chat          Completer
	conversations ConversationStore
	cfg           Config
}

func New(router Router, assembler Assembler, chat Completer, conversations ConversationStore, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{
		router:        router,
		assembler:     assembler,
		chat:          chat,
		conversations: conversations,
		cfg:           cfg,
	}
}

// Answer runs the full pipeline for one question. It never returns an error:
// any failure past input validation degrades to the fixed fallback answer
// with empty references, and a degraded turn is not persisted.
func (s *Service) Answer(ctx context.Context, courseID, userID, question string) domain.Answer {
	log := logger.FromContext(ctx)
	start := time.Now()
	status := "ok"
	defer func() {
		metrics.QuestionsTotal.WithLabelValues(courseID, status).Inc()
		metrics.QuestionDuration.WithLabelValues(courseID).Observe(time.Since(start).Seconds())
	}()

	history, err := s.conversations.History(ctx, courseID, userID, s.cfg.HistoryWindow)
	if err != nil {
		log.Warn("Conversation history unavailable, answering without it",
			zap.String("course_id", courseID), zap.Error(err))
	}

	preview, err := s.assembler.Preview(ctx, courseID, question, previewChunks)
	if err != nil {
		log.Warn("Retrieval preview failed, routing without it",
			zap.String("course_id", courseID), zap.Error(err))
	}

	decision, err := s.router.Route(ctx, courseID, question, history, preview)
	if err != nil {
		log.Warn("Router failed, using fallback decision",
			zap.String("course_id", courseID), zap.Error(err))
		decision = domain.FallbackDecision(question)
	}

	assembled, err := s.assembler.Assemble(ctx, courseID, question, decision)
	if err != nil {
		log.Error("Context assembly failed",
			zap.String("course_id", courseID), zap.Error(err))
		status = "degraded"
		return domain.Answer{Text: FallbackAnswer}
	}

	text, err := s.generate(ctx, courseID, question, assembled.Text, history)
	if err != nil {
		log.Error("Answer generation failed",
			zap.String("course_id", courseID), zap.Error(err))
		status = "degraded"
		return domain.Answer{Text: FallbackAnswer}
	}

	now := time.Now().UTC()
	err = s.conversations.AppendExchange(ctx, courseID, userID,
		domain.Message{Role: domain.RoleUser, Content: question, Timestamp: now},
		domain.Message{Role: domain.RoleAssistant, Content: text, Timestamp: now, References: assembled.References},
	)
	if err != nil {
		log.Error("Persisting conversation turn failed",
			zap.String("course_id", courseID), zap.String("user_id", userID), zap.Error(err))
		status = "degraded"
	}

	return domain.Answer{Text: text, References: assembled.References}
}

// Context runs retrieval only: no routing, no generation, no persistence.
func (s *Service) Context(ctx context.Context, courseID, question string, topK int) (domain.AssembledContext, error) {
	if topK <= 0 {
		topK = defaultContext
	}
	return s.assembler.Assemble(ctx, courseID, question, domain.RoutingDecision{
		Decision: domain.RouteCourseOnly,
		KCourse:  topK,
	})
}

func (s *Service) generate(ctx context.Context, courseID, question, contextText string, history []domain.Message) (string, error) {
	genCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	return s.chat.Complete(genCtx, domain.CompletionRequest{
		System:      fmt.Sprintf(systemTemplate, courseID),
		Prompt:      buildPrompt(contextText, formatHistory(history), question),
		Temperature: s.cfg.Temperature,
	})
}

func buildPrompt(contextText, historyText, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nPrevious conversation:\n")
	b.WriteString(historyText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

func formatHistory(history []domain.Message) string {
	if len(history) == 0 {
		return "No prior conversation."
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		speaker := "Student"
		if m.Role == domain.RoleAssistant {
			speaker = "Assistant"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}
