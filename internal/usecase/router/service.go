// Package router decides, per question, which retrieval sources to use and
// how much to retrieve from each.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ellie-edu/ellie/internal/domain"
	"github.com/ellie-edu/ellie/internal/logger"
	"github.com/ellie-edu/ellie/internal/metrics"
)

const (
	previewChunks     = 3
	previewSnippetLen = 160
	historyTurns      = 2
	historyTurnLen    = 120
)

// Service routes questions between course materials and web search.
type Service struct {
	chat    Completer
	timeout time.Duration
}

// New creates a routing service. timeout bounds a single routing completion.
func New(chat Completer, timeout time.Duration) *Service {
	return &Service{chat: chat, timeout: timeout}
}

// Route asks the routing model for a retrieval decision. A malformed model
// response degrades to the fixed fallback decision; a transport failure is
// returned as an error so the caller can decide.
func (s *Service) Route(
	ctx context.Context, courseID, question string,
	history []domain.Message, preview []domain.ScoredChunk,
) (domain.RoutingDecision, error) {
	log := logger.FromContext(ctx)

	routeCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		routeCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.chat.Complete(routeCtx, domain.CompletionRequest{
		Prompt:      buildPrompt(courseID, question, history, preview),
		Temperature: 0,
		ForceJSON:   true,
	})
	if err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("routing completion: %w", err)
	}

	decision, parseErr := parseDecision(raw, question)
	if parseErr != nil {
		log.Warn("Routing response unparseable, using fallback",
			zap.String("course_id", courseID), zap.Error(parseErr))
	}

	metrics.RouterDecisionsTotal.WithLabelValues(string(decision.Decision)).Inc()
	return decision, nil
}

func buildPrompt(courseID, question string, history []domain.Message, preview []domain.ScoredChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "System: You are a routing controller for an AI teaching assistant for course %s. ", courseID)
	b.WriteString("Decide whether to answer using course materials, web search, or both. ")
	b.WriteString("Prefer course materials when sufficient. Use web for recency/external facts or when course coverage is weak.\n\n")
	fmt.Fprintf(&b, "Today's date: %s\n\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&b, "User query:\n%s\n\n", question)
	fmt.Fprintf(&b, "Recent conversation (brief):\n%s\n\n", summarizeHistory(history))
	fmt.Fprintf(&b, "Course retrieval preview (top %d):\n%s\n\n", previewChunks, buildPreview(preview))
	b.WriteString(`Return strict JSON only with keys exactly as follows:
{
  "decision": "course_only" | "web_primary" | "course_then_web",
  "reasons": "short rationale",
  "k_course": 3,
  "k_web": 0,
  "web_queries": ["..."]
}`)
	return b.String()
}

// buildPreview renders the top retrieval hits so the model can judge course
// coverage without seeing full chunks.
func buildPreview(preview []domain.ScoredChunk) string {
	if len(preview) == 0 {
		return "(no matches)"
	}
	lines := make([]string, 0, previewChunks)
	for i, sc := range preview {
		if i >= previewChunks {
			break
		}
		snippet := truncate(flatten(sc.Chunk.Text), previewSnippetLen)
		lines = append(lines, fmt.Sprintf("- [score=%v] %s — %s", sc.Score, sc.Chunk.BestTitle(), snippet))
	}
	return strings.Join(lines, "\n")
}

// summarizeHistory compresses the last messages into one line for the prompt.
func summarizeHistory(history []domain.Message) string {
	if len(history) == 0 {
		return "(no history)"
	}
	start := len(history) - historyTurns
	if start < 0 {
		start = 0
	}
	bits := make([]string, 0, historyTurns)
	for _, m := range history[start:] {
		role := string(m.Role)
		if role == "" {
			role = "user"
		}
		bits = append(bits, role+": "+truncate(flatten(m.Content), historyTurnLen))
	}
	return strings.Join(bits, " | ")
}

// routeResponse uses pointers to distinguish absent fields from zero values.
type routeResponse struct {
	Decision   string   `json:"decision"`
	Reasons    string   `json:"reasons"`
	KCourse    *int     `json:"k_course"`
	KWeb       *int     `json:"k_web"`
	WebQueries []string `json:"web_queries"`
}

// parseDecision coerces the model output into a valid decision. Any parse
// failure yields the fixed fallback; missing fields get safe defaults.
func parseDecision(raw, question string) (domain.RoutingDecision, error) {
	var resp routeResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		return domain.FallbackDecision(question), fmt.Errorf("unmarshal decision: %w", err)
	}

	decision := domain.RouteLabel(resp.Decision)
	if !decision.Valid() {
		decision = domain.RouteCourseThenWeb
	}

	kCourse := 4
	if resp.KCourse != nil {
		kCourse = *resp.KCourse
	}
	if kCourse < 0 {
		kCourse = 0
	}

	kWeb := 0
	if resp.KWeb != nil {
		kWeb = *resp.KWeb
	}
	if kWeb < 0 {
		kWeb = 0
	}

	queries := resp.WebQueries
	if kWeb > 0 && len(queries) == 0 {
		queries = []string{question}
	}

	return domain.RoutingDecision{
		Decision:   decision,
		Reasons:    resp.Reasons,
		KCourse:    kCourse,
		KWeb:       kWeb,
		WebQueries: queries,
	}, nil
}

func flatten(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
