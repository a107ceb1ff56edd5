package answer

import (
	"context"

	"github.com/ellie-edu/ellie/internal/domain"
)

// Router produces the retrieval plan for one question.
type Router interface {
	Route(ctx context.Context, courseID, question string,
		history []domain.Message, preview []domain.ScoredChunk) (domain.RoutingDecision, error)
}

// Assembler executes a retrieval plan and composes prompt-ready context.
type Assembler interface {
	Preview(ctx context.Context, courseID, question string, k int) ([]domain.ScoredChunk, error)
	Assemble(ctx context.Context, courseID, question string, decision domain.RoutingDecision) (domain.AssembledContext, error)
}

// Completer is the answer-generation model.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// ConversationStore reads and appends per-(course, user) history.
type ConversationStore interface {
	History(ctx context.Context, courseID, userID string, maxMessages int) ([]domain.Message, error)
	AppendExchange(ctx context.Context, courseID, userID string, user, assistant domain.Message) error
}
