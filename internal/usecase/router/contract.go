package router

import (
	"context"

	"github.com/ellie-edu/ellie/internal/domain"
)

// Completer produces chat completions for routing decisions.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}
