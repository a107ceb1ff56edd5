package websearch

import (
	"context"

	"github.com/ellie-edu/ellie/internal/domain"
)

// Provider runs a single web search query against an external engine.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]domain.WebSnippet, error)
}
