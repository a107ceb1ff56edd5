package assembly

import (
	"context"

	"github.com/ellie-edu/ellie/internal/domain"
)

// CourseSearcher runs similarity queries against a course's document index.
type CourseSearcher interface {
	SearchSimilar(ctx context.Context, courseID string, vector []float32, k int) ([]domain.ScoredChunk, error)
}

// WebSearcher fetches de-duplicated web snippets for a batch of queries.
type WebSearcher interface {
	SearchBatch(ctx context.Context, queries []string, kEach int) []domain.WebSnippet
}
