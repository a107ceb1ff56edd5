package ingest

import (
	"context"

	"github.com/ellie-edu/ellie/internal/domain"
)

// Index is the per-course document index the ingester swaps wholesale.
type Index interface {
	Rebuild(ctx context.Context, courseID string, chunks []domain.Chunk, vectors [][]float32, vectorDim int) error
	Count(ctx context.Context, courseID string) (int, error)
	Document(ctx context.Context, courseID, docID string) ([]domain.Chunk, error)
}

// Locker hands out per-course coordination handles.
type Locker interface {
	WithRebuildLock(ctx context.Context, courseID string, fn func() error) error
}
