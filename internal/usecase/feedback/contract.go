package feedback

import (
	"context"

	"github.com/ellie-edu/ellie/internal/domain"
)

// Store persists per-course feedback entries in insertion order.
type Store interface {
	Add(ctx context.Context, courseID string, fb domain.Feedback) error
	List(ctx context.Context, courseID string) ([]domain.Feedback, error)
	Count(ctx context.Context, courseID string) (int, error)
}
