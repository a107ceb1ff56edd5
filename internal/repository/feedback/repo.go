// Package feedback persists per-course answer ratings in append-only lists.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ellie-edu/ellie/internal/domain"
)

// store is the consumer interface for feedback logs (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)
}

// Repo implements usecase/feedback.Repository.
type Repo struct {
	store store
}

// New creates a feedback repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func listKey(courseID string) string {
	return domain.KeyPrefix + "feedback:" + courseID
}

// Add appends a feedback entry to the course log.
func (r *Repo) Add(ctx context.Context, courseID string, fb domain.Feedback) error {
	data, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	if err := r.store.RPush(ctx, listKey(courseID), string(data)); err != nil {
		return fmt.Errorf("rpush feedback %s: %w", courseID, err)
	}
	return nil
}

// List returns all feedback entries for a course in insertion order.
// Unparseable entries are skipped.
func (r *Repo) List(ctx context.Context, courseID string) ([]domain.Feedback, error) {
	raw, err := r.store.LRange(ctx, listKey(courseID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange feedback %s: %w", courseID, err)
	}

	entries := make([]domain.Feedback, 0, len(raw))
	for _, item := range raw {
		var fb domain.Feedback
		if err := json.Unmarshal([]byte(item), &fb); err != nil {
			continue
		}
		entries = append(entries, fb)
	}
	return entries, nil
}

// Count returns the number of feedback entries for a course.
func (r *Repo) Count(ctx context.Context, courseID string) (int, error) {
	n, err := r.store.LLen(ctx, listKey(courseID))
	if err != nil {
		return 0, fmt.Errorf("llen feedback %s: %w", courseID, err)
	}
	return int(n), nil
}
