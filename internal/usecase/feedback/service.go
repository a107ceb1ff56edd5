package feedback

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ellie-edu/ellie/internal/domain"
)

const maxSampleComments = 5

// Report summarizes all feedback for one course.
type Report struct {
	CourseID           string         `json:"course_id"`
	GeneratedAt        time.Time      `json:"generated_at"`
	TotalFeedback      int            `json:"total_feedback"`
	AverageRating      float64        `json:"average_rating,omitempty"`
	RatingDistribution map[string]int `json:"rating_distribution,omitempty"`
	SampleComments     []string       `json:"sample_comments,omitempty"`
	FirstDate          time.Time      `json:"first_date,omitzero"`
	LastDate           time.Time      `json:"last_date,omitzero"`
}

// Service records student ratings and produces per-course reports.
type Service struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Add validates and persists one rating. Ratings outside 1..5 are rejected
// with ErrInvalidRating.
func (s *Service) Add(ctx context.Context, courseID, userID, question, answer string, rating int, comment string) (domain.Feedback, error) {
	if rating < 1 || rating > 5 {
		return domain.Feedback{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, rating)
	}
	fb := domain.Feedback{
		ID:        uuid.NewString(),
		UserID:    userID,
		Question:  question,
		Answer:    answer,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Add(ctx, courseID, fb); err != nil {
		return domain.Feedback{}, err
	}
	return fb, nil
}

// Report aggregates all feedback for a course. A course with no feedback
// yields a zero-count report, not an error.
func (s *Service) Report(ctx context.Context, courseID string) (Report, error) {
	entries, err := s.store.List(ctx, courseID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		CourseID:    courseID,
		GeneratedAt: s.now().UTC(),
	}
	if len(entries) == 0 {
		return report, nil
	}

	var sum int
	dist := make(map[string]int)
	var comments []string
	for _, fb := range entries {
		sum += fb.Rating
		dist[fmt.Sprint(fb.Rating)]++
		if fb.Comment != "" && len(comments) < maxSampleComments {
			comments = append(comments, fb.Comment)
		}
	}

	report.TotalFeedback = len(entries)
	report.AverageRating = math.Round(float64(sum)/float64(len(entries))*100) / 100
	report.RatingDistribution = dist
	report.SampleComments = comments
	report.FirstDate = entries[0].CreatedAt
	report.LastDate = entries[len(entries)-1].CreatedAt
	return report, nil
}

// List returns all feedback entries for a course in insertion order.
func (s *Service) List(ctx context.Context, courseID string) ([]domain.Feedback, error) {
	return s.store.List(ctx, courseID)
}
