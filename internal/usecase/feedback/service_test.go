package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ellie-edu/ellie/internal/domain"
)

type mockStore struct {
	entries []domain.Feedback
	addErr  error
	listErr error
}

func (m *mockStore) Add(_ context.Context, _ string, fb domain.Feedback) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.entries = append(m.entries, fb)
	return nil
}

func (m *mockStore) List(_ context.Context, _ string) ([]domain.Feedback, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.entries, nil
}

func (m *mockStore) Count(_ context.Context, _ string) (int, error) {
	return len(m.entries), nil
}

func TestAdd(t *testing.T) {
	store := &mockStore{}
	svc := New(store)

	fb, err := svc.Add(context.Background(), "cs101", "u1", "q", "a", 4, "helpful")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if fb.ID == "" {
		t.Error("expected generated id")
	}
	if fb.CreatedAt.IsZero() {
		t.Error("expected timestamp")
	}
	if fb.Rating != 4 || fb.Comment != "helpful" {
		t.Errorf("unexpected entry: %+v", fb)
	}
	if len(store.entries) != 1 {
		t.Errorf("expected 1 stored entry, got %d", len(store.entries))
	}
}

func TestAdd_InvalidRating(t *testing.T) {
	store := &mockStore{}
	svc := New(store)

	for _, rating := range []int{0, -1, 6} {
		if _, err := svc.Add(context.Background(), "cs101", "u1", "q", "a", rating, ""); !errors.Is(err, domain.ErrInvalidRating) {
			t.Errorf("rating %d: expected ErrInvalidRating, got %v", rating, err)
		}
	}
	if len(store.entries) != 0 {
		t.Errorf("invalid ratings must not be stored, got %d entries", len(store.entries))
	}
}

func TestReport(t *testing.T) {
	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	store := &mockStore{entries: []domain.Feedback{
		{Rating: 5, Comment: "great", CreatedAt: base},
		{Rating: 4, CreatedAt: base.Add(time.Hour)},
		{Rating: 4, Comment: "good", CreatedAt: base.Add(2 * time.Hour)},
	}}
	svc := New(store)

	report, err := svc.Report(context.Background(), "cs101")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.TotalFeedback != 3 {
		t.Errorf("expected total 3, got %d", report.TotalFeedback)
	}
	if report.AverageRating != 4.33 {
		t.Errorf("expected average 4.33, got %v", report.AverageRating)
	}
	if report.RatingDistribution["4"] != 2 || report.RatingDistribution["5"] != 1 {
		t.Errorf("unexpected distribution: %v", report.RatingDistribution)
	}
	if len(report.SampleComments) != 2 || report.SampleComments[0] != "great" {
		t.Errorf("unexpected comments: %v", report.SampleComments)
	}
	if !report.FirstDate.Equal(base) || !report.LastDate.Equal(base.Add(2*time.Hour)) {
		t.Errorf("unexpected date span: %v .. %v", report.FirstDate, report.LastDate)
	}
}

func TestReport_CapsSampleComments(t *testing.T) {
	store := &mockStore{}
	for i := 0; i < 8; i++ {
		store.entries = append(store.entries, domain.Feedback{Rating: 3, Comment: "c"})
	}
	svc := New(store)

	report, err := svc.Report(context.Background(), "cs101")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(report.SampleComments) != maxSampleComments {
		t.Errorf("expected %d sample comments, got %d", maxSampleComments, len(report.SampleComments))
	}
}

func TestReport_Empty(t *testing.T) {
	svc := New(&mockStore{})

	report, err := svc.Report(context.Background(), "cs101")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.TotalFeedback != 0 || report.AverageRating != 0 {
		t.Errorf("expected zero report, got %+v", report)
	}
	if report.CourseID != "cs101" {
		t.Errorf("report must still name the course, got %q", report.CourseID)
	}
}

func TestReport_StoreError(t *testing.T) {
	wantErr := errors.New("redis away")
	svc := New(&mockStore{listErr: wantErr})
	if _, err := svc.Report(context.Background(), "cs101"); !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
