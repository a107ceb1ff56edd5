package chi

import (
	"context"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ellie-edu/ellie/internal/domain"
	feedbackuc "github.com/ellie-edu/ellie/internal/usecase/feedback"
	healthuc "github.com/ellie-edu/ellie/internal/usecase/health"
)

type mockAnswerer struct {
	answer       domain.Answer
	assembled    domain.AssembledContext
	contextErr   error
	lastCourseID string
	lastUserID   string
	lastQuestion string
	lastTopK     int
}

func (m *mockAnswerer) Answer(_ context.Context, courseID, userID, question string) domain.Answer {
	m.lastCourseID = courseID
	m.lastUserID = userID
	m.lastQuestion = question
	return m.answer
}

func (m *mockAnswerer) Context(_ context.Context, courseID, question string, topK int) (domain.AssembledContext, error) {
	m.lastCourseID = courseID
	m.lastQuestion = question
	m.lastTopK = topK
	if m.contextErr != nil {
		return domain.AssembledContext{}, m.contextErr
	}
	return m.assembled, nil
}

type mockIngestor struct {
	indexed    int
	rebuildErr error
	count      int
	chunks     []domain.Chunk
	docErr     error
	lastChunks []domain.Chunk
}

func (m *mockIngestor) Rebuild(_ context.Context, _ string, chunks []domain.Chunk) (int, error) {
	m.lastChunks = chunks
	if m.rebuildErr != nil {
		return 0, m.rebuildErr
	}
	return m.indexed, nil
}

func (m *mockIngestor) Count(_ context.Context, _ string) (int, error) {
	return m.count, nil
}

func (m *mockIngestor) Document(_ context.Context, _, _ string) ([]domain.Chunk, error) {
	if m.docErr != nil {
		return nil, m.docErr
	}
	return m.chunks, nil
}

type mockConversations struct {
	messages   []domain.Message
	historyErr error
	clearCalls int
	lastUserID string
}

func (m *mockConversations) History(_ context.Context, _, userID string, _ int) ([]domain.Message, error) {
	m.lastUserID = userID
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.messages, nil
}

func (m *mockConversations) Clear(_ context.Context, _, userID string) error {
	m.clearCalls++
	m.lastUserID = userID
	return nil
}

type mockFeedback struct {
	addErr    error
	report    feedbackuc.Report
	reportErr error
	lastFb    domain.Feedback
}

func (m *mockFeedback) Add(_ context.Context, _, userID, question, answer string, rating int, comment string) (domain.Feedback, error) {
	if m.addErr != nil {
		return domain.Feedback{}, m.addErr
	}
	m.lastFb = domain.Feedback{
		ID: "fb-1", UserID: userID, Question: question,
		Answer: answer, Rating: rating, Comment: comment,
	}
	return m.lastFb, nil
}

func (m *mockFeedback) Report(_ context.Context, _ string) (feedbackuc.Report, error) {
	if m.reportErr != nil {
		return feedbackuc.Report{}, m.reportErr
	}
	return m.report, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type serverFixture struct {
	answers       *mockAnswerer
	ingest        *mockIngestor
	conversations *mockConversations
	feedback      *mockFeedback
	db            *mockPinger
	handler       http.Handler
}

func newServerFixture() *serverFixture {
	f := &serverFixture{
		answers:       &mockAnswerer{},
		ingest:        &mockIngestor{},
		conversations: &mockConversations{},
		feedback:      &mockFeedback{},
		db:            &mockPinger{},
	}
	srv := NewServer(f.answers, f.ingest, f.conversations, f.feedback,
		healthuc.New(f.db, nil, nil), 20, zap.NewNop())
	r := chirouter.NewRouter()
	srv.Register(r)
	f.handler = r
	return f
}
