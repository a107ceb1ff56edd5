package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ellie-edu/ellie/internal/domain"
	feedbackuc "github.com/ellie-edu/ellie/internal/usecase/feedback"
	healthuc "github.com/ellie-edu/ellie/internal/usecase/health"
	"github.com/ellie-edu/ellie/internal/version"
)

const defaultUserID = "anonymous"

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, courseID, userID, question string) domain.Answer
	Context(ctx context.Context, courseID, question string, topK int) (domain.AssembledContext, error)
}

// Ingestor manages per-course material indexes.
type Ingestor interface {
	Rebuild(ctx context.Context, courseID string, chunks []domain.Chunk) (int, error)
	Count(ctx context.Context, courseID string) (int, error)
	Document(ctx context.Context, courseID, docID string) ([]domain.Chunk, error)
}

// Conversations reads and clears per-user history.
type Conversations interface {
	History(ctx context.Context, courseID, userID string, maxMessages int) ([]domain.Message, error)
	Clear(ctx context.Context, courseID, userID string) error
}

// FeedbackRecorder records ratings and builds per-course reports.
type FeedbackRecorder interface {
	Add(ctx context.Context, courseID, userID, question, answer string, rating int, comment string) (domain.Feedback, error)
	Report(ctx context.Context, courseID string) (feedbackuc.Report, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API surface over the answering pipeline.
type Server struct {
	answers       Answerer
	ingest        Ingestor
	conversations Conversations
	feedback      FeedbackRecorder
	health        *healthuc.Service
	historyLimit  int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. historyLimit bounds a history read.
func NewServer(
	answers Answerer,
	ingest Ingestor,
	conversations Conversations,
	feedback FeedbackRecorder,
	health *healthuc.Service,
	historyLimit int,
	logger *zap.Logger,
) *Server {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	s := &Server{
		answers:       answers,
		ingest:        ingest,
		conversations: conversations,
		feedback:      feedback,
		health:        health,
		historyLimit:  historyLimit,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrCourseNotFound, http.StatusNotFound, codeCourseNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidRating, http.StatusBadRequest, codeInvalidRating),
		sentinelHandler(domain.ErrNoMaterials, http.StatusBadRequest, codeNoMaterials),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrModelProviderError, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1/courses/{courseID}", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Post("/context", s.GetContext)
		r.Get("/history", s.GetHistory)
		r.Delete("/history", s.ClearHistory)
		r.Post("/feedback", s.AddFeedback)
		r.Get("/feedback/report", s.FeedbackReport)
		r.Put("/materials", s.RebuildMaterials)
		r.Get("/materials", s.CountMaterials)
		r.Get("/documents/{docID}", s.GetDocument)
	})
}

// Ask handles POST /courses/{courseID}/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Question is required")
		return
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}

	answer := s.answers.Answer(r.Context(), chi.URLParam(r, "courseID"), req.UserID, req.Question)

	refs := answer.References
	if refs == nil {
		refs = []domain.Reference{}
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: answer.Text, References: refs})
}

// GetContext handles POST /courses/{courseID}/context. Retrieval only, no
// generation and no history write.
func (s *Server) GetContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Question is required")
		return
	}

	assembled, err := s.answers.Context(r.Context(), chi.URLParam(r, "courseID"), req.Question, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	refs := assembled.References
	if refs == nil {
		refs = []domain.Reference{}
	}
	writeJSON(w, http.StatusOK, contextResponse{Context: assembled.Text, References: refs})
}

// GetHistory handles GET /courses/{courseID}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = defaultUserID
	}

	messages, err := s.conversations.History(r.Context(), chi.URLParam(r, "courseID"), userID, s.historyLimit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: messages})
}

// ClearHistory handles DELETE /courses/{courseID}/history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = defaultUserID
	}

	if err := s.conversations.Clear(r.Context(), chi.URLParam(r, "courseID"), userID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddFeedback handles POST /courses/{courseID}/feedback.
func (s *Server) AddFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}

	fb, err := s.feedback.Add(r.Context(), chi.URLParam(r, "courseID"),
		req.UserID, req.Question, req.Answer, req.Rating, req.Comment)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

// FeedbackReport handles GET /courses/{courseID}/feedback/report.
func (s *Server) FeedbackReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.feedback.Report(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RebuildMaterials handles PUT /courses/{courseID}/materials. The body
// carries pre-extracted chunks; the course index is replaced wholesale.
func (s *Server) RebuildMaterials(w http.ResponseWriter, r *http.Request) {
	var req materialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	chunks := make([]domain.Chunk, len(req.Chunks))
	for i, it := range req.Chunks {
		chunks[i] = chunkFromItem(it)
	}

	indexed, err := s.ingest.Rebuild(r.Context(), chi.URLParam(r, "courseID"), chunks)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, materialsResponse{Indexed: indexed})
}

// CountMaterials handles GET /courses/{courseID}/materials.
func (s *Server) CountMaterials(w http.ResponseWriter, r *http.Request) {
	count, err := s.ingest.Count(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, materialsCountResponse{Chunks: count})
}

// GetDocument handles GET /courses/{courseID}/documents/{docID}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.ingest.Document(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "docID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := documentResponse{
		DocID:  chi.URLParam(r, "docID"),
		Chunks: make([]chunkItem, len(chunks)),
	}
	if len(chunks) > 0 {
		resp.Source = chunks[0].Source
		resp.FileName = chunks[0].FileName
		resp.FileType = chunks[0].FileType
	}
	for i, c := range chunks {
		resp.Chunks[i] = chunkToItem(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
		Time:    time.Now().UTC(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrCourseNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidRating,
		domain.ErrNoMaterials,
		domain.ErrEmbeddingProviderError,
		domain.ErrModelProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
