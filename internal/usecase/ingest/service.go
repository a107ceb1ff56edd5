package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ellie-edu/ellie/internal/domain"
	"github.com/ellie-edu/ellie/internal/logger"
)

// Service rebuilds per-course document indexes from pre-extracted chunk
// sequences. Extraction (PDF, PPTX parsing) happens upstream; this layer
// normalizes identity metadata, vectorizes, and swaps the index wholesale
// under the course's rebuild lock.
type Service struct {
	index    Index
	embedder domain.Embedder
	locks    Locker
}

func New(index Index, embedder domain.Embedder, locks Locker) *Service {
	return &Service{index: index, embedder: embedder, locks: locks}
}

// Rebuild replaces the course index with the given chunks and returns the
// number of chunks indexed. Chunks without a doc_id get one derived from
// their source path; sequence ids are assigned by batch position.
func (s *Service) Rebuild(ctx context.Context, courseID string, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, domain.ErrNoMaterials
	}
	log := logger.FromContext(ctx)
	start := time.Now()

	texts := make([]string, len(chunks))
	for i := range chunks {
		if chunks[i].DocID == "" || chunks[i].DocID == "unknown" {
			chunks[i].DocID = domain.DocIDFromSource(chunks[i].Source)
		}
		chunks[i].Seq = i
		texts[i] = chunks[i].Text
	}

	result, err := s.embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("vectorize chunks: %w", err)
	}
	if len(result.Embeddings) != len(chunks) {
		return 0, fmt.Errorf("vectorize chunks: got %d vectors for %d chunks",
			len(result.Embeddings), len(chunks))
	}
	dim := len(result.Embeddings[0])

	err = s.locks.WithRebuildLock(ctx, courseID, func() error {
		return s.index.Rebuild(ctx, courseID, chunks, result.Embeddings, dim)
	})
	if err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	log.Info("Course index rebuilt",
		zap.String("course_id", courseID),
		zap.Int("chunks", len(chunks)),
		zap.Int("tokens", result.TotalTokens),
		zap.Duration("took", time.Since(start)))
	return len(chunks), nil
}

// Count reports the number of indexed chunks for a course.
func (s *Service) Count(ctx context.Context, courseID string) (int, error) {
	return s.index.Count(ctx, courseID)
}

// Document returns every indexed chunk of one document in sequence order.
func (s *Service) Document(ctx context.Context, courseID, docID string) ([]domain.Chunk, error) {
	return s.index.Document(ctx, courseID, docID)
}

func (s *Service) embed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embedder, texts)
}
