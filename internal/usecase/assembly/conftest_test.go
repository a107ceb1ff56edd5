package assembly

import (
	"context"

	"github.com/ellie-edu/ellie/internal/domain"
)

type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector}, nil
}

type mockSearcher struct {
	chunks []domain.ScoredChunk
	err    error
	lastK  int
}

func (m *mockSearcher) SearchSimilar(_ context.Context, _ string, _ []float32, k int) ([]domain.ScoredChunk, error) {
	m.lastK = k
	if m.err != nil {
		return nil, m.err
	}
	if len(m.chunks) > k {
		return m.chunks[:k], nil
	}
	return m.chunks, nil
}

type mockWeb struct {
	snippets    []domain.WebSnippet
	lastQueries []string
	lastKEach   int
	calls       int
}

func (m *mockWeb) SearchBatch(_ context.Context, queries []string, kEach int) []domain.WebSnippet {
	m.calls++
	m.lastQueries = queries
	m.lastKEach = kEach
	return m.snippets
}

func courseChunk(docID string, seq int, text string) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			DocID:    docID,
			Seq:      seq,
			Source:   "materials/lecture1.pdf",
			FileName: "lecture1.pdf",
			FileType: "pdf",
			Title:    "Lecture 1",
			Page:     seq + 1,
			Text:     text,
		},
		Score: 0.9 - float64(seq)*0.1,
	}
}
