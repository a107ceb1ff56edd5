// Package courseindex stores course material chunks in per-course vector indexes.
package courseindex

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ellie-edu/ellie/internal/db"
	"github.com/ellie-edu/ellie/internal/domain"
)

// store is the consumer interface for course indexes (ISP).
//
//nolint:interfacebloat // index repo needs hash + index + search operations
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the course material index contracts of the assembly,
// ingest and registry usecases.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates a course index repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 32, EFConstruct: 400}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Exists reports whether an index for the course has been created.
func (r *Repo) Exists(ctx context.Context, courseID string) (bool, error) {
	ok, err := r.store.IndexExists(ctx, indexName(courseID))
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w", courseID, err)
	}
	return ok, nil
}

// EnsureIndex creates the course index if it is missing.
func (r *Repo) EnsureIndex(ctx context.Context, courseID string, vectorDim int) error {
	def, err := r.buildIndex(courseID, vectorDim)
	if err != nil {
		return fmt.Errorf("build index %s: %w", courseID, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", courseID, err)
	}
	return nil
}

// Rebuild replaces the course index contents atomically enough for a single
// writer: deletes old chunk hashes, recreates the index, writes new chunks.
// The caller must hold the course rebuild lock.
func (r *Repo) Rebuild(ctx context.Context, courseID string, chunks []domain.Chunk, vectors [][]float32, vectorDim int) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("rebuild %s: %d chunks but %d vectors", courseID, len(chunks), len(vectors))
	}

	oldKeys, err := r.store.Scan(ctx, chunkPrefix(courseID)+"*")
	if err != nil {
		return fmt.Errorf("scan chunks %s: %w", courseID, err)
	}
	for _, key := range oldKeys {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("del chunk %s: %w", key, err)
		}
	}

	if err := r.store.DropIndex(ctx, indexName(courseID)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", courseID, err)
	}
	def, err := r.buildIndex(courseID, vectorDim)
	if err != nil {
		return fmt.Errorf("build index %s: %w", courseID, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", courseID, err)
	}

	items := make([]db.HashSetItem, 0, len(chunks))
	for i := range chunks {
		items = append(items, db.HashSetItem{
			Key:    chunkKey(courseID, chunks[i].ID()),
			Fields: chunkToHash(&chunks[i], vectors[i]),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset chunks %s: %w", courseID, err)
	}

	return nil
}

// SearchSimilar returns the top-k chunks by vector similarity, best first.
func (r *Repo) SearchSimilar(ctx context.Context, courseID string, vector []float32, k int) ([]domain.ScoredChunk, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(courseID),
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("search knn %s: %w", courseID, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	chunks := make([]domain.ScoredChunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		chunks = append(chunks, domain.ScoredChunk{
			Chunk: chunkFromFields(entry.Fields),
			Score: entry.Score,
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })
	return chunks, nil
}

// Count returns the number of indexed chunks for a course.
func (r *Repo) Count(ctx context.Context, courseID string) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(courseID), "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, domain.ErrCourseNotFound
		}
		return 0, fmt.Errorf("count chunks %s: %w", courseID, err)
	}
	return n, nil
}

// Document returns all chunks of a document ordered by sequence number.
// Returns domain.ErrNotFound when the document has no chunks.
func (r *Repo) Document(ctx context.Context, courseID, docID string) ([]domain.Chunk, error) {
	query := "@doc_id:{" + db.EscapeTag(docID) + "}"

	sr, err := r.store.SearchList(ctx, indexName(courseID), query, 0, maxDocumentChunks, returnFields)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("search document %s/%s: %w", courseID, docID, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, domain.ErrNotFound
	}

	chunks := make([]domain.Chunk, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		chunks = append(chunks, chunkFromFields(entry.Fields))
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })
	return chunks, nil
}

// maxDocumentChunks caps document chunk listings; a single source file never
// produces more chunks than this in practice.
const maxDocumentChunks = 10000

func (r *Repo) buildIndex(courseID string, vectorDim int) (*db.IndexDefinition, error) {
	return db.NewIndex(indexName(courseID)).
		Prefix(chunkPrefix(courseID)).
		Tag("doc_id").
		Numeric("seq").
		VectorHNSW("__vector", vectorDim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).As("vector").
		Build()
}
