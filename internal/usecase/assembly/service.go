package assembly

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ellie-edu/ellie/internal/domain"
	"github.com/ellie-edu/ellie/internal/logger"
)

// Service turns a routing decision into a prompt-ready context string with a
// parallel reference list. Course chunks come first, web snippets after, and
// reference identifiers are assigned contiguously across both (ref1..refN).
type Service struct {
	embedder domain.Embedder
	index    CourseSearcher
	web      WebSearcher
}

func New(embedder domain.Embedder, index CourseSearcher, web WebSearcher) *Service {
	return &Service{embedder: embedder, index: index, web: web}
}

// Preview retrieves the top-k course chunks for the question without building
// context. Used to ground the routing decision.
func (s *Service) Preview(ctx context.Context, courseID, question string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	res, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed preview query: %w", err)
	}
	return s.index.SearchSimilar(ctx, courseID, res.Embedding, k)
}

// Assemble executes the retrieval plan in the decision and composes the
// context. Snippets per web query are capped at min(3, max(1, KWeb)) and the
// merged web results are truncated to KWeb total after URL de-duplication. An
// empty context is a valid result.
func (s *Service) Assemble(ctx context.Context, courseID, question string, decision domain.RoutingDecision) (domain.AssembledContext, error) {
	log := logger.FromContext(ctx)

	var entries []string
	var refs []domain.Reference

	if decision.KCourse > 0 {
		res, err := s.embedder.Embed(ctx, question)
		if err != nil {
			return domain.AssembledContext{}, fmt.Errorf("embed question: %w", err)
		}
		scored, err := s.index.SearchSimilar(ctx, courseID, res.Embedding, decision.KCourse)
		if err != nil {
			return domain.AssembledContext{}, fmt.Errorf("course retrieval: %w", err)
		}
		for _, sc := range scored {
			ch := sc.Chunk
			if ch.DocID == "" || ch.DocID == "unknown" {
				if ch.Source == "" {
					log.Warn("Dropping chunk without document identity",
						zap.String("course_id", courseID),
						zap.String("file_name", ch.FileName))
					continue
				}
				ch.DocID = domain.DocIDFromSource(ch.Source)
			}
			id := domain.RefID(len(refs) + 1)
			refs = append(refs, domain.Reference{
				ID:       id,
				Kind:     domain.RefCourseDoc,
				DocID:    ch.DocID,
				ChunkID:  ch.ID(),
				Source:   ch.Source,
				Page:     ch.Page,
				Slide:    ch.Slide,
				Title:    ch.Title,
				Subtitle: subtitle(ch),
				Score:    sc.Score,
			})
			entries = append(entries, fmt.Sprintf("%s [Source: %s]", ch.Text, id))
		}
	}

	if decision.KWeb > 0 && s.web != nil {
		queries := decision.WebQueries
		if len(queries) == 0 {
			queries = []string{question}
		}
		kEach := min(3, max(1, decision.KWeb))
		snippets := s.web.SearchBatch(ctx, queries, kEach)
		if len(snippets) > decision.KWeb {
			snippets = snippets[:decision.KWeb]
		}
		for _, sn := range snippets {
			id := domain.RefID(len(refs) + 1)
			refs = append(refs, domain.Reference{
				ID:          id,
				Kind:        domain.RefWeb,
				URL:         sn.URL,
				Domain:      sn.Domain,
				Title:       sn.Title,
				Snippet:     sn.Snippet,
				PublishedAt: sn.PublishedAt,
				Score:       sn.Score,
			})
			entries = append(entries, fmt.Sprintf("%s [Source: %s]\nURL: %s", sn.Snippet, id, sn.URL))
		}
	}

	return domain.AssembledContext{
		Text:       strings.Join(entries, "\n\n"),
		References: refs,
	}, nil
}

func subtitle(ch domain.Chunk) string {
	if ch.PageTitle != "" {
		return ch.PageTitle
	}
	return ch.SlideTitle
}
