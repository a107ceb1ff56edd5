package domain

import (
	"crypto/md5" //nolint:gosec // content addressing, not cryptography
	"encoding/hex"
	"fmt"
)

// Chunk is a contiguous span of extracted course-material text, the unit of
// retrieval. Chunks are produced by the (external) ingestion pipeline, indexed
// wholesale per course, and immutable until the next full rebuild.
type Chunk struct {
	DocID    string
	Seq      int // sequence index within the ingestion batch
	Source   string
	FileName string
	FileType string

	Title      string
	PageTitle  string
	SlideTitle string

	Page        int // 1-based, 0 = not applicable
	TotalPages  int
	Slide       int // 1-based, 0 = not applicable
	TotalSlides int

	Text string
}

// ID returns the chunk identifier, unique within a course index.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s_%d", c.DocID, c.Seq)
}

// BestTitle picks the most specific title metadata available for display.
func (c Chunk) BestTitle() string {
	switch {
	case c.PageTitle != "":
		return c.PageTitle
	case c.SlideTitle != "":
		return c.SlideTitle
	case c.Title != "":
		return c.Title
	default:
		return c.FileName
	}
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// DocIDFromSource derives a stable document identifier from a source path.
func DocIDFromSource(source string) string {
	sum := md5.Sum([]byte(source)) //nolint:gosec // stable id, not cryptography
	return hex.EncodeToString(sum[:])
}
