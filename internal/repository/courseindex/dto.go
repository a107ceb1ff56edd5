package courseindex

import (
	"strconv"

	"github.com/ellie-edu/ellie/internal/db"
	"github.com/ellie-edu/ellie/internal/domain"
)

func indexName(courseID string) string {
	return domain.KeyPrefix + "course:" + courseID + ":idx"
}

func chunkPrefix(courseID string) string {
	return domain.KeyPrefix + "course:" + courseID + ":chunk:"
}

func chunkKey(courseID, chunkID string) string {
	return chunkPrefix(courseID) + chunkID
}

// returnFields lists the hash fields fetched by searches, score field included.
var returnFields = []string{
	"doc_id", "seq", "source", "file_name", "file_type",
	"title", "page_title", "slide_title",
	"page", "total_pages", "slide", "total_slides",
	"__content", "__vector_score",
}

// chunkToHash flattens a chunk into hash fields. Zero-valued positional fields
// are omitted so text and slide documents don't carry each other's metadata.
func chunkToHash(c *domain.Chunk, vector []float32) map[string]string {
	fields := map[string]string{
		"doc_id":    c.DocID,
		"seq":       strconv.Itoa(c.Seq),
		"source":    c.Source,
		"file_name": c.FileName,
		"file_type": c.FileType,
		"__content": c.Text,
		"__vector":  db.EncodeVector(vector),
	}
	if c.Title != "" {
		fields["title"] = c.Title
	}
	if c.PageTitle != "" {
		fields["page_title"] = c.PageTitle
	}
	if c.SlideTitle != "" {
		fields["slide_title"] = c.SlideTitle
	}
	if c.Page > 0 {
		fields["page"] = strconv.Itoa(c.Page)
	}
	if c.TotalPages > 0 {
		fields["total_pages"] = strconv.Itoa(c.TotalPages)
	}
	if c.Slide > 0 {
		fields["slide"] = strconv.Itoa(c.Slide)
	}
	if c.TotalSlides > 0 {
		fields["total_slides"] = strconv.Itoa(c.TotalSlides)
	}
	return fields
}

// chunkFromFields reconstructs a chunk from hash fields.
func chunkFromFields(fields map[string]string) domain.Chunk {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	return domain.Chunk{
		DocID:       fields["doc_id"],
		Seq:         atoi(fields["seq"]),
		Source:      fields["source"],
		FileName:    fields["file_name"],
		FileType:    fields["file_type"],
		Title:       fields["title"],
		PageTitle:   fields["page_title"],
		SlideTitle:  fields["slide_title"],
		Page:        atoi(fields["page"]),
		TotalPages:  atoi(fields["total_pages"]),
		Slide:       atoi(fields["slide"]),
		TotalSlides: atoi(fields["total_slides"]),
		Text:        fields["__content"],
	}
}
