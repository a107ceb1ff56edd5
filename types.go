package ellie

import (
	"time"

	"github.com/ellie-edu/ellie/internal/domain"
	feedbackuc "github.com/ellie-edu/ellie/internal/usecase/feedback"
)

// Reference is the provenance record attached to one piece of answer context:
// either a course-material chunk or a web snippet.
type Reference struct {
	ID   string
	Type string // "course_doc" or "web"

	// course_doc fields
	DocID    string
	ChunkID  string
	Source   string
	Page     int
	Slide    int
	Title    string
	Subtitle string
	Score    float64

	// web fields
	URL         string
	Domain      string
	Snippet     string
	PublishedAt string
}

// Answer is one answered question with its references.
type Answer struct {
	Text       string
	References []Reference
}

// Message is one conversation history entry.
type Message struct {
	Role       string
	Content    string
	Timestamp  time.Time
	References []Reference
}

// Chunk is one pre-extracted span of course material for indexing.
type Chunk struct {
	DocID       string
	Source      string
	FileName    string
	FileType    string
	Title       string
	PageTitle   string
	SlideTitle  string
	Page        int
	TotalPages  int
	Slide       int
	TotalSlides int
	Text        string
}

// FeedbackReport summarizes all feedback recorded for a course.
type FeedbackReport struct {
	CourseID           string
	GeneratedAt        time.Time
	TotalFeedback      int
	AverageRating      float64
	RatingDistribution map[string]int
	SampleComments     []string
	FirstDate          time.Time
	LastDate           time.Time
}

func referenceFromDomain(r domain.Reference) Reference {
	return Reference{
		ID:          r.ID,
		Type:        string(r.Kind),
		DocID:       r.DocID,
		ChunkID:     r.ChunkID,
		Source:      r.Source,
		Page:        r.Page,
		Slide:       r.Slide,
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Score:       r.Score,
		URL:         r.URL,
		Domain:      r.Domain,
		Snippet:     r.Snippet,
		PublishedAt: r.PublishedAt,
	}
}

func referencesFromDomain(refs []domain.Reference) []Reference {
	if len(refs) == 0 {
		return nil
	}
	out := make([]Reference, len(refs))
	for i, r := range refs {
		out[i] = referenceFromDomain(r)
	}
	return out
}

func messageFromDomain(m domain.Message) Message {
	return Message{
		Role:       string(m.Role),
		Content:    m.Content,
		Timestamp:  m.Timestamp,
		References: referencesFromDomain(m.References),
	}
}

func chunkToDomain(c Chunk) domain.Chunk {
	return domain.Chunk{
		DocID:       c.DocID,
		Source:      c.Source,
		FileName:    c.FileName,
		FileType:    c.FileType,
		Title:       c.Title,
		PageTitle:   c.PageTitle,
		SlideTitle:  c.SlideTitle,
		Page:        c.Page,
		TotalPages:  c.TotalPages,
		Slide:       c.Slide,
		TotalSlides: c.TotalSlides,
		Text:        c.Text,
	}
}

func reportFromInternal(r feedbackuc.Report) FeedbackReport {
	return FeedbackReport{
		CourseID:           r.CourseID,
		GeneratedAt:        r.GeneratedAt,
		TotalFeedback:      r.TotalFeedback,
		AverageRating:      r.AverageRating,
		RatingDistribution: r.RatingDistribution,
		SampleComments:     r.SampleComments,
		FirstDate:          r.FirstDate,
		LastDate:           r.LastDate,
	}
}
