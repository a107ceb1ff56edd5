package domain

import "strconv"

// RefKind distinguishes course-material references from web references.
type RefKind string

const (
	// RefCourseDoc marks a reference into the course document index.
	RefCourseDoc RefKind = "course_doc"
	// RefWeb marks a reference to a web search snippet.
	RefWeb RefKind = "web"
)

// Reference is a unit of provenance attached to one piece of retrieved
// context. Identifiers are assigned by position within a single answer turn
// (ref1, ref2, ...), course-document references numbered before web ones.
// References are constructed fresh per turn and embedded verbatim into the
// persisted assistant message.
type Reference struct {
	ID   string  `json:"id"`
	Kind RefKind `json:"ref_type"`

	// course_doc fields
	DocID    string  `json:"doc_id,omitempty"`
	ChunkID  string  `json:"chunk_id,omitempty"`
	Source   string  `json:"source,omitempty"`
	Page     int     `json:"page,omitempty"`
	Slide    int     `json:"slide,omitempty"`
	Title    string  `json:"title,omitempty"`
	Subtitle string  `json:"subtitle,omitempty"`
	Score    float64 `json:"score,omitempty"`

	// web fields
	URL         string `json:"url,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Snippet     string `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// RefID formats the positional reference identifier for rank n (1-based).
func RefID(n int) string {
	return "ref" + strconv.Itoa(n)
}

// AssembledContext is the Context Assembler's output: a prompt-ready context
// string plus the parallel structured reference list.
type AssembledContext struct {
	Text       string
	References []Reference
}

// Answer is the orchestrator's result for one question-answering turn.
type Answer struct {
	Text       string      `json:"answer"`
	References []Reference `json:"references"`
}
