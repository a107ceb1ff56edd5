package chi

import (
	"time"

	"github.com/ellie-edu/ellie/internal/domain"
)

type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeValidationFailed errorCode = "validation_failed"
	codeCourseNotFound   errorCode = "course_not_found"
	codeNotFound         errorCode = "not_found"
	codeInvalidRating    errorCode = "invalid_rating"
	codeNoMaterials      errorCode = "no_materials"
	codeProviderError    errorCode = "provider_error"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type askRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
}

type askResponse struct {
	Answer     string             `json:"answer"`
	References []domain.Reference `json:"references"`
}

type contextRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type contextResponse struct {
	Context    string             `json:"context"`
	References []domain.Reference `json:"references"`
}

type historyResponse struct {
	Messages []domain.Message `json:"messages"`
}

type feedbackRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment,omitempty"`
}

type materialsRequest struct {
	Chunks []chunkItem `json:"chunks"`
}

type chunkItem struct {
	DocID       string `json:"doc_id,omitempty"`
	Source      string `json:"source"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	Title       string `json:"title,omitempty"`
	PageTitle   string `json:"page_title,omitempty"`
	SlideTitle  string `json:"slide_title,omitempty"`
	Page        int    `json:"page,omitempty"`
	TotalPages  int    `json:"total_pages,omitempty"`
	Slide       int    `json:"slide,omitempty"`
	TotalSlides int    `json:"total_slides,omitempty"`
	Text        string `json:"text"`
}

type materialsResponse struct {
	Indexed int `json:"indexed"`
}

type materialsCountResponse struct {
	Chunks int `json:"chunks"`
}

type documentResponse struct {
	DocID    string      `json:"doc_id"`
	Source   string      `json:"source"`
	FileName string      `json:"file_name"`
	FileType string      `json:"file_type"`
	Chunks   []chunkItem `json:"chunks"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
	Time    time.Time         `json:"time"`
}

func chunkToItem(c domain.Chunk) chunkItem {
	return chunkItem{
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

func chunkFromItem(it chunkItem) domain.Chunk {
	return domain.Chunk{
		DocID:       it.DocID,
		Source:      it.Source,
		FileName:    it.FileName,
		FileType:    it.FileType,
		Title:       it.Title,
		PageTitle:   it.PageTitle,
		SlideTitle:  it.SlideTitle,
		Page:        it.Page,
		TotalPages:  it.TotalPages,
		Slide:       it.Slide,
		TotalSlides: it.TotalSlides,
		Text:        it.Text,
	}
}
