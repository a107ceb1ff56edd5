package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrCourseNotFound signals a course with no built index.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidRating signals a feedback rating outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrNoMaterials signals an ingestion request with zero usable chunks.
	ErrNoMaterials = errors.New("no material chunks provided")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrModelProviderError signals a reasoning-model provider failure.
	ErrModelProviderError = errors.New("model provider error")
)
