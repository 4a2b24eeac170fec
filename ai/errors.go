package ai

import "errors"

// Embedding errors
var (
	// ErrEmptyText indicates the input text was empty or whitespace-only.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmbeddingFailed indicates the provider could not produce an
	// embedding.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrDimensionMismatch indicates two vectors have different lengths.
	ErrDimensionMismatch = errors.New("vector dimensions do not match")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
