package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Project / registry errors
	ErrProjectNotFound           = errors.New("project not found")
	ErrConversationNotFound      = errors.New("conversation not found")
	ErrEmbeddingProviderMismatch = errors.New("embedding provider does not match the one used at ingestion")
	ErrDimensionMismatch         = errors.New("embedding dimension mismatch")

	// Document errors
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// Upload validation errors
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Request validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// LoadError reports a malformed file that could not be converted to text.
// It wraps the parser's original fault.
type LoadError struct {
	Filename string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Filename, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EmbeddingProviderError reports an upstream embedding provider failure.
// Transient failures may be retried by the caller; the connector never
// retries on its own.
type EmbeddingProviderError struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *EmbeddingProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error { return e.Err }

// VectorStoreError reports a vector store failure. Transient errors
// (network faults, 5xx) are retryable with backoff at the orchestration
// layer; schema and dimension faults are fatal to the call.
type VectorStoreError struct {
	Op         string
	Collection string
	Transient  bool
	Err        error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store %s (collection %s): %v", e.Op, e.Collection, e.Err)
}

func (e *VectorStoreError) Unwrap() error { return e.Err }

// GenerationError reports a generative model failure. It is surfaced to the
// caller as-is; the orchestrator never substitutes a placeholder answer.
type GenerationError struct {
	Transient bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable provider or store fault.
// Fatal kinds (dimension mismatch, unsupported format, missing project)
// always return false.
func IsTransient(err error) bool {
	var storeErr *VectorStoreError
	if errors.As(err, &storeErr) {
		return storeErr.Transient
	}
	var embErr *EmbeddingProviderError
	if errors.As(err, &embErr) {
		return embErr.Transient
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Transient
	}
	return false
}
