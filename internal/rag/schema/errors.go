package schema

import (
	"errors"
	"fmt"
)

// ErrNoContent is returned when a document yields no text chunks at all.
// The HTTP layer maps it to a 400.
var ErrNoContent = errors.New("no text content found in document")

// ParseError indicates the input document could not be parsed as HTML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmbeddingError indicates a remote embedding call failed. The provider's
// own message is preserved for diagnostics.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// VectorStoreError indicates a remote vector store call failed. Delete
// operations normalize "collection not found" to success before this is
// raised, so a VectorStoreError is always an actual fault.
type VectorStoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *VectorStoreError) Error() string {
	return fmt.Sprintf("vector store %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *VectorStoreError) Unwrap() error { return e.Err }

// GenerationError indicates the completion call returned no usable content.
// The service substitutes a safe fallback answer instead of surfacing it.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
