package interfaces

import (
	"context"

	"mentora/internal/rag/schema"
)

// Chunker is the interface for decomposing an HTML document into semantically
// labeled text chunks.
type Chunker interface {
	Chunk(htmlContent string) ([]schema.Chunk, error)
}

// VectorStore is the interface over a vector database collection. Two remote
// backends (Qdrant, Pinecone) and Milvus implement it; the backend is
// selected once by configuration, never by branching at call sites.
type VectorStore interface {
	// EnsureCollection creates the collection with the configured dimension
	// and cosine metric if it does not exist. Idempotent; must be called
	// before the first upsert or search in a process lifetime.
	EnsureCollection(ctx context.Context) error

	// Upsert writes records in batches of at most 100, overwriting existing
	// records that share an ID.
	Upsert(ctx context.Context, records []*schema.VectorRecord) error

	// Search returns up to topK matches ordered by descending similarity.
	// No threshold filtering happens here; that policy belongs to the
	// retrieval pipeline.
	Search(ctx context.Context, vector []float32, topK int) ([]schema.SearchMatch, error)

	// DeleteAll removes every record in the collection. Calling it when the
	// collection does not exist is a no-op, not an error.
	DeleteAll(ctx context.Context) error

	// DeleteByDocument removes all records whose payload doc_id matches.
	DeleteByDocument(ctx context.Context, documentID string) error
}

// LLM is the interface for a chat-completion model that generates the final
// answer from an assembled prompt and conversation history.
type LLM interface {
	Generate(ctx context.Context, systemPrompt string, history []schema.Message, prompt string) (string, error)
}
