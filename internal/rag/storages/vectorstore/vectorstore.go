package vectorstore

import (
	"context"
	"fmt"

	"mentora/internal/config"
	"mentora/internal/rag/interfaces"
	"mentora/pkg/logger"
)

const (
	// Payload fields persisted with every vector.
	FieldText       = "text"
	FieldTag        = "tag"
	FieldDocID      = "doc_id"
	FieldChunkIndex = "chunk_index"
	FieldTimestamp  = "timestamp"
)

// upsertBatchSize caps how many records a single remote write may carry.
const upsertBatchSize = 100

// New selects and builds the configured vector store backend. The choice is
// made once here; call sites only ever see the VectorStore interface.
func New(ctx context.Context, cfg config.VectorStoreConfig, log *logger.Logger) (interfaces.VectorStore, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("vector store collection name is empty")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension: %d", cfg.Dimension)
	}
	switch cfg.Provider {
	case "qdrant":
		return NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Collection, cfg.Dimension, log)
	case "pinecone":
		return NewPineconeStore(cfg.Pinecone, cfg.Collection, cfg.Dimension, log)
	case "milvus":
		return NewMilvusStore(ctx, cfg.Milvus.Address, cfg.Collection, cfg.Dimension, log)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", cfg.Provider)
	}
}
