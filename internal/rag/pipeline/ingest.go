package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mentora/internal/embedding"
	"mentora/internal/rag/interfaces"
	"mentora/internal/rag/schema"
	"mentora/pkg/logger"
)

// IngestPipeline orchestrates chunking, embedding and storage of a document.
type IngestPipeline struct {
	chunker         interfaces.Chunker
	embedder        embedding.Embedding
	store           interfaces.VectorStore
	consistencyWait time.Duration
	log             *logger.Logger
}

// NewIngestPipeline creates a new IngestPipeline. consistencyWait is the
// explicit delay applied after writes before the store is trusted for
// read-after-write; pass zero to disable (tests do).
func NewIngestPipeline(
	chunker interfaces.Chunker,
	embedder embedding.Embedding,
	store interfaces.VectorStore,
	consistencyWait time.Duration,
	log *logger.Logger,
) *IngestPipeline {
	return &IngestPipeline{
		chunker:         chunker,
		embedder:        embedder,
		store:           store,
		consistencyWait: consistencyWait,
		log:             log,
	}
}

// Run ingests one document and returns the number of chunks processed.
// Record IDs derive deterministically from (documentID, chunkIndex), so
// re-ingesting the same document overwrites its previous vectors. Any
// provider or store failure aborts the whole run; batches already written
// stay in place and are simply overwritten on retry.
func (p *IngestPipeline) Run(ctx context.Context, documentID, htmlContent string) (int, error) {
	p.log.Info(fmt.Sprintf("Starting ingest for document %s", documentID))

	// 1. Decompose the document into labeled chunks.
	chunks, err := p.chunker.Chunk(htmlContent)
	if err != nil {
		return 0, err
	}
	p.log.Info(fmt.Sprintf("Document %s produced %d chunks", documentID, len(chunks)))

	// 2. Embed every chunk text as a passage. All-or-nothing: a failed
	// batch aborts the ingest with no partial embeddings accepted.
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts, embedding.RolePassage)
	if err != nil {
		p.log.WithError(err).Error("Failed to embed chunks")
		return 0, err
	}

	// 3. Build records with deterministic IDs and payload metadata.
	timestamp := time.Now().UTC().Format(time.RFC3339)
	records := make([]*schema.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = &schema.VectorRecord{
			ID:     RecordID(documentID, i),
			Vector: vectors[i],
			Payload: schema.Payload{
				Text:       chunk.Text,
				Tag:        chunk.Tag,
				DocumentID: documentID,
				ChunkIndex: i,
				Timestamp:  timestamp,
			},
		}
	}

	// 4. Store the records.
	if err := p.store.EnsureCollection(ctx); err != nil {
		return 0, err
	}
	if err := p.store.Upsert(ctx, records); err != nil {
		p.log.WithError(err).Error("Failed to upsert records")
		return 0, err
	}

	// 5. Wait out the store's eventual consistency window before reporting
	// success, so an immediate follow-up query sees the new vectors.
	if p.consistencyWait > 0 {
		select {
		case <-time.After(p.consistencyWait):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	p.log.Info(fmt.Sprintf("Successfully ingested document %s (%d chunks)", documentID, len(chunks)))
	return len(chunks), nil
}

// RecordID derives a stable vector ID from the document ID and chunk index.
// UUIDv3 keeps it deterministic and acceptable to every backend's ID rules.
func RecordID(documentID string, chunkIndex int) string {
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s_%d", documentID, chunkIndex))).String()
}
