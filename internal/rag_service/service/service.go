package service

import (
	"context"
	"errors"
	"fmt"

	"mentora/internal/config"
	"mentora/internal/embedding"
	"mentora/internal/rag/chunkers"
	"mentora/internal/rag/interfaces"
	"mentora/internal/rag/pipeline"
	"mentora/internal/rag/schema"
	"mentora/pkg/logger"
)

// fallbackAnswer is returned when the answer generator fails after a
// successful retrieval. The conversation degrades gracefully instead of
// surfacing a provider error to someone mid-session.
const fallbackAnswer = "I'm here with you, but I'm having trouble putting my response together right now. Please give me a moment and ask again — what you're going through matters, and I want to respond properly."

// Service wires the chunking, embedding, storage and generation pipelines
// behind the operations the API exposes.
type Service struct {
	ingest    *pipeline.IngestPipeline
	retrieval *pipeline.RetrievalPipeline
	qa        *pipeline.QAPipeline
	store     interfaces.VectorStore
	log       *logger.Logger
}

// New assembles a Service from its already-constructed dependencies.
func New(
	embedder embedding.Embedding,
	store interfaces.VectorStore,
	llmClient interfaces.LLM,
	storeCfg config.VectorStoreConfig,
	retrievalCfg config.RetrievalConfig,
	log *logger.Logger,
) *Service {
	chunker := chunkers.NewHTMLChunker()
	return &Service{
		ingest:    pipeline.NewIngestPipeline(chunker, embedder, store, storeCfg.ConsistencyWaitDuration(), log),
		retrieval: pipeline.NewRetrievalPipeline(embedder, store, retrievalCfg, log),
		qa:        pipeline.NewQAPipeline(llmClient, log),
		store:     store,
		log:       log,
	}
}

// IngestResult reports what one ingest run produced.
type IngestResult struct {
	DocumentID string `json:"documentId"`
	ChunkCount int    `json:"chunkCount"`
}

// IngestDocument chunks, embeds and stores one HTML document under the given
// ID. Re-ingesting the same ID overwrites the earlier vectors.
func (s *Service) IngestDocument(ctx context.Context, documentID, htmlContent string) (*IngestResult, error) {
	count, err := s.ingest.Run(ctx, documentID, htmlContent)
	if err != nil {
		return nil, err
	}
	return &IngestResult{DocumentID: documentID, ChunkCount: count}, nil
}

// ChatResult is a generated answer plus the retrieval evidence behind it.
type ChatResult struct {
	Answer  string
	Intent  pipeline.Intent
	Sources []schema.SearchMatch
}

// Chat answers a query against the stored documents. Retrieval and embedding
// failures abort the call; a generation failure degrades to a fixed fallback
// answer so the conversation keeps flowing.
func (s *Service) Chat(ctx context.Context, query string, history []schema.Message) (*ChatResult, error) {
	retrieved, err := s.retrieval.Run(ctx, query)
	if err != nil {
		return nil, err
	}

	answer, err := s.qa.Run(ctx, query, retrieved.ContextText, history)
	if err != nil {
		var genErr *schema.GenerationError
		if !errors.As(err, &genErr) {
			return nil, err
		}
		s.log.WithError(err).Warn("Answer generation failed, returning fallback answer")
		answer = fallbackAnswer
	}

	return &ChatResult{
		Answer:  answer,
		Intent:  retrieved.Intent,
		Sources: retrieved.Matches,
	}, nil
}

// DeleteDocument removes every vector ingested under the given document ID.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) error {
	s.log.Info(fmt.Sprintf("Deleting vectors for document %s", documentID))
	return s.store.DeleteByDocument(ctx, documentID)
}

// DeleteAllVectors wipes the whole collection. Succeeds when there is
// nothing to wipe.
func (s *Service) DeleteAllVectors(ctx context.Context) error {
	s.log.Warn("Deleting ALL vectors from the collection")
	return s.store.DeleteAll(ctx)
}
