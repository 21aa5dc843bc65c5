package vectorstore

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"mentora/internal/rag/interfaces"
	"mentora/internal/rag/schema"
	"mentora/pkg/logger"
)

const milvusVectorField = "vector"

// MilvusStore implements the VectorStore interface on a Milvus collection
// with a fixed schema: id (primary key), vector, and the payload fields as
// scalar columns. Cosine metric with AUTOINDEX.
type MilvusStore struct {
	cli        client.Client
	collection string
	dimension  int
	log        *logger.Logger
}

// NewMilvusStore connects to Milvus and returns a store bound to the given
// collection.
func NewMilvusStore(ctx context.Context, address, collection string, dimension int, log *logger.Logger) (*MilvusStore, error) {
	if address == "" {
		return nil, fmt.Errorf("milvus address is empty")
	}
	cli, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Milvus: %w", err)
	}
	return &MilvusStore{cli: cli, collection: collection, dimension: dimension, log: log}, nil
}

// EnsureCollection creates the collection and its index if absent, then
// loads it for search.
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.cli.HasCollection(ctx, s.collection)
	if err != nil {
		return &schema.VectorStoreError{Backend: "milvus", Op: "ensure collection", Err: err}
	}
	if !exists {
		if err := s.createCollection(ctx); err != nil {
			return err
		}
	}
	if err := s.cli.LoadCollection(ctx, s.collection, false); err != nil {
		return &schema.VectorStoreError{Backend: "milvus", Op: "load collection", Err: err}
	}
	return nil
}

func (s *MilvusStore) createCollection(ctx context.Context) error {
	collSchema := entity.NewSchema().
		WithName(s.collection).
		WithDescription("document chunks with embeddings").
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(milvusVectorField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dimension))).
		WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
		WithField(entity.NewField().WithName(FieldTag).WithDataType(entity.FieldTypeVarChar).WithMaxLength(32)).
		WithField(entity.NewField().WithName(FieldDocID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(256)).
		WithField(entity.NewField().WithName(FieldChunkIndex).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldTimestamp).WithDataType(entity.FieldTypeVarChar).WithMaxLength(64))

	if err := s.cli.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
		return &schema.VectorStoreError{Backend: "milvus", Op: "create collection", Err: err}
	}
	idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
	if err != nil {
		return &schema.VectorStoreError{Backend: "milvus", Op: "create index", Err: err}
	}
	if err := s.cli.CreateIndex(ctx, s.collection, milvusVectorField, idx, false); err != nil {
		return &schema.VectorStoreError{Backend: "milvus", Op: "create index", Err: err}
	}
	s.log.Info(fmt.Sprintf("Created Milvus collection %s (dim=%d, cosine)", s.collection, s.dimension))
	return nil
}

// Upsert writes records in batches; Milvus upsert overwrites by primary key.
func (s *MilvusStore) Upsert(ctx context.Context, records []*schema.VectorRecord) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		ids := make([]string, len(batch))
		vectors := make([][]float32, len(batch))
		texts := make([]string, len(batch))
		tags := make([]string, len(batch))
		docIDs := make([]string, len(batch))
		chunkIndexes := make([]int64, len(batch))
		timestamps := make([]string, len(batch))
		for i, rec := range batch {
			if len(rec.Vector) != s.dimension {
				return &schema.VectorStoreError{
					Backend: "milvus", Op: "upsert",
					Err: fmt.Errorf("vector dim mismatch for id=%s, got=%d want=%d", rec.ID, len(rec.Vector), s.dimension),
				}
			}
			ids[i] = rec.ID
			vectors[i] = rec.Vector
			texts[i] = rec.Payload.Text
			tags[i] = rec.Payload.Tag
			docIDs[i] = rec.Payload.DocumentID
			chunkIndexes[i] = int64(rec.Payload.ChunkIndex)
			timestamps[i] = rec.Payload.Timestamp
		}

		_, err := s.cli.Upsert(
			ctx,
			s.collection,
			"",
			entity.NewColumnVarChar("id", ids),
			entity.NewColumnFloatVector(milvusVectorField, s.dimension, vectors),
			entity.NewColumnVarChar(FieldText, texts),
			entity.NewColumnVarChar(FieldTag, tags),
			entity.NewColumnVarChar(FieldDocID, docIDs),
			entity.NewColumnInt64(FieldChunkIndex, chunkIndexes),
			entity.NewColumnVarChar(FieldTimestamp, timestamps),
		)
		if err != nil {
			return &schema.VectorStoreError{Backend: "milvus", Op: "upsert", Err: err}
		}
	}
	return nil
}

// Search runs a cosine similarity search and rebuilds payloads from the
// scalar columns.
func (s *MilvusStore) Search(ctx context.Context, vector []float32, topK int) ([]schema.SearchMatch, error) {
	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, &schema.VectorStoreError{Backend: "milvus", Op: "search", Err: err}
	}
	outputFields := []string{FieldText, FieldTag, FieldDocID, FieldChunkIndex, FieldTimestamp}

	results, err := s.cli.Search(
		ctx,
		s.collection,
		[]string{},
		"",
		outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		milvusVectorField,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, &schema.VectorStoreError{Backend: "milvus", Op: "search", Err: err}
	}
	if len(results) == 0 {
		return []schema.SearchMatch{}, nil
	}
	return parseSearchResult(results[0])
}

func parseSearchResult(sr client.SearchResult) ([]schema.SearchMatch, error) {
	if sr.Err != nil {
		return nil, &schema.VectorStoreError{Backend: "milvus", Op: "search", Err: sr.Err}
	}

	textCol := columnByName(sr.Fields, FieldText)
	tagCol := columnByName(sr.Fields, FieldTag)
	docIDCol := columnByName(sr.Fields, FieldDocID)
	chunkIndexCol := columnByName(sr.Fields, FieldChunkIndex)
	timestampCol := columnByName(sr.Fields, FieldTimestamp)

	matches := make([]schema.SearchMatch, 0, sr.ResultCount)
	for i := 0; i < sr.ResultCount; i++ {
		match := schema.SearchMatch{}
		if i < len(sr.Scores) {
			match.Score = sr.Scores[i]
		}
		if textCol != nil {
			v, _ := textCol.GetAsString(i)
			match.Payload.Text = v
		}
		if tagCol != nil {
			v, _ := tagCol.GetAsString(i)
			match.Payload.Tag = v
		}
		if docIDCol != nil {
			v, _ := docIDCol.GetAsString(i)
			match.Payload.DocumentID = v
		}
		if chunkIndexCol != nil {
			v, _ := chunkIndexCol.GetAsInt64(i)
			match.Payload.ChunkIndex = int(v)
		}
		if timestampCol != nil {
			v, _ := timestampCol.GetAsString(i)
			match.Payload.Timestamp = v
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func columnByName(cols client.ResultSet, name string) entity.Column {
	for _, c := range cols {
		if c != nil && c.Name() == name {
			return c
		}
	}
	return nil
}

// DeleteAll drops the collection and recreates it with the same dimension
// and metric. A missing collection is success.
func (s *MilvusStore) DeleteAll(ctx context.Context) error {
	exists, err := s.cli.HasCollection(ctx, s.collection)
	if err != nil {
		return &schema.VectorStoreError{Backend: "milvus", Op: "delete all", Err: err}
	}
	if !exists {
		s.log.Info(fmt.Sprintf("Collection %s does not exist, nothing to delete", s.collection))
		return nil
	}
	if err := s.cli.DropCollection(ctx, s.collection); err != nil {
		return &schema.VectorStoreError{Backend: "milvus", Op: "delete all", Err: err}
	}
	return s.EnsureCollection(ctx)
}

// DeleteByDocument removes all records whose doc_id matches.
func (s *MilvusStore) DeleteByDocument(ctx context.Context, documentID string) error {
	expr := fmt.Sprintf(`%s == "%s"`, FieldDocID, documentID)
	if err := s.cli.Delete(ctx, s.collection, "", expr); err != nil {
		return &schema.VectorStoreError{Backend: "milvus", Op: "delete by document", Err: err}
	}
	return nil
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)
