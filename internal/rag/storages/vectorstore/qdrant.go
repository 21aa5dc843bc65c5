package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mentora/internal/rag/interfaces"
	"mentora/internal/rag/schema"
	"mentora/pkg/logger"
)

// QdrantStore is a REST client for a self-hosted Qdrant instance. The
// collection uses cosine distance; its dimension is fixed at creation time
// and recreation keeps it.
type QdrantStore struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
	log        *logger.Logger
}

// NewQdrantStore creates a new QdrantStore.
func NewQdrantStore(url, apiKey, collection string, dimension int, log *logger.Logger) (*QdrantStore, error) {
	if url == "" {
		return nil, fmt.Errorf("qdrant url is empty")
	}
	return &QdrantStore{
		url:        url,
		apiKey:     apiKey,
		collection: collection,
		dimension:  dimension,
		client:     &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}, nil
}

// EnsureCollection creates the collection with cosine distance if absent.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return &schema.VectorStoreError{Backend: "qdrant", Op: "ensure collection", Err: err}
	}
	if exists {
		return nil
	}
	return s.createCollection(ctx)
}

// Upsert writes records in batches, overwriting points that share an ID.
func (s *QdrantStore) Upsert(ctx context.Context, records []*schema.VectorRecord) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		points := make([]map[string]interface{}, len(batch))
		for i, rec := range batch {
			points[i] = map[string]interface{}{
				"id":      rec.ID,
				"vector":  rec.Vector,
				"payload": rec.Payload,
			}
		}
		url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection)
		if _, err := s.do(ctx, http.MethodPut, url, map[string]interface{}{"points": points}); err != nil {
			return &schema.VectorStoreError{Backend: "qdrant", Op: "upsert", Err: err}
		}
	}
	return nil
}

// Search returns up to topK matches ordered by descending cosine similarity.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]schema.SearchMatch, error) {
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	data, err := s.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, &schema.VectorStoreError{Backend: "qdrant", Op: "search", Err: err}
	}

	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload schema.Payload `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &schema.VectorStoreError{Backend: "qdrant", Op: "search", Err: fmt.Errorf("decode response: %w", err)}
	}

	matches := make([]schema.SearchMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, schema.SearchMatch{Score: r.Score, Payload: r.Payload})
	}
	return matches, nil
}

// DeleteAll drops the collection and recreates it with the original
// dimension and metric. A missing collection is success, not failure.
func (s *QdrantStore) DeleteAll(ctx context.Context) error {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return &schema.VectorStoreError{Backend: "qdrant", Op: "delete all", Err: err}
	}
	if !exists {
		s.log.Info(fmt.Sprintf("Collection %s does not exist, nothing to delete", s.collection))
		return nil
	}

	url := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
	if _, err := s.do(ctx, http.MethodDelete, url, nil); err != nil {
		return &schema.VectorStoreError{Backend: "qdrant", Op: "delete all", Err: err}
	}
	return s.createCollection(ctx)
}

// DeleteByDocument removes all points whose payload doc_id matches.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, documentID string) error {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{"key": FieldDocID, "match": map[string]interface{}{"value": documentID}},
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	if _, err := s.do(ctx, http.MethodPost, url, body); err != nil {
		return &schema.VectorStoreError{Backend: "qdrant", Op: "delete by document", Err: err}
	}
	return nil
}

func (s *QdrantStore) collectionExists(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, fmt.Errorf("GET %s failed: %s", url, resp.Status)
	default:
		return true, nil
	}
}

func (s *QdrantStore) createCollection(ctx context.Context) error {
	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
	if _, err := s.do(ctx, http.MethodPut, url, body); err != nil {
		return &schema.VectorStoreError{Backend: "qdrant", Op: "create collection", Err: err}
	}
	s.log.Info(fmt.Sprintf("Created Qdrant collection %s (dim=%d, cosine)", s.collection, s.dimension))
	return nil
}

func (s *QdrantStore) do(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s failed: %s: %s", method, url, resp.Status, string(data))
	}
	return data, nil
}

func (s *QdrantStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

var _ interfaces.VectorStore = (*QdrantStore)(nil)
