package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mentora/internal/config"
	"mentora/internal/rag/interfaces"
	"mentora/internal/rag/schema"
	"mentora/pkg/logger"
)

// PineconeStore is a REST client for the Pinecone managed index service.
// Index creation goes through the control plane; vector operations hit the
// per-index data-plane host.
type PineconeStore struct {
	apiKey     string
	indexHost  string
	controlURL string
	cloud      string
	region     string
	index      string
	dimension  int
	client     *http.Client
	log        *logger.Logger
}

// NewPineconeStore creates a new PineconeStore.
func NewPineconeStore(cfg config.PineconeConfig, index string, dimension int, log *logger.Logger) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone api key is empty")
	}
	if cfg.IndexHost == "" {
		return nil, fmt.Errorf("pinecone index host is empty")
	}
	return &PineconeStore{
		apiKey:     cfg.APIKey,
		indexHost:  cfg.IndexHost,
		controlURL: cfg.ControlURL,
		cloud:      cfg.Cloud,
		region:     cfg.Region,
		index:      index,
		dimension:  dimension,
		client:     &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}, nil
}

// EnsureCollection creates the serverless index with cosine metric if it is
// not there yet. Pinecone answers 409 for an existing index; that is success.
func (s *PineconeStore) EnsureCollection(ctx context.Context) error {
	body := map[string]interface{}{
		"name":      s.index,
		"dimension": s.dimension,
		"metric":    "cosine",
		"spec": map[string]interface{}{
			"serverless": map[string]interface{}{
				"cloud":  s.cloud,
				"region": s.region,
			},
		},
	}
	status, _, err := s.do(ctx, http.MethodPost, s.controlURL+"/indexes", body)
	if err != nil {
		if status == http.StatusConflict {
			return nil
		}
		return &schema.VectorStoreError{Backend: "pinecone", Op: "ensure collection", Err: err}
	}
	s.log.Info(fmt.Sprintf("Created Pinecone index %s (dim=%d, cosine)", s.index, s.dimension))
	return nil
}

// Upsert writes records in batches; Pinecone overwrites by ID natively.
func (s *PineconeStore) Upsert(ctx context.Context, records []*schema.VectorRecord) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		vectors := make([]map[string]interface{}, len(batch))
		for i, rec := range batch {
			vectors[i] = map[string]interface{}{
				"id":     rec.ID,
				"values": rec.Vector,
				"metadata": map[string]interface{}{
					FieldText:       rec.Payload.Text,
					FieldTag:        rec.Payload.Tag,
					FieldDocID:      rec.Payload.DocumentID,
					FieldChunkIndex: rec.Payload.ChunkIndex,
					FieldTimestamp:  rec.Payload.Timestamp,
				},
			}
		}
		if _, _, err := s.do(ctx, http.MethodPost, s.indexHost+"/vectors/upsert", map[string]interface{}{"vectors": vectors}); err != nil {
			return &schema.VectorStoreError{Backend: "pinecone", Op: "upsert", Err: err}
		}
	}
	return nil
}

// Search queries the index and maps metadata back into payloads.
func (s *PineconeStore) Search(ctx context.Context, vector []float32, topK int) ([]schema.SearchMatch, error) {
	body := map[string]interface{}{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	_, data, err := s.do(ctx, http.MethodPost, s.indexHost+"/query", body)
	if err != nil {
		return nil, &schema.VectorStoreError{Backend: "pinecone", Op: "search", Err: err}
	}

	var resp struct {
		Matches []struct {
			Score    float32                `json:"score"`
			Metadata map[string]interface{} `json:"metadata"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &schema.VectorStoreError{Backend: "pinecone", Op: "search", Err: fmt.Errorf("decode response: %w", err)}
	}

	matches := make([]schema.SearchMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, schema.SearchMatch{Score: m.Score, Payload: payloadFromMetadata(m.Metadata)})
	}
	return matches, nil
}

// DeleteAll uses Pinecone's native delete-all; a missing index is success.
func (s *PineconeStore) DeleteAll(ctx context.Context) error {
	status, _, err := s.do(ctx, http.MethodPost, s.indexHost+"/vectors/delete", map[string]interface{}{"deleteAll": true})
	if err != nil {
		if status == http.StatusNotFound {
			s.log.Info(fmt.Sprintf("Index %s does not exist, nothing to delete", s.index))
			return nil
		}
		return &schema.VectorStoreError{Backend: "pinecone", Op: "delete all", Err: err}
	}
	return nil
}

// DeleteByDocument removes vectors whose doc_id metadata matches.
func (s *PineconeStore) DeleteByDocument(ctx context.Context, documentID string) error {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			FieldDocID: map[string]interface{}{"$eq": documentID},
		},
	}
	if _, _, err := s.do(ctx, http.MethodPost, s.indexHost+"/vectors/delete", body); err != nil {
		return &schema.VectorStoreError{Backend: "pinecone", Op: "delete by document", Err: err}
	}
	return nil
}

func (s *PineconeStore) do(ctx context.Context, method, url string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if resp.StatusCode >= 300 {
		return resp.StatusCode, nil, fmt.Errorf("%s %s failed: %s: %s", method, url, resp.Status, string(data))
	}
	return resp.StatusCode, data, nil
}

// payloadFromMetadata rebuilds a payload from Pinecone metadata, where all
// numbers come back as float64.
func payloadFromMetadata(md map[string]interface{}) schema.Payload {
	var p schema.Payload
	if v, ok := md[FieldText].(string); ok {
		p.Text = v
	}
	if v, ok := md[FieldTag].(string); ok {
		p.Tag = v
	}
	if v, ok := md[FieldDocID].(string); ok {
		p.DocumentID = v
	}
	if v, ok := md[FieldChunkIndex].(float64); ok {
		p.ChunkIndex = int(v)
	}
	if v, ok := md[FieldTimestamp].(string); ok {
		p.Timestamp = v
	}
	return p
}

var _ interfaces.VectorStore = (*PineconeStore)(nil)
