package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mentora/internal/rag/schema"
)

// newUpstageTestServer serves a fake embeddings endpoint that encodes each
// input text's global index into the first component of its vector, so order
// preservation is observable from the outside.
func newUpstageTestServer(t *testing.T, calls *[]int, mu *sync.Mutex) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		mu.Lock()
		*calls = append(*calls, len(req.Input))
		mu.Unlock()

		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for i, text := range req.Input {
			// text is "text-<n>"; echo n back as the vector value.
			var n float32
			fmt.Sscanf(text, "text-%f", &n)
			resp.Data = append(resp.Data, item{Index: i, Embedding: []float32{n}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbedBatch_SplitBoundary(t *testing.T) {
	for _, total := range []int{1, 99, 100, 101} {
		t.Run(fmt.Sprintf("size_%d", total), func(t *testing.T) {
			var calls []int
			var mu sync.Mutex
			srv := newUpstageTestServer(t, &calls, &mu)
			defer srv.Close()

			m, err := NewUpstageModel("test-key", srv.URL, "", "")
			if err != nil {
				t.Fatalf("NewUpstageModel() error = %v", err)
			}

			texts := make([]string, total)
			for i := range texts {
				texts[i] = fmt.Sprintf("text-%d", i)
			}

			vectors, err := m.EmbedBatch(context.Background(), texts, RolePassage)
			if err != nil {
				t.Fatalf("EmbedBatch() error = %v", err)
			}
			if len(vectors) != total {
				t.Fatalf("got %d vectors, want %d", len(vectors), total)
			}
			for i, v := range vectors {
				if int(v[0]) != i {
					t.Fatalf("vector %d carries value %v; order not preserved", i, v[0])
				}
			}

			wantCalls := (total + MaxBatchSize - 1) / MaxBatchSize
			if len(calls) != wantCalls {
				t.Errorf("provider called %d times, want %d", len(calls), wantCalls)
			}
			for _, size := range calls {
				if size > MaxBatchSize {
					t.Errorf("batch of %d texts exceeds the %d limit", size, MaxBatchSize)
				}
			}
		})
	}
}

func TestEmbedBatch_RoleSelectsModel(t *testing.T) {
	var gotModels []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotModels = append(gotModels, req.Model)
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.1]}]}`)
	}))
	defer srv.Close()

	m, _ := NewUpstageModel("test-key", srv.URL, "embedding-passage", "embedding-query")
	if _, err := m.Embed(context.Background(), "stored chunk", RolePassage); err != nil {
		t.Fatalf("Embed(passage) error = %v", err)
	}
	if _, err := m.Embed(context.Background(), "live question", RoleQuery); err != nil {
		t.Fatalf("Embed(query) error = %v", err)
	}

	if gotModels[0] != "embedding-passage" || gotModels[1] != "embedding-query" {
		t.Errorf("models = %v, want passage then query variants", gotModels)
	}
}

func TestEmbedBatch_ProviderErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"invalid api key"}`)
	}))
	defer srv.Close()

	m, _ := NewUpstageModel("bad-key", srv.URL, "", "")
	_, err := m.EmbedBatch(context.Background(), []string{"a", "b"}, RolePassage)
	if err == nil {
		t.Fatal("expected an error")
	}
	var embErr *schema.EmbeddingError
	if !errors.As(err, &embErr) {
		t.Fatalf("error %v is not an EmbeddingError", err)
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("provider message lost: %v", err)
	}
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	m, _ := NewUpstageModel("test-key", "http://unused", "", "")
	vectors, err := m.EmbedBatch(context.Background(), nil, RoleQuery)
	if err != nil {
		t.Fatalf("EmbedBatch(nil) error = %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("got %d vectors for empty input", len(vectors))
	}
}
