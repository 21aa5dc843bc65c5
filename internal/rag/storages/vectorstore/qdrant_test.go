package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"mentora/internal/rag/schema"
	"mentora/pkg/logger"
)

func testLogger() *logger.Logger {
	logger.Init(logrus.ErrorLevel)
	return logger.New("test", "")
}

// fakeQdrant is a minimal in-memory Qdrant lookalike covering the endpoints
// the store uses.
type fakeQdrant struct {
	t          *testing.T
	collection string
	exists     bool
	dimension  int
	points     map[string]schema.Payload
	upserts    []int // batch sizes seen
	deletedDoc string
	recreated  bool
}

func (f *fakeQdrant) handler() http.Handler {
	mux := http.NewServeMux()
	collPath := "/collections/" + f.collection

	mux.HandleFunc(collPath, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			fmt.Fprint(w, `{"result":{}}`)
		case http.MethodPut:
			var req struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.Vectors.Distance != "Cosine" {
				f.t.Errorf("create collection distance = %q, want Cosine", req.Vectors.Distance)
			}
			if f.dimension != 0 && req.Vectors.Size != f.dimension {
				f.t.Errorf("recreate dimension = %d, want %d", req.Vectors.Size, f.dimension)
			}
			f.dimension = req.Vectors.Size
			if f.exists {
				f.recreated = true
			}
			f.exists = true
			fmt.Fprint(w, `{"result":true}`)
		case http.MethodDelete:
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			f.exists = false
			f.points = map[string]schema.Payload{}
			f.recreated = true
			fmt.Fprint(w, `{"result":true}`)
		}
	})

	mux.HandleFunc(collPath+"/points", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Points []struct {
				ID      string         `json:"id"`
				Payload schema.Payload `json:"payload"`
			} `json:"points"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.upserts = append(f.upserts, len(req.Points))
		if f.points == nil {
			f.points = map[string]schema.Payload{}
		}
		for _, p := range req.Points {
			f.points[p.ID] = p.Payload
		}
		fmt.Fprint(w, `{"result":{}}`)
	})

	mux.HandleFunc(collPath+"/points/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":[
			{"score":0.91,"payload":{"text":"first","tag":"p","doc_id":"d1","chunk_index":0,"timestamp":"t"}},
			{"score":0.42,"payload":{"text":"second","tag":"li","doc_id":"d1","chunk_index":1,"timestamp":"t"}}
		]}`)
	})

	mux.HandleFunc(collPath+"/points/delete", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Filter struct {
				Must []struct {
					Key   string `json:"key"`
					Match struct {
						Value string `json:"value"`
					} `json:"match"`
				} `json:"must"`
			} `json:"filter"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Filter.Must) == 1 && req.Filter.Must[0].Key == FieldDocID {
			f.deletedDoc = req.Filter.Must[0].Match.Value
		}
		fmt.Fprint(w, `{"result":{}}`)
	})

	return mux
}

func newQdrantUnderTest(t *testing.T, f *fakeQdrant) (*QdrantStore, *httptest.Server) {
	t.Helper()
	f.t = t
	if f.collection == "" {
		f.collection = "docs"
	}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	store, err := NewQdrantStore(srv.URL, "", f.collection, 4, testLogger())
	if err != nil {
		t.Fatalf("NewQdrantStore() error = %v", err)
	}
	return store, srv
}

func TestQdrant_EnsureCollectionCreatesWhenMissing(t *testing.T) {
	f := &fakeQdrant{}
	store, _ := newQdrantUnderTest(t, f)

	if err := store.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if !f.exists {
		t.Error("collection was not created")
	}
	if f.dimension != 4 {
		t.Errorf("dimension = %d, want 4", f.dimension)
	}

	// Second call must be a no-op.
	if err := store.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("second EnsureCollection() error = %v", err)
	}
}

func TestQdrant_UpsertBatches(t *testing.T) {
	f := &fakeQdrant{exists: true}
	store, _ := newQdrantUnderTest(t, f)

	records := make([]*schema.VectorRecord, 101)
	for i := range records {
		records[i] = &schema.VectorRecord{
			ID:      fmt.Sprintf("id-%d", i),
			Vector:  []float32{1, 2, 3, 4},
			Payload: schema.Payload{Text: "x", Tag: "p", DocumentID: "d1", ChunkIndex: i},
		}
	}
	if err := store.Upsert(context.Background(), records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if len(f.upserts) != 2 || f.upserts[0] != 100 || f.upserts[1] != 1 {
		t.Errorf("batch sizes = %v, want [100 1]", f.upserts)
	}
	if len(f.points) != 101 {
		t.Errorf("stored %d points, want 101", len(f.points))
	}

	// Same IDs again: overwrite, not duplicate.
	if err := store.Upsert(context.Background(), records); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if len(f.points) != 101 {
		t.Errorf("after re-upsert stored %d points, want 101", len(f.points))
	}
}

func TestQdrant_SearchParsesMatches(t *testing.T) {
	f := &fakeQdrant{exists: true}
	store, _ := newQdrantUnderTest(t, f)

	matches, err := store.Search(context.Background(), []float32{1, 0, 0, 0}, 15)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Score != 0.91 || matches[0].Payload.Text != "first" {
		t.Errorf("first match = %+v", matches[0])
	}
	if matches[1].Payload.Tag != "li" || matches[1].Payload.ChunkIndex != 1 {
		t.Errorf("second match payload = %+v", matches[1].Payload)
	}
}

func TestQdrant_DeleteAllOnMissingCollectionSucceeds(t *testing.T) {
	f := &fakeQdrant{}
	store, _ := newQdrantUnderTest(t, f)

	if err := store.DeleteAll(context.Background()); err != nil {
		t.Fatalf("DeleteAll() on missing collection = %v, want success", err)
	}
	if f.exists {
		t.Error("collection should not have been created by DeleteAll on absence")
	}
}

func TestQdrant_DeleteAllRecreatesWithSameDimension(t *testing.T) {
	f := &fakeQdrant{exists: true, dimension: 4}
	store, _ := newQdrantUnderTest(t, f)

	if err := store.DeleteAll(context.Background()); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if !f.exists {
		t.Error("collection was not recreated")
	}
	if f.dimension != 4 {
		t.Errorf("recreated dimension = %d, want 4", f.dimension)
	}
}

func TestQdrant_DeleteByDocument(t *testing.T) {
	f := &fakeQdrant{exists: true}
	store, _ := newQdrantUnderTest(t, f)

	if err := store.DeleteByDocument(context.Background(), "doc-7"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	if f.deletedDoc != "doc-7" {
		t.Errorf("delete filter targeted %q, want doc-7", f.deletedDoc)
	}
}

func TestQdrant_RemoteErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store, _ := NewQdrantStore(srv.URL, "", "docs", 4, testLogger())
	_, err := store.Search(context.Background(), []float32{1}, 5)
	var vsErr *schema.VectorStoreError
	if !errors.As(err, &vsErr) {
		t.Fatalf("error %v is not a VectorStoreError", err)
	}
	if vsErr.Backend != "qdrant" {
		t.Errorf("backend = %q, want qdrant", vsErr.Backend)
	}
}
