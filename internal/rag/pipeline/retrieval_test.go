package pipeline

import (
	"context"
	"strings"
	"testing"

	"mentora/internal/config"
	"mentora/internal/embedding"
	"mentora/internal/rag/schema"
)

func newTestRetrieval(store *fakeStore, emb *fakeEmbedder) *RetrievalPipeline {
	return NewRetrievalPipeline(emb, store, config.RetrievalConfig{
		TopK:              15,
		GenericThreshold:  0.5,
		PersonalThreshold: 0.3,
	}, testLogger())
}

func match(score float32, text string) schema.SearchMatch {
	return schema.SearchMatch{Score: score, Payload: schema.Payload{Text: text, Tag: "p"}}
}

func TestClassifyIntent(t *testing.T) {
	p := newTestRetrieval(newFakeStore(), &fakeEmbedder{})
	cases := []struct {
		query string
		want  Intent
	}{
		{"What did I write about the storm?", IntentPersonalRecall},
		{"Remember when I talked about my father?", IntentPersonalRecall},
		{"Can you recall my journal entry from last week?", IntentPersonalRecall},
		{"DID I mention feeling anxious?", IntentPersonalRecall},
		{"How do I deal with anxiety?", IntentGeneric},
		{"What is cognitive behavioral therapy?", IntentGeneric},
	}
	for _, tc := range cases {
		if got := p.ClassifyIntent(tc.query); got != tc.want {
			t.Errorf("ClassifyIntent(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestRun_ThresholdDependsOnIntent(t *testing.T) {
	// The same 0.4 candidate clears the personal-recall threshold and is
	// rejected under the generic one.
	store := newFakeStore()
	store.searchOut = []schema.SearchMatch{match(0.4, "the storm passage")}
	p := newTestRetrieval(store, &fakeEmbedder{})

	personal, err := p.Run(context.Background(), "What did I write about the storm?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(personal.Matches) != 1 {
		t.Fatalf("personal-recall query got %d matches, want 1", len(personal.Matches))
	}
	if !strings.Contains(personal.ContextText, "the storm passage") {
		t.Errorf("context does not include the match text: %q", personal.ContextText)
	}

	generic, err := p.Run(context.Background(), "Tell me about storms.")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(generic.Matches) != 0 {
		t.Fatalf("generic query got %d matches, want 0", len(generic.Matches))
	}
}

func TestRun_MetaphoricalRecall(t *testing.T) {
	// A figurative entry scores low against the literal question about it;
	// the loose personal-recall threshold still surfaces it.
	store := newFakeStore()
	store.searchOut = []schema.SearchMatch{
		match(0.35, "The grey harbor swallowed every ship I sent out."),
	}
	p := newTestRetrieval(store, &fakeEmbedder{})
	result, err := p.Run(context.Background(), "Did I share a metaphor about sadness?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Intent != IntentPersonalRecall {
		t.Fatalf("intent = %v, want personal-recall", result.Intent)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(result.Matches))
	}
}

func TestRun_ScoreAtThresholdExcluded(t *testing.T) {
	store := newFakeStore()
	store.searchOut = []schema.SearchMatch{match(0.5, "borderline"), match(0.51, "inside")}
	result, err := newTestRetrieval(store, &fakeEmbedder{}).Run(context.Background(), "How do I sleep better?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Matches) != 1 || result.Matches[0].Payload.Text != "inside" {
		t.Fatalf("strict-inequality filter kept %+v", result.Matches)
	}
}

func TestRun_FallbackWordingPerIntent(t *testing.T) {
	store := newFakeStore()
	p := newTestRetrieval(store, &fakeEmbedder{})

	personal, err := p.Run(context.Background(), "Did I ever mention my sister?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(personal.ContextText, "could not be found") {
		t.Errorf("personal fallback missing honest not-found note: %q", personal.ContextText)
	}

	generic, err := p.Run(context.Background(), "How do I handle panic attacks?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(generic.ContextText, "compassionate therapist") {
		t.Errorf("generic fallback changed: %q", generic.ContextText)
	}
	if personal.ContextText == generic.ContextText {
		t.Error("fallback wording should differ per intent")
	}
}

func TestRun_QueryUsesQueryRole(t *testing.T) {
	emb := &fakeEmbedder{}
	if _, err := newTestRetrieval(newFakeStore(), emb).Run(context.Background(), "any question"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if emb.lastRole != embedding.RoleQuery {
		t.Errorf("query embedded with role %q, want %q", emb.lastRole, embedding.RoleQuery)
	}
}
