package pipeline

import (
	"context"
	"fmt"
	"strings"

	"mentora/internal/config"
	"mentora/internal/embedding"
	"mentora/internal/rag/interfaces"
	"mentora/internal/rag/schema"
	"mentora/pkg/logger"
)

// Intent classifies what kind of material a query is after. Personal-recall
// queries ("what did I write about...") have weak lexical overlap with their
// source text but are high-value to surface, so they get a looser threshold.
type Intent string

const (
	IntentGeneric        Intent = "generic"
	IntentPersonalRecall Intent = "personal-recall"
)

// defaultPersonalMarkers flag a request for previously-shared personal
// content. Tuned by trial; override via retrieval config.
var defaultPersonalMarkers = []string{
	"i wrote",
	"i said",
	"i shared",
	"i mentioned",
	"i told you",
	"did i",
	"my journal",
	"my notes",
	"my entry",
	"my document",
	"remember when",
	"recall",
}

// RetrievalResult is the outcome of one retrieval run. Matches is empty when
// nothing cleared the threshold; ContextText then carries the fallback note.
type RetrievalResult struct {
	ContextText string
	Matches     []schema.SearchMatch
	Intent      Intent
}

// RetrievalPipeline turns a user query into a context block for answering.
type RetrievalPipeline struct {
	embedder          embedding.Embedding
	store             interfaces.VectorStore
	topK              int
	genericThreshold  float32
	personalThreshold float32
	markers           []string
	log               *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline from the retrieval
// configuration.
func NewRetrievalPipeline(
	embedder embedding.Embedding,
	store interfaces.VectorStore,
	cfg config.RetrievalConfig,
	log *logger.Logger,
) *RetrievalPipeline {
	markers := cfg.PersonalMarkers
	if len(markers) == 0 {
		markers = defaultPersonalMarkers
	}
	return &RetrievalPipeline{
		embedder:          embedder,
		store:             store,
		topK:              cfg.TopK,
		genericThreshold:  cfg.GenericThreshold,
		personalThreshold: cfg.PersonalThreshold,
		markers:           markers,
		log:               log,
	}
}

// Run retrieves and filters context for a query.
func (p *RetrievalPipeline) Run(ctx context.Context, query string) (*RetrievalResult, error) {
	// 1. Embed the query with the query-side model variant.
	queryVector, err := p.embedder.Embed(ctx, query, embedding.RoleQuery)
	if err != nil {
		p.log.WithError(err).Error("Failed to embed query")
		return nil, err
	}

	// 2. Lazy collection bootstrap, then fetch candidates.
	if err := p.store.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	candidates, err := p.store.Search(ctx, queryVector, p.topK)
	if err != nil {
		p.log.WithError(err).Error("Vector search failed")
		return nil, err
	}

	// 3. Pick the threshold for this query's intent and filter.
	intent := p.ClassifyIntent(query)
	threshold := p.Threshold(intent)

	matches := make([]schema.SearchMatch, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Score > threshold {
			matches = append(matches, candidate)
		}
	}
	p.log.Info(fmt.Sprintf("Retrieved %d candidates, %d above the %s threshold %.2f",
		len(candidates), len(matches), intent, threshold))

	// 4. Assemble the context block. An explicit empty-result note beats
	// silently handing the generator no context.
	result := &RetrievalResult{Matches: matches, Intent: intent}
	if len(matches) == 0 {
		result.ContextText = fallbackContext(intent)
		return result, nil
	}

	texts := make([]string, len(matches))
	for i, match := range matches {
		texts[i] = match.Payload.Text
	}
	result.ContextText = "The following material was retrieved from the user's stored documents and is relevant to the current question. Prefer it over general knowledge when answering:\n\n" +
		strings.Join(texts, "\n\n")
	return result, nil
}

// ClassifyIntent reports whether the query asks to recall previously-shared
// personal content.
func (p *RetrievalPipeline) ClassifyIntent(query string) Intent {
	lowered := strings.ToLower(query)
	for _, marker := range p.markers {
		if strings.Contains(lowered, marker) {
			return IntentPersonalRecall
		}
	}
	return IntentGeneric
}

// Threshold returns the similarity threshold applied to the given intent.
func (p *RetrievalPipeline) Threshold(intent Intent) float32 {
	if intent == IntentPersonalRecall {
		return p.personalThreshold
	}
	return p.genericThreshold
}

func fallbackContext(intent Intent) string {
	if intent == IntentPersonalRecall {
		return "No stored personal material matched this request. Be honest that the specific content the user is referring to could not be found, and gently invite them to share it again."
	}
	return "The user is seeking therapeutic guidance. Even without specific psychological reference materials, respond as a compassionate therapist would, drawing on your general knowledge of therapeutic approaches and mental health support strategies."
}
