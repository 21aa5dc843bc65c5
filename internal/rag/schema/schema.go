package schema

// Chunk tags for the structural element a piece of text was extracted from.
// Table decomposition produces the three table-* tags; everything else uses
// the lowercased HTML tag name.
const (
	TagTableCell    = "table-cell"
	TagTableRow     = "table-row"
	TagTableSummary = "table-summary"
)

// Chunk is a unit of extracted document text with a structural tag.
// It is produced per document at ingest time and discarded after embedding.
type Chunk struct {
	// Text is the trimmed, non-empty text content of the chunk.
	Text string

	// Tag is the structural tag of the source element (p, h1..h6, li, td,
	// th, pre, blockquote) or one of the table-* decomposition tags.
	Tag string
}

// Payload is the metadata stored alongside each vector in the store.
type Payload struct {
	Text       string `json:"text"`
	Tag        string `json:"tag"`
	DocumentID string `json:"doc_id"`
	ChunkIndex int    `json:"chunk_index"`
	Timestamp  string `json:"timestamp"`
}

// VectorRecord is a persisted point in the vector store. The ID is derived
// deterministically from (documentID, chunkIndex) so that re-ingesting the
// same document overwrites instead of duplicating.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// SearchMatch is a single similarity-search hit. Ephemeral, produced per
// query, never persisted. Score is cosine similarity in [-1, 1].
type SearchMatch struct {
	Score   float32
	Payload Payload
}

// Message is one turn of the conversation history. The pipeline is stateless;
// history is owned by the caller and passed through on each request.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
