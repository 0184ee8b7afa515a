package models

// VectorResult is a single dense-retrieval hit. Score is the raw squared-L2
// distance between query and document vectors: lower means more similar.
type VectorResult struct {
	ID    int64   `json:"id"`
	Score float32 `json:"score"`
	Text  string  `json:"text"`
	URL   string  `json:"url,omitempty"`
}

// NounResult is a single lexical-retrieval hit. Score is the number of nouns
// shared between the query and the document (higher is better).
type NounResult struct {
	ID      int64  `json:"id"`
	Score   int    `json:"score"`
	Content string `json:"content"`
}

// KeywordResult is a single BM25 hit from the keyword index.
type KeywordResult struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Search modes accepted by the query API and CLI.
const (
	ModeSemantic = "semantic"
	ModeNouns    = "nouns"
	ModeKeyword  = "keyword"
)

// SearchRequest is the query API request body.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// Normalize applies defaults: k=5, mode=semantic.
func (q *SearchRequest) Normalize() {
	if q.K <= 0 {
		q.K = 5
	}
	if q.Mode == "" {
		q.Mode = ModeSemantic
	}
}

// SearchResponse is the query API response. Exactly one of the result slices
// is populated, matching the requested mode.
type SearchResponse struct {
	Query          string          `json:"query"`
	Mode           string          `json:"mode"`
	VectorResults  []VectorResult  `json:"vector_results,omitempty"`
	NounResults    []NounResult    `json:"noun_results,omitempty"`
	KeywordResults []KeywordResult `json:"keyword_results,omitempty"`
	QueryTimeMs    int64           `json:"query_time_ms"`
}
