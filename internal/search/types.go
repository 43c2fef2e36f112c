// Package search implements hybrid retrieval: lexical and dense paths
// run concurrently, their ranked lists are fused, filtered, optionally
// re-ranked, and truncated to the caller's limit.
package search

import "time"

// Search types accepted in a SearchQuery.
const (
	TypeSemantic = "semantic"
	TypeKeyword  = "keyword"
	TypeHybrid   = "hybrid"
)

// Limit bounds for query validation.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// SearchQuery is the caller's search request.
type SearchQuery struct {
	// Query is the search text. Empty queries short-circuit to empty results.
	Query string `json:"query"`

	// SearchType selects the retrieval path: semantic, keyword, or hybrid.
	SearchType string `json:"search_type"`

	// Filters maps metadata keys to a required value or a list of allowed
	// values. Results missing a filtered key are dropped.
	Filters map[string]any `json:"filters,omitempty"`

	// Limit caps the result count. Zero means DefaultLimit.
	Limit int `json:"limit"`

	// Threshold drops results scoring below it.
	Threshold float64 `json:"threshold"`

	// Rerank enables the re-ranking stage on the fused results.
	Rerank bool `json:"rerank"`
}

// SearchResult is one ranked chunk. Score semantics depend on the pipeline
// stage that produced it (raw BM25, vector similarity, fused, or blended
// post-rerank), so scores are not comparable across search types.
type SearchResult struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SearchResponse is the engine's reply.
type SearchResponse struct {
	Results       []*SearchResult `json:"results"`
	TotalResults  int             `json:"total_results"`
	Query         string          `json:"query"`
	SearchType    string          `json:"search_type"`
	ExecutionTime time.Duration   `json:"execution_time"`

	// Outcome reports whether the search ran clean or degraded.
	Outcome Outcome `json:"outcome"`
}

// cloneResult copies a result so downstream stages never mutate a
// sequence already handed to a caller.
func cloneResult(r *SearchResult) *SearchResult {
	c := *r
	return &c
}

// cloneResults shallow-copies a result slice with fresh result structs.
func cloneResults(results []*SearchResult) []*SearchResult {
	out := make([]*SearchResult, len(results))
	for i, r := range results {
		out[i] = cloneResult(r)
	}
	return out
}
