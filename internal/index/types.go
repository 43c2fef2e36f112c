// Package index provides lexical (keyword) retrieval over a chunk corpus.
//
// Three interchangeable backends implement LexicalIndex: a self-contained
// in-memory BM25 scorer (the default and fallback), a SQLite FTS5 index,
// and a Bleve index. All backends tokenize with the same rules so a corpus
// ranks consistently regardless of backend.
package index

import (
	"context"

	"github.com/abdobzx/maar/internal/store"
)

// LexicalResult pairs a chunk with its lexical relevance score.
// Scores are backend-specific; higher is more relevant.
type LexicalResult struct {
	Chunk *store.Chunk
	Score float64
}

// LexicalIndex scores text queries against an indexed corpus.
type LexicalIndex interface {
	// BuildIndex replaces the entire index state with the given corpus.
	// Chunk order is preserved and used for tie-breaking.
	BuildIndex(ctx context.Context, chunks []*store.Chunk) error

	// Search tokenizes the query, scores it against the corpus, and returns
	// up to limit results in descending score order. Chunks scoring zero are
	// omitted. An empty query or empty corpus yields an empty slice.
	Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error)

	// Stats reports index size information.
	Stats() *IndexStats

	// Close releases backend resources.
	Close() error
}

// IndexStats describes the current index contents.
type IndexStats struct {
	Backend       string  `json:"backend"`
	DocumentCount int     `json:"document_count"`
	TermCount     int     `json:"term_count,omitempty"`
	AvgDocLength  float64 `json:"avg_doc_length,omitempty"`
}
