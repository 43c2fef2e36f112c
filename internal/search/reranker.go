package search

import (
	"context"
	"sort"
	"strings"

	"github.com/abdobzx/maar/internal/index"
)

// Heuristic blend weights: original score dominates, keyword density and
// early-occurrence position refine the ordering.
const (
	heuristicOriginalWeight = 0.5
	heuristicDensityWeight  = 0.3
	heuristicPositionWeight = 0.2
)

// Reranker re-orders a result list by relevance to the query.
// Implementations never mutate the input; they return fresh result
// structs with updated scores and identical payloads.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []*SearchResult) ([]*SearchResult, error)
	Name() string
}

// HeuristicReranker re-scores results locally from keyword density and
// first-occurrence position. No external dependency, never fails.
type HeuristicReranker struct{}

var _ Reranker = (*HeuristicReranker)(nil)

// NewHeuristicReranker creates the local heuristic reranker.
func NewHeuristicReranker() *HeuristicReranker {
	return &HeuristicReranker{}
}

// Name identifies this strategy.
func (h *HeuristicReranker) Name() string { return "heuristic" }

// Rerank computes for each result:
//
//	density  = matched distinct query words / distinct query words
//	position = Π max(0.1, 1 - first_occurrence/content_length) over matched words
//	combined = 0.5*original + 0.3*density + 0.2*position
//
// and re-sorts descending by the combined score.
func (h *HeuristicReranker) Rerank(ctx context.Context, query string, results []*SearchResult) ([]*SearchResult, error) {
	words := distinctWords(query)

	out := cloneResults(results)
	for _, r := range out {
		density, position := contentSignals(r.Content, words)
		r.Score = heuristicOriginalWeight*r.Score +
			heuristicDensityWeight*density +
			heuristicPositionWeight*position
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})

	return out, nil
}

// distinctWords extracts the unique query terms in first-seen order.
func distinctWords(query string) []string {
	seen := make(map[string]struct{})
	words := make([]string, 0)
	for _, w := range index.Tokenize(query) {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// contentSignals computes keyword density and the position product for
// one result's content. Words absent from the content do not affect the
// position product.
func contentSignals(content string, words []string) (density, position float64) {
	position = 1.0
	if len(words) == 0 {
		return 0, position
	}

	lower := strings.ToLower(content)
	matched := 0
	for _, w := range words {
		pos := strings.Index(lower, w)
		if pos < 0 {
			continue
		}
		matched++
		factor := 1 - float64(pos)/float64(len(content))
		if factor < 0.1 {
			factor = 0.1
		}
		position *= factor
	}

	density = float64(matched) / float64(len(words))
	return density, position
}

// FallbackRerankScore is the synthetic relevance assigned to position i
// when the external rerank model is unavailable: identity ordering with
// descending scores 1.0, 0.9, 0.8, ...
func FallbackRerankScore(i int) float64 {
	return 1.0 - 0.1*float64(i)
}

// fallbackRerank keeps the input ordering and blends synthetic descending
// relevance scores, mirroring what a successful model call would produce.
func fallbackRerank(results []*SearchResult, blendWeight float64) []*SearchResult {
	out := cloneResults(results)
	for i, r := range out {
		r.Score = (1-blendWeight)*r.Score + blendWeight*FallbackRerankScore(i)
	}
	return out
}
