package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicReranker_BoostsKeywordMatches(t *testing.T) {
	ctx := context.Background()
	r := NewHeuristicReranker()

	results := []*SearchResult{
		{ChunkID: "miss", Content: "unrelated filler paragraph", Score: 0.5},
		{ChunkID: "hit", Content: "cache invalidation strategies explained", Score: 0.5},
	}

	reranked, err := r.Rerank(ctx, "cache invalidation", results)
	require.NoError(t, err)
	require.Len(t, reranked, 2)
	assert.Equal(t, "hit", reranked[0].ChunkID)
	assert.Greater(t, reranked[0].Score, reranked[1].Score)
}

func TestHeuristicReranker_Formula(t *testing.T) {
	ctx := context.Background()
	r := NewHeuristicReranker()

	content := "cache invalidation strategies"
	results := []*SearchResult{{ChunkID: "c", Content: content, Score: 0.4}}

	reranked, err := r.Rerank(ctx, "cache missingword", results)
	require.NoError(t, err)
	require.Len(t, reranked, 1)

	// density: 1 of 2 distinct words matched
	// position: "cache" at offset 0 gives factor 1.0; missing word ignored
	want := 0.5*0.4 + 0.3*0.5 + 0.2*1.0
	assert.InDelta(t, want, reranked[0].Score, 1e-9)
}

func TestHeuristicReranker_PositionFloor(t *testing.T) {
	ctx := context.Background()
	r := NewHeuristicReranker()

	// Match at the very end of the content hits the 0.1 floor
	content := strings.Repeat("a", 60) + " zzz"
	results := []*SearchResult{{ChunkID: "c", Content: content, Score: 0}}

	reranked, err := r.Rerank(ctx, "zzz", results)
	require.NoError(t, err)
	assert.InDelta(t, 0.3*1.0+0.2*0.1, reranked[0].Score, 1e-9)
}

func TestHeuristicReranker_EmptyQuery(t *testing.T) {
	ctx := context.Background()
	r := NewHeuristicReranker()

	results := []*SearchResult{{ChunkID: "c", Content: "anything", Score: 1.0}}
	reranked, err := r.Rerank(ctx, "!!", results)
	require.NoError(t, err)

	// density 0, position 1.0
	assert.InDelta(t, 0.5*1.0+0.2*1.0, reranked[0].Score, 1e-9)
}

func TestHeuristicReranker_DoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	r := NewHeuristicReranker()

	results := []*SearchResult{{ChunkID: "c", Content: "stable content", Score: 0.9}}
	_, err := r.Rerank(ctx, "stable", results)
	require.NoError(t, err)
	assert.Equal(t, 0.9, results[0].Score)
}

func TestModelReranker_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Documents, 2)

		// Reverse the input order with strong relevance for index 1
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 1, "relevance_score": 0.95},
				{"index": 0, "relevance_score": 0.10},
			},
		})
	}))
	defer srv.Close()

	r := NewModelReranker(ModelRerankerConfig{Endpoint: srv.URL, BlendWeight: 0.7})

	results := []*SearchResult{
		{ChunkID: "first", Content: "first doc", Score: 0.8},
		{ChunkID: "second", Content: "second doc", Score: 0.2},
	}

	reranked, err := r.Rerank(context.Background(), "query", results)
	require.NoError(t, err)
	require.Len(t, reranked, 2)

	// second: 0.3*0.2 + 0.7*0.95 = 0.725; first: 0.3*0.8 + 0.7*0.10 = 0.31
	assert.Equal(t, "second", reranked[0].ChunkID)
	assert.InDelta(t, 0.725, reranked[0].Score, 1e-9)
	assert.InDelta(t, 0.31, reranked[1].Score, 1e-9)
}

func TestModelReranker_FailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewModelReranker(ModelRerankerConfig{Endpoint: srv.URL})
	_, err := r.Rerank(context.Background(), "query",
		[]*SearchResult{{ChunkID: "c", Content: "doc", Score: 0.5}})
	assert.Error(t, err)
}

func TestModelReranker_NoEndpoint(t *testing.T) {
	r := NewModelReranker(ModelRerankerConfig{})
	_, err := r.Rerank(context.Background(), "query",
		[]*SearchResult{{ChunkID: "c", Content: "doc", Score: 0.5}})
	assert.Error(t, err)
}

func TestFallbackRerank_SyntheticScores(t *testing.T) {
	results := []*SearchResult{
		{ChunkID: "a", Score: 0.5},
		{ChunkID: "b", Score: 0.4},
		{ChunkID: "c", Score: 0.3},
	}

	out := fallbackRerank(results, 0.7)
	require.Len(t, out, 3)

	// Identity ordering with synthetic relevance 1.0, 0.9, 0.8
	assert.Equal(t, "a", out[0].ChunkID)
	assert.InDelta(t, 0.3*0.5+0.7*1.0, out[0].Score, 1e-9)
	assert.InDelta(t, 0.3*0.4+0.7*0.9, out[1].Score, 1e-9)
	assert.InDelta(t, 0.3*0.3+0.7*0.8, out[2].Score, 1e-9)

	// Inputs untouched
	assert.Equal(t, 0.5, results[0].Score)
}
