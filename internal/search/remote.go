package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// DefaultBlendWeight proportions the rerank model's relevance against the
// original score: final = 0.3*original + 0.7*relevance.
const DefaultBlendWeight = 0.7

// defaultRerankTimeout bounds the rerank API call.
const defaultRerankTimeout = 10 * time.Second

// ModelRerankerConfig configures the external rerank model client.
type ModelRerankerConfig struct {
	Endpoint    string
	Model       string
	APIKey      string
	BlendWeight float64
	Timeout     time.Duration
}

// ModelReranker calls a hosted rerank API (Cohere-compatible request
// shape) and blends its relevance scores with the original scores.
// Failures surface as errors; the engine converts them into the identity
// fallback instead of failing the search.
type ModelReranker struct {
	client *http.Client
	config ModelRerankerConfig
}

var _ Reranker = (*ModelReranker)(nil)

// NewModelReranker creates the external model reranker.
func NewModelReranker(cfg ModelRerankerConfig) *ModelReranker {
	if cfg.BlendWeight <= 0 || cfg.BlendWeight > 1 {
		cfg.BlendWeight = DefaultBlendWeight
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRerankTimeout
	}
	return &ModelReranker{
		client: &http.Client{},
		config: cfg,
	}
}

// Name identifies this strategy.
func (m *ModelReranker) Name() string { return "model" }

// rerankRequest is the rerank API request body.
type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// rerankResponse is the rerank API response body.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank sends the documents to the rerank endpoint and re-orders by the
// blended score. The returned list covers every input result; documents
// the API omits keep their original score.
func (m *ModelReranker) Rerank(ctx context.Context, query string, results []*SearchResult) ([]*SearchResult, error) {
	if m.config.Endpoint == "" {
		return nil, fmt.Errorf("rerank endpoint not configured")
	}
	if len(results) == 0 {
		return []*SearchResult{}, nil
	}

	documents := make([]string, len(results))
	for i, r := range results {
		documents[i] = r.Content
	}

	relevance, err := m.callRerankAPI(ctx, query, documents)
	if err != nil {
		return nil, err
	}

	out := cloneResults(results)
	for i, r := range out {
		score, ok := relevance[i]
		if !ok {
			continue
		}
		r.Score = (1-m.config.BlendWeight)*r.Score + m.config.BlendWeight*score
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})

	return out, nil
}

// callRerankAPI performs the HTTP call and maps document index to
// relevance score.
func (m *ModelReranker) callRerankAPI(ctx context.Context, query string, documents []string) (map[int]float64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	body, err := json.Marshal(rerankRequest{
		Model:     m.config.Model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, m.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rerank request returned %d: %s", resp.StatusCode, string(data))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	relevance := make(map[int]float64, len(rerankResp.Results))
	for _, r := range rerankResp.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("rerank response index %d out of range", r.Index)
		}
		relevance[r.Index] = r.RelevanceScore
	}

	return relevance, nil
}
