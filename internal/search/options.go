package search

import (
	"time"
)

// EngineConfig holds the tuning knobs for the search engine.
type EngineConfig struct {
	// FusionStrategy selects rrf or weighted fusion for hybrid searches.
	FusionStrategy string

	// Alpha weights the dense list in RRF fusion.
	Alpha float64

	// SemanticWeight and KeywordWeight apply to weighted fusion.
	SemanticWeight float64
	KeywordWeight  float64

	// RRFConstant dampens top-rank influence in RRF.
	RRFConstant int

	// RefreshTTL triggers a lexical index rebuild when the last build is
	// older. Zero disables TTL refresh.
	RefreshTTL time.Duration

	// DenseTimeout bounds the dense branch of a search. When it expires
	// the search degrades to lexical-only.
	DenseTimeout time.Duration

	// DefaultLimit applies when a query requests no limit; MaxLimit
	// rejects anything above it.
	DefaultLimit int
	MaxLimit     int

	// DefaultThreshold applies when a query requests none.
	DefaultThreshold float64

	// BlendWeight proportions rerank relevance against original scores
	// in the rerank fallback path.
	BlendWeight float64
}

// DefaultEngineConfig returns the standard engine tuning.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FusionStrategy:   FusionRRF,
		Alpha:            DefaultAlpha,
		SemanticWeight:   DefaultSemanticWeight,
		KeywordWeight:    DefaultKeywordWeight,
		RRFConstant:      DefaultRRFConstant,
		RefreshTTL:       time.Hour,
		DenseTimeout:     5 * time.Second,
		DefaultLimit:     DefaultLimit,
		MaxLimit:         MaxLimit,
		DefaultThreshold: 0,
		BlendWeight:      DefaultBlendWeight,
	}
}

// EngineOption configures optional engine collaborators.
type EngineOption func(*Engine)

// WithDenseRetriever enables the semantic retrieval path. Without it,
// semantic and hybrid searches degrade to keyword-only.
func WithDenseRetriever(d DenseRetriever) EngineOption {
	return func(e *Engine) {
		e.dense = d
	}
}

// WithReranker sets the rerank strategy. Defaults to the local heuristic.
func WithReranker(r Reranker) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.reranker = r
		}
	}
}

// WithClock overrides the time source for TTL refresh decisions.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
