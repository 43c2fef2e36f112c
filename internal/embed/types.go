// Package embed generates dense vector representations of text.
//
// Two providers are available: an Ollama HTTP client for real embedding
// models and a deterministic hash-based static embedder that needs no
// network or model download. The factory picks Ollama when reachable and
// falls back to static, and wraps either in an LRU cache.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultDimensions matches nomic-embed-text output.
	DefaultDimensions = 768

	// DefaultBatchSize for batch embedding requests.
	DefaultBatchSize = 32

	// DefaultTimeout for embedding API requests.
	DefaultTimeout = 30 * time.Second
)

// Embedder converts text into dense vectors.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimensionality.
	Dimensions() int

	// ModelName identifies the model for cache keying and diagnostics.
	ModelName() string

	// Available reports whether the provider can serve requests.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector scales a vector to unit length. Zero vectors pass through.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
	return v
}
