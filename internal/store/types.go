// Package store provides chunk/document metadata persistence (SQLite) and the
// in-process vector store (HNSW). This is the persistence layer for all
// indexed data; the lexical index and vector graph are derived from it and can
// be rebuilt at any time.
package store

import (
	"context"
	"fmt"
	"time"
)

// Chunk represents a retrievable unit of text, the unit of indexing.
// Metadata is immutable after indexing; updating a chunk means re-indexing it.
type Chunk struct {
	ID         string         // Opaque unique identifier, owned by the corpus
	DocumentID string         // Parent document ID (many chunks per document)
	Content    string         // UTF-8 text, non-empty
	Metadata   map[string]any // Caller-defined tags (scalar or list-of-scalar values)
	CreatedAt  time.Time
}

// DocumentRecord is the owning-document row for a set of chunks.
// Ownership keys (user, organization) live here rather than on every chunk;
// filters on those keys join against this record.
type DocumentRecord struct {
	ID             string
	Name           string
	UserID         string
	OrganizationID string
	CreatedAt      time.Time
}

// ChunkStore persists chunks, their owning documents, and embeddings.
type ChunkStore interface {
	// Document operations
	SaveDocuments(ctx context.Context, docs []*DocumentRecord) error
	GetDocuments(ctx context.Context, ids []string) (map[string]*DocumentRecord, error)

	// Chunk operations
	SaveChunks(ctx context.Context, chunks []*Chunk) error
	GetChunks(ctx context.Context, ids []string) ([]*Chunk, error)
	ListChunks(ctx context.Context) ([]*Chunk, error) // Full corpus load for index builds
	DeleteChunksByDocument(ctx context.Context, documentID string) error
	CountChunks(ctx context.Context) (int, error)

	// Embedding operations (vector graph is rebuilt from these on startup)
	SaveEmbeddings(ctx context.Context, chunkIDs []string, vectors [][]float32, model string) error
	GetAllEmbeddings(ctx context.Context) (map[string][]float32, error)

	// Lifecycle
	Close() error
}

// DocumentResolver is the narrow read side of ChunkStore needed by the
// metadata filter stage for ownership-key joins.
type DocumentResolver interface {
	GetDocuments(ctx context.Context, ids []string) (map[string]*DocumentRecord, error)
}

// VectorResult represents a single nearest-neighbor search result.
type VectorResult struct {
	ID    string  // Chunk ID
	Score float32 // Normalized similarity (0-1, higher is more similar)
}

// VectorStore provides nearest-neighbor search over chunk embeddings.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds the k nearest neighbors to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// Contains checks if an ID exists.
	Contains(id string) bool

	// Count returns the number of vectors.
	Count() int

	Close() error
}

// VectorStoreConfig configures the HNSW vector store.
type VectorStoreConfig struct {
	// Dimensions is the vector dimension (768 for nomic-embed-text, 256 for static).
	Dimensions int

	// Metric is the distance metric: "cos" (cosine) or "l2" (euclidean).
	Metric string

	// M is HNSW max connections per layer.
	M int

	// EfSearch is HNSW query-time search width.
	EfSearch int
}

// DefaultVectorStoreConfig returns sensible defaults for the vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   64,
	}
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
