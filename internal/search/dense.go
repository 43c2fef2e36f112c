package search

import (
	"context"
	"fmt"

	"github.com/abdobzx/maar/internal/embed"
	"github.com/abdobzx/maar/internal/store"
)

// DenseRetriever is the semantic retrieval boundary. The engine treats
// scores as opaque beyond "higher is more relevant"; fusion normalizes
// across scales.
type DenseRetriever interface {
	// Search returns up to limit results ranked by semantic similarity.
	Search(ctx context.Context, query string, limit int) ([]*SearchResult, error)
}

// VectorRetriever implements DenseRetriever by embedding the query,
// searching the vector store, and enriching hits with chunk payloads.
type VectorRetriever struct {
	embedder embed.Embedder
	vectors  store.VectorStore
	chunks   store.ChunkStore
}

var _ DenseRetriever = (*VectorRetriever)(nil)

// NewVectorRetriever wires the embedding provider, vector store, and
// chunk store into a dense retrieval path.
func NewVectorRetriever(embedder embed.Embedder, vectors store.VectorStore, chunks store.ChunkStore) *VectorRetriever {
	return &VectorRetriever{
		embedder: embedder,
		vectors:  vectors,
		chunks:   chunks,
	}
}

// Search embeds the query and returns the nearest chunks with payloads.
// Hits whose chunk record has vanished are skipped rather than surfaced
// as holes.
func (v *VectorRetriever) Search(ctx context.Context, query string, limit int) ([]*SearchResult, error) {
	queryVec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := v.vectors.Search(ctx, queryVec, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(hits) == 0 {
		return []*SearchResult{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	chunks, err := v.chunks.GetChunks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	byID := make(map[string]*store.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	results := make([]*SearchResult, 0, len(hits))
	for _, h := range hits {
		chunk, ok := byID[h.ID]
		if !ok {
			continue
		}
		results = append(results, &SearchResult{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Content:    chunk.Content,
			Score:      float64(h.Score),
			Metadata:   chunk.Metadata,
		})
	}

	return results, nil
}
