package index

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"

	maarerrors "github.com/abdobzx/maar/internal/errors"
	"github.com/abdobzx/maar/internal/store"
)

const (
	// maarTokenizerName is the registry name for the shared tokenizer.
	maarTokenizerName = "maar_tokenizer"

	// maarAnalyzerName is the registry name for the custom analyzer.
	maarAnalyzerName = "maar_analyzer"
)

func init() {
	registry.RegisterTokenizer(maarTokenizerName, maarTokenizerConstructor)
}

// BleveIndex implements LexicalIndex using Bleve v2 with an analyzer that
// reuses Tokenize, so term extraction matches the other backends. Each
// rebuild creates a fresh in-memory index and swaps it in whole.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	chunks map[string]*store.Chunk
	count  int
	closed bool
}

var _ LexicalIndex = (*BleveIndex)(nil)

// bleveDocument is the document structure for Bleve indexing.
type bleveDocument struct {
	Content string `json:"content"`
}

// NewBleveIndex creates an empty Bleve-backed lexical index.
func NewBleveIndex() (*BleveIndex, error) {
	idx, err := newMemIndex()
	if err != nil {
		return nil, err
	}
	return &BleveIndex{
		index:  idx,
		chunks: make(map[string]*store.Chunk),
	}, nil
}

func newMemIndex() (bleve.Index, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}
	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return idx, nil
}

// createIndexMapping registers the custom analyzer and sets it as default.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(maarAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": maarTokenizerName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}

	indexMapping.DefaultAnalyzer = maarAnalyzerName
	return indexMapping, nil
}

// BuildIndex indexes the corpus into a fresh in-memory index, then swaps
// it in. Readers see either the old corpus or the new one, never a mix.
func (b *BleveIndex) BuildIndex(ctx context.Context, chunks []*store.Chunk) error {
	idx, err := newMemIndex()
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	chunkMap := make(map[string]*store.Chunk, len(chunks))
	for i, c := range chunks {
		if c == nil {
			return fmt.Errorf("nil chunk at position %d", i)
		}
		if err := batch.Index(c.ID, bleveDocument{Content: c.Content}); err != nil {
			return fmt.Errorf("failed to index chunk %s: %w", c.ID, err)
		}
		chunkMap[c.ID] = c
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = idx.Close()
		return maarerrors.IndexNotReady("bleve index is closed")
	}
	old := b.index
	b.index = idx
	b.chunks = chunkMap
	b.count = len(chunks)
	b.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	return nil
}

// Search runs a match query over the indexed content.
func (b *BleveIndex) Search(ctx context.Context, queryStr string, limit int) ([]*LexicalResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, maarerrors.IndexNotReady("bleve index is closed")
	}

	if strings.TrimSpace(queryStr) == "" || b.count == 0 {
		return []*LexicalResult{}, nil
	}

	matchQuery := bleve.NewMatchQuery(queryStr)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]*LexicalResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		chunk, ok := b.chunks[hit.ID]
		if !ok {
			continue
		}
		results = append(results, &LexicalResult{
			Chunk: chunk,
			Score: hit.Score,
		})
	}

	return results, nil
}

// Stats reports index size information.
func (b *BleveIndex) Stats() *IndexStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &IndexStats{
		Backend:       "bleve",
		DocumentCount: b.count,
	}
}

// Close closes the underlying index. Idempotent.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	b.chunks = nil
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

// maarTokenizerConstructor creates the shared-rules tokenizer for Bleve.
func maarTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &bleveTokenizer{}, nil
}

// bleveTokenizer adapts Tokenize to the Bleve analysis interface.
type bleveTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *bleveTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := Tokenize(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0

	for _, token := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), token)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}

	return result
}
