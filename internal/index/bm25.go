package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/abdobzx/maar/internal/store"
)

// Default BM25 parameters. k1 controls term-frequency saturation,
// b controls document-length normalization.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// idfFloor keeps IDF positive for terms appearing in most documents.
const idfFloor = 0.01

// MemoryBM25 is a self-contained in-memory BM25 index with no external
// dependencies. It is the default backend and the fallback when a
// library-backed index cannot be opened.
//
// All derived state lives in parallel slices aligned by corpus position:
// chunks[i], docLens[i], and docFreqs[i] always describe the same chunk.
type MemoryBM25 struct {
	mu sync.RWMutex

	k1 float64
	b  float64

	chunks   []*store.Chunk
	docLens  []int
	docFreqs []map[string]int
	avgdl    float64
	idf      map[string]float64
}

var _ LexicalIndex = (*MemoryBM25)(nil)

// NewMemoryBM25 creates an empty in-memory BM25 index.
// Non-positive parameters fall back to the defaults.
func NewMemoryBM25(k1, b float64) *MemoryBM25 {
	if k1 <= 0 {
		k1 = DefaultK1
	}
	if b <= 0 {
		b = DefaultB
	}
	return &MemoryBM25{
		k1:  k1,
		b:   b,
		idf: make(map[string]float64),
	}
}

// BuildIndex tokenizes the corpus and computes document lengths, average
// document length, per-document term frequencies, and per-term IDF values.
// The previous index state is replaced atomically under the write lock.
func (m *MemoryBM25) BuildIndex(ctx context.Context, chunks []*store.Chunk) error {
	docLens := make([]int, len(chunks))
	docFreqs := make([]map[string]int, len(chunks))
	df := make(map[string]int)

	totalLen := 0
	for i, c := range chunks {
		if c == nil {
			return fmt.Errorf("nil chunk at position %d", i)
		}
		tokens := Tokenize(c.Content)
		docLens[i] = len(tokens)
		totalLen += len(tokens)

		freqs := make(map[string]int, len(tokens))
		for _, t := range tokens {
			freqs[t]++
		}
		docFreqs[i] = freqs

		for term := range freqs {
			df[term]++
		}
	}

	avgdl := 0.0
	if len(chunks) > 0 {
		avgdl = float64(totalLen) / float64(len(chunks))
	}

	n := float64(len(chunks))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = max(idfFloor, n-float64(count)+0.5) / (float64(count) + 0.5)
	}

	corpus := make([]*store.Chunk, len(chunks))
	copy(corpus, chunks)

	m.mu.Lock()
	m.chunks = corpus
	m.docLens = docLens
	m.docFreqs = docFreqs
	m.avgdl = avgdl
	m.idf = idf
	m.mu.Unlock()

	return nil
}

// scoredDoc carries a corpus position with its BM25 score.
type scoredDoc struct {
	index int
	score float64
}

// score computes BM25 scores for every chunk against the tokenized query.
// Caller must hold at least a read lock.
func (m *MemoryBM25) score(queryTokens []string) []scoredDoc {
	if len(queryTokens) == 0 || len(m.chunks) == 0 {
		return []scoredDoc{}
	}

	scores := make([]scoredDoc, len(m.chunks))
	for i := range m.chunks {
		var s float64
		freqs := m.docFreqs[i]
		for _, term := range queryTokens {
			tf := float64(freqs[term])
			if tf == 0 {
				continue
			}
			norm := m.k1 * (1 - m.b + m.b*float64(m.docLens[i])/m.avgdl)
			s += m.idf[term] * (tf * (m.k1 + 1)) / (tf + norm)
		}
		scores[i] = scoredDoc{index: i, score: s}
	}

	return scores
}

// Search tokenizes the query, scores the corpus, sorts descending, keeps
// positive scores, and truncates to limit. Ties keep corpus insertion order.
func (m *MemoryBM25) Search(ctx context.Context, query string, limit int) ([]*LexicalResult, error) {
	queryTokens := Tokenize(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := m.score(queryTokens)
	if len(scored) == 0 {
		return []*LexicalResult{}, nil
	}

	// Stable sort preserves insertion order for equal scores
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	results := make([]*LexicalResult, 0, limit)
	for _, d := range scored {
		if d.score <= 0 {
			break
		}
		results = append(results, &LexicalResult{
			Chunk: m.chunks[d.index],
			Score: d.score,
		})
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	return results, nil
}

// Stats reports index size information.
func (m *MemoryBM25) Stats() *IndexStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &IndexStats{
		Backend:       "memory",
		DocumentCount: len(m.chunks),
		TermCount:     len(m.idf),
		AvgDocLength:  m.avgdl,
	}
}

// Close releases index state.
func (m *MemoryBM25) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chunks = nil
	m.docLens = nil
	m.docFreqs = nil
	m.idf = nil
	m.avgdl = 0

	return nil
}
