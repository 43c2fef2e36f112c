package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	maarerrors "github.com/abdobzx/maar/internal/errors"
	"github.com/abdobzx/maar/internal/store"
)

func TestNewLexicalIndex_BackendSelection(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{backend: "", want: "memory"},
		{backend: BackendMemory, want: "memory"},
		{backend: BackendSQLite, want: "sqlite"},
		{backend: BackendBleve, want: "bleve"},
	}

	for _, tt := range tests {
		t.Run(tt.backend+"_"+tt.want, func(t *testing.T) {
			idx, err := NewLexicalIndex(Options{Backend: tt.backend})
			require.NoError(t, err)
			defer func() { _ = idx.Close() }()

			assert.Equal(t, tt.want, idx.Stats().Backend)
		})
	}
}

func TestNewLexicalIndex_UnknownBackend(t *testing.T) {
	_, err := NewLexicalIndex(Options{Backend: "elasticsearch"})
	assert.Error(t, err)
}

// All backends must agree on which chunks match, even though absolute
// scores differ between scoring implementations.
func TestBackends_ConsistentMatching(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []string{BackendMemory, BackendSQLite, BackendBleve} {
		t.Run(backend, func(t *testing.T) {
			idx, err := NewLexicalIndex(Options{Backend: backend})
			require.NoError(t, err)
			defer func() { _ = idx.Close() }()

			require.NoError(t, idx.BuildIndex(ctx, testCorpus()))

			results, err := idx.Search(ctx, "cat", 10)
			require.NoError(t, err)
			require.NotEmpty(t, results)
			assert.Equal(t, "c-0", results[0].Chunk.ID)

			empty, err := idx.Search(ctx, "", 10)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestSQLiteFTS_MultiTermQuery(t *testing.T) {
	ctx := context.Background()
	idx, err := NewSQLiteFTS()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.BuildIndex(ctx, testCorpus()))

	results, err := idx.Search(ctx, "cats dogs", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// c-2 matches both terms, c-1 only one
	assert.Equal(t, "c-2", results[0].Chunk.ID)
	assert.Equal(t, "c-1", results[1].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestBackends_UnicodeQuery(t *testing.T) {
	ctx := context.Background()
	corpus := []*store.Chunk{
		{ID: "c-0", Content: "le café du coin"},
		{ID: "c-1", Content: "plain coffee shop"},
	}

	for _, backend := range []string{BackendMemory, BackendSQLite, BackendBleve} {
		t.Run(backend, func(t *testing.T) {
			idx, err := NewLexicalIndex(Options{Backend: backend})
			require.NoError(t, err)
			defer func() { _ = idx.Close() }()

			require.NoError(t, idx.BuildIndex(ctx, corpus))

			results, err := idx.Search(ctx, "café", 10)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "c-0", results[0].Chunk.ID)
		})
	}
}

func TestBackends_ClosedIndexNotReady(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []string{BackendSQLite, BackendBleve} {
		t.Run(backend, func(t *testing.T) {
			idx, err := NewLexicalIndex(Options{Backend: backend})
			require.NoError(t, err)
			require.NoError(t, idx.BuildIndex(ctx, testCorpus()))
			require.NoError(t, idx.Close())

			_, err = idx.Search(ctx, "cat", 10)
			require.Error(t, err)
			assert.Equal(t, maarerrors.ErrCodeIndexNotReady, maarerrors.GetCode(err))

			err = idx.BuildIndex(ctx, testCorpus())
			require.Error(t, err)
			assert.Equal(t, maarerrors.ErrCodeIndexNotReady, maarerrors.GetCode(err))
		})
	}
}

func TestBleveIndex_RebuildReplacesState(t *testing.T) {
	ctx := context.Background()
	idx, err := NewBleveIndex()
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	require.NoError(t, idx.BuildIndex(ctx, testCorpus()))
	require.NoError(t, idx.BuildIndex(ctx, nil))

	results, err := idx.Search(ctx, "cat", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, idx.Stats().DocumentCount)
}
