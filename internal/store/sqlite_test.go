package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_SaveAndGetChunks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	docs := []*DocumentRecord{
		{ID: "doc-1", Name: "intro.md", UserID: "user-1", OrganizationID: "org-1"},
	}
	require.NoError(t, s.SaveDocuments(ctx, docs))

	chunks := []*Chunk{
		{
			ID:         "chunk-1",
			DocumentID: "doc-1",
			Content:    "hybrid retrieval combines lexical and dense scoring",
			Metadata:   map[string]any{"source": "intro.md", "section": "overview"},
			CreatedAt:  time.Now().UTC(),
		},
		{
			ID:         "chunk-2",
			DocumentID: "doc-1",
			Content:    "rank fusion merges two ranked lists",
			Metadata:   map[string]any{"source": "intro.md"},
			CreatedAt:  time.Now().UTC(),
		},
	}
	require.NoError(t, s.SaveChunks(ctx, chunks))

	got, err := s.GetChunks(ctx, []string{"chunk-1", "chunk-2", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := make(map[string]*Chunk)
	for _, c := range got {
		byID[c.ID] = c
	}
	assert.Equal(t, "doc-1", byID["chunk-1"].DocumentID)
	assert.Equal(t, "overview", byID["chunk-1"].Metadata["section"])
	assert.Equal(t, "rank fusion merges two ranked lists", byID["chunk-2"].Content)
}

func TestSQLiteStore_ListChunksPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveDocuments(ctx, []*DocumentRecord{{ID: "doc-1"}}))

	ids := []string{"c-third", "c-first", "c-second"}
	for _, id := range ids {
		require.NoError(t, s.SaveChunks(ctx, []*Chunk{
			{ID: id, DocumentID: "doc-1", Content: "content for " + id},
		}))
	}

	got, err := s.ListChunks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// rowid order, not lexicographic
	for i, id := range ids {
		assert.Equal(t, id, got[i].ID)
	}
}

func TestSQLiteStore_RejectsEmptyContent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveDocuments(ctx, []*DocumentRecord{{ID: "doc-1"}}))

	err := s.SaveChunks(ctx, []*Chunk{{ID: "c-1", DocumentID: "doc-1", Content: ""}})
	assert.Error(t, err)
}

func TestSQLiteStore_GetDocuments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveDocuments(ctx, []*DocumentRecord{
		{ID: "doc-1", Name: "a.md", UserID: "u-1", OrganizationID: "org-1"},
		{ID: "doc-2", Name: "b.md", UserID: "u-2", OrganizationID: "org-1"},
	}))

	got, err := s.GetDocuments(ctx, []string{"doc-1", "doc-2", "doc-missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u-1", got["doc-1"].UserID)
	assert.Equal(t, "org-1", got["doc-2"].OrganizationID)
	assert.NotContains(t, got, "doc-missing")
}

func TestSQLiteStore_DeleteChunksByDocumentCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveDocuments(ctx, []*DocumentRecord{
		{ID: "doc-1"}, {ID: "doc-2"},
	}))
	require.NoError(t, s.SaveChunks(ctx, []*Chunk{
		{ID: "c-1", DocumentID: "doc-1", Content: "first"},
		{ID: "c-2", DocumentID: "doc-1", Content: "second"},
		{ID: "c-3", DocumentID: "doc-2", Content: "third"},
	}))
	require.NoError(t, s.SaveEmbeddings(ctx,
		[]string{"c-1", "c-3"},
		[][]float32{{0.1, 0.2}, {0.3, 0.4}},
		"test-model"))

	require.NoError(t, s.DeleteChunksByDocument(ctx, "doc-1"))

	count, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	embs, err := s.GetAllEmbeddings(ctx)
	require.NoError(t, err)
	assert.NotContains(t, embs, "c-1")
	assert.Contains(t, embs, "c-3")
}

func TestSQLiteStore_EmbeddingRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveDocuments(ctx, []*DocumentRecord{{ID: "doc-1"}}))
	require.NoError(t, s.SaveChunks(ctx, []*Chunk{
		{ID: "c-1", DocumentID: "doc-1", Content: "vector content"},
	}))

	vec := []float32{0.25, -1.5, 3.14159, 0}
	require.NoError(t, s.SaveEmbeddings(ctx, []string{"c-1"}, [][]float32{vec}, "test-model"))

	embs, err := s.GetAllEmbeddings(ctx)
	require.NoError(t, err)
	require.Contains(t, embs, "c-1")
	assert.Equal(t, vec, embs["c-1"])
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveDocuments(ctx, []*DocumentRecord{{ID: "doc-1"}}))
	require.NoError(t, s.SaveChunks(ctx, []*Chunk{
		{ID: "c-1", DocumentID: "doc-1", Content: "persisted"},
	}))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()

	got, err := s2.GetChunks(ctx, []string{"c-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "persisted", got[0].Content)
}

func TestSQLiteStore_ClosedStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.ListChunks(ctx)
	assert.Error(t, err)
	err = s.SaveChunks(ctx, []*Chunk{{ID: "c", DocumentID: "d", Content: "x"}})
	assert.Error(t, err)

	// Close is idempotent
	assert.NoError(t, s.Close())
}
