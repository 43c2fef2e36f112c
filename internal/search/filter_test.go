package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdobzx/maar/internal/store"
)

// fakeResolver serves document records from a fixed map.
type fakeResolver struct {
	docs map[string]*store.DocumentRecord
	err  error
}

func (f *fakeResolver) GetDocuments(ctx context.Context, ids []string) (map[string]*store.DocumentRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*store.DocumentRecord)
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

func filterFixture() []*SearchResult {
	return []*SearchResult{
		{ChunkID: "c-1", DocumentID: "d-1", Score: 3.0, Metadata: map[string]any{"lang": "go", "stars": 5}},
		{ChunkID: "c-2", DocumentID: "d-1", Score: 2.0, Metadata: map[string]any{"lang": "python"}},
		{ChunkID: "c-3", DocumentID: "d-2", Score: 1.0, Metadata: map[string]any{"lang": "go"}},
	}
}

func TestApplyFilters_Equality(t *testing.T) {
	ctx := context.Background()

	kept, err := ApplyFilters(ctx, filterFixture(), map[string]any{"lang": "go"}, nil)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, "c-1", kept[0].ChunkID)
	assert.Equal(t, "c-3", kept[1].ChunkID)
}

func TestApplyFilters_Membership(t *testing.T) {
	ctx := context.Background()

	kept, err := ApplyFilters(ctx, filterFixture(), map[string]any{"lang": []any{"go", "rust"}}, nil)
	require.NoError(t, err)
	assert.Len(t, kept, 2)

	kept, err = ApplyFilters(ctx, filterFixture(), map[string]any{"lang": []string{"python"}}, nil)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "c-2", kept[0].ChunkID)
}

func TestApplyFilters_MissingKeyFailsClosed(t *testing.T) {
	ctx := context.Background()

	// Only c-1 carries "stars"
	kept, err := ApplyFilters(ctx, filterFixture(), map[string]any{"stars": 5}, nil)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "c-1", kept[0].ChunkID)
}

func TestApplyFilters_NumericCoercion(t *testing.T) {
	ctx := context.Background()

	// Metadata loaded from JSON carries numbers as float64
	results := []*SearchResult{
		{ChunkID: "c-1", Metadata: map[string]any{"stars": float64(5)}},
	}
	kept, err := ApplyFilters(ctx, results, map[string]any{"stars": 5}, nil)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestApplyFilters_SubsequenceProperty(t *testing.T) {
	ctx := context.Background()
	input := filterFixture()

	kept, err := ApplyFilters(ctx, input, map[string]any{"lang": "go"}, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(kept), len(input))

	// Survivors keep their order and scores
	prev := -1
	for _, r := range kept {
		idx := -1
		for i, in := range input {
			if in.ChunkID == r.ChunkID {
				idx = i
				assert.Equal(t, in.Score, r.Score)
			}
		}
		assert.Greater(t, idx, prev)
		prev = idx
	}
}

func TestApplyFilters_DocumentJoin(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{docs: map[string]*store.DocumentRecord{
		"d-1": {ID: "d-1", UserID: "u-1", OrganizationID: "org-1"},
		"d-2": {ID: "d-2", UserID: "u-2", OrganizationID: "org-1"},
	}}

	kept, err := ApplyFilters(ctx, filterFixture(), map[string]any{"user_id": "u-1"}, resolver)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	for _, r := range kept {
		assert.Equal(t, "d-1", r.DocumentID)
	}

	kept, err = ApplyFilters(ctx, filterFixture(), map[string]any{"organization_id": "org-1"}, resolver)
	require.NoError(t, err)
	assert.Len(t, kept, 3)

	kept, err = ApplyFilters(ctx, filterFixture(), map[string]any{"document_id": "d-2"}, resolver)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "c-3", kept[0].ChunkID)
}

func TestApplyFilters_NilResolverFailsOwnershipClosed(t *testing.T) {
	ctx := context.Background()

	kept, err := ApplyFilters(ctx, filterFixture(), map[string]any{"user_id": "u-1"}, nil)
	require.NoError(t, err)
	assert.Empty(t, kept)
}

func TestApplyFilters_NoFiltersPassThrough(t *testing.T) {
	ctx := context.Background()
	input := filterFixture()

	kept, err := ApplyFilters(ctx, input, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, input, kept)
}
