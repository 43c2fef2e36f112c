package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedder_Deterministic(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder(256)
	defer func() { _ = e.Close() }()

	first, err := e.Embed(ctx, "hybrid retrieval pipeline")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "hybrid retrieval pipeline")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 256)
}

func TestStaticEmbedder_UnitLength(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder(128)
	defer func() { _ = e.Close() }()

	vec, err := e.Embed(ctx, "normalize this content please")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestStaticEmbedder_EmptyTextYieldsZeroVector(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder(64)
	defer func() { _ = e.Close() }()

	vec, err := e.Embed(ctx, "   ")
	require.NoError(t, err)
	require.Len(t, vec, 64)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedder_DifferentTextsDiffer(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder(256)
	defer func() { _ = e.Close() }()

	a, err := e.Embed(ctx, "cats chase birds")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "database transaction isolation")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStaticEmbedder_Batch(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder(64)
	defer func() { _ = e.Close() }()

	texts := []string{"first text", "second text", "third text"}
	vecs, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// Batch output matches single-call output
	single, err := e.Embed(ctx, texts[1])
	require.NoError(t, err)
	assert.Equal(t, single, vecs[1])
}

func TestStaticEmbedder_ClosedErrors(t *testing.T) {
	ctx := context.Background()
	e := NewStaticEmbedder(64)
	require.NoError(t, e.Close())

	_, err := e.Embed(ctx, "anything")
	assert.Error(t, err)
	assert.False(t, e.Available(ctx))
}
