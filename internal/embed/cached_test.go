package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEmbedder_ReturnsSameVectorOnRepeatedCalls(t *testing.T) {
	inner := NewStaticEmbedder(64)
	cached := NewCachedEmbedderWithDefaults(inner)

	v1, err := cached.Embed(context.Background(), "func main() {}")
	require.NoError(t, err)
	v2, err := cached.Embed(context.Background(), "func main() {}")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestCachedEmbedder_EmbedBatchMixesCachedAndUncached(t *testing.T) {
	inner := NewStaticEmbedder(64)
	cached := NewCachedEmbedderWithDefaults(inner)

	_, err := cached.Embed(context.Background(), "alpha")
	require.NoError(t, err)

	results, err := cached.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCachedEmbedder_PassesThroughDimensionsAndModelName(t *testing.T) {
	inner := NewStaticEmbedder(128)
	cached := NewCachedEmbedderWithDefaults(inner)

	assert.Equal(t, 128, cached.Dimensions())
	assert.Equal(t, "static", cached.ModelName())
}

func TestCachedEmbedder_CloseClosesInner(t *testing.T) {
	inner := NewStaticEmbedder(0)
	cached := NewCachedEmbedderWithDefaults(inner)

	require.NoError(t, cached.Close())
	assert.False(t, inner.Available(context.Background()))
}
