package embed

import (
	"context"
	"testing"

	"github.com/brobert1/seekr-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_StaticProviderNeverFails(t *testing.T) {
	e, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "static"})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "static", e.ModelName())
}

func TestNewEmbedder_UnknownProviderFallsBackToStatic(t *testing.T) {
	e, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "not-a-provider"})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "static", e.ModelName())
}

func TestNewEmbedder_WrapsWithCache(t *testing.T) {
	e, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "static"})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	_, ok := e.(*CachedEmbedder)
	assert.True(t, ok)
}

func TestParseProvider_RecognizesKnownProviders(t *testing.T) {
	assert.Equal(t, ProviderOllama, ParseProvider("ollama"))
	assert.Equal(t, ProviderStatic, ParseProvider("static"))
	assert.Equal(t, ProviderStatic, ParseProvider("unknown"))
}

func TestIsValidProvider_RejectsUnknown(t *testing.T) {
	assert.True(t, IsValidProvider("ollama"))
	assert.True(t, IsValidProvider("static"))
	assert.False(t, IsValidProvider("mlx"))
}

func TestGetInfo_UnwrapsCachedEmbedder(t *testing.T) {
	e, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "static"})
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	info := GetInfo(context.Background(), e)
	assert.Equal(t, ProviderStatic, info.Provider)
	assert.True(t, info.Available)
}
