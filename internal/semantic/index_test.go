package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brobert1/seekr-go/internal/chunk"
	"github.com/brobert1/seekr-go/internal/embed"
)

const testDims = 64

func staticEmbedderFn(ctx context.Context) (embed.Embedder, error) {
	return embed.NewStaticEmbedder(testDims), nil
}

func TestIndexFiles_EmptyFileSetReturnsZeroStats(t *testing.T) {
	idx := New(t.TempDir(), testDims, staticEmbedderFn)
	stats, err := idx.IndexFiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesProcessed)
	assert.Equal(t, 0, stats.ChunksCreated)
}

func TestIndexFiles_ChunksEmbedsAndStores(t *testing.T) {
	idx := New(t.TempDir(), testDims, staticEmbedderFn)

	files := []FileInput{
		{
			Path:     "a.go",
			Language: "go",
			Content:  []byte("package main\n\nfunc helloWorld() {\n\tprintln(\"hi\")\n}\n\nfunc goodbye() {}\n"),
		},
	}

	stats, err := idx.IndexFiles(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Greater(t, stats.ChunksCreated, 0)
	assert.Equal(t, stats.ChunksCreated, stats.EmbeddingsGenerated)
}

func TestSearch_FindsIndexedChunk(t *testing.T) {
	idx := New(t.TempDir(), testDims, staticEmbedderFn)

	files := []FileInput{
		{
			Path:     "a.go",
			Language: "go",
			Content:  []byte("package main\n\nfunc helloWorld() {\n\tprintln(\"hi there\")\n}\n"),
		},
	}
	_, err := idx.IndexFiles(context.Background(), files)
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), "helloWorld", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a.go", results[0].FilePath)
}

func TestIndexFiles_ReindexingFileTombstonesOldChunks(t *testing.T) {
	idx := New(t.TempDir(), testDims, staticEmbedderFn)

	v1 := []FileInput{{Path: "a.go", Language: "go", Content: []byte("package main\n\nfunc alpha() {\n\tprintln(\"alpha body long enough to clear the chunk floor\")\n}\n")}}
	_, err := idx.IndexFiles(context.Background(), v1)
	require.NoError(t, err)

	v2 := []FileInput{{Path: "a.go", Language: "go", Content: []byte("package main\n\nfunc beta() {\n\tprintln(\"beta body long enough to clear the chunk floor\")\n}\n")}}
	_, err = idx.IndexFiles(context.Background(), v2)
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "alpha", r.Name)
	}
}

func TestEmbeddingInput_TruncatesAt500Bytes(t *testing.T) {
	longContent := make([]byte, 1000)
	for i := range longContent {
		longContent[i] = 'x'
	}

	c := &chunk.CodeChunk{Language: "go", ChunkType: chunk.ChunkTypeFunction, Content: string(longContent)}
	input := EmbeddingInput(c)
	assert.LessOrEqual(t, len(input), len("[go] function: ")+maxPreviewBytes)
}
