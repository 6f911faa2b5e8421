package vectorstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVector(d, hot int) []float32 {
	v := make([]float32, d)
	v[hot%d] = 1.0
	return v
}

func TestOpen_EmptyBaseDirStartsFresh(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 4, s.Dimensions())
}

func TestAdd_KeyEqualsMetadataIndex(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		key, err := s.Add(unitVector(3, i), ChunkMetadata{FilePath: "a.go", Name: "f"})
		require.NoError(t, err)
		assert.Equal(t, i, key)
	}
	assert.Equal(t, 5, s.Len())
}

func TestAdd_RejectsWrongDimension(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 3)
	require.NoError(t, err)

	_, err = s.Add([]float32{1, 2}, ChunkMetadata{})
	assert.Error(t, err)
}

func TestSearch_ReturnsNearestFirst(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 4)
	require.NoError(t, err)

	key0, err := s.Add(unitVector(4, 0), ChunkMetadata{FilePath: "zero.go"})
	require.NoError(t, err)
	_, err = s.Add(unitVector(4, 1), ChunkMetadata{FilePath: "one.go"})
	require.NoError(t, err)

	results, err := s.Search(unitVector(4, 0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, key0, results[0].Key)
	assert.Equal(t, "zero.go", results[0].Metadata.FilePath)
}

func TestSearch_SkipsTombstonedMetadata(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 4)
	require.NoError(t, err)

	_, err = s.Add(unitVector(4, 0), ChunkMetadata{FilePath: "zero.go"})
	require.NoError(t, err)

	s.TombstoneByPath("zero.go")

	results, err := s.Search(unitVector(4, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSaveAndOpen_RoundTripsVectorsAndMetadata(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 4)
	require.NoError(t, err)

	_, err = s.Add(unitVector(4, 0), ChunkMetadata{FilePath: "a.go", Name: "Foo"})
	require.NoError(t, err)
	_, err = s.Add(unitVector(4, 1), ChunkMetadata{FilePath: "b.go", Name: "Bar"})
	require.NoError(t, err)

	require.NoError(t, s.Save())

	assert.FileExists(t, filepath.Join(dir, VectorsFileName))
	assert.FileExists(t, filepath.Join(dir, MetadataFileName))

	reopened, err := Open(dir, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Len())

	results, err := reopened.Search(unitVector(4, 0), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.go", results[0].Metadata.FilePath)
}

func TestClear_RemovesPersistedFilesAndResetsState(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 4)
	require.NoError(t, err)

	_, err = s.Add(unitVector(4, 0), ChunkMetadata{FilePath: "a.go"})
	require.NoError(t, err)
	require.NoError(t, s.Save())

	require.NoError(t, s.Clear())

	assert.NoFileExists(t, filepath.Join(dir, VectorsFileName))
	assert.NoFileExists(t, filepath.Join(dir, MetadataFileName))
	assert.Equal(t, 0, s.Len())
}

func TestSearch_EmptyStoreReturnsNoResults(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 4)
	require.NoError(t, err)

	results, err := s.Search(unitVector(4, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
