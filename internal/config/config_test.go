package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsValidDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 0.5, cfg.Search.BM25Weight)
	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.True(t, cfg.Search.UseRRF)
	assert.Equal(t, 2000, cfg.Chunking.MaxChunkSize)
	assert.Equal(t, 0.2, cfg.Chunking.OverlapRatio)
	assert.Equal(t, 16, cfg.Vector.M)
	assert.Equal(t, 128, cfg.Vector.EfConstruction)
	assert.Equal(t, 64, cfg.Vector.EfSearch)
	assert.Equal(t, 500, cfg.Watch.DebounceMillis)
	assert.Equal(t, "static", cfg.Embedding.Provider)

	require.NoError(t, cfg.Validate())
}

func TestHome_DefaultsUnderUserHome(t *testing.T) {
	t.Setenv("SEEKR_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".seekr"), Home())
}

func TestHome_HonorsSeekrHomeOverride(t *testing.T) {
	t.Setenv("SEEKR_HOME", "/tmp/custom-seekr")
	assert.Equal(t, "/tmp/custom-seekr", Home())
}

func TestUserConfigPath_IsUnderHome(t *testing.T) {
	t.Setenv("SEEKR_HOME", "/tmp/custom-seekr")
	assert.Equal(t, "/tmp/custom-seekr/config.yaml", UserConfigPath())
}

func TestProjectConfigPath_IsDotSeekrYAML(t *testing.T) {
	assert.Equal(t, "/some/project/.seekr.yaml", ProjectConfigPath("/some/project"))
}

func TestLoad_NoConfigFilesReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SEEKR_HOME", filepath.Join(dir, "home"))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search.BM25Weight, cfg.Search.BM25Weight)
}

func TestLoad_MergesProjectConfigOverDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SEEKR_HOME", filepath.Join(dir, "home"))

	projectYAML := `
search:
  bm25_weight: 0.3
  semantic_weight: 0.7
embedding:
  provider: ollama
  model: nomic-embed-text
`
	require.NoError(t, os.WriteFile(ProjectConfigPath(dir), []byte(projectYAML), 0o644))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Search.BM25Weight)
	assert.Equal(t, 0.7, cfg.Search.SemanticWeight)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	// Fields not set in project config keep their defaults.
	assert.Equal(t, 2000, cfg.Chunking.MaxChunkSize)
}

func TestLoad_ExplicitPathOverridesUserConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SEEKR_HOME", filepath.Join(dir, "home"))

	explicit := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("search:\n  rrf_constant: 30\n"), 0o644))

	cfg, err := Load(dir, explicit)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Search.RRFConstant)
}

func TestLoad_ExplicitPathMissingReturnsError(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, "home")
	t.Setenv("SEEKR_HOME", home)
	require.NoError(t, os.MkdirAll(home, 0o755))

	userYAML := "search:\n  bm25_weight: 0.9\n  semantic_weight: 0.1\n"
	require.NoError(t, os.WriteFile(UserConfigPath(), []byte(userYAML), 0o644))

	projectYAML := "search:\n  bm25_weight: 0.4\n  semantic_weight: 0.6\n"
	require.NoError(t, os.WriteFile(ProjectConfigPath(dir), []byte(projectYAML), 0o644))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 0.4, cfg.Search.BM25Weight)
}

func TestLoad_EnvOverridesBeatFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SEEKR_HOME", filepath.Join(dir, "home"))
	t.Setenv("SEEKR_RRF_CONSTANT", "15")

	projectYAML := "search:\n  rrf_constant: 45\n"
	require.NoError(t, os.WriteFile(ProjectConfigPath(dir), []byte(projectYAML), 0o644))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Search.RRFConstant)
}

func TestLoad_InvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SEEKR_HOME", filepath.Join(dir, "home"))

	projectYAML := "search:\n  bm25_weight: 0.9\n  semantic_weight: 0.9\n"
	require.NoError(t, os.WriteFile(ProjectConfigPath(dir), []byte(projectYAML), 0o644))

	_, err := Load(dir, "")
	assert.Error(t, err)
}

func TestValidate_WeightsMustSumToOne(t *testing.T) {
	cfg := NewConfig()
	cfg.Search.BM25Weight = 0.3
	cfg.Search.SemanticWeight = 0.3
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsInvalidProvider(t *testing.T) {
	cfg := NewConfig()
	cfg.Embedding.Provider = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveChunkSize(t *testing.T) {
	cfg := NewConfig()
	cfg.Chunking.MaxChunkSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsOverlapRatioOutOfRange(t *testing.T) {
	cfg := NewConfig()
	cfg.Chunking.OverlapRatio = 1.0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveVectorParams(t *testing.T) {
	cfg := NewConfig()
	cfg.Vector.M = 0
	assert.Error(t, cfg.Validate())
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := NewConfig()
	cfg.Embedding.Model = "all-minilm"
	require.NoError(t, cfg.WriteYAML(path))

	reloaded := NewConfig()
	require.NoError(t, reloaded.loadYAML(path))
	assert.Equal(t, "all-minilm", reloaded.Embedding.Model)
}

func TestGet_ResolvesDottedKey(t *testing.T) {
	cfg := NewConfig()
	v, err := cfg.Get("search.bm25_weight")
	require.NoError(t, err)
	assert.Equal(t, "0.5", v)
}

func TestGet_UnknownKeyReturnsError(t *testing.T) {
	cfg := NewConfig()
	_, err := cfg.Get("search.nonexistent")
	assert.Error(t, err)
}

func TestSet_WritesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Set(dir, "search.bm25_weight", "0.4"))
	require.NoError(t, Set(dir, "search.semantic_weight", "0.6"))

	cfg := NewConfig()
	require.NoError(t, cfg.loadYAML(ProjectConfigPath(dir)))
	assert.Equal(t, 0.4, cfg.Search.BM25Weight)
	assert.Equal(t, 0.6, cfg.Search.SemanticWeight)
}

func TestSet_UnknownKeyReturnsError(t *testing.T) {
	dir := t.TempDir()
	err := Set(dir, "bogus.key", "value")
	assert.Error(t, err)
}

func TestSet_RejectsMalformedValue(t *testing.T) {
	dir := t.TempDir()
	err := Set(dir, "search.rrf_constant", "not-a-number")
	assert.Error(t, err)
}
