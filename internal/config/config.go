package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is seekr's complete configuration, resolved in order of increasing
// precedence: built-in defaults, ~/.seekr/config.yaml, ./.seekr.yaml
// (project-local), then SEEKR_* environment variables.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Chunking  ChunkingConfig  `yaml:"chunking" json:"chunking"`
	Vector    VectorConfig    `yaml:"vector" json:"vector"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
}

// SearchConfig configures hybrid search fusion.
type SearchConfig struct {
	// BM25Weight is the weight given to lexical (BM25) results during linear fusion.
	BM25Weight float64 `yaml:"bm25_weight" json:"bm25_weight"`
	// SemanticWeight is the weight given to semantic results during linear fusion.
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	// RRFConstant is the RRF smoothing parameter k.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
	// UseRRF selects Reciprocal Rank Fusion over normalized linear combination.
	UseRRF bool `yaml:"use_rrf" json:"use_rrf"`
	// MaxResults caps the number of results returned by a search.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// ChunkingConfig configures the AST/sliding-window chunker.
type ChunkingConfig struct {
	// MaxChunkSize is the target chunk size in bytes for the sliding-window fallback.
	MaxChunkSize int `yaml:"max_chunk_size" json:"max_chunk_size"`
	// OverlapRatio is the fraction of MaxChunkSize reused as overlap between consecutive chunks.
	OverlapRatio float64 `yaml:"overlap_ratio" json:"overlap_ratio"`
}

// VectorConfig configures the HNSW-backed vector store.
type VectorConfig struct {
	// M is the graph connectivity (neighbors per node).
	M int `yaml:"m" json:"m"`
	// EfConstruction is the candidate list size used while building the graph.
	EfConstruction int `yaml:"ef_construction" json:"ef_construction"`
	// EfSearch is the candidate list size used while querying the graph.
	EfSearch int `yaml:"ef_search" json:"ef_search"`
	// Dimensions is the embedding vector width. 0 means auto-detect from the embedder.
	Dimensions int `yaml:"dimensions" json:"dimensions"`
}

// WatchConfig configures the filesystem watcher's debounce window.
type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_millis" json:"debounce_millis"`
}

// EmbeddingConfig configures the embedding provider used by SemanticIndex.
type EmbeddingConfig struct {
	// Provider selects the embedder: "static" (offline, hash-based) or "ollama".
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
	// Endpoint is the HTTP endpoint for network-backed providers (e.g. Ollama).
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
}

// defaultSkipDirs lists common dependency and build directory names. The
// walker does not consult it: a walk skips only .git, hidden entries and
// gitignored paths.
var defaultSkipDirs = []string{
	".git", "node_modules", "vendor", "__pycache__", "dist", "build",
}

// NewConfig returns a Config populated with seekr's built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			BM25Weight:     0.5,
			SemanticWeight: 0.5,
			RRFConstant:    60,
			UseRRF:         true,
			MaxResults:     10,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 2000,
			OverlapRatio: 0.2,
		},
		Vector: VectorConfig{
			M:              16,
			EfConstruction: 128,
			EfSearch:       64,
			Dimensions:     0,
		},
		Watch: WatchConfig{
			DebounceMillis: 500,
		},
		Embedding: EmbeddingConfig{
			Provider:  "static",
			Model:     "",
			Endpoint:  "http://localhost:11434",
			BatchSize: 32,
		},
	}
}

// Home returns the per-user state directory, honoring SEEKR_HOME.
func Home() string {
	if h := os.Getenv("SEEKR_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".seekr")
	}
	return filepath.Join(home, ".seekr")
}

// UserConfigPath returns the path to the user/global configuration file.
func UserConfigPath() string {
	return filepath.Join(Home(), "config.yaml")
}

// ProjectConfigPath returns the path to the project-local configuration file.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ".seekr.yaml")
}

// Load resolves configuration for the given project directory, applying
// sources in order of increasing precedence: defaults, user config,
// project config, environment variables. explicitPath, if non-empty,
// is used in place of the user config path (the --config flag).
func Load(dir string, explicitPath string) (*Config, error) {
	cfg := NewConfig()

	userPath := UserConfigPath()
	if explicitPath != "" {
		userPath = explicitPath
	}
	if fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", userPath, err)
		}
	} else if explicitPath != "" {
		return nil, fmt.Errorf("config file not found: %s", explicitPath)
	}

	projectPath := ProjectConfigPath(dir)
	if fileExists(projectPath) {
		if err := cfg.loadYAML(projectPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", projectPath, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML parses path and merges its non-zero fields into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Search.BM25Weight != 0 {
		c.Search.BM25Weight = other.Search.BM25Weight
	}
	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}

	if other.Chunking.MaxChunkSize != 0 {
		c.Chunking.MaxChunkSize = other.Chunking.MaxChunkSize
	}
	if other.Chunking.OverlapRatio != 0 {
		c.Chunking.OverlapRatio = other.Chunking.OverlapRatio
	}

	if other.Vector.M != 0 {
		c.Vector.M = other.Vector.M
	}
	if other.Vector.EfConstruction != 0 {
		c.Vector.EfConstruction = other.Vector.EfConstruction
	}
	if other.Vector.EfSearch != 0 {
		c.Vector.EfSearch = other.Vector.EfSearch
	}
	if other.Vector.Dimensions != 0 {
		c.Vector.Dimensions = other.Vector.Dimensions
	}

	if other.Watch.DebounceMillis != 0 {
		c.Watch.DebounceMillis = other.Watch.DebounceMillis
	}

	if other.Embedding.Provider != "" {
		c.Embedding.Provider = other.Embedding.Provider
	}
	if other.Embedding.Model != "" {
		c.Embedding.Model = other.Embedding.Model
	}
	if other.Embedding.Endpoint != "" {
		c.Embedding.Endpoint = other.Embedding.Endpoint
	}
	if other.Embedding.BatchSize != 0 {
		c.Embedding.BatchSize = other.Embedding.BatchSize
	}
}

// applyEnvOverrides applies SEEKR_* environment variable overrides, the
// highest-precedence configuration source.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEEKR_BM25_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.BM25Weight = w
		}
	}
	if v := os.Getenv("SEEKR_SEMANTIC_WEIGHT"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("SEEKR_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("SEEKR_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("SEEKR_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("SEEKR_OLLAMA_HOST"); v != "" {
		c.Embedding.Endpoint = v
	}
}

// parseFloat64 parses s as a float64, used by env var overrides.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate checks the configuration for internally-consistent values.
func (c *Config) Validate() error {
	if c.Search.BM25Weight < 0 || c.Search.BM25Weight > 1 {
		return fmt.Errorf("search.bm25_weight must be between 0 and 1, got %f", c.Search.BM25Weight)
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return fmt.Errorf("search.semantic_weight must be between 0 and 1, got %f", c.Search.SemanticWeight)
	}
	if sum := c.Search.BM25Weight + c.Search.SemanticWeight; math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("search.bm25_weight + search.semantic_weight must equal 1.0, got %.2f", sum)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("chunking.max_chunk_size must be positive, got %d", c.Chunking.MaxChunkSize)
	}
	if c.Chunking.OverlapRatio < 0 || c.Chunking.OverlapRatio >= 1 {
		return fmt.Errorf("chunking.overlap_ratio must be in [0,1), got %f", c.Chunking.OverlapRatio)
	}
	if c.Vector.M <= 0 {
		return fmt.Errorf("vector.m must be positive, got %d", c.Vector.M)
	}
	if c.Vector.EfConstruction <= 0 {
		return fmt.Errorf("vector.ef_construction must be positive, got %d", c.Vector.EfConstruction)
	}
	if c.Vector.EfSearch <= 0 {
		return fmt.Errorf("vector.ef_search must be positive, got %d", c.Vector.EfSearch)
	}

	validProviders := map[string]bool{"static": true, "ollama": true}
	if !validProviders[strings.ToLower(c.Embedding.Provider)] {
		return fmt.Errorf("embedding.provider must be 'static' or 'ollama', got %s", c.Embedding.Provider)
	}

	return nil
}

// WriteYAML writes the configuration to path as YAML.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Get resolves a dotted key (e.g. "search.bm25_weight") to its current
// string value, for the `seekr config <KEY>` command.
func (c *Config) Get(key string) (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return "", err
	}

	parts := strings.Split(key, ".")
	var cur interface{} = tree
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("unknown config key: %s", key)
		}
		v, ok := m[p]
		if !ok {
			return "", fmt.Errorf("unknown config key: %s", key)
		}
		cur = v
	}

	return fmt.Sprintf("%v", cur), nil
}

// Set applies value to a dotted key and persists the project-local config
// file at dir, creating it if absent, for the `seekr config <KEY> <VALUE>` command.
func Set(dir, key, value string) error {
	path := ProjectConfigPath(dir)

	cfg := NewConfig()
	if fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return err
		}
	}

	if err := cfg.setField(key, value); err != nil {
		return err
	}

	return cfg.WriteYAML(path)
}

// setField applies a string value to the field addressed by a dotted key.
func (c *Config) setField(key, value string) error {
	switch key {
	case "search.bm25_weight":
		f, err := parseFloat64(value)
		if err != nil {
			return err
		}
		c.Search.BM25Weight = f
	case "search.semantic_weight":
		f, err := parseFloat64(value)
		if err != nil {
			return err
		}
		c.Search.SemanticWeight = f
	case "search.rrf_constant":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Search.RRFConstant = n
	case "search.use_rrf":
		c.Search.UseRRF = value == "true" || value == "1"
	case "search.max_results":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Search.MaxResults = n
	case "chunking.max_chunk_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Chunking.MaxChunkSize = n
	case "chunking.overlap_ratio":
		f, err := parseFloat64(value)
		if err != nil {
			return err
		}
		c.Chunking.OverlapRatio = f
	case "embedding.provider":
		c.Embedding.Provider = value
	case "embedding.model":
		c.Embedding.Model = value
	case "embedding.endpoint":
		c.Embedding.Endpoint = value
	case "embedding.batch_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Embedding.BatchSize = n
	case "watch.debounce_millis":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		c.Watch.DebounceMillis = n
	default:
		return fmt.Errorf("unknown or read-only config key: %s", key)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
