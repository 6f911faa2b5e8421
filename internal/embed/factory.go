package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brobert1/seekr-go/internal/config"
)

// ProviderType represents an embedding provider.
type ProviderType string

const (
	// ProviderOllama uses Ollama's local HTTP API for embeddings.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses deterministic hash-based embeddings, requiring
	// no external service.
	ProviderStatic ProviderType = "static"
)

// NewEmbedder creates an embedder from the resolved EmbeddingConfig,
// wrapping it in an LRU cache so repeated queries skip recomputation.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	var embedder Embedder
	var err error

	switch ParseProvider(cfg.Provider) {
	case ProviderOllama:
		embedder, err = newOllamaEmbedder(ctx, cfg)
	case ProviderStatic:
		embedder, err = NewStaticEmbedder(0), nil
	default:
		embedder, err = NewStaticEmbedder(0), nil
	}

	if err != nil {
		return nil, err
	}

	return NewCachedEmbedderWithDefaults(embedder), nil
}

// newOllamaEmbedder builds an Ollama-backed embedder from config, with a
// clear error (not a silent fallback) if Ollama is unreachable.
func newOllamaEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	oc := DefaultOllamaConfig()

	if cfg.Model != "" {
		oc.Model = cfg.Model
	}
	if cfg.Endpoint != "" {
		oc.Host = cfg.Endpoint
	}
	if cfg.BatchSize > 0 {
		oc.BatchSize = cfg.BatchSize
	}

	embedder, err := NewOllamaEmbedder(ctx, oc)
	if err != nil {
		return nil, fmt.Errorf("ollama unavailable: %w\n\nTo fix:\n  1. Start Ollama: ollama serve\n  2. Or switch to static embeddings: seekr config embedding.provider static", err)
	}
	return embedder, nil
}

// ParseProvider converts a string to ProviderType, defaulting to static
// so indexing always works without a running Ollama instance.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "ollama":
		return ProviderOllama
	case "static":
		return ProviderStatic
	default:
		return ProviderStatic
	}
}

// String returns the string representation of ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns all valid provider names.
func ValidProviders() []string {
	return []string{string(ProviderOllama), string(ProviderStatic)}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo describes an embedder, for the status CLI command.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo returns information about an embedder, unwrapping the cache
// layer to identify the underlying provider.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}

	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	default:
		info.Provider = ProviderStatic
	}

	return info
}

// MustNewEmbedder creates an embedder and panics on failure. Use only in
// tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) Embedder {
	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
