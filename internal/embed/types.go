package embed

import (
	"context"
	"math"
	"time"
)

// DefaultBatchSize is the default batch size for embedding requests,
// matching SemanticIndex's 32-chunk batching (SPEC_FULL §4.4).
const DefaultBatchSize = 32

// StaticDimensions is the embedding dimension produced by StaticEmbedder.
const StaticDimensions = 256

// DefaultDimensions is used if an Ollama embedder cannot auto-detect
// dimensions from a test embedding.
const DefaultDimensions = 768

const (
	// DefaultTimeout bounds a warm embedding request.
	DefaultTimeout = 15 * time.Second

	// DefaultColdTimeout bounds a request that may require Ollama to load
	// the model into memory first.
	DefaultColdTimeout = 60 * time.Second

	// DefaultWarmTimeout bounds a request once the model is already loaded.
	DefaultWarmTimeout = DefaultTimeout

	// ModelUnloadThreshold is how long Ollama keeps a model resident;
	// past this since the last call, a request is treated as cold.
	ModelUnloadThreshold = 5 * time.Minute

	// DefaultMaxRetries bounds retry attempts for a failed embed call.
	DefaultMaxRetries = 3
)

// Embedder generates vector embeddings for text. Chunks and queries are
// embedded through this interface so SemanticIndex never depends on a
// concrete provider.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the embedder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length, so the vector
// store's cosine distance reduces to a dot product.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
