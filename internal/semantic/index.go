// Package semantic is seekr's SemanticIndex: it orchestrates the Chunker,
// an embedding backend, and the VectorStore, per SPEC_FULL.md §4.4.
package semantic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brobert1/seekr-go/internal/chunk"
	"github.com/brobert1/seekr-go/internal/embed"
	"github.com/brobert1/seekr-go/internal/vectorstore"
)

// batchSize bounds peak memory during embedding, per SPEC_FULL §4.4 step 4.
const batchSize = embed.DefaultBatchSize

// maxPreviewBytes is the byte-truncation length applied to chunk content
// before it enters the embedding input string.
const maxPreviewBytes = 500

// FileInput is one file handed to IndexFiles.
type FileInput struct {
	Path     string
	Language string
	Content  []byte
}

// Stats summarizes one IndexFiles run.
type Stats struct {
	FilesProcessed      int
	ChunksCreated       int
	EmbeddingsGenerated int
	Duration            time.Duration
}

// Result is one ranked semantic hit.
type Result struct {
	FilePath        string
	ChunkType       string
	Name            string
	StartLine       int
	EndLine         int
	Language        string
	ContentPreview  string
	SimilarityScore float64
}

// Index is seekr's SemanticIndex. The embedder and VectorStore are lazily
// initialized singletons, nil-checked under mu, per SPEC_FULL §5.
type Index struct {
	mu sync.Mutex

	baseDir    string
	dimensions int
	embedderFn func(ctx context.Context) (embed.Embedder, error)
	chunker    *chunk.CodeChunker
	embedder   embed.Embedder
	store      *vectorstore.Store
}

// New returns a SemanticIndex rooted at baseDir (typically
// "<home>/.seekr/semantic"), using embedderFn to lazily construct the
// embedding backend on first use.
func New(baseDir string, dimensions int, embedderFn func(ctx context.Context) (embed.Embedder, error)) *Index {
	return &Index{
		baseDir:    baseDir,
		dimensions: dimensions,
		embedderFn: embedderFn,
		chunker:    chunk.NewCodeChunker(),
	}
}

// ensureReady lazily initializes the embedder and VectorStore. The
// file_path -> vector keys relationship SPEC_FULL §9 describes as an
// in-memory map is instead owned by the VectorStore itself (it already
// holds the metadata slice, so it tombstones by path directly via
// TombstoneByPath rather than this package keeping a second, driftable
// copy of the same relationship).
func (idx *Index) ensureReady(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.embedder == nil {
		embedder, err := idx.embedderFn(ctx)
		if err != nil {
			return fmt.Errorf("semantic: creating embedder: %w", err)
		}
		idx.embedder = embedder
	}

	if idx.store == nil {
		store, err := vectorstore.Open(idx.baseDir, idx.dimensions)
		if err != nil {
			return fmt.Errorf("semantic: opening vector store: %w", err)
		}
		idx.store = store
	}

	return nil
}

// IndexFiles chunks every file, embeds the chunks in batches, and stores
// the resulting vectors, per SPEC_FULL §4.4's index_files algorithm.
func (idx *Index) IndexFiles(ctx context.Context, files []FileInput) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}

	var allChunks []*chunk.CodeChunk
	touchedPaths := make(map[string]struct{})

	for _, f := range files {
		chunks, err := idx.chunker.Chunk(ctx, &chunk.FileInput{
			Path:     f.Path,
			Language: f.Language,
			Content:  f.Content,
		})
		if err != nil {
			// Log-and-skip per contract; chunking failures are not fatal.
			continue
		}
		if len(chunks) == 0 {
			continue
		}
		allChunks = append(allChunks, chunks...)
		touchedPaths[f.Path] = struct{}{}
		stats.FilesProcessed++
	}

	if len(allChunks) == 0 {
		stats.Duration = time.Since(start)
		return stats, nil
	}

	if err := idx.ensureReady(ctx); err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Tombstone every previously indexed chunk for files being re-indexed,
	// per §9's chunk-granular eviction resolution.
	for path := range touchedPaths {
		idx.store.TombstoneByPath(path)
	}

	for batchStart := 0; batchStart < len(allChunks); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(allChunks) {
			batchEnd = len(allChunks)
		}
		batch := allChunks[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = EmbeddingInput(c)
		}

		vectors, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("semantic: embedding batch: %w", err)
		}

		for i, c := range batch {
			meta := vectorstore.ChunkMetadata{
				FilePath:  c.FilePath,
				Language:  c.Language,
				ChunkType: string(c.ChunkType),
				Name:      c.Name,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				Content:   c.Content,
			}
			if _, err := idx.store.Add(vectors[i], meta); err != nil {
				return nil, fmt.Errorf("semantic: adding vector: %w", err)
			}
			stats.ChunksCreated++
			stats.EmbeddingsGenerated++
		}
	}

	if err := idx.store.Save(); err != nil {
		return nil, fmt.Errorf("semantic: saving vector store: %w", err)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// EmbeddingInput builds the "[<language>] <chunk_type>: <content[0..500]>"
// string a chunk is embedded as, per SPEC_FULL §4.4 step 4.
func EmbeddingInput(c *chunk.CodeChunk) string {
	content := c.Content
	if len(content) > maxPreviewBytes {
		content = content[:maxPreviewBytes]
	}
	return fmt.Sprintf("[%s] %s: %s", c.Language, c.ChunkType, content)
}

// Search embeds query (without the contextual prefix) and returns up to
// limit semantic hits, best first.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := idx.ensureReady(ctx); err != nil {
		return nil, err
	}

	idx.mu.Lock()
	embedder := idx.embedder
	store := idx.store
	idx.mu.Unlock()

	vector, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic: embedding query: %w", err)
	}

	hits, err := store.Search(vector, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic: searching vector store: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			FilePath:        h.Metadata.FilePath,
			ChunkType:       h.Metadata.ChunkType,
			Name:            h.Metadata.Name,
			StartLine:       h.Metadata.StartLine,
			EndLine:         h.Metadata.EndLine,
			Language:        h.Metadata.Language,
			ContentPreview:  h.Metadata.Content,
			SimilarityScore: h.Score,
		})
	}
	return results, nil
}

// Close releases the embedder and vector store, if initialized.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var err error
	if idx.embedder != nil {
		err = idx.embedder.Close()
	}
	if idx.store != nil {
		if cerr := idx.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
