// Package lexical wraps bleve/v2 as seekr's inverted-index engine, per
// SPEC_FULL.md §4.2: BM25-scored full-text search over code with
// incremental, mtime-aware re-indexing.
package lexical

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/brobert1/seekr-go/internal/modtime"
	"github.com/brobert1/seekr-go/internal/walker"
)

// workspaceFileName records the indexed root as a sidecar next to the index.
const workspaceFileName = "workspace.txt"

// Document is one unit of lexical content: a whole file.
type Document struct {
	FilePath  string `json:"file_path"`
	Content   string `json:"content"`
	Language  string `json:"language"`
	LineCount int    `json:"line_count"`
}

// SearchResult is one ranked hit, enriched with matching lines for preview.
type SearchResult struct {
	FilePath      string
	Score         float64
	Language      string
	MatchingLines []MatchingLine
}

// MatchingLine is a 1-indexed line of stored content that contains a query term.
type MatchingLine struct {
	Line    int
	Content string
}

// IndexStats summarizes one index_directory(_incremental) run.
type IndexStats struct {
	FilesIndexed int
	FilesSkipped int
	TotalLines   int
	Duration     time.Duration
}

// Index is seekr's LexicalIndex: a disk-backed bleve.Index under
// "<home>/.seekr/index" with a code-aware analyzer.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// Create opens or creates an index at path. If force is true and the
// directory already exists, it is erased first. Writes a workspace.txt
// sidecar recording root.
func Create(path, root string, force bool) (*Index, error) {
	if force {
		if _, err := os.Stat(path); err == nil {
			if err := os.RemoveAll(path); err != nil {
				return nil, fmt.Errorf("lexical: clearing index: %w", err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lexical: creating index directory: %w", err)
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		indexMapping, mapErr := newIndexMapping()
		if mapErr != nil {
			return nil, fmt.Errorf("lexical: building index mapping: %w", mapErr)
		}
		idx, err = bleve.New(path, indexMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("lexical: opening index: %w", err)
	}

	if err := writeWorkspaceFile(path, root); err != nil {
		return nil, err
	}

	return &Index{index: idx, path: path}, nil
}

func writeWorkspaceFile(indexPath, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	return os.WriteFile(filepath.Join(indexPath, workspaceFileName), []byte(absRoot), 0o644)
}

// Close releases the underlying bleve index.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true
	return idx.index.Close()
}

// IndexDirectory walks root and adds one document per qualifying file,
// unconditionally (full reindex), then commits.
func (idx *Index) IndexDirectory(ctx context.Context, root string) (*IndexStats, error) {
	return idx.indexDirectory(ctx, root, nil)
}

// IndexDirectoryIncremental walks root, consulting cache to skip files
// whose modification time hasn't advanced since the last run, then commits and
// persists cache.
func (idx *Index) IndexDirectoryIncremental(ctx context.Context, root string, cache *modtime.Cache) (*IndexStats, error) {
	return idx.indexDirectory(ctx, root, cache)
}

func (idx *Index) indexDirectory(ctx context.Context, root string, cache *modtime.Cache) (*IndexStats, error) {
	start := time.Now()
	stats := &IndexStats{}

	w := walker.New()
	batch := idx.index.NewBatch()

	err := w.Walk(ctx, root, func(f *walker.File) error {
		if f.Language == "" {
			return nil
		}

		if cache != nil {
			status := cache.CheckFile(f.AbsPath)
			if status == modtime.Unchanged {
				stats.FilesSkipped++
				return nil
			}
		}

		lineCount := countLines(f.Content)
		doc := Document{
			FilePath:  f.Path,
			Content:   string(f.Content),
			Language:  f.Language,
			LineCount: lineCount,
		}

		// §9 resolution: delete-by-path before re-add to avoid duplicate
		// documents accumulating across incremental runs.
		batch.Delete(f.Path)
		if err := batch.Index(f.Path, doc); err != nil {
			return fmt.Errorf("lexical: batching %s: %w", f.Path, err)
		}

		if cache != nil {
			if err := cache.UpdateFile(f.AbsPath); err != nil {
				return fmt.Errorf("lexical: updating cache for %s: %w", f.Path, err)
			}
		}

		stats.FilesIndexed++
		stats.TotalLines += lineCount
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lexical: walking %s: %w", root, err)
	}

	idx.mu.Lock()
	if idx.closed {
		idx.mu.Unlock()
		return nil, fmt.Errorf("lexical: index is closed")
	}
	batchErr := idx.index.Batch(batch)
	idx.mu.Unlock()
	if batchErr != nil {
		return nil, fmt.Errorf("lexical: committing batch: %w", batchErr)
	}

	if cache != nil {
		if err := cache.Save(filepath.Dir(idx.path)); err != nil {
			return nil, fmt.Errorf("lexical: saving file cache: %w", err)
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// Search parses query with bleve's default match query targeting
// {content, file_path} and returns up to limit ranked results, each
// carrying the content lines that match a query term.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]*SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, fmt.Errorf("lexical: index is closed")
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	pathQuery := bleve.NewMatchQuery(query)
	pathQuery.SetField("file_path")

	disjunct := bleve.NewDisjunctionQuery(contentQuery, pathQuery)

	req := bleve.NewSearchRequest(disjunct)
	req.Size = limit
	req.Fields = []string{"content", "language"}

	result, err := idx.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical: search: %w", err)
	}

	terms := queryTerms(query)

	results := make([]*SearchResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		content, _ := hit.Fields["content"].(string)
		language, _ := hit.Fields["language"].(string)

		results = append(results, &SearchResult{
			FilePath:      hit.ID,
			Score:         hit.Score,
			Language:      language,
			MatchingLines: matchingLines(content, terms),
		})
	}

	return results, nil
}

// Stats reports the on-disk footprint and document count.
func (idx *Index) Stats() (numDocs uint64, sizeBytes int64, healthy bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return 0, 0, false
	}

	count, err := idx.index.DocCount()
	if err != nil {
		return 0, 0, false
	}

	var size int64
	_ = filepath.Walk(idx.path, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return count, size, true
}

// queryTerms splits a query into lowercase whitespace-separated terms.
func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	return fields
}

// matchingLines scans content line by line, lowercased, retaining up to 10
// lines that contain any of terms. Line numbers are 1-indexed.
func matchingLines(content string, terms []string) []MatchingLine {
	if len(terms) == 0 {
		return nil
	}

	var matches []MatchingLine
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNum := 0

	for scanner.Scan() && len(matches) < 10 {
		lineNum++
		line := scanner.Text()
		lower := strings.ToLower(line)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matches = append(matches, MatchingLine{Line: lineNum, Content: line})
				break
			}
		}
	}

	return matches
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 1
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	return n
}
