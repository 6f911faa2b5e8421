// Package orchestrator binds the Walker, ModTimeCache, LexicalIndex,
// SemanticIndex and HybridRanker into seekr's three user-facing flows:
// Index, Search and Status, per SPEC_FULL.md §4.9.
package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/brobert1/seekr-go/internal/chunk"
	"github.com/brobert1/seekr-go/internal/config"
	"github.com/brobert1/seekr-go/internal/embed"
	seekrerrors "github.com/brobert1/seekr-go/internal/errors"
	"github.com/brobert1/seekr-go/internal/fusion"
	"github.com/brobert1/seekr-go/internal/lexical"
	"github.com/brobert1/seekr-go/internal/modtime"
	"github.com/brobert1/seekr-go/internal/semantic"
	"github.com/brobert1/seekr-go/internal/vectorstore"
	"github.com/brobert1/seekr-go/internal/walker"
	"github.com/brobert1/seekr-go/internal/watcher"
)

// lockFileName is the advisory-lock sentinel inside the state directory,
// per SPEC_FULL §5.
const lockFileName = ".lock"

// IndexReport summarizes one Index run.
type IndexReport struct {
	FilesIndexed         int
	TotalLines           int
	SemanticFilesIndexed int
	ChunksCreated        int
	EmbeddingsGenerated  int
	Duration             time.Duration
}

// SearchOptions configures one Search call.
type SearchOptions struct {
	Limit    int
	Semantic bool
	Hybrid   bool
	Alpha    float64
}

// IndexStatus reports the lexical index's on-disk footprint and health.
type IndexStatus struct {
	NumDocs   uint64
	SizeBytes int64
	Healthy   bool
}

// Orchestrator wires the state directory's indexes together for one CLI
// invocation or watch session.
type Orchestrator struct {
	home string
	cfg  *config.Config
	log  *slog.Logger
}

// New returns an Orchestrator rooted at home ("<home>/.seekr"), using cfg
// to resolve embedding/vector/search parameters.
func New(home string, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{home: home, cfg: cfg, log: logger}
}

func (o *Orchestrator) lexicalIndexPath() string {
	return filepath.Join(o.home, "index")
}

func (o *Orchestrator) semanticBaseDir() string {
	return filepath.Join(o.home, "semantic")
}

// lock takes an advisory flock on "<home>/.lock" for the duration of fn.
func (o *Orchestrator) lock(fn func() error) error {
	if err := os.MkdirAll(o.home, 0o755); err != nil {
		return seekrerrors.Wrap(seekrerrors.ErrCodeConfigInvalid, err).
			WithSuggestion("check permissions on " + o.home)
	}

	fl := flock.New(filepath.Join(o.home, lockFileName))
	locked, err := fl.TryLock()
	if err != nil {
		return seekrerrors.ConfigErr("acquiring index lock", err)
	}
	if !locked {
		return seekrerrors.New(seekrerrors.ErrCodeConfigInvalid,
			"another seekr process is already indexing this workspace", nil).
			WithSuggestion("wait for the other run to finish, or remove " + filepath.Join(o.home, lockFileName) + " if it is stale")
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

func (o *Orchestrator) embedderDimensions() int {
	if o.cfg.Vector.Dimensions > 0 {
		return o.cfg.Vector.Dimensions
	}
	return embed.StaticDimensions
}

func (o *Orchestrator) newEmbedder(ctx context.Context) (embed.Embedder, error) {
	return embed.NewEmbedder(ctx, o.cfg.Embedding)
}

// Index walks root, ingests it into the lexical index (full rebuild if
// force, else incremental), and, if semantic is requested, into the
// semantic index too. Persists the ModTimeCache and both indexes.
func (o *Orchestrator) Index(ctx context.Context, root string, force, semanticRequested bool) (*IndexReport, error) {
	var report *IndexReport
	err := o.lock(func() error {
		var err error
		report, err = o.indexLocked(ctx, root, force, semanticRequested)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// indexLocked performs the actual indexing work; callers must already hold
// o.lock (Index acquires it itself; Watch's reindex callback runs under the
// lock Watch holds for its whole session).
func (o *Orchestrator) indexLocked(ctx context.Context, root string, force, semanticRequested bool) (*IndexReport, error) {
	report := &IndexReport{}
	start := time.Now()

	lexIdx, err := lexical.Create(o.lexicalIndexPath(), root, force)
	if err != nil {
		return nil, seekrerrors.IndexErr("creating lexical index", err)
	}
	defer func() { _ = lexIdx.Close() }()

	var cache *modtime.Cache
	if force {
		cache = modtime.New()
	} else {
		cache = modtime.Load(o.home)
	}

	stats, err := lexIdx.IndexDirectoryIncremental(ctx, root, cache)
	if err != nil {
		return nil, seekrerrors.IndexErr("indexing directory", err)
	}
	report.FilesIndexed = stats.FilesIndexed
	report.TotalLines = stats.TotalLines
	o.log.Info("lexical index updated",
		"files_indexed", stats.FilesIndexed,
		"files_skipped", stats.FilesSkipped,
		"total_lines", stats.TotalLines)

	if semanticRequested {
		semIdx := semantic.New(o.semanticBaseDir(), o.embedderDimensions(), o.newEmbedder)

		var files []semantic.FileInput
		walkErr := walker.New().Walk(ctx, root, func(f *walker.File) error {
			if !isSemanticLanguage(f.Language) {
				return nil
			}
			files = append(files, semantic.FileInput{Path: f.Path, Language: f.Language, Content: f.Content})
			return nil
		})
		if walkErr != nil {
			return nil, seekrerrors.IOErr("walking directory for semantic indexing", walkErr)
		}

		semStats, err := semIdx.IndexFiles(ctx, files)
		if err != nil {
			return nil, seekrerrors.Wrap(seekrerrors.ErrCodeEmbeddingFailed, err)
		}
		report.SemanticFilesIndexed = semStats.FilesProcessed
		report.ChunksCreated = semStats.ChunksCreated
		report.EmbeddingsGenerated = semStats.EmbeddingsGenerated
		o.log.Info("semantic index updated",
			"files_processed", semStats.FilesProcessed,
			"chunks_created", semStats.ChunksCreated,
			"embeddings_generated", semStats.EmbeddingsGenerated)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// supportedSemanticLanguages mirrors SPEC_FULL §6: semantic chunking only
// covers the five tree-sitter grammars seekr ships.
var supportedSemanticLanguages = map[string]bool{
	"rust": true, "python": true, "javascript": true, "typescript": true, "go": true,
}

func isSemanticLanguage(language string) bool {
	return supportedSemanticLanguages[language]
}

// SearchLexical runs a plain lexical search, returning bleve's own result
// shape (file, score, language, matching_lines) rather than a fused
// RankedResult. Used by `seekr search` when neither --semantic nor --hybrid
// is set, per SPEC_FULL §6's lexical JSON shape.
func (o *Orchestrator) SearchLexical(ctx context.Context, query string, limit int) ([]*lexical.SearchResult, error) {
	lexIdx, err := lexical.Create(o.lexicalIndexPath(), ".", false)
	if err != nil {
		return nil, seekrerrors.IndexErr("opening lexical index", err)
	}
	defer func() { _ = lexIdx.Close() }()

	return lexIdx.Search(ctx, query, limitOrDefault(limit))
}

// Search runs the lexical search and, if requested, the semantic search,
// fusing both through the HybridRanker when hybrid is set.
func (o *Orchestrator) Search(ctx context.Context, query string, opts SearchOptions) ([]fusion.RankedResult, error) {
	lexIdx, err := lexical.Create(o.lexicalIndexPath(), ".", false)
	if err != nil {
		return nil, seekrerrors.IndexErr("opening lexical index", err)
	}
	defer func() { _ = lexIdx.Close() }()

	lexHits, err := lexIdx.Search(ctx, query, limitOrDefault(opts.Limit))
	if err != nil {
		return nil, seekrerrors.IndexErr("searching lexical index", err)
	}
	lexResults := toLexicalRanked(lexHits)

	if !opts.Semantic && !opts.Hybrid {
		return lexResults, nil
	}

	semIdx := semantic.New(o.semanticBaseDir(), o.embedderDimensions(), o.newEmbedder)
	semHits, err := semIdx.Search(ctx, query, limitOrDefault(opts.Limit))
	if err != nil {
		if opts.Hybrid {
			// Hybrid has a usable degraded path: fall back to lexical-only
			// rather than failing the whole search (SPEC_FULL §7).
			o.log.Warn("no semantic index found, degrading to lexical-only results", "error", err)
			return lexResults, nil
		}
		// A bare --semantic search has no degraded path; surface the
		// failure as a user-visible message instead of an empty result set.
		return nil, seekrerrors.VectorErr("no semantic index found, run `seekr index --semantic` first", err)
	}
	semResults := toSemanticRanked(semHits)

	if !opts.Hybrid {
		return semResults, nil
	}

	alpha := opts.Alpha
	if alpha == 0 {
		alpha = o.cfg.Search.BM25Weight
	}
	ranker := fusion.New(fusion.Config{
		Alpha:  alpha,
		RRFK:   float64(o.cfg.Search.RRFConstant),
		UseRRF: o.cfg.Search.UseRRF,
	})
	return ranker.Fuse(lexResults, semResults, limitOrDefault(opts.Limit)), nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}

func toLexicalRanked(hits []*lexical.SearchResult) []fusion.RankedResult {
	results := make([]fusion.RankedResult, 0, len(hits))
	for _, h := range hits {
		var preview string
		var startLine, endLine int
		if len(h.MatchingLines) > 0 {
			preview = h.MatchingLines[0].Content
			startLine = h.MatchingLines[0].Line
			endLine = h.MatchingLines[0].Line
		}
		results = append(results, fusion.RankedResult{
			FilePath:       h.FilePath,
			Score:          h.Score,
			Source:         fusion.Lexical,
			StartLine:      startLine,
			EndLine:        endLine,
			ContentPreview: preview,
		})
	}
	return results
}

func toSemanticRanked(hits []semantic.Result) []fusion.RankedResult {
	results := make([]fusion.RankedResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, fusion.RankedResult{
			FilePath:       h.FilePath,
			Score:          h.SimilarityScore,
			Source:         fusion.Semantic,
			StartLine:      h.StartLine,
			EndLine:        h.EndLine,
			ContentPreview: h.ContentPreview,
			Name:           h.Name,
		})
	}
	return results
}

// Status reports the lexical index's on-disk footprint and a lightweight
// health check.
func (o *Orchestrator) Status(ctx context.Context) (*IndexStatus, error) {
	lexIdx, err := lexical.Create(o.lexicalIndexPath(), ".", false)
	if err != nil {
		return &IndexStatus{Healthy: false}, nil
	}
	defer func() { _ = lexIdx.Close() }()

	numDocs, sizeBytes, healthy := lexIdx.Stats()
	return &IndexStatus{NumDocs: numDocs, SizeBytes: sizeBytes, Healthy: healthy}, nil
}

// Similar reads filePath (or, if startLine/endLine are both positive, just
// that 1-indexed inclusive line range), runs it through the same Chunker and
// embedding path as indexing without persisting anything, and searches the
// existing semantic index for its nearest neighbors, excluding exact
// self-matches by file_path+range, per SPEC_FULL §6's `similar` command.
func (o *Orchestrator) Similar(ctx context.Context, filePath string, startLine, endLine, limit int) ([]semantic.Result, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, seekrerrors.IOErr("reading reference file", err)
	}
	text := string(content)

	if startLine > 0 && endLine > 0 {
		lines := strings.Split(text, "\n")
		if endLine > len(lines) {
			endLine = len(lines)
		}
		if startLine < 1 || startLine > endLine {
			return nil, seekrerrors.ConfigErr("invalid --range: start must be >=1 and <= end", nil)
		}
		text = strings.Join(lines[startLine-1:endLine], "\n")
	}

	chunker := chunk.NewCodeChunker()
	defer chunker.Close()

	chunks, err := chunker.Chunk(ctx, &chunk.FileInput{
		Path:     filePath,
		Language: walker.DetectLanguage(filePath),
		Content:  []byte(text),
	})
	if err != nil {
		return nil, seekrerrors.ParseErr("chunking reference", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	embedder, err := o.newEmbedder(ctx)
	if err != nil {
		return nil, seekrerrors.Wrap(seekrerrors.ErrCodeEmbeddingFailed, err)
	}
	defer func() { _ = embedder.Close() }()

	store, err := vectorstore.Open(o.semanticBaseDir(), o.embedderDimensions())
	if err != nil {
		return nil, seekrerrors.VectorErr("no semantic index found, run `seekr index --semantic` first", err)
	}
	defer func() { _ = store.Close() }()

	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		absFilePath = filePath
	}

	var results []semantic.Result
	for _, c := range chunks {
		vec, err := embedder.Embed(ctx, semantic.EmbeddingInput(c))
		if err != nil {
			return nil, seekrerrors.Wrap(seekrerrors.ErrCodeEmbeddingFailed, err)
		}

		hits, err := store.Search(vec, limitOrDefault(limit)+1)
		if err != nil {
			return nil, seekrerrors.VectorErr("searching vector store", err)
		}

		for _, h := range hits {
			if isSelfMatch(h.Metadata, absFilePath, c.StartLine, c.EndLine) {
				continue
			}
			results = append(results, semantic.Result{
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
	}

	if len(results) > limitOrDefault(limit) {
		results = results[:limitOrDefault(limit)]
	}
	return results, nil
}

func isSelfMatch(meta vectorstore.ChunkMetadata, filePath string, startLine, endLine int) bool {
	absMetaPath, err := filepath.Abs(meta.FilePath)
	if err != nil {
		absMetaPath = meta.FilePath
	}
	return absMetaPath == filePath && meta.StartLine == startLine && meta.EndLine == endLine
}

// Watch runs the Watcher against root, triggering an incremental lexical
// reindex on each debounce-quiet burst of qualifying events. Per SPEC_FULL
// §5, the advisory lock is held for the whole watch session, not just each
// reindex, so a concurrent `seekr index` or `seekr watch` fails fast instead
// of racing the same on-disk index.
func (o *Orchestrator) Watch(ctx context.Context, root string) error {
	return o.lock(func() error {
		reindex := func(ctx context.Context, root string) error {
			_, err := o.indexLocked(ctx, root, false, false)
			return err
		}

		debounce := time.Duration(o.cfg.Watch.DebounceMillis) * time.Millisecond
		w := watcher.New(root, debounce, reindex)
		return w.Watch(ctx)
	})
}
