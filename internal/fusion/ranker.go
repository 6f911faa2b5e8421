// Package fusion is seekr's HybridRanker: it fuses lexical and semantic
// result lists into one ranked list, per SPEC_FULL.md §4.5.
//
// This is the one place the teacher's own fusion code
// (internal/search/fusion.go) diverges from the spec and is overridden
// rather than reused verbatim: the teacher adds a "missing-list" RRF
// contribution for documents appearing in only one list and defaults to
// {BM25: 0.35, Semantic: 0.65}. The math here instead follows the simpler
// semantics the pre-distillation source actually implements: no
// missing-list term, alpha=0.5 default, first-seen-wins on ties.
package fusion

import "sort"

// Source identifies which list (or fusion) a result's score came from.
type Source int

const (
	Lexical Source = iota
	Semantic
	Hybrid
)

// DefaultRRFK is the standard RRF smoothing constant.
const DefaultRRFK = 60.0

// DefaultAlpha weights the lexical list equally against the semantic list.
const DefaultAlpha = 0.5

// RankedResult is one fused (or single-source) search hit.
type RankedResult struct {
	FilePath       string
	Score          float64
	Source         Source
	StartLine      int
	EndLine        int
	ContentPreview string
	Name           string
}

// Config configures a Ranker.
type Config struct {
	Alpha  float64 // weight given to the lexical list; semantic gets 1-Alpha.
	RRFK   float64
	UseRRF bool
}

// DefaultConfig is {alpha=0.5, rrf_k=60.0, use_rrf=true}.
func DefaultConfig() Config {
	return Config{Alpha: DefaultAlpha, RRFK: DefaultRRFK, UseRRF: true}
}

// Ranker fuses a lexical and a semantic result list.
type Ranker struct {
	cfg Config
}

// New returns a Ranker configured by cfg.
func New(cfg Config) *Ranker {
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRRFK
	}
	if cfg.Alpha < 0 || cfg.Alpha > 1 {
		cfg.Alpha = DefaultAlpha
	}
	return &Ranker{cfg: cfg}
}

// Fuse combines lexical and semantic into a single ranked list of at most
// limit results, using RRF or linear fusion per cfg.UseRRF.
func (r *Ranker) Fuse(lexical, semantic []RankedResult, limit int) []RankedResult {
	if r.cfg.UseRRF {
		return r.fuseRRF(lexical, semantic, limit)
	}
	return r.fuseLinear(lexical, semantic, limit)
}

// fuseRRF implements Reciprocal Rank Fusion: the rank-i result (0-indexed)
// in a list contributes 1/(rrf_k + i + 1) to its document's fused score,
// weighted by alpha (lexical) or 1-alpha (semantic). Documents are keyed
// by file_path; on a repeat, only the first-seen record is kept (lexical
// is processed first), with its score/source overwritten.
func (r *Ranker) fuseRRF(lexical, semantic []RankedResult, limit int) []RankedResult {
	scores := make(map[string]float64)
	order := make(map[string]int)
	kept := make(map[string]*RankedResult)
	var keys []string

	addList := func(list []RankedResult, weight float64) {
		for i, res := range list {
			contribution := weight / (r.cfg.RRFK + float64(i) + 1)
			if _, seen := kept[res.FilePath]; !seen {
				copyRes := res
				kept[res.FilePath] = &copyRes
				order[res.FilePath] = len(keys)
				keys = append(keys, res.FilePath)
			}
			scores[res.FilePath] += contribution
		}
	}

	addList(lexical, r.cfg.Alpha)
	addList(semantic, 1-r.cfg.Alpha)

	results := make([]RankedResult, 0, len(keys))
	for _, k := range keys {
		res := *kept[k]
		res.Score = scores[k]
		res.Source = Hybrid
		results = append(results, res)
	}

	sortFused(results, order)
	return truncate(results, limit)
}

// fuseLinear implements the linear fusion mode: each list is independently
// min-max normalized (range<=0 maps every score to 1.0), then the lexical
// list contributes alpha*normalized and semantic contributes
// (1-alpha)*normalized, summed per file_path.
func (r *Ranker) fuseLinear(lexical, semantic []RankedResult, limit int) []RankedResult {
	normLexical := normalize(lexical)
	normSemantic := normalize(semantic)

	scores := make(map[string]float64)
	order := make(map[string]int)
	kept := make(map[string]*RankedResult)
	var keys []string

	addList := func(list []RankedResult, normed []float64, weight float64) {
		for i, res := range list {
			if _, seen := kept[res.FilePath]; !seen {
				copyRes := res
				kept[res.FilePath] = &copyRes
				order[res.FilePath] = len(keys)
				keys = append(keys, res.FilePath)
			}
			scores[res.FilePath] += weight * normed[i]
		}
	}

	addList(lexical, normLexical, r.cfg.Alpha)
	addList(semantic, normSemantic, 1-r.cfg.Alpha)

	results := make([]RankedResult, 0, len(keys))
	for _, k := range keys {
		res := *kept[k]
		res.Score = scores[k]
		res.Source = Hybrid
		results = append(results, res)
	}

	sortFused(results, order)
	return truncate(results, limit)
}

// normalize min-max normalizes a list's scores independently; an
// empty-or-all-equal list (range<=0) maps every score to 1.0.
func normalize(list []RankedResult) []float64 {
	normed := make([]float64, len(list))
	if len(list) == 0 {
		return normed
	}

	min, max := list[0].Score, list[0].Score
	for _, r := range list {
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
	}

	rng := max - min
	for i, r := range list {
		if rng <= 0 {
			normed[i] = 1.0
			continue
		}
		normed[i] = (r.Score - min) / rng
	}
	return normed
}

// sortFused sorts by fused score descending, ties broken by first-seen
// insertion order.
func sortFused(results []RankedResult, order map[string]int) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return order[results[i].FilePath] < order[results[j].FilePath]
	})
}

func truncate(results []RankedResult, limit int) []RankedResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
