package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr-go/internal/config"
	"github.com/brobert1/seekr-go/internal/fusion"
	"github.com/brobert1/seekr-go/internal/lexical"
	"github.com/brobert1/seekr-go/internal/orchestrator"
)

func newSearchCmd() *cobra.Command {
	var (
		limit        int
		contextLines int
		semanticFlag bool
		hybridFlag   bool
		alpha        float64
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "search <QUERY>",
		Short: "Search the indexed codebase",
		Long: `Search the indexed codebase. By default this runs a lexical (BM25)
search; --semantic runs a vector search instead, and --hybrid fuses both
through the HybridRanker (--hybrid supersedes --semantic).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			root, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg, err := loadConfig(absRoot)
			if err != nil {
				return err
			}

			o := orchestrator.New(config.Home(), cfg, slog.Default())

			if !semanticFlag && !hybridFlag {
				return runLexicalSearch(cmd, o, query, limit, contextLines, jsonOutput)
			}
			return runRankedSearch(cmd, o, query, orchestrator.SearchOptions{
				Limit:    limit,
				Semantic: semanticFlag,
				Hybrid:   hybridFlag,
				Alpha:    alpha,
			}, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().IntVar(&contextLines, "context", 3, "maximum matching lines to show per lexical result")
	cmd.Flags().BoolVar(&semanticFlag, "semantic", false, "search the semantic (vector) index instead of lexical")
	cmd.Flags().BoolVar(&hybridFlag, "hybrid", false, "fuse lexical and semantic results (supersedes --semantic)")
	cmd.Flags().Float64Var(&alpha, "alpha", fusion.DefaultAlpha, "weight given to the lexical list during fusion (0..1)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output results as JSON")

	return cmd
}

type lexicalJSONResult struct {
	File          string             `json:"file"`
	Score         float64            `json:"score"`
	Language      string             `json:"language"`
	MatchingLines []matchingLineJSON `json:"matching_lines"`
}

type matchingLineJSON struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
}

func truncateLines(lines []lexical.MatchingLine, n int) []matchingLineJSON {
	capped := truncateLinesRaw(lines, n)
	out := make([]matchingLineJSON, len(capped))
	for i, l := range capped {
		out[i] = matchingLineJSON{Line: l.Line, Content: l.Content}
	}
	return out
}

func truncateLinesRaw(lines []lexical.MatchingLine, n int) []lexical.MatchingLine {
	if n <= 0 || n >= len(lines) {
		return lines
	}
	return lines[:n]
}

func runLexicalSearch(cmd *cobra.Command, o *orchestrator.Orchestrator, query string, limit, contextLines int, jsonOutput bool) error {
	hits, err := o.SearchLexical(cmd.Context(), query, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		results := make([]lexicalJSONResult, 0, len(hits))
		for _, h := range hits {
			results = append(results, lexicalJSONResult{
				File:          h.FilePath,
				Score:         h.Score,
				Language:      h.Language,
				MatchingLines: truncateLines(h.MatchingLines, contextLines),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintf(out, "no results for %q\n", query)
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(out, "%d. %s (score: %.3f)\n", i+1, h.FilePath, h.Score)
		for _, line := range truncateLinesRaw(h.MatchingLines, contextLines) {
			fmt.Fprintf(out, "   %d: %s\n", line.Line, line.Content)
		}
	}
	return nil
}

func runRankedSearch(cmd *cobra.Command, o *orchestrator.Orchestrator, query string, opts orchestrator.SearchOptions, jsonOutput bool) error {
	results, err := o.Search(cmd.Context(), query, opts)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toRankedJSON(results))
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintf(out, "no results for %q\n", query)
		return nil
	}
	for i, r := range results {
		location := r.FilePath
		if r.StartLine > 0 {
			location = fmt.Sprintf("%s:%d", r.FilePath, r.StartLine)
		}
		fmt.Fprintf(out, "%d. %s (score: %.3f, source: %s)\n", i+1, location, r.Score, sourceName(r.Source))
		if r.Name != "" {
			fmt.Fprintf(out, "   %s\n", r.Name)
		}
	}
	return nil
}

type rankedJSONResult struct {
	File      string  `json:"file"`
	Score     float64 `json:"score"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Name      string  `json:"name"`
	Preview   string  `json:"preview"`
	Source    string  `json:"source"`
}

func toRankedJSON(results []fusion.RankedResult) []rankedJSONResult {
	out := make([]rankedJSONResult, 0, len(results))
	for _, r := range results {
		out = append(out, rankedJSONResult{
			File:      r.FilePath,
			Score:     r.Score,
			StartLine: r.StartLine,
			EndLine:   r.EndLine,
			Name:      r.Name,
			Preview:   r.ContentPreview,
			Source:    sourceName(r.Source),
		})
	}
	return out
}

func sourceName(s fusion.Source) string {
	switch s {
	case fusion.Lexical:
		return "lexical"
	case fusion.Semantic:
		return "semantic"
	default:
		return "hybrid"
	}
}
