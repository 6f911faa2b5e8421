package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr-go/internal/config"
	"github.com/brobert1/seekr-go/internal/orchestrator"
)

func newSimilarCmd() *cobra.Command {
	var (
		file       string
		rangeFlag  string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "similar --file <PATH> [--range <START>..<END>]",
		Short: "Find code similar to a file or line range",
		Long: `Read the referenced file (the whole file, or the given 1-indexed
inclusive line range), run it through the same chunker and embedding path
as indexing without persisting it, and search the existing semantic index
for its nearest neighbors, excluding exact self-matches.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			startLine, endLine, err := parseRange(rangeFlag)
			if err != nil {
				return err
			}

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
			results, err := o.Similar(cmd.Context(), file, startLine, endLine, limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no similar code found")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. %s:%d-%d (score: %.3f) %s\n", i+1, r.FilePath, r.StartLine, r.EndLine, r.SimilarityScore, r.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the reference file (required)")
	cmd.Flags().StringVar(&rangeFlag, "range", "", "1-indexed inclusive line range, e.g. 10..20")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output results as JSON")

	return cmd
}

// parseRange parses a "START..END" range flag. An empty string means
// "whole file" (both return values are 0).
func parseRange(rangeFlag string) (start, end int, err error) {
	if rangeFlag == "" {
		return 0, 0, nil
	}

	parts := strings.SplitN(rangeFlag, "..", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid --range %q: expected START..END", rangeFlag)
	}

	start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --range start %q: %w", parts[0], err)
	}
	end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --range end %q: %w", parts[1], err)
	}
	return start, end, nil
}
