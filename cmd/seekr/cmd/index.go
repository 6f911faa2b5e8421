package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr-go/internal/config"
	"github.com/brobert1/seekr-go/internal/orchestrator"
	"github.com/brobert1/seekr-go/internal/output"
)

func newIndexCmd() *cobra.Command {
	var force, semanticFlag bool

	cmd := &cobra.Command{
		Use:   "index [PATH]",
		Short: "Index a directory for searching",
		Long: `Index a directory to enable hybrid search over its contents.

PATH defaults to the current directory. --force clears and rebuilds both
the mtime cache and the lexical index; without it, indexing is incremental.
--semantic also (re)builds the semantic (HNSW) index.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg, err := loadConfig(absPath)
			if err != nil {
				return err
			}

			o := orchestrator.New(config.Home(), cfg, slog.Default())
			report, err := o.Index(ctx, absPath, force, semanticFlag)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Successf("indexed %d file(s), %d line(s), in %s", report.FilesIndexed, report.TotalLines, report.Duration)
			if semanticFlag {
				out.Statusf("🧠", "semantic: %d file(s), %d chunk(s), %d embedding(s)",
					report.SemanticFilesIndexed, report.ChunksCreated, report.EmbeddingsGenerated)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "clear and rebuild both the mtime cache and lexical index")
	cmd.Flags().BoolVar(&semanticFlag, "semantic", false, "also (re)build the semantic index")

	return cmd
}
