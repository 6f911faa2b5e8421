package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr-go/internal/config"
	"github.com/brobert1/seekr-go/internal/orchestrator"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print index health and on-disk footprint",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			status, err := o.Status(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"num_docs":   status.NumDocs,
					"size_bytes": status.SizeBytes,
					"healthy":    status.Healthy,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "num_docs: %d\nsize_bytes: %d\nhealthy: %t\n",
				status.NumDocs, status.SizeBytes, status.Healthy)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
