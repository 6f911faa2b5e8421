package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr-go/internal/config"
)

// newConfigCmd implements `seekr config <KEY> [VALUE]`: with no VALUE it
// prints the current value of a dotted config key; with a VALUE it writes
// the key into the project-local .seekr.yaml, creating it if absent.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <KEY> [VALUE]",
		Short: "Read or write a config key",
		Long: `Read the effective value of a dotted config key (e.g. search.bm25_weight),
resolved through the layered configuration, or write it into the
project-local .seekr.yaml when VALUE is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			key := args[0]
			if len(args) == 1 {
				cfg, err := loadConfig(absRoot)
				if err != nil {
					return err
				}
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			}

			if err := config.Set(absRoot, key, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "set %s = %s in %s\n", key, args[1], config.ProjectConfigPath(absRoot))
			return nil
		},
	}

	return cmd
}
