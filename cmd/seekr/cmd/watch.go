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

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the current directory and reindex on change",
		Long: `Run the Watcher on the current directory. File system events are
coalesced into a single incremental reindex per debounce window, per the
watch.debounce_millis setting.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

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
			output.New(cmd.OutOrStdout()).Statusf("👀", "watching %s (Ctrl+C to stop)", absRoot)
			return o.Watch(ctx, absRoot)
		},
	}

	return cmd
}
