// Package cmd provides the CLI commands for seekr.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/brobert1/seekr-go/internal/config"
	"github.com/brobert1/seekr-go/internal/logging"
	"github.com/brobert1/seekr-go/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the seekr CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seekr",
		Short: "Local, offline hybrid code search",
		Long: `seekr indexes a codebase with a BM25 inverted index and an
optional HNSW-backed semantic index, then serves hybrid search over both
entirely offline — no network calls, no external services.`,
		Version:      version.Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate("seekr version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an alternate config file (overrides ~/.seekr/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to <home>/.seekr/logs/")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRunE = teardownLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newSimilarCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	logCfg.WriteToStderr = false

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	return nil
}

func teardownLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig resolves configuration for dir, honoring the --config flag.
func loadConfig(dir string) (*config.Config, error) {
	return config.Load(dir, configPath)
}
