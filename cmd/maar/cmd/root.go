// Package cmd provides the CLI commands for maar.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdobzx/maar/internal/config"
	"github.com/abdobzx/maar/internal/logging"
	"github.com/abdobzx/maar/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the maar CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "maar",
		Version: version.String(),
		Short:   "Hybrid document retrieval engine",
		Long: `maar indexes document chunks and serves hybrid search:
BM25 keyword scoring and dense vector retrieval fused with
Reciprocal Rank Fusion, with optional re-ranking.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "maar.yaml", "Config file path")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads the config file, applying defaults and env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging initializes structured logging before any command runs.
func setupLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	}
	if debugMode {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
	}

	_, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	loggingCleanup = cleanup

	return nil
}
