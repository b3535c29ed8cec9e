package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moleculab/chemmirror/internal/config"
	"github.com/moleculab/chemmirror/internal/logger"
)

var (
	cfgFile   string
	logLevel  string
	mirrorDir string

	cfg *config.Config
)

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chemmirror",
		Short:         "Mirror chemical dataset dumps and ingest them into a local store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if mirrorDir != "" {
				cfg.Mirror.Dir = mirrorDir
			}

			level := cfg.Log.Level
			if logLevel != "" {
				level = logLevel
			}

			return logger.Init(logger.Config{
				Level:  logger.ParseLevel(level),
				Format: logger.ParseFormat(cfg.Log.Format),
				File: logger.FileConfig{
					Enabled:    cfg.Log.File.Enabled,
					Path:       cfg.Log.File.Path,
					MaxSizeMB:  cfg.Log.File.MaxSizeMB,
					MaxAgeDays: cfg.Log.File.MaxAgeDays,
					MaxBackups: cfg.Log.File.MaxBackups,
					Compress:   cfg.Log.File.Compress,
				},
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if err := logger.Shutdown(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "logger shutdown:", err)
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&mirrorDir, "mirror-dir", "", "local mirror directory path")

	root.AddCommand(newSyncCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newHistoryCmd())

	return root
}

// Execute runs the CLI. The process exits non-zero only when a
// command returns an error.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Get().Error("command failed", "error", err)
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
