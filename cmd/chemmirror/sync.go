package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/moleculab/chemmirror/internal/core/checksum"
	"github.com/moleculab/chemmirror/internal/core/policy"
	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/logger"
	"github.com/moleculab/chemmirror/internal/mirror"
	"github.com/moleculab/chemmirror/internal/progress"
	"github.com/moleculab/chemmirror/internal/state"
	"github.com/moleculab/chemmirror/internal/transport/ftpx"
)

func newSyncCmd() *cobra.Command {
	var (
		dataset string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download missing dataset files into the local mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			dialer := ftpx.NewDialer(cfg.Remote.Host, cfg.Remote.User, cfg.Remote.Password)
			pol := policy.New(checksum.NewDefaultVerifier())

			engine := mirror.New(dialer, pol, mirror.Options{
				MirrorDir:   cfg.Mirror.Dir,
				RootPrefix:  cfg.Remote.RootPrefix,
				Subtrees:    cfg.DatasetSubtrees(),
				Backoff:     cfg.Retry.Backoff(),
				MaxAttempts: cfg.Retry.MaxAttempts,
			})

			start := time.Now()
			summary, syncErr := engine.Sync(cmd.Context(), domain.Dataset(dataset), format)
			saveSyncRun(dataset, start, summary, syncErr)
			return syncErr
		},
	}

	cmd.Flags().StringVar(&dataset, "dataset", string(domain.DatasetCompounds), "dataset to mirror")
	cmd.Flags().StringVar(&format, "format", "sdf", "dataset format token")

	return cmd
}

// saveSyncRun records the run in history. History is advisory; a
// failure to record never fails the sync itself.
func saveSyncRun(dataset string, start time.Time, summary *progress.Summary, syncErr error) {
	manager, err := state.NewManager(cfg.Mirror.Dir)
	if err != nil {
		logger.Get().Warn("failed to open run history", "error", err)
		return
	}
	defer manager.Close()

	record := state.RunRecord{
		Type:      state.RunSync,
		Dataset:   dataset,
		StartTime: start,
		EndTime:   time.Now(),
		Status:    state.StatusSuccess,
	}
	if summary != nil {
		record.Fetched = summary.Count(domain.OutcomeFetched)
		record.Skipped = summary.Count(domain.OutcomeSkippedAlreadyValid)
		record.Refreshed = summary.Count(domain.OutcomeRefreshedSidecar)
	}
	if syncErr != nil {
		record.Status = state.StatusFailed
		record.Error = syncErr.Error()
	}

	if err := manager.SaveRun(record); err != nil {
		logger.Get().Warn("failed to save run record", "error", err)
	}
}
