package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/moleculab/chemmirror/internal/extract"
	"github.com/moleculab/chemmirror/internal/ingest/backends"
	"github.com/moleculab/chemmirror/internal/logger"
	"github.com/moleculab/chemmirror/internal/state"
)

func newExtractCmd() *cobra.Command {
	var (
		backendName string
		storePath   string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Decompress mirrored archives and feed them to the ingestion backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			name := backendName
			if name == "" {
				name = cfg.Ingest.Backend
			}
			store := storePath
			if store == "" {
				store = cfg.Ingest.StorePath
			}

			backend, err := backends.Open(name, store, cfg.Mirror.Dir)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := backend.Close(); cerr != nil {
					logger.Get().Warn("backend close failed", "error", cerr)
				}
			}()

			logger.Get().Info("starting extraction",
				"root", cfg.Mirror.Dir,
				"backend", name,
			)

			start := time.Now()
			walkErr := extract.New(backend).Walk(cmd.Context(), cfg.Mirror.Dir)
			saveExtractRun(start, walkErr)
			return walkErr
		},
	}

	cmd.Flags().StringVar(&backendName, "backend", "",
		fmt.Sprintf("ingestion backend %v (default from config)", backends.Names()))
	cmd.Flags().StringVar(&storePath, "store", "", "backend store location (default under mirror dir)")

	return cmd
}

// saveExtractRun records the run in history; advisory only.
func saveExtractRun(start time.Time, walkErr error) {
	manager, err := state.NewManager(cfg.Mirror.Dir)
	if err != nil {
		logger.Get().Warn("failed to open run history", "error", err)
		return
	}
	defer manager.Close()

	record := state.RunRecord{
		Type:      state.RunExtract,
		Dataset:   "",
		StartTime: start,
		EndTime:   time.Now(),
		Status:    state.StatusSuccess,
	}
	if walkErr != nil {
		record.Status = state.StatusFailed
		record.Error = walkErr.Error()
	}

	if err := manager.SaveRun(record); err != nil {
		logger.Get().Warn("failed to save run record", "error", err)
	}
}
