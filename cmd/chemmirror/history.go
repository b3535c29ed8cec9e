package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moleculab/chemmirror/internal/state"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync and extraction runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := state.NewManager(cfg.Mirror.Dir)
			if err != nil {
				return err
			}
			defer manager.Close()

			records, err := manager.History(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tTYPE\tDATASET\tSTATUS\tFETCHED\tSKIPPED\tREFRESHED\tERROR")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					r.StartTime.Format("2006-01-02 15:04:05"),
					r.Type, r.Dataset, r.Status,
					r.Fetched, r.Skipped, r.Refreshed, r.Error,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")

	return cmd
}
