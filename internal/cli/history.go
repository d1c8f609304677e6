package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dshills/lamp/internal/config"
	"github.com/dshills/lamp/internal/history"
)

var (
	flagHistoryLimit int
	flagHistoryJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the local request log",
}

func openHistoryStrict() (*history.Store, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	p, err := config.HistoryPath(cfg)
	if err != nil {
		return nil, err
	}
	return history.Open(p)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent review requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistoryStrict()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context(), flagHistoryLimit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if flagHistoryJSON {
			data, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			return nil
		}
		if len(entries) == 0 {
			fmt.Fprintln(w, "No requests recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tWHEN\tMODEL\tMODE\tTOKENS\tFILES\tOUTCOME\tDURATION")
		for _, e := range entries {
			outcome := e.Outcome
			if e.ErrorKind != "" {
				outcome += " (" + e.ErrorKind + ")"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t~%s\t%d/%d\t%s\t%dms\n",
				e.RequestID,
				humanize.Time(e.CreatedAt),
				e.Model,
				e.Mode,
				humanize.Comma(int64(e.EstimatedTokens)),
				e.FilesProcessed, e.FilesProcessed+e.FilesSkipped,
				outcome,
				e.DurationMs)
		}
		return tw.Flush()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistoryStrict()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Clear(cmd.Context())
		if err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyListCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Maximum entries to show (0 for all)")
	historyListCmd.Flags().BoolVar(&flagHistoryJSON, "json", false, "Print entries as JSON")
}
