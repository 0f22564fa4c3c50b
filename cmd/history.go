package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/careplan/app"
	"github.com/kilianp07/careplan/core/history"
)

var historyOpts struct {
	activity string
	since    time.Duration
	limit    int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored scheduling runs",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyOpts.activity, "activity", "", "only runs involving this activity id")
	f.DurationVar(&historyOpts.since, "since", 0, "only runs newer than this duration")
	f.IntVarP(&historyOpts.limit, "limit", "n", 20, "maximum number of runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	q := history.Query{ActivityID: historyOpts.activity, Limit: historyOpts.limit}
	if historyOpts.since > 0 {
		q.Start = time.Now().Add(-historyOpts.since)
	}
	recs, err := svc.History(cmd.Context(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RUN\tTIME\tPLACED\tBACKUP\tUNSCHEDULED\tCONFLICTS"); err != nil {
		return err
	}
	for _, r := range recs {
		s := r.Summary
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", r.RunID, r.Timestamp.Format(time.RFC3339),
			s.Placed, s.BackupUsed, s.Unscheduled, s.Conflicts); err != nil {
			return err
		}
	}
	return tw.Flush()
}
