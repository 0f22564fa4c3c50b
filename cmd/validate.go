package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/careplan/app"
	"github.com/kilianp07/careplan/core/history"
	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/pkg/export"
)

var validateRunID string

var validateCmd = &cobra.Command{
	Use:   "validate [schedule.json]",
	Short: "Check a schedule document or a stored run for double bookings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateRunID, "run-id", "", "validate a run from the history store")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if (len(args) == 0) == (validateRunID == "") {
		return fmt.Errorf("give either a schedule document or --run-id")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	runID, sched, err := loadSchedule(cmd.Context(), svc, args)
	if err != nil {
		return err
	}
	conflicts := svc.Validate(runID, sched)
	out := cmd.OutOrStdout()
	for _, c := range conflicts {
		if _, err := fmt.Fprintln(out, c); err != nil {
			return err
		}
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("%d conflicts found", len(conflicts))
	}
	_, err = fmt.Fprintf(out, "%d occurrences, no conflicts\n", len(sched.Occurrences))
	return err
}

func loadSchedule(ctx context.Context, svc *app.Service, args []string) (string, model.Schedule, error) {
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return "", model.Schedule{}, err
		}
		defer func() { _ = f.Close() }()
		doc, err := export.ReadJSON(f)
		if err != nil {
			return "", model.Schedule{}, err
		}
		return doc.RunID, doc.Schedule(), nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	recs, err := svc.History(ctx, history.Query{RunID: validateRunID})
	if err != nil {
		return "", model.Schedule{}, err
	}
	if len(recs) == 0 {
		return "", model.Schedule{}, fmt.Errorf("run %s not found", validateRunID)
	}
	return validateRunID, recs[len(recs)-1].Schedule, nil
}
