package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/careplan/app"
	"github.com/kilianp07/careplan/core/scheduler"
	"github.com/kilianp07/careplan/infra/logger"
	"github.com/kilianp07/careplan/pkg/export"
)

var scheduleOpts struct {
	input              string
	legacyPlan         string
	legacyAvailability string
	schedulerConfig    string
	start              string
	end                string
	out                string
	format             string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Build a schedule from a catalog and availability data",
	RunE:  runSchedule,
}

func init() {
	f := scheduleCmd.Flags()
	f.StringVarP(&scheduleOpts.input, "input", "i", "", "catalog and availability document (.json, .yaml)")
	f.StringVar(&scheduleOpts.legacyPlan, "legacy-plan", "", "legacy action plan file")
	f.StringVar(&scheduleOpts.legacyAvailability, "legacy-availability", "", "legacy availability file")
	f.StringVar(&scheduleOpts.schedulerConfig, "scheduler-config", "", "standalone scheduler file replacing the scheduler section")
	f.StringVar(&scheduleOpts.start, "start", "", "first planning day (YYYY-MM-DD)")
	f.StringVar(&scheduleOpts.end, "end", "", "last planning day (YYYY-MM-DD)")
	f.StringVarP(&scheduleOpts.out, "out", "o", "-", "output file, - for stdout")
	f.StringVarP(&scheduleOpts.format, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if scheduleOpts.input != "" {
		cfg.Input.Path = scheduleOpts.input
		cfg.Input.LegacyPlan, cfg.Input.LegacyAvailability = "", ""
	}
	if scheduleOpts.legacyPlan != "" || scheduleOpts.legacyAvailability != "" {
		cfg.Input.Path = ""
		cfg.Input.LegacyPlan = scheduleOpts.legacyPlan
		cfg.Input.LegacyAvailability = scheduleOpts.legacyAvailability
	}
	if scheduleOpts.schedulerConfig != "" {
		sc, err := scheduler.LoadConfig(scheduleOpts.schedulerConfig)
		if err != nil {
			return err
		}
		cfg.Scheduler = sc
	}
	if scheduleOpts.start != "" {
		cfg.Scheduler.Start = scheduleOpts.start
	}
	if scheduleOpts.end != "" {
		cfg.Scheduler.End = scheduleOpts.end
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	doc, err := cfg.Input.Load()
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	res, runErr := svc.Run(ctx, doc)
	if res == nil {
		return runErr
	}
	if err := writeDocument(cmd.OutOrStdout(), scheduleOpts.out, scheduleOpts.format, res.Document); err != nil {
		return err
	}
	s := res.Summary
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %d occurrences, %d placed, %d backups used, %d unscheduled, %d conflicts\n",
		res.RunID, s.Occurrences, s.Placed, s.BackupUsed, s.Unscheduled, s.Conflicts); err != nil {
		return err
	}
	return runErr
}

func writeDocument(stdout io.Writer, path, format string, doc export.Document) (err error) {
	w := stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	switch format {
	case "json":
		return export.WriteJSON(w, doc)
	case "csv":
		return export.WriteCSV(w, doc.Occurrences)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
