// Package app wires a full planning run: index the availability, schedule
// the catalog, validate the result and hand it to metrics, history and
// publishers.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/careplan/config"
	"github.com/kilianp07/careplan/core/history"
	coremetrics "github.com/kilianp07/careplan/core/metrics"
	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/report"
	"github.com/kilianp07/careplan/core/scheduler"
	"github.com/kilianp07/careplan/core/validate"
	"github.com/kilianp07/careplan/infra/input"
	"github.com/kilianp07/careplan/infra/logger"
	_ "github.com/kilianp07/careplan/infra/metrics"
	"github.com/kilianp07/careplan/infra/publish"
	"github.com/kilianp07/careplan/pkg/export"
)

// Service runs schedules against the configured collaborators. Nil fields
// fall back to no-op implementations.
type Service struct {
	Config    *config.Config
	Sink      coremetrics.MetricsSink
	Store     history.Store
	Publisher publish.Publisher
	Logger    logger.Logger

	// Now and NewRunID are replaceable for tests.
	Now      func() time.Time
	NewRunID func() string
}

// Result is the outcome of one run.
type Result struct {
	RunID     string
	Plan      *scheduler.Plan
	Conflicts []model.Conflict
	Summary   report.Summary
	Document  export.Document
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := history.NewStore(cfg.History)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("history store: %w", err)
	}
	pub, err := publish.New(cfg.Publish)
	if err != nil {
		closeSink(sink)
		_ = store.Close()
		return nil, fmt.Errorf("publisher: %w", err)
	}
	return &Service{
		Config:    cfg,
		Sink:      sink,
		Store:     store,
		Publisher: pub,
		Logger:    logger.New("service"),
	}, nil
}

func (s *Service) sink() coremetrics.MetricsSink {
	if s.Sink == nil {
		return coremetrics.NopSink{}
	}
	return s.Sink
}

func (s *Service) store() history.Store {
	if s.Store == nil {
		return history.NopStore{}
	}
	return s.Store
}

func (s *Service) log() logger.Logger {
	if s.Logger == nil {
		return logger.NopLogger{}
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) runID() string {
	if s.NewRunID != nil {
		return s.NewRunID()
	}
	return uuid.NewString()
}

// Run schedules doc. A bad availability document, planning window or
// reservation aborts the run with a nil result. Malformed activities are
// left out of the schedule and reported in the returned error next to the
// result, as are history and publishing failures. Metrics failures are
// only logged.
func (s *Service) Run(ctx context.Context, doc input.Document) (*Result, error) {
	runID := s.runID()
	log := s.log()

	idx, err := doc.Index()
	if err != nil {
		return nil, fmt.Errorf("availability: %w", err)
	}
	var cfg scheduler.SchedulerConfig
	if s.Config != nil {
		cfg = s.Config.Scheduler
	}
	if cfg.Start == "" {
		cfg.Start = doc.Start
	}
	if cfg.End == "" {
		cfg.End = doc.End
	}
	cfg.SetDefaults()

	sched := scheduler.Scheduler{
		Config: cfg,
		Logger: s.Logger,
		RunID:  runID,
		Sink:   s.sink(),
		Now:    s.Now,
	}
	plan, rejected := sched.GeneratePlan(idx, doc.Activities)
	if plan == nil {
		return nil, rejected
	}

	conflicts := s.recordConflicts(runID, plan.Schedule)

	now := s.now()
	sum := report.Summarize(plan.Schedule, conflicts, report.FreeFromRecords(doc.Availability))
	sum.RunID = runID
	sum.GeneratedAt = now
	sum.Start, sum.End = plan.Start, plan.End
	if err := s.sink().RecordRun(sum); err != nil {
		log.Errorf("record run %s: %v", runID, err)
	}

	res := &Result{
		RunID:     runID,
		Plan:      plan,
		Conflicts: conflicts,
		Summary:   sum,
		Document:  export.NewDocument(runID, now, plan.Start, plan.End, plan.Schedule, conflicts, &sum),
	}
	log.Infof("run %s: %d placed, %d backups used, %d unscheduled, %d conflicts",
		runID, sum.Placed, sum.BackupUsed, sum.Unscheduled, sum.Conflicts)

	var errs []error
	if rejected != nil {
		errs = append(errs, fmt.Errorf("malformed input: %w", rejected))
	}
	rec := history.Record{RunID: runID, Timestamp: now, Summary: sum, Schedule: plan.Schedule, Conflicts: conflicts}
	if err := s.store().Append(ctx, rec); err != nil {
		errs = append(errs, fmt.Errorf("history: %w", err))
	}
	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, res.Document); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}
	return res, errors.Join(errs...)
}

// Validate re-runs conflict detection on a stored schedule.
func (s *Service) Validate(runID string, sched model.Schedule) []model.Conflict {
	return s.recordConflicts(runID, sched)
}

func (s *Service) recordConflicts(runID string, sched model.Schedule) []model.Conflict {
	conflicts := validate.Conflicts(sched)
	rec, _ := s.sink().(coremetrics.ConflictRecorder)
	for _, c := range conflicts {
		s.log().Errorf("conflict on %s", c)
		if rec == nil {
			continue
		}
		if err := rec.RecordConflict(coremetrics.ConflictEvent{RunID: runID, Conflict: c, Time: s.now()}); err != nil {
			s.log().Errorf("record conflict: %v", err)
		}
	}
	return conflicts
}

// History returns stored runs matching q.
func (s *Service) History(ctx context.Context, q history.Query) ([]history.Record, error) {
	return s.store().Query(ctx, q)
}

// Close releases the sink, the store and the publishers.
func (s *Service) Close() error {
	var errs []error
	if c, ok := s.Sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if s.Store != nil {
		errs = append(errs, s.Store.Close())
	}
	if s.Publisher != nil {
		errs = append(errs, s.Publisher.Close())
	}
	return errors.Join(errs...)
}

func closeSink(sink coremetrics.MetricsSink) {
	if c, ok := sink.(io.Closer); ok {
		_ = c.Close()
	}
}
