package metrics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/careplan/core/metrics"
	"github.com/kilianp07/careplan/core/report"
)

// PromConfig configures the Prometheus sink. The scheduler is a batch job,
// so metrics can be flushed to a node_exporter textfile or a Pushgateway
// after each run.
type PromConfig struct {
	Textfile   string `json:"textfile"`
	PushURL    string `json:"push_url"`
	PushJob    string `json:"push_job"`
	UseDefault bool   `json:"use_default_registry"`
}

// PromSink records scheduling outcomes in Prometheus metrics.
type PromSink struct {
	cfg         PromConfig
	gatherer    prometheus.Gatherer
	occurrences *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	outcomes    *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
	attempts    prometheus.Histogram
}

// NewPromSink registers scheduling metrics. Unless cfg.UseDefault is set, a
// private registry is used so flushed files contain only scheduling metrics.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	if cfg.UseDefault {
		return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	}
	reg := prometheus.NewRegistry()
	return NewPromSinkWithRegistry(cfg, reg, reg)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg PromConfig, reg prometheus.Registerer, g prometheus.Gatherer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if cfg.PushJob == "" {
		cfg.PushJob = "careplan"
	}
	occurrences := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careplan_occurrences_total",
		Help: "Occurrences by activity type and final status",
	}, []string{"activity_type", "status", "reason"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careplan_backup_attempts_total",
		Help: "Backup activity placement attempts",
	}, []string{"accepted"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "careplan_conflicts_total",
		Help: "Resource double bookings found by validation",
	}, []string{"resource_id"})
	outcomes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "careplan_last_run_occurrences",
		Help: "Occurrence counts of the last run by outcome",
	}, []string{"outcome"})
	utilization := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "careplan_resource_utilization_ratio",
		Help: "Booked share of each resource's free time in the last run",
	}, []string{"resource_id"})
	attempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "careplan_placement_attempts",
		Help:    "Number of activities tried before an occurrence reached a final state",
		Buckets: []float64{1, 2, 3, 4, 6, 8},
	})

	s := &PromSink{cfg: cfg, gatherer: g}
	var err error
	if s.occurrences, err = register(reg, occurrences); err != nil {
		return nil, err
	}
	if s.fallbacks, err = register(reg, fallbacks); err != nil {
		return nil, err
	}
	if s.conflicts, err = register(reg, conflicts); err != nil {
		return nil, err
	}
	if s.outcomes, err = register(reg, outcomes); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, utilization); err != nil {
		return nil, err
	}
	if s.attempts, err = register(reg, attempts); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, returning the already registered collector when
// an identical one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates the last-run gauges and flushes to the configured
// textfile and Pushgateway.
func (s *PromSink) RecordRun(sum report.Summary) error {
	s.outcomes.WithLabelValues("placed").Set(float64(sum.Placed))
	s.outcomes.WithLabelValues("backup_used").Set(float64(sum.BackupUsed))
	s.outcomes.WithLabelValues("unscheduled").Set(float64(sum.Unscheduled))
	for _, u := range sum.Utilization {
		s.utilization.WithLabelValues(u.ResourceID).Set(u.Ratio)
	}
	return s.Flush()
}

// RecordOccurrence counts an occurrence in its final state.
func (s *PromSink) RecordOccurrence(ev coremetrics.OccurrenceEvent) error {
	o := ev.Occurrence
	s.occurrences.WithLabelValues(o.Type.String(), o.Status.String(), string(o.Reason)).Inc()
	if ev.Attempts > 0 {
		s.attempts.Observe(float64(ev.Attempts))
	}
	return nil
}

// RecordFallback counts a backup attempt.
func (s *PromSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	s.fallbacks.WithLabelValues(strconv.FormatBool(ev.Accepted)).Inc()
	return nil
}

// RecordConflict counts a conflict against the contested resource.
func (s *PromSink) RecordConflict(ev coremetrics.ConflictEvent) error {
	s.conflicts.WithLabelValues(ev.Conflict.ResourceID).Inc()
	return nil
}

// Flush writes the gathered metrics to the configured outputs.
func (s *PromSink) Flush() error {
	var errs []error
	if s.cfg.Textfile != "" {
		if err := prometheus.WriteToTextfile(s.cfg.Textfile, s.gatherer); err != nil {
			errs = append(errs, fmt.Errorf("prometheus textfile: %w", err))
		}
	}
	if s.cfg.PushURL != "" {
		if err := push.New(s.cfg.PushURL, s.cfg.PushJob).Gatherer(s.gatherer).Push(); err != nil {
			errs = append(errs, fmt.Errorf("prometheus push: %w", err))
		}
	}
	return errors.Join(errs...)
}
