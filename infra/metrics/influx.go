package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/careplan/core/metrics"
	"github.com/kilianp07/careplan/core/report"
	"github.com/kilianp07/careplan/infra/logger"
)

// InfluxConfig holds the InfluxDB connection settings.
type InfluxConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Org     string        `json:"org"`
	Bucket  string        `json:"bucket"`
	Timeout time.Duration `json:"timeout"`
}

// InfluxSink writes scheduling events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  cfg.Timeout,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), sink.timeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func (s *InfluxSink) writePoint(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes the run summary and one point per resource utilisation.
func (s *InfluxSink) RecordRun(sum report.Summary) error {
	p := write.NewPointWithMeasurement("schedule_run").
		AddTag("run_id", sum.RunID).
		AddField("backup_used", sum.BackupUsed).
		AddField("conflicts", sum.Conflicts).
		AddField("mean_utilization", round3(sum.MeanUtilization)).
		AddField("occurrences", sum.Occurrences).
		AddField("placed", sum.Placed).
		AddField("unscheduled", sum.Unscheduled).
		SetTime(sum.GeneratedAt)
	if err := s.writePoint(p); err != nil {
		return err
	}
	for _, u := range sum.Utilization {
		p := write.NewPointWithMeasurement("resource_utilization").
			AddTag("resource_id", u.ResourceID).
			AddTag("run_id", sum.RunID).
			AddField("booked_min", int(u.Booked/time.Minute)).
			AddField("max_daily_ratio", round3(u.MaxDailyRatio)).
			AddField("ratio", round3(u.Ratio)).
			SetTime(sum.GeneratedAt)
		if err := s.writePoint(p); err != nil {
			return err
		}
	}
	return nil
}

// RecordOccurrence writes the final state of an occurrence. Booked
// occurrences are stamped with their start instant.
func (s *InfluxSink) RecordOccurrence(ev coremetrics.OccurrenceEvent) error {
	o := ev.Occurrence
	ts := ev.Time
	if o.Status.Booked() {
		ts = o.StartTime()
	}
	p := write.NewPointWithMeasurement("occurrence").
		AddTag("activity_id", o.ActivityID).
		AddTag("activity_type", o.Type.String()).
		AddTag("run_id", ev.RunID).
		AddTag("status", o.Status.String())
	if o.Reason != "" {
		p = p.AddTag("reason", string(o.Reason))
	}
	p = p.AddField("attempts", ev.Attempts).
		AddField("duration_min", o.Minutes).
		AddField("seq", o.Seq).
		SetTime(ts)
	return s.writePoint(p)
}

// RecordFallback writes a backup attempt.
func (s *InfluxSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	p := write.NewPointWithMeasurement("fallback_attempt").
		AddTag("activity_id", ev.ActivityID).
		AddTag("backup_id", ev.BackupID).
		AddTag("run_id", ev.RunID).
		AddField("accepted", ev.Accepted).
		AddField("reason", string(ev.Reason)).
		AddField("seq", ev.Seq).
		SetTime(ev.Time)
	return s.writePoint(p)
}

// RecordConflict writes a validation conflict.
func (s *InfluxSink) RecordConflict(ev coremetrics.ConflictEvent) error {
	c := ev.Conflict
	p := write.NewPointWithMeasurement("schedule_conflict").
		AddTag("resource_id", c.ResourceID).
		AddTag("run_id", ev.RunID).
		AddField("occurrence_a", c.OccurrenceA.Key()).
		AddField("occurrence_b", c.OccurrenceB.Key()).
		SetTime(ev.Time)
	return s.writePoint(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
