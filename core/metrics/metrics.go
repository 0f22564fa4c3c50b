package metrics

import (
	"time"

	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/report"
)

// MetricsSink records the outcome of scheduling runs.
type MetricsSink interface {
	RecordRun(sum report.Summary) error
}

// OccurrenceEvent captures the final state of one occurrence.
type OccurrenceEvent struct {
	RunID      string
	Occurrence model.ScheduledOccurrence
	Attempts   int
	Time       time.Time
}

// OccurrenceRecorder records per-occurrence outcomes.
type OccurrenceRecorder interface {
	RecordOccurrence(ev OccurrenceEvent) error
}

// FallbackEvent records one attempt to place a backup activity.
type FallbackEvent struct {
	RunID      string
	ActivityID string
	Seq        int
	BackupID   string
	Accepted   bool
	Reason     model.Reason
	Time       time.Time
}

// FallbackRecorder records backup attempts.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// ConflictEvent reports a double booking found by validation.
type ConflictEvent struct {
	RunID    string
	Conflict model.Conflict
	Time     time.Time
}

// ConflictRecorder records validation conflicts.
type ConflictRecorder interface {
	RecordConflict(ev ConflictEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(report.Summary) error         { return nil }
func (NopSink) RecordOccurrence(OccurrenceEvent) error { return nil }
func (NopSink) RecordFallback(FallbackEvent) error     { return nil }
func (NopSink) RecordConflict(ConflictEvent) error     { return nil }
