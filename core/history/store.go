// Package history persists finished scheduling runs so past schedules can be
// listed and re-validated. Only completed runs are stored; the engine keeps
// no state between runs.
package history

import (
	"context"
	"time"

	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/report"
)

// Record captures one finished run.
type Record struct {
	RunID     string           `json:"run_id"`
	Timestamp time.Time        `json:"timestamp"`
	Summary   report.Summary   `json:"summary"`
	Schedule  model.Schedule   `json:"schedule"`
	Conflicts []model.Conflict `json:"conflicts,omitempty"`
}

// Involves reports whether the run demanded occurrences of the activity,
// directly or as a used backup.
func (r Record) Involves(activityID string) bool {
	for _, o := range r.Schedule.Occurrences {
		if o.ActivityID == activityID || o.BackupActivityID == activityID {
			return true
		}
	}
	return false
}

// Query defines filters for retrieving records. Zero fields match everything.
type Query struct {
	Start      time.Time
	End        time.Time
	RunID      string
	ActivityID string
	Limit      int
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.ActivityID != "" && !r.Involves(q.ActivityID) {
		return false
	}
	return true
}

func (q Query) limit(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists Records and supports querying. Query returns records in
// ascending timestamp order; with a Limit only the most recent are kept.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
