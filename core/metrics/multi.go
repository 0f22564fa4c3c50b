package metrics

import (
	"errors"
	"io"

	"github.com/kilianp07/careplan/core/report"
)

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the summary to every sink. All sinks are called even
// when one fails; the errors are joined.
func (m *MultiSink) RecordRun(sum report.Summary) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(sum); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordOccurrence forwards occurrence events to sinks that support them.
func (m *MultiSink) RecordOccurrence(ev OccurrenceEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(OccurrenceRecorder); ok {
			if err := rec.RecordOccurrence(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordFallback forwards backup attempts.
func (m *MultiSink) RecordFallback(ev FallbackEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(FallbackRecorder); ok {
			if err := rec.RecordFallback(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordConflict forwards conflict events.
func (m *MultiSink) RecordConflict(ev ConflictEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ConflictRecorder); ok {
			if err := rec.RecordConflict(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
