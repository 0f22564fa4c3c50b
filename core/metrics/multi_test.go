package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/careplan/core/report"
)

type recordSink struct {
	runs, occurrences, fallbacks int
	err                          error
}

func (r *recordSink) RecordRun(report.Summary) error {
	r.runs++
	return r.err
}

func (r *recordSink) RecordOccurrence(OccurrenceEvent) error {
	r.occurrences++
	return nil
}

func (r *recordSink) RecordFallback(FallbackEvent) error {
	r.fallbacks++
	return nil
}

type runOnly struct{ runs int }

func (r *runOnly) RecordRun(report.Summary) error {
	r.runs++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &runOnly{}
	m := NewMultiSink(s1, s2)
	assert.NoError(t, m.RecordRun(report.Summary{}))
	assert.NoError(t, m.RecordOccurrence(OccurrenceEvent{}))
	assert.NoError(t, m.RecordFallback(FallbackEvent{}))
	assert.NoError(t, m.RecordConflict(ConflictEvent{}))
	assert.Equal(t, 1, s1.runs)
	assert.Equal(t, 1, s1.occurrences)
	assert.Equal(t, 1, s1.fallbacks)
	assert.Equal(t, 1, s2.runs)
}

func TestMultiSink_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordRun(report.Summary{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s2.runs)
}

type closingSink struct {
	runOnly
	closed bool
}

func (c *closingSink) Close() error {
	c.closed = true
	return nil
}

func TestMultiSink_Close(t *testing.T) {
	c := &closingSink{}
	m := NewMultiSink(&runOnly{}, c)
	assert.NoError(t, m.Close())
	assert.True(t, c.closed)
}
