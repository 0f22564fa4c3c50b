package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/careplan/core/model"
)

var base = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newRecord(runID string, ts time.Time, activities ...string) Record {
	rec := Record{RunID: runID, Timestamp: ts}
	for i, id := range activities {
		rec.Schedule.Occurrences = append(rec.Schedule.Occurrences, model.ScheduledOccurrence{
			ActivityID: id,
			Type:       model.ActivityFitness,
			Seq:        i,
			Date:       base,
			Minutes:    30,
			Status:     model.StatusPlaced,
		})
	}
	rec.Summary.RunID = runID
	rec.Summary.Occurrences = len(activities)
	return rec
}

func TestRecordInvolves(t *testing.T) {
	rec := newRecord("r1", base, "walk")
	rec.Schedule.Occurrences[0].BackupActivityID = "swim"
	assert.True(t, rec.Involves("walk"))
	assert.True(t, rec.Involves("swim"))
	assert.False(t, rec.Involves("yoga"))
}

func TestQueryMatch(t *testing.T) {
	rec := newRecord("r1", base, "walk")
	cases := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty", Query{}, true},
		{"before start", Query{Start: base.Add(time.Minute)}, false},
		{"after end", Query{End: base.Add(-time.Minute)}, false},
		{"within", Query{Start: base.Add(-time.Hour), End: base.Add(time.Hour)}, true},
		{"run id", Query{RunID: "r1"}, true},
		{"other run", Query{RunID: "r2"}, false},
		{"activity", Query{ActivityID: "walk"}, true},
		{"other activity", Query{ActivityID: "yoga"}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.q.Match(rec), c.name)
	}
}

func TestQueryLimitKeepsMostRecent(t *testing.T) {
	recs := []Record{newRecord("a", base), newRecord("b", base.Add(time.Hour)), newRecord("c", base.Add(2*time.Hour))}
	out := Query{Limit: 2}.limit(recs)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].RunID)
	assert.Equal(t, "c", out[1].RunID)
	assert.Len(t, Query{}.limit(recs), 3)
}

func TestNopStore(t *testing.T) {
	var s Store = NopStore{}
	require.NoError(t, s.Append(context.Background(), newRecord("r", base)))
	out, err := s.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, s.Close())
}
