package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/careplan/core/availability"
	"github.com/kilianp07/careplan/core/model"
)

var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func hours(from, to int) model.Interval {
	return model.Interval{Start: model.Clock(from * 60), End: model.Clock(to * 60)}
}

func days(n int, ivs ...model.Interval) map[string][]model.Interval {
	out := make(map[string][]model.Interval, n)
	for i := 0; i < n; i++ {
		out[monday.AddDate(0, 0, i).Format(model.DateLayout)] = ivs
	}
	return out
}

func fitness(minutes int) model.Activity {
	return model.Activity{
		ID: "strength", Name: "Strength training", Type: model.ActivityFitness,
		Minutes: minutes, Priority: 1,
		Resources: []model.ResourceRef{{ID: "client", Type: model.ResourceClient}},
	}
}

func TestBandsForUsesTypeRulesAndOverride(t *testing.T) {
	tbl := DefaultTable()

	got, err := tbl.BandsFor(fitness(30))
	require.NoError(t, err)
	assert.Equal(t, []string{BandMorning, BandEvening, BandAnytime}, names(got))

	sleep := model.Activity{ID: "m", Name: "Sleep aid", Type: model.ActivityMedication}
	got, err = tbl.BandsFor(sleep)
	require.NoError(t, err)
	assert.Equal(t, []string{BandLateEvening, BandEvening, BandAnytime}, names(got))

	lunch := model.Activity{ID: "n", Name: "Low-sodium lunch", Type: model.ActivityNutrition}
	got, err = tbl.BandsFor(lunch)
	require.NoError(t, err)
	assert.Equal(t, []string{BandMidday, BandAfternoon, BandAnytime}, names(got))

	override := fitness(30)
	override.Bands = []string{BandEvening}
	got, err = tbl.BandsFor(override)
	require.NoError(t, err)
	assert.Equal(t, []string{BandEvening, BandAnytime}, names(got))

	override.Bands = []string{"midnight"}
	_, err = tbl.BandsFor(override)
	assert.Error(t, err)
}

func TestTableWithoutAnytime(t *testing.T) {
	tbl, err := NewTable(DefaultBands(), DefaultPreferences(), nil, false)
	require.NoError(t, err)
	got, err := tbl.BandsFor(model.Activity{Type: model.ActivityConsultation})
	require.NoError(t, err)
	assert.Equal(t, []string{BandBusiness}, names(got))

	// unknown types still get a band to search in
	got, err = tbl.BandsFor(model.Activity{Type: model.ActivityType(42)})
	require.NoError(t, err)
	assert.Equal(t, []string{BandAnytime}, names(got))

	_, err = NewTable(DefaultBands(), map[model.ActivityType][]string{model.ActivityFitness: {"nope"}}, nil, false)
	assert.Error(t, err)
	_, err = NewTable(DefaultBands(), nil, []Rule{{Type: model.ActivityFitness, Bands: []string{BandMorning}}}, false)
	assert.Error(t, err)
}

func TestSequenceOrdersByBandThenDay(t *testing.T) {
	idx, err := availability.New([]model.ResourceAvailability{
		{ID: "client", Type: model.ResourceClient, Days: days(3, hours(7, 9), hours(18, 20))},
	})
	require.NoError(t, err)
	f := NewFinder(idx, DefaultTable(), Options{HorizonDays: 3})

	seq, err := f.Search(fitness(60), monday)
	require.NoError(t, err)

	var got []string
	for c, ok := seq.Next(); ok; c, ok = seq.Next() {
		got = append(got, c.Band+" "+c.Day.Format("Mon")+" "+c.Start.String())
	}
	assert.Equal(t, []string{
		"morning Mon 07:00", "morning Tue 07:00", "morning Wed 07:00",
		"evening Mon 18:00", "evening Tue 18:00", "evening Wed 18:00",
		"anytime Mon 07:00", "anytime Mon 18:00", "anytime Tue 07:00",
		"anytime Tue 18:00", "anytime Wed 07:00", "anytime Wed 18:00",
	}, got)

	seq.Reset()
	c, ok := seq.Next()
	require.True(t, ok)
	assert.Equal(t, monday, c.Day)
	assert.Equal(t, hours(7, 9), c.Free)
}

func TestSequenceSeesReservations(t *testing.T) {
	idx, err := availability.New([]model.ResourceAvailability{
		{ID: "client", Type: model.ResourceClient, Days: days(1, hours(7, 9))},
	})
	require.NoError(t, err)
	f := NewFinder(idx, DefaultTable(), Options{})
	seq, err := f.Search(fitness(60), monday)
	require.NoError(t, err)

	c, ok := seq.Next()
	require.True(t, ok)
	require.NoError(t, idx.Reserve([]string{"client"}, c.Day, c.Window(time.Hour)))

	seq.Reset()
	c, ok = seq.Next()
	require.True(t, ok)
	assert.Equal(t, "08:00", c.Start.String())
	require.NoError(t, idx.Reserve([]string{"client"}, c.Day, c.Window(time.Hour)))

	seq.Reset()
	_, ok = seq.Next()
	assert.False(t, ok)
	assert.Equal(t, model.ReasonNoFeasibleIntersection, seq.Cause())
}

func TestSequenceAlignsToGranularity(t *testing.T) {
	idx, err := availability.New([]model.ResourceAvailability{
		{ID: "client", Type: model.ResourceClient, Days: map[string][]model.Interval{
			"2025-01-06": {{Start: 7*60 + 5, End: 8*60 + 20}},
		}},
	})
	require.NoError(t, err)
	f := NewFinder(idx, DefaultTable(), Options{Granularity: 15 * time.Minute})
	seq, err := f.Search(fitness(60), monday)
	require.NoError(t, err)
	c, ok := seq.Next()
	require.True(t, ok)
	assert.Equal(t, "07:15", c.Start.String())

	seq, err = f.Search(fitness(70), monday)
	require.NoError(t, err)
	_, ok = seq.Next()
	assert.False(t, ok)
}

func TestSequenceCauseHorizonExceeded(t *testing.T) {
	avail := map[string][]model.Interval{
		monday.AddDate(0, 0, 20).Format(model.DateLayout): {hours(8, 10)},
		monday.Format(model.DateLayout):                   {},
	}
	idx, err := availability.New([]model.ResourceAvailability{
		{ID: "client", Type: model.ResourceClient, Days: avail},
	})
	require.NoError(t, err)
	f := NewFinder(idx, DefaultTable(), Options{HorizonDays: 14})
	seq, err := f.Search(fitness(60), monday)
	require.NoError(t, err)
	_, ok := seq.Next()
	assert.False(t, ok)
	assert.Equal(t, model.ReasonHorizonExceeded, seq.Cause())

	// the far day is reachable once the horizon covers it
	f = NewFinder(idx, DefaultTable(), Options{HorizonDays: 21})
	seq, err = f.Search(fitness(60), monday)
	require.NoError(t, err)
	c, ok := seq.Next()
	require.True(t, ok)
	assert.Equal(t, monday.AddDate(0, 0, 20), c.Day)
}

func TestSearchSkipsDaysBeforeTarget(t *testing.T) {
	idx, err := availability.New([]model.ResourceAvailability{
		{ID: "client", Type: model.ResourceClient, Days: days(3, hours(7, 9))},
	})
	require.NoError(t, err)
	f := NewFinder(idx, nil, Options{})
	assert.Equal(t, DefaultHorizonDays, f.HorizonDays())
	seq, err := f.Search(fitness(60), monday.AddDate(0, 0, 2))
	require.NoError(t, err)
	c, ok := seq.Next()
	require.True(t, ok)
	assert.Equal(t, monday.AddDate(0, 0, 2), c.Day)
}

func names(bs []Band) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name
	}
	return out
}
