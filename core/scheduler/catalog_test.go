package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/slot"
)

func malformedIDs(err error) []string {
	var ids []string
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var mie *MalformedInputError
		if errors.As(err, &mie) {
			ids = append(ids, mie.ActivityID)
		}
	}
	walk(err)
	return ids
}

func TestValidateCatalog(t *testing.T) {
	idx := newIndex(t,
		resource("client", model.ResourceClient, on(span(7), hours(8, 12))),
		resource("mat", model.ResourceEquipment, on(span(7), hours(8, 12))),
	)
	client := ref("client", model.ResourceClient)
	valid := model.Activity{ID: "yoga", Type: model.ActivityFitness, Frequency: "Daily", Minutes: 30,
		Resources: []model.ResourceRef{client, ref("mat", model.ResourceEquipment)}}

	freqs, err := ValidateCatalog([]model.Activity{valid}, idx, slot.DefaultTable())
	require.NoError(t, err)
	assert.Equal(t, Frequency{1, 1}, freqs["yoga"])

	cases := []struct {
		name   string
		mutate func(a *model.Activity)
		want   string
	}{
		{"frequency", func(a *model.Activity) { a.Frequency = "sometimes" }, "unparseable frequency"},
		{"duration", func(a *model.Activity) { a.Minutes = 0 }, "duration must be positive"},
		{"long duration", func(a *model.Activity) { a.Minutes = 25 * 60 }, "exceeds one day"},
		{"no resources", func(a *model.Activity) { a.Resources = nil }, "no required resources"},
		{"missing resource", func(a *model.Activity) {
			a.Resources = append(a.Resources, ref("trainer", model.ResourceSpecialist))
		}, "no availability for Specialist trainer"},
		{"type mismatch", func(a *model.Activity) { a.Resources[1].Type = model.ResourceSpecialist }, "not a Specialist"},
		{"duplicate resource", func(a *model.Activity) { a.Resources = []model.ResourceRef{client, client} }, "listed twice"},
		{"band", func(a *model.Activity) { a.Bands = []string{"brunch"} }, "unknown band"},
		{"unknown backup", func(a *model.Activity) { a.Backups = []string{"swim"} }, "unknown backup swim"},
		{"self backup", func(a *model.Activity) { a.Backups = []string{"yoga"} }, "lists itself"},
		{"missing type", func(a *model.Activity) { a.Type = 0 }, "activity type"},
		{"unknown type", func(a *model.Activity) { a.Type = 42 }, "activity type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := valid
			a.Resources = append([]model.ResourceRef(nil), valid.Resources...)
			tc.mutate(&a)
			freqs, err := ValidateCatalog([]model.Activity{a}, idx, slot.DefaultTable())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.NotContains(t, freqs, "yoga")
			assert.Equal(t, []string{"yoga"}, malformedIDs(err))
		})
	}
}

func TestValidateCatalogReportsEveryActivity(t *testing.T) {
	idx := newIndex(t, resource("client", model.ResourceClient, on(span(7), hours(8, 12))))
	client := []model.ResourceRef{ref("client", model.ResourceClient)}
	activities := []model.Activity{
		{ID: "a", Type: model.ActivityFitness, Frequency: "daily", Minutes: 30, Resources: client},
		{ID: "a", Type: model.ActivityFitness, Frequency: "daily", Minutes: 30, Resources: client},
		{ID: "b", Type: model.ActivityFitness, Frequency: "never", Minutes: 30, Resources: client},
		{ID: "c", Type: model.ActivityFitness, Frequency: "daily", Minutes: 30},
	}
	freqs, err := ValidateCatalog(activities, idx, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, malformedIDs(err))
	assert.Empty(t, freqs)
}

func TestValidateCatalogKeepsValidActivities(t *testing.T) {
	idx := newIndex(t, resource("client", model.ResourceClient, on(span(7), hours(8, 12))))
	client := []model.ResourceRef{ref("client", model.ResourceClient)}
	activities := []model.Activity{
		{ID: "walk", Type: model.ActivityFitness, Frequency: "daily", Minutes: 30, Resources: client},
		{ID: "nap", Frequency: "daily", Minutes: 30, Resources: client},
		{ID: "swim", Type: model.ActivityFitness, Frequency: "weekly", Minutes: 30, Resources: client, Backups: []string{"jog"}},
		{ID: "jog", Type: model.ActivityFitness, Frequency: "as needed", Minutes: 30, Resources: client, Backups: []string{"nap"}},
	}
	freqs, err := ValidateCatalog(activities, idx, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"nap", "swim", "jog"}, malformedIDs(err))
	assert.Equal(t, map[string]Frequency{"walk": {1, 1}}, freqs)
}

func TestValidateCatalogRejectsBackupCycle(t *testing.T) {
	idx := newIndex(t, resource("client", model.ResourceClient, on(span(7), hours(8, 12))))
	client := []model.ResourceRef{ref("client", model.ResourceClient)}
	activities := []model.Activity{
		{ID: "swim", Type: model.ActivityFitness, Frequency: "weekly", Minutes: 30, Resources: client, Backups: []string{"walk"}},
		{ID: "walk", Type: model.ActivityFitness, Frequency: "as needed", Minutes: 30, Resources: client, Backups: []string{"bike"}},
		{ID: "bike", Type: model.ActivityFitness, Frequency: "as needed", Minutes: 30, Resources: client, Backups: []string{"walk"}},
	}
	freqs, err := ValidateCatalog(activities, idx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup cycle walk -> bike -> walk")
	assert.Contains(t, err.Error(), "backup walk rejected")
	assert.Empty(t, freqs)

	activities[2].Backups = nil
	freqs, err = ValidateCatalog(activities, idx, nil)
	assert.NoError(t, err)
	assert.Len(t, freqs, 3)
}
