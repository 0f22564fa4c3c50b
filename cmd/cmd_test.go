package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/pkg/export"
)

const legacyPlan = `[{"name": "Walk", "type": "Fitness routine / exercise", "frequency": "Daily",
  "facilitator": "Self-administered", "priority": 1, "duration_minutes": 30}]`

const legacyAvailability = `{
  "client_schedule": {"2023-01-01": {"available": true, "available_hours": ["08:00"]}},
  "equipment_availability": {},
  "specialist_availability": {},
  "allied_health_availability": {},
  "date_range": {"start_date": "2023-01-01", "end_date": "2023-01-01"}
}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConvertScheduleValidate(t *testing.T) {
	dir := t.TempDir()
	plan := filepath.Join(dir, "action_plan.json")
	avail := filepath.Join(dir, "availability_data.json")
	require.NoError(t, os.WriteFile(plan, []byte(legacyPlan), 0o644))
	require.NoError(t, os.WriteFile(avail, []byte(legacyAvailability), 0o644))

	doc := filepath.Join(dir, "input.yaml")
	_, err := execute(t, "convert", "--plan", plan, "--availability", avail, "--out", doc)
	require.NoError(t, err)
	require.FileExists(t, doc)

	sched := filepath.Join(dir, "schedule.json")
	out, err := execute(t, "schedule", "--input", doc, "--start", "2023-01-01", "--end", "2023-01-01",
		"--out", sched, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "1 placed")

	f, err := os.Open(sched)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	got, err := export.ReadJSON(f)
	require.NoError(t, err)
	require.Len(t, got.Occurrences, 1)
	occ := got.Occurrences[0]
	assert.Equal(t, model.StatusPlaced, occ.Status)
	assert.Equal(t, model.Clock(8*60), occ.Start)

	out, err = execute(t, "validate", sched)
	require.NoError(t, err)
	assert.Contains(t, out, "no conflicts")
}

func TestValidateArgs(t *testing.T) {
	_, err := execute(t, "validate")
	assert.Error(t, err)
}

func TestWriteDocumentFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDocument(&buf, "-", "csv", export.Document{}))
	assert.Contains(t, buf.String(), "activity_id")
	assert.Error(t, writeDocument(&buf, "-", "xml", export.Document{}))
}
