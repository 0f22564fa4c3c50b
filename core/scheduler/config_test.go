package scheduler

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/careplan/core/model"
	"github.com/kilianp07/careplan/core/slot"
)

func TestDecodeConfigYAML(t *testing.T) {
	data := `horizon_days: 21
granularity_minutes: 30
start: "2025-01-06"
end: "2025-01-19"
bands:
  dawn: {start: "05:00", end: "07:00"}
preferences:
  fitness: [dawn, morning]
rules:
  - type: nutrition
    keyword: snack
    bands: [afternoon]
`
	cfg, err := DecodeConfig(bytes.NewBufferString(data), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 21, cfg.HorizonDays)
	assert.Equal(t, 30, cfg.GranularityMinutes)

	table, err := cfg.Table()
	require.NoError(t, err)
	bands, err := table.BandsFor(model.Activity{ID: "run", Type: model.ActivityFitness})
	require.NoError(t, err)
	require.Len(t, bands, 3)
	assert.Equal(t, "dawn", bands[0].Name)
	assert.Equal(t, model.Interval{Start: 5 * 60, End: 7 * 60}, bands[0].Window)
	assert.Equal(t, slot.BandAnytime, bands[2].Name)

	bands, err = table.BandsFor(model.Activity{ID: "s", Name: "Afternoon snack", Type: model.ActivityNutrition})
	require.NoError(t, err)
	assert.Equal(t, "afternoon", bands[0].Name)
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := DecodeConfig(bytes.NewBufferString(`{}`), "json")
	require.NoError(t, err)
	assert.Equal(t, slot.DefaultHorizonDays, cfg.HorizonDays)
	assert.Equal(t, 15, cfg.GranularityMinutes)
	assert.Equal(t, slot.DefaultHorizonDays, cfg.Options().HorizonDays)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"horizon_days":7,"disable_anytime":true}`), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.HorizonDays)
	assert.True(t, cfg.DisableAnytime)

	_, err = LoadConfig(path + ".txt")
	assert.Error(t, err)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon_days: 10\ngranularity_minutes: 5\n"), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.HorizonDays)
	assert.Equal(t, 5, cfg.GranularityMinutes)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeConfig(bytes.NewBufferString("{}"), "toml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "cfg.txt")
	require.NoError(t, os.WriteFile(path, []byte("bad"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	_, err = DecodeConfig(bytes.NewBufferString(":"), "yaml")
	assert.Error(t, err)

	for _, doc := range []string{
		`{"horizon_days":-1}`,
		`{"granularity_minutes":90}`,
		`{"start":"2025-02-01","end":"2025-01-01"}`,
		`{"start":"01/02/2025"}`,
		`{"preferences":{"fitness":["brunch"]}}`,
		`{"preferences":{"gardening":["morning"]}}`,
		`{"bands":{"late":{"start":"23:00","end":"22:00"}}}`,
		`{"rules":[{"type":"fitness","keyword":"","bands":["morning"]}]}`,
	} {
		_, err := DecodeConfig(bytes.NewBufferString(doc), "json")
		assert.Error(t, err, doc)
	}
}
