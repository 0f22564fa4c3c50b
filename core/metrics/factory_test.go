package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/careplan/core/factory"
	metrics "github.com/kilianp07/careplan/core/metrics"
	_ "github.com/kilianp07/careplan/infra/metrics"
)

func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.Error(t, err)

	assert.Contains(t, metrics.SinkTypes(), "prometheus")
	assert.Contains(t, metrics.SinkTypes(), "influx")
}

func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "expected MultiSink, got %T", s)
	assert.Len(t, m.Sinks, 2)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, metrics.Config{Sinks: []factory.ModuleConfig{{Type: "nop"}}}.Validate())
	err := metrics.Config{Sinks: []factory.ModuleConfig{{Type: "nop"}, {Type: "statsd"}}}.Validate()
	assert.ErrorContains(t, err, `sink 1: unknown type "statsd"`)
}
