package metrics

import (
	"fmt"

	"github.com/kilianp07/careplan/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink makes a sink type available to configuration. It fails
// when the name is already taken.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// SinkTypes lists the registered sink names.
func SinkTypes() []string { return sinkRegistry.Names() }

// NewMetricsSink builds the configured sinks. No sink yields a NopSink and
// several are fanned out through a MultiSink. When one sink fails to build,
// those already built are closed.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		s, err := sinkRegistry.Create(cfgs[0])
		if err != nil {
			return nil, fmt.Errorf("metrics sink %s: %w", cfgs[0].Type, err)
		}
		return s, nil
	}
	multi := NewMultiSink()
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			_ = multi.Close()
			return nil, fmt.Errorf("metrics sink %d (%s): %w", i, c.Type, err)
		}
		multi.Sinks = append(multi.Sinks, s)
	}
	return multi, nil
}
