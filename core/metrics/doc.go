// Package metrics defines the sinks that observe scheduling runs. A sink
// must record run summaries; it may additionally implement
// OccurrenceRecorder, FallbackRecorder or ConflictRecorder to receive finer
// grained events. Concrete sinks register themselves through
// RegisterMetricsSink and are built from configuration with NewMetricsSink,
// which wraps several sinks in a MultiSink.
package metrics
