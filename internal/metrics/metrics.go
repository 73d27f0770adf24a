// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from an aggregation run.
//
// It exposes a narrow Backend interface (counters plus duration-style
// observations) behind a global, pluggable backend that defaults to a no-op
// implementation, so the engine can always record without checking whether a
// real backend is configured. Concrete systems (Prometheus Pushgateway,
// Datadog) live in subpackages and are installed via SetBackend; nothing in
// the hot scanning path depends on them. Metrics go out on the side: they can
// never touch standard output, which the consuming harness compares verbatim.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration/latency style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics if the backend needs it.
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordChunk measures one scanned chunk: latency plus success/failure.
func RecordChunk(run string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"run": run, "status": status}
	backend.IncCounter("agg_chunks_total", 1, lbls)
	backend.ObserveHistogram("agg_chunk_duration_seconds", d.Seconds(), lbls)
}

// RecordRecords counts records by kind for a run. Kinds in use:
//   - "aggregated": records folded into partials
//   - "keys": distinct keys in the final result
func RecordRecords(run, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("agg_records_total", float64(delta), Labels{
		"run":  run,
		"kind": kind,
	})
}
