package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []counterCall
	histograms []histCall
	flushCount int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordChunk_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordChunk("run-a", nil, 2*time.Second)
	RecordChunk("run-a", errors.New("boom"), 500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("got %d counters / %d histograms, want 2/2", len(fb.counters), len(fb.histograms))
	}
	if got := fb.counters[0].labels["status"]; got != "success" {
		t.Fatalf("first chunk status = %q, want success", got)
	}
	if got := fb.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("second chunk status = %q, want failure", got)
	}
	if got := fb.histograms[0].value; got != 2.0 {
		t.Fatalf("first duration = %v, want 2.0", got)
	}
}

func TestRecordRecords_SkipsNonPositive(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRecords("run-a", "aggregated", 0)
	RecordRecords("run-a", "aggregated", -5)
	RecordRecords("run-a", "keys", 413)

	if len(fb.counters) != 1 {
		t.Fatalf("got %d counter calls, want 1", len(fb.counters))
	}
	c := fb.counters[0]
	if c.name != "agg_records_total" || c.delta != 413 || c.labels["kind"] != "keys" {
		t.Fatalf("counter call = %+v", c)
	}
}

// The default backend is a no-op: recording without SetBackend must be safe.
func TestDefaultBackendIsNop(t *testing.T) {
	RecordChunk("run-x", nil, time.Millisecond)
	RecordRecords("run-x", "aggregated", 1)
	if err := Flush(); err != nil {
		t.Fatalf("Flush on nop backend: %v", err)
	}
}

func TestSetBackendNilKeepsExisting(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	SetBackend(nil)
	RecordRecords("run-y", "keys", 1)
	if len(fb.counters) != 1 {
		t.Fatal("nil SetBackend replaced the installed backend")
	}
}
