// Package engine orchestrates an aggregation run: plan record-aligned
// ranges, scan them in parallel on a fixed worker pool, and fold the partial
// tables into one final table.
//
// Workers share nothing while scanning. Each owns its read buffer and its key
// table; the only shared object is the input *os.File, which is safe because
// every access goes through ReadAt on disjoint ranges. Partials are collected
// by range index, and the fold runs sequentially in that order, so a run is
// fully deterministic for a given file regardless of worker count.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"measureagg/internal/chunk"
	"measureagg/internal/metrics"
	"measureagg/internal/scan"
	"measureagg/internal/stats"
)

// Options tune a run. The zero value is usable: GOMAXPROCS workers, advisory
// block size, exact fixed-point summation.
type Options struct {
	// Workers caps parallel scanners; <= 0 means GOMAXPROCS. 1 degrades to
	// a sequential whole-file pass.
	Workers int

	// BlockSize overrides the per-worker read-buffer size in bytes; <= 0
	// derives it from the chunk size (chunk.Blocksize).
	BlockSize int

	// Strategy selects the summation strategy for accumulators.
	Strategy stats.SumStrategy

	// RunID tags metrics and verbose diagnostics; empty disables tagging.
	RunID string

	// Verbose enables progress diagnostics on stderr.
	Verbose bool
}

// Engine aggregates measurement files. Construct once, run per file.
type Engine struct {
	opts Options
	pool *Pool
}

// New returns an engine with a pool sized to opts.Workers.
func New(opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{opts: opts, pool: NewPool(opts.Workers)}
}

// Run aggregates the file at path and returns the merged per-key table. An
// empty file yields an empty table and no error. Any I/O or parse failure in
// any worker aborts the whole run.
func (e *Engine) Run(ctx context.Context, path string) (*scan.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open measurements: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat measurements: %w", err)
	}
	size := st.Size()

	// Best-effort kernel hint: workers do large sequential passes.
	advise(f)

	ranges, err := chunk.Plan(f, size, e.pool.Workers())
	if err != nil {
		return nil, fmt.Errorf("plan chunks: %w", err)
	}
	if len(ranges) == 0 {
		return scan.NewTable(e.opts.Strategy), nil
	}

	block := e.opts.BlockSize
	if block <= 0 {
		block = chunk.Blocksize(size / int64(len(ranges)))
	}
	if e.opts.Verbose {
		log.Printf("run %s: %s in %d range(s), %s block, %d worker(s), %s sum",
			e.opts.RunID, humanize.Bytes(uint64(size)), len(ranges),
			humanize.Bytes(uint64(block)), e.pool.Workers(), e.opts.Strategy)
	}

	partials := make([]*scan.Table, len(ranges))
	err = e.pool.Map(ctx, len(ranges), func(ctx context.Context, i int) error {
		begin := time.Now()
		t, serr := scan.Range(f, ranges[i], block, e.opts.Strategy)
		metrics.RecordChunk(e.opts.RunID, serr, time.Since(begin))
		if serr != nil {
			return fmt.Errorf("chunk [%d,%d): %w", ranges[i].Start, ranges[i].End, serr)
		}
		partials[i] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sequential fold in range order. A chunk with zero records merges as
	// an empty table, which is a legitimate result, not an error.
	out := partials[0]
	for _, p := range partials[1:] {
		out.Merge(p)
	}

	metrics.RecordRecords(e.opts.RunID, "aggregated", out.Records())
	metrics.RecordRecords(e.opts.RunID, "keys", int64(out.Len()))
	if e.opts.Verbose {
		log.Printf("run %s: %d records, %d keys", e.opts.RunID, out.Records(), out.Len())
	}
	return out, nil
}
