package chunk

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

// writeFile materializes content in a temp dir and opens it read-only.
func writeFile(t *testing.T, content []byte) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "measurements.txt")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

// checkPartition verifies the planner invariants: ranges partition [0, size)
// exactly, every Start is 0 or follows a '\n', and every End-1 is a '\n' or
// End equals size.
func checkPartition(t *testing.T, content []byte, ranges []Range) {
	t.Helper()
	size := int64(len(content))

	var pos int64
	for i, rg := range ranges {
		if rg.Start != pos {
			t.Fatalf("range %d starts at %d, want %d (gap or overlap)", i, rg.Start, pos)
		}
		if rg.End <= rg.Start {
			t.Fatalf("range %d is empty or inverted: %+v", i, rg)
		}
		if rg.Start != 0 && content[rg.Start-1] != '\n' {
			t.Fatalf("range %d start %d does not follow a line terminator", i, rg.Start)
		}
		if rg.End != size && content[rg.End-1] != '\n' {
			t.Fatalf("range %d end %d is not a line terminator position", i, rg.End)
		}
		pos = rg.End
	}
	if len(ranges) > 0 && pos != size {
		t.Fatalf("ranges cover [0, %d), want [0, %d)", pos, size)
	}
}

func TestPlanEmptyFile(t *testing.T) {
	t.Parallel()

	f := writeFile(t, nil)
	ranges, err := Plan(f, 0, 4)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(ranges) != 0 {
		t.Fatalf("Plan on empty file = %v, want no ranges", ranges)
	}
}

func TestPlanSingleWorker(t *testing.T) {
	t.Parallel()

	content := []byte("Hamburg;12.0\nBilbao;8.5\nHamburg;7.0\n")
	f := writeFile(t, content)

	ranges, err := Plan(f, int64(len(content)), 1)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(ranges) != 1 || ranges[0].Start != 0 || ranges[0].End != int64(len(content)) {
		t.Fatalf("Plan W=1 = %v, want one whole-file range", ranges)
	}
}

func TestPlanInvariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 3))
	var buf bytes.Buffer
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&buf, "station-%d;%d.%d\n", rng.IntN(50), rng.IntN(100)-50, rng.IntN(10))
	}
	content := buf.Bytes()
	f := writeFile(t, content)

	for _, workers := range []int{1, 2, 3, 4, 7, 8, 16, 100} {
		ranges, err := Plan(f, int64(len(content)), workers)
		if err != nil {
			t.Fatalf("Plan(W=%d): %v", workers, err)
		}
		if len(ranges) > workers {
			t.Fatalf("Plan(W=%d) produced %d ranges", workers, len(ranges))
		}
		checkPartition(t, content, ranges)
	}
}

// A worker count far above the line count forces boundary collisions; the
// planner must advance to the next terminator rather than emit empty ranges.
func TestPlanMoreWorkersThanLines(t *testing.T) {
	t.Parallel()

	content := []byte("aa;1.0\nbb;2.0\ncc;3.0\n")
	f := writeFile(t, content)

	ranges, err := Plan(f, int64(len(content)), 64)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	checkPartition(t, content, ranges)
	if len(ranges) > 3 {
		t.Fatalf("got %d ranges for 3 lines", len(ranges))
	}
}

// One enormous line among short ones exercises the backward scan past the
// tentative boundary.
func TestPlanLongLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.WriteString("short;1.0\n")
	buf.Write(bytes.Repeat([]byte{'x'}, 200<<10))
	buf.WriteString(";2.0\n")
	buf.WriteString("tail;3.0\n")
	content := buf.Bytes()
	f := writeFile(t, content)

	for _, workers := range []int{2, 4, 8} {
		ranges, err := Plan(f, int64(len(content)), workers)
		if err != nil {
			t.Fatalf("Plan(W=%d): %v", workers, err)
		}
		checkPartition(t, content, ranges)
	}
}

func TestPlanNoTrailingNewline(t *testing.T) {
	t.Parallel()

	content := []byte("Hamburg;12.0\nBilbao;8.5")
	f := writeFile(t, content)

	ranges, err := Plan(f, int64(len(content)), 2)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	checkPartition(t, content, ranges)
	if got := ranges[len(ranges)-1].End; got != int64(len(content)) {
		t.Fatalf("final range ends at %d, want file size %d", got, len(content))
	}
}

func TestBlocksize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chunk int64
		want  int
	}{
		{0, mib},                    // floor
		{50 * mib, mib},             // 0.5 MiB rounds down, floor applies
		{300 * mib, 3 * mib},        // 3 MiB exactly
		{350 * mib, 3 * mib},        // floored to whole MiB
		{100 * 64 * mib, 64 * mib},  // ceiling
		{1000 * 64 * mib, 64 * mib}, // clamped at ceiling
	}
	for _, tc := range tests {
		if got := Blocksize(tc.chunk); got != tc.want {
			t.Errorf("Blocksize(%d) = %d, want %d", tc.chunk, got, tc.want)
		}
	}
}
