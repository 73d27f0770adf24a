// Package chunk plans the record-aligned byte ranges that the worker pool
// scans in parallel, and derives the advisory read-buffer size for a range.
package chunk

import (
	"bytes"
	"fmt"
	"io"
)

// alignWindow is the scratch read used while snapping a tentative boundary to
// a line terminator. 64 KiB comfortably exceeds any sane record length.
const alignWindow = 64 << 10

const mib = 1 << 20

// Range is a half-open byte interval [Start, End) of the input file. Start is
// 0 or immediately follows a '\n'; End-1 is a '\n' position or End equals the
// file size. Ranges produced by Plan partition the file exactly.
type Range struct {
	Start int64
	End   int64
}

// Len returns the range length in bytes.
func (r Range) Len() int64 { return r.End - r.Start }

// Plan splits a file of the given size into at most workers record-aligned
// ranges. Each tentative boundary size*i/workers is moved backward to the
// nearest line terminator; if that lands on the previous range's start, the
// boundary advances forward to the next terminator instead, so every range is
// non-empty and the planner always makes progress. The last range always ends
// at size. A zero-size file yields no ranges.
func Plan(r io.ReaderAt, size int64, workers int) ([]Range, error) {
	if workers < 1 {
		workers = 1
	}
	if size == 0 {
		return nil, nil
	}

	ranges := make([]Range, 0, workers)
	start := int64(0)
	for i := 1; i <= workers && start < size; i++ {
		end := size * int64(i) / int64(workers)
		if i == workers || end >= size {
			ranges = append(ranges, Range{Start: start, End: size})
			start = size
			break
		}

		end, err := alignBackward(r, end)
		if err != nil {
			return nil, err
		}
		if end <= start {
			// Tentative boundary snapped onto this range's start; take
			// the next terminator so the range holds at least one record.
			end, err = alignForward(r, size, start)
			if err != nil {
				return nil, err
			}
		}
		if end >= size {
			ranges = append(ranges, Range{Start: start, End: size})
			start = size
			break
		}
		ranges = append(ranges, Range{Start: start, End: end})
		start = end
	}
	return ranges, nil
}

// alignBackward moves pos back to just after the nearest preceding '\n'.
func alignBackward(r io.ReaderAt, pos int64) (int64, error) {
	buf := make([]byte, alignWindow)
	for pos > 0 {
		lo := pos - int64(len(buf))
		if lo < 0 {
			lo = 0
		}
		n, err := r.ReadAt(buf[:pos-lo], lo)
		if err != nil && err != io.EOF {
			return 0, fmt.Errorf("align boundary at %d: %w", pos, err)
		}
		if n == 0 {
			break
		}
		if i := bytes.LastIndexByte(buf[:n], '\n'); i >= 0 {
			return lo + int64(i) + 1, nil
		}
		pos = lo
	}
	return 0, nil
}

// alignForward moves pos past the next '\n', or to size when the final line
// has no terminator.
func alignForward(r io.ReaderAt, size, pos int64) (int64, error) {
	buf := make([]byte, alignWindow)
	for pos < size {
		n, err := r.ReadAt(buf, pos)
		if n > 0 {
			if i := bytes.IndexByte(buf[:n], '\n'); i >= 0 {
				return pos + int64(i) + 1, nil
			}
			pos += int64(n)
		}
		if err == io.EOF {
			return size, nil
		}
		if err != nil {
			return 0, fmt.Errorf("align boundary at %d: %w", pos, err)
		}
	}
	return size, nil
}

// Blocksize derives a read-buffer size for a chunk of the given length:
// roughly 1% of the chunk, clamped to [1 MiB, 64 MiB] and floored to a whole
// MiB. Purely a throughput knob; it never affects output.
func Blocksize(chunkSize int64) int {
	bs := chunkSize / 100
	if bs > 64*mib {
		bs = 64 * mib
	}
	bs = bs / mib * mib
	if bs < mib {
		bs = mib
	}
	return int(bs)
}
