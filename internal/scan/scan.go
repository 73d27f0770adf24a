// Package scan reads one planned byte range and parses its records into a
// worker-local key table.
//
// The scanner reads the range in block-sized increments via ReadAt. Complete
// lines inside a block are consumed in place; an incomplete trailing line is
// carried over and prepended to the next read, so a key or value may span any
// number of reads. Because the planner only hands out record-aligned ranges,
// scanning exactly [Start, End) neither drops nor double-counts records at
// range edges.
package scan

import (
	"bytes"
	"fmt"
	"io"

	"measureagg/internal/chunk"
	"measureagg/internal/stats"
)

// DefaultBlockSize is used when the caller passes no advisory block size.
const DefaultBlockSize = 1 << 20

// ParseError reports a malformed record. Offset is the absolute byte offset
// of the offending data in the input file. Malformed input fails the whole
// job; records are never silently skipped.
type ParseError struct {
	Offset int64
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed record at byte %d: %s", e.Offset, e.Msg)
}

// Range scans rg and returns the per-key aggregates for exactly the records
// inside it. blockSize caps each read; values <= 0 fall back to
// DefaultBlockSize.
func Range(r io.ReaderAt, rg chunk.Range, blockSize int, strat stats.SumStrategy) (*Table, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	t := NewTable(strat)
	buf := make([]byte, blockSize)
	var carry []byte

	pos := rg.Start
	for pos < rg.End {
		toRead := len(buf)
		if rem := rg.End - pos; rem < int64(toRead) {
			toRead = int(rem)
		}
		n, err := r.ReadAt(buf[:toRead], pos)
		if n > 0 {
			data := buf[:n]
			dataOff := pos - int64(len(carry))
			if len(carry) > 0 {
				carry = append(carry, data...)
				data = carry
			}
			s := 0
			for {
				i := bytes.IndexByte(data[s:], '\n')
				if i < 0 {
					break
				}
				if perr := consume(t, data[s:s+i], dataOff+int64(s)); perr != nil {
					return nil, perr
				}
				s += i + 1
			}
			if s < len(data) {
				carry = append(carry[:0], data[s:]...)
			} else {
				carry = carry[:0]
			}
		}
		pos += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read at %d: %w", pos, err)
		}
	}

	// Final line without a terminator (only the range ending at EOF can
	// carry one; interior range ends sit just past a '\n').
	if len(carry) > 0 {
		if perr := consume(t, carry, rg.End-int64(len(carry))); perr != nil {
			return nil, perr
		}
	}
	return t, nil
}

// consume parses one record line (without its '\n') starting at absolute byte
// offset off and folds it into the table.
func consume(t *Table, line []byte, off int64) error {
	sep := bytes.IndexByte(line, ';')
	if sep < 0 {
		return &ParseError{Offset: off, Msg: fmt.Sprintf("missing ';' delimiter in %q", clip(line))}
	}
	v, ok := parseValue(line[sep+1:])
	if !ok {
		return &ParseError{
			Offset: off + int64(sep) + 1,
			Msg:    fmt.Sprintf("bad value %q (want signed decimal with one fractional digit in [-99.9, 99.9])", clip(line[sep+1:])),
		}
	}
	t.Observe(line[:sep], v)
	return nil
}

// parseValue decodes a value with exactly one fractional digit into value*10.
// Accepted shapes: a.b, ab.c, -a.b, -ab.c with a,b,c in 0-9.
func parseValue(b []byte) (int64, bool) {
	neg := false
	if len(b) > 0 && b[0] == '-' {
		neg = true
		b = b[1:]
	}
	var whole int64
	switch len(b) {
	case 3: // a.b
		if !digit(b[0]) {
			return 0, false
		}
		whole = int64(b[0] - '0')
	case 4: // ab.c
		if !digit(b[0]) || !digit(b[1]) {
			return 0, false
		}
		whole = int64(b[0]-'0')*10 + int64(b[1]-'0')
	default:
		return 0, false
	}
	if b[len(b)-2] != '.' || !digit(b[len(b)-1]) {
		return 0, false
	}
	v := whole*10 + int64(b[len(b)-1]-'0')
	if neg {
		v = -v
	}
	return v, true
}

func digit(c byte) bool { return c >= '0' && c <= '9' }

// clip bounds a quoted snippet in error messages.
func clip(b []byte) []byte {
	const max = 32
	if len(b) > max {
		return b[:max]
	}
	return b
}
