// Package render turns a merged key table into the final output lines.
//
// One line per key, "key=min/mean/max", keys ordered by byte-wise
// lexicographic comparison, every number with exactly one fractional digit.
// Min and max are scaled integers and render exactly; the mean is computed
// here, at format time, and rounded once.
package render

import (
	"sort"
	"strconv"

	"measureagg/internal/scan"
	"measureagg/internal/stats"
)

// Table renders the whole table into a byte slice ready for a single write.
// An empty table renders to an empty slice.
func Table(t *scan.Table) []byte {
	type kv struct {
		key string
		e   *stats.Entry
	}
	entries := make([]kv, 0, t.Len())
	t.Each(func(key string, e *stats.Entry) {
		entries = append(entries, kv{key, e})
	})
	// Go string comparison is byte-wise, which is exactly the contract:
	// no locale, no collation.
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	strat := t.Strategy()
	out := make([]byte, 0, len(entries)*32)
	for _, kv := range entries {
		out = append(out, kv.key...)
		out = append(out, '=')
		out = appendScaled(out, kv.e.Min)
		out = append(out, '/')
		out = strconv.AppendFloat(out, kv.e.Mean(strat), 'f', 1, 64)
		out = append(out, '/')
		out = appendScaled(out, kv.e.Max)
		out = append(out, '\n')
	}
	return out
}

// appendScaled renders a value*10 integer as a signed decimal with one
// fractional digit, e.g. -105 → "-10.5".
func appendScaled(dst []byte, v int64) []byte {
	if v < 0 {
		dst = append(dst, '-')
		v = -v
	}
	dst = strconv.AppendInt(dst, v/10, 10)
	dst = append(dst, '.')
	return strconv.AppendInt(dst, v%10, 10)
}
