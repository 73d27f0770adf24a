package scan

import (
	"github.com/zeebo/xxh3"

	"measureagg/internal/stats"
)

// Table is an open-addressing hash table from key bytes to a stats.Entry,
// keyed by the xxh3 hash of the key. Each worker owns exactly one Table while
// scanning; tables meet only in the sequential merge, so no locking anywhere.
type Table struct {
	slots   []slot
	mask    uint64
	used    int
	strat   stats.SumStrategy
	records int64
}

type slot struct {
	hash uint64
	live bool
	key  string
	e    stats.Entry
}

const minTableSize = 1 << 10

// NewTable returns an empty table using the given summation strategy.
func NewTable(strat stats.SumStrategy) *Table {
	return &Table{
		slots: make([]slot, minTableSize),
		mask:  minTableSize - 1,
		strat: strat,
	}
}

// Len reports the number of distinct keys observed.
func (t *Table) Len() int { return t.used }

// Records reports the total number of records folded into the table.
func (t *Table) Records() int64 { return t.records }

// Strategy returns the summation strategy the table was built with.
func (t *Table) Strategy() stats.SumStrategy { return t.strat }

// Observe folds one scaled observation for key into the table. The key bytes
// are copied on first insert; callers may reuse the slice.
func (t *Table) Observe(key []byte, v int64) {
	t.records++
	h := xxh3.Hash(key)
	for i := h & t.mask; ; i = (i + 1) & t.mask {
		s := &t.slots[i]
		if !s.live {
			s.hash = h
			s.live = true
			s.key = string(key)
			s.e = stats.NewEntry(v, t.strat)
			t.used++
			if t.used*4 > len(t.slots)*3 {
				t.grow()
			}
			return
		}
		if s.hash == h && s.key == string(key) {
			s.e.Observe(v, t.strat)
			return
		}
	}
}

// Merge folds every entry of o into t. o is left untouched; t absorbs counts,
// sums, and min/max. Merge is commutative and associative up to the summation
// strategy's error bound (exactly so for fixed point).
func (t *Table) Merge(o *Table) {
	t.records += o.records
	for i := range o.slots {
		s := &o.slots[i]
		if !s.live {
			continue
		}
		t.mergeEntry(s.hash, s.key, s.e)
	}
}

func (t *Table) mergeEntry(h uint64, key string, e stats.Entry) {
	for i := h & t.mask; ; i = (i + 1) & t.mask {
		s := &t.slots[i]
		if !s.live {
			s.hash = h
			s.live = true
			s.key = key
			s.e = e
			t.used++
			if t.used*4 > len(t.slots)*3 {
				t.grow()
			}
			return
		}
		if s.hash == h && s.key == key {
			s.e.Merge(e, t.strat)
			return
		}
	}
}

func (t *Table) grow() {
	old := t.slots
	t.slots = make([]slot, len(old)*2)
	t.mask = uint64(len(t.slots) - 1)
	for i := range old {
		s := &old[i]
		if !s.live {
			continue
		}
		for j := s.hash & t.mask; ; j = (j + 1) & t.mask {
			if !t.slots[j].live {
				t.slots[j] = *s
				break
			}
		}
	}
}

// Each calls fn for every key in unspecified order.
func (t *Table) Each(fn func(key string, e *stats.Entry)) {
	for i := range t.slots {
		if t.slots[i].live {
			fn(t.slots[i].key, &t.slots[i].e)
		}
	}
}

// Get returns the entry for key, or false when the key was never observed.
// Mostly a test hook; the hot path never needs point lookups.
func (t *Table) Get(key string) (stats.Entry, bool) {
	h := xxh3.HashString(key)
	for i := h & t.mask; ; i = (i + 1) & t.mask {
		s := &t.slots[i]
		if !s.live {
			return stats.Entry{}, false
		}
		if s.hash == h && s.key == key {
			return s.e, true
		}
	}
}
