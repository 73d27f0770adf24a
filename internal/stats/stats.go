// Package stats holds the per-key running statistics and the two summation
// strategies used by the aggregation engine.
//
// Values on the wire carry exactly one fractional digit, so every observation
// is stored as the integer value*10. Min and max are always exact. For the
// running sum there are two interchangeable strategies:
//
//   - SumFixedPoint: the scaled integers are added directly. Addition over
//     int64 is exact and associative, so merge order can never change the
//     result.
//   - SumKahan: the decimal values are added as float64 with Neumaier
//     compensation. The compensation term travels with the entry and is
//     re-applied when partials merge, so the error bound holds across the
//     whole job, not just within one chunk.
package stats

import (
	"fmt"
	"math"
)

// SumStrategy selects how the running sum is accumulated.
type SumStrategy uint8

const (
	// SumFixedPoint accumulates scaled integers. Exact; the default.
	SumFixedPoint SumStrategy = iota
	// SumKahan accumulates decimal values as compensated float64.
	SumKahan
)

// ParseSumStrategy maps the -sum flag value to a strategy.
func ParseSumStrategy(s string) (SumStrategy, error) {
	switch s {
	case "fixed":
		return SumFixedPoint, nil
	case "kahan":
		return SumKahan, nil
	default:
		return 0, fmt.Errorf(`unknown sum strategy %q (use "fixed" or "kahan")`, s)
	}
}

func (s SumStrategy) String() string {
	if s == SumKahan {
		return "kahan"
	}
	return "fixed"
}

// Entry is the running aggregate for one key. Min and Max are scaled
// (value*10) regardless of strategy. Sum is used by SumFixedPoint; FSum and
// FComp (Neumaier compensation) by SumKahan.
type Entry struct {
	Min   int64
	Max   int64
	Count int64
	Sum   int64
	FSum  float64
	FComp float64
}

// NewEntry returns the aggregate after a first observation of v (scaled).
func NewEntry(v int64, s SumStrategy) Entry {
	e := Entry{Min: v, Max: v, Count: 1}
	if s == SumKahan {
		e.FSum = float64(v) / 10
	} else {
		e.Sum = v
	}
	return e
}

// Observe folds one more scaled observation into the aggregate.
func (e *Entry) Observe(v int64, s SumStrategy) {
	if v < e.Min {
		e.Min = v
	}
	if v > e.Max {
		e.Max = v
	}
	e.Count++
	if s == SumKahan {
		e.add(float64(v) / 10)
	} else {
		e.Sum += v
	}
}

// Merge combines another key's aggregate for the same key into e. The result
// is independent of merge order: exactly for SumFixedPoint, within the
// compensated-summation error bound for SumKahan (o's own compensation is
// folded in here, not dropped).
func (e *Entry) Merge(o Entry, s SumStrategy) {
	if o.Min < e.Min {
		e.Min = o.Min
	}
	if o.Max > e.Max {
		e.Max = o.Max
	}
	e.Count += o.Count
	if s == SumKahan {
		e.add(o.FSum)
		e.FComp += o.FComp
	} else {
		e.Sum += o.Sum
	}
}

// add performs one Neumaier-compensated addition of x into FSum/FComp.
func (e *Entry) add(x float64) {
	t := e.FSum + x
	if math.Abs(e.FSum) >= math.Abs(x) {
		e.FComp += (e.FSum - t) + x
	} else {
		e.FComp += (x - t) + e.FSum
	}
	e.FSum = t
}

// Mean returns the arithmetic mean in decimal units. It is computed only at
// read time; nothing is rounded during accumulation.
func (e *Entry) Mean(s SumStrategy) float64 {
	if s == SumKahan {
		return (e.FSum + e.FComp) / float64(e.Count)
	}
	return float64(e.Sum) / float64(e.Count) / 10
}
