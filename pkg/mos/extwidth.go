package mos

import (
	"sort"

	"github.com/calderan/mosaic/pkg/errors"
)

// ExtWidthInfo is the set of legal extension-region heights between two
// rows, in units of the technology's vertical block pitch. Below WMin
// only the widths in the discrete list are legal; from WMin upward every
// width of the form WMin + k*Step is legal.
type ExtWidthInfo struct {
	discrete []int
	wmin     int
	step     int
}

// NewExtWidthInfo builds the legal-width set. The discrete list is
// copied and sorted; step defaults to 1 when non-positive.
func NewExtWidthInfo(discrete []int, wmin, step int) ExtWidthInfo {
	if step <= 0 {
		step = 1
	}
	d := make([]int, len(discrete))
	copy(d, discrete)
	sort.Ints(d)
	return ExtWidthInfo{discrete: d, wmin: wmin, step: step}
}

// WMin returns the start of the arithmetic progression.
func (e ExtWidthInfo) WMin() int { return e.wmin }

// Step returns the progression step.
func (e ExtWidthInfo) Step() int { return e.step }

// IsValid reports whether w is a legal extension width.
func (e ExtWidthInfo) IsValid(w int) bool {
	if w >= e.wmin {
		return (w-e.wmin)%e.step == 0
	}
	idx := sort.SearchInts(e.discrete, w)
	return idx != len(e.discrete) && e.discrete[idx] == w
}

// NextWidth returns the smallest legal width at least w. When even is
// set the result is additionally required to be even; this is impossible
// when the progression has an even step and an odd start, which is
// reported as an error.
func (e ExtWidthInfo) NextWidth(w int, even bool) (int, error) {
	if w >= e.wmin {
		diff := w - e.wmin
		q, r := diff/e.step, diff%e.step
		if r != 0 {
			q++
		}
		ans := e.wmin + q*e.step
		if even && ans&1 == 1 {
			if e.step&1 == 0 {
				return 0, errors.New(errors.ErrCodeInfeasibleSize,
					"no even extension width exists above %d with step %d", e.wmin, e.step)
			}
			return ans + e.step, nil
		}
		return ans, nil
	}
	idx := sort.SearchInts(e.discrete, w)
	if idx == len(e.discrete) {
		return e.NextWidth(e.wmin, even)
	}
	ans := e.discrete[idx]
	if even {
		for ans&1 == 1 {
			idx++
			if idx == len(e.discrete) {
				return e.NextWidth(e.wmin, even)
			}
			ans = e.discrete[idx]
		}
	}
	return ans, nil
}
