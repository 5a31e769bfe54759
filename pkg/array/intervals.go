package array

import (
	"sort"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
)

// block is one occupied column interval of a flat row, with the
// boundary records of the device occupying it. Bot and Top are in array
// orientation, after any tile or device flip.
type block struct {
	start, stop int
	bot, top    mos.BlkExtInfo
}

// intervalSet keeps the occupied blocks of one flat row, sorted and
// pairwise disjoint. Touching blocks are allowed; overlapping ones are
// rejected before any mutation.
type intervalSet struct {
	blocks []block
}

func (s *intervalSet) copy() *intervalSet {
	cp := make([]block, len(s.blocks))
	copy(cp, s.blocks)
	return &intervalSet{blocks: cp}
}

// searchGE returns the index of the first block with stop > start.
func (s *intervalSet) searchGE(start int) int {
	return sort.Search(len(s.blocks), func(i int) bool {
		return s.blocks[i].stop > start
	})
}

func (s *intervalSet) add(b block) error {
	if b.start >= b.stop {
		return errors.New(errors.ErrCodeInvalidInput,
			"empty column interval [%d, %d)", b.start, b.stop)
	}
	idx := s.searchGE(b.start)
	if idx < len(s.blocks) && s.blocks[idx].start < b.stop {
		return errors.New(errors.ErrCodeOverlap,
			"columns [%d, %d) overlap occupied interval [%d, %d)",
			b.start, b.stop, s.blocks[idx].start, s.blocks[idx].stop)
	}
	s.blocks = append(s.blocks, block{})
	copy(s.blocks[idx+1:], s.blocks[idx:])
	s.blocks[idx] = b
	return nil
}

// intervals returns the occupied [start, stop) pairs in column order.
func (s *intervalSet) intervals() [][2]int {
	ans := make([][2]int, len(s.blocks))
	for i, b := range s.blocks {
		ans[i] = [2]int{b.start, b.stop}
	}
	return ans
}

// complement returns the unoccupied sub-intervals of [start, stop).
func (s *intervalSet) complement(start, stop int) [][2]int {
	var ans [][2]int
	cur := start
	for _, b := range s.blocks {
		if b.stop <= start {
			continue
		}
		if b.start >= stop {
			break
		}
		if b.start > cur {
			ans = append(ans, [2]int{cur, b.start})
		}
		if b.stop > cur {
			cur = b.stop
		}
	}
	if cur < stop {
		ans = append(ans, [2]int{cur, stop})
	}
	return ans
}
