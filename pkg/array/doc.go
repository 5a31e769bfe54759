// Package array tracks device occupancy over a stack of placed tiles.
//
// UsedArray is the bookkeeping core: one disjoint interval set of
// occupied columns per flat row, plus boundary records used to detect
// devices placed edge to edge. Base layers the consumer API on top:
// place transistors and substrate contacts by (tile, row, column),
// collect abutment records, and fix the final array size.
package array
