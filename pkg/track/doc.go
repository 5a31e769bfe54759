// Package track models routing-track geometry for row-based transistor
// placement.
//
// All vertical positions in the placement engine are expressed as track
// indices on a routing grid rather than raw coordinates. Tracks may sit at
// half-index positions, so indices are carried as HalfInt values. The Grid
// interface is the geometry oracle that converts between coordinates and
// track indices and answers quantization queries (via extensions, line-end
// spacing, legal wire lengths, block pitch). Manager layers named wire
// types and spacing rules on top of a Grid so callers can ask for the
// width of a "sig" wire or the separation between a "clk" and a "sup"
// track without hard-coding numbers.
package track
