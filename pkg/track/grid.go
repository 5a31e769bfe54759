package track

// Grid answers geometry questions about a routing stack. The placement
// engine only ever talks to this interface; a process design kit supplies
// the real implementation, and UniformGrid provides a self-consistent
// reference implementation for tests and examples.
//
// Layer numbering follows the usual convention: consecutive layers route
// in alternating directions, and IsHorizontal reports the direction of a
// given layer. Track 0 of a layer is centered on the layer's origin, so a
// wire on track 0 straddles the lower boundary; rows share boundary
// wires by placing them exactly on the edge track.
type Grid interface {
	// TrackPitch returns the center-to-center distance between adjacent
	// whole tracks on layer.
	TrackPitch(layer int) int

	// IsHorizontal reports whether wires on layer run horizontally.
	IsHorizontal(layer int) bool

	// CoordToTrack converts a coordinate perpendicular to layer's routing
	// direction into a half-track index, snapping per mode.
	CoordToTrack(layer, coord int, mode RoundMode) HalfInt

	// TrackToCoord returns the center coordinate of the given half-track.
	TrackToCoord(layer int, tr HalfInt) int

	// WireBounds returns the lower and upper edge coordinates of a wire of
	// the given width (in tracks) centered on tr.
	WireBounds(layer int, tr HalfInt, width int) (lower, upper int)

	// FindNextTrack returns the first track on which a wire of the given
	// width fits entirely at or beyond coord. Under RoundGreaterEq the
	// wire's lower edge is at or above coord; under RoundLessEq its upper
	// edge is at or below coord. When halfTrack is false the result is
	// restricted to whole tracks.
	FindNextTrack(layer, coord, width int, halfTrack bool, mode RoundMode) HalfInt

	// ViaExtension returns how far a wire on layer must extend past the
	// track center of the adjacent layer to enclose a via, for a wire of
	// the given width crossing adjWidth tracks on the adjacent layer.
	// dir selects whether the adjacent layer is below (Lower) or above.
	ViaExtension(dir Direction, layer, width, adjWidth int) int

	// LineEndSpace returns the minimum end-to-end spacing between two
	// colinear wires of the given width on layer. When even is set the
	// result is rounded up to an even number so the gap can be split.
	LineEndSpace(layer, width int, even bool) int

	// NextLength returns the smallest legal wire length on layer that is
	// at least length, for a wire of the given width.
	NextLength(layer, width, length int) int

	// BlockSize returns the placement quantum (w, h) for a block whose top
	// routing layer is layer. halfBlkX and halfBlkY permit half-quantum
	// resolution along the respective axis.
	BlockSize(layer int, halfBlkX, halfBlkY bool) (w, h int)
}
