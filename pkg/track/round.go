package track

import "fmt"

// RoundMode controls how off-grid values snap onto the track grid.
type RoundMode int

const (
	// RoundNone requires the value to already be on grid; implementations
	// treat an off-grid value under RoundNone as a configuration error.
	RoundNone RoundMode = iota
	// RoundNearest snaps to the closest grid value, ties away from zero.
	RoundNearest
	// RoundUp snaps toward positive infinity.
	RoundUp
	// RoundDown snaps toward negative infinity.
	RoundDown
	// RoundGreaterEq requires the snapped value to be at least the input;
	// for track lookups this is the first track at or above a coordinate.
	RoundGreaterEq
	// RoundLessEq is the mirror of RoundGreaterEq.
	RoundLessEq
)

func (m RoundMode) String() string {
	switch m {
	case RoundNone:
		return "none"
	case RoundNearest:
		return "nearest"
	case RoundUp:
		return "up"
	case RoundDown:
		return "down"
	case RoundGreaterEq:
		return "greater_eq"
	case RoundLessEq:
		return "less_eq"
	}
	return fmt.Sprintf("RoundMode(%d)", int(m))
}

// Direction distinguishes the two ends of a via or wire along its layer's
// routing direction.
type Direction int

const (
	// Lower is the bottom or left end.
	Lower Direction = iota
	// Upper is the top or right end.
	Upper
)

func (d Direction) String() string {
	if d == Lower {
		return "lower"
	}
	return "upper"
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction { return 1 - d }

// Sign returns -1 for Lower and +1 for Upper.
func (d Direction) Sign() int {
	if d == Lower {
		return -1
	}
	return 1
}

// roundDiv divides a by b (b > 0) with the given rounding mode. Under
// RoundNone a must divide evenly; remainders fall back to nearest, which
// keeps callers deterministic if a mis-configured coordinate slips in.
func roundDiv(a, b int, mode RoundMode) int {
	switch mode {
	case RoundUp, RoundGreaterEq:
		return ceilDiv(a, b)
	case RoundDown, RoundLessEq:
		return floorDiv(a, b)
	default:
		if a >= 0 {
			return (a + b/2) / b
		}
		return -((-a + b/2) / b)
	}
}
