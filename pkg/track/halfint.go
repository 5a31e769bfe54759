package track

import (
	"fmt"
	"strconv"
	"strings"
)

// HalfInt is a number quantized to half-integer values, stored as twice
// its value so all arithmetic stays exact in integers. Track indices,
// track separations, and track counts are all HalfInts.
//
// Because HalfInt is an integer type holding the doubled value, ordinary
// +, - and comparison operators work directly: adding two HalfInts adds
// their values, and a+1 shifts by half a track. Use AddTracks or the One
// constant to shift by whole tracks.
type HalfInt int

// Common values.
const (
	Zero HalfInt = 0
	Half HalfInt = 1
	One  HalfInt = 2
)

// New returns the HalfInt for a whole value n.
func New(n int) HalfInt { return HalfInt(2 * n) }

// FromDbl returns the HalfInt whose doubled value is d.
func FromDbl(d int) HalfInt { return HalfInt(d) }

// Dbl returns twice the value as a plain int.
func (h HalfInt) Dbl() int { return int(h) }

// IsWhole reports whether h is a whole number.
func (h HalfInt) IsWhole() bool { return h&1 == 0 }

// Int returns the value as an int, rounding toward negative infinity.
func (h HalfInt) Int() int { return floorDiv(int(h), 2) }

// Ceil returns the smallest whole number not less than h.
func (h HalfInt) Ceil() int { return ceilDiv(int(h), 2) }

// AddTracks returns h shifted by n whole tracks.
func (h HalfInt) AddTracks(n int) HalfInt { return h + HalfInt(2*n) }

// AddHalf returns h shifted by half a track.
func (h HalfInt) AddHalf() HalfInt { return h + 1 }

// Neg returns -h.
func (h HalfInt) Neg() HalfInt { return -h }

// Div2 returns h/2 quantized back to the half grid. The result rounds
// toward negative infinity, or toward positive infinity when up is set.
func (h HalfInt) Div2(up bool) HalfInt {
	if up {
		return HalfInt(ceilDiv(int(h), 2))
	}
	return HalfInt(floorDiv(int(h), 2))
}

// UpEven returns h rounded to a whole number; up selects the direction.
func (h HalfInt) UpEven(up bool) HalfInt {
	if h.IsWhole() {
		return h
	}
	if up {
		return h + 1
	}
	return h - 1
}

// String formats h as "3" or "3.5".
func (h HalfInt) String() string {
	if h.IsWhole() {
		return strconv.Itoa(int(h) / 2)
	}
	v := int(h)
	if v < 0 {
		return fmt.Sprintf("-%d.5", (-v-1)/2)
	}
	return fmt.Sprintf("%d.5", (v-1)/2)
}

// ParseHalfInt parses the decimal forms produced by String ("3", "-2.5").
func ParseHalfInt(s string) (HalfInt, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	whole, frac, hasFrac := strings.Cut(body, ".")
	n, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("track: parse half-int %q: %w", s, err)
	}
	d := 2 * n
	if hasFrac {
		if frac != "5" {
			return 0, fmt.Errorf("track: parse half-int %q: fraction must be .5", s)
		}
		d++
	}
	if neg {
		d = -d
	}
	return HalfInt(d), nil
}

// MiddleTrack returns the midpoint of a and b, rounded down to the half
// grid when the true midpoint falls on a quarter track.
func MiddleTrack(a, b HalfInt) HalfInt {
	return HalfInt(floorDiv(int(a)+int(b), 2))
}

// Max returns the larger of a and b.
func Max(a, b HalfInt) HalfInt {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b HalfInt) HalfInt {
	if a < b {
		return a
	}
	return b
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
