package track

import (
	"sort"

	"github.com/calderan/mosaic/pkg/stablehash"
)

// DefaultWireType is the fallback key in width and space tables. A lookup
// for a wire type with no entry on a layer falls back to this key, and
// then to width 1 / half-track space.
const DefaultWireType = ""

// WidthTable maps wire type name to per-layer widths in tracks.
type WidthTable map[string]map[int]int

// SpaceTable maps wire type name to per-layer minimum spacing in tracks.
type SpaceTable map[string]map[int]HalfInt

// Manager resolves named wire types to widths and separations on a Grid.
// A Manager is immutable after construction and safe for concurrent use.
type Manager struct {
	grid   Grid
	widths WidthTable
	spaces SpaceTable
	fp     uint64
}

// NewManager builds a Manager over grid with the given tables. The tables
// are copied; later mutation of the arguments has no effect.
func NewManager(grid Grid, widths WidthTable, spaces SpaceTable) *Manager {
	m := &Manager{
		grid:   grid,
		widths: copyWidths(widths),
		spaces: copySpaces(spaces),
	}
	m.fp = m.fingerprint()
	return m
}

// Grid returns the underlying geometry oracle.
func (m *Manager) Grid() Grid { return m.grid }

// Widths returns the width table. The result must not be modified.
func (m *Manager) Widths() WidthTable { return m.widths }

// Spaces returns the space table. The result must not be modified.
func (m *Manager) Spaces() SpaceTable { return m.spaces }

// Width returns the width in tracks of a wire of the given type on layer.
func (m *Manager) Width(layer int, wtype string) int {
	if t, ok := m.widths[wtype]; ok {
		if w, ok := t[layer]; ok {
			return w
		}
	}
	if t, ok := m.widths[DefaultWireType]; ok {
		if w, ok := t[layer]; ok {
			return w
		}
	}
	return 1
}

// Space returns the minimum spacing in tracks between a wire of the given
// type on layer and its neighbor.
func (m *Manager) Space(layer int, wtype string) HalfInt {
	if t, ok := m.spaces[wtype]; ok {
		if s, ok := t[layer]; ok {
			return s
		}
	}
	if t, ok := m.spaces[DefaultWireType]; ok {
		if s, ok := t[layer]; ok {
			return s
		}
	}
	return Half
}

// Sep returns the minimum center-to-center separation in tracks between a
// wire of type a and a wire of type b on layer. The separation accounts
// for both wire widths and the larger of the two spacing requirements.
// When halfSpace is false the result is rounded up to a whole track.
func (m *Manager) Sep(layer int, a, b string, halfSpace bool) HalfInt {
	wa := m.Width(layer, a)
	wb := m.Width(layer, b)
	sp := Max(m.Space(layer, a), m.Space(layer, b))
	// Centers s tracks apart leave a gap of s - (wa+wb)/2 + 1/2 tracks.
	sep := HalfInt(wa+wb) + sp - 1
	if !halfSpace {
		sep = sep.UpEven(true)
	}
	return sep
}

// NextTrack returns the nearest track on which a wire of type next can be
// placed adjacent to a wire of type cur at idx, above when up is set and
// below otherwise.
func (m *Manager) NextTrack(layer int, idx HalfInt, cur, next string, up, halfSpace bool) HalfInt {
	sep := m.Sep(layer, cur, next, halfSpace)
	if up {
		return idx + sep
	}
	return idx - sep
}

// NextTrackCoord is NextTrack with the anchor given as a coordinate; the
// anchor is first snapped to the grid toward the placement direction.
func (m *Manager) NextTrackCoord(layer, coord int, cur, next string, up, halfSpace bool) HalfInt {
	mode := RoundLessEq
	if !up {
		mode = RoundGreaterEq
	}
	idx := m.grid.CoordToTrack(layer, coord, mode)
	return m.NextTrack(layer, idx, cur, next, up, halfSpace)
}

// Fingerprint returns a stable structural hash of the width and space
// tables. Two Managers with equal tables have equal fingerprints; the
// grid is not included.
func (m *Manager) Fingerprint() uint64 { return m.fp }

// Equal reports whether the two managers carry identical tables.
func (m *Manager) Equal(o *Manager) bool {
	if m == o {
		return true
	}
	if o == nil {
		return false
	}
	return m.fp == o.fp && widthsEqual(m.widths, o.widths) && spacesEqual(m.spaces, o.spaces)
}

func (m *Manager) fingerprint() uint64 {
	h := stablehash.New()
	for _, wt := range sortedKeys(m.widths) {
		h = stablehash.String(h, wt)
		t := m.widths[wt]
		for _, layer := range sortedLayers(t) {
			h = stablehash.Int(h, layer)
			h = stablehash.Int(h, t[layer])
		}
	}
	for _, wt := range sortedKeys(m.spaces) {
		h = stablehash.String(h, wt)
		t := m.spaces[wt]
		layers := make([]int, 0, len(t))
		for l := range t {
			layers = append(layers, l)
		}
		sort.Ints(layers)
		for _, layer := range layers {
			h = stablehash.Int(h, layer)
			h = stablehash.Int(h, t[layer].Dbl())
		}
	}
	return h
}

func copyWidths(w WidthTable) WidthTable {
	out := make(WidthTable, len(w))
	for wt, t := range w {
		nt := make(map[int]int, len(t))
		for l, v := range t {
			nt[l] = v
		}
		out[wt] = nt
	}
	return out
}

func copySpaces(s SpaceTable) SpaceTable {
	out := make(SpaceTable, len(s))
	for wt, t := range s {
		nt := make(map[int]HalfInt, len(t))
		for l, v := range t {
			nt[l] = v
		}
		out[wt] = nt
	}
	return out
}

func widthsEqual(a, b WidthTable) bool {
	if len(a) != len(b) {
		return false
	}
	for wt, ta := range a {
		tb, ok := b[wt]
		if !ok || len(ta) != len(tb) {
			return false
		}
		for l, v := range ta {
			if tb[l] != v {
				return false
			}
		}
	}
	return true
}

func spacesEqual(a, b SpaceTable) bool {
	if len(a) != len(b) {
		return false
	}
	for wt, ta := range a {
		tb, ok := b[wt]
		if !ok || len(ta) != len(tb) {
			return false
		}
		for l, v := range ta {
			if tb[l] != v {
				return false
			}
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedLayers(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
