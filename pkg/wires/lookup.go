package wires

import (
	"sort"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/stablehash"
	"github.com/calderan/mosaic/pkg/track"
)

// TrackInfo is the placement result for a single wire: its track index
// and its width in tracks.
type TrackInfo struct {
	Track track.HalfInt
	Width int
}

// WireMargin pairs a wire base name with its distance from a row edge.
type WireMargin struct {
	Name   string
	Margin int
}

// WireLookup maps placed wires to their track assignments. It is an
// immutable value object: move operations return a new lookup, and equal
// lookups hash identically so placement results can be deduplicated.
type WireLookup struct {
	data   map[WireRef]TrackInfo
	ranges map[string][2]int // base name -> [min, max] index, inclusive
	keys   []WireRef         // sorted, for deterministic iteration
	hash   uint64
}

// NewWireLookup builds a lookup from wire assignments. Index ranges per
// base name are derived from the keys.
func NewWireLookup(data map[WireRef]TrackInfo) *WireLookup {
	ranges := make(map[string][2]int)
	for ref := range data {
		if r, ok := ranges[ref.Base]; ok {
			if ref.Index < r[0] {
				r[0] = ref.Index
			}
			if ref.Index > r[1] {
				r[1] = ref.Index
			}
			ranges[ref.Base] = r
		} else {
			ranges[ref.Base] = [2]int{ref.Index, ref.Index}
		}
	}
	return newWireLookup(data, ranges)
}

func newWireLookup(data map[WireRef]TrackInfo, ranges map[string][2]int) *WireLookup {
	wl := &WireLookup{data: data, ranges: ranges}
	wl.keys = make([]WireRef, 0, len(data))
	for ref := range data {
		wl.keys = append(wl.keys, ref)
	}
	sort.Slice(wl.keys, func(i, j int) bool {
		if wl.keys[i].Base != wl.keys[j].Base {
			return wl.keys[i].Base < wl.keys[j].Base
		}
		return wl.keys[i].Index < wl.keys[j].Index
	})
	h := stablehash.New()
	for _, ref := range wl.keys {
		info := data[ref]
		h = stablehash.String(h, ref.Base)
		h = stablehash.Int(h, ref.Index)
		h = stablehash.Int(h, info.Track.Dbl())
		h = stablehash.Int(h, info.Width)
	}
	wl.hash = h
	return wl
}

// Empty reports whether the lookup has no wires.
func (wl *WireLookup) Empty() bool { return wl == nil || len(wl.data) == 0 }

// Hash returns a stable structural hash of the assignments.
func (wl *WireLookup) Hash() uint64 {
	if wl == nil {
		return stablehash.New()
	}
	return wl.hash
}

// Equal reports whether both lookups carry identical assignments.
func (wl *WireLookup) Equal(o *WireLookup) bool {
	if wl.Empty() && o.Empty() {
		return true
	}
	if wl.Empty() != o.Empty() || len(wl.data) != len(o.data) || wl.hash != o.hash {
		return false
	}
	for ref, info := range wl.data {
		if other, ok := o.data[ref]; !ok || other != info {
			return false
		}
	}
	return true
}

// WireRange returns the half-open index interval [lower, upper) covered
// by the given bus.
func (wl *WireLookup) WireRange(base string) (int, int, error) {
	r, ok := wl.ranges[base]
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeWireNotFound,
			"cannot find wire with basename %s", base)
	}
	return r[0], r[1] + 1, nil
}

// NumWires returns how many bits of the given bus are present.
func (wl *WireLookup) NumWires(base string) (int, error) {
	lo, hi, err := wl.WireRange(base)
	if err != nil {
		return 0, err
	}
	return hi - lo, nil
}

// GetTrackInfo returns the track assignment of one wire. Negative indices
// count from the upper end of the bus range.
func (wl *WireLookup) GetTrackInfo(base string, index int) (TrackInfo, error) {
	lo, hi, err := wl.WireRange(base)
	if err != nil {
		return TrackInfo{}, err
	}
	if index < 0 {
		index += hi
	}
	if index < lo || index >= hi {
		return TrackInfo{}, errors.New(errors.ErrCodeOutOfBounds,
			"%s<%d> index out of bounds: [%d, %d)", base, index, lo, hi)
	}
	return wl.data[WireRef{Base: base, Index: index}], nil
}

// Refs returns the placed wires in sorted order.
func (wl *WireLookup) Refs() []WireRef {
	if wl == nil {
		return nil
	}
	return wl.keys
}

// Get returns the assignment for ref, if present.
func (wl *WireLookup) Get(ref WireRef) (TrackInfo, bool) {
	info, ok := wl.data[ref]
	return info, ok
}

// Move returns a lookup with all non-shared wires shifted by delta
// tracks. Shared wires keep their positions.
func (wl *WireLookup) Move(delta track.HalfInt, shared []string) (*WireLookup, error) {
	if wl.Empty() {
		return wl, nil
	}
	sharedSet, err := expandShared(shared)
	if err != nil {
		return nil, err
	}
	data := make(map[WireRef]TrackInfo, len(wl.data))
	for ref, info := range wl.data {
		if _, ok := sharedSet[ref]; !ok {
			info.Track += delta
		}
		data[ref] = info
	}
	return newWireLookup(data, wl.ranges), nil
}

// MoveShared returns a lookup with only the shared wires shifted by
// delta tracks.
func (wl *WireLookup) MoveShared(delta track.HalfInt, shared []string) (*WireLookup, error) {
	if wl.Empty() {
		return wl, nil
	}
	sharedSet, err := expandShared(shared)
	if err != nil {
		return nil, err
	}
	data := make(map[WireRef]TrackInfo, len(wl.data))
	for ref, info := range wl.data {
		if _, ok := sharedSet[ref]; ok {
			info.Track += delta
		}
		data[ref] = info
	}
	return newWireLookup(data, wl.ranges), nil
}

// WireMarginInfo computes, for a row spanning [yl, yh], the distance of
// each non-shared wire from the given edge, plus the margin from that
// edge to the farthest point a vertical connection to any of these wires
// can reach.
func (wl *WireLookup) WireMarginInfo(grid track.Grid, layer, yl, yh int, topEdge bool,
	shared []string) (int, []WireMargin, error) {
	sharedSet, err := expandShared(shared)
	if err != nil {
		return 0, nil, err
	}
	yConn := yh
	if topEdge {
		yConn = yl
	}
	var list []WireMargin
	for _, ref := range wl.keys {
		if _, ok := sharedSet[ref]; ok {
			continue
		}
		info := wl.data[ref]
		coord := grid.TrackToCoord(layer, info.Track)
		margin := coord - yl
		if topEdge {
			margin = yh - coord
		}
		list = append(list, WireMargin{Name: ref.Base, Margin: margin})

		vext := grid.ViaExtension(track.Upper, layer, info.Width, 1)
		wLo, wHi := grid.WireBounds(layer, info.Track, info.Width)
		if topEdge {
			if y := wHi + vext; y > yConn {
				yConn = y
			}
		} else {
			if y := wLo - vext; y < yConn {
				yConn = y
			}
		}
	}
	yConnMargin := yConn - yl
	if topEdge {
		yConnMargin = yh - yConn
	}
	return yConnMargin, list, nil
}
