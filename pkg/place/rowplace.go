package place

import (
	"math"

	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/stablehash"
	"github.com/calderan/mosaic/pkg/track"
	"github.com/calderan/mosaic/pkg/wires"
)

const (
	coordMin = math.MinInt32
	coordMax = math.MaxInt32
)

// RowPlaceInfo is the placement result for one row: the geometry the
// technology reported, the track assignments of the row's wires, and the
// vertical intervals the row occupies.
//
// YB and YT bound the full row area including extension regions; YBBlk
// and YTBlk bound the device block itself. YConn bounds the vertical
// connection wires, used to keep line-end spacing between adjacent rows.
type RowPlaceInfo struct {
	RowInfo  mos.RowInfo       `yaml:"row_info"`
	BotWires *wires.WireLookup `yaml:"bot_wires"`
	TopWires *wires.WireLookup `yaml:"top_wires"`
	MidWires *wires.WireLookup `yaml:"mid_wires,omitempty"`
	YB       int               `yaml:"yb"`
	YT       int               `yaml:"yt"`
	YBBlk    int               `yaml:"yb_blk"`
	YTBlk    int               `yaml:"yt_blk"`
	YConn    [2]int            `yaml:"y_conn,flow"`
}

// Equal reports whether both placements describe the same row geometry.
// Wire lookups are excluded: two placements that differ only in track
// assignments still occupy the same area and can substitute for each
// other during tile pattern composition.
func (r RowPlaceInfo) Equal(o RowPlaceInfo) bool {
	return r.RowInfo.Equal(o.RowInfo) &&
		r.YB == o.YB && r.YT == o.YT &&
		r.YBBlk == o.YBBlk && r.YTBlk == o.YTBlk &&
		r.YConn == o.YConn
}

// Hash returns a stable structural hash consistent with Equal.
func (r RowPlaceInfo) Hash() uint64 {
	h := r.RowInfo.Hash()
	h = stablehash.Int(h, r.YB)
	h = stablehash.Int(h, r.YT)
	h = stablehash.Int(h, r.YBBlk)
	h = stablehash.Int(h, r.YTBlk)
	h = stablehash.Int(h, r.YConn[0])
	h = stablehash.Int(h, r.YConn[1])
	return h
}

// Height returns the total row height including extensions.
func (r RowPlaceInfo) Height() int { return r.YT - r.YB }

// ExtMargin returns the height of the extension region at the given
// edge.
func (r RowPlaceInfo) ExtMargin(topEdge bool) int {
	if topEdge {
		return r.YT - r.YTBlk
	}
	return r.YBBlk - r.YB
}

// GetExtend returns a copy of this placement with the extension region
// at the given edge grown by delta. Growing the top edge only moves the
// shared top wires (they sit on the boundary); growing the bottom edge
// keeps the bottom boundary fixed and shifts the device block, all
// non-shared wires and the connection bounds up by delta.
func (r RowPlaceInfo) GetExtend(trPitch, delta int, topEdge bool, shared []string) (RowPlaceInfo, error) {
	trShift := track.FromDbl(2 * delta / trPitch)
	if topEdge {
		tw, err := r.TopWires.MoveShared(trShift, shared)
		if err != nil {
			return RowPlaceInfo{}, err
		}
		r.TopWires = tw
		r.YT += delta
		return r, nil
	}

	bw, err := r.BotWires.Move(trShift, shared)
	if err != nil {
		return RowPlaceInfo{}, err
	}
	tw, err := r.TopWires.Move(trShift, nil)
	if err != nil {
		return RowPlaceInfo{}, err
	}
	r.BotWires = bw
	r.TopWires = tw
	if !r.MidWires.Empty() {
		mw, err := r.MidWires.Move(trShift, nil)
		if err != nil {
			return RowPlaceInfo{}, err
		}
		r.MidWires = mw
	}
	r.YT += delta
	r.YBBlk += delta
	r.YTBlk += delta
	r.YConn[0] += delta
	r.YConn[1] += delta
	return r, nil
}

// GetMove returns a copy of this placement translated up by delta.
func (r RowPlaceInfo) GetMove(trPitch, delta int) (RowPlaceInfo, error) {
	trShift := track.FromDbl(2 * delta / trPitch)
	bw, err := r.BotWires.Move(trShift, nil)
	if err != nil {
		return RowPlaceInfo{}, err
	}
	tw, err := r.TopWires.Move(trShift, nil)
	if err != nil {
		return RowPlaceInfo{}, err
	}
	r.BotWires = bw
	r.TopWires = tw
	if !r.MidWires.Empty() {
		mw, err := r.MidWires.Move(trShift, nil)
		if err != nil {
			return RowPlaceInfo{}, err
		}
		r.MidWires = mw
	}
	r.YB += delta
	r.YT += delta
	r.YBBlk += delta
	r.YTBlk += delta
	r.YConn[0] += delta
	r.YConn[1] += delta
	return r, nil
}

// GetAbutInfo computes the extra vertical margin needed so this row's
// given edge can abut the given edge of rhs, plus the boundary records
// of both edges. The margin covers wire-to-wire spacing between the two
// edge wire sets and line-end spacing between their vertical connection
// wires; shared wires sit on the boundary and are excluded.
func (r RowPlaceInfo) GetAbutInfo(rhs RowPlaceInfo, topEdge, rhsTopEdge bool,
	shared, rhsShared []string, tm *track.Manager, layer int,
) (int, mos.RowExtInfo, mos.RowExtInfo, error) {
	grid := tm.Grid()
	pitch := grid.TrackPitch(layer)
	connSpLE := grid.LineEndSpace(layer-1, 1, false)

	connM1, list1, err := r.edgeMarginInfo(grid, layer, topEdge, shared)
	if err != nil {
		return 0, mos.RowExtInfo{}, mos.RowExtInfo{}, err
	}
	connM2, list2, err := rhs.edgeMarginInfo(grid, layer, rhsTopEdge, rhsShared)
	if err != nil {
		return 0, mos.RowExtInfo{}, mos.RowExtInfo{}, err
	}

	wireMargin := 0
	for _, m1 := range list1 {
		for _, m2 := range list2 {
			sep := tm.Sep(layer, m1.Name, m2.Name, true)
			if v := sep.Dbl()*pitch/2 - m1.Margin - m2.Margin; v > wireMargin {
				wireMargin = v
			}
		}
	}
	if v := connSpLE - connM1 - connM2; v > wireMargin {
		wireMargin = v
	}
	return wireMargin, r.RowInfo.ExtInfo(topEdge), rhs.RowInfo.ExtInfo(rhsTopEdge), nil
}

// edgeMarginInfo returns the connection margin and per-wire margins of
// one row edge. The edge wire set is the lookup on that side, falling
// back to the opposite side when it is empty.
func (r RowPlaceInfo) edgeMarginInfo(grid track.Grid, layer int, topEdge bool,
	shared []string) (int, []wires.WireMargin, error) {
	var wl *wires.WireLookup
	var connMargin int
	if topEdge {
		wl = r.TopWires
		if wl.Empty() {
			wl = r.BotWires
		}
		connMargin = r.YT - r.YConn[1]
	} else {
		wl = r.BotWires
		if wl.Empty() {
			wl = r.TopWires
		}
		connMargin = r.YConn[0] - r.YB
	}
	if wl.Empty() {
		return connMargin, nil, nil
	}
	connM, list, err := wl.WireMarginInfo(grid, layer, r.YB, r.YT, topEdge, shared)
	if err != nil {
		return 0, nil, err
	}
	if connM < connMargin {
		connMargin = connM
	}
	return connMargin, list, nil
}
