package place

import (
	"testing"

	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/track"
	"github.com/calderan/mosaic/pkg/wires"
)

func testArrayInfo(t *testing.T) *ArrayInfo {
	t.Helper()
	grid, err := track.NewUniformGrid(40, nil)
	if err != nil {
		t.Fatalf("NewUniformGrid: %v", err)
	}
	tm := track.NewManager(grid, nil, nil)
	ai, err := NewArrayInfo(tm, mos.NewSimTech(20), 0, true, nil)
	if err != nil {
		t.Fatalf("NewArrayInfo: %v", err)
	}
	return ai
}

// syntheticTile builds a tile directly from row heights, bypassing the
// placement engine; pattern arithmetic only needs the row count and the
// total height.
func syntheticTile(t *testing.T, ai *ArrayInfo, name string, rowHeights ...int) *PlaceInfo {
	t.Helper()
	rows := make([]RowPlaceInfo, len(rowHeights))
	y := 0
	for i, h := range rowHeights {
		rows[i] = RowPlaceInfo{YB: y, YT: y + h, YBBlk: y, YTBlk: y + h, YConn: [2]int{y, y + h}}
		y += h
	}
	pi, err := NewPlaceInfo(name, ai, rows, true, true, nil, 0, nil)
	if err != nil {
		t.Fatalf("NewPlaceInfo(%s): %v", name, err)
	}
	return pi
}

func mustTileElement(t *testing.T, pi *PlaceInfo, mirror, flip bool, mult int) TilePatternElement {
	t.Helper()
	ele, err := NewTileElement(pi, mirror, flip, mult)
	if err != nil {
		t.Fatalf("NewTileElement: %v", err)
	}
	return ele
}

func TestTileElementMirroredStack(t *testing.T) {
	ai := testArrayInfo(t)
	tile := syntheticTile(t, ai, "unit", 80, 80)
	ele := mustTileElement(t, tile, true, false, 4)

	if got := ele.NumTiles(); got != 4 {
		t.Fatalf("NumTiles = %d, want 4", got)
	}
	if got := ele.NumRows(); got != 8 {
		t.Fatalf("NumRows = %d, want 8", got)
	}
	if got := ele.Height(); got != 640 {
		t.Fatalf("Height = %d, want 640", got)
	}

	pinfo, y0, flip, err := ele.GetTileInfo(3)
	if err != nil {
		t.Fatalf("GetTileInfo(3): %v", err)
	}
	if pinfo != tile || y0 != 480 || !flip {
		t.Errorf("GetTileInfo(3) = (%s, %d, %v), want (unit, 480, true)",
			pinfo.Name(), y0, flip)
	}

	// the second row from the bottom of the fourth tile, which is
	// upside down, addresses the tile's first row
	tileIdx, rowIdx, err := ele.FlatRowToTileRow(7)
	if err != nil {
		t.Fatalf("FlatRowToTileRow(7): %v", err)
	}
	if tileIdx != 3 || rowIdx != 0 {
		t.Errorf("FlatRowToTileRow(7) = (%d, %d), want (3, 0)", tileIdx, rowIdx)
	}

	for flat := 0; flat < ele.NumRows(); flat++ {
		ti, ri, err := ele.FlatRowToTileRow(flat)
		if err != nil {
			t.Fatalf("FlatRowToTileRow(%d): %v", flat, err)
		}
		back, flipTile, err := ele.FlatRowIdxAndFlip(ti, ri)
		if err != nil {
			t.Fatalf("FlatRowIdxAndFlip(%d, %d): %v", ti, ri, err)
		}
		if back != flat {
			t.Errorf("row round trip: %d -> (%d, %d) -> %d", flat, ti, ri, back)
		}
		if flipTile != (ti&1 == 1) {
			t.Errorf("tile %d flip = %v, want %v", ti, flipTile, ti&1 == 1)
		}
	}
}

func TestTilePatternComposite(t *testing.T) {
	ai := testArrayInfo(t)
	tileA := syntheticTile(t, ai, "a", 60)
	tileB := syntheticTile(t, ai, "b", 40, 60)
	pat, err := NewTilePattern([]TilePatternElement{
		mustTileElement(t, tileA, false, false, 1),
		mustTileElement(t, tileB, false, false, 1),
	})
	if err != nil {
		t.Fatalf("NewTilePattern: %v", err)
	}
	ele, err := NewPatternElement(pat, true, false, 2)
	if err != nil {
		t.Fatalf("NewPatternElement: %v", err)
	}

	if got := ele.NumTiles(); got != 4 {
		t.Fatalf("NumTiles = %d, want 4", got)
	}
	if got := ele.NumRows(); got != 6 {
		t.Fatalf("NumRows = %d, want 6", got)
	}
	if got := ele.Height(); got != 320 {
		t.Fatalf("Height = %d, want 320", got)
	}

	cases := []struct {
		tileIdx int
		want    *PlaceInfo
		y0      int
		flip    bool
	}{
		{0, tileA, 0, false},
		{1, tileB, 60, false},
		{2, tileB, 160, true},
		{3, tileA, 260, true},
	}
	for _, c := range cases {
		pinfo, y0, flip, err := ele.GetTileInfo(c.tileIdx)
		if err != nil {
			t.Fatalf("GetTileInfo(%d): %v", c.tileIdx, err)
		}
		if pinfo != c.want || y0 != c.y0 || flip != c.flip {
			t.Errorf("GetTileInfo(%d) = (%s, %d, %v), want (%s, %d, %v)",
				c.tileIdx, pinfo.Name(), y0, flip, c.want.Name(), c.y0, c.flip)
		}
	}

	if got := ele.NumTilesToRows(3); got != 5 {
		t.Errorf("NumTilesToRows(3) = %d, want 5", got)
	}

	tileIdx, rowIdx, err := ele.FlatRowToTileRow(3)
	if err != nil {
		t.Fatalf("FlatRowToTileRow(3): %v", err)
	}
	if tileIdx != 2 || rowIdx != 1 {
		t.Errorf("FlatRowToTileRow(3) = (%d, %d), want (2, 1)", tileIdx, rowIdx)
	}

	for flat := 0; flat < ele.NumRows(); flat++ {
		ti, ri, err := ele.FlatRowToTileRow(flat)
		if err != nil {
			t.Fatalf("FlatRowToTileRow(%d): %v", flat, err)
		}
		back, _, err := ele.FlatRowIdxAndFlip(ti, ri)
		if err != nil {
			t.Fatalf("FlatRowIdxAndFlip(%d, %d): %v", ti, ri, err)
		}
		if back != flat {
			t.Errorf("row round trip: %d -> (%d, %d) -> %d", flat, ti, ri, back)
		}
	}
}

func TestTileElementSubPattern(t *testing.T) {
	ai := testArrayInfo(t)
	tileA := syntheticTile(t, ai, "a", 60)

	plain := mustTileElement(t, tileA, false, false, 4)
	sub, err := plain.GetSubPatternElement(2, 1, false, false, 0)
	if err != nil {
		t.Fatalf("GetSubPatternElement: %v", err)
	}
	if !sub.Equal(mustTileElement(t, tileA, false, false, 2)) {
		t.Error("prefix of a plain stack should collapse to a shorter stack")
	}

	rev, err := plain.GetSubPatternElement(2, 1, false, true, 0)
	if err != nil {
		t.Fatalf("GetSubPatternElement flipped: %v", err)
	}
	if !rev.Equal(mustTileElement(t, tileA, false, true, 2)) {
		t.Error("flipped prefix of a plain stack should collapse to a reversed stack")
	}

	mirrored := mustTileElement(t, tileA, true, false, 4)
	sub3, err := mirrored.GetSubPatternElement(3, 1, false, false, 0)
	if err != nil {
		t.Fatalf("GetSubPatternElement mirrored: %v", err)
	}
	if !sub3.Equal(mustTileElement(t, tileA, true, false, 3)) {
		t.Error("prefix of a mirrored stack should keep the mirroring")
	}
}

func TestTilePatternSubPatternKeepsTiles(t *testing.T) {
	ai := testArrayInfo(t)
	tileA := syntheticTile(t, ai, "a", 60)
	tileB := syntheticTile(t, ai, "b", 40, 60)
	pat, err := NewTilePattern([]TilePatternElement{
		mustTileElement(t, tileA, false, false, 1),
		mustTileElement(t, tileB, false, false, 1),
	})
	if err != nil {
		t.Fatalf("NewTilePattern: %v", err)
	}
	ele, err := NewPatternElement(pat, true, false, 2)
	if err != nil {
		t.Fatalf("NewPatternElement: %v", err)
	}

	// a prefix sub-pattern must present the same tiles at the same
	// coordinates as the element it was cut from
	sub, err := ele.GetSubPatternElement(3, 1, false, false, 0)
	if err != nil {
		t.Fatalf("GetSubPatternElement: %v", err)
	}
	if got := sub.NumTiles(); got != 3 {
		t.Fatalf("sub NumTiles = %d, want 3", got)
	}
	for idx := 0; idx < 3; idx++ {
		wantInfo, wantY, wantFlip, err := ele.GetTileInfo(idx)
		if err != nil {
			t.Fatalf("GetTileInfo(%d): %v", idx, err)
		}
		gotInfo, gotY, gotFlip, err := sub.GetTileInfo(idx)
		if err != nil {
			t.Fatalf("sub GetTileInfo(%d): %v", idx, err)
		}
		if gotInfo != wantInfo || gotY != wantY || gotFlip != wantFlip {
			t.Errorf("sub tile %d = (%s, %d, %v), want (%s, %d, %v)",
				idx, gotInfo.Name(), gotY, gotFlip, wantInfo.Name(), wantY, wantFlip)
		}
	}
}

func TestTileElementTrackInfo(t *testing.T) {
	ai := testArrayInfo(t)

	rows := []RowPlaceInfo{{
		BotWires: singleWireLookup("g", track.New(1), 1),
		TopWires: singleWireLookup("d", track.New(3), 1),
		YB:       0, YT: 160, YBBlk: 0, YTBlk: 160,
		YConn: [2]int{0, 160},
	}}
	lookup := map[int]*wires.WireLookup{3: singleWireLookup("clk", track.New(1), 1)}
	tile, err := NewPlaceInfo("unit", ai, rows, true, true, nil, 0, lookup)
	if err != nil {
		t.Fatalf("NewPlaceInfo: %v", err)
	}
	ele := mustTileElement(t, tile, true, false, 2)

	// tile-level wire: track 1 sits 40 units up; the flipped copy
	// mirrors it to 120 units below its own top at 320
	tr, w, err := ele.HMTrackInfo(3, "clk", 0, 0)
	if err != nil {
		t.Fatalf("HMTrackInfo tile 0: %v", err)
	}
	if tr != track.New(1) || w != 1 {
		t.Errorf("tile 0 clk = (%s, %d), want (1, 1)", tr, w)
	}
	tr, _, err = ele.HMTrackInfo(3, "clk", 0, 1)
	if err != nil {
		t.Fatalf("HMTrackInfo tile 1: %v", err)
	}
	if tr != track.New(7) {
		t.Errorf("tile 1 clk = %s, want 7", tr)
	}

	// row wire through the wire-type side selection: gate wires of an
	// unflipped row live on the bottom lookup
	tr, _, err = ele.GetTrackInfo(0, mos.WireG, "g", 0, 0)
	if err != nil {
		t.Fatalf("GetTrackInfo tile 0: %v", err)
	}
	if tr != track.New(1) {
		t.Errorf("tile 0 g = %s, want 1", tr)
	}
	tr, _, err = ele.GetTrackInfo(0, mos.WireG, "g", 0, 1)
	if err != nil {
		t.Fatalf("GetTrackInfo tile 1: %v", err)
	}
	if tr != track.New(7) {
		t.Errorf("tile 1 g = %s, want 7", tr)
	}

	lo, hi, err := ele.WireRange(0, mos.WireG, "g", 0)
	if err != nil {
		t.Fatalf("WireRange: %v", err)
	}
	if lo != 0 || hi != 1 {
		t.Errorf("WireRange = [%d, %d), want [0, 1)", lo, hi)
	}
}
