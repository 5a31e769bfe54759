package array

import (
	"testing"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/place"
	"github.com/calderan/mosaic/pkg/track"
)

func testArrayInfo(t *testing.T) *place.ArrayInfo {
	t.Helper()
	grid, err := track.NewUniformGrid(40, nil)
	if err != nil {
		t.Fatalf("NewUniformGrid: %v", err)
	}
	tm := track.NewManager(grid, nil, nil)
	ai, err := place.NewArrayInfo(tm, mos.NewSimTech(20), 0, true, nil)
	if err != nil {
		t.Fatalf("NewArrayInfo: %v", err)
	}
	return ai
}

func testTile(t *testing.T, ai *place.ArrayInfo, name string, rowInfos ...mos.RowInfo) *place.PlaceInfo {
	t.Helper()
	rows := make([]place.RowPlaceInfo, len(rowInfos))
	y := 0
	for i, ri := range rowInfos {
		h := ri.Height
		if h == 0 {
			h = 80
		}
		rows[i] = place.RowPlaceInfo{
			RowInfo: ri,
			YB:      y, YT: y + h, YBBlk: y, YTBlk: y + h,
			YConn: [2]int{y, y + h},
		}
		y += h
	}
	pi, err := place.NewPlaceInfo(name, ai, rows, true, true, nil, 0, nil)
	if err != nil {
		t.Fatalf("NewPlaceInfo(%s): %v", name, err)
	}
	return pi
}

func nchRow() mos.RowInfo {
	return mos.RowInfo{RowType: mos.NCh, Width: 4, SubWidth: 4, Threshold: "std", Height: 80}
}

func testElement(t *testing.T, pi *place.PlaceInfo, mirror bool, mult int) place.TilePatternElement {
	t.Helper()
	ele, err := place.NewTileElement(pi, mirror, false, mult)
	if err != nil {
		t.Fatalf("NewTileElement: %v", err)
	}
	return ele
}

func blkExt(th string, fg int) mos.BlkExtInfo {
	return mos.BlkExtInfo{
		RowType:   mos.NCh,
		Threshold: th,
		FgDev:     []mos.FgDev{{Fg: fg, MOSType: mos.NCh}},
	}
}

func TestGetInterval(t *testing.T) {
	cases := []struct {
		col, seg    int
		flipLR      bool
		start, stop int
	}{
		{5, 3, false, 5, 8},
		{5, 3, true, 2, 5},
		{0, 2, true, -2, 0},
	}
	for _, c := range cases {
		start, stop := GetInterval(c.col, c.seg, c.flipLR)
		if start != c.start || stop != c.stop {
			t.Errorf("GetInterval(%d, %d, %v) = [%d, %d), want [%d, %d)",
				c.col, c.seg, c.flipLR, start, stop, c.start, c.stop)
		}
	}
}

func TestAddMOSRawOverlap(t *testing.T) {
	ai := testArrayInfo(t)
	tile := testTile(t, ai, "unit", nchRow())
	u, err := NewUsedArray(testElement(t, tile, false, 1))
	if err != nil {
		t.Fatalf("NewUsedArray: %v", err)
	}

	ext := blkExt("std", 2)
	if err := u.AddMOSRaw(0, false, 7, 2, false, false, nil, nil, ext, ext, nil); err != nil {
		t.Fatalf("AddMOSRaw: %v", err)
	}

	// [5, 10) intersects the occupied [7, 9)
	err = u.AddMOSRaw(0, false, 5, 5, false, false, nil, nil, ext, ext, nil)
	if !errors.Is(err, errors.ErrCodeOverlap) {
		t.Fatalf("got %v, want an overlap error", err)
	}

	// the failed insert left the row untouched
	got := u.IntvIter(0)
	if len(got) != 1 || got[0] != [2]int{7, 9} {
		t.Errorf("intervals after failed add = %v, want [[7 9]]", got)
	}
	if u.NumCols() != 9 {
		t.Errorf("NumCols = %d, want 9", u.NumCols())
	}
}

func TestAddMOSRawTouchingAndAbut(t *testing.T) {
	ai := testArrayInfo(t)
	tile := testTile(t, ai, "unit", nchRow())
	u, err := NewUsedArray(testElement(t, tile, false, 1))
	if err != nil {
		t.Fatalf("NewUsedArray: %v", err)
	}

	leftEdge := &mos.EdgeInfo{Info: mos.Params{"dev": "a"}}
	rightEdge := &mos.EdgeInfo{Info: mos.Params{"dev": "b"}}
	ext := blkExt("std", 4)
	var abut []mos.AbutInfo

	if err := u.AddMOSRaw(0, false, 0, 4, false, false, leftEdge, rightEdge, ext, ext, &abut); err != nil {
		t.Fatalf("first AddMOSRaw: %v", err)
	}
	if len(abut) != 0 {
		t.Fatalf("unexpected abut records after first device: %v", abut)
	}

	// the second device touches the first at column 4
	secondLeft := &mos.EdgeInfo{Info: mos.Params{"dev": "c"}}
	if err := u.AddMOSRaw(0, false, 4, 4, false, false, secondLeft, rightEdge, ext, ext, &abut); err != nil {
		t.Fatalf("second AddMOSRaw: %v", err)
	}
	if len(abut) != 1 {
		t.Fatalf("got %d abut records, want 1", len(abut))
	}
	rec := abut[0]
	if rec.RowFlat != 0 || rec.Col != 4 {
		t.Errorf("abut at (%d, %d), want (0, 4)", rec.RowFlat, rec.Col)
	}
	if rec.EdgeL.Get("dev", "") != "b" || rec.EdgeR.Get("dev", "") != "c" {
		t.Errorf("abut edges = (%v, %v), want (b, c)", rec.EdgeL, rec.EdgeR)
	}
	// the shared boundary record is consumed
	if got := u.GetEdgeInfo(0, 4); !got.Empty() {
		t.Errorf("edge info at column 4 = %v, want empty", got)
	}
	// the outer boundaries remain
	if got := u.GetEdgeInfo(0, 0); got.Get("dev", "") != "a" {
		t.Errorf("edge info at column 0 = %v, want dev a", got)
	}
}

func TestAddMOSRawFlipSwapsExtInfo(t *testing.T) {
	ai := testArrayInfo(t)
	tile := testTile(t, ai, "unit", nchRow())
	u, err := NewUsedArray(testElement(t, tile, false, 1))
	if err != nil {
		t.Fatalf("NewUsedArray: %v", err)
	}

	bot := blkExt("lvt", 2)
	top := blkExt("hvt", 2)
	if err := u.AddMOSRaw(0, true, 0, 2, false, false, nil, nil, top, bot, nil); err != nil {
		t.Fatalf("AddMOSRaw: %v", err)
	}
	gotBot, err := u.BottomInfo(0)
	if err != nil {
		t.Fatalf("BottomInfo: %v", err)
	}
	gotTop, err := u.TopInfo(0)
	if err != nil {
		t.Fatalf("TopInfo: %v", err)
	}
	// the flipped tile swaps the device's boundaries
	if gotBot[0].Threshold != "hvt" || gotTop[0].Threshold != "lvt" {
		t.Errorf("boundaries = (%s, %s), want (hvt, lvt)",
			gotBot[0].Threshold, gotTop[0].Threshold)
	}
}

func TestUsedArrayMonotone(t *testing.T) {
	ai := testArrayInfo(t)
	tile := testTile(t, ai, "unit", nchRow(), nchRow())
	u, err := NewUsedArray(testElement(t, tile, true, 4))
	if err != nil {
		t.Fatalf("NewUsedArray: %v", err)
	}

	if u.NumTiles() != 1 || u.NumFlatRows() != 2 {
		t.Fatalf("initial state: %d tiles, %d rows, want 1, 2", u.NumTiles(), u.NumFlatRows())
	}
	if err := u.SetNumTiles(3); err != nil {
		t.Fatalf("SetNumTiles: %v", err)
	}
	if u.NumFlatRows() != 6 {
		t.Errorf("NumFlatRows = %d, want 6", u.NumFlatRows())
	}
	if err := u.SetNumTiles(2); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("shrinking tiles: got %v, want an invalid-input error", err)
	}
	if err := u.SetNumCols(10); err != nil {
		t.Fatalf("SetNumCols: %v", err)
	}
	if err := u.SetNumCols(5); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("shrinking columns: got %v, want an invalid-input error", err)
	}

	// adding to a tile past the end grows the array
	ext := blkExt("std", 2)
	if err := u.AddMOS(3, 0, 0, 2, false, false, nil, nil, ext, ext, nil); err != nil {
		t.Fatalf("AddMOS: %v", err)
	}
	if u.NumTiles() != 4 || u.NumFlatRows() != 8 {
		t.Errorf("after AddMOS: %d tiles, %d rows, want 4, 8", u.NumTiles(), u.NumFlatRows())
	}

	// tile 3 is mirrored: its row 0 is the top flat row
	got := u.IntvIter(7)
	if len(got) != 1 || got[0] != [2]int{0, 2} {
		t.Errorf("flat row 7 intervals = %v, want [[0 2]]", got)
	}

	h, err := u.Height()
	if err != nil {
		t.Fatalf("Height: %v", err)
	}
	if h != 4*160 {
		t.Errorf("Height = %d, want 640", h)
	}
}

func TestComplement(t *testing.T) {
	ai := testArrayInfo(t)
	tile := testTile(t, ai, "unit", nchRow())
	u, err := NewUsedArray(testElement(t, tile, false, 1))
	if err != nil {
		t.Fatalf("NewUsedArray: %v", err)
	}

	edge := &mos.EdgeInfo{Info: mos.Params{"dev": "x"}}
	ext := blkExt("std", 2)
	if err := u.AddMOSRaw(0, false, 2, 2, false, false, edge, edge, ext, ext, nil); err != nil {
		t.Fatalf("AddMOSRaw: %v", err)
	}
	if err := u.AddMOSRaw(0, false, 6, 2, false, false, edge, edge, ext, ext, nil); err != nil {
		t.Fatalf("AddMOSRaw: %v", err)
	}

	gaps, err := u.Complement(0, 0, 0, 10)
	if err != nil {
		t.Fatalf("Complement: %v", err)
	}
	want := [][2]int{{0, 2}, {4, 6}, {8, 10}}
	if len(gaps) != len(want) {
		t.Fatalf("got %d gaps, want %d: %v", len(gaps), len(want), gaps)
	}
	for i, g := range gaps {
		if g.Start != want[i][0] || g.Stop != want[i][1] {
			t.Errorf("gap %d = [%d, %d), want [%d, %d)", i, g.Start, g.Stop,
				want[i][0], want[i][1])
		}
	}
	// the middle gap borders both devices
	if gaps[1].Left.Get("dev", "") != "x" || gaps[1].Right.Get("dev", "") != "x" {
		t.Errorf("middle gap edges = (%v, %v), want device records", gaps[1].Left, gaps[1].Right)
	}
	// the outermost boundaries carry no records
	if !gaps[0].Left.Empty() || !gaps[2].Right.Empty() {
		t.Errorf("outer gap edges should be empty: %v, %v", gaps[0].Left, gaps[2].Right)
	}
}

func TestAddTiles(t *testing.T) {
	ai := testArrayInfo(t)
	tile := testTile(t, ai, "unit", nchRow())
	base, err := NewUsedArray(testElement(t, tile, false, 8))
	if err != nil {
		t.Fatalf("NewUsedArray base: %v", err)
	}
	inst, err := NewUsedArray(testElement(t, tile, false, 8))
	if err != nil {
		t.Fatalf("NewUsedArray inst: %v", err)
	}

	edge := &mos.EdgeInfo{Info: mos.Params{"dev": "i"}}
	ext := blkExt("std", 3)
	if err := inst.AddMOS(0, 0, 1, 3, false, false, edge, edge, ext, ext, nil); err != nil {
		t.Fatalf("inst AddMOS tile 0: %v", err)
	}
	if err := inst.AddMOS(1, 0, 0, 2, false, false, edge, edge, ext, ext, nil); err != nil {
		t.Fatalf("inst AddMOS tile 1: %v", err)
	}

	var abut []mos.AbutInfo
	if err := base.AddTiles(2, 4, inst, false, &abut); err != nil {
		t.Fatalf("AddTiles: %v", err)
	}
	if base.NumTiles() != 4 {
		t.Errorf("NumTiles = %d, want 4", base.NumTiles())
	}
	// instance rows land in tiles 2 and 3, shifted right by 4 columns
	if got := base.IntvIter(2); len(got) != 1 || got[0] != [2]int{5, 8} {
		t.Errorf("flat row 2 = %v, want [[5 8]]", got)
	}
	if got := base.IntvIter(3); len(got) != 1 || got[0] != [2]int{4, 6} {
		t.Errorf("flat row 3 = %v, want [[4 6]]", got)
	}
	if base.NumCols() != 8 {
		t.Errorf("NumCols = %d, want 8", base.NumCols())
	}
}

func TestAddTilesTypeMismatch(t *testing.T) {
	ai := testArrayInfo(t)
	tileA := testTile(t, ai, "a", nchRow())
	tileB := testTile(t, ai, "b", nchRow(), nchRow())
	base, err := NewUsedArray(testElement(t, tileA, false, 4))
	if err != nil {
		t.Fatalf("NewUsedArray base: %v", err)
	}
	inst, err := NewUsedArray(testElement(t, tileB, false, 2))
	if err != nil {
		t.Fatalf("NewUsedArray inst: %v", err)
	}
	err = base.AddTiles(0, 0, inst, false, nil)
	if !errors.Is(err, errors.ErrCodeInvalidSpec) {
		t.Fatalf("got %v, want a tile-mismatch error", err)
	}
}

func TestUsedArrayCopy(t *testing.T) {
	ai := testArrayInfo(t)
	tile := testTile(t, ai, "unit", nchRow())
	u, err := NewUsedArray(testElement(t, tile, false, 2))
	if err != nil {
		t.Fatalf("NewUsedArray: %v", err)
	}
	ext := blkExt("std", 2)
	if err := u.AddMOSRaw(0, false, 0, 2, false, false, nil, nil, ext, ext, nil); err != nil {
		t.Fatalf("AddMOSRaw: %v", err)
	}

	cp := u.Copy()
	if err := cp.AddMOSRaw(0, false, 4, 2, false, false, nil, nil, ext, ext, nil); err != nil {
		t.Fatalf("copy AddMOSRaw: %v", err)
	}
	if got := len(u.IntvIter(0)); got != 1 {
		t.Errorf("original has %d intervals after mutating the copy, want 1", got)
	}
	if got := len(cp.IntvIter(0)); got != 2 {
		t.Errorf("copy has %d intervals, want 2", got)
	}
}
