package place

import (
	"testing"

	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/track"
	"github.com/calderan/mosaic/pkg/wires"
)

func wireNames(names ...string) wires.WireData {
	ws := make([]wires.Wire, len(names))
	for i, n := range names {
		ws[i] = wires.Wire{Name: n}
	}
	return wires.WireData{Groups: []wires.WireGroup{{Wires: ws}}}
}

func placeTestManager(t *testing.T) *track.Manager {
	t.Helper()
	grid, err := track.NewUniformGrid(40, nil)
	if err != nil {
		t.Fatalf("NewUniformGrid: %v", err)
	}
	return track.NewManager(grid, nil, nil)
}

func TestPlaceRowsSingleMirrored(t *testing.T) {
	tm := placeTestManager(t)
	tech := mos.NewSimTech(20)
	specs := []mos.RowSpec{{
		MOSType:  mos.NCh,
		Width:    4,
		BotWires: wireNames("g"),
		TopWires: wireNames("s", "d"),
	}}
	rows, graphs, err := PlaceRows(tm, tech, specs, RowsOptions{BotMirror: true, TopMirror: true})
	if err != nil {
		t.Fatalf("PlaceRows: %v", err)
	}
	if len(rows) != 1 || len(graphs) != 1 {
		t.Fatalf("got %d rows, %d graph sets, want 1 each", len(rows), len(graphs))
	}

	r := rows[0]
	if r.YB != 0 {
		t.Errorf("YB = %d, want 0", r.YB)
	}
	// the device block spans exactly the technology row height
	if got := r.YTBlk - r.YBBlk; got != 80 {
		t.Errorf("block height = %d, want 80", got)
	}
	if r.YT <= 0 || r.YT%tech.BlkHPitch() != 0 {
		t.Errorf("total height %d is not a positive block-pitch multiple", r.YT)
	}
	if r.YB > r.YBBlk || r.YBBlk >= r.YTBlk || r.YTBlk > r.YT {
		t.Errorf("bounds not nested: yb=%d yb_blk=%d yt_blk=%d yt=%d",
			r.YB, r.YBBlk, r.YTBlk, r.YT)
	}
	if r.YConn[0] < r.YB || r.YConn[1] > r.YT || r.YConn[0] > r.YConn[1] {
		t.Errorf("YConn %v outside row [%d, %d]", r.YConn, r.YB, r.YT)
	}

	for _, base := range []string{"g"} {
		if _, _, err := r.BotWires.WireRange(base); err != nil {
			t.Errorf("bottom wire %s missing: %v", base, err)
		}
	}
	for _, base := range []string{"s", "d"} {
		if _, _, err := r.TopWires.WireRange(base); err != nil {
			t.Errorf("top wire %s missing: %v", base, err)
		}
	}

	// all placed wires stay inside the row with room for their width
	grid := tm.Grid()
	hm := tech.ConnLayer() + 1
	for _, wl := range []*wires.WireLookup{r.BotWires, r.TopWires} {
		for _, ref := range wl.Refs() {
			info, _ := wl.Get(ref)
			lo, hi := grid.WireBounds(hm, info.Track, info.Width)
			if lo < r.YB || hi > r.YT {
				t.Errorf("wire %s spans [%d, %d] outside row [%d, %d]",
					ref, lo, hi, r.YB, r.YT)
			}
		}
	}
}

func TestPlaceRowsStackedFlipped(t *testing.T) {
	tm := placeTestManager(t)
	tech := mos.NewSimTech(20)
	specs := []mos.RowSpec{
		{
			MOSType:  mos.NCh,
			Width:    4,
			BotWires: wireNames("g0"),
			TopWires: wireNames("s0", "d0"),
		},
		{
			MOSType:  mos.NCh,
			Width:    4,
			Flip:     true,
			BotWires: wireNames("s1", "d1"),
			TopWires: wireNames("g1"),
		},
	}
	rows, _, err := PlaceRows(tm, tech, specs, RowsOptions{BotMirror: true, TopMirror: true})
	if err != nil {
		t.Fatalf("PlaceRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if !rows[1].RowInfo.Flip {
		t.Error("second row should be flipped")
	}
	if rows[1].YB != rows[0].YT {
		t.Errorf("rows not contiguous: row0 yt=%d, row1 yb=%d", rows[0].YT, rows[1].YB)
	}
	// the gap between the device blocks is the extension region, an
	// integer number of block pitches
	gap := rows[1].YBBlk - rows[0].YTBlk
	if gap < 0 || gap%tech.BlkHPitch() != 0 {
		t.Errorf("extension gap %d is not a non-negative block-pitch multiple", gap)
	}
	if rows[1].YT%tech.BlkHPitch() != 0 {
		t.Errorf("total height %d is not block-pitch aligned", rows[1].YT)
	}

	for i, r := range rows {
		if r.YB > r.YBBlk || r.YBBlk >= r.YTBlk || r.YTBlk > r.YT {
			t.Errorf("row %d bounds not nested: yb=%d yb_blk=%d yt_blk=%d yt=%d",
				i, r.YB, r.YBBlk, r.YTBlk, r.YT)
		}
	}
}

func TestPlaceRowsMinHeight(t *testing.T) {
	tm := placeTestManager(t)
	tech := mos.NewSimTech(20)
	specs := []mos.RowSpec{{
		MOSType:  mos.NCh,
		Width:    4,
		BotWires: wireNames("g"),
		TopWires: wireNames("s", "d"),
	}}
	base, _, err := PlaceRows(tm, tech, specs, RowsOptions{BotMirror: true, TopMirror: true})
	if err != nil {
		t.Fatalf("PlaceRows: %v", err)
	}
	want := base[0].YT + 250
	tall, _, err := PlaceRows(tm, tech, specs, RowsOptions{
		TotHeightMin:   want,
		TotHeightPitch: 100,
		BotMirror:      true,
		TopMirror:      true,
	})
	if err != nil {
		t.Fatalf("PlaceRows tall: %v", err)
	}
	if got := tall[0].YT; got < want || got%100 != 0 {
		t.Errorf("height = %d, want a multiple of 100 at least %d", got, want)
	}
}

func TestPlaceRowsEmpty(t *testing.T) {
	tm := placeTestManager(t)
	_, _, err := PlaceRows(tm, mos.NewSimTech(20), nil, RowsOptions{})
	if err == nil {
		t.Fatal("expected an error for an empty row list")
	}
}

func TestPlaceRowsDoubleGate(t *testing.T) {
	tm := placeTestManager(t)
	tech := mos.NewSimTech(20)
	specs := []mos.RowSpec{{
		MOSType:    mos.NCh,
		Width:      4,
		DoubleGate: true,
		BotWires:   wireNames("g"),
		MidWires:   wireNames("s", "d"),
		TopWires:   wireNames("g2"),
	}}
	rows, graphs, err := PlaceRows(tm, tech, specs, RowsOptions{BotMirror: true, TopMirror: true})
	if err != nil {
		t.Fatalf("PlaceRows: %v", err)
	}
	if len(rows) != 1 || len(graphs) != 1 {
		t.Fatalf("got %d rows, %d graph sets, want 1 each", len(rows), len(graphs))
	}

	r := rows[0]
	if r.MidWires.Empty() {
		t.Fatal("double-gate row has no middle wire lookup")
	}
	if graphs[0].Mid.Empty() {
		t.Fatal("double-gate row has an empty middle wire graph")
	}
	for _, base := range []string{"s", "d"} {
		if _, _, err := r.MidWires.WireRange(base); err != nil {
			t.Errorf("middle wire %s missing: %v", base, err)
		}
	}

	// drain/source wires sit between the gate below and the second gate
	// above
	grid := tm.Grid()
	hm := tech.ConnLayer() + 1
	span := func(wl *wires.WireLookup) (int, int) {
		lo, hi := coordMax, coordMin
		for _, ref := range wl.Refs() {
			info, _ := wl.Get(ref)
			wlo, whi := grid.WireBounds(hm, info.Track, info.Width)
			if wlo < lo {
				lo = wlo
			}
			if whi > hi {
				hi = whi
			}
		}
		return lo, hi
	}
	_, botHi := span(r.BotWires)
	midLo, midHi := span(r.MidWires)
	topLo, topHi := span(r.TopWires)
	if botHi > midLo {
		t.Errorf("bottom wires end at %d, above middle wires starting at %d", botHi, midLo)
	}
	if midHi > topLo {
		t.Errorf("middle wires end at %d, above top wires starting at %d", midHi, topLo)
	}
	if midLo < r.YB || topHi > r.YT {
		t.Errorf("wires span [%d, %d] outside row [%d, %d]", midLo, topHi, r.YB, r.YT)
	}

	// the second gate is a device terminal, not a boundary wire: asking
	// for a mirrored top row may grow the row but must not move it
	plain, _, err := PlaceRows(tm, tech, specs, RowsOptions{BotMirror: true})
	if err != nil {
		t.Fatalf("PlaceRows without top mirror: %v", err)
	}
	for _, ref := range r.TopWires.Refs() {
		got, _ := r.TopWires.Get(ref)
		want, ok := plain[0].TopWires.Get(ref)
		if !ok || got.Track != want.Track {
			t.Errorf("top wire %s moved under top mirror: track %v, want %v",
				ref, got.Track, want.Track)
		}
	}
}
