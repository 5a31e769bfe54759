package wires

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/track"
)

func TestMakeWireSpecs(t *testing.T) {
	tm := testManager(t, track.SpaceTable{track.DefaultWireType: {2: track.Half}})

	var wd WireData
	if err := yaml.Unmarshal([]byte(`[a, b]`), &wd); err != nil {
		t.Fatal(err)
	}

	ws, err := MakeWireSpecs(1, 3, tm, map[int]WireData{1: wd}, MakeWireSpecsOptions{})
	if err != nil {
		t.Fatalf("MakeWireSpecs: %v", err)
	}

	// layer 2 is vertical: a at 0.5, b at 1.5, upper edge 70 snaps to 80
	if ws.MinWidth != 80 {
		t.Errorf("MinWidth = %d, want 80", ws.MinWidth)
	}
	// no centered groups, so half-quantum sizing stays enabled
	if ws.BlkWidth != 20 || ws.BlkHeight != 20 {
		t.Errorf("blk = (%d, %d), want (20, 20)", ws.BlkWidth, ws.BlkHeight)
	}
	if ws.MinHeight != 20 {
		t.Errorf("MinHeight = %d, want 20", ws.MinHeight)
	}

	lookups, err := ws.PlaceWires(tm, ws.MinWidth, ws.MinHeight)
	if err != nil {
		t.Fatalf("PlaceWires: %v", err)
	}
	wl, ok := lookups[2]
	if !ok {
		t.Fatal("no lookup for layer 2")
	}
	info, err := wl.GetTrackInfo("a", 0)
	if err != nil || info.Track != track.Half {
		t.Errorf("a = %v, %v", info, err)
	}
}

func TestMakeWireSpecsBlkPitch(t *testing.T) {
	tm := testManager(t, track.SpaceTable{track.DefaultWireType: {2: track.Half}})

	ws, err := MakeWireSpecs(1, 3, tm, nil, MakeWireSpecsOptions{
		MinWidth:  30,
		BlkPitchX: 30,
	})
	if err != nil {
		t.Fatal(err)
	}
	// lcm of grid quantum 20 and requested 30
	if ws.BlkWidth != 60 {
		t.Errorf("BlkWidth = %d, want 60", ws.BlkWidth)
	}
	if ws.MinWidth != 60 {
		t.Errorf("MinWidth = %d, want 60", ws.MinWidth)
	}
}
