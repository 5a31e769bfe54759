package wires

import (
	"strings"
	"testing"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/track"
)

func testManager(t *testing.T, spaces track.SpaceTable) *track.Manager {
	t.Helper()
	g, err := track.NewUniformGrid(40, nil)
	if err != nil {
		t.Fatalf("NewUniformGrid: %v", err)
	}
	if spaces == nil {
		spaces = track.SpaceTable{track.DefaultWireType: {1: track.Half, 2: track.Half}}
	}
	return track.NewManager(g, nil, spaces)
}

func buildChain(t *testing.T, tm *track.Manager, shared []string, names ...string) *WireGraph {
	t.Helper()
	wire := make([]Wire, len(names))
	for i, n := range names {
		wire[i] = Wire{Name: n}
	}
	b := NewWireGraphBuilder()
	if err := b.RegisterWires(wire, AlignLowerCompact); err != nil {
		t.Fatalf("RegisterWires: %v", err)
	}
	for _, s := range shared {
		if err := b.RegisterSharedWire(s); err != nil {
			t.Fatalf("RegisterSharedWire(%s): %v", s, err)
		}
	}
	return b.Graph(1, tm)
}

func trackOf(t *testing.T, g *WireGraph, name string, idx int) track.HalfInt {
	t.Helper()
	info, err := g.Lookup().GetTrackInfo(name, idx)
	if err != nil {
		t.Fatalf("GetTrackInfo(%s<%d>): %v", name, idx, err)
	}
	return info.Track
}

func TestPlaceCompactChain(t *testing.T) {
	tm := testManager(t, nil)
	g := buildChain(t, tm, nil, "vss", "in", "out")

	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{}); err != nil {
		t.Fatalf("PlaceCompact: %v", err)
	}

	// width-1 wires with half-track space stack one track apart,
	// starting half a track above the boundary
	if got := trackOf(t, g, "vss", 0); got != track.Half {
		t.Errorf("vss = %v, want 0.5", got)
	}
	if got := trackOf(t, g, "in", 0); got != track.FromDbl(3) {
		t.Errorf("in = %v, want 1.5", got)
	}
	if got := trackOf(t, g, "out", 0); got != track.FromDbl(5) {
		t.Errorf("out = %v, want 2.5", got)
	}
	// upper edge of out is 110; next track boundary is 120
	if g.Upper() != 120 {
		t.Errorf("Upper = %d, want 120", g.Upper())
	}
	if g.Lower() != 0 {
		t.Errorf("Lower = %d, want 0", g.Lower())
	}
}

func TestPlaceCompactSharedSource(t *testing.T) {
	tm := testManager(t, nil)
	g := buildChain(t, tm, []string{"vss"}, "vss", "in", "out")

	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{}); err != nil {
		t.Fatalf("PlaceCompact: %v", err)
	}

	// shared source sits exactly on the lower boundary
	if got := trackOf(t, g, "vss", 0); got != track.Zero {
		t.Errorf("vss = %v, want 0", got)
	}
	if got := trackOf(t, g, "in", 0); got != track.New(1) {
		t.Errorf("in = %v, want 1", got)
	}
	if got := trackOf(t, g, "out", 0); got != track.New(2) {
		t.Errorf("out = %v, want 2", got)
	}
	if g.Upper() != 100 {
		t.Errorf("Upper = %d, want 100", g.Upper())
	}
}

func TestPlaceCompactSharedSink(t *testing.T) {
	tm := testManager(t, nil)
	g := buildChain(t, tm, []string{"vss", "vdd"}, "vss", "sig", "vdd")

	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{}); err != nil {
		t.Fatalf("PlaceCompact: %v", err)
	}

	// shared sink lands exactly on the upper boundary
	if got := trackOf(t, g, "vdd", 0); got != track.New(2) {
		t.Errorf("vdd = %v, want 2", got)
	}
	if g.Upper() != 80 {
		t.Errorf("Upper = %d, want 80", g.Upper())
	}
	sinks := g.Sinks()
	if len(sinks) != 1 || sinks[0].Track != track.New(2) {
		t.Errorf("Sinks = %v", sinks)
	}
}

func TestPlaceCompactSharedSinkLineEnd(t *testing.T) {
	tm := testManager(t, nil)
	g := buildChain(t, tm, []string{"vss", "vdd"}, "vss", "sig", "vdd")

	// conn wires from below reach up to y=90; the line-end bound puts
	// the shared sink at half-track 3.5, which must round to a whole
	// track
	ytc := 90
	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{YTopConn: &ytc}); err != nil {
		t.Fatalf("PlaceCompact: %v", err)
	}
	if got := trackOf(t, g, "vdd", 0); got != track.New(4) {
		t.Errorf("vdd = %v, want 4", got)
	}
	if g.Upper() != 160 {
		t.Errorf("Upper = %d, want 160", g.Upper())
	}
}

func TestPlaceCompactBotMirror(t *testing.T) {
	tm := testManager(t, nil)
	g := buildChain(t, tm, nil, "sig")

	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{BotMirror: true}); err != nil {
		t.Fatalf("PlaceCompact: %v", err)
	}
	// self-mirror keeps the wire at least half a whole-track sep from
	// the boundary; here sep is one track so nothing changes
	if got := trackOf(t, g, "sig", 0); got != track.Half {
		t.Errorf("sig = %v, want 0.5", got)
	}
}

func TestPlaceCompactMirrorConflict(t *testing.T) {
	spaces := track.SpaceTable{
		"a": {1: track.Half},
		"b": {1: track.FromDbl(7)},
	}
	tm := testManager(t, spaces)
	b := NewWireGraphBuilder()
	if err := b.RegisterWires([]Wire{{Name: "a"}}, AlignLowerCompact); err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterWires([]Wire{{Name: "b"}}, AlignLowerCompact); err != nil {
		t.Fatal(err)
	}
	g := b.Graph(1, tm)

	err := g.PlaceCompact(1, tm, PlaceCompactOptions{BotMirror: true})
	if !errors.Is(err, errors.ErrCodeMirrorUnresolved) {
		t.Fatalf("PlaceCompact error = %v, want %s", err, errors.ErrCodeMirrorUnresolved)
	}
}

func TestPlaceCompactPrevGraph(t *testing.T) {
	tm := testManager(t, nil)
	prev := buildChain(t, tm, nil, "x", "y")
	if err := prev.PlaceCompact(1, tm, PlaceCompactOptions{}); err != nil {
		t.Fatal(err)
	}

	g := buildChain(t, tm, nil, "sig")
	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{Prev: prev}); err != nil {
		t.Fatal(err)
	}
	// sig must clear y at 1.5 by one track
	if got := trackOf(t, g, "sig", 0); got != track.FromDbl(5) {
		t.Errorf("sig = %v, want 2.5", got)
	}
}

func TestPlaceCompactCycle(t *testing.T) {
	tm := testManager(t, nil)
	b := NewWireGraphBuilder()
	if err := b.RegisterWires([]Wire{{Name: "a"}, {Name: "b"}}, AlignLowerCompact); err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterWires([]Wire{{Name: "b"}, {Name: "a"}}, AlignLowerCompact); err != nil {
		t.Fatal(err)
	}
	g := b.Graph(1, tm)

	err := g.PlaceCompact(1, tm, PlaceCompactOptions{})
	if !errors.Is(err, errors.ErrCodeGraphCycle) {
		t.Fatalf("PlaceCompact error = %v, want %s", err, errors.ErrCodeGraphCycle)
	}
}

func TestAlignWiresUpperCompact(t *testing.T) {
	tm := testManager(t, nil)
	b := NewWireGraphBuilder()
	err := b.RegisterWires([]Wire{{Name: "vss"}, {Name: "in"}, {Name: "out"}}, AlignUpperCompact)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterSharedWire("vss"); err != nil {
		t.Fatal(err)
	}
	g := b.Graph(1, tm)
	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := g.AlignWires(1, tm, 0, 200, nil); err != nil {
		t.Fatalf("AlignWires: %v", err)
	}
	// out hugs the top, in sits one track below, shared vss stays on
	// the bottom boundary
	if got := trackOf(t, g, "out", 0); got != track.FromDbl(9) {
		t.Errorf("out = %v, want 4.5", got)
	}
	if got := trackOf(t, g, "in", 0); got != track.FromDbl(7) {
		t.Errorf("in = %v, want 3.5", got)
	}
	if got := trackOf(t, g, "vss", 0); got != track.Zero {
		t.Errorf("vss = %v, want 0", got)
	}
}

func TestAlignWiresCenterCompact(t *testing.T) {
	tm := testManager(t, nil)
	b := NewWireGraphBuilder()
	if err := b.RegisterWires([]Wire{{Name: "x"}, {Name: "y"}}, AlignCenterCompact); err != nil {
		t.Fatal(err)
	}
	g := b.Graph(1, tm)
	if !g.HasCenter() {
		t.Fatal("HasCenter = false")
	}
	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{}); err != nil {
		t.Fatal(err)
	}
	// symmetric even group keeps a whole-track middle gap
	if d := trackOf(t, g, "y", 0) - trackOf(t, g, "x", 0); !d.IsWhole() {
		t.Fatalf("middle gap %v is not whole", d)
	}

	if err := g.AlignWires(1, tm, 0, 200, nil); err != nil {
		t.Fatalf("AlignWires: %v", err)
	}
	x, y := trackOf(t, g, "x", 0), trackOf(t, g, "y", 0)
	// group midpoint moves to the area center at track 2.5
	if mid := track.MiddleTrack(x, y); mid != track.FromDbl(5) {
		t.Errorf("group middle = %v, want 2.5", mid)
	}
	if y-x != track.One {
		t.Errorf("gap = %v, want 1", y-x)
	}
}

func TestSetUpper(t *testing.T) {
	tm := testManager(t, nil)
	g := buildChain(t, tm, []string{"vss", "vdd"}, "vss", "sig", "vdd")
	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := g.SetUpper(1, tm, 160); err != nil {
		t.Fatalf("SetUpper: %v", err)
	}
	if g.Upper() != 160 {
		t.Errorf("Upper = %d, want 160", g.Upper())
	}
	if got := trackOf(t, g, "vdd", 0); got != track.New(4) {
		t.Errorf("vdd = %v, want 4", got)
	}

	if err := g.SetUpper(1, tm, 40); !errors.Is(err, errors.ErrCodeBoundViolation) {
		t.Fatalf("SetUpper shrink error = %v, want %s", err, errors.ErrCodeBoundViolation)
	}
}

func TestRegisterSharedWireErrors(t *testing.T) {
	tm := testManager(t, nil)
	b := NewWireGraphBuilder()
	if err := b.RegisterWires([]Wire{{Name: "a"}, {Name: "b"}, {Name: "c"}}, AlignLowerCompact); err != nil {
		t.Fatal(err)
	}

	if err := b.RegisterSharedWire("b"); err == nil {
		t.Error("interior wire accepted as shared")
	}
	if err := b.RegisterSharedWire("nope"); !errors.Is(err, errors.ErrCodeWireNotFound) {
		t.Errorf("missing wire error = %v", err)
	}
	if err := b.RegisterSharedWire("a<1:0>"); err == nil {
		t.Error("bus accepted as shared")
	}
	_ = tm
}

func TestToDOT(t *testing.T) {
	tm := testManager(t, nil)
	g := buildChain(t, tm, []string{"vss"}, "vss", "sig")
	if err := g.PlaceCompact(1, tm, PlaceCompactOptions{}); err != nil {
		t.Fatal(err)
	}
	dot := g.ToDOT()
	for _, want := range []string{"digraph WireGraph", "vss<0>", "sig<0>", "->"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}
