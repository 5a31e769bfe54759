package wires

import (
	"math"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/track"
)

const (
	coordMin = math.MinInt32
	coordMax = math.MaxInt32
)

// wireNode carries the mutable placement state of one wire.
type wireNode struct {
	wtype  string
	ptype  string
	width  int
	shared bool
	harden bool
	idx    track.HalfInt
	// parents that must keep a whole-track gap to this wire, so a
	// center-aligned group keeps its middle spacing symmetric
	evenSpaces map[WireRef]struct{}
}

type alignSpec struct {
	wires []WireRef
	align Alignment
}

// SinkWire describes a topmost wire of a placed graph, used to keep the
// next row's source wires clear of it.
type SinkWire struct {
	Track    track.HalfInt
	WireType string
}

// PlaceConstraint adjusts the track index chosen for a wire, keyed by the
// wire's placement type and width. The technology uses these to pin
// certain wires (gate or drain/source connections) to legal conn-layer
// positions.
type PlaceConstraint func(ptype string, width int, idx track.HalfInt) track.HalfInt

// WireGraph is a DAG of wires on one routing layer. Edges order wires
// bottom-up: a child must be placed far enough above all of its parents.
// PlaceCompact assigns initial compact positions and computes the row
// height; AlignWires re-spreads the wires once the final height is known.
type WireGraph struct {
	nodes      map[WireRef]*wireNode
	order      []WireRef
	succ       map[WireRef][]WireRef
	pred       map[WireRef][]WireRef
	alignSpecs []alignSpec
	hasCenter  bool
	lower      int
	upper      int
}

// MakeWireGraph builds and wires up a graph for one layer from a
// normalized WireData. Wire widths are resolved through the track
// manager at build time.
func MakeWireGraph(layer int, tm *track.Manager, data WireData) (*WireGraph, error) {
	b := NewWireGraphBuilder()
	for _, grp := range data.Groups {
		align := AlignLowerCompact
		if grp.Align != nil {
			align = *grp.Align
		}
		if err := b.RegisterWires(grp.Wires, align); err != nil {
			return nil, err
		}
	}
	for _, name := range data.Shared {
		if err := b.RegisterSharedWire(name); err != nil {
			return nil, err
		}
	}
	return b.Graph(layer, tm), nil
}

// Empty reports whether the graph has no wires.
func (g *WireGraph) Empty() bool { return g == nil || len(g.nodes) == 0 }

// HasCenter reports whether any group is center aligned.
func (g *WireGraph) HasCenter() bool { return g.hasCenter }

// Lower returns the lower coordinate from the last placement.
func (g *WireGraph) Lower() int { return g.lower }

// Upper returns the upper coordinate from the last placement.
func (g *WireGraph) Upper() int { return g.upper }

// Sinks returns the track assignment and wire type of every sink wire,
// in registration order.
func (g *WireGraph) Sinks() []SinkWire {
	if g == nil {
		return nil
	}
	var out []SinkWire
	for _, ref := range g.order {
		if len(g.succ[ref]) == 0 {
			n := g.nodes[ref]
			out = append(out, SinkWire{Track: n.idx, WireType: n.wtype})
		}
	}
	return out
}

// Lookup captures the current wire placement as an immutable WireLookup.
func (g *WireGraph) Lookup() *WireLookup {
	data := make(map[WireRef]TrackInfo, len(g.nodes))
	for ref, n := range g.nodes {
		data[ref] = TrackInfo{Track: n.idx, Width: n.width}
	}
	return NewWireLookup(data)
}

// PlacementBounds returns, per placement type, the wires whose edges
// bound the group from below and above.
func (g *WireGraph) PlacementBounds(layer int, grid track.Grid, incShared bool) map[string][2]TrackInfo {
	ans := make(map[string][2]TrackInfo)
	for _, ref := range g.order {
		n := g.nodes[ref]
		if n.shared && !incShared {
			continue
		}
		cur := TrackInfo{Track: n.idx, Width: n.width}
		bnds, ok := ans[n.ptype]
		if !ok {
			ans[n.ptype] = [2]TrackInfo{cur, cur}
			continue
		}
		lo, hi := grid.WireBounds(layer, cur.Track, cur.Width)
		curLo, _ := grid.WireBounds(layer, bnds[0].Track, bnds[0].Width)
		_, curHi := grid.WireBounds(layer, bnds[1].Track, bnds[1].Width)
		if lo < curLo {
			bnds[0] = cur
		}
		if hi > curHi {
			bnds[1] = cur
		}
		ans[n.ptype] = bnds
	}
	return ans
}

// SharedConnY returns the farthest coordinate a vertical connection to a
// boundary shared wire can reach into this row: the minimum over shared
// sinks for the top edge, the maximum over shared sources for the bottom.
func (g *WireGraph) SharedConnY(layer int, grid track.Grid, topEdge bool) int {
	ans := coordMin
	if topEdge {
		ans = coordMax
	}
	for _, ref := range g.order {
		n := g.nodes[ref]
		isSink := len(g.succ[ref]) == 0
		if n.shared && isSink == topEdge {
			vext := grid.ViaExtension(track.Upper, layer, n.width, 1)
			wLo, wHi := grid.WireBounds(layer, n.idx, n.width)
			if topEdge {
				if y := wLo - vext; y < ans {
					ans = y
				}
			} else {
				if y := wHi + vext; y > ans {
					ans = y
				}
			}
		}
	}
	return ans
}

// SetUpper raises the upper boundary to the nearest track at or below
// val and snaps shared sink wires onto the new boundary. The upper bound
// can only grow.
func (g *WireGraph) SetUpper(layer int, tm *track.Manager, val int) error {
	grid := tm.Grid()
	trLast := grid.CoordToTrack(layer, val, track.RoundLessEq)
	newVal := grid.TrackToCoord(layer, trLast)
	if newVal < g.upper {
		return errors.New(errors.ErrCodeBoundViolation,
			"cannot reduce upper bound from %d to %d", g.upper, newVal)
	}
	g.upper = newVal
	for _, ref := range g.order {
		if g.nodes[ref].shared && len(g.succ[ref]) == 0 {
			g.nodes[ref].idx = trLast
		}
	}
	return nil
}

// PlaceCompactOptions configures PlaceCompact. The zero value places the
// graph at coordinate 0 with no mirroring.
type PlaceCompactOptions struct {
	// Lower is the bottom coordinate of the row area.
	Lower int
	// BotMirror requires source wires to stay clear of their own mirror
	// image across the bottom boundary.
	BotMirror bool
	// TopMirror requires the upper bound to keep sink wires clear of the
	// mirrored row above.
	TopMirror bool
	// Shift moves all non-shared source wires up by this many tracks.
	Shift track.HalfInt
	// PCons applies technology placement constraints per wire.
	PCons PlaceConstraint
	// Prev is the already-placed graph directly below, whose sink wires
	// the sources here must clear.
	Prev *WireGraph
	// YTopConn, when set, is the top coordinate of the vertical wires
	// from below; shared sink wires keep line-end spacing from it.
	YTopConn *int
}

// PlaceCompact assigns each wire the lowest track that satisfies all of
// its constraints, processing wires in dependency order, then computes
// the row's upper coordinate.
//
// Source wires are kept clear of the previous row's sinks, of their own
// mirror image when BotMirror is set, and of the bottom boundary. Sink
// wires drive the upper coordinate: shared sinks sit exactly on it,
// non-shared sinks must fit below it, and with TopMirror the bound also
// clears every sink from its mirrored counterpart.
func (g *WireGraph) PlaceCompact(layer int, tm *track.Manager, opts PlaceCompactOptions) error {
	grid := tm.Grid()
	tr0 := grid.CoordToTrack(layer, opts.Lower, track.RoundNone)
	var prevSinks []SinkWire
	if opts.Prev != nil {
		prevSinks = opts.Prev.Sinks()
	}

	order, err := g.topoOrder()
	if err != nil {
		return err
	}

	connSpLE := 0
	if layer > 1 {
		connSpLE = grid.LineEndSpace(layer-1, 1, false)
	}

	var srcList, sinkList []WireRef
	for _, key := range order {
		n := g.nodes[key]
		curIdx := grid.FindNextTrack(layer, opts.Lower, n.width, true, track.RoundGreaterEq)
		if opts.PCons != nil {
			curIdx = opts.PCons(n.ptype, n.width, curIdx)
		}
		isSink := len(g.succ[key]) == 0
		if isSink {
			sinkList = append(sinkList, key)
		}
		if len(g.pred[key]) == 0 {
			srcList = append(srcList, key)
			if n.shared {
				curIdx = tr0
			} else {
				for _, ps := range prevSinks {
					minIdx := tm.NextTrack(layer, ps.Track, ps.WireType, n.wtype, true, true)
					curIdx = track.Max(curIdx, minIdx)
				}
				if opts.BotMirror {
					// clear the wire from its own image across the boundary
					sep := tm.Sep(layer, n.wtype, n.wtype, false)
					curIdx = track.Max(curIdx, sep.Div2(false))
				}
				curIdx += opts.Shift
			}
		} else {
			if isSink && n.shared && opts.YTopConn != nil {
				// keep line-end spacing between the conn wires from below
				// and the wires from above landing on this shared wire
				vext := grid.ViaExtension(track.Upper, layer, n.width, 1)
				minYL := *opts.YTopConn + connSpLE + vext
				curIdx = track.Max(curIdx,
					grid.FindNextTrack(layer, minYL, n.width, false, track.RoundGreaterEq))
			}
			for _, parent := range g.pred[key] {
				pn := g.nodes[parent]
				halfSpace := true
				if n.evenSpaces != nil {
					_, even := n.evenSpaces[parent]
					halfSpace = !even
				}
				minIdx := tm.NextTrack(layer, pn.idx, pn.wtype, n.wtype, true, halfSpace)
				curIdx = track.Max(curIdx, minIdx)
			}
		}
		n.idx = curIdx
	}

	if opts.BotMirror {
		// cross-check distinct source wires against each other's images
		for i := 0; i < len(srcList); i++ {
			ni := g.nodes[srcList[i]]
			if ni.shared {
				continue
			}
			for j := i + 1; j < len(srcList); j++ {
				nj := g.nodes[srcList[j]]
				if nj.shared {
					continue
				}
				sep := tm.Sep(layer, ni.wtype, nj.wtype, true)
				if ni.idx+nj.idx+track.One < sep {
					return errors.New(errors.ErrCodeMirrorUnresolved,
						"mirror placement conflict between source wires %s and %s on layer %d",
						srcList[i], srcList[j], layer)
				}
			}
		}
	}

	upper := opts.Lower
	upperIsShared := false
	pitch := grid.TrackPitch(layer)
	for si, sink := range sinkList {
		n := g.nodes[sink]
		if n.shared {
			midC := grid.TrackToCoord(layer, n.idx)
			if midC >= upper {
				upper = midC
				upperIsShared = true
			}
			continue
		}
		_, bndC := grid.WireBounds(layer, n.idx, n.width)
		if opts.TopMirror {
			for sj := si; sj < len(sinkList); sj++ {
				cn := g.nodes[sinkList[sj]]
				if cn.shared {
					continue
				}
				sep := tm.Sep(layer, n.wtype, cn.wtype, true)
				s := sep + n.idx + cn.idx
				if v := divCeil(divFloor(s.Dbl()*pitch, 2), 2); v > bndC {
					bndC = v
				}
			}
		}
		if bndC > upper {
			upper = bndC
			upperIsShared = false
		}
	}

	if !upperIsShared {
		// snap the upper coordinate onto the track grid
		upper = grid.TrackToCoord(layer,
			grid.FindNextTrack(layer, upper, 1, true, track.RoundGreaterEq))
	}
	g.lower = opts.Lower
	g.upper = upper

	trLast := grid.CoordToTrack(layer, g.upper, track.RoundNone)
	for _, sink := range sinkList {
		if g.nodes[sink].shared {
			g.nodes[sink].idx = trLast
		}
	}
	return nil
}

// AlignWires redistributes the wires inside the final area [lower, upper]
// according to each group's alignment. Wires already positioned by an
// earlier group stay put.
func (g *WireGraph) AlignWires(layer int, tm *track.Manager, lower, upper int,
	topPCons PlaceConstraint) error {
	grid := tm.Grid()
	for _, n := range g.nodes {
		n.harden = false
	}

	middleIdx := grid.CoordToTrack(layer, (lower+upper)/2, track.RoundNearest)
	for _, spec := range g.alignSpecs {
		switch spec.align {
		case AlignLowerCompact:
			for _, wire := range spec.wires {
				g.move(layer, tm, lower, upper, wire, topPCons, true, false)
			}
		case AlignUpperCompact:
			for i := len(spec.wires) - 1; i >= 0; i-- {
				g.move(layer, tm, lower, upper, spec.wires[i], topPCons, true, true)
			}
		case AlignCenterCompact:
			var hardIdx []int
			for i, wire := range spec.wires {
				if g.nodes[wire].harden {
					hardIdx = append(hardIdx, i)
				}
			}
			if len(hardIdx) > 0 {
				// pack around the middle hardened wire
				center := hardIdx[len(hardIdx)/2]
				for i := center - 1; i >= 0; i-- {
					g.move(layer, tm, lower, upper, spec.wires[i], topPCons, true, true)
				}
				for i := center + 1; i < len(spec.wires); i++ {
					g.move(layer, tm, lower, upper, spec.wires[i], topPCons, true, false)
				}
			} else {
				first := g.nodes[spec.wires[0]]
				last := g.nodes[spec.wires[len(spec.wires)-1]]
				curIdx := track.MiddleTrack(first.idx, last.idx)
				delta := middleIdx - curIdx
				for _, wire := range spec.wires {
					n := g.nodes[wire]
					n.idx += delta
					n.harden = true
				}
			}
		default:
			return errors.New(errors.ErrCodeUnsupported, "unsupported alignment: %s", spec.align)
		}
	}

	g.lower = lower
	g.upper = upper
	return nil
}

// move pushes one wire toward a boundary, recursively moving the wires it
// depends on in that direction first.
func (g *WireGraph) move(layer int, tm *track.Manager, lower, upper int, wire WireRef,
	topPCons PlaceConstraint, harden, up bool) {
	n := g.nodes[wire]
	if n.harden {
		return
	}
	grid := tm.Grid()

	if n.shared {
		// snap boundary shared wires to the edges
		if len(g.succ[wire]) == 0 {
			n.idx = grid.CoordToTrack(layer, upper, track.RoundNone)
		} else {
			n.idx = grid.CoordToTrack(layer, lower, track.RoundNone)
		}
		n.harden = true
		return
	}

	var curIdx track.HalfInt
	var neighbors []WireRef
	if up {
		curIdx = grid.FindNextTrack(layer, upper, n.width, true, track.RoundLessEq)
		if topPCons != nil {
			curIdx = topPCons(n.ptype, n.width, curIdx)
		}
		neighbors = g.succ[wire]
	} else {
		curIdx = grid.FindNextTrack(layer, lower, n.width, true, track.RoundGreaterEq)
		neighbors = g.pred[wire]
	}
	for _, nb := range neighbors {
		g.move(layer, tm, lower, upper, nb, topPCons, false, up)
		na := g.nodes[nb]
		var halfSpace bool
		if up {
			halfSpace = true
			if na.evenSpaces != nil {
				_, even := na.evenSpaces[wire]
				halfSpace = !even
			}
		} else {
			halfSpace = true
			if n.evenSpaces != nil {
				_, even := n.evenSpaces[nb]
				halfSpace = !even
			}
		}
		nextIdx := tm.NextTrack(layer, na.idx, na.wtype, n.wtype, !up, halfSpace)
		if up {
			curIdx = track.Min(curIdx, nextIdx)
		} else {
			curIdx = track.Max(curIdx, nextIdx)
		}
	}
	n.idx = curIdx
	n.harden = harden
}

// topoOrder returns the wires in dependency order, preferring
// registration order among ready wires so placement is deterministic.
func (g *WireGraph) topoOrder() ([]WireRef, error) {
	indeg := make(map[WireRef]int, len(g.nodes))
	for _, ref := range g.order {
		indeg[ref] = len(g.pred[ref])
	}
	var ready []WireRef
	for _, ref := range g.order {
		if indeg[ref] == 0 {
			ready = append(ready, ref)
		}
	}
	out := make([]WireRef, 0, len(g.nodes))
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		out = append(out, cur)
		for _, child := range g.succ[cur] {
			indeg[child]--
			if indeg[child] == 0 {
				ready = append(ready, child)
			}
		}
	}
	if len(out) != len(g.nodes) {
		return nil, errors.New(errors.ErrCodeGraphCycle,
			"dependency loop detected, cannot place wires")
	}
	return out, nil
}

func divFloor(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func divCeil(a, b int) int { return -divFloor(-a, b) }
