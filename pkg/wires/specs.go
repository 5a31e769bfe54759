package wires

import (
	"sort"

	"github.com/calderan/mosaic/pkg/track"
)

// LayerGraph pairs a routing layer with its placed wire graph.
type LayerGraph struct {
	Layer int
	Graph *WireGraph
}

// WireSpecs is the placed wire specification of a standalone block: the
// minimum block dimensions implied by the wires, the block size quantum,
// and the per-layer wire graphs.
type WireSpecs struct {
	MinWidth  int
	MinHeight int
	BlkWidth  int
	BlkHeight int
	Graphs    []LayerGraph
}

// MakeWireSpecsOptions carries the optional arguments of MakeWireSpecs.
type MakeWireSpecsOptions struct {
	// MinWidth and MinHeight set a floor on the block dimensions before
	// quantization. Zero values default to 1.
	MinWidth  int
	MinHeight int
	// BlkPitchX and BlkPitchY add extra quantization on top of the grid's.
	// Zero values default to 1.
	BlkPitchX int
	BlkPitchY int
	// AlignDefault is the alignment used where the spec gives none.
	AlignDefault Alignment
	// PTypeDefault is the placement type used where the spec gives none.
	PTypeDefault string
}

// MakeWireSpecs parses per-layer wire specifications and compact-places
// each layer's graph. Keys of specs are deltas from connLayer, so key 1
// means connLayer+1. topLayer sets the block size quantum; a layer with
// center-aligned wires disables half-quantum sizing along its axis so the
// center stays on grid.
func MakeWireSpecs(connLayer, topLayer int, tm *track.Manager, specs map[int]WireData,
	opts MakeWireSpecsOptions) (*WireSpecs, error) {
	wMin := opts.MinWidth
	if wMin < 1 {
		wMin = 1
	}
	hMin := opts.MinHeight
	if hMin < 1 {
		hMin = 1
	}
	blkWRes := opts.BlkPitchX
	if blkWRes < 1 {
		blkWRes = 1
	}
	blkHRes := opts.BlkPitchY
	if blkHRes < 1 {
		blkHRes = 1
	}

	grid := tm.Grid()

	deltas := make([]int, 0, len(specs))
	for d := range specs {
		deltas = append(deltas, d)
	}
	sort.Ints(deltas)

	halfBlkX, halfBlkY := true, true
	graphs := make([]LayerGraph, 0, len(specs))
	for _, delta := range deltas {
		layer := connLayer + delta
		data := specs[delta].Normalize(opts.AlignDefault, opts.PTypeDefault)
		g, err := MakeWireGraph(layer, tm, data)
		if err != nil {
			return nil, err
		}
		if err := g.PlaceCompact(layer, tm, PlaceCompactOptions{}); err != nil {
			return nil, err
		}
		graphs = append(graphs, LayerGraph{Layer: layer, Graph: g})
		if grid.IsHorizontal(layer) {
			halfBlkY = halfBlkY && !g.HasCenter()
			if g.Upper() > hMin {
				hMin = g.Upper()
			}
		} else {
			halfBlkX = halfBlkX && !g.HasCenter()
			if g.Upper() > wMin {
				wMin = g.Upper()
			}
		}
	}

	blkW, blkH := grid.BlockSize(topLayer, halfBlkX, halfBlkY)
	blkW = lcm(blkW, blkWRes)
	blkH = lcm(blkH, blkHRes)

	return &WireSpecs{
		MinWidth:  divCeil(wMin, blkW) * blkW,
		MinHeight: divCeil(hMin, blkH) * blkH,
		BlkWidth:  blkW,
		BlkHeight: blkH,
		Graphs:    graphs,
	}, nil
}

// PlaceWires aligns every layer's wires inside a block of the given final
// dimensions and returns the per-layer lookups.
func (ws *WireSpecs) PlaceWires(tm *track.Manager, w, h int) (map[int]*WireLookup, error) {
	grid := tm.Grid()
	ans := make(map[int]*WireLookup, len(ws.Graphs))
	for _, lg := range ws.Graphs {
		dim := w
		if grid.IsHorizontal(lg.Layer) {
			dim = h
		}
		if err := lg.Graph.AlignWires(lg.Layer, tm, 0, dim, nil); err != nil {
			return nil, err
		}
		ans[lg.Layer] = lg.Graph.Lookup()
	}
	return ans, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
