package place

import (
	"sort"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/stablehash"
	"github.com/calderan/mosaic/pkg/track"
	"github.com/calderan/mosaic/pkg/wires"
)

// PlaceInfo is one placed tile: a stack of rows sharing an ArrayInfo,
// plus the tile-level wires routed across the whole stack. Tiles are
// immutable; extension returns a new tile.
type PlaceInfo struct {
	name       string
	arrInfo    *ArrayInfo
	rows       []RowPlaceInfo
	botMirror  bool
	topMirror  bool
	options    mos.Params
	priority   int
	wireLookup map[int]*wires.WireLookup
	graphs     []RowGraphs
	hash       uint64
}

// NewPlaceInfo builds a tile from placed rows. An empty name becomes
// "unnamed".
func NewPlaceInfo(name string, arrInfo *ArrayInfo, rows []RowPlaceInfo,
	botMirror, topMirror bool, options mos.Params, priority int,
	wireLookup map[int]*wires.WireLookup) (*PlaceInfo, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSpec, "a tile must have at least one row")
	}
	if name == "" {
		name = "unnamed"
	}
	p := &PlaceInfo{
		name:       name,
		arrInfo:    arrInfo,
		rows:       rows,
		botMirror:  botMirror,
		topMirror:  topMirror,
		options:    options,
		priority:   priority,
		wireLookup: wireLookup,
	}
	h := arrInfo.Hash()
	h = stablehash.String(h, name)
	for _, r := range rows {
		h = stablehash.Combine(h, r.Hash())
	}
	h = stablehash.Combine(h, options.Hash())
	p.hash = h
	return p, nil
}

// Name returns the tile name.
func (p *PlaceInfo) Name() string { return p.name }

// ArrayInfo returns the shared array geometry.
func (p *PlaceInfo) ArrayInfo() *ArrayInfo { return p.arrInfo }

// NumRows returns the number of rows.
func (p *PlaceInfo) NumRows() int { return len(p.rows) }

// Height returns the tile height.
func (p *PlaceInfo) Height() int { return p.rows[len(p.rows)-1].YT }

// TrueHeight returns the height of the device blocks alone, without the
// outermost extension regions.
func (p *PlaceInfo) TrueHeight() int {
	return p.rows[len(p.rows)-1].YTBlk - p.rows[0].YBBlk
}

// ExtHBot returns the height of the bottom extension region.
func (p *PlaceInfo) ExtHBot() int { return p.rows[0].ExtMargin(false) }

// ExtHTop returns the height of the top extension region.
func (p *PlaceInfo) ExtHTop() int { return p.rows[len(p.rows)-1].ExtMargin(true) }

// Priority returns the tile's extension priority; when two mirrored
// tiles abut, the higher priority one absorbs the extension.
func (p *PlaceInfo) Priority() int { return p.priority }

// Options returns the tile options.
func (p *PlaceInfo) Options() mos.Params { return p.options }

// GetMirror reports whether the given edge is placed against its own
// mirror image.
func (p *PlaceInfo) GetMirror(topEdge bool) bool {
	if topEdge {
		return p.topMirror
	}
	return p.botMirror
}

// Row returns one row placement; negative indices count from the top.
func (p *PlaceInfo) Row(idx int) (RowPlaceInfo, error) {
	n := len(p.rows)
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return RowPlaceInfo{}, errors.New(errors.ErrCodeOutOfBounds,
			"row index out of bounds: %d not in [0, %d)", idx, n)
	}
	return p.rows[idx], nil
}

// Rows returns the row placements bottom-up. The result must not be
// modified.
func (p *PlaceInfo) Rows() []RowPlaceInfo { return p.rows }

// RowGraphs returns the wire graphs of one row, when the tile was built
// by MakeTileCompact in this process. Loaded tiles have none.
func (p *PlaceInfo) RowGraphs(idx int) (RowGraphs, bool) {
	if idx < 0 || idx >= len(p.graphs) {
		return RowGraphs{}, false
	}
	return p.graphs[idx], true
}

// WireLookup returns the tile-level wire assignments on one layer.
func (p *PlaceInfo) WireLookup(layer int) (*wires.WireLookup, bool) {
	wl, ok := p.wireLookup[layer]
	return wl, ok
}

// WireLookups returns the tile-level wire assignments keyed by layer.
// The result must not be modified.
func (p *PlaceInfo) WireLookups() map[int]*wires.WireLookup { return p.wireLookup }

// HMTrackInfo returns the track assignment of a tile-level wire.
func (p *PlaceInfo) HMTrackInfo(layer int, name string, idx int) (wires.TrackInfo, error) {
	wl, ok := p.wireLookup[layer]
	if !ok {
		return wires.TrackInfo{}, errors.New(errors.ErrCodeWireNotFound,
			"tile %s has no wires on layer %d", p.name, layer)
	}
	return wl.GetTrackInfo(name, idx)
}

// Hash returns a stable structural hash. Wire lookups are excluded,
// consistent with RowPlaceInfo.
func (p *PlaceInfo) Hash() uint64 { return p.hash }

// Equal reports whether both tiles carry the same placement, including
// the tile-level wire assignments.
func (p *PlaceInfo) Equal(o *PlaceInfo) bool {
	if p == o {
		return true
	}
	if o == nil || p.name != o.name || !p.arrInfo.Equal(o.arrInfo) ||
		len(p.rows) != len(o.rows) || !p.options.Equal(o.options) {
		return false
	}
	for i := range p.rows {
		if !p.rows[i].Equal(o.rows[i]) {
			return false
		}
	}
	if len(p.wireLookup) != len(o.wireLookup) {
		return false
	}
	for layer, wl := range p.wireLookup {
		if !wl.Equal(o.wireLookup[layer]) {
			return false
		}
	}
	return true
}

// GetAbutInfo computes what it takes for this tile's given edge to abut
// the given edge of rhs: the extra margin to insert, the legal extension
// heights between the two edge rows, and both tiles' current extension
// margins.
func (p *PlaceInfo) GetAbutInfo(rhs *PlaceInfo, topEdge, rhsTopEdge bool,
	shared, rhsShared []string) (int, mos.ExtWidthInfo, int, int, error) {
	tech := p.arrInfo.Tech()
	blkH := tech.BlkHPitch()
	hmLayer := p.arrInfo.ConnLayer() + 1

	row := p.edgeRow(topEdge)
	rhsRow := rhs.edgeRow(rhsTopEdge)
	wMargin, e1, e2, err := row.GetAbutInfo(rhsRow, topEdge, rhsTopEdge,
		shared, rhsShared, p.arrInfo.Manager(), hmLayer)
	if err != nil {
		return 0, mos.ExtWidthInfo{}, 0, 0, err
	}

	em1 := row.ExtMargin(topEdge)
	em2 := rhsRow.ExtMargin(rhsTopEdge)
	emTot := em1 + em2
	ewi := tech.ExtWidthInfo(e1, e2, false)
	extW, err := ewi.NextWidth(divCeil(emTot+wMargin, blkH), false)
	if err != nil {
		return 0, mos.ExtWidthInfo{}, 0, 0, err
	}
	return blkH*extW - emTot, ewi, em1, em2, nil
}

func (p *PlaceInfo) edgeRow(topEdge bool) RowPlaceInfo {
	if topEdge {
		return p.rows[len(p.rows)-1]
	}
	return p.rows[0]
}

// GetExtend returns a copy of this tile with its given edge extended by
// at least margin, keeping the total height on the tile height grid and
// the extension height legal. curEM and otherEM are this tile's and the
// abutting tile's extension margins at the joint, as returned by
// GetAbutInfo.
func (p *PlaceInfo) GetExtend(margin int, topEdge bool, ewi mos.ExtWidthInfo,
	curEM, otherEM int, shared []string) (*PlaceInfo, error) {
	tech := p.arrInfo.Tech()
	blkH := tech.BlkHPitch()
	_, totHPitch := p.arrInfo.Grid().BlockSize(p.arrInfo.TopLayer(), false, true)
	totHPitch = lcm(totHPitch, blkH)

	emTot := curEM + otherEM
	for cnt := 0; cnt < maxExtendIter; cnt++ {
		extW, err := ewi.NextWidth(divCeil(emTot+margin, blkH), false)
		if err != nil {
			return nil, err
		}
		extDim := extW*blkH - emTot
		q := divFloor(extDim, totHPitch)
		if extDim-q*totHPitch == 0 {
			return p.getExtendHelper(extDim, topEdge, shared)
		}
		margin = (q + 1) * totHPitch
	}
	return nil, errors.New(errors.ErrCodeIterationBudget,
		"cannot extend tile %s by %d: no legal extension height on the height grid", p.name, margin)
}

// getExtendHelper grows the tile by delta at the given edge. Extending
// the bottom translates every row and the tile-level wires up.
func (p *PlaceInfo) getExtendHelper(delta int, topEdge bool, shared []string) (*PlaceInfo, error) {
	hmLayer := p.arrInfo.ConnLayer() + 1
	grid := p.arrInfo.Grid()
	trPitch := grid.TrackPitch(hmLayer)

	rows := make([]RowPlaceInfo, len(p.rows))
	copy(rows, p.rows)
	n := len(rows)

	var err error
	wireLookup := p.wireLookup
	if topEdge {
		if rows[n-1], err = rows[n-1].GetExtend(trPitch, delta, true, shared); err != nil {
			return nil, err
		}
	} else {
		if rows[0], err = rows[0].GetExtend(trPitch, delta, false, shared); err != nil {
			return nil, err
		}
		for i := 1; i < n; i++ {
			if rows[i], err = rows[i].GetMove(trPitch, delta); err != nil {
				return nil, err
			}
		}
		wireLookup = make(map[int]*wires.WireLookup, len(p.wireLookup))
		for layer, wl := range p.wireLookup {
			moved, err := wl.Move(track.FromDbl(2*delta/grid.TrackPitch(layer)), nil)
			if err != nil {
				return nil, err
			}
			wireLookup[layer] = moved
		}
	}
	return NewPlaceInfo(p.name, p.arrInfo, rows, p.botMirror, p.topMirror,
		p.options, p.priority, wireLookup)
}

// maxExtendIter bounds the extension quantization loop.
const maxExtendIter = 1000

// TileSpec is the YAML specification of one tile.
type TileSpec struct {
	RowSpecs  []mos.RowSpec          `yaml:"row_specs"`
	MinHeight int                    `yaml:"min_height,omitempty"`
	BotMirror *bool                  `yaml:"bot_mirror,omitempty"`
	TopMirror *bool                  `yaml:"top_mirror,omitempty"`
	Priority  int                    `yaml:"priority,omitempty"`
	Options   mos.Params             `yaml:"options,omitempty"`
	WireSpecs map[int]wires.WireData `yaml:"wire_specs,omitempty"`
}

// MakeTileCompact places a tile as compactly as possible. Tile-level
// wires from WireSpecs are first placed standalone to establish the
// minimum height, the rows are stacked with PlaceRows, and the
// tile-level wires are then spread over the final height. Both mirror
// flags default to true.
func MakeTileCompact(arrInfo *ArrayInfo, name string, spec TileSpec) (*PlaceInfo, error) {
	tm := arrInfo.Manager()
	grid := arrInfo.Grid()
	botMirror := spec.BotMirror == nil || *spec.BotMirror
	topMirror := spec.TopMirror == nil || *spec.TopMirror

	layers := make([]int, 0, len(spec.WireSpecs))
	for layer := range spec.WireSpecs {
		layers = append(layers, layer)
	}
	sort.Ints(layers)

	minHeight := spec.MinHeight
	graphsByLayer := make(map[int]*wires.WireGraph, len(layers))
	for _, layer := range layers {
		if !grid.IsHorizontal(layer) {
			return nil, errors.New(errors.ErrCodeInvalidSpec,
				"tile wires must be on horizontal layers, layer %d is vertical", layer)
		}
		if layer > arrInfo.TopLayer() {
			return nil, errors.New(errors.ErrCodeInvalidSpec,
				"tile wire layer %d is above the array top layer %d", layer, arrInfo.TopLayer())
		}
		wd := spec.WireSpecs[layer].Normalize(wires.AlignCenterCompact, "")
		wg, err := wires.MakeWireGraph(layer, tm, wd)
		if err != nil {
			return nil, err
		}
		if err := wg.PlaceCompact(layer, tm, wires.PlaceCompactOptions{}); err != nil {
			return nil, err
		}
		if wg.Upper() > minHeight {
			minHeight = wg.Upper()
		}
		graphsByLayer[layer] = wg
	}

	rows, graphs, err := PlaceRows(tm, arrInfo.Tech(), spec.RowSpecs, RowsOptions{
		TotHeightMin:   minHeight,
		TotHeightPitch: arrInfo.TileBlkH(true),
		BotMirror:      botMirror,
		TopMirror:      topMirror,
		Options:        arrInfo.Options(),
	})
	if err != nil {
		return nil, err
	}

	wireLookup := make(map[int]*wires.WireLookup, len(layers))
	for _, layer := range layers {
		wg := graphsByLayer[layer]
		if err := wg.AlignWires(layer, tm, rows[0].YB, rows[len(rows)-1].YT, nil); err != nil {
			return nil, err
		}
		wireLookup[layer] = wg.Lookup()
	}

	pi, err := NewPlaceInfo(name, arrInfo, rows, botMirror, topMirror,
		spec.Options, spec.Priority, wireLookup)
	if err != nil {
		return nil, err
	}
	pi.graphs = graphs
	return pi, nil
}
