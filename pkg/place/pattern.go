package place

import (
	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/stablehash"
	"github.com/calderan/mosaic/pkg/track"
	"github.com/calderan/mosaic/pkg/wires"
)

// TilePatternElement is one entry of a tile pattern: a unit (a single
// tile or a nested pattern) repeated mult times. With mirror set every
// odd repetition is flipped upside down, so adjacent units share their
// boundary; flip inverts the whole element. Elements behave as if the
// unit repeated indefinitely, so tile indices beyond mult are legal.
type TilePatternElement struct {
	pinfo   *PlaceInfo
	pattern *TilePattern
	mirror  bool
	flip    bool
	mult    int
}

// NewTileElement wraps a single tile in a pattern element.
func NewTileElement(info *PlaceInfo, mirror, flip bool, mult int) (TilePatternElement, error) {
	if info == nil {
		return TilePatternElement{}, errors.New(errors.ErrCodeInvalidInput,
			"pattern element needs a tile")
	}
	if mult < 1 {
		return TilePatternElement{}, errors.New(errors.ErrCodeInvalidInput,
			"pattern element multiplier must be positive, got %d", mult)
	}
	return TilePatternElement{pinfo: info, mirror: mirror, flip: flip, mult: mult}, nil
}

// NewPatternElement wraps a nested pattern in a pattern element.
func NewPatternElement(pat *TilePattern, mirror, flip bool, mult int) (TilePatternElement, error) {
	if pat == nil || len(pat.elements) == 0 {
		return TilePatternElement{}, errors.New(errors.ErrCodeInvalidInput,
			"pattern element needs a non-empty pattern")
	}
	if mult < 1 {
		return TilePatternElement{}, errors.New(errors.ErrCodeInvalidInput,
			"pattern element multiplier must be positive, got %d", mult)
	}
	return TilePatternElement{pattern: pat, mirror: mirror, flip: flip, mult: mult}, nil
}

// ArrayInfo returns the shared array geometry.
func (e TilePatternElement) ArrayInfo() *ArrayInfo {
	if e.pinfo != nil {
		return e.pinfo.ArrayInfo()
	}
	return e.pattern.ArrayInfo()
}

// Mult returns the repetition count.
func (e TilePatternElement) Mult() int { return e.mult }

// Mirror reports whether odd repetitions are flipped.
func (e TilePatternElement) Mirror() bool { return e.mirror }

// NumTilesUnit returns the number of tiles in one repetition unit.
func (e TilePatternElement) NumTilesUnit() int {
	if e.pinfo != nil {
		return 1
	}
	return e.pattern.NumTiles()
}

// NumTiles returns the total number of tiles.
func (e TilePatternElement) NumTiles() int { return e.mult * e.NumTilesUnit() }

// NumRows returns the total number of flat rows.
func (e TilePatternElement) NumRows() int {
	if e.pinfo != nil {
		return e.mult * e.pinfo.NumRows()
	}
	return e.mult * e.pattern.NumRows()
}

// Height returns the total height.
func (e TilePatternElement) Height() int {
	if e.pinfo != nil {
		return e.mult * e.pinfo.Height()
	}
	return e.mult * e.pattern.Height()
}

// Hash returns a stable structural hash.
func (e TilePatternElement) Hash() uint64 {
	h := stablehash.New()
	if e.pinfo != nil {
		h = stablehash.Combine(h, e.pinfo.Hash())
	} else {
		h = stablehash.Combine(h, e.pattern.Hash())
	}
	h = stablehash.Bool(h, e.mirror)
	h = stablehash.Bool(h, e.flip)
	h = stablehash.Int(h, e.mult)
	return h
}

// Equal reports whether both elements describe the same repetition.
func (e TilePatternElement) Equal(o TilePatternElement) bool {
	if e.mirror != o.mirror || e.flip != o.flip || e.mult != o.mult {
		return false
	}
	if (e.pinfo == nil) != (o.pinfo == nil) {
		return false
	}
	if e.pinfo != nil {
		return e.pinfo.Equal(o.pinfo)
	}
	return e.pattern.Equal(o.pattern)
}

// GetFlipUnit reports whether repetition unitIdx is upside down.
func (e TilePatternElement) GetFlipUnit(unitIdx int) bool {
	return (unitIdx&1 == 1 && e.mirror) != e.flip
}

// NumTilesToRows returns how many flat rows the first numTiles tiles
// contain.
func (e TilePatternElement) NumTilesToRows(numTiles int) int {
	if e.pinfo != nil {
		return numTiles * e.pinfo.NumRows()
	}
	if numTiles == 0 {
		return 0
	}
	patNT := e.pattern.NumTiles()
	q := numTiles / patNT
	r := numTiles - q*patNT
	ans := q * e.pattern.NumRows()
	if e.GetFlipUnit(q) {
		return ans + e.pattern.NumRows() - e.pattern.NumTilesToRows(patNT-r)
	}
	return ans + e.pattern.NumTilesToRows(r)
}

// GetTileInfo returns the tile at tileIdx, its bottom y coordinate and
// whether it is upside down.
func (e TilePatternElement) GetTileInfo(tileIdx int) (*PlaceInfo, int, bool, error) {
	if tileIdx < 0 {
		return nil, 0, false, errors.New(errors.ErrCodeOutOfBounds,
			"tile index cannot be negative: %d", tileIdx)
	}
	if e.pinfo != nil {
		return e.pinfo, tileIdx * e.pinfo.Height(), e.GetFlipUnit(tileIdx), nil
	}
	patNT := e.pattern.NumTiles()
	patH := e.pattern.Height()
	q := tileIdx / patNT
	r := tileIdx - q*patNT
	flipPat := e.GetFlipUnit(q)
	if flipPat {
		r = patNT - 1 - r
	}
	pinfo, y0, flip, err := e.pattern.GetTileInfo(r)
	if err != nil {
		return nil, 0, false, err
	}
	if flipPat {
		y0 = patH - y0 - pinfo.Height()
	}
	return pinfo, y0 + q*patH, flip != flipPat, nil
}

// GetTilePInfo returns the tile at tileIdx.
func (e TilePatternElement) GetTilePInfo(tileIdx int) (*PlaceInfo, error) {
	pinfo, _, _, err := e.GetTileInfo(tileIdx)
	return pinfo, err
}

// HMTrackInfo returns the global track index and width of a tile-level
// wire of one tile.
func (e TilePatternElement) HMTrackInfo(hmLayer int, wireName string, wireIdx,
	tileIdx int) (track.HalfInt, int, error) {
	pinfo, y0, flipTile, err := e.GetTileInfo(tileIdx)
	if err != nil {
		return 0, 0, err
	}
	tinfo, err := pinfo.HMTrackInfo(hmLayer, wireName, wireIdx)
	if err != nil {
		return 0, 0, err
	}
	grid := e.ArrayInfo().Grid()
	if flipTile {
		y0 += pinfo.Height() - grid.TrackToCoord(hmLayer, tinfo.Track)
	} else {
		y0 += grid.TrackToCoord(hmLayer, tinfo.Track)
	}
	return grid.CoordToTrack(hmLayer, y0, track.RoundNone), tinfo.Width, nil
}

// GetTrackInfo returns the global track index and width of a row wire,
// selecting the row side from the wire type: gate wires sit at the
// bottom of an unflipped row.
func (e TilePatternElement) GetTrackInfo(rowIdx int, wt mos.WireType, wireName string,
	wireIdx, tileIdx int) (track.HalfInt, int, error) {
	wl, yoff, sign, err := e.wireInfo(rowIdx, &wt, false, tileIdx)
	if err != nil {
		return 0, 0, err
	}
	return e.trackFromLookup(wl, yoff, sign, wireName, wireIdx)
}

// GetTrackInfoSide is GetTrackInfo with the row side given explicitly.
func (e TilePatternElement) GetTrackInfoSide(rowIdx int, top bool, wireName string,
	wireIdx, tileIdx int) (track.HalfInt, int, error) {
	wl, yoff, sign, err := e.wireInfo(rowIdx, nil, top, tileIdx)
	if err != nil {
		return 0, 0, err
	}
	return e.trackFromLookup(wl, yoff, sign, wireName, wireIdx)
}

// WireRange returns the index range of a row wire bus.
func (e TilePatternElement) WireRange(rowIdx int, wt mos.WireType, wireName string,
	tileIdx int) (int, int, error) {
	wl, _, _, err := e.wireInfo(rowIdx, &wt, false, tileIdx)
	if err != nil {
		return 0, 0, err
	}
	return wl.WireRange(wireName)
}

func (e TilePatternElement) trackFromLookup(wl *wires.WireLookup, yoff, sign int,
	wireName string, wireIdx int) (track.HalfInt, int, error) {
	hmLayer := e.ArrayInfo().ConnLayer() + 1
	grid := e.ArrayInfo().Grid()
	tinfo, err := wl.GetTrackInfo(wireName, wireIdx)
	if err != nil {
		return 0, 0, err
	}
	y0 := yoff + sign*grid.TrackToCoord(hmLayer, tinfo.Track)
	return grid.CoordToTrack(hmLayer, y0, track.RoundNone), tinfo.Width, nil
}

// wireInfo resolves one row side of one tile to its wire lookup, the y
// offset of the tile edge the lookup is relative to, and the coordinate
// sign. With wt set the side follows the wire type and the row flip;
// otherwise top selects it directly.
func (e TilePatternElement) wireInfo(rowIdx int, wt *mos.WireType, top bool,
	tileIdx int) (*wires.WireLookup, int, int, error) {
	pinfo, yb, flipTile, err := e.GetTileInfo(tileIdx)
	if err != nil {
		return nil, 0, 0, err
	}
	if rowIdx < 0 {
		rowIdx += pinfo.NumRows()
	}
	rp, err := pinfo.Row(rowIdx)
	if err != nil {
		return nil, 0, 0, err
	}
	if wt != nil {
		top = wt.IsGate() == rp.RowInfo.Flip
	}
	wl := rp.BotWires
	if top {
		wl = rp.TopWires
	}
	if flipTile {
		return wl, yb + pinfo.Height(), -1, nil
	}
	return wl, yb, 1, nil
}

// FlatRowIdxAndFlip converts a (tile, row) pair to a flat row index,
// counting rows from the bottom of the element, and reports whether
// that row's tile is upside down.
func (e TilePatternElement) FlatRowIdxAndFlip(tileIdx, rowIdx int) (int, bool, error) {
	pinfo, _, flipTile, err := e.GetTileInfo(tileIdx)
	if err != nil {
		return 0, false, err
	}
	nrows := pinfo.NumRows()
	if rowIdx < 0 {
		rowIdx += nrows
	}
	if rowIdx < 0 || rowIdx >= nrows {
		return 0, false, errors.New(errors.ErrCodeOutOfBounds,
			"row index out of bounds: %d not in [0, %d)", rowIdx, nrows)
	}
	ans := e.NumTilesToRows(tileIdx)
	if flipTile {
		return ans + nrows - 1 - rowIdx, true, nil
	}
	return ans + rowIdx, false, nil
}

// FlatRowToTileRow is the inverse of FlatRowIdxAndFlip: it converts a
// flat row index back to the tile index and the row index within that
// tile.
func (e TilePatternElement) FlatRowToTileRow(flatRow int) (int, int, error) {
	if flatRow < 0 {
		return 0, 0, errors.New(errors.ErrCodeOutOfBounds,
			"flat row index cannot be negative: %d", flatRow)
	}
	if e.pinfo != nil {
		nrows := e.pinfo.NumRows()
		tileIdx := flatRow / nrows
		rowIdx := flatRow - tileIdx*nrows
		if e.GetFlipUnit(tileIdx) {
			rowIdx = nrows - 1 - rowIdx
		}
		return tileIdx, rowIdx, nil
	}
	patNR := e.pattern.NumRows()
	patNT := e.pattern.NumTiles()
	q := flatRow / patNR
	r := flatRow - q*patNR
	if e.GetFlipUnit(q) {
		tileIdx, rowIdx, err := e.pattern.FlatRowToTileRow(patNR - 1 - r)
		if err != nil {
			return 0, 0, err
		}
		return q*patNT + patNT - 1 - tileIdx, rowIdx, nil
	}
	tileIdx, rowIdx, err := e.pattern.FlatRowToTileRow(r)
	if err != nil {
		return 0, 0, err
	}
	return q*patNT + tileIdx, rowIdx, nil
}

// GetReverse returns this element repeated mult times in reverse
// vertical order.
func (e TilePatternElement) GetReverse(mult int) TilePatternElement {
	ne := e
	ne.flip = !e.GetFlipUnit(mult - 1)
	ne.mult = mult
	return ne
}

// GetSubPatternElement returns the element covering numTiles tiles
// starting at startIdx, repeated mult times with the given mirroring,
// collapsed to the simplest equivalent form.
func (e TilePatternElement) GetSubPatternElement(numTiles, mult int, mirror, flip bool,
	startIdx int) (TilePatternElement, error) {
	startIdx = startIdx % e.NumTilesUnit()
	if startIdx == 0 {
		return e.subPatternHelper(numTiles, mult, mirror, flip)
	}

	// startIdx inside the unit only happens for nested patterns
	num0 := e.NumTilesUnit() - startIdx
	if numTiles <= num0 {
		return e.pattern.GetSubPatternElement(numTiles, mult, mirror, flip, startIdx)
	}
	head, err := e.pattern.GetSubPatternElement(num0, 1, false, false, startIdx)
	if err != nil {
		return TilePatternElement{}, err
	}
	tail, err := e.subPatternHelper(numTiles-num0, 1, false, false)
	if err != nil {
		return TilePatternElement{}, err
	}
	pat, err := NewTilePattern([]TilePatternElement{head, tail})
	if err != nil {
		return TilePatternElement{}, err
	}
	return NewPatternElement(pat, mirror, flip, mult)
}

func (e TilePatternElement) subPatternHelper(numTiles, mult int, mirror,
	flip bool) (TilePatternElement, error) {
	if numTiles <= 0 {
		return TilePatternElement{}, errors.New(errors.ErrCodeInvalidInput,
			"sub-pattern must have a positive number of tiles, got %d", numTiles)
	}

	mirror = mirror && mult > 1
	ntUnit := e.NumTilesUnit()
	q := numTiles / ntUnit
	r := numTiles - q*ntUnit
	qMirror := e.mirror && q > 1
	if r == 0 {
		// two nested repetitions; collapse when the mirror structure allows
		switch {
		case q == 1:
			ne := e
			ne.mirror = mirror
			ne.flip = flip != e.flip
			ne.mult = mult
			return ne, nil
		case mult == 1:
			if flip {
				return e.GetReverse(q), nil
			}
			ne := e
			ne.mirror = qMirror
			ne.mult = q
			return ne, nil
		case qMirror == mirror:
			flip0 := e.flip != flip
			if mirror && flip {
				flip0 = e.flip != (q&1 == 1)
			}
			ne := e
			ne.mirror = mirror
			ne.flip = flip0
			ne.mult = q * mult
			return ne, nil
		case mirror || q&1 == 1:
			inner := e
			inner.mirror = qMirror
			inner.mult = q
			pat, err := NewTilePattern([]TilePatternElement{inner})
			if err != nil {
				return TilePatternElement{}, err
			}
			return NewPatternElement(pat, mirror, flip, mult)
		default:
			// qMirror true, mirror false, q even: the repetition is its own
			// mirror image
			ne := e
			ne.mirror = true
			ne.mult = q * mult
			return ne, nil
		}
	}

	var eleList []TilePatternElement
	if q > 0 {
		ne := e
		ne.mirror = qMirror
		ne.mult = q
		eleList = append(eleList, ne)
	}
	// r > 0 here, so the unit is a nested pattern
	if e.pinfo != nil {
		return TilePatternElement{}, errors.New(errors.ErrCodeInternal,
			"single-tile element cannot have a partial repetition")
	}
	if err := e.pattern.appendSubPattern(&eleList, r, e.GetFlipUnit(q)); err != nil {
		return TilePatternElement{}, err
	}
	pat, err := NewTilePattern(eleList)
	if err != nil {
		return TilePatternElement{}, err
	}
	return NewPatternElement(pat, mirror, flip, mult)
}

// appendSubPattern appends elements covering the first numTiles tiles
// of this element (the last, when flipElement is set) to eleList.
func (e TilePatternElement) appendSubPattern(eleList *[]TilePatternElement, numTiles int,
	flipElement bool) error {
	ntUnit := e.NumTilesUnit()
	q := numTiles / ntUnit
	r := numTiles - q*ntUnit

	var flipQ, flipR bool
	if flipElement {
		flipQ = e.GetFlipUnit(e.mult - 1)
		flipR = !e.GetFlipUnit(e.mult - 1 - q)
	} else {
		flipQ = e.flip
		flipR = e.GetFlipUnit(q)
	}

	if q > 0 {
		ne := e
		ne.flip = flipQ
		ne.mult = q
		*eleList = append(*eleList, ne)
	}
	if r > 0 {
		if e.pinfo != nil {
			return errors.New(errors.ErrCodeInternal,
				"single-tile element cannot have a partial repetition")
		}
		return e.pattern.appendSubPattern(eleList, r, flipR)
	}
	return nil
}

// TilePattern is an ordered stack of pattern elements.
type TilePattern struct {
	elements  []TilePatternElement
	nrowList  []int // cumulative, len(elements)+1
	ntileList []int
	dyList    []int
	hash      uint64
}

// NewTilePattern builds a pattern from elements, bottom-up.
func NewTilePattern(elements []TilePatternElement) (*TilePattern, error) {
	if len(elements) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tile pattern cannot be empty")
	}
	p := &TilePattern{
		elements:  elements,
		nrowList:  make([]int, 1, len(elements)+1),
		ntileList: make([]int, 1, len(elements)+1),
		dyList:    make([]int, 1, len(elements)+1),
	}
	h := stablehash.New()
	cumRow, cumTile, cumH := 0, 0, 0
	for _, obj := range elements {
		h = stablehash.Combine(h, obj.Hash())
		cumRow += obj.NumRows()
		cumTile += obj.NumTiles()
		cumH += obj.Height()
		p.nrowList = append(p.nrowList, cumRow)
		p.ntileList = append(p.ntileList, cumTile)
		p.dyList = append(p.dyList, cumH)
	}
	p.hash = h
	return p, nil
}

// ArrayInfo returns the shared array geometry.
func (p *TilePattern) ArrayInfo() *ArrayInfo { return p.elements[0].ArrayInfo() }

// Elements returns the pattern elements. The result must not be
// modified.
func (p *TilePattern) Elements() []TilePatternElement { return p.elements }

// NumRows returns the total number of flat rows.
func (p *TilePattern) NumRows() int { return p.nrowList[len(p.nrowList)-1] }

// NumTiles returns the total number of tiles.
func (p *TilePattern) NumTiles() int { return p.ntileList[len(p.ntileList)-1] }

// Height returns the total height.
func (p *TilePattern) Height() int { return p.dyList[len(p.dyList)-1] }

// Hash returns a stable structural hash.
func (p *TilePattern) Hash() uint64 { return p.hash }

// Equal reports whether both patterns have equal elements.
func (p *TilePattern) Equal(o *TilePattern) bool {
	if p == o {
		return true
	}
	if o == nil || len(p.elements) != len(o.elements) {
		return false
	}
	for i := range p.elements {
		if !p.elements[i].Equal(o.elements[i]) {
			return false
		}
	}
	return true
}

// elementIdx returns the index of the element containing tile cum,
// given a cumulative count list.
func elementIdx(cumList []int, v int) int {
	// rightmost entry <= v
	lo, hi := 0, len(cumList)
	for lo < hi {
		mid := (lo + hi) / 2
		if cumList[mid] <= v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}

// NumTilesToRows returns how many flat rows the first numTiles tiles
// contain.
func (p *TilePattern) NumTilesToRows(numTiles int) int {
	if numTiles == 0 {
		return 0
	}
	idx := elementIdx(p.ntileList, numTiles-1)
	return p.nrowList[idx] + p.elements[idx].NumTilesToRows(numTiles-p.ntileList[idx])
}

// GetTileInfo returns the tile at tileIdx, its bottom y coordinate and
// whether it is upside down.
func (p *TilePattern) GetTileInfo(tileIdx int) (*PlaceInfo, int, bool, error) {
	if tileIdx < 0 {
		return nil, 0, false, errors.New(errors.ErrCodeOutOfBounds,
			"tile index cannot be negative: %d", tileIdx)
	}
	idx := elementIdx(p.ntileList, tileIdx)
	if idx >= len(p.elements) {
		idx = len(p.elements) - 1
	}
	pinfo, y0, flip, err := p.elements[idx].GetTileInfo(tileIdx - p.ntileList[idx])
	if err != nil {
		return nil, 0, false, err
	}
	return pinfo, y0 + p.dyList[idx], flip, nil
}

// GetTilePInfo returns the tile at tileIdx.
func (p *TilePattern) GetTilePInfo(tileIdx int) (*PlaceInfo, error) {
	pinfo, _, _, err := p.GetTileInfo(tileIdx)
	return pinfo, err
}

// FlatRowToTileRow converts a flat row index to the tile index and the
// row index within that tile.
func (p *TilePattern) FlatRowToTileRow(flatRow int) (int, int, error) {
	if flatRow < 0 {
		return 0, 0, errors.New(errors.ErrCodeOutOfBounds,
			"flat row index cannot be negative: %d", flatRow)
	}
	idx := elementIdx(p.nrowList, flatRow)
	if idx >= len(p.elements) {
		idx = len(p.elements) - 1
	}
	tileIdx, rowIdx, err := p.elements[idx].FlatRowToTileRow(flatRow - p.nrowList[idx])
	if err != nil {
		return 0, 0, err
	}
	return tileIdx + p.ntileList[idx], rowIdx, nil
}

// GetSubPatternElement returns the element covering numTiles tiles
// starting at startIdx, repeated mult times.
func (p *TilePattern) GetSubPatternElement(numTiles, mult int, mirror, flip bool,
	startIdx int) (TilePatternElement, error) {
	idx := elementIdx(p.ntileList, startIdx)
	if idx >= len(p.elements) {
		idx = len(p.elements) - 1
	}
	obj := p.elements[idx]
	startIdx -= p.ntileList[idx]
	objNum := obj.NumTiles() - startIdx
	if objNum >= numTiles {
		return obj.GetSubPatternElement(numTiles, mult, mirror, flip, startIdx)
	}
	head, err := obj.GetSubPatternElement(objNum, 1, false, false, startIdx)
	if err != nil {
		return TilePatternElement{}, err
	}
	eleList := []TilePatternElement{head}
	numTiles -= objNum
	for cur := idx + 1; cur < len(p.elements); cur++ {
		obj = p.elements[cur]
		curNum := obj.NumTiles()
		if curNum >= numTiles {
			ele, err := obj.GetSubPatternElement(numTiles, 1, false, false, 0)
			if err != nil {
				return TilePatternElement{}, err
			}
			eleList = append(eleList, ele)
			break
		}
		ele, err := obj.GetSubPatternElement(curNum, 1, false, false, 0)
		if err != nil {
			return TilePatternElement{}, err
		}
		eleList = append(eleList, ele)
		numTiles -= curNum
	}
	pat, err := NewTilePattern(eleList)
	if err != nil {
		return TilePatternElement{}, err
	}
	return NewPatternElement(pat, mirror, flip, mult)
}

// appendSubPattern appends elements covering the first numTiles tiles
// of this pattern (the last, walking downward, when flipPattern is set)
// to eleList.
func (p *TilePattern) appendSubPattern(eleList *[]TilePatternElement, numTiles int,
	flipPattern bool) error {
	if flipPattern {
		for i := len(p.elements) - 1; i >= 0; i-- {
			obj := p.elements[i]
			cur := obj.NumTiles()
			if numTiles >= cur {
				numTiles -= cur
				*eleList = append(*eleList, obj.GetReverse(obj.Mult()))
			} else {
				if numTiles > 0 {
					return obj.appendSubPattern(eleList, numTiles, true)
				}
				break
			}
		}
		return nil
	}
	for _, obj := range p.elements {
		cur := obj.NumTiles()
		if numTiles >= cur {
			numTiles -= cur
			*eleList = append(*eleList, obj)
		} else {
			if numTiles > 0 {
				return obj.appendSubPattern(eleList, numTiles, false)
			}
			break
		}
	}
	return nil
}
