package array

import (
	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/place"
	"github.com/calderan/mosaic/pkg/track"
)

// edgeKey addresses one vertical device boundary: the flat row and the
// column the boundary sits on.
type edgeKey struct {
	Row int
	Col int
}

// BlockInfo is one occupied interval of a flat row together with its
// boundary records. Left and Right are nil when the device declared no
// edge info on that side.
type BlockInfo struct {
	Start  int
	Stop   int
	Left   *mos.EdgeInfo
	Right  *mos.EdgeInfo
	Top    mos.BlkExtInfo
	Bottom mos.BlkExtInfo
}

// GapInfo is one unoccupied interval of a flat row together with the
// edge records of its occupied neighbors, used to synthesize spacer
// blocks that abut both sides correctly.
type GapInfo struct {
	Start int
	Stop  int
	Left  mos.EdgeInfo
	Right mos.EdgeInfo
}

// UsedArray tracks which columns of which rows are occupied by devices
// across a growing stack of tiles. It grows monotonically: the column
// and tile counts never decrease. Rows are addressed flat, counting
// from the bottom of the first tile, or as (tile, row) pairs.
type UsedArray struct {
	element  place.TilePatternElement
	intvs    []*intervalSet
	numTiles int
	endFlags map[edgeKey]*mos.EdgeInfo
	numCols  int
}

// GetInterval returns the half-open column interval of a device anchored
// at col with seg fingers; flipping left-right grows it downward from
// the anchor instead of upward.
func GetInterval(col, seg int, flipLR bool) (int, int) {
	if flipLR {
		return col - seg, col
	}
	return col, col + seg
}

// NewUsedArray starts an empty array over the given repeating tile
// structure, containing one tile.
func NewUsedArray(element place.TilePatternElement) (*UsedArray, error) {
	pinfo, err := element.GetTilePInfo(0)
	if err != nil {
		return nil, err
	}
	intvs := make([]*intervalSet, pinfo.NumRows())
	for i := range intvs {
		intvs[i] = &intervalSet{}
	}
	return &UsedArray{
		element:  element,
		intvs:    intvs,
		numTiles: 1,
		endFlags: make(map[edgeKey]*mos.EdgeInfo),
	}, nil
}

// Copy returns an independent copy; mutations of either side do not
// affect the other.
func (u *UsedArray) Copy() *UsedArray {
	intvs := make([]*intervalSet, len(u.intvs))
	for i, s := range u.intvs {
		intvs[i] = s.copy()
	}
	flags := make(map[edgeKey]*mos.EdgeInfo, len(u.endFlags))
	for k, v := range u.endFlags {
		flags[k] = v
	}
	return &UsedArray{
		element:  u.element,
		intvs:    intvs,
		numTiles: u.numTiles,
		endFlags: flags,
		numCols:  u.numCols,
	}
}

// Element returns the repeating tile structure.
func (u *UsedArray) Element() place.TilePatternElement { return u.element }

// NumFlatRows returns the total number of rows currently tracked.
func (u *UsedArray) NumFlatRows() int { return len(u.intvs) }

// NumTiles returns the number of tiles currently tracked.
func (u *UsedArray) NumTiles() int { return u.numTiles }

// NumCols returns the column high-water mark.
func (u *UsedArray) NumCols() int { return u.numCols }

// SetNumCols grows the column count; shrinking it is an error.
func (u *UsedArray) SetNumCols(val int) error {
	if u.numCols > val {
		return errors.New(errors.ErrCodeInvalidInput,
			"cannot set number of columns to %d, already used %d", val, u.numCols)
	}
	u.numCols = val
	return nil
}

// SetNumTiles grows the tile count, extending the flat row list;
// shrinking it is an error.
func (u *UsedArray) SetNumTiles(val int) error {
	if u.numTiles > val {
		return errors.New(errors.ErrCodeInvalidInput,
			"cannot set number of tiles to %d, already used %d", val, u.numTiles)
	}
	if val == u.numTiles {
		return nil
	}
	u.numTiles = val
	for len(u.intvs) < u.element.NumTilesToRows(val) {
		u.intvs = append(u.intvs, &intervalSet{})
	}
	return nil
}

// Height returns the total height of the tracked tiles.
func (u *UsedArray) Height() (int, error) {
	_, y0, _, err := u.element.GetTileInfo(u.numTiles)
	return y0, err
}

// PatternElement returns the tracked tile stack as a pattern element
// repeated mult times.
func (u *UsedArray) PatternElement(mult int, mirror, flip bool) (place.TilePatternElement, error) {
	return u.element.GetSubPatternElement(u.numTiles, mult, mirror, flip, 0)
}

// SubPattern returns tiles [startIdx, stopIdx) as a pattern element
// repeated mult times.
func (u *UsedArray) SubPattern(startIdx, stopIdx, mult int, mirror, flip bool) (place.TilePatternElement, error) {
	return u.element.GetSubPatternElement(stopIdx-startIdx, mult, mirror, flip, startIdx)
}

// GetTileInfo returns the tile at tileIdx, its bottom y coordinate and
// whether it is upside down.
func (u *UsedArray) GetTileInfo(tileIdx int) (*place.PlaceInfo, int, bool, error) {
	return u.element.GetTileInfo(tileIdx)
}

// GetTilePInfo returns the tile at tileIdx.
func (u *UsedArray) GetTilePInfo(tileIdx int) (*place.PlaceInfo, error) {
	return u.element.GetTilePInfo(tileIdx)
}

// FlipTile reports whether the tile at tileIdx is upside down.
func (u *UsedArray) FlipTile(tileIdx int) (bool, error) {
	_, _, flip, err := u.element.GetTileInfo(tileIdx)
	return flip, err
}

// GetTrackInfo returns the global track and width of a row wire.
func (u *UsedArray) GetTrackInfo(rowIdx int, wt mos.WireType, name string,
	wireIdx, tileIdx int) (track.HalfInt, int, error) {
	return u.element.GetTrackInfo(rowIdx, wt, name, wireIdx, tileIdx)
}

// HMTrackInfo returns the global track and width of a tile-level wire.
func (u *UsedArray) HMTrackInfo(hmLayer int, name string, wireIdx, tileIdx int) (track.HalfInt, int, error) {
	return u.element.HMTrackInfo(hmLayer, name, wireIdx, tileIdx)
}

// FlatRowToTileRow converts a flat row index to a (tile, row) pair.
func (u *UsedArray) FlatRowToTileRow(flatRow int) (int, int, error) {
	return u.element.FlatRowToTileRow(flatRow)
}

// FlatRowIdxAndFlip converts a (tile, row) pair to a flat row index.
func (u *UsedArray) FlatRowIdxAndFlip(tileIdx, rowIdx int) (int, bool, error) {
	return u.element.FlatRowIdxAndFlip(tileIdx, rowIdx)
}

// GetEdgeInfo returns the boundary record at the given flat row and
// column, or an empty record.
func (u *UsedArray) GetEdgeInfo(flatRow, col int) mos.EdgeInfo {
	if info := u.endFlags[edgeKey{Row: flatRow, Col: col}]; info != nil {
		return *info
	}
	return mos.EdgeInfo{}
}

// BottomInfo returns the bottom boundary records of the occupied blocks
// of one flat row, in column order.
func (u *UsedArray) BottomInfo(flatRow int) ([]mos.BlkExtInfo, error) {
	return u.extListHelper(flatRow, false)
}

// TopInfo returns the top boundary records of the occupied blocks of
// one flat row, in column order.
func (u *UsedArray) TopInfo(flatRow int) ([]mos.BlkExtInfo, error) {
	return u.extListHelper(flatRow, true)
}

func (u *UsedArray) extListHelper(flatRow int, top bool) ([]mos.BlkExtInfo, error) {
	if flatRow < 0 || flatRow >= len(u.intvs) {
		return nil, errors.New(errors.ErrCodeOutOfBounds,
			"flat row index out of bounds: %d not in [0, %d)", flatRow, len(u.intvs))
	}
	blocks := u.intvs[flatRow].blocks
	ans := make([]mos.BlkExtInfo, len(blocks))
	for i, b := range blocks {
		if top {
			ans[i] = b.top
		} else {
			ans[i] = b.bot
		}
	}
	return ans, nil
}

// AddMOS records a device at (tile, row) anchored at colIdx with seg
// fingers, growing the tile count as needed. The boundary records are
// given in device orientation, before any flip.
func (u *UsedArray) AddMOS(tileIdx, rowIdx, colIdx, seg int, flipLR, flipUD bool,
	left, right *mos.EdgeInfo, top, bottom mos.BlkExtInfo,
	abutList *[]mos.AbutInfo) error {
	flatRow, flipTile, err := u.element.FlatRowIdxAndFlip(tileIdx, rowIdx)
	if err != nil {
		return err
	}
	if tileIdx >= u.numTiles {
		if err := u.SetNumTiles(tileIdx + 1); err != nil {
			return err
		}
	}
	return u.AddMOSRaw(flatRow, flipTile, colIdx, seg, flipLR, flipUD,
		left, right, top, bottom, abutList)
}

// AddMOSRaw records a device on a flat row. It fails without mutating
// state when the column interval overlaps an occupied one. Two devices
// whose declared edges land on the same boundary produce an abutment
// record in abutList instead of silently overwriting each other.
func (u *UsedArray) AddMOSRaw(flatRow int, flipTile bool, colIdx, seg int,
	flipLR, flipUD bool, left, right *mos.EdgeInfo, top, bottom mos.BlkExtInfo,
	abutList *[]mos.AbutInfo) error {
	if flatRow < 0 || flatRow >= len(u.intvs) {
		return errors.New(errors.ErrCodeOutOfBounds,
			"flat row index out of bounds: %d not in [0, %d)", flatRow, len(u.intvs))
	}
	start, stop := GetInterval(colIdx, seg, flipLR)

	b := block{start: start, stop: stop, bot: bottom, top: top}
	if flipTile != flipUD {
		b.bot, b.top = top, bottom
	}
	if err := u.intvs[flatRow].add(b); err != nil {
		return errors.Wrap(errors.GetCode(err), err, "flat row %d", flatRow)
	}

	if flipLR {
		left, right = right, left
	}
	u.addEdgeInfo(edgeKey{Row: flatRow, Col: start}, left, true, abutList)
	u.addEdgeInfo(edgeKey{Row: flatRow, Col: stop}, right, false, abutList)

	if stop > u.numCols {
		u.numCols = stop
	}
	return nil
}

// addEdgeInfo stores a boundary record, or consumes the record a
// previous neighbor left there and reports the abutment.
func (u *UsedArray) addEdgeInfo(key edgeKey, info *mos.EdgeInfo, isRight bool,
	abutList *[]mos.AbutInfo) {
	cur := u.endFlags[key]
	if cur == nil {
		u.endFlags[key] = info
		return
	}
	delete(u.endFlags, key)
	if abutList != nil && info != nil {
		if isRight {
			*abutList = append(*abutList, mos.AbutInfo{
				RowFlat: key.Row, Col: key.Col, EdgeL: *cur, EdgeR: *info,
			})
		} else {
			*abutList = append(*abutList, mos.AbutInfo{
				RowFlat: key.Row, Col: key.Col, EdgeL: *info, EdgeR: *cur,
			})
		}
	}
}

// AddTiles merges another array into this one, anchoring its first tile
// at tileIdx and its columns at colIdx. The tile sequences must match;
// when the anchor tile's orientation differs from the instance's first
// tile, the instance is stacked downward.
func (u *UsedArray) AddTiles(tileIdx, colIdx int, inst *UsedArray, flipLR bool,
	abutList *[]mos.AbutInfo) error {
	_, _, flipBase, err := u.element.GetTileInfo(tileIdx)
	if err != nil {
		return err
	}
	_, _, flipInst, err := inst.element.GetTileInfo(0)
	if err != nil {
		return err
	}

	flipUD := flipBase != flipInst
	instNumRows := inst.NumFlatRows()
	var rowOffset, maxNumTiles int
	if flipUD {
		rowOffset = u.element.NumTilesToRows(tileIdx+1) - 1
		if rowOffset-instNumRows+1 < 0 {
			return errors.New(errors.ErrCodeOutOfBounds,
				"cannot add tiles below the first tile")
		}
		maxNumTiles = tileIdx + 1
	} else {
		rowOffset = u.element.NumTilesToRows(tileIdx)
		maxNumTiles = tileIdx + inst.NumTiles()
	}

	tileSign := 1
	if flipUD {
		tileSign = -1
	}
	for instTile := 0; instTile < inst.NumTiles(); instTile++ {
		myTile := tileIdx + tileSign*instTile
		instPinfo, err := inst.GetTilePInfo(instTile)
		if err != nil {
			return err
		}
		myPinfo, err := u.element.GetTilePInfo(myTile)
		if err != nil {
			return err
		}
		if !myPinfo.Equal(instPinfo) {
			return errors.New(errors.ErrCodeInvalidSpec,
				"expected tile type %s at index %d, but instance has tile type %s",
				myPinfo.Name(), myTile, instPinfo.Name())
		}
	}

	if maxNumTiles > u.numTiles {
		if err := u.SetNumTiles(maxNumTiles); err != nil {
			return err
		}
	}

	for instRow := 0; instRow < instNumRows; instRow++ {
		myRow := rowOffset + tileSign*instRow
		curTile, _, err := u.element.FlatRowToTileRow(myRow)
		if err != nil {
			return err
		}
		_, _, curFlip, err := u.element.GetTileInfo(curTile)
		if err != nil {
			return err
		}
		for _, bi := range inst.InfoIter(instRow) {
			colAnchor := colIdx + bi.Start
			if flipLR {
				colAnchor = colIdx - bi.Start
			}
			if err := u.AddMOSRaw(myRow, curFlip, colAnchor, bi.Stop-bi.Start,
				flipLR, flipUD, bi.Left, bi.Right, bi.Top, bi.Bottom, abutList); err != nil {
				return err
			}
		}
	}
	return nil
}

// IntvIter returns the occupied column intervals of one flat row.
func (u *UsedArray) IntvIter(flatRow int) [][2]int {
	if flatRow < 0 || flatRow >= len(u.intvs) {
		return nil
	}
	return u.intvs[flatRow].intervals()
}

// InfoIter returns the occupied blocks of one flat row with their
// boundary records.
func (u *UsedArray) InfoIter(flatRow int) []BlockInfo {
	if flatRow < 0 || flatRow >= len(u.intvs) {
		return nil
	}
	blocks := u.intvs[flatRow].blocks
	ans := make([]BlockInfo, len(blocks))
	for i, b := range blocks {
		ans[i] = BlockInfo{
			Start:  b.start,
			Stop:   b.stop,
			Left:   u.endFlags[edgeKey{Row: flatRow, Col: b.start}],
			Right:  u.endFlags[edgeKey{Row: flatRow, Col: b.stop}],
			Top:    b.top,
			Bottom: b.bot,
		}
	}
	return ans
}

// Complement returns the unused column intervals of [start, stop) in a
// row, each with the boundary records of its occupied neighbors.
func (u *UsedArray) Complement(tileIdx, rowIdx, start, stop int) ([]GapInfo, error) {
	flatRow, _, err := u.element.FlatRowIdxAndFlip(tileIdx, rowIdx)
	if err != nil {
		return nil, err
	}
	if flatRow < 0 || flatRow >= len(u.intvs) {
		return nil, errors.New(errors.ErrCodeOutOfBounds,
			"flat row index out of bounds: %d not in [0, %d)", flatRow, len(u.intvs))
	}
	gaps := u.intvs[flatRow].complement(start, stop)
	ans := make([]GapInfo, len(gaps))
	for i, g := range gaps {
		ans[i] = GapInfo{
			Start: g[0],
			Stop:  g[1],
			Left:  u.GetEdgeInfo(flatRow, g[0]),
			Right: u.GetEdgeInfo(flatRow, g[1]),
		}
	}
	return ans, nil
}
