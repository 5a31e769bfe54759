package array

import (
	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/place"
	"github.com/calderan/mosaic/pkg/track"
)

// Device is the placement record returned for one added device: the
// flat row it landed on and the half-open column interval it occupies.
type Device struct {
	FlatRow int
	Start   int
	Stop    int
}

// Base is the consumer-facing placement surface: it owns a UsedArray
// over a tile structure, places transistors and substrate contacts into
// it, collects abutment records, and reports the final array size.
type Base struct {
	used  *UsedArray
	abut  []mos.AbutInfo
	sized bool
}

// DrawBase starts an empty placement over the given tile structure.
func DrawBase(element place.TilePatternElement) (*Base, error) {
	used, err := NewUsedArray(element)
	if err != nil {
		return nil, err
	}
	return &Base{used: used}, nil
}

// Used returns the underlying occupancy tracker.
func (b *Base) Used() *UsedArray { return b.used }

// ArrayInfo returns the shared array geometry.
func (b *Base) ArrayInfo() *place.ArrayInfo { return b.used.Element().ArrayInfo() }

// AbutList returns the abutment records collected so far. The result
// must not be modified.
func (b *Base) AbutList() []mos.AbutInfo { return b.abut }

// rowInfoAt resolves the row descriptor of (tile, row).
func (b *Base) rowInfoAt(tileIdx, rowIdx int) (mos.RowInfo, error) {
	pinfo, err := b.used.GetTilePInfo(tileIdx)
	if err != nil {
		return mos.RowInfo{}, err
	}
	rp, err := pinfo.Row(rowIdx)
	if err != nil {
		return mos.RowInfo{}, err
	}
	return rp.RowInfo, nil
}

// AddMOS places a transistor with seg fingers of width w in a
// transistor row, anchored at colIdx. A zero w takes the full row
// width. Devices that abut a previously placed device produce abutment
// records retrievable from AbutList.
func (b *Base) AddMOS(tileIdx, rowIdx, colIdx, seg, w int, flipLR bool) (Device, error) {
	if seg <= 0 {
		return Device{}, errors.New(errors.ErrCodeInvalidInput,
			"segment count must be positive, got %d", seg)
	}
	rinfo, err := b.rowInfoAt(tileIdx, rowIdx)
	if err != nil {
		return Device{}, err
	}
	if rinfo.RowType.IsSubstrate() {
		return Device{}, errors.New(errors.ErrCodeUnsupported,
			"cannot place a transistor in a substrate row; use AddSubstrateContact")
	}
	if w == 0 {
		w = rinfo.Width
	}
	if w < 0 || w > rinfo.Width {
		return Device{}, errors.New(errors.ErrCodeInvalidInput,
			"device width %d out of range (0, %d]", w, rinfo.Width)
	}
	return b.addDevice(tileIdx, rowIdx, colIdx, seg, w, rinfo, flipLR)
}

// AddSubstrateContact places a substrate contact with seg fingers in a
// substrate row, anchored at colIdx.
func (b *Base) AddSubstrateContact(tileIdx, rowIdx, colIdx, seg int, flipLR bool) (Device, error) {
	if seg <= 0 {
		return Device{}, errors.New(errors.ErrCodeInvalidInput,
			"segment count must be positive, got %d", seg)
	}
	rinfo, err := b.rowInfoAt(tileIdx, rowIdx)
	if err != nil {
		return Device{}, err
	}
	if !rinfo.RowType.IsSubstrate() {
		return Device{}, errors.New(errors.ErrCodeUnsupported,
			"cannot place a substrate contact in a transistor row; use AddMOS")
	}
	return b.addDevice(tileIdx, rowIdx, colIdx, seg, rinfo.SubWidth, rinfo, flipLR)
}

// AddTap places substrate contacts in every substrate row of a tile,
// anchored at colIdx. At least one substrate row must exist.
func (b *Base) AddTap(tileIdx, colIdx, seg int, flipLR bool) ([]Device, error) {
	pinfo, err := b.used.GetTilePInfo(tileIdx)
	if err != nil {
		return nil, err
	}
	var devs []Device
	for rowIdx := 0; rowIdx < pinfo.NumRows(); rowIdx++ {
		rp, err := pinfo.Row(rowIdx)
		if err != nil {
			return nil, err
		}
		if !rp.RowInfo.RowType.IsSubstrate() {
			continue
		}
		dev, err := b.AddSubstrateContact(tileIdx, rowIdx, colIdx, seg, flipLR)
		if err != nil {
			return nil, err
		}
		devs = append(devs, dev)
	}
	if len(devs) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound,
			"tile %s has no substrate rows", pinfo.Name())
	}
	return devs, nil
}

func (b *Base) addDevice(tileIdx, rowIdx, colIdx, seg, w int, rinfo mos.RowInfo,
	flipLR bool) (Device, error) {
	edge := mos.EdgeInfo{Info: mos.Params{
		"mos_type": rinfo.RowType.String(),
		"w":        w,
	}}
	ext := mos.BlkExtInfo{
		RowType:   rinfo.RowType,
		Threshold: rinfo.Threshold,
		FgDev:     []mos.FgDev{{Fg: seg, MOSType: rinfo.RowType}},
	}
	flatRow, _, err := b.used.FlatRowIdxAndFlip(tileIdx, rowIdx)
	if err != nil {
		return Device{}, err
	}
	left, right := edge, edge
	if err := b.used.AddMOS(tileIdx, rowIdx, colIdx, seg, flipLR, false,
		&left, &right, ext, ext, &b.abut); err != nil {
		return Device{}, err
	}
	start, stop := GetInterval(colIdx, seg, flipLR)
	return Device{FlatRow: flatRow, Start: start, Stop: stop}, nil
}

// SetMOSSize fixes the final array size. It can only grow the used
// area, and can only be called once.
func (b *Base) SetMOSSize(numCols, numTiles int) error {
	if b.sized {
		return errors.New(errors.ErrCodeInvalidInput, "array size already set")
	}
	if err := b.used.SetNumTiles(numTiles); err != nil {
		return err
	}
	if err := b.used.SetNumCols(numCols); err != nil {
		return err
	}
	b.sized = true
	return nil
}

// Sized reports whether SetMOSSize has been called.
func (b *Base) Sized() bool { return b.sized }

// Size returns the array dimensions: the width spanned by the columns
// and the height of the tile stack.
func (b *Base) Size() (int, int, error) {
	h, err := b.used.Height()
	if err != nil {
		return 0, 0, err
	}
	return b.ArrayInfo().ColToCoord(b.used.NumCols()), h, nil
}

// GetTrackInfo returns the track and width of a row wire.
func (b *Base) GetTrackInfo(rowIdx int, wt mos.WireType, name string,
	wireIdx, tileIdx int) (track.HalfInt, int, error) {
	return b.used.GetTrackInfo(rowIdx, wt, name, wireIdx, tileIdx)
}

// GetTrackIndex returns the track of a row wire.
func (b *Base) GetTrackIndex(rowIdx int, wt mos.WireType, name string,
	wireIdx, tileIdx int) (track.HalfInt, error) {
	tr, _, err := b.used.GetTrackInfo(rowIdx, wt, name, wireIdx, tileIdx)
	return tr, err
}

// HMTrackInfo returns the track and width of a tile-level wire.
func (b *Base) HMTrackInfo(hmLayer int, name string, wireIdx, tileIdx int) (track.HalfInt, int, error) {
	return b.used.HMTrackInfo(hmLayer, name, wireIdx, tileIdx)
}

// ColToCoord converts a column index to an x coordinate.
func (b *Base) ColToCoord(col int) int { return b.ArrayInfo().ColToCoord(col) }

// CoordToCol converts an x coordinate to a column index.
func (b *Base) CoordToCol(coord int, mode track.RoundMode) (int, error) {
	return b.ArrayInfo().CoordToCol(coord, mode)
}
