package place

import (
	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/stablehash"
	"github.com/calderan/mosaic/pkg/track"
)

// ArrayInfo is the geometry shared by every tile of a transistor array:
// the track manager, the technology, and the layer range the array
// routes on. All tiles in one design must be built against the same
// ArrayInfo so they can abut and stack.
type ArrayInfo struct {
	tm        *track.Manager
	tech      mos.Tech
	connLayer int
	topLayer  int
	halfSpace bool
	options   mos.Params
	sdPitch   int
	hash      uint64
}

// NewArrayInfo builds an ArrayInfo. topLayer defaults to the layer
// directly above the connection layer when zero.
func NewArrayInfo(tm *track.Manager, tech mos.Tech, topLayer int, halfSpace bool,
	options mos.Params) (*ArrayInfo, error) {
	connLayer := tech.ConnLayer()
	if topLayer == 0 {
		topLayer = connLayer + 1
	}
	if topLayer <= connLayer {
		return nil, errors.New(errors.ErrCodeInvalidSpec,
			"top layer %d must be above connection layer %d", topLayer, connLayer)
	}
	a := &ArrayInfo{
		tm:        tm,
		tech:      tech,
		connLayer: connLayer,
		topLayer:  topLayer,
		halfSpace: halfSpace,
		options:   options,
		sdPitch:   tech.SDPitch(),
	}
	h := stablehash.New()
	h = stablehash.Int(h, tech.Lch())
	h = stablehash.Combine(h, tm.Fingerprint())
	h = stablehash.Int(h, connLayer)
	h = stablehash.Int(h, topLayer)
	h = stablehash.Bool(h, halfSpace)
	h = stablehash.Combine(h, options.Hash())
	a.hash = h
	return a, nil
}

// ArrayInfoConfig is the YAML form of an ArrayInfo. The grid and
// technology are runtime objects supplied on load.
type ArrayInfoConfig struct {
	Lch       int              `yaml:"lch"`
	TrWidths  track.WidthTable `yaml:"tr_widths"`
	TrSpaces  track.SpaceTable `yaml:"tr_spaces"`
	TopLayer  int              `yaml:"top_layer,omitempty"`
	ConnLayer int              `yaml:"conn_layer,omitempty"`
	HalfSpace *bool            `yaml:"half_space,omitempty"`
	Options   mos.Params       `yaml:"arr_options,omitempty"`
}

// MakeArrayInfo builds an ArrayInfo from its YAML form.
func MakeArrayInfo(grid track.Grid, tech mos.Tech, cfg ArrayInfoConfig) (*ArrayInfo, error) {
	if cfg.Lch != 0 && cfg.Lch != tech.Lch() {
		return nil, errors.New(errors.ErrCodeInvalidSpec,
			"channel length %d does not match the technology's %d", cfg.Lch, tech.Lch())
	}
	if cfg.ConnLayer != 0 && cfg.ConnLayer != tech.ConnLayer() {
		return nil, errors.New(errors.ErrCodeInvalidSpec,
			"connection layer %d does not match the technology's %d",
			cfg.ConnLayer, tech.ConnLayer())
	}
	halfSpace := true
	if cfg.HalfSpace != nil {
		halfSpace = *cfg.HalfSpace
	}
	tm := track.NewManager(grid, cfg.TrWidths, cfg.TrSpaces)
	return NewArrayInfo(tm, tech, cfg.TopLayer, halfSpace, cfg.Options)
}

// Config returns the YAML form of this ArrayInfo.
func (a *ArrayInfo) Config() ArrayInfoConfig {
	hs := a.halfSpace
	return ArrayInfoConfig{
		Lch:       a.tech.Lch(),
		TrWidths:  a.tm.Widths(),
		TrSpaces:  a.tm.Spaces(),
		TopLayer:  a.topLayer,
		ConnLayer: a.connLayer,
		HalfSpace: &hs,
		Options:   a.options,
	}
}

// Manager returns the track manager.
func (a *ArrayInfo) Manager() *track.Manager { return a.tm }

// Grid returns the routing grid.
func (a *ArrayInfo) Grid() track.Grid { return a.tm.Grid() }

// Tech returns the technology oracle.
func (a *ArrayInfo) Tech() mos.Tech { return a.tech }

// Lch returns the channel length.
func (a *ArrayInfo) Lch() int { return a.tech.Lch() }

// ConnLayer returns the device port layer.
func (a *ArrayInfo) ConnLayer() int { return a.connLayer }

// TopLayer returns the highest routing layer of the array.
func (a *ArrayInfo) TopLayer() int { return a.topLayer }

// SDPitch returns the source/drain column pitch.
func (a *ArrayInfo) SDPitch() int { return a.sdPitch }

// HalfSpace reports whether half-track spacing is allowed.
func (a *ArrayInfo) HalfSpace() bool { return a.halfSpace }

// Options returns the array-level technology options.
func (a *ArrayInfo) Options() mos.Params { return a.options }

// Hash returns a stable structural hash.
func (a *ArrayInfo) Hash() uint64 { return a.hash }

// Equal reports whether both infos describe the same array geometry.
func (a *ArrayInfo) Equal(o *ArrayInfo) bool {
	if a == o {
		return true
	}
	if o == nil {
		return false
	}
	return a.tech.Lch() == o.tech.Lch() && a.tm.Equal(o.tm) &&
		a.connLayer == o.connLayer && a.topLayer == o.topLayer &&
		a.halfSpace == o.halfSpace && a.options.Equal(o.options)
}

// TileBlkH returns the vertical quantum of a tile: the least common
// multiple of the top layer's block height and the technology's block
// pitch.
func (a *ArrayInfo) TileBlkH(halfBlk bool) int {
	_, blkH := a.Grid().BlockSize(a.topLayer, false, halfBlk)
	return lcm(blkH, a.tech.BlkHPitch())
}

// ColToCoord returns the x coordinate of a source/drain column.
func (a *ArrayInfo) ColToCoord(col int) int { return col * a.sdPitch }

// CoordToCol converts an x coordinate to a column index. With RoundNone
// the coordinate must lie exactly on a column.
func (a *ArrayInfo) CoordToCol(coord int, mode track.RoundMode) (int, error) {
	q := divFloor(coord, a.sdPitch)
	r := coord - q*a.sdPitch
	if r == 0 {
		return q, nil
	}
	switch mode {
	case track.RoundNone:
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"coordinate %d is not on a transistor column", coord)
	case track.RoundDown, track.RoundLessEq:
		return q, nil
	case track.RoundUp, track.RoundGreaterEq:
		return q + 1, nil
	case track.RoundNearest:
		if 2*r >= a.sdPitch {
			return q + 1, nil
		}
		return q, nil
	}
	return 0, errors.New(errors.ErrCodeUnsupported, "unsupported round mode: %d", mode)
}

// SourceTrack returns the connection-layer track sitting on a column.
func (a *ArrayInfo) SourceTrack(col int) track.HalfInt {
	return a.Grid().CoordToTrack(a.connLayer, a.ColToCoord(col), track.RoundNone)
}

// SourceTrackCol is the inverse of SourceTrack.
func (a *ArrayInfo) SourceTrackCol(tr track.HalfInt) (int, error) {
	return a.CoordToCol(a.Grid().TrackToCoord(a.connLayer, tr), track.RoundNone)
}

// ColToTrack converts a column index to a track on a vertical layer.
func (a *ArrayInfo) ColToTrack(layer, col int, mode track.RoundMode) track.HalfInt {
	return a.Grid().CoordToTrack(layer, a.ColToCoord(col), mode)
}

// TrackToCol converts a vertical-layer track to a column index.
func (a *ArrayInfo) TrackToCol(layer int, tr track.HalfInt, mode track.RoundMode) (int, error) {
	return a.CoordToCol(a.Grid().TrackToCoord(layer, tr), mode)
}

// ColumnSpan returns how many columns a bundle of numTracks tracks on a
// vertical layer spans.
func (a *ArrayInfo) ColumnSpan(vmLayer int, numTracks track.HalfInt) (int, error) {
	coord := numTracks.Dbl() * a.Grid().TrackPitch(vmLayer) / 2
	return a.CoordToCol(coord, track.RoundGreaterEq)
}

// BlockNCol returns the number of columns in the repetition unit that
// aligns a vertical layer's track grid with the column grid.
func (a *ArrayInfo) BlockNCol(vmLayer int, halfBlk bool) (int, error) {
	if a.Grid().IsHorizontal(vmLayer) {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"layer %d is not a vertical routing layer", vmLayer)
	}
	if vmLayer > a.topLayer {
		return 0, errors.New(errors.ErrCodeInvalidInput,
			"layer %d is above the array top layer %d", vmLayer, a.topLayer)
	}
	trPitch := a.Grid().TrackPitch(vmLayer)
	if halfBlk {
		trPitch /= 2
	}
	return lcm(trPitch, a.sdPitch) / a.sdPitch, nil
}

// RoundUpToBlockSize rounds ncol up to the block column quantum of a
// vertical layer. When evenDiff is set the added column count must be
// even, so symmetric layouts stay centered.
func (a *ArrayInfo) RoundUpToBlockSize(vmLayer, ncol int, evenDiff, halfBlk bool) (int, error) {
	blkNCol, err := a.BlockNCol(vmLayer, halfBlk)
	if err != nil {
		return 0, err
	}
	ans := divCeil(ncol, blkNCol) * blkNCol
	if evenDiff && (ans-ncol)&1 == 1 {
		if blkNCol&1 == 0 {
			return 0, errors.New(errors.ErrCodeInfeasibleSize,
				"cannot add an even number of columns with block quantum %d", blkNCol)
		}
		ans += blkNCol
	}
	return ans, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int { return a / gcd(a, b) * b }
