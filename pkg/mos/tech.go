package mos

// Tech is the oracle a process plug-in implements to describe transistor
// geometry. The placement engine asks it for row geometry, legal
// extension heights between rows, and the column-level constants of the
// device array.
type Tech interface {
	// Lch returns the channel length this technology instance is bound to.
	Lch() int

	// ConnLayer returns the layer ID of the vertical device port wires.
	// Tracks assigned by the placement engine live on ConnLayer()+1.
	ConnLayer() int

	// BlkHPitch returns the vertical placement quantum of device blocks.
	BlkHPitch() int

	// EndHMin returns the minimum height of the boundary region above and
	// below a transistor array.
	EndHMin() int

	// SDPitch returns the source/drain column pitch.
	SDPitch() int

	// MinSepCol returns the minimum column separation between two
	// unrelated devices in a row.
	MinSepCol() int

	// SubSepCol returns the column separation needed between a device and
	// a substrate contact. Always even.
	SubSepCol() int

	// MinSubCol returns the minimum number of columns of a substrate
	// contact.
	MinSubCol() int

	// AbutMode reports how the process resolves devices drawn flush
	// against each other.
	AbutMode() AbutMode

	// RowInfo computes the geometry of one row. botType and topType are
	// the device types of the physically adjacent rows, used to size the
	// boundary regions.
	RowInfo(specs RowSpec, botType, topType MOSType, options Params) (RowInfo, error)

	// ExtWidthInfo returns the legal extension heights between a row
	// ending with bot below and a row starting with top above. When
	// ignoreVMSpLE is set, vertical-wire line-end spacing rules are not
	// enforced in the extension.
	ExtWidthInfo(bot, top RowExtInfo, ignoreVMSpLE bool) ExtWidthInfo
}

// SimTech is a self-consistent simulation technology with plausible
// constant geometry. It stands in for a process plug-in in tests, the
// examples and the CLI demo configuration; its numbers are internally
// consistent but correspond to no real process.
type SimTech struct {
	lch int
}

// NewSimTech returns a simulation technology for the given channel
// length.
func NewSimTech(lch int) *SimTech { return &SimTech{lch: lch} }

// Lch returns the channel length.
func (t *SimTech) Lch() int { return t.lch }

// ConnLayer implements Tech. Layer 2 is vertical, so assigned tracks
// live on horizontal layer 3.
func (t *SimTech) ConnLayer() int { return 2 }

// BlkHPitch implements Tech.
func (t *SimTech) BlkHPitch() int { return 10 }

// EndHMin implements Tech.
func (t *SimTech) EndHMin() int { return 40 }

// SDPitch implements Tech.
func (t *SimTech) SDPitch() int { return t.lch + 40 }

// MinSepCol implements Tech.
func (t *SimTech) MinSepCol() int { return 2 }

// SubSepCol implements Tech.
func (t *SimTech) SubSepCol() int { return 2 }

// MinSubCol implements Tech.
func (t *SimTech) MinSubCol() int { return 2 }

// AbutMode implements Tech.
func (t *SimTech) AbutMode() AbutMode { return AbutUpdate }

// RowInfo implements Tech. Row height grows linearly with the device
// width; connection intervals are fixed fractions of the height, in
// device orientation with the gate at the bottom.
func (t *SimTech) RowInfo(specs RowSpec, botType, topType MOSType, options Params) (RowInfo, error) {
	h := 40 + 10*specs.Width

	info := RowInfo{
		Lch:        t.lch,
		Width:      specs.Width,
		SubWidth:   specs.SubWidth,
		RowType:    specs.MOSType,
		Threshold:  specs.Threshold,
		Height:     h,
		Flip:       specs.Flip,
		DoubleGate: specs.DoubleGate,
		SubConnY:   ConnY{Lo: 10, Hi: h - 10},
		TopExt: RowExtInfo{
			RowType:   specs.MOSType,
			Threshold: specs.Threshold,
			Info:      Params{"width": specs.Width, "adj": topType.String()},
		},
		BotExt: RowExtInfo{
			RowType:   specs.MOSType,
			Threshold: specs.Threshold,
			Info:      Params{"width": specs.Width, "adj": botType.String()},
		},
	}
	if specs.DoubleGate {
		info.GConnY = ConnY{Lo: 0, Hi: 20}
		info.GMConnY = ConnY{Lo: 0, Hi: 20}
		info.DSConnY = ConnY{Lo: 20, Hi: h - 20}
		info.DSGConnY = ConnY{Lo: 20, Hi: h - 20}
		info.DSMConnY = ConnY{Lo: 20, Hi: h - 20}
		info.G2ConnY = ConnY{Lo: h - 20, Hi: h}
		info.G2MConnY = ConnY{Lo: h - 20, Hi: h}
	} else {
		info.GConnY = ConnY{Lo: 0, Hi: 20}
		info.GMConnY = ConnY{Lo: 0, Hi: 20}
		info.DSConnY = ConnY{Lo: 30, Hi: h}
		info.DSGConnY = ConnY{Lo: 20, Hi: h}
		info.DSMConnY = ConnY{Lo: 30, Hi: h}
	}
	return info, nil
}

// ExtWidthInfo implements Tech. Rows sharing an implant can abut with no
// extension or grow in unit steps; an implant change needs two units of
// extension to fit the implant boundary.
func (t *SimTech) ExtWidthInfo(bot, top RowExtInfo, ignoreVMSpLE bool) ExtWidthInfo {
	if bot.RowType.SameImplant(top.RowType) {
		return NewExtWidthInfo([]int{0}, 1, 1)
	}
	return NewExtWidthInfo(nil, 2, 1)
}
