package mos

import (
	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/stablehash"
)

// ConnY is the vertical interval a wire type can connect to, in row
// coordinates with the row's bottom at 0.
type ConnY struct {
	Lo int
	Hi int
}

// Shift returns the interval moved up by dy.
func (c ConnY) Shift(dy int) ConnY { return ConnY{Lo: c.Lo + dy, Hi: c.Hi + dy} }

// MarshalYAML encodes the interval as a two-element sequence.
func (c ConnY) MarshalYAML() (any, error) { return []int{c.Lo, c.Hi}, nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ConnY) UnmarshalYAML(node *yaml.Node) error {
	var v []int
	if err := node.Decode(&v); err != nil {
		return err
	}
	if len(v) != 2 {
		return errors.New(errors.ErrCodeInvalidSpec,
			"connection interval must have 2 elements, got %d", len(v))
	}
	c.Lo = v[0]
	c.Hi = v[1]
	return nil
}

// RowInfo is the geometry a technology reports for one transistor row:
// the row height, the connection intervals of each wire type, and the
// boundary records used to draw extension regions. Connection intervals
// are stored in device orientation; accessors apply the row flip.
type RowInfo struct {
	Lch          int        `yaml:"lch"`
	Width        int        `yaml:"width"`
	SubWidth     int        `yaml:"sub_width"`
	RowType      MOSType    `yaml:"row_type"`
	Threshold    string     `yaml:"threshold"`
	Height       int        `yaml:"height"`
	Flip         bool       `yaml:"flip"`
	TopExt       RowExtInfo `yaml:"top_ext_info"`
	BotExt       RowExtInfo `yaml:"bot_ext_info"`
	Info         Params     `yaml:"info,omitempty"`
	GConnY       ConnY      `yaml:"g_conn_y"`
	GMConnY      ConnY      `yaml:"g_m_conn_y"`
	DSConnY      ConnY      `yaml:"ds_conn_y"`
	DSMConnY     ConnY      `yaml:"ds_m_conn_y"`
	DSGConnY     ConnY      `yaml:"ds_g_conn_y"`
	SubConnY     ConnY      `yaml:"sub_conn_y"`
	GuardRing    bool       `yaml:"guard_ring,omitempty"`
	GuardRingCol bool       `yaml:"guard_ring_col,omitempty"`
	DoubleGate   bool       `yaml:"double_gate,omitempty"`
	G2ConnY      ConnY      `yaml:"g2_conn_y,omitempty"`
	G2MConnY     ConnY      `yaml:"g2_m_conn_y,omitempty"`
}

// BotConnTypes returns the wire types that may appear on the bottom side
// of the row; index 0 is the default.
func (r RowInfo) BotConnTypes() []WireType {
	if r.Flip {
		if r.DoubleGate {
			return []WireType{WireG2, WireG2Match}
		}
		return []WireType{WireDSGate, WireDS, WireDSMatch}
	}
	return []WireType{WireG, WireGMatch}
}

// TopConnTypes returns the wire types that may appear on the top side of
// the row; index 0 is the default.
func (r RowInfo) TopConnTypes() []WireType {
	if r.Flip {
		return []WireType{WireG, WireGMatch}
	}
	if r.DoubleGate {
		return []WireType{WireG2, WireG2Match}
	}
	return []WireType{WireDSGate, WireDS, WireDSMatch}
}

// MidConnTypes returns the wire types of the middle side of a
// double-gate row.
func (r RowInfo) MidConnTypes() ([]WireType, error) {
	if !r.DoubleGate {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"middle connections only exist on double-gate rows")
	}
	return []WireType{WireDSGate, WireDS, WireDSMatch}, nil
}

// ExtInfo returns the boundary record at the given physical edge,
// accounting for the row flip.
func (r RowInfo) ExtInfo(topEdge bool) RowExtInfo {
	if topEdge != r.Flip {
		return r.TopExt
	}
	return r.BotExt
}

// GetConnY returns the connection interval of a wire type in physical
// row coordinates, reflecting about the row height when flipped.
func (r RowInfo) GetConnY(wt WireType) (ConnY, error) {
	var ans ConnY
	switch wt {
	case WireG:
		ans = r.GConnY
	case WireGMatch:
		ans = r.GMConnY
	case WireDS:
		ans = r.DSConnY
	case WireDSMatch:
		ans = r.DSMConnY
	case WireDSGate:
		ans = r.DSGConnY
	case WireG2:
		ans = r.G2ConnY
	case WireG2Match:
		ans = r.G2MConnY
	default:
		return ConnY{}, errors.New(errors.ErrCodeUnsupported, "unsupported wire type: %s", wt)
	}
	if r.Flip {
		return ConnY{Lo: r.Height - ans.Hi, Hi: r.Height - ans.Lo}, nil
	}
	return ans, nil
}

// GetAllConnY returns every interval a wire of the given type could
// physically connect to; matching types fall back to the intervals of
// the ports they shadow.
func (r RowInfo) GetAllConnY(wt WireType) ([]ConnY, error) {
	var ans []ConnY
	switch {
	case wt == WireG || wt == WireGMatch:
		ans = []ConnY{r.GConnY}
	case wt == WireG2 || wt == WireG2Match:
		ans = []ConnY{r.G2ConnY}
	case wt == WireDS:
		ans = []ConnY{r.DSConnY}
	case wt == WireDSMatch || wt == WireDSGate:
		ans = []ConnY{r.DSConnY, r.DSGConnY}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported wire type: %s", wt)
	}
	if r.Flip {
		for i, c := range ans {
			ans[i] = ConnY{Lo: r.Height - c.Hi, Hi: r.Height - c.Lo}
		}
	}
	return ans, nil
}

// Equal reports whether both rows carry identical geometry.
func (r RowInfo) Equal(o RowInfo) bool {
	return r.Lch == o.Lch && r.Width == o.Width && r.SubWidth == o.SubWidth &&
		r.RowType == o.RowType && r.Threshold == o.Threshold && r.Height == o.Height &&
		r.Flip == o.Flip && r.TopExt.Equal(o.TopExt) && r.BotExt.Equal(o.BotExt) &&
		r.Info.Equal(o.Info) &&
		r.GConnY == o.GConnY && r.GMConnY == o.GMConnY &&
		r.DSConnY == o.DSConnY && r.DSMConnY == o.DSMConnY && r.DSGConnY == o.DSGConnY &&
		r.SubConnY == o.SubConnY &&
		r.GuardRing == o.GuardRing && r.GuardRingCol == o.GuardRingCol &&
		r.DoubleGate == o.DoubleGate && r.G2ConnY == o.G2ConnY && r.G2MConnY == o.G2MConnY
}

// Hash returns a stable structural hash.
func (r RowInfo) Hash() uint64 {
	h := stablehash.New()
	h = stablehash.Int(h, r.Lch)
	h = stablehash.Int(h, r.Width)
	h = stablehash.Int(h, r.SubWidth)
	h = stablehash.Int(h, int(r.RowType))
	h = stablehash.String(h, r.Threshold)
	h = stablehash.Int(h, r.Height)
	h = stablehash.Bool(h, r.Flip)
	h = stablehash.Combine(h, r.TopExt.Hash())
	h = stablehash.Combine(h, r.BotExt.Hash())
	h = stablehash.Combine(h, r.Info.Hash())
	for _, c := range []ConnY{r.GConnY, r.GMConnY, r.DSConnY, r.DSMConnY, r.DSGConnY,
		r.SubConnY, r.G2ConnY, r.G2MConnY} {
		h = stablehash.Int(h, c.Lo)
		h = stablehash.Int(h, c.Hi)
	}
	h = stablehash.Bool(h, r.GuardRing)
	h = stablehash.Bool(h, r.GuardRingCol)
	h = stablehash.Bool(h, r.DoubleGate)
	return h
}
