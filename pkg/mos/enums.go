package mos

import (
	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/errors"
)

// MOSType identifies the device type of a transistor row.
type MOSType int

const (
	// NCh is an n-channel transistor row.
	NCh MOSType = iota
	// PTap is a p-type substrate contact row.
	PTap
	// PCh is a p-channel transistor row.
	PCh
	// NTap is an n-type substrate contact row.
	NTap
)

// IsSubstrate reports whether this is a substrate contact row.
func (t MOSType) IsSubstrate() bool { return t == PTap || t == NTap }

// IsPWell reports whether the row sits in the p-well.
func (t MOSType) IsPWell() bool { return t == NCh || t == PTap }

// SubType returns the substrate contact type that serves this row.
func (t MOSType) SubType() MOSType {
	if t == NCh || t == PTap {
		return PTap
	}
	return NTap
}

// IsNPlus reports whether the row uses n-plus implant.
func (t MOSType) IsNPlus() bool { return t == NCh || t == NTap }

// SameImplant reports whether both rows share the same implant polarity.
func (t MOSType) SameImplant(o MOSType) bool { return t.IsNPlus() == o.IsNPlus() }

func (t MOSType) String() string {
	switch t {
	case NCh:
		return "nch"
	case PTap:
		return "ptap"
	case PCh:
		return "pch"
	case NTap:
		return "ntap"
	}
	return "unknown"
}

// ParseMOSType converts the string form back into a MOSType.
func ParseMOSType(s string) (MOSType, error) {
	switch s {
	case "nch":
		return NCh, nil
	case "ptap":
		return PTap, nil
	case "pch":
		return PCh, nil
	case "ntap":
		return NTap, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidSpec, "unknown mos type: %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (t MOSType) MarshalYAML() (any, error) { return t.String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *MOSType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := ParseMOSType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// WireType classifies the horizontal tracks above the connection layer
// relative to the transistor ports they land on.
//
// G tracks sit directly over the gate connection; G_MATCH tracks sit
// outside it for parasitic matching. DS tracks sit over the drain/source
// connection, DS_GATE tracks over drain/source overlapping the gate
// region when possible, DS_MATCH outside for matching. G2/G2_MATCH are
// the second-gate equivalents on double-gate rows.
//
// On an unflipped row the gate is at the bottom and drain/source (or the
// second gate) at the top; flipping a row swaps the two sides.
type WireType int

const (
	WireG WireType = iota
	WireGMatch
	WireDS
	WireDSGate
	WireDSMatch
	WireG2
	WireG2Match
)

// IsGate reports whether this is a first-gate track type.
func (w WireType) IsGate() bool { return w == WireG || w == WireGMatch }

// IsGate2 reports whether this is a second-gate track type.
func (w WireType) IsGate2() bool { return w == WireG2 || w == WireG2Match }

// IsPhysical reports whether tracks of this type connect to a device
// port, as opposed to matching-only tracks.
func (w WireType) IsPhysical() bool {
	return w != WireGMatch && w != WireDSMatch && w != WireG2Match
}

func (w WireType) String() string {
	switch w {
	case WireG:
		return "G"
	case WireGMatch:
		return "G_MATCH"
	case WireDS:
		return "DS"
	case WireDSGate:
		return "DS_GATE"
	case WireDSMatch:
		return "DS_MATCH"
	case WireG2:
		return "G2"
	case WireG2Match:
		return "G2_MATCH"
	}
	return "unknown"
}

// ParseWireType converts the string form back into a WireType.
func ParseWireType(s string) (WireType, error) {
	switch s {
	case "G":
		return WireG, nil
	case "G_MATCH":
		return WireGMatch, nil
	case "DS":
		return WireDS, nil
	case "DS_GATE":
		return WireDSGate, nil
	case "DS_MATCH":
		return WireDSMatch, nil
	case "G2":
		return WireG2, nil
	case "G2_MATCH":
		return WireG2Match, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidSpec, "unknown wire type: %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (w WireType) MarshalYAML() (any, error) { return w.String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *WireType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := ParseWireType(s)
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// SubPortMode selects which columns of a substrate contact are ported.
type SubPortMode int

const (
	SubPortEven SubPortMode = iota
	SubPortOdd
	SubPortBoth
)

// AbutMode describes how a technology handles two devices drawn flush
// against each other in the same row.
type AbutMode int

const (
	// AbutNone forbids abutment; devices must keep minimum separation.
	AbutNone AbutMode = iota
	// AbutOverlay resolves abutment by overlaying boundary geometry.
	AbutOverlay
	// AbutUpdate resolves abutment by recording the edge pair for a
	// later geometry update.
	AbutUpdate
)

// ExtendMode selects which dimension to grow when rounding a block up
// to its placement quantum.
type ExtendMode int

const (
	ExtendX ExtendMode = iota
	ExtendY
	ExtendArea
)
