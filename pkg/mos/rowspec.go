package mos

import (
	"github.com/calderan/mosaic/pkg/wires"
)

// RowSpec is the user-facing specification of one transistor row: the
// device type, unit transistor dimensions, and the wire declarations
// that determine track locations on the layer above the connection
// layer.
//
// A RowSpec decoded from YAML must be passed through Normalize before
// use; Normalize fills in the substrate width default and resolves wire
// group alignments and placement types per side.
type RowSpec struct {
	MOSType    MOSType        `yaml:"mos_type"`
	Width      int            `yaml:"width"`
	Threshold  string         `yaml:"threshold"`
	BotWires   wires.WireData `yaml:"bot_wires"`
	MidWires   wires.WireData `yaml:"mid_wires,omitempty"`
	TopWires   wires.WireData `yaml:"top_wires"`
	Options    Params         `yaml:"options,omitempty"`
	Flip       bool           `yaml:"flip,omitempty"`
	SubWidth   int            `yaml:"sub_width,omitempty"`
	DoubleGate bool           `yaml:"double_gate,omitempty"`
}

// Normalize returns the spec with defaults applied.
//
// The substrate contact width defaults to the row width. Wire sides get
// their default alignment and placement type: the bottom side packs
// upward against the device, the top side packs downward, and the middle
// side (double-gate only) centers. On an unflipped row the bottom wires
// default to gate placement and the top wires to drain/source placement;
// flipping the row swaps the defaults. On a double-gate row the outer
// sides are the two gates and the middle is drain/source.
func (s RowSpec) Normalize() RowSpec {
	if s.SubWidth == 0 || s.MOSType.IsSubstrate() {
		s.SubWidth = s.Width
	}
	if s.DoubleGate {
		botPT, topPT := WireG, WireG2
		if s.Flip {
			botPT, topPT = topPT, botPT
		}
		s.BotWires = s.BotWires.Normalize(wires.AlignUpperCompact, botPT.String())
		s.MidWires = s.MidWires.Normalize(wires.AlignCenterCompact, WireDS.String())
		s.TopWires = s.TopWires.Normalize(wires.AlignLowerCompact, topPT.String())
		return s
	}
	botPT, topPT := WireG, WireDSGate
	if s.Flip {
		botPT, topPT = topPT, botPT
	}
	s.BotWires = s.BotWires.Normalize(wires.AlignUpperCompact, botPT.String())
	s.MidWires = wires.WireData{}.Normalize(wires.AlignCenterCompact, botPT.String())
	s.TopWires = s.TopWires.Normalize(wires.AlignLowerCompact, topPT.String())
	return s
}

// IgnoreBotVMSpLE reports whether line-end spacing checks against the
// row below are disabled for this row.
func (s RowSpec) IgnoreBotVMSpLE() bool { return s.Options.Bool("ignore_bot_vm_sp_le", false) }

// IgnoreTopVMSpLE reports whether line-end spacing checks against the
// row above are disabled for this row.
func (s RowSpec) IgnoreTopVMSpLE() bool { return s.Options.Bool("ignore_top_vm_sp_le", false) }
