package mos

import "testing"

func TestMOSTypeProperties(t *testing.T) {
	tests := []struct {
		typ         MOSType
		isSubstrate bool
		isPWell     bool
		subType     MOSType
		isNPlus     bool
	}{
		{NCh, false, true, PTap, true},
		{PTap, true, true, PTap, false},
		{PCh, false, false, NTap, false},
		{NTap, true, false, NTap, true},
	}
	for _, tc := range tests {
		t.Run(tc.typ.String(), func(t *testing.T) {
			if got := tc.typ.IsSubstrate(); got != tc.isSubstrate {
				t.Errorf("IsSubstrate = %v, want %v", got, tc.isSubstrate)
			}
			if got := tc.typ.IsPWell(); got != tc.isPWell {
				t.Errorf("IsPWell = %v, want %v", got, tc.isPWell)
			}
			if got := tc.typ.SubType(); got != tc.subType {
				t.Errorf("SubType = %v, want %v", got, tc.subType)
			}
			if got := tc.typ.IsNPlus(); got != tc.isNPlus {
				t.Errorf("IsNPlus = %v, want %v", got, tc.isNPlus)
			}
		})
	}
}

func TestMOSTypeSameImplant(t *testing.T) {
	if !NCh.SameImplant(NTap) {
		t.Error("nch and ntap should share implant")
	}
	if NCh.SameImplant(PCh) {
		t.Error("nch and pch should not share implant")
	}
	if !PCh.SameImplant(PTap) {
		t.Error("pch and ptap should share implant")
	}
}

func TestMOSTypeParseRoundTrip(t *testing.T) {
	for _, typ := range []MOSType{NCh, PTap, PCh, NTap} {
		got, err := ParseMOSType(typ.String())
		if err != nil {
			t.Fatalf("ParseMOSType(%q): %v", typ.String(), err)
		}
		if got != typ {
			t.Errorf("ParseMOSType(%q) = %v, want %v", typ.String(), got, typ)
		}
	}
	if _, err := ParseMOSType("nmos"); err == nil {
		t.Error("expected error for unknown mos type")
	}
}

func TestWireTypeProperties(t *testing.T) {
	tests := []struct {
		wt         WireType
		isGate     bool
		isGate2    bool
		isPhysical bool
	}{
		{WireG, true, false, true},
		{WireGMatch, true, false, false},
		{WireDS, false, false, true},
		{WireDSGate, false, false, true},
		{WireDSMatch, false, false, false},
		{WireG2, false, true, true},
		{WireG2Match, false, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.wt.String(), func(t *testing.T) {
			if got := tc.wt.IsGate(); got != tc.isGate {
				t.Errorf("IsGate = %v, want %v", got, tc.isGate)
			}
			if got := tc.wt.IsGate2(); got != tc.isGate2 {
				t.Errorf("IsGate2 = %v, want %v", got, tc.isGate2)
			}
			if got := tc.wt.IsPhysical(); got != tc.isPhysical {
				t.Errorf("IsPhysical = %v, want %v", got, tc.isPhysical)
			}
		})
	}
}

func TestWireTypeParseRoundTrip(t *testing.T) {
	all := []WireType{WireG, WireGMatch, WireDS, WireDSGate, WireDSMatch, WireG2, WireG2Match}
	for _, wt := range all {
		got, err := ParseWireType(wt.String())
		if err != nil {
			t.Fatalf("ParseWireType(%q): %v", wt.String(), err)
		}
		if got != wt {
			t.Errorf("ParseWireType(%q) = %v, want %v", wt.String(), got, wt)
		}
	}
}
