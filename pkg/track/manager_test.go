package track

import "testing"

func testManager(t *testing.T) *Manager {
	t.Helper()
	g := testGrid(t)
	widths := WidthTable{
		"sig": {1: 1},
		"sup": {1: 2},
	}
	spaces := SpaceTable{
		DefaultWireType: {1: Half},
		"sup":           {1: One},
	}
	return NewManager(g, widths, spaces)
}

func TestManagerLookups(t *testing.T) {
	m := testManager(t)
	if got := m.Width(1, "sig"); got != 1 {
		t.Errorf("Width(sig) = %d", got)
	}
	if got := m.Width(1, "sup"); got != 2 {
		t.Errorf("Width(sup) = %d", got)
	}
	// Unknown types fall back to the default entry, then to 1.
	if got := m.Width(1, "clk"); got != 1 {
		t.Errorf("Width(clk) = %d", got)
	}
	if got := m.Space(1, "clk"); got != Half {
		t.Errorf("Space(clk) = %v", got)
	}
	if got := m.Space(1, "sup"); got != One {
		t.Errorf("Space(sup) = %v", got)
	}
}

func TestManagerSep(t *testing.T) {
	m := testManager(t)
	if got := m.Sep(1, "sig", "sig", true); got != One {
		t.Errorf("sig/sig sep = %v, want 1", got)
	}
	// sup is wider and carries a full-track space requirement.
	if got := m.Sep(1, "sig", "sup", true); got != FromDbl(4) {
		t.Errorf("sig/sup sep = %v, want 2", got)
	}
	// Half-track results round up to whole tracks when disallowed.
	g := testGrid(t)
	m2 := NewManager(g, WidthTable{"sig": {1: 1}, "sup": {1: 2}}, SpaceTable{DefaultWireType: {1: Half}})
	if got := m2.Sep(1, "sig", "sup", true); got != FromDbl(3) {
		t.Errorf("half sep = %v, want 1.5", got)
	}
	if got := m2.Sep(1, "sig", "sup", false); got != FromDbl(4) {
		t.Errorf("whole sep = %v, want 2", got)
	}
}

func TestManagerNextTrack(t *testing.T) {
	m := testManager(t)
	idx := New(3)
	up := m.NextTrack(1, idx, "sig", "sig", true, true)
	if up != New(4) {
		t.Errorf("up = %v, want 4", up)
	}
	down := m.NextTrack(1, idx, "sig", "sig", false, true)
	if down != New(2) {
		t.Errorf("down = %v, want 2", down)
	}
}

func TestManagerFingerprint(t *testing.T) {
	a := testManager(t)
	b := testManager(t)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal tables, different fingerprints")
	}
	if !a.Equal(b) {
		t.Error("equal tables, Equal false")
	}
	g := testGrid(t)
	c := NewManager(g, WidthTable{"sig": {1: 2}}, nil)
	if a.Equal(c) {
		t.Error("different tables reported equal")
	}
}
