package mos

import (
	"github.com/calderan/mosaic/pkg/stablehash"
)

// RowExtInfo describes the top or bottom boundary of a transistor row
// for the purpose of drawing the extension region between two rows. The
// Info bag carries process-specific boundary state opaque to the
// placement engine.
type RowExtInfo struct {
	RowType   MOSType `yaml:"row_type"`
	Threshold string  `yaml:"threshold"`
	Info      Params  `yaml:"info,omitempty"`
}

// CopyWith returns a copy with the given info entries added or
// replaced.
func (e RowExtInfo) CopyWith(kv map[string]any) RowExtInfo {
	e.Info = e.Info.With(kv)
	return e
}

// Equal reports whether both records are identical.
func (e RowExtInfo) Equal(o RowExtInfo) bool {
	return e.RowType == o.RowType && e.Threshold == o.Threshold && e.Info.Equal(o.Info)
}

// Hash returns a stable structural hash.
func (e RowExtInfo) Hash() uint64 {
	h := stablehash.New()
	h = stablehash.Int(h, int(e.RowType))
	h = stablehash.String(h, e.Threshold)
	h = stablehash.Combine(h, e.Info.Hash())
	return h
}

// FgDev is a finger count attributed to one device type along a row
// boundary.
type FgDev struct {
	Fg      int     `yaml:"fg"`
	MOSType MOSType `yaml:"mos_type"`
}

// BlkExtInfo describes the top or bottom boundary of a placed transistor
// block: which devices touch the boundary and with how many fingers.
type BlkExtInfo struct {
	RowType   MOSType `yaml:"row_type"`
	Threshold string  `yaml:"threshold"`
	GuardRing bool    `yaml:"guard_ring,omitempty"`
	FgDev     []FgDev `yaml:"fg_dev"`
	Info      Params  `yaml:"info,omitempty"`
}

// Fg returns the total finger count on the boundary.
func (b BlkExtInfo) Fg() int {
	tot := 0
	for _, fd := range b.FgDev {
		tot += fd.Fg
	}
	return tot
}

// EdgeInfo describes the left or right boundary of a placed device. An
// empty EdgeInfo means no device has claimed the boundary yet.
type EdgeInfo struct {
	Info Params `yaml:"info,omitempty"`
}

// Empty reports whether no boundary state is recorded.
func (e EdgeInfo) Empty() bool { return len(e.Info) == 0 }

// Get returns the value for key, or def when absent.
func (e EdgeInfo) Get(key string, def any) any { return e.Info.Get(key, def) }

// CopyWith returns a copy with the given entries added or replaced.
func (e EdgeInfo) CopyWith(kv map[string]any) EdgeInfo {
	return EdgeInfo{Info: e.Info.With(kv)}
}

// Equal reports whether both records are identical.
func (e EdgeInfo) Equal(o EdgeInfo) bool { return e.Info.Equal(o.Info) }

// AbutInfo records two devices drawn flush against each other: the flat
// row index, the shared column, and the edge records on either side of
// the seam.
type AbutInfo struct {
	RowFlat int
	Col     int
	EdgeL   EdgeInfo
	EdgeR   EdgeInfo
}
