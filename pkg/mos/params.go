package mos

import (
	"fmt"
	"sort"

	"github.com/calderan/mosaic/pkg/stablehash"
)

// Params is an open-ended bag of scalar options attached to rows, edges
// and extension records. Values come from YAML specs, so they are plain
// scalars; equality and hashing compare their canonical string forms.
type Params map[string]any

// Get returns the value for key, or def when absent.
func (p Params) Get(key string, def any) any {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Bool returns the value for key as a bool, or def when absent or not a
// bool.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Int returns the value for key as an int, or def when absent or not an
// int.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key].(int); ok {
		return v
	}
	return def
}

// Copy returns a shallow copy.
func (p Params) Copy() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// With returns a copy with the given entries added or replaced.
func (p Params) With(kv map[string]any) Params {
	out := p.Copy()
	for k, v := range kv {
		out[k] = v
	}
	return out
}

// Equal reports whether both bags carry the same entries.
func (p Params) Equal(o Params) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || fmt.Sprint(v) != fmt.Sprint(ov) {
			return false
		}
	}
	return true
}

// Hash returns a stable structural hash of the entries.
func (p Params) Hash() uint64 {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := stablehash.New()
	for _, k := range keys {
		h = stablehash.String(h, k)
		h = stablehash.String(h, fmt.Sprint(p[k]))
	}
	return h
}
