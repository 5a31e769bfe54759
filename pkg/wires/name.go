package wires

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/calderan/mosaic/pkg/errors"
)

// WireRef identifies a single wire: a bus base name plus a bit index.
// Scalar wires use index 0.
type WireRef struct {
	Base  string
	Index int
}

func (w WireRef) String() string {
	return fmt.Sprintf("%s<%d>", w.Base, w.Index)
}

// ParseBusName parses a CDBA-style wire name into its base name and the
// list of bit indices it covers, in declaration order.
//
// Accepted forms:
//
//	"foo"        -> foo, [0]
//	"foo<2>"     -> foo, [2]
//	"foo<3:0>"   -> foo, [3 2 1 0]
//	"foo<0:6:2>" -> foo, [0 2 4 6]
//
// A two-element range infers step -1 when stop < start. The base name may
// not contain '<' or ':' and the whole name may not be empty.
func ParseBusName(name string) (string, []int, error) {
	if name == "" {
		return "", nil, errors.New(errors.ErrCodeInvalidName, "cannot have empty string as wire name")
	}

	if !strings.HasSuffix(name, ">") {
		if strings.ContainsAny(name, "<:") {
			return "", nil, errors.New(errors.ErrCodeInvalidName, "illegal wire name: %s", name)
		}
		return name, []int{0}, nil
	}

	open := strings.IndexByte(name, '<')
	if open < 0 {
		return "", nil, errors.New(errors.ErrCodeInvalidName, "illegal wire name: %s", name)
	}
	base := name[:open]
	if strings.ContainsRune(base, ':') {
		return "", nil, errors.New(errors.ErrCodeInvalidName, "illegal wire name: %s", name)
	}

	parts := strings.Split(name[open+1:len(name)-1], ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return "", nil, errors.New(errors.ErrCodeInvalidName, "illegal wire name: %s", name)
		}
		nums[i] = v
	}

	var start, stop, step int
	switch len(parts) {
	case 1:
		start, stop, step = nums[0], nums[0], 1
	case 2:
		start, stop = nums[0], nums[1]
		if stop > start {
			step = 1
		} else {
			step = -1
		}
	case 3:
		start, stop, step = nums[0], nums[1], nums[2]
		if step == 0 || (stop-start)/step < 0 {
			return "", nil, errors.New(errors.ErrCodeInvalidName, "illegal wire name: %s", name)
		}
	default:
		return "", nil, errors.New(errors.ErrCodeInvalidName, "illegal wire name: %s", name)
	}

	n := (stop-start)/step + 1
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		indices = append(indices, start+i*step)
	}
	return base, indices, nil
}

// expandShared expands a list of shared wire names into the set of
// WireRefs they cover.
func expandShared(shared []string) (map[WireRef]struct{}, error) {
	set := make(map[WireRef]struct{}, len(shared))
	for _, name := range shared {
		base, indices, err := ParseBusName(name)
		if err != nil {
			return nil, err
		}
		for _, idx := range indices {
			set[WireRef{Base: base, Index: idx}] = struct{}{}
		}
	}
	return set, nil
}
