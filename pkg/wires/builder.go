package wires

import (
	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/track"
)

// WireGraphBuilder accumulates wire groups into a dependency graph.
// Registering the same wire in multiple groups merges the constraints;
// the edges of every group it appears in all apply.
type WireGraphBuilder struct {
	nodes      map[WireRef]*wireNode
	order      []WireRef
	succ       map[WireRef][]WireRef
	pred       map[WireRef][]WireRef
	edges      map[[2]WireRef]struct{}
	alignSpecs []alignSpec
	hasCenter  bool
}

// NewWireGraphBuilder returns an empty builder.
func NewWireGraphBuilder() *WireGraphBuilder {
	return &WireGraphBuilder{
		nodes: make(map[WireRef]*wireNode),
		succ:  make(map[WireRef][]WireRef),
		pred:  make(map[WireRef][]WireRef),
		edges: make(map[[2]WireRef]struct{}),
	}
}

// RegisterWires adds one ordered group of wires. Bus names expand into
// their individual bits, and consecutive wires become parent/child
// dependencies. An even, type-symmetric centered group additionally
// requires a whole-track gap between its two middle wires so the center
// lands on a track.
func (b *WireGraphBuilder) RegisterWires(group []Wire, align Alignment) error {
	if len(group) == 0 {
		return nil
	}
	b.hasCenter = b.hasCenter || align.IsCenter()

	var havePrev bool
	var prev WireRef
	var wireList []WireRef
	for _, w := range group {
		base, indices, err := ParseBusName(w.Name)
		if err != nil {
			return err
		}
		wtype := w.WireType
		if wtype == "" {
			wtype = base
		}
		for _, idx := range indices {
			ref := WireRef{Base: base, Index: idx}
			wireList = append(wireList, ref)
			if _, ok := b.nodes[ref]; !ok {
				b.nodes[ref] = &wireNode{wtype: wtype, ptype: w.PlaceType}
				b.order = append(b.order, ref)
			}
			if havePrev {
				b.addEdge(prev, ref)
			}
			prev = ref
			havePrev = true
		}
	}

	if len(wireList) > 0 {
		n := len(wireList)
		if align.IsCenter() && n&1 == 0 && b.isEvenSymmetric(wireList) {
			nhalf := n / 2
			mid := b.nodes[wireList[nhalf]]
			if mid.evenSpaces == nil {
				mid.evenSpaces = make(map[WireRef]struct{})
			}
			mid.evenSpaces[wireList[nhalf-1]] = struct{}{}
		}
		b.alignSpecs = append(b.alignSpecs, alignSpec{wires: wireList, align: align})
	}
	return nil
}

// RegisterSharedWire marks a previously registered wire as shared with
// the neighboring row. Only boundary wires (pure sources or pure sinks)
// can be shared, and only scalars.
func (b *WireGraphBuilder) RegisterSharedWire(name string) error {
	base, indices, err := ParseBusName(name)
	if err != nil {
		return err
	}
	if len(indices) > 1 {
		return errors.New(errors.ErrCodeInvalidSpec, "cannot register bus as shared wires")
	}
	ref := WireRef{Base: base, Index: indices[0]}
	n, ok := b.nodes[ref]
	if !ok {
		return errors.New(errors.ErrCodeWireNotFound, "cannot find shared wire: %s", ref)
	}
	if (len(b.pred[ref]) == 0) == (len(b.succ[ref]) == 0) {
		return errors.New(errors.ErrCodeInvalidSpec, "shared wire %s is not on the boundary", ref)
	}
	n.shared = true
	return nil
}

// Graph finalizes the builder into a WireGraph for the given layer,
// resolving each wire's width through the track manager. The builder
// must not be reused after this call.
func (b *WireGraphBuilder) Graph(layer int, tm *track.Manager) *WireGraph {
	for _, n := range b.nodes {
		n.width = tm.Width(layer, n.wtype)
	}
	return &WireGraph{
		nodes:      b.nodes,
		order:      b.order,
		succ:       b.succ,
		pred:       b.pred,
		alignSpecs: b.alignSpecs,
		hasCenter:  b.hasCenter,
		lower:      coordMax,
		upper:      coordMin,
	}
}

func (b *WireGraphBuilder) addEdge(from, to WireRef) {
	key := [2]WireRef{from, to}
	if _, ok := b.edges[key]; ok {
		return
	}
	b.edges[key] = struct{}{}
	b.succ[from] = append(b.succ[from], to)
	b.pred[to] = append(b.pred[to], from)
}

// isEvenSymmetric reports whether the wire types read the same from both
// ends of the list.
func (b *WireGraphBuilder) isEvenSymmetric(list []WireRef) bool {
	n := len(list)
	for i := 0; i < n/2; i++ {
		if b.nodes[list[i]].wtype != b.nodes[list[n-1-i]].wtype {
			return false
		}
	}
	return true
}
