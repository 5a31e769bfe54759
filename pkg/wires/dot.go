package wires

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// ToDOT returns a Graphviz DOT representation of the wire graph.
//
// The DOT format can be rendered with Graphviz tools (dot, neato, etc.)
// or programmatically with RenderSVG. The output is a complete DOT
// digraph with styling suitable for documentation and debugging.
//
// Node representation:
//   - shared wires: double-circled
//   - placed wires: labeled "name<idx> @ track", rounded box shape
//   - edges point from parent to child in placement order
func (g *WireGraph) ToDOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph WireGraph {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontname=\"SF Mono, Menlo, monospace\", fontsize=14, style=filled, fillcolor=white];\n\n")

	ids := make(map[WireRef]int, len(g.order))
	for i, ref := range g.order {
		ids[ref] = i
		n := g.nodes[ref]
		label := fmt.Sprintf("%s @ %s", ref, n.idx)
		shape := "box, style=\"filled,rounded\""
		if n.shared {
			shape = "doublecircle"
		}
		fmt.Fprintf(&buf, "  n%d [label=%q, shape=%s];\n", i, label, shape)
	}
	buf.WriteString("\n")
	for _, ref := range g.order {
		for _, child := range g.succ[ref] {
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", ids[ref], ids[child])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders the wire graph as an SVG image.
//
// RenderSVG generates a DOT representation via ToDOT, then uses Graphviz
// to render it to SVG format. The returned bytes are a complete SVG
// document suitable for embedding in HTML or saving to a file.
//
// RenderSVG requires the Graphviz library (github.com/goccy/go-graphviz)
// and its C dependencies to be installed. Errors are returned if Graphviz
// cannot initialize, the DOT is malformed, or rendering fails.
func (g *WireGraph) RenderSVG() ([]byte, error) {
	dot := g.ToDOT()

	gv, err := graphviz.New(context.Background())
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(context.Background(), parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
