package wires

import (
	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/errors"
)

// Wire is one entry in a wire group: a name (possibly a bus), an optional
// placement type used to match placement constraints from the technology,
// and an optional wire type naming the width/space rules to use. An empty
// WireType defaults to the wire's base name at graph build time.
type Wire struct {
	Name      string
	PlaceType string
	WireType  string
}

// UnmarshalYAML accepts either a bare name or a [name, placement_type]
// or [name, placement_type, wire_type] sequence.
func (w *Wire) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&w.Name)
	case yaml.SequenceNode:
		var parts []string
		if err := node.Decode(&parts); err != nil {
			return err
		}
		if len(parts) < 2 || len(parts) > 3 {
			return errors.New(errors.ErrCodeInvalidSpec,
				"wire entry must have 2 or 3 elements, got %d", len(parts))
		}
		w.Name = parts[0]
		w.PlaceType = parts[1]
		if len(parts) == 3 {
			w.WireType = parts[2]
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidSpec, "wire entry must be a string or a sequence")
}

// WireGroup is an ordered chain of wires placed bottom-up; consecutive
// wires become parent/child edges in the wire graph. Align overrides the
// enclosing default alignment when set.
type WireGroup struct {
	Wires []Wire
	Align *Alignment
}

// UnmarshalYAML accepts a bare wire list or a {wires: ..., align: ...}
// mapping.
func (g *WireGroup) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&g.Wires)
	case yaml.MappingNode:
		var raw struct {
			Wires []Wire     `yaml:"wires"`
			Align *Alignment `yaml:"align"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		g.Wires = raw.Wires
		g.Align = raw.Align
		return nil
	}
	return errors.New(errors.ErrCodeInvalidSpec, "wire group must be a sequence or a mapping")
}

// WireData is the full wire specification for one routing layer of a row:
// a list of wire groups plus the names of wires shared with the
// neighboring row.
type WireData struct {
	Groups []WireGroup
	Shared []string
	Align  *Alignment
}

// UnmarshalYAML accepts the flexible layer spec: either a wire graph
// (group, or list of groups) directly, or a {data: ..., align: ...,
// shared: [...]} mapping.
func (d *WireData) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode && hasKey(node, "data") {
		var raw struct {
			Data   yaml.Node  `yaml:"data"`
			Align  *Alignment `yaml:"align"`
			Shared []string   `yaml:"shared"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		groups, err := decodeGraph(&raw.Data)
		if err != nil {
			return err
		}
		d.Groups = groups
		d.Align = raw.Align
		d.Shared = raw.Shared
		return nil
	}
	groups, err := decodeGraph(node)
	if err != nil {
		return err
	}
	d.Groups = groups
	return nil
}

// Normalize fills in defaults: group alignments from the layer alignment
// (itself defaulted from defaultAlign) and empty placement types from
// defaultPType. The result has Align set on every group.
func (d WireData) Normalize(defaultAlign Alignment, defaultPType string) WireData {
	if d.Align != nil {
		defaultAlign = *d.Align
	}
	out := WireData{
		Groups: make([]WireGroup, len(d.Groups)),
		Shared: d.Shared,
	}
	for i, g := range d.Groups {
		align := defaultAlign
		if g.Align != nil {
			align = *g.Align
		}
		ng := WireGroup{
			Wires: make([]Wire, len(g.Wires)),
			Align: &align,
		}
		for j, w := range g.Wires {
			if w.PlaceType == "" {
				w.PlaceType = defaultPType
			}
			ng.Wires[j] = w
		}
		out.Groups[i] = ng
	}
	return out
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

// isWireInfo reports whether node looks like a single wire entry rather
// than a group: a scalar name, or a short sequence of scalars.
func isWireInfo(node *yaml.Node) bool {
	switch node.Kind {
	case yaml.ScalarNode:
		return true
	case yaml.SequenceNode:
		if n := len(node.Content); n != 2 && n != 3 {
			return false
		}
		for _, c := range node.Content {
			if c.Kind != yaml.ScalarNode {
				return false
			}
		}
		return true
	}
	return false
}

func decodeGraph(node *yaml.Node) ([]WireGroup, error) {
	switch node.Kind {
	case yaml.MappingNode:
		var g WireGroup
		if err := node.Decode(&g); err != nil {
			return nil, err
		}
		return []WireGroup{g}, nil
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		if isWireInfo(node.Content[0]) {
			// flat wire list, single group
			var g WireGroup
			if err := node.Decode(&g.Wires); err != nil {
				return nil, err
			}
			return []WireGroup{g}, nil
		}
		var groups []WireGroup
		if err := node.Decode(&groups); err != nil {
			return nil, err
		}
		return groups, nil
	case 0:
		// absent layer spec
		return nil, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidSpec, "wire spec must be a sequence or a mapping")
}
