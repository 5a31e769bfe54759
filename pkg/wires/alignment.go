package wires

import (
	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/errors"
)

// Alignment describes how a wire group is pushed inside its row area
// once the final row height is known.
type Alignment int

const (
	// AlignLowerCompact packs wires against the lower boundary.
	AlignLowerCompact Alignment = iota
	// AlignUpperCompact packs wires against the upper boundary.
	AlignUpperCompact
	// AlignCenterCompact packs wires around the row center.
	AlignCenterCompact
)

// IsCenter reports whether the alignment centers its group. Centered
// groups disable half-quantum block sizing so the center stays on grid.
func (a Alignment) IsCenter() bool { return a == AlignCenterCompact }

func (a Alignment) String() string {
	switch a {
	case AlignLowerCompact:
		return "lower_compact"
	case AlignUpperCompact:
		return "upper_compact"
	case AlignCenterCompact:
		return "center_compact"
	}
	return "unknown"
}

// ParseAlignment converts a string form back into an Alignment.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "lower_compact", "LOWER_COMPACT":
		return AlignLowerCompact, nil
	case "upper_compact", "UPPER_COMPACT":
		return AlignUpperCompact, nil
	case "center_compact", "CENTER_COMPACT":
		return AlignCenterCompact, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidSpec, "unknown alignment: %q", s)
}

// MarshalYAML implements yaml.Marshaler.
func (a Alignment) MarshalYAML() (any, error) { return a.String(), nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Alignment) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := ParseAlignment(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
