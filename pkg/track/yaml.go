package track

import (
	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/errors"
)

// MarshalYAML encodes a whole track index as a plain integer and a half
// track as the string form produced by String, so "1.5" survives a
// round trip without turning into a float.
func (h HalfInt) MarshalYAML() (any, error) {
	if h.IsWhole() {
		return h.Int(), nil
	}
	return h.String(), nil
}

func (h *HalfInt) UnmarshalYAML(node *yaml.Node) error {
	var whole int
	if err := node.Decode(&whole); err == nil {
		*h = New(whole)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "track index must be an integer or half-integer string")
	}
	v, err := ParseHalfInt(s)
	if err != nil {
		return err
	}
	*h = v
	return nil
}
