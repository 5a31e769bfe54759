package wires

import (
	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/track"
)

type trackInfoYAML struct {
	Track track.HalfInt `yaml:"track"`
	Width int           `yaml:"width"`
}

// MarshalYAML encodes the lookup as a mapping from "base<index>" to the
// track assignment, so placement results survive a save/load round trip.
func (wl *WireLookup) MarshalYAML() (any, error) {
	out := make(map[string]trackInfoYAML, len(wl.Refs()))
	for _, ref := range wl.Refs() {
		info, _ := wl.Get(ref)
		out[ref.String()] = trackInfoYAML{Track: info.Track, Width: info.Width}
	}
	return out, nil
}

func (wl *WireLookup) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]trackInfoYAML
	if err := node.Decode(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed wire lookup")
	}
	data := make(map[WireRef]TrackInfo, len(raw))
	for name, info := range raw {
		base, indices, err := ParseBusName(name)
		if err != nil {
			return err
		}
		if len(indices) != 1 {
			return errors.New(errors.ErrCodeInvalidName,
				"wire lookup key %s must reference a single wire", name)
		}
		data[WireRef{Base: base, Index: indices[0]}] = TrackInfo{Track: info.Track, Width: info.Width}
	}
	*wl = *NewWireLookup(data)
	return nil
}
