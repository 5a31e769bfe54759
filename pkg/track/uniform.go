package track

import "fmt"

// UniformGrid is a self-consistent Grid with a fixed track pitch per
// layer. Odd layers route horizontally, even layers vertically. It is the
// implementation used by tests, examples and the simulation technology;
// real designs plug in a kit-backed Grid instead.
type UniformGrid struct {
	defPitch int
	pitches  map[int]int
}

// NewUniformGrid returns a grid whose layers all use pitch, except those
// listed in overrides. Every pitch must be a positive multiple of 4 so
// wire edges and half tracks land on integer coordinates.
func NewUniformGrid(pitch int, overrides map[int]int) (*UniformGrid, error) {
	if err := checkPitch(-1, pitch); err != nil {
		return nil, err
	}
	cp := make(map[int]int, len(overrides))
	for layer, p := range overrides {
		if err := checkPitch(layer, p); err != nil {
			return nil, err
		}
		cp[layer] = p
	}
	return &UniformGrid{defPitch: pitch, pitches: cp}, nil
}

func checkPitch(layer, p int) error {
	if p <= 0 || p%4 != 0 {
		if layer < 0 {
			return fmt.Errorf("track: pitch %d must be a positive multiple of 4", p)
		}
		return fmt.Errorf("track: layer %d pitch %d must be a positive multiple of 4", layer, p)
	}
	return nil
}

// TrackPitch implements Grid.
func (g *UniformGrid) TrackPitch(layer int) int {
	if p, ok := g.pitches[layer]; ok {
		return p
	}
	return g.defPitch
}

// IsHorizontal implements Grid.
func (g *UniformGrid) IsHorizontal(layer int) bool { return layer%2 == 1 }

// Track d (doubled index) is centered at d*pitch/2, so track 0 lies on
// the origin and half tracks fall midway between whole tracks. A row
// boundary on a whole or half track lets a shared wire straddle it.

// CoordToTrack implements Grid.
func (g *UniformGrid) CoordToTrack(layer, coord int, mode RoundMode) HalfInt {
	p := g.TrackPitch(layer)
	return HalfInt(roundDiv(2*coord, p, mode))
}

// TrackToCoord implements Grid.
func (g *UniformGrid) TrackToCoord(layer int, tr HalfInt) int {
	p := g.TrackPitch(layer)
	return tr.Dbl() * p / 2
}

// halfExtent is the distance from a wire's center to its edge for a wire
// of the given width in tracks.
func (g *UniformGrid) halfExtent(layer, width int) int {
	return g.TrackPitch(layer) * (2*width - 1) / 4
}

// WireBounds implements Grid.
func (g *UniformGrid) WireBounds(layer int, tr HalfInt, width int) (int, int) {
	c := g.TrackToCoord(layer, tr)
	h := g.halfExtent(layer, width)
	return c - h, c + h
}

// FindNextTrack implements Grid.
func (g *UniformGrid) FindNextTrack(layer, coord, width int, halfTrack bool, mode RoundMode) HalfInt {
	p := g.TrackPitch(layer)
	h := g.halfExtent(layer, width)
	switch mode {
	case RoundLessEq, RoundDown:
		d := floorDiv(2*(coord-h), p)
		if !halfTrack && d&1 != 0 {
			d--
		}
		return HalfInt(d)
	case RoundGreaterEq, RoundUp:
		d := ceilDiv(2*(coord+h), p)
		if !halfTrack && d&1 != 0 {
			d++
		}
		return HalfInt(d)
	default:
		tr := g.CoordToTrack(layer, coord, RoundNearest)
		if !halfTrack {
			tr = tr.UpEven(tr > 0)
		}
		return tr
	}
}

// ViaExtension implements Grid. The extension covers half the adjacent
// wire plus a fixed enclosure of a quarter pitch, so it grows with the
// adjacent wire's width.
func (g *UniformGrid) ViaExtension(dir Direction, layer, width, adjWidth int) int {
	adj := layer + dir.Sign()
	if adjWidth < 1 {
		adjWidth = 1
	}
	return g.halfExtent(adj, adjWidth) + g.TrackPitch(adj)/4
}

// LineEndSpace implements Grid.
func (g *UniformGrid) LineEndSpace(layer, width int, even bool) int {
	p := g.TrackPitch(layer)
	sp := p/2 + (width-1)*p/4
	if even && sp&1 != 0 {
		sp++
	}
	return sp
}

// NextLength implements Grid.
func (g *UniformGrid) NextLength(layer, width, length int) int {
	p := g.TrackPitch(layer)
	if length < p {
		length = p
	}
	q := p / 2
	return ceilDiv(length, q) * q
}

// BlockSize implements Grid. The vertical quantum comes from the nearest
// horizontal layer at or below layer, the horizontal quantum from the
// nearest vertical layer.
func (g *UniformGrid) BlockSize(layer int, halfBlkX, halfBlkY bool) (int, int) {
	hLayer, vLayer := layer, layer
	if !g.IsHorizontal(hLayer) {
		hLayer--
	}
	if g.IsHorizontal(vLayer) {
		vLayer--
	}
	if hLayer < 1 {
		hLayer = 1
	}
	if vLayer < 1 {
		vLayer = 2
	}
	w := g.TrackPitch(vLayer)
	h := g.TrackPitch(hLayer)
	if halfBlkX {
		w /= 2
	}
	if halfBlkY {
		h /= 2
	}
	return w, h
}
