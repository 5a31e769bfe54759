package place

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/observability"
	"github.com/calderan/mosaic/pkg/stablehash"
	"github.com/calderan/mosaic/pkg/track"
	"github.com/calderan/mosaic/pkg/wires"
)

// arrInfoName is the reserved file stem of the array geometry; tiles
// cannot use it.
const arrInfoName = "arr_info"

// TileEdge names one vertical edge of one tile.
type TileEdge struct {
	Name    string
	TopEdge bool
}

// UnmarshalYAML parses a [name, code] pair; a non-zero code selects the
// top edge.
func (t *TileEdge) UnmarshalYAML(node *yaml.Node) error {
	var raw []yaml.Node
	if err := node.Decode(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "tile edge must be a [name, code] pair")
	}
	if len(raw) != 2 {
		return errors.New(errors.ErrCodeInvalidSpec,
			"tile edge must be a [name, code] pair, got %d entries", len(raw))
	}
	if err := raw[0].Decode(&t.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid tile edge name")
	}
	var code int
	if err := raw[1].Decode(&code); err != nil {
		var b bool
		if err2 := raw[1].Decode(&b); err2 != nil {
			return errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid tile edge code")
		}
		t.TopEdge = b
		return nil
	}
	t.TopEdge = code != 0
	return nil
}

// AbutSpec declares that two tile edges will be placed against each
// other, with optional shared wire names on each side.
type AbutSpec struct {
	Edge1   TileEdge
	Edge2   TileEdge
	Shared1 []string
	Shared2 []string
}

// UnmarshalYAML accepts either a bare [edge, edge] pair or a mapping
// with edges, shared1 and shared2 keys.
func (a *AbutSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var raw struct {
			Edges   []TileEdge `yaml:"edges"`
			Shared1 []string   `yaml:"shared1"`
			Shared2 []string   `yaml:"shared2"`
		}
		if err := node.Decode(&raw); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid abut entry")
		}
		if len(raw.Edges) != 2 {
			return errors.New(errors.ErrCodeInvalidSpec,
				"abut entry needs exactly two edges, got %d", len(raw.Edges))
		}
		a.Edge1, a.Edge2 = raw.Edges[0], raw.Edges[1]
		a.Shared1, a.Shared2 = raw.Shared1, raw.Shared2
		return nil
	}
	var edges []TileEdge
	if err := node.Decode(&edges); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid abut entry")
	}
	if len(edges) != 2 {
		return errors.New(errors.ErrCodeInvalidSpec,
			"abut entry needs exactly two edges, got %d", len(edges))
	}
	a.Edge1, a.Edge2 = edges[0], edges[1]
	a.Shared1, a.Shared2 = nil, nil
	return nil
}

// TableSpec describes a full tile table: the array geometry, the tile
// specs, and which tile edges abut.
type TableSpec struct {
	ArrInfo   ArrayInfoConfig     `yaml:"arr_info"`
	PlaceInfo map[string]TileSpec `yaml:"place_info"`
	AbutList  []AbutSpec          `yaml:"abut_list,omitempty"`
}

// TileElementSpec describes one tile pattern element: either a named
// tile (with optional mirror, flip and mult) or a nested list of
// elements.
type TileElementSpec struct {
	Name   string            `yaml:"name,omitempty"`
	Mirror *bool             `yaml:"mirror,omitempty"`
	Flip   bool              `yaml:"flip,omitempty"`
	Mult   int               `yaml:"mult,omitempty"`
	Tiles  []TileElementSpec `yaml:"tiles,omitempty"`
}

// UnmarshalYAML accepts a bare tile name or a mapping.
func (s *TileElementSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = TileElementSpec{}
		return node.Decode(&s.Name)
	}
	type plain TileElementSpec
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid tile pattern element")
	}
	*s = TileElementSpec(raw)
	return nil
}

// TileTable holds the placed tiles of one array geometry, with the
// abutment extensions already applied.
type TileTable struct {
	arrInfo *ArrayInfo
	tiles   map[string]*PlaceInfo
	hash    uint64
}

// NewTileTable builds a table from already-placed tiles.
func NewTileTable(arrInfo *ArrayInfo, tiles map[string]*PlaceInfo) (*TileTable, error) {
	if _, ok := tiles[arrInfoName]; ok {
		return nil, errors.New(errors.ErrCodeInvalidName,
			"tile name %q is reserved", arrInfoName)
	}
	t := &TileTable{arrInfo: arrInfo, tiles: tiles}
	h := stablehash.Combine(stablehash.New(), arrInfo.Hash())
	for _, name := range t.Names() {
		h = stablehash.String(h, name)
		h = stablehash.Combine(h, tiles[name].Hash())
	}
	t.hash = h
	return t, nil
}

// MakeTiles places every tile of spec and resolves the abut list:
// whenever two abutting edges would violate wire spacing, one of the
// two tiles is extended. A mirrored edge never extends when the other
// edge is unmirrored; between equal mirror settings the tile with the
// higher priority extends, and equal priorities are an error.
//
// Progress is reported through the registered observability hooks.
func MakeTiles(ctx context.Context, grid track.Grid, tech mos.Tech, spec TableSpec) (table *TileTable, err error) {
	tableStart := time.Now()
	observability.Placement().OnTableStart(ctx, len(spec.PlaceInfo))
	defer func() {
		observability.Placement().OnTableComplete(ctx, len(spec.PlaceInfo),
			time.Since(tableStart), err)
	}()

	arrInfo, err := MakeArrayInfo(grid, tech, spec.ArrInfo)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(spec.PlaceInfo))
	for name := range spec.PlaceInfo {
		names = append(names, name)
	}
	sort.Strings(names)

	tiles := make(map[string]*PlaceInfo, len(names))
	for _, name := range names {
		if name == arrInfoName {
			return nil, errors.New(errors.ErrCodeInvalidName,
				"tile name %q is reserved", arrInfoName)
		}
		tileSpec := spec.PlaceInfo[name]
		start := time.Now()
		observability.Placement().OnPlaceRowsStart(ctx, name, len(tileSpec.RowSpecs))
		pinfo, err := MakeTileCompact(arrInfo, name, tileSpec)
		height := 0
		if pinfo != nil {
			height = pinfo.Height()
		}
		observability.Placement().OnPlaceRowsComplete(ctx, name, height, time.Since(start), err)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "tile %s", name)
		}
		tiles[name] = pinfo
	}

	for _, abut := range spec.AbutList {
		pinfo1, ok := tiles[abut.Edge1.Name]
		if !ok {
			return nil, errors.New(errors.ErrCodeTileNotFound,
				"abut entry references unknown tile %s", abut.Edge1.Name)
		}
		pinfo2, ok := tiles[abut.Edge2.Name]
		if !ok {
			return nil, errors.New(errors.ErrCodeTileNotFound,
				"abut entry references unknown tile %s", abut.Edge2.Name)
		}
		top1, top2 := abut.Edge1.TopEdge, abut.Edge2.TopEdge
		margin, ewi, em1, em2, err := pinfo1.GetAbutInfo(pinfo2, top1, top2,
			abut.Shared1, abut.Shared2)
		if err != nil {
			return nil, err
		}
		if margin <= 0 {
			continue
		}
		mirror1 := pinfo1.GetMirror(top1)
		mirror2 := pinfo2.GetMirror(top2)
		var ext1 bool
		switch {
		case mirror1 == mirror2:
			p1, p2 := pinfo1.Priority(), pinfo2.Priority()
			switch {
			case p1 > p2:
				ext1 = true
			case p2 > p1:
				ext1 = false
			default:
				return nil, errors.New(errors.ErrCodeExtendAmbiguous,
					"cannot decide whether to extend tile %s or tile %s, "+
						"please set the priority property",
					abut.Edge1.Name, abut.Edge2.Name)
			}
		case mirror1:
			ext1 = false
		default:
			ext1 = true
		}
		if ext1 {
			ext, err := pinfo1.GetExtend(margin, top1, ewi, em1, em2, abut.Shared1)
			if err != nil {
				return nil, err
			}
			tiles[abut.Edge1.Name] = ext
		} else {
			ext, err := pinfo2.GetExtend(margin, top2, ewi, em2, em1, abut.Shared2)
			if err != nil {
				return nil, err
			}
			tiles[abut.Edge2.Name] = ext
		}
	}

	for _, name := range names {
		pinfo := tiles[name]
		observability.Placement().OnTileBuilt(ctx, name, pinfo.NumRows(), pinfo.Height())
	}

	return NewTileTable(arrInfo, tiles)
}

// ArrayInfo returns the shared array geometry.
func (t *TileTable) ArrayInfo() *ArrayInfo { return t.arrInfo }

// Names returns the tile names, sorted.
func (t *TileTable) Names() []string {
	names := make([]string, 0, len(t.tiles))
	for name := range t.tiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the tile with the given name.
func (t *TileTable) Get(name string) (*PlaceInfo, error) {
	pinfo, ok := t.tiles[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeTileNotFound, "no tile named %s", name)
	}
	return pinfo, nil
}

// Hash returns a stable hash of the array geometry and all tiles.
func (t *TileTable) Hash() uint64 { return t.hash }

// Equal reports whether both tables hold equal tiles on equal array
// geometry.
func (t *TileTable) Equal(o *TileTable) bool {
	if t == o {
		return true
	}
	if o == nil || !t.arrInfo.Equal(o.arrInfo) || len(t.tiles) != len(o.tiles) {
		return false
	}
	for name, pinfo := range t.tiles {
		other, ok := o.tiles[name]
		if !ok || !pinfo.Equal(other) {
			return false
		}
	}
	return true
}

// MakePlaceInfo builds a pattern element from a spec: a named tile or a
// nested pattern.
func (t *TileTable) MakePlaceInfo(spec TileElementSpec) (TilePatternElement, error) {
	mirror := spec.Mirror == nil || *spec.Mirror
	mult := spec.Mult
	if mult == 0 {
		mult = 1
	}
	if spec.Name != "" {
		pinfo, err := t.Get(spec.Name)
		if err != nil {
			return TilePatternElement{}, err
		}
		return NewTileElement(pinfo, mirror, spec.Flip, mult)
	}
	if len(spec.Tiles) == 0 {
		return TilePatternElement{}, errors.New(errors.ErrCodeInvalidSpec,
			"tile pattern element needs a name or a tiles list")
	}
	pat, err := t.MakeTilePattern(spec.Tiles)
	if err != nil {
		return TilePatternElement{}, err
	}
	return NewPatternElement(pat, mirror, spec.Flip, mult)
}

// MakeTilePattern builds a pattern from element specs, bottom-up.
func (t *TileTable) MakeTilePattern(specs []TileElementSpec) (*TilePattern, error) {
	elements := make([]TilePatternElement, 0, len(specs))
	for _, spec := range specs {
		ele, err := t.MakePlaceInfo(spec)
		if err != nil {
			return nil, err
		}
		elements = append(elements, ele)
	}
	return NewTilePattern(elements)
}

// tileFile is the on-disk form of one placed tile.
type tileFile struct {
	RPList     []RowPlaceInfo            `yaml:"rp_list"`
	BotMirror  bool                      `yaml:"bot_mirror"`
	TopMirror  bool                      `yaml:"top_mirror"`
	Options    mos.Params                `yaml:"options,omitempty"`
	Priority   int                       `yaml:"priority,omitempty"`
	WireLookup map[int]*wires.WireLookup `yaml:"wire_lookup,omitempty"`
}

// Save writes the table under dir: the array geometry as
// arr_info.yaml plus one yaml file per tile.
func (t *TileTable) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "creating tile table directory")
	}
	if err := writeYAMLFile(filepath.Join(dir, arrInfoName+".yaml"), t.arrInfo.Config()); err != nil {
		return err
	}
	for name, pinfo := range t.tiles {
		data := tileFile{
			RPList:     pinfo.Rows(),
			BotMirror:  pinfo.GetMirror(false),
			TopMirror:  pinfo.GetMirror(true),
			Options:    pinfo.Options(),
			Priority:   pinfo.Priority(),
			WireLookup: pinfo.WireLookups(),
		}
		if err := writeYAMLFile(filepath.Join(dir, name+".yaml"), data); err != nil {
			return err
		}
	}
	return nil
}

// LoadTileTable reads a table saved by Save. Every yaml file in dir
// other than arr_info.yaml is taken as one tile, named after the file.
func LoadTileTable(grid track.Grid, tech mos.Tech, dir string) (*TileTable, error) {
	var cfg ArrayInfoConfig
	if err := readYAMLFile(filepath.Join(dir, arrInfoName+".yaml"), &cfg); err != nil {
		return nil, err
	}
	arrInfo, err := MakeArrayInfo(grid, tech, cfg)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "reading tile table directory")
	}
	tiles := make(map[string]*PlaceInfo)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		if name == arrInfoName {
			continue
		}
		var data tileFile
		if err := readYAMLFile(filepath.Join(dir, entry.Name()), &data); err != nil {
			return nil, err
		}
		pinfo, err := NewPlaceInfo(name, arrInfo, data.RPList, data.BotMirror,
			data.TopMirror, data.Options, data.Priority, data.WireLookup)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "tile %s", name)
		}
		tiles[name] = pinfo
	}
	return NewTileTable(arrInfo, tiles)
}

// tableFile is the single-document form of a saved table, used when the
// whole table travels as one blob (caching, HTTP responses).
type tableFile struct {
	ArrInfo ArrayInfoConfig     `yaml:"arr_info"`
	Tiles   map[string]tileFile `yaml:"tiles"`
}

// EncodeTable serializes a table into a single yaml document. The result
// round-trips through DecodeTable.
func EncodeTable(t *TileTable) ([]byte, error) {
	doc := tableFile{
		ArrInfo: t.arrInfo.Config(),
		Tiles:   make(map[string]tileFile, len(t.tiles)),
	}
	for name, pinfo := range t.tiles {
		doc.Tiles[name] = tileFile{
			RPList:     pinfo.Rows(),
			BotMirror:  pinfo.GetMirror(false),
			TopMirror:  pinfo.GetMirror(true),
			Options:    pinfo.Options(),
			Priority:   pinfo.Priority(),
			WireLookup: pinfo.WireLookups(),
		}
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "encoding tile table")
	}
	return out, nil
}

// DecodeTable reconstructs a table from the output of EncodeTable.
func DecodeTable(grid track.Grid, tech mos.Tech, data []byte) (*TileTable, error) {
	var doc tableFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSpec, err, "decoding tile table")
	}
	arrInfo, err := MakeArrayInfo(grid, tech, doc.ArrInfo)
	if err != nil {
		return nil, err
	}
	tiles := make(map[string]*PlaceInfo, len(doc.Tiles))
	for name, tf := range doc.Tiles {
		pinfo, err := NewPlaceInfo(name, arrInfo, tf.RPList, tf.BotMirror,
			tf.TopMirror, tf.Options, tf.Priority, tf.WireLookup)
		if err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "tile %s", name)
		}
		tiles[name] = pinfo
	}
	return NewTileTable(arrInfo, tiles)
}

func writeYAMLFile(path string, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "encoding %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "writing %s", filepath.Base(path))
	}
	return nil
}

func readYAMLFile(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "reading %s", filepath.Base(path))
		}
		return errors.Wrap(errors.ErrCodeIO, err, "reading %s", filepath.Base(path))
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpec, err, "decoding %s", filepath.Base(path))
	}
	return nil
}
