// Package place is the floorplanning engine for transistor arrays. It
// stacks rows of devices vertically, assigns the horizontal routing
// tracks declared by each row, and quantizes every boundary so rows,
// tiles and tile patterns can abut and mirror without design-rule
// violations.
//
// The entry points build on each other: PlaceRows computes a compact
// vertical placement for a list of row specifications, MakeTileCompact
// wraps the result in a reusable PlaceInfo tile, and TileTable builds,
// abuts and persists a family of mutually compatible tiles. Tile
// patterns compose tiles (with mirroring and repetition) into full
// floorplans without re-running placement.
package place
