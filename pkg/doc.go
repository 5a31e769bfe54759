// Package pkg provides the core libraries for Mosaic row placement.
//
// # Overview
//
// Mosaic builds tile tables for transistor-row layout: it stacks rows of
// transistors, assigns their wires to routing tracks, and keeps abutting
// tiles far enough apart to satisfy wire spacing. The pkg directory is
// organized bottom-up:
//
//  1. [track] - Routing grids, half-track indices, and track spacing rules
//  2. [wires] - Wire groups, track assignment, and spacing constraint graphs
//  3. [mos] - Transistor row specs and technology abstractions
//  4. [place] - Row placement, tiles, tile patterns, and the tile table
//  5. [array] - Column-level bookkeeping for placed devices
//
// # Architecture
//
// The typical data flow through Mosaic:
//
//	Placement Spec (yaml)
//	         ↓
//	    [place] package (place rows, resolve abutment)
//	         ↓
//	    Tile Table (one placement per tile)
//	         ↓
//	    [array] package (place devices column by column)
//
// # Quick Start
//
// Build a tile table from a spec and look up a wire's track:
//
//	import (
//	    "context"
//	    "github.com/calderan/mosaic/pkg/mos"
//	    "github.com/calderan/mosaic/pkg/place"
//	    "github.com/calderan/mosaic/pkg/track"
//	)
//
//	grid, _ := track.NewUniformGrid(40, nil)
//	table, _ := place.MakeTiles(context.Background(), grid, mos.NewSimTech(20), spec)
//	pinfo, _ := table.Get("inv_core")
//	tr, _ := pinfo.HMTrackInfo(3, "clk", 0)
//
// # Infrastructure
//
// [cache] - Content-addressed caching of built tables (file, Redis, null
// backends).
//
// [observability] - Hook registry for placement and cache events, with no-op
// defaults.
//
// [errors] - Coded errors shared by all packages.
//
// [stablehash] - Order-independent hashing used for table identity.
//
// [buildinfo] - Build-time version information.
//
// [track]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/track
// [wires]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/wires
// [mos]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/mos
// [place]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/place
// [array]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/array
// [cache]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/cache
// [observability]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/observability
// [errors]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/errors
// [stablehash]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/stablehash
// [buildinfo]: https://pkg.go.dev/github.com/calderan/mosaic/pkg/buildinfo
package pkg
