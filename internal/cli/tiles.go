package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/buildinfo"
	"github.com/calderan/mosaic/pkg/cache"
	"github.com/calderan/mosaic/pkg/mos"
	"github.com/calderan/mosaic/pkg/place"
	"github.com/calderan/mosaic/pkg/track"
)

// buildSpec is the top-level yaml document consumed by "tiles build":
// the routing grid plus the tile table spec.
type buildSpec struct {
	Grid  gridConfig      `yaml:"grid"`
	Table place.TableSpec `yaml:",inline"`
}

// gridConfig describes the uniform routing grid.
type gridConfig struct {
	Pitch     int         `yaml:"pitch"`
	Overrides map[int]int `yaml:"overrides"`
}

// gridFileName is written next to the built tiles so that "tiles show" and
// "serve" can reconstruct the grid without the original spec. The .yml
// extension keeps it out of the per-tile .yaml scan in LoadTileTable.
const gridFileName = "grid.yml"

// gridFile records everything needed to reload a built tile directory.
type gridFile struct {
	Pitch     int         `yaml:"pitch"`
	Overrides map[int]int `yaml:"overrides,omitempty"`
	Lch       int         `yaml:"lch"`
}

// tilesCommand creates the tiles command group.
func (c *CLI) tilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiles",
		Short: "Build and inspect tile tables",
	}

	cmd.AddCommand(c.tilesBuildCommand())
	cmd.AddCommand(c.tilesShowCommand())

	return cmd
}

// tilesBuildCommand creates the "tiles build" subcommand.
func (c *CLI) tilesBuildCommand() *cobra.Command {
	var (
		outDir     string
		noCache    bool
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "build <spec.yaml>",
		Short: "Build a tile table from a placement spec",
		Long: `Build places every tile named in the spec, resolves spacing between
abutting tiles, and writes the result as one yaml file per tile.

Results are cached by spec content: rebuilding an unchanged spec loads
the previous result instead of placing again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTilesBuild(cmd.Context(), args[0], outDir, noCache, configFile)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "tiles", "output directory for the built table")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the build cache")
	cmd.Flags().StringVar(&configFile, "config", "", "config file (default ~/.config/mosaic/config.toml)")

	return cmd
}

func (c *CLI) runTilesBuild(ctx context.Context, specPath, outDir string, noCache bool, configFile string) error {
	logger := loggerFromContext(ctx)

	raw, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read spec: %w", err)
	}

	var spec buildSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("parse spec: %w", err)
	}

	grid, err := track.NewUniformGrid(spec.Grid.Pitch, spec.Grid.Overrides)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if spec.Table.ArrInfo.Lch <= 0 {
		return fmt.Errorf("spec must set arr_info.lch")
	}
	tech := mos.NewSimTech(spec.Table.ArrInfo.Lch)

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	backend, err := openCache(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	store := cache.Instrumented(backend, tableKeyType)
	defer store.Close()

	key := cache.NewDefaultKeyer().TableKey(cache.Hash(raw), cache.TableKeyOpts{
		Lch:      spec.Table.ArrInfo.Lch,
		TopLayer: spec.Table.ArrInfo.TopLayer,
		Version:  buildinfo.Version,
	})
	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour

	var table *place.TileTable
	cached := false
	if data, hit, err := store.Get(ctx, key); err == nil && hit {
		table, err = place.DecodeTable(grid, tech, data)
		if err != nil {
			logger.Debug("discarding stale cache entry", "err", err)
			table = nil
		} else {
			cached = true
		}
	}

	if table == nil {
		prog := newProgress(logger)
		spin := newSpinnerWithContext(ctx, fmt.Sprintf("Placing %d tiles...", len(spec.Table.PlaceInfo)))
		spin.Start()
		table, err = place.MakeTiles(ctx, grid, tech, spec.Table)
		if err != nil {
			spin.StopWithError("Placement failed")
			return err
		}
		spin.Stop()
		prog.done(fmt.Sprintf("Placed %d tiles", len(table.Names())))

		if data, encErr := place.EncodeTable(table); encErr == nil {
			if err := store.Set(ctx, key, data, ttl); err != nil {
				logger.Debug("cache write failed", "err", err)
			}
		}
	}

	if err := table.Save(outDir); err != nil {
		return err
	}
	gf := gridFile{Pitch: spec.Grid.Pitch, Overrides: spec.Grid.Overrides, Lch: spec.Table.ArrInfo.Lch}
	if err := writeGridFile(filepath.Join(outDir, gridFileName), gf); err != nil {
		return err
	}

	printSuccess("Built %d tiles", len(table.Names()))
	printTableStats(table, cached)
	for _, name := range table.Names() {
		printFile(filepath.Join(outDir, name+".yaml"))
	}
	printNextStep("Inspect the result", fmt.Sprintf("mosaic tiles show %s", outDir))
	return nil
}

// tilesShowCommand creates the "tiles show" subcommand.
func (c *CLI) tilesShowCommand() *cobra.Command {
	var tileName string

	cmd := &cobra.Command{
		Use:   "show <dir>",
		Short: "Show a built tile table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadBuiltTable(args[0])
			if err != nil {
				return err
			}
			if tileName != "" {
				return printTileDetail(table, tileName)
			}
			printTableSummary(table)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tileName, "tile", "t", "", "show row placement for one tile")

	return cmd
}

// loadBuiltTable reconstructs a table from a directory written by
// "tiles build".
func loadBuiltTable(dir string) (*place.TileTable, error) {
	raw, err := os.ReadFile(filepath.Join(dir, gridFileName))
	if err != nil {
		return nil, fmt.Errorf("read %s (was the table built with \"mosaic tiles build\"?): %w", gridFileName, err)
	}
	var gf gridFile
	if err := yaml.Unmarshal(raw, &gf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", gridFileName, err)
	}
	grid, err := track.NewUniformGrid(gf.Pitch, gf.Overrides)
	if err != nil {
		return nil, err
	}
	return place.LoadTileTable(grid, mos.NewSimTech(gf.Lch), dir)
}

func writeGridFile(path string, gf gridFile) error {
	out, err := yaml.Marshal(gf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// printTableSummary lists every tile with its key numbers.
func printTableSummary(table *place.TileTable) {
	names := table.Names()
	printInfo("%d tiles", len(names))
	for _, name := range names {
		pinfo, err := table.Get(name)
		if err != nil {
			continue
		}
		printDetail("%-16s %2d rows  height %5d  priority %d",
			name, pinfo.NumRows(), pinfo.Height(), pinfo.Priority())
	}
}

// printTileDetail prints the row placement of a single tile.
func printTileDetail(table *place.TileTable, name string) error {
	pinfo, err := table.Get(name)
	if err != nil {
		return err
	}
	printKeyValue("tile", name)
	printKeyValue("rows", fmt.Sprintf("%d", pinfo.NumRows()))
	printKeyValue("height", fmt.Sprintf("%d", pinfo.Height()))
	printKeyValue("mirror", fmt.Sprintf("bot=%v top=%v", pinfo.GetMirror(false), pinfo.GetMirror(true)))
	printNewline()
	for i := 0; i < pinfo.NumRows(); i++ {
		rp, err := pinfo.Row(i)
		if err != nil {
			return err
		}
		printDetail("row %d  %-5s  y [%d, %d]  blk [%d, %d]  conn [%d, %d]",
			i, rp.RowInfo.RowType, rp.YB, rp.YT, rp.YBBlk, rp.YTBlk,
			rp.YConn[0], rp.YConn[1])
	}
	return nil
}
