package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/calderan/mosaic/pkg/track"
	"github.com/calderan/mosaic/pkg/wires"
)

// wireGraphSpec is the yaml document consumed by "wires dot": a routing
// grid, the layer the wires live on, and the wire groups themselves.
type wireGraphSpec struct {
	Pitch    int              `yaml:"pitch"`
	Layer    int              `yaml:"layer"`
	TrWidths track.WidthTable `yaml:"tr_widths"`
	TrSpaces track.SpaceTable `yaml:"tr_spaces"`
	Wires    wires.WireData   `yaml:"wires"`
}

// wiresCommand creates the wires command group.
func (c *CLI) wiresCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wires",
		Short: "Inspect wire constraint graphs",
	}

	cmd.AddCommand(c.wiresDotCommand())

	return cmd
}

// wiresDotCommand creates the "wires dot" subcommand.
func (c *CLI) wiresDotCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "dot <wires.yaml>",
		Short: "Export a wire constraint graph as DOT or SVG",
		Long: `Dot builds the spacing constraint graph for a set of wires and writes
it in Graphviz DOT format. With an .svg output path the graph is
rendered directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read wire spec: %w", err)
			}
			var spec wireGraphSpec
			if err := yaml.Unmarshal(raw, &spec); err != nil {
				return fmt.Errorf("parse wire spec: %w", err)
			}

			grid, err := track.NewUniformGrid(spec.Pitch, nil)
			if err != nil {
				return err
			}
			tm := track.NewManager(grid, spec.TrWidths, spec.TrSpaces)
			graph, err := wires.MakeWireGraph(spec.Layer, tm, spec.Wires)
			if err != nil {
				return err
			}

			if strings.EqualFold(filepath.Ext(outPath), ".svg") {
				svg, err := graph.RenderSVG()
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, svg, 0o644); err != nil {
					return err
				}
				printSuccess("Rendered wire graph")
				printFile(outPath)
				return nil
			}

			dot := graph.ToDOT()
			if outPath == "" {
				fmt.Print(dot)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(dot), 0o644); err != nil {
				return err
			}
			printSuccess("Exported wire graph")
			printFile(outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (.dot or .svg; default stdout)")

	return cmd
}
