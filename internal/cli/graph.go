package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackbom/pkg/dag"
	"github.com/matzehuels/stackbom/pkg/errors"
	"github.com/matzehuels/stackbom/pkg/pipeline"
	"github.com/matzehuels/stackbom/pkg/render"
	"github.com/matzehuels/stackbom/pkg/sbom"
)

// Graph output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [path]",
		Short: "Draw the dependency graph of a project or an existing SBOM",
		Long: `Graph resolves the project under path, or reads a CycloneDX JSON document
given with --input, and draws its dependency graph. DOT is written as text;
SVG is laid out with an embedded Graphviz. PDF and PNG need rsvg-convert.`,
		Example: `  stackbom graph --deep=false
  stackbom graph --format svg -o deps.svg
  stackbom graph --input sbom.json --format png -o deps.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(c.Config, cmd); err != nil {
				return err
			}
			format := c.Config.GetString(keyFormat)
			switch format {
			case formatDOT, formatSVG, formatPDF, formatPNG:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want dot, svg, pdf or png)", format)
			}

			ctx := cmd.Context()
			g, err := c.loadGraph(ctx, args)
			if err != nil {
				return err
			}
			out, err := renderGraph(ctx, g, format, c.Config.GetBool(keyDetailed))
			if err != nil {
				return err
			}
			return c.writeOutput(out)
		},
	}

	addScanFlags(cmd)
	cmd.Flags().StringP(keyOutput, "o", "-", "output file (- for stdout)")
	cmd.Flags().StringP(keyFormat, "f", formatDOT, "output format: dot, svg, pdf or png")
	cmd.Flags().Bool(keyDetailed, false, "show package URLs and scope in node labels")
	cmd.Flags().String(keyInput, "", "read an existing CycloneDX JSON document instead of scanning")

	return cmd
}

func (c *CLI) loadGraph(ctx context.Context, args []string) (*dag.DAG, error) {
	if input := c.Config.GetString(keyInput); input != "" {
		f, err := os.Open(input)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", input)
		}
		defer f.Close()
		bom, err := sbom.Decode(f)
		if err != nil {
			return nil, err
		}
		return render.FromBOM(bom), nil
	}

	g, err := pipeline.NewRunner(loggerFromContext(ctx)).Graph(ctx, projectRoot(args), c.pipelineOptions())
	if err != nil {
		return nil, err
	}
	return g.DAG(), nil
}

func renderGraph(ctx context.Context, g *dag.DAG, format string, detailed bool) ([]byte, error) {
	dot := render.ToDOT(g, render.Options{Detailed: detailed})
	if format == formatDOT {
		return []byte(dot), nil
	}
	if format == formatPNG {
		return render.RenderPNG(ctx, dot)
	}
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil || format != formatPDF {
		return svg, err
	}
	return render.ToPDF(ctx, svg)
}

func (c *CLI) writeOutput(data []byte) error {
	path := c.Config.GetString(keyOutput)
	if path == "" || path == "-" {
		_, err := c.out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("Wrote %s", path)
	printFile(path)
	return nil
}
