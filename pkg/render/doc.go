// Package render draws dependency graphs as node-link diagrams.
//
// [ToDOT] writes a Graphviz DOT document for a [dag.DAG], either built from
// a freshly resolved graph or recovered from an existing CycloneDX document
// with [FromBOM]. [RenderSVG] and [RenderPNG] lay the DOT out with an
// embedded Graphviz; [ToPDF] converts the SVG with the external
// rsvg-convert tool.
//
//	d := render.FromBOM(bom)
//	svg, err := render.RenderSVG(ctx, render.ToDOT(d, render.Options{}))
//
// Nodes are ranked by their shortest distance from the root. Optional
// (development) components are drawn dashed, and edges that close a cycle
// are drawn in red without constraining the layout.
package render
