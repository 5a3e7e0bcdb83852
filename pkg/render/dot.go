package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/matzehuels/stackbom/pkg/dag"
)

// Options configures node-link rendering.
type Options struct {
	// Detailed adds the package URL and metadata to node labels.
	// When false, only name@version is shown.
	Detailed bool
}

// ToDOT converts a dependency DAG to Graphviz DOT. The root is read from the
// graph's "root" metadata; without it, nodes are ranked from the sources.
func ToDOT(g *dag.DAG, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := fmtAttrs(*n, fmtLabel(*n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	back := make(map[dag.Edge]bool)
	for _, e := range g.BackEdges() {
		back[e] = true
	}
	for _, e := range g.Edges() {
		if back[e] {
			fmt.Fprintf(&buf, "  %q -> %q [color=red, constraint=false];\n", e.From, e.To)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	ranks := rankOf(g)
	if len(ranks) > 0 {
		buf.WriteString("\n")
	}
	for _, depth := range slices.Sorted(maps.Keys(ranks)) {
		ids := ranks[depth]
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = fmt.Sprintf("%q", id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// rankOf groups node IDs by distance from the root, in insertion order.
// Unreachable nodes are left to Graphviz.
func rankOf(g *dag.DAG) map[int][]string {
	var depths map[string]int
	if root, _ := g.Meta()["root"].(string); root != "" {
		depths = g.Depths(root)
	} else {
		depths = make(map[string]int)
		for _, src := range g.Sources() {
			for id, d := range g.Depths(src.ID) {
				if cur, ok := depths[id]; !ok || d < cur {
					depths[id] = d
				}
			}
		}
	}
	ranks := make(map[int][]string)
	for _, n := range g.Nodes() {
		if d, ok := depths[n.ID]; ok {
			ranks[d] = append(ranks[d], n.ID)
		}
	}
	return ranks
}

func fmtLabel(n dag.Node, detailed bool) string {
	label := n.ID
	if name, _ := n.Meta["name"].(string); name != "" {
		label = name
		if v, _ := n.Meta["version"].(string); v != "" {
			label += "@" + v
		}
	}
	if !detailed {
		return label
	}

	parts := []string{n.ID}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if k == "name" || k == "version" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if scope, _ := n.Meta["scope"].(string); scope == string(cdx.ScopeOptional) {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// FromBOM rebuilds the dependency graph of a CycloneDX document. Dependency
// entries naming unknown refs are ignored.
func FromBOM(bom *cdx.BOM) *dag.DAG {
	var root string
	if bom.Metadata != nil && bom.Metadata.Component != nil {
		root = bom.Metadata.Component.BOMRef
	}
	d := dag.New(dag.Metadata{"root": root})
	if root != "" {
		c := bom.Metadata.Component
		_ = d.AddNode(dag.Node{ID: root, Meta: nodeMeta(c)})
	}
	if bom.Components != nil {
		for i := range *bom.Components {
			c := &(*bom.Components)[i]
			if c.BOMRef == "" {
				continue
			}
			_ = d.AddNode(dag.Node{ID: c.BOMRef, Meta: nodeMeta(c)})
		}
	}
	if bom.Dependencies != nil {
		for _, dep := range *bom.Dependencies {
			if dep.Dependencies == nil {
				continue
			}
			for _, to := range *dep.Dependencies {
				_ = d.AddEdge(dag.Edge{From: dep.Ref, To: to})
			}
		}
	}
	return d
}

func nodeMeta(c *cdx.Component) dag.Metadata {
	name := c.Name
	if c.Group != "" {
		name = c.Group + "/" + c.Name
	}
	scope := string(c.Scope)
	if scope == "" {
		scope = string(cdx.ScopeRequired)
	}
	return dag.Metadata{"name": name, "version": c.Version, "scope": scope}
}
