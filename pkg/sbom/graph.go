package sbom

import (
	"cmp"
	"slices"

	"github.com/matzehuels/stackbom/pkg/dag"
	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/errors"
)

// Graph is the merged dependency graph of a project.
type Graph struct {
	Root          deps.ProjectMetadata
	RootEcosystem deps.Ecosystem
	RootRef       string
	Components    []deps.Component
	Dependencies  []deps.Dependency // Root entry first, then one per component
	Lockfiles     map[deps.Ecosystem]string

	// Dangling counts edges dropped because their target was missing.
	Dangling int
}

// Combine merges parse results into a single graph. Nil results are
// ignored; having none at all is an error.
func Combine(results []*deps.ParseResult) (*Graph, error) {
	var rs []*deps.ParseResult
	for _, r := range results {
		if r != nil {
			rs = append(rs, r)
		}
	}
	if len(rs) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "combine: no parse results")
	}
	slices.SortStableFunc(rs, func(a, b *deps.ParseResult) int {
		return cmp.Compare(a.Ecosystem, b.Ecosystem)
	})

	first := rs[0]
	g := &Graph{
		Root:          first.Metadata,
		RootEcosystem: first.Ecosystem,
		RootRef:       first.RootRef,
		Lockfiles:     make(map[deps.Ecosystem]string),
	}
	if g.RootRef == "" {
		g.RootRef = deps.RootComponent(first.Ecosystem, first.Metadata).ID()
	}

	roots := make(map[string]bool, len(rs))
	for _, r := range rs {
		if r.RootRef != "" {
			roots[r.RootRef] = true
		}
		if r.Lockfile != "" {
			g.Lockfiles[r.Ecosystem] = r.Lockfile
		}
	}
	rewrite := func(ref string) string {
		if roots[ref] {
			return g.RootRef
		}
		return ref
	}

	known := map[string]bool{g.RootRef: true}
	for _, r := range rs {
		for _, c := range r.Components {
			id := c.ID()
			if known[id] || roots[id] {
				continue
			}
			known[id] = true
			g.Components = append(g.Components, c)
		}
	}

	m := newEdgeMerger()
	m.add(g.RootRef, nil)
	for _, c := range g.Components {
		m.add(c.ID(), nil)
	}
	for _, r := range rs {
		for _, d := range r.Dependencies {
			ref := rewrite(d.Ref)
			if !known[ref] {
				g.Dangling += len(d.DependsOn)
				continue
			}
			var targets []string
			for _, t := range d.DependsOn {
				t = rewrite(t)
				if !known[t] {
					g.Dangling++
					continue
				}
				targets = append(targets, t)
			}
			m.add(ref, targets)
		}
	}
	g.Dependencies = m.entries()
	return g, nil
}

// edgeMerger unions dependsOn lists by ref, preserving first-seen order.
type edgeMerger struct {
	order []string
	edges map[string][]string
	seen  map[string]map[string]bool
}

func newEdgeMerger() *edgeMerger {
	return &edgeMerger{edges: make(map[string][]string), seen: make(map[string]map[string]bool)}
}

func (m *edgeMerger) add(ref string, targets []string) {
	if _, ok := m.seen[ref]; !ok {
		m.order = append(m.order, ref)
		m.seen[ref] = make(map[string]bool)
		m.edges[ref] = []string{}
	}
	for _, t := range targets {
		if !m.seen[ref][t] {
			m.seen[ref][t] = true
			m.edges[ref] = append(m.edges[ref], t)
		}
	}
}

func (m *edgeMerger) entries() []deps.Dependency {
	out := make([]deps.Dependency, len(m.order))
	for i, ref := range m.order {
		out[i] = deps.Dependency{Ref: ref, DependsOn: m.edges[ref]}
	}
	return out
}

// Prune reduces the graph to the root and its direct dependencies. Edges
// between dependencies are removed along with every transitive component.
func (g *Graph) Prune() {
	var direct []string
	for _, d := range g.Dependencies {
		if d.Ref == g.RootRef {
			direct = d.DependsOn
			break
		}
	}
	keep := make(map[string]bool, len(direct))
	for _, ref := range direct {
		keep[ref] = true
	}

	comps := g.Components[:0]
	for _, c := range g.Components {
		if keep[c.ID()] {
			comps = append(comps, c)
		}
	}
	g.Components = comps

	entries := []deps.Dependency{{Ref: g.RootRef, DependsOn: direct}}
	for _, c := range g.Components {
		entries = append(entries, deps.Dependency{Ref: c.ID(), DependsOn: []string{}})
	}
	g.Dependencies = entries
}

// DAG returns the graph as a [dag.DAG] with one node per component plus
// the root. Node metadata carries "name", "version" and "scope".
func (g *Graph) DAG() *dag.DAG {
	d := dag.New(dag.Metadata{"root": g.RootRef})
	_ = d.AddNode(dag.Node{ID: g.RootRef, Meta: dag.Metadata{
		"name": g.Root.Name, "version": g.Root.Version, "scope": string(deps.ScopeRequired),
	}})
	for _, c := range g.Components {
		_ = d.AddNode(dag.Node{ID: c.ID(), Meta: dag.Metadata{
			"name": qualifiedName(c), "version": c.Version, "scope": string(c.Scope),
		}})
	}
	for _, dep := range g.Dependencies {
		for _, t := range dep.DependsOn {
			_ = d.AddEdge(dag.Edge{From: dep.Ref, To: t})
		}
	}
	return d
}

func qualifiedName(c deps.Component) string {
	if c.Namespace == "" {
		return c.Name
	}
	switch c.Ecosystem {
	case deps.Maven:
		return c.Namespace + ":" + c.Name
	default:
		return c.Namespace + "/" + c.Name
	}
}
