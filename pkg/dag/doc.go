// Package dag provides the directed dependency graph behind a bill of
// materials.
//
// # Overview
//
// Nodes are keyed by package URL and edges point from a dependent to its
// dependency. Despite the name, the graph tolerates cycles: real lockfiles
// contain them (npm peer loops, Cargo dev-dependency cycles), and an SBOM
// must record them verbatim. Traversals carry a visited set and always
// terminate.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "pkg:npm/app@1.0.0"})
//	g.AddNode(dag.Node{ID: "pkg:npm/lodash@4.17.21"})
//	g.AddEdge(dag.Edge{From: "pkg:npm/app@1.0.0", To: "pkg:npm/lodash@4.17.21"})
//
// [DAG.Reachable] walks the closure of a node, [DAG.Cycles] reports how many
// back edges a depth-first search finds, and [DAG.Depths] assigns each node
// its shortest distance from a root for layered rendering.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Read-only queries on a
// graph that is no longer modified can run in parallel.
package dag
