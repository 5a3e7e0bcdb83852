// Package sbom merges per-ecosystem parse results into one dependency graph
// and assembles it into a CycloneDX document.
//
// # Pipeline
//
//	results := ...                  // one *deps.ParseResult per ecosystem
//	g, err := sbom.Combine(results) // dedup, merge edges, single root
//	bom, err := sbom.Assemble(g, sbom.AssembleOptions{})
//	err = sbom.Encode(os.Stdout, bom, true)
//
// # Merge Rules
//
// Results are ordered alphabetically by ecosystem before merging, so the
// document root takes its metadata from the first ecosystem in that order
// and repeated runs over the same files give the same document. Components
// sharing an identity collapse into the first one seen. Dependency entries
// sharing a ref are unioned. Every ecosystem's synthetic project node is
// rewritten to the single document root. Edges pointing at components that
// are not in the document are dropped, while cycles are kept as recorded.
//
// # Annotations
//
// Enrichment attaches data to components as CycloneDX properties through
// [Annotate] and reads them back with [Annotations], addressing components
// by package URL.
package sbom
