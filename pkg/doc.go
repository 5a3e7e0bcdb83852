// Package pkg provides the libraries behind stackbom, a multi-ecosystem
// lockfile to CycloneDX SBOM generator.
//
// # Overview
//
// Stackbom reads the manifests and lockfiles already present in a project
// directory. It never contacts a registry to resolve versions; a component
// whose version no lockfile pins is reported as 0.0.0. The pkg directory is
// organized into these areas:
//
//  1. [deps] - Component model, result builder, per-ecosystem parsers
//  2. [sbom] - Combining parse results and assembling CycloneDX documents
//  3. [pipeline] - Orchestration (detect → parse → combine → assemble)
//  4. [enrich] - Optional OSV vulnerability annotations
//  5. [render] - DOT and SVG dependency graphs
//
// # Architecture
//
//	Project directory
//	         ↓
//	    [deps/languages] (detect applicable ecosystems)
//	         ↓
//	    [deps/...] parsers, run concurrently
//	         ↓
//	    [sbom] Combine → Graph → Assemble
//	         ↓
//	    CycloneDX JSON ──→ [enrich] (optional)
//
// # Quick Start
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/matzehuels/stackbom/pkg/pipeline"
//	    "github.com/matzehuels/stackbom/pkg/sbom"
//	)
//
//	bom, err := pipeline.NewRunner(nil).Generate(context.Background(), ".", pipeline.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	return sbom.Encode(os.Stdout, bom, true)
//
// # Supporting Packages
//
//   - [dag]: directed graph with cycle detection and depth ranking
//   - [decode]: JSON, TOML, YAML and XML decoding with uniform errors
//   - [cache]: null, file and Redis caches for lookups
//   - [integrations]: shared HTTP client with caching and retries
//   - [httputil]: retry with exponential backoff
//   - [observability]: hooks for pipeline, cache and HTTP events
//   - [errors]: coded errors shared by the CLI and the HTTP API
//   - [buildinfo]: version information recorded in every document
package pkg
