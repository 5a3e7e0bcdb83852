// Package deps defines the component model shared by every ecosystem parser
// and the [Parser] contract the registry drives.
//
// # Overview
//
// Each supported package manager has a subpackage implementing [Parser]:
//
//   - [python]: pyproject.toml, poetry.lock, uv.lock, Pipfile.lock, requirements.txt
//   - [javascript]: package.json, package-lock.json, pnpm-lock.yaml, yarn.lock
//   - [rust]: Cargo.toml, Cargo.lock
//   - [golang]: go.mod, go.sum
//   - [ruby]: *.gemspec, Gemfile, Gemfile.lock
//   - [php]: composer.json, composer.lock
//   - [java]: pom.xml, gradle.lockfile
//
// A parser never runs a package manager. It reads the richest manifest it can
// find for [ProjectMetadata], then the first lockfile in its priority order,
// and returns a [ParseResult].
//
// # Identity
//
// [Component.ID] is a package URL built from ecosystem, namespace, name and
// version:
//
//	pkg:pypi/requests@2.31.0
//	pkg:golang/github.com/spf13/cobra@v1.10.1
//
// Versions that no lockfile pinned are reported as [UnknownVersion]. PyPI
// names are normalized per PEP 503 before they become part of an identity.
//
// # Building Results
//
// Parsers feed components into a [ResultBuilder]:
//
//	b := deps.NewResultBuilder(deps.PyPI, opts)
//	b.Add(deps.Component{Name: "requests", Version: "2.31.0",
//	    Dependencies: []string{"urllib3", "certifi"}})
//	b.Direct("requests")
//	res := b.Build(root, meta, "poetry.lock")
//
// The builder adds the synthetic project node ([ParseResult.RootRef]) with an
// edge to every direct dependency, resolves package edges against the same
// parse only, and honors [Options.ExcludeDev].
//
// [python]: github.com/matzehuels/stackbom/pkg/deps/python
// [javascript]: github.com/matzehuels/stackbom/pkg/deps/javascript
// [rust]: github.com/matzehuels/stackbom/pkg/deps/rust
// [golang]: github.com/matzehuels/stackbom/pkg/deps/golang
// [ruby]: github.com/matzehuels/stackbom/pkg/deps/ruby
// [php]: github.com/matzehuels/stackbom/pkg/deps/php
// [java]: github.com/matzehuels/stackbom/pkg/deps/java
package deps
