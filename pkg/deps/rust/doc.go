// Package rust reads Cargo projects.
//
// Metadata comes from the [package] table of Cargo.toml; fields inherited
// from a workspace ({ workspace = true }) are left empty. Components come
// from Cargo.lock. Packages without a source are workspace members: they are
// not reported as components, and their dependencies become the project's
// direct dependencies.
//
// Cargo.lock does not record dev dependencies. A package is development-only
// when it is reachable solely through names that appear in
// [dev-dependencies] and nowhere else in Cargo.toml.
package rust
