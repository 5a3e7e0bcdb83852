// Package javascript reads npm-family projects.
//
// # Overview
//
// Metadata comes from package.json. The first lockfile found in this order
// is parsed:
//
//  1. package-lock.json or npm-shrinkwrap.json (lockfile versions 1, 2 and 3)
//  2. pnpm-lock.yaml (lockfile versions 5, 6 and 9)
//  3. yarn.lock (classic and berry)
//
// Without a lockfile the package.json dependency maps are reported directly.
// Their versions are [deps.UnknownVersion] unless the range is an exact
// release.
//
// # Development Dependencies
//
// package-lock.json and pnpm v5/v6 flag dev packages themselves. For pnpm
// v9 and yarn.lock a package is development-only when it cannot be reached
// from the production dependencies of package.json.
//
// [deps.UnknownVersion]: github.com/matzehuels/stackbom/pkg/deps.UnknownVersion
package javascript
