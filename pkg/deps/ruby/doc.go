// Package ruby reads Bundler projects.
//
// Metadata comes from the first *.gemspec in the project root, read with
// regular expressions (the gemspec is Ruby code and is never evaluated).
// Components come from the GEM and GIT sections of Gemfile.lock; PATH gems
// are part of the project itself. The DEPENDENCIES section lists the direct
// dependencies.
//
// Gemfile.lock has no dev flag. Gems declared inside a development or test
// group of the Gemfile, and everything reachable only through them, are
// development-only.
package ruby
