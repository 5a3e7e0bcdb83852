// Package languages registers every ecosystem parser and picks the ones
// that apply to a project directory.
package languages

import (
	"slices"
	"strings"

	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/deps/golang"
	"github.com/matzehuels/stackbom/pkg/deps/java"
	"github.com/matzehuels/stackbom/pkg/deps/javascript"
	"github.com/matzehuels/stackbom/pkg/deps/php"
	"github.com/matzehuels/stackbom/pkg/deps/python"
	"github.com/matzehuels/stackbom/pkg/deps/ruby"
	"github.com/matzehuels/stackbom/pkg/deps/rust"
	"github.com/matzehuels/stackbom/pkg/errors"
)

// All lists the built-in parsers, ordered by ecosystem name.
var All = []deps.Parser{
	rust.New(),
	php.New(),
	ruby.New(),
	golang.New(),
	java.New(),
	javascript.New(),
	python.New(),
}

var aliases = map[string]deps.Ecosystem{
	"python":     deps.PyPI,
	"node":       deps.NPM,
	"javascript": deps.NPM,
	"rust":       deps.Cargo,
	"go":         deps.Golang,
	"ruby":       deps.Gem,
	"php":        deps.Composer,
	"java":       deps.Maven,
}

// Find returns the parser for an ecosystem name or one of its language
// aliases. Matching is case-insensitive.
func Find(name string) (deps.Parser, bool) {
	return find(All, name)
}

func find(parsers []deps.Parser, name string) (deps.Parser, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	eco := deps.Ecosystem(name)
	if a, ok := aliases[name]; ok {
		eco = a
	}
	for _, p := range parsers {
		if p.Ecosystem() == eco {
			return p, true
		}
	}
	return nil, false
}

// DetectApplicable returns the parsers whose manifests or lockfiles exist
// under root. A non-empty filter restricts the candidates to the named
// ecosystems; an unknown name is an INVALID_ECOSYSTEM error. Finding no
// applicable parser returns [errors.ErrNothingDetected].
func DetectApplicable(root string, filter []string) ([]deps.Parser, error) {
	return detect(All, root, filter)
}

func detect(parsers []deps.Parser, root string, filter []string) ([]deps.Parser, error) {
	candidates := parsers
	if len(filter) > 0 {
		candidates = nil
		seen := make(map[deps.Ecosystem]bool)
		for _, name := range filter {
			if err := errors.ValidateEcosystemName(strings.ToLower(strings.TrimSpace(name))); err != nil {
				return nil, err
			}
			p, ok := find(parsers, name)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidEcosystem, "unknown ecosystem: %s", name)
			}
			if seen[p.Ecosystem()] {
				continue
			}
			seen[p.Ecosystem()] = true
			candidates = append(candidates, p)
		}
	}

	var out []deps.Parser
	for _, p := range candidates {
		if p.Detect(root) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, errors.ErrNothingDetected
	}
	return out, nil
}

// Names lists every accepted ecosystem name, aliases included.
func Names() map[deps.Ecosystem][]string {
	out := make(map[deps.Ecosystem][]string, len(All))
	for _, p := range All {
		out[p.Ecosystem()] = []string{string(p.Ecosystem())}
	}
	for alias, eco := range aliases {
		out[eco] = append(out[eco], alias)
	}
	for _, names := range out {
		slices.Sort(names[1:])
	}
	return out
}
