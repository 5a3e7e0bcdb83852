package javascript

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/matzehuels/stackbom/pkg/deps"
)

// Lockfiles in priority order. The two npm names are equivalent.
var Lockfiles = []string{"package-lock.json", "npm-shrinkwrap.json", "pnpm-lock.yaml", "yarn.lock"}

// Parser reads npm, pnpm and yarn projects.
type Parser struct{}

// New returns a JavaScript parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Ecosystem() deps.Ecosystem { return deps.NPM }

func (p *Parser) Detect(root string) bool {
	return deps.Exists(root, slices.Concat([]string{"package.json"}, Lockfiles)...)
}

func (p *Parser) Parse(ctx context.Context, root string, opts deps.Options) (*deps.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	logger := opts.Logger.With("ecosystem", deps.NPM)

	manifest, err := readPackageJSON(filepath.Join(root, "package.json"))
	if err != nil {
		logger.Warn("manifest unreadable", "file", "package.json", "err", err)
	}
	b := deps.NewResultBuilder(deps.NPM, opts)

	lock, ok := deps.FirstExisting(root, Lockfiles...)
	if !ok {
		addDeclared(b, manifest)
		return b.Build(root, manifest.metadata(), ""), nil
	}

	switch filepath.Base(lock) {
	case "package-lock.json", "npm-shrinkwrap.json":
		err = parsePackageLock(lock, b, manifest)
	case "pnpm-lock.yaml":
		err = parsePnpmLock(lock, b, manifest)
	case "yarn.lock":
		err = parseYarnLock(lock, b, manifest)
	}
	if err != nil {
		logger.Warn("lockfile unreadable", "file", lock, "err", err)
	}
	return b.Build(root, manifest.metadata(), lock), nil
}

var exactSemver = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

// addDeclared reports package.json dependencies when no lockfile exists.
func addDeclared(b *deps.ResultBuilder, m packageJSON) {
	add := func(entries map[string]string, dev bool) {
		for _, name := range sortedKeys(entries) {
			version := deps.UnknownVersion
			if r := strings.TrimPrefix(strings.TrimSpace(entries[name]), "="); exactSemver.MatchString(r) {
				version = strings.TrimPrefix(r, "v")
			}
			ns, n := deps.SplitName(deps.NPM, name)
			b.Add(deps.Component{Namespace: ns, Name: n, Version: version, Scope: deps.ScopeFor(dev)})
			b.Direct(name)
		}
	}
	add(m.Dependencies, false)
	add(m.OptionalDependencies, false)
	add(m.PeerDependencies, false)
	add(m.DevDependencies, true)
}

// component builds a component from a fully qualified npm name.
func component(name, version, integrity string, dev bool, depNames []string) deps.Component {
	ns, n := deps.SplitName(deps.NPM, name)
	c := deps.Component{
		Namespace:    ns,
		Name:         n,
		Version:      version,
		Scope:        deps.ScopeFor(dev),
		Dependencies: depNames,
	}
	if h, ok := parseIntegrity(integrity); ok {
		c.Hashes = []deps.Hash{h}
	}
	return c
}

var sriAlgs = map[string]string{"sha1": "SHA-1", "sha256": "SHA-256", "sha384": "SHA-384", "sha512": "SHA-512"}

// parseIntegrity converts a subresource-integrity string to a hex hash. Only
// the first digest of a multi-digest value is used.
func parseIntegrity(sri string) (deps.Hash, bool) {
	sri = strings.TrimSpace(sri)
	if i := strings.IndexByte(sri, ' '); i > 0 {
		sri = sri[:i]
	}
	alg, digest, ok := strings.Cut(sri, "-")
	if !ok {
		return deps.Hash{}, false
	}
	name, known := sriAlgs[alg]
	if !known {
		return deps.Hash{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(digest)
	if err != nil {
		return deps.Hash{}, false
	}
	return deps.Hash{Alg: name, Value: hex.EncodeToString(raw)}, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mergedKeys[V any](maps ...map[string]V) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range maps {
		for _, k := range sortedKeys(m) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}
