package rust

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

// Parser reads Cargo.toml and Cargo.lock.
type Parser struct{}

// New returns a Rust parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Ecosystem() deps.Ecosystem { return deps.Cargo }

func (p *Parser) Detect(root string) bool {
	return deps.Exists(root, "Cargo.lock", "Cargo.toml")
}

func (p *Parser) Parse(ctx context.Context, root string, opts deps.Options) (*deps.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	logger := opts.Logger.With("ecosystem", deps.Cargo)

	manifest := readCargoToml(filepath.Join(root, "Cargo.toml"), logger)
	b := deps.NewResultBuilder(deps.Cargo, opts)

	lock, ok := deps.FirstExisting(root, "Cargo.lock")
	if !ok {
		addDeclared(b, manifest)
		return b.Build(root, manifest.metadata(), ""), nil
	}
	if err := parseCargoLock(lock, b, manifest); err != nil {
		logger.Warn("lockfile unreadable", "file", lock, "err", err)
	}
	return b.Build(root, manifest.metadata(), lock), nil
}

type cargoToml struct {
	Package struct {
		Name        string `toml:"name"`
		Version     any    `toml:"version"`
		Description any    `toml:"description"`
		Homepage    any    `toml:"homepage"`
		Repository  any    `toml:"repository"`
		License     any    `toml:"license"`
		Authors     any    `toml:"authors"`
		Keywords    any    `toml:"keywords"`
	} `toml:"package"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
	Workspace         struct {
		Package struct {
			Version    string `toml:"version"`
			License    string `toml:"license"`
			Repository string `toml:"repository"`
			Homepage   string `toml:"homepage"`
		} `toml:"package"`
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
}

func readCargoToml(path string, logger *log.Logger) cargoToml {
	var m cargoToml
	if err := decode.ReadFile(path, decode.TOML, &m); err != nil && !os.IsNotExist(err) {
		logger.Warn("manifest unreadable", "file", path, "err", err)
	}
	return m
}

// str returns a plain string value; inherited { workspace = true } tables
// fall back to the workspace value.
func str(v any, inherited string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		return inherited
	}
	return ""
}

func strs(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (m cargoToml) metadata() deps.ProjectMetadata {
	ws := m.Workspace.Package
	return deps.ProjectMetadata{
		Name:        m.Package.Name,
		Version:     str(m.Package.Version, ws.Version),
		Description: str(m.Package.Description, ""),
		Homepage:    str(m.Package.Homepage, ws.Homepage),
		Repository:  str(m.Package.Repository, ws.Repository),
		License:     str(m.Package.License, ws.License),
		Authors:     strs(m.Package.Authors),
		Keywords:    strs(m.Package.Keywords),
	}
}

// crateName resolves renamed dependencies ({ package = "real-name" }).
func crateName(key string, v any) string {
	if t, ok := v.(map[string]any); ok {
		if p, ok := t["package"].(string); ok && p != "" {
			return p
		}
	}
	return key
}

func names(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, crateName(k, v))
	}
	sort.Strings(out)
	return out
}

// devOnly returns crates declared only under [dev-dependencies].
func (m cargoToml) devOnly() map[string]bool {
	dev := make(map[string]bool)
	for _, n := range names(m.DevDependencies) {
		dev[n] = true
	}
	for _, n := range names(m.Dependencies) {
		delete(dev, n)
	}
	for _, n := range names(m.BuildDependencies) {
		delete(dev, n)
	}
	return dev
}

// addDeclared reports Cargo.toml dependencies when there is no lockfile.
// Only "=x.y.z" requirements count as resolved.
func addDeclared(b *deps.ResultBuilder, m cargoToml) {
	add := func(table map[string]any, dev bool) {
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			req := ""
			switch v := table[k].(type) {
			case string:
				req = v
			case map[string]any:
				req, _ = v["version"].(string)
			}
			version := deps.UnknownVersion
			if strings.HasPrefix(req, "=") && !strings.ContainsAny(req, ",*<>") {
				version = strings.TrimSpace(strings.TrimPrefix(req, "="))
			}
			name := crateName(k, table[k])
			b.Add(deps.Component{Name: name, Version: version, Scope: deps.ScopeFor(dev)})
			b.Direct(name)
		}
	}
	add(m.Dependencies, false)
	add(m.BuildDependencies, false)
	add(m.DevDependencies, true)
}

type cargoLock struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Checksum     string   `toml:"checksum"`
	Dependencies []string `toml:"dependencies"`
}

// depName extracts the crate name from "name", "name version" or
// "name version (source)".
func depName(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

func (p lockPackage) depNames() []string {
	out := make([]string, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		out = append(out, depName(d))
	}
	return out
}

// depKey keeps the version Cargo writes when several versions of a crate
// are locked, so the edge reaches the right one.
func depKey(s string) string {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	default:
		return deps.Versioned(fields[0], fields[1])
	}
}

func (p lockPackage) depKeys() []string {
	out := make([]string, 0, len(p.Dependencies))
	for _, d := range p.Dependencies {
		if k := depKey(d); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func parseCargoLock(path string, b *deps.ResultBuilder, m cargoToml) error {
	var lock cargoLock
	if err := decode.ReadFile(path, decode.TOML, &lock); err != nil {
		return err
	}

	edges := make(map[string][]string, len(lock.Packages))
	members := make(map[string]bool)
	var direct, directNames []string
	for _, pkg := range lock.Packages {
		depNames := pkg.depNames()
		if pkg.Source == "" {
			members[pkg.Name] = true
			direct = append(direct, pkg.depKeys()...)
			directNames = append(directNames, depNames...)
			continue
		}
		edges[pkg.Name] = append(edges[pkg.Name], depNames...)
	}

	devOnly := m.devOnly()
	var prodRoots []string
	for _, d := range directNames {
		if !devOnly[d] && !members[d] {
			prodRoots = append(prodRoots, d)
		}
	}
	prod := deps.Reachable(deps.Cargo, prodRoots, edges)
	classify := len(devOnly) > 0

	for _, pkg := range lock.Packages {
		if pkg.Source == "" {
			continue
		}
		c := deps.Component{
			Name:         pkg.Name,
			Version:      pkg.Version,
			Scope:        deps.ScopeFor(classify && !prod[pkg.Name]),
			Dependencies: pkg.depKeys(),
		}
		if pkg.Checksum != "" {
			c.Hashes = []deps.Hash{{Alg: "SHA-256", Value: pkg.Checksum}}
		}
		if strings.HasPrefix(pkg.Source, "git+") {
			c.ExternalRefs = []deps.ExternalRef{{Type: deps.RefVCS, URL: strings.TrimPrefix(pkg.Source, "git+")}}
		}
		b.Add(c)
	}
	b.Direct(direct...)
	return nil
}
