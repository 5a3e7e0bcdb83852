package deps

import (
	"path/filepath"
	"strings"
)

// ResultBuilder accumulates the components of one parse and turns them into
// a [ParseResult].
//
// Components are deduplicated by identity, first occurrence wins. Edges are
// declared by key through [Component.Dependencies] and resolved only against
// components added to the same builder; unknown targets are dropped. Cycles
// are kept as declared.
//
// A key built with [Versioned] resolves to that exact version when it was
// added and falls back to the first component with the same name otherwise.
type ResultBuilder struct {
	eco        Ecosystem
	opts       Options
	comps      []Component
	ids        map[string]bool
	byKey      map[string]string // name key -> first identity
	byVersion  map[string]string // name key@version -> identity
	direct     []string
	directSeen map[string]bool
	skipped    int
}

// NewResultBuilder creates a builder for ecosystem e.
func NewResultBuilder(e Ecosystem, opts Options) *ResultBuilder {
	return &ResultBuilder{
		eco:        e,
		opts:       opts.WithDefaults(),
		ids:        make(map[string]bool),
		byKey:      make(map[string]string),
		byVersion:  make(map[string]string),
		directSeen: make(map[string]bool),
	}
}

// Add records a component. It reports false when the component was a
// duplicate or was filtered out as development-only.
func (b *ResultBuilder) Add(c Component) bool {
	c.Ecosystem = b.eco
	c.Name = NormalizeName(b.eco, c.Name)
	if c.Name == "" {
		b.skipped++
		return false
	}
	if c.Kind == "" {
		c.Kind = KindLibrary
	}
	if c.Scope == "" {
		c.Scope = ScopeRequired
	}
	if c.Version == "" {
		c.Version = UnknownVersion
	}
	if b.opts.ExcludeDev && c.Scope == ScopeOptional {
		return false
	}
	id := c.ID()
	if b.ids[id] {
		return false
	}
	b.ids[id] = true
	if _, ok := b.byKey[c.Key()]; !ok {
		b.byKey[c.Key()] = id
	}
	b.byVersion[Versioned(c.Key(), c.Version)] = id
	b.comps = append(b.comps, c)
	return true
}

// Direct marks keys as top-level dependencies of the project. Keys may be
// plain or [Versioned].
func (b *ResultBuilder) Direct(keys ...string) {
	for _, k := range keys {
		k = b.normalizeRef(k)
		if k == "" || b.directSeen[k] {
			continue
		}
		b.directSeen[k] = true
		b.direct = append(b.direct, k)
	}
}

// Has reports whether a component with key k was added.
func (b *ResultBuilder) Has(k string) bool {
	_, ok := b.byKey[b.normalizeKey(k)]
	return ok
}

// Len returns the number of components added so far.
func (b *ResultBuilder) Len() int { return len(b.comps) }

func (b *ResultBuilder) normalizeKey(k string) string {
	return KeyOf(b.eco, k)
}

// normalizeRef normalizes the name part of a plain or versioned key.
func (b *ResultBuilder) normalizeRef(k string) string {
	if name, version, ok := SplitVersioned(k); ok {
		return Versioned(b.normalizeKey(name), version)
	}
	return b.normalizeKey(k)
}

// resolve maps a normalized reference to a component identity.
func (b *ResultBuilder) resolve(ref string) (string, bool) {
	if id, ok := b.byVersion[ref]; ok {
		return id, true
	}
	if name, _, ok := SplitVersioned(ref); ok {
		ref = name
	}
	id, ok := b.byKey[ref]
	return id, ok
}

// Versioned qualifies a dependency key with the exact version a lockfile
// recorded for it. An empty version returns the key unchanged.
func Versioned(key, version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return key
	}
	return key + "@" + version
}

// SplitVersioned reverses [Versioned]. A leading "@" belongs to an npm scope,
// not a version.
func SplitVersioned(k string) (key, version string, ok bool) {
	i := strings.LastIndexByte(k, '@')
	if i <= 0 || i == len(k)-1 {
		return k, "", false
	}
	return k[:i], k[i+1:], true
}

// Build produces the result. When no direct dependencies were declared,
// every component without an incoming edge is treated as direct.
func (b *ResultBuilder) Build(root string, meta ProjectMetadata, lockfile string) *ParseResult {
	meta = meta.Complete(root)
	rootRef := RootComponent(b.eco, meta).ID()

	edges := make([]Dependency, 0, len(b.comps)+1)
	incoming := make(map[string]bool)
	for _, c := range b.comps {
		d := Dependency{Ref: c.ID(), DependsOn: []string{}}
		seen := make(map[string]bool)
		for _, k := range c.Dependencies {
			to, ok := b.resolve(b.normalizeRef(k))
			if !ok || seen[to] {
				continue
			}
			seen[to] = true
			incoming[to] = true
			d.DependsOn = append(d.DependsOn, to)
		}
		edges = append(edges, d)
	}

	rootDeps := []string{}
	if len(b.direct) > 0 {
		seen := make(map[string]bool)
		for _, k := range b.direct {
			if id, ok := b.resolve(k); ok && !seen[id] {
				seen[id] = true
				rootDeps = append(rootDeps, id)
			}
		}
	} else {
		for _, c := range b.comps {
			if id := c.ID(); !incoming[id] {
				rootDeps = append(rootDeps, id)
			}
		}
	}

	if b.skipped > 0 {
		b.opts.Logger.Debug("skipped unnamed entries", "ecosystem", b.eco, "count", b.skipped)
	}

	if lockfile != "" {
		lockfile = filepath.Base(lockfile)
	}
	return &ParseResult{
		Ecosystem:    b.eco,
		Metadata:     meta,
		RootRef:      rootRef,
		Components:   b.comps,
		Dependencies: append([]Dependency{{Ref: rootRef, DependsOn: rootDeps}}, edges...),
		Lockfile:     lockfile,
	}
}
