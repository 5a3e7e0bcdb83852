package javascript

import (
	"fmt"
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

type pnpmLock struct {
	LockfileVersion      any                     `yaml:"lockfileVersion"`
	Importers            map[string]pnpmImporter `yaml:"importers"`
	Dependencies         map[string]any          `yaml:"dependencies"`
	DevDependencies      map[string]any          `yaml:"devDependencies"`
	OptionalDependencies map[string]any          `yaml:"optionalDependencies"`
	Packages             map[string]pnpmPackage  `yaml:"packages"`
	Snapshots            map[string]pnpmPackage  `yaml:"snapshots"`
}

type pnpmImporter struct {
	Dependencies         map[string]any `yaml:"dependencies"`
	DevDependencies      map[string]any `yaml:"devDependencies"`
	OptionalDependencies map[string]any `yaml:"optionalDependencies"`
}

type pnpmPackage struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Resolution struct {
		Integrity string `yaml:"integrity"`
	} `yaml:"resolution"`
	Dev                  *bool             `yaml:"dev"`
	Dependencies         map[string]string `yaml:"dependencies"`
	OptionalDependencies map[string]string `yaml:"optionalDependencies"`
}

// importer returns the root project's direct dependencies. Lockfile v5 and
// v6 without workspaces keep them at the top level.
func (l pnpmLock) importer() pnpmImporter {
	if imp, ok := l.Importers["."]; ok {
		return imp
	}
	return pnpmImporter{
		Dependencies:         l.Dependencies,
		DevDependencies:      l.DevDependencies,
		OptionalDependencies: l.OptionalDependencies,
	}
}

// parsePnpmKey splits a package key into name and version. Accepted shapes:
//
//	/name/1.0.0                        v5
//	/@scope/name/1.0.0_react@17.0.2    v5 with peer suffix
//	/name@1.0.0                        v6
//	name@1.0.0(peer@2.0.0)             v9
//
// The name ends at the first "/" or "@" after the optional scope. A "/"
// there marks the v5 shape, whose version may carry a "_peer" suffix.
func parsePnpmKey(key string) (name, version string) {
	key = strings.TrimPrefix(key, "/")
	if i := strings.IndexByte(key, '('); i > 0 {
		key = key[:i]
	}
	start := 0
	if strings.HasPrefix(key, "@") {
		i := strings.IndexByte(key, '/')
		if i < 0 {
			return key, ""
		}
		start = i + 1
	}
	i := strings.IndexAny(key[start:], "/@")
	if i < 0 {
		return key, ""
	}
	sep := start + i
	name, version = key[:sep], key[sep+1:]
	if key[sep] == '/' {
		version = stripPeerSuffix(version)
	}
	return name, version
}

// stripPeerSuffix drops the v5 "_peer@version" suffix of a resolved version.
func stripPeerSuffix(v string) string {
	if j := strings.IndexByte(v, '_'); j > 0 {
		return v[:j]
	}
	return v
}

// pnpmDepRefs turns a package's dependency map into versioned keys. Values
// are resolved versions, with peer suffixes in v5 and parentheses in v6+.
// Aliases and links fall back to the bare name.
func pnpmDepRefs(maps ...map[string]string) []string {
	names := mergedKeys(maps...)
	refs := make([]string, 0, len(names))
	for _, name := range names {
		var v string
		for _, m := range maps {
			if val, ok := m[name]; ok {
				v = val
				break
			}
		}
		v = stripPeerSuffix(importerVersion(v))
		if strings.ContainsAny(v, "/:@") {
			v = ""
		}
		refs = append(refs, deps.Versioned(name, v))
	}
	return refs
}

// importerVersion reads an importer entry, a plain version (v5) or a
// {specifier, version} map (v6+). Link and workspace entries report "".
func importerVersion(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	case map[string]any:
		if val["version"] == nil {
			return ""
		}
		s = fmt.Sprint(val["version"])
	default:
		s = fmt.Sprint(val)
	}
	if strings.HasPrefix(s, "link:") || strings.HasPrefix(s, "file:") || strings.HasPrefix(s, "workspace:") {
		return ""
	}
	if i := strings.IndexByte(s, '('); i > 0 {
		s = s[:i]
	}
	return s
}

// importerRefs qualifies root dependency names with the version the
// importer resolved them to.
func importerRefs(m map[string]any, names []string) []string {
	refs := make([]string, 0, len(names))
	for _, name := range names {
		v, ok := m[name]
		if !ok {
			continue
		}
		version := stripPeerSuffix(importerVersion(v))
		if strings.ContainsAny(version, "/:@") {
			version = ""
		}
		refs = append(refs, deps.Versioned(name, version))
	}
	return refs
}

func parsePnpmLock(path string, b *deps.ResultBuilder, manifest packageJSON) error {
	var lock pnpmLock
	if err := decode.ReadFile(path, decode.YAML, &lock); err != nil {
		return err
	}

	imp := lock.importer()
	var prodRoots []string
	for _, name := range mergedKeys(imp.Dependencies, imp.OptionalDependencies) {
		if importerVersion(imp.Dependencies[name]) != "" || importerVersion(imp.OptionalDependencies[name]) != "" {
			prodRoots = append(prodRoots, name)
		}
	}
	devRoots := sortedKeys(imp.DevDependencies)

	// v9 keeps the graph in snapshots and metadata in packages.
	entries := lock.Packages
	if len(lock.Snapshots) > 0 {
		entries = lock.Snapshots
	}

	type resolved struct {
		name, version, integrity string
		dev                      *bool
		refs                     []string
	}
	var all []resolved
	edges := make(map[string][]string)
	hasDevFlag := false
	for _, key := range sortedKeys(entries) {
		e := entries[key]
		name, version := parsePnpmKey(key)
		if e.Name != "" {
			name = e.Name
		}
		if e.Version != "" {
			version = e.Version
		}
		if name == "" || version == "" {
			continue
		}
		meta := e
		if len(lock.Snapshots) > 0 {
			meta = lock.Packages[name+"@"+version]
		}
		dev := e.Dev
		if dev == nil {
			dev = meta.Dev
		}
		hasDevFlag = hasDevFlag || dev != nil
		edges[name] = append(edges[name], mergedKeys(e.Dependencies, e.OptionalDependencies)...)
		refs := pnpmDepRefs(e.Dependencies, e.OptionalDependencies)
		all = append(all, resolved{name, version, meta.Resolution.Integrity, dev, refs})
	}

	prod := deps.Reachable(deps.NPM, prodRoots, edges)
	for _, r := range all {
		var dev bool
		switch {
		case r.dev != nil:
			dev = *r.dev
		case !hasDevFlag && len(prodRoots)+len(devRoots) > 0:
			dev = !prod[deps.KeyOf(deps.NPM, r.name)]
		}
		b.Add(component(r.name, r.version, r.integrity, dev, r.refs))
	}

	b.Direct(importerRefs(imp.Dependencies, prodRoots)...)
	b.Direct(importerRefs(imp.OptionalDependencies, prodRoots)...)
	b.Direct(importerRefs(imp.DevDependencies, devRoots)...)
	b.Direct(manifest.allNames()...)
	return nil
}
