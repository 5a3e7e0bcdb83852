package javascript

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

type packageLock struct {
	LockfileVersion int                    `json:"lockfileVersion"`
	Packages        map[string]lockEntry   `json:"packages"`
	Dependencies    map[string]lockV1Entry `json:"dependencies"`
}

// lockEntry is a v2/v3 "packages" entry keyed by install path.
type lockEntry struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Integrity            string            `json:"integrity"`
	Dev                  bool              `json:"dev"`
	DevOptional          bool              `json:"devOptional"`
	Optional             bool              `json:"optional"`
	Peer                 bool              `json:"peer"`
	Link                 bool              `json:"link"`
	Dependencies         map[string]string `json:"dependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	DevDependencies      map[string]string `json:"devDependencies"` // root entry only
}

// lockV1Entry is a nested v1 "dependencies" entry keyed by package name.
type lockV1Entry struct {
	Version      string                 `json:"version"`
	Integrity    string                 `json:"integrity"`
	Dev          bool                   `json:"dev"`
	Optional     bool                   `json:"optional"`
	Requires     map[string]string      `json:"requires"`
	Dependencies map[string]lockV1Entry `json:"dependencies"`
}

func parsePackageLock(path string, b *deps.ResultBuilder, manifest packageJSON) error {
	var lock packageLock
	if err := decode.ReadFile(path, decode.JSON, &lock); err != nil {
		return err
	}

	if len(lock.Packages) > 0 {
		addLockPackages(b, lock.Packages)
		if root, ok := lock.Packages[""]; ok && len(manifest.allNames()) == 0 {
			b.Direct(mergedKeys(root.Dependencies, root.OptionalDependencies, root.PeerDependencies, root.DevDependencies)...)
		}
	} else {
		addLockV1(b, lock.Dependencies)
	}
	b.Direct(manifest.allNames()...)
	return nil
}

// addLockPackages reads lockfile v2/v3. Hoisted entries sort before nested
// ones, so the first component for a name is the one the root resolves.
func addLockPackages(b *deps.ResultBuilder, packages map[string]lockEntry) {
	for _, key := range sortedByDepth(packages) {
		e := packages[key]
		if key == "" || e.Link {
			continue
		}
		name, ok := installedName(key, e)
		if !ok {
			// Workspace member sources are not installed packages.
			continue
		}
		names := mergedKeys(e.Dependencies, e.OptionalDependencies, e.PeerDependencies)
		refs := make([]string, 0, len(names))
		for _, dep := range names {
			refs = append(refs, resolveInstalled(packages, key, dep))
		}
		b.Add(component(name, e.Version, e.Integrity, e.Dev || e.DevOptional, refs))
	}
}

func installedName(key string, e lockEntry) (string, bool) {
	i := strings.LastIndex(key, "node_modules/")
	if i < 0 {
		return "", false
	}
	if e.Name != "" {
		return e.Name, true
	}
	return key[i+len("node_modules/"):], true
}

// resolveInstalled finds the copy of dep that the package installed at from
// loads: its own node_modules first, then each enclosing node_modules up to
// the project root. The result is a versioned key, or the bare name when no
// installed copy was found.
func resolveInstalled(packages map[string]lockEntry, from, dep string) string {
	dir := from
	for {
		candidate := "node_modules/" + dep
		if dir != "" {
			candidate = dir + "/node_modules/" + dep
		}
		if e, ok := packages[candidate]; ok && !e.Link && e.Version != "" {
			name, _ := installedName(candidate, e)
			return deps.Versioned(name, e.Version)
		}
		if dir == "" {
			return dep
		}
		dir = parentInstall(dir)
	}
}

// parentInstall strips the last node_modules/<name> segment of an install
// path. Paths outside node_modules (workspace members) map to the root.
func parentInstall(dir string) string {
	i := strings.LastIndex(dir, "node_modules/")
	if i < 0 {
		return ""
	}
	return strings.TrimSuffix(dir[:i], "/")
}

func sortedByDepth(packages map[string]lockEntry) []string {
	keys := sortedKeys(packages)
	depth := func(k string) int { return strings.Count(k, "node_modules/") }
	slices.SortStableFunc(keys, func(a, b string) int { return cmp.Compare(depth(a), depth(b)) })
	return keys
}

// v1Scope is one level of the nested v1 tree together with the levels
// enclosing it, innermost last.
type v1Scope struct {
	entries map[string]lockV1Entry
	chain   []map[string]lockV1Entry
}

// addLockV1 walks the nested v1 tree breadth-first. Requirements resolve
// against the package's own nested dependencies, then each enclosing level.
func addLockV1(b *deps.ResultBuilder, top map[string]lockV1Entry) {
	level := []v1Scope{{entries: top, chain: []map[string]lockV1Entry{top}}}
	for len(level) > 0 {
		var next []v1Scope
		for _, sc := range level {
			for _, name := range sortedKeys(sc.entries) {
				e := sc.entries[name]
				if strings.Contains(e.Version, ":") {
					// git, file and link sources carry no registry version
					continue
				}
				chain := sc.chain
				if len(e.Dependencies) > 0 {
					chain = append(slices.Clone(sc.chain), e.Dependencies)
					next = append(next, v1Scope{entries: e.Dependencies, chain: chain})
				}
				reqs := sortedKeys(e.Requires)
				refs := make([]string, 0, len(reqs))
				for _, r := range reqs {
					refs = append(refs, resolveV1(chain, r))
				}
				b.Add(component(name, e.Version, e.Integrity, e.Dev, refs))
			}
		}
		level = next
	}
}

func resolveV1(chain []map[string]lockV1Entry, dep string) string {
	for i := len(chain) - 1; i >= 0; i-- {
		if e, ok := chain[i][dep]; ok && e.Version != "" && !strings.Contains(e.Version, ":") {
			return deps.Versioned(dep, e.Version)
		}
	}
	return dep
}
