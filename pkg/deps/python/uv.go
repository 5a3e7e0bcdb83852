package python

import (
	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

type uvLock struct {
	Packages []uvPackage `toml:"package"`
}

type uvPackage struct {
	Name                 string             `toml:"name"`
	Version              string             `toml:"version"`
	Source               map[string]any     `toml:"source"`
	Dependencies         []uvDep            `toml:"dependencies"`
	OptionalDependencies map[string][]uvDep `toml:"optional-dependencies"`
	DevDependencies      map[string][]uvDep `toml:"dev-dependencies"`
}

type uvDep struct {
	Name  string   `toml:"name"`
	Extra []string `toml:"extra"`
}

// isProject reports whether the entry is the project being locked.
func (p uvPackage) isProject() bool {
	for _, k := range []string{"editable", "virtual"} {
		if v, ok := p.Source[k].(string); ok && v == "." {
			return true
		}
	}
	return false
}

func names(ds []uvDep) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

// parseUVLock reads uv.lock. Packages reachable only through the project's
// dev or optional dependencies are development-only.
func parseUVLock(path string, b *deps.ResultBuilder) error {
	var lock uvLock
	if err := decode.ReadFile(path, decode.TOML, &lock); err != nil {
		return err
	}

	edges := make(map[string][]string, len(lock.Packages))
	var prodRoots, devRoots []string
	hasProject := false
	for _, pkg := range lock.Packages {
		key := deps.NormalizeName(deps.PyPI, pkg.Name)
		if pkg.isProject() {
			hasProject = true
			prodRoots = append(prodRoots, names(pkg.Dependencies)...)
			for _, g := range sortedKeys(pkg.DevDependencies) {
				devRoots = append(devRoots, names(pkg.DevDependencies[g])...)
			}
			for _, g := range sortedKeys(pkg.OptionalDependencies) {
				devRoots = append(devRoots, names(pkg.OptionalDependencies[g])...)
			}
			continue
		}
		edges[key] = names(pkg.Dependencies)
	}

	prod := deps.Reachable(deps.PyPI, prodRoots, edges)
	for _, pkg := range lock.Packages {
		if pkg.isProject() {
			continue
		}
		dev := hasProject && !prod[deps.NormalizeName(deps.PyPI, pkg.Name)]
		b.Add(deps.Component{
			Name:         pkg.Name,
			Version:      pkg.Version,
			Scope:        deps.ScopeFor(dev),
			Dependencies: edges[deps.NormalizeName(deps.PyPI, pkg.Name)],
		})
	}
	b.Direct(prodRoots...)
	b.Direct(devRoots...)
	return nil
}
