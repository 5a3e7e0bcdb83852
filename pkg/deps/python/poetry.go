package python

import (
	"slices"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

type poetryLock struct {
	Packages []poetryPackage `toml:"package"`
}

type poetryPackage struct {
	Name         string         `toml:"name"`
	Version      string         `toml:"version"`
	Description  string         `toml:"description"`
	Category     string         `toml:"category"`
	Groups       []string       `toml:"groups"`
	Dependencies map[string]any `toml:"dependencies"`
}

// dev reports whether the package belongs to development groups only.
// Lock format 1.x uses category, 2.x uses groups.
func (p poetryPackage) dev() bool {
	if p.Category == "dev" {
		return true
	}
	return len(p.Groups) > 0 && !slices.Contains(p.Groups, "main")
}

func parsePoetryLock(path string, b *deps.ResultBuilder, proj project) error {
	var lock poetryLock
	if err := decode.ReadFile(path, decode.TOML, &lock); err != nil {
		return err
	}

	devNames := proj.devNames()
	for _, pkg := range lock.Packages {
		dev := pkg.dev() || devNames[deps.NormalizeName(deps.PyPI, pkg.Name)]
		b.Add(deps.Component{
			Name:         pkg.Name,
			Version:      pkg.Version,
			Description:  pkg.Description,
			Scope:        deps.ScopeFor(dev),
			Dependencies: sortedKeys(pkg.Dependencies),
		})
	}
	b.Direct(proj.directNames()...)
	return nil
}
