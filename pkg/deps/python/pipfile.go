package python

import (
	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

type pipfileLock struct {
	Default map[string]pipfileEntry `json:"default"`
	Develop map[string]pipfileEntry `json:"develop"`
}

type pipfileEntry struct {
	Version string   `json:"version"`
	Extras  []string `json:"extras"`
	Markers string   `json:"markers"`
	Git     string   `json:"git"`
	Path    string   `json:"path"`
	File    string   `json:"file"`
}

// parsePipfileLock reads Pipfile.lock. The format has no edges, so every
// entry is direct. Develop entries already present in default stay required.
func parsePipfileLock(path string, b *deps.ResultBuilder) error {
	var lock pipfileLock
	if err := decode.ReadFile(path, decode.JSON, &lock); err != nil {
		return err
	}
	add := func(entries map[string]pipfileEntry, dev bool) {
		for _, name := range sortedKeys(entries) {
			e := entries[name]
			if e.Git != "" || e.Path != "" || e.File != "" {
				continue
			}
			version := deps.UnknownVersion
			if v, ok := exactPin(e.Version); ok {
				version = v
			}
			b.Add(deps.Component{
				Name:    name,
				Version: version,
				Scope:   deps.ScopeFor(dev),
				Extras:  e.Extras,
				Markers: e.Markers,
			})
			b.Direct(name)
		}
	}
	add(lock.Default, false)
	add(lock.Develop, true)
	return nil
}
