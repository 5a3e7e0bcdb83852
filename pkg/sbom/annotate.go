package sbom

import (
	"slices"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
)

// Clone copies bom deeply enough that components, their properties and
// the dependency list can be modified without touching the original.
func Clone(bom *cdx.BOM) *cdx.BOM {
	if bom == nil {
		return nil
	}
	out := *bom
	if bom.Metadata != nil {
		md := *bom.Metadata
		out.Metadata = &md
	}
	if bom.Components != nil {
		comps := slices.Clone(*bom.Components)
		for i := range comps {
			if comps[i].Properties != nil {
				props := slices.Clone(*comps[i].Properties)
				comps[i].Properties = &props
			}
		}
		out.Components = &comps
	}
	if bom.Dependencies != nil {
		entries := slices.Clone(*bom.Dependencies)
		for i := range entries {
			if entries[i].Dependencies != nil {
				on := slices.Clone(*entries[i].Dependencies)
				entries[i].Dependencies = &on
			}
		}
		out.Dependencies = &entries
	}
	return &out
}

// Component returns a pointer into bom's component list for ref, or nil.
func Component(bom *cdx.BOM, ref string) *cdx.Component {
	if bom == nil || bom.Components == nil {
		return nil
	}
	comps := *bom.Components
	for i := range comps {
		if comps[i].BOMRef == ref || comps[i].PackageURL == ref {
			return &comps[i]
		}
	}
	return nil
}

// SetProperties replaces properties on c by name, appending new ones.
func SetProperties(c *cdx.Component, props []cdx.Property) {
	current := derefProps(c.Properties)
	for _, p := range props {
		if i := slices.IndexFunc(current, func(q cdx.Property) bool { return q.Name == p.Name }); i >= 0 {
			current[i].Value = p.Value
			continue
		}
		current = append(current, p)
	}
	c.Properties = &current
}

// Annotate returns a copy of bom with props set on the component
// identified by ref. It reports false when no such component exists.
func Annotate(bom *cdx.BOM, ref string, props []cdx.Property) (*cdx.BOM, bool) {
	out := Clone(bom)
	c := Component(out, ref)
	if c == nil {
		return out, false
	}
	SetProperties(c, props)
	return out, true
}

// Annotations returns the properties of the component identified by ref
// whose names start with prefix. An empty prefix returns all of them.
func Annotations(bom *cdx.BOM, ref, prefix string) []cdx.Property {
	c := Component(bom, ref)
	if c == nil {
		return nil
	}
	var out []cdx.Property
	for _, p := range derefProps(c.Properties) {
		if strings.HasPrefix(p.Name, prefix) {
			out = append(out, p)
		}
	}
	return out
}
