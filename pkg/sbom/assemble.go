package sbom

import (
	"regexp"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"

	"github.com/matzehuels/stackbom/pkg/buildinfo"
	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/errors"
	"github.com/matzehuels/stackbom/pkg/integrations"
)

// Property names written by the assembler.
const (
	PropEcosystem = "stackbom:ecosystem"
	PropExtras    = "stackbom:extras"
	PropMarkers   = "stackbom:markers"
	PropLockfile  = "stackbom:lockfile:" // suffixed with the ecosystem
	PropKeywords  = "stackbom:keywords"
)

// AssembleOptions overrides generated document fields. Zero values mean
// a fresh serial number, the current time and the build's tool identity.
type AssembleOptions struct {
	SerialNumber string
	Timestamp    time.Time
	ToolName     string
	ToolVersion  string
}

func (o AssembleOptions) withDefaults() AssembleOptions {
	if o.SerialNumber == "" {
		o.SerialNumber = "urn:uuid:" + uuid.New().String()
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
	if o.ToolName == "" {
		o.ToolName = buildinfo.Name
	}
	if o.ToolVersion == "" {
		o.ToolVersion = buildinfo.Version
	}
	return o
}

// Assemble converts a graph into a CycloneDX document. It fails with an
// ASSEMBLY_FAILED error naming the component when a component cannot be
// identified, identities collide, or an edge references a missing ref.
func Assemble(g *Graph, opts AssembleOptions) (*cdx.BOM, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeAssembly, "nil graph")
	}
	opts = opts.withDefaults()

	root := rootComponent(g)
	refs := map[string]bool{root.BOMRef: true}

	components := make([]cdx.Component, 0, len(g.Components))
	for _, c := range g.Components {
		if strings.TrimSpace(c.Name) == "" {
			return nil, errors.New(errors.ErrCodeAssembly, "component without a name (ecosystem %s, version %q)", c.Ecosystem, c.Version)
		}
		comp := toComponent(c)
		if refs[comp.BOMRef] {
			return nil, errors.New(errors.ErrCodeAssembly, "duplicate component %s", comp.BOMRef)
		}
		refs[comp.BOMRef] = true
		components = append(components, comp)
	}

	dependencies := make([]cdx.Dependency, 0, len(g.Dependencies))
	for _, d := range g.Dependencies {
		if !refs[d.Ref] {
			return nil, errors.New(errors.ErrCodeAssembly, "dependency entry for unknown component %s", d.Ref)
		}
		on := make([]string, 0, len(d.DependsOn))
		for _, t := range d.DependsOn {
			if !refs[t] {
				return nil, errors.New(errors.ErrCodeAssembly, "component %s depends on unknown component %s", d.Ref, t)
			}
			on = append(on, t)
		}
		dependencies = append(dependencies, cdx.Dependency{Ref: d.Ref, Dependencies: &on})
	}

	bom := cdx.NewBOM()
	bom.SerialNumber = opts.SerialNumber
	bom.Metadata = &cdx.Metadata{
		Timestamp: opts.Timestamp.UTC().Format(time.RFC3339),
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{{
				Type:    cdx.ComponentTypeApplication,
				Author:  buildinfo.Vendor,
				Name:    opts.ToolName,
				Version: opts.ToolVersion,
			}},
		},
		Component:  &root,
		Properties: metadataProperties(g),
	}
	if len(g.Root.Authors) > 0 {
		authors := make([]cdx.OrganizationalContact, len(g.Root.Authors))
		for i, a := range g.Root.Authors {
			authors[i] = cdx.OrganizationalContact{Name: a}
		}
		bom.Metadata.Authors = &authors
	}
	bom.Components = &components
	bom.Dependencies = &dependencies
	return bom, nil
}

func rootComponent(g *Graph) cdx.Component {
	c := deps.RootComponent(g.RootEcosystem, g.Root)
	if g.Root.License != "" {
		c.Licenses = []string{g.Root.License}
	}
	if g.Root.Homepage != "" {
		c.ExternalRefs = append(c.ExternalRefs, deps.ExternalRef{Type: deps.RefWebsite, URL: g.Root.Homepage})
	}
	if g.Root.Repository != "" {
		c.ExternalRefs = append(c.ExternalRefs, deps.ExternalRef{Type: deps.RefVCS, URL: g.Root.Repository})
	}
	comp := toComponent(c)
	comp.BOMRef = g.RootRef
	comp.PackageURL = g.RootRef
	if len(g.Root.Keywords) > 0 {
		props := append(derefProps(comp.Properties), cdx.Property{Name: PropKeywords, Value: strings.Join(g.Root.Keywords, ",")})
		comp.Properties = &props
	}
	return comp
}

func metadataProperties(g *Graph) *[]cdx.Property {
	if len(g.Lockfiles) == 0 {
		return nil
	}
	var props []cdx.Property
	for _, e := range deps.Ecosystems() {
		if f, ok := g.Lockfiles[e]; ok {
			props = append(props, cdx.Property{Name: PropLockfile + string(e), Value: f})
		}
	}
	return &props
}

func toComponent(c deps.Component) cdx.Component {
	id := c.ID()
	comp := cdx.Component{
		BOMRef:      id,
		Type:        componentType(c.Kind),
		Group:       c.Namespace,
		Name:        c.Name,
		Version:     c.Version,
		Description: c.Description,
		Scope:       cdx.Scope(c.Scope),
		PackageURL:  id,
	}
	if comp.Version == "" {
		comp.Version = deps.UnknownVersion
	}
	if comp.Scope == "" {
		comp.Scope = cdx.ScopeRequired
	}
	if lic := licenses(c.Licenses); lic != nil {
		comp.Licenses = lic
	}
	if hashes := toHashes(c.Hashes); len(hashes) > 0 {
		comp.Hashes = &hashes
	}
	if refs := toExternalRefs(c.ExternalRefs); len(refs) > 0 {
		comp.ExternalReferences = &refs
	}

	props := []cdx.Property{{Name: PropEcosystem, Value: string(c.Ecosystem)}}
	if len(c.Extras) > 0 {
		props = append(props, cdx.Property{Name: PropExtras, Value: strings.Join(c.Extras, ",")})
	}
	if c.Markers != "" {
		props = append(props, cdx.Property{Name: PropMarkers, Value: c.Markers})
	}
	comp.Properties = &props
	return comp
}

func componentType(k deps.Kind) cdx.ComponentType {
	if k == deps.KindApplication {
		return cdx.ComponentTypeApplication
	}
	return cdx.ComponentTypeLibrary
}

var (
	spdxIDRE      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.+-]*$`)
	spdxExprParts = regexp.MustCompile(`\s+(AND|OR|WITH)\s+`)
)

// licenses maps declared license strings to CycloneDX choices: a single
// SPDX-shaped token becomes an ID, an SPDX expression stays an expression
// and anything else is recorded by name.
func licenses(in []string) *cdx.Licenses {
	var out cdx.Licenses
	for _, l := range in {
		l = strings.TrimSpace(l)
		switch {
		case l == "":
			continue
		case spdxIDRE.MatchString(l):
			out = append(out, cdx.LicenseChoice{License: &cdx.License{ID: l}})
		case spdxExprParts.MatchString(l) && len(in) == 1:
			out = append(out, cdx.LicenseChoice{Expression: l})
		default:
			out = append(out, cdx.LicenseChoice{License: &cdx.License{Name: l}})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return &out
}

var hashAlgs = map[string]cdx.HashAlgorithm{
	"MD5":     cdx.HashAlgoMD5,
	"SHA-1":   cdx.HashAlgoSHA1,
	"SHA-256": cdx.HashAlgoSHA256,
	"SHA-384": cdx.HashAlgoSHA384,
	"SHA-512": cdx.HashAlgoSHA512,
}

func toHashes(in []deps.Hash) []cdx.Hash {
	var out []cdx.Hash
	for _, h := range in {
		alg, ok := hashAlgs[strings.ToUpper(h.Alg)]
		if !ok || h.Value == "" {
			continue
		}
		out = append(out, cdx.Hash{Algorithm: alg, Value: h.Value})
	}
	return out
}

var refTypes = map[string]cdx.ExternalReferenceType{
	deps.RefWebsite:      cdx.ERTypeWebsite,
	deps.RefVCS:          cdx.ERTypeVCS,
	deps.RefDistribution: cdx.ERTypeDistribution,
}

func toExternalRefs(in []deps.ExternalRef) []cdx.ExternalReference {
	var out []cdx.ExternalReference
	for _, r := range in {
		if r.URL == "" {
			continue
		}
		t, ok := refTypes[r.Type]
		if !ok {
			t = cdx.ERTypeOther
		}
		url := r.URL
		if t == cdx.ERTypeVCS {
			url = integrations.NormalizeRepoURL(url)
		}
		out = append(out, cdx.ExternalReference{URL: url, Type: t})
	}
	return out
}

func derefProps(p *[]cdx.Property) []cdx.Property {
	if p == nil {
		return nil
	}
	return *p
}
