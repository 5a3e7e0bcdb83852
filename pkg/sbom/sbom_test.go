package sbom

import (
	"bytes"
	"slices"
	"strings"
	"testing"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/errors"
)

func pythonResult() *deps.ParseResult {
	b := deps.NewResultBuilder(deps.PyPI, deps.Options{})
	b.Add(deps.Component{Name: "requests", Version: "2.31.0", Dependencies: []string{"urllib3"}, Licenses: []string{"Apache-2.0"}})
	b.Add(deps.Component{Name: "urllib3", Version: "2.0.7", Dependencies: []string{"requests"}})
	b.Add(deps.Component{Name: "pytest", Version: "7.4.0", Scope: deps.ScopeOptional, Extras: []string{"testing"}, Markers: `python_version >= "3.8"`})
	b.Direct("requests", "pytest")
	return b.Build("/src/app", deps.ProjectMetadata{
		Name: "app", Version: "1.0.0", Homepage: "https://app.example.com", Authors: []string{"Jane Doe"},
	}, "/src/app/poetry.lock")
}

func npmResult() *deps.ParseResult {
	b := deps.NewResultBuilder(deps.NPM, deps.Options{})
	b.Add(deps.Component{Name: "lodash", Version: "4.17.21", Hashes: []deps.Hash{{Alg: "SHA-512", Value: "abcd"}}})
	b.Add(deps.Component{Name: "@types/node", Version: "20.0.0", Scope: deps.ScopeOptional})
	return b.Build("/src/app", deps.ProjectMetadata{Name: "web", Version: "2.0.0"}, "package-lock.json")
}

func edgesOf(g *Graph, ref string) []string {
	for _, d := range g.Dependencies {
		if d.Ref == ref {
			return d.DependsOn
		}
	}
	return nil
}

func TestCombine_Empty(t *testing.T) {
	_, err := Combine(nil)
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("err = %v", err)
	}
	if _, err := Combine([]*deps.ParseResult{nil}); err == nil {
		t.Error("expected error for nil results")
	}
}

func TestCombine_TwoEcosystems(t *testing.T) {
	// Input order must not matter: npm sorts before pypi.
	g, err := Combine([]*deps.ParseResult{pythonResult(), npmResult()})
	if err != nil {
		t.Fatal(err)
	}
	if g.RootEcosystem != deps.NPM || g.Root.Name != "web" {
		t.Errorf("root = %s %+v", g.RootEcosystem, g.Root)
	}
	if g.RootRef != "pkg:npm/web@2.0.0" {
		t.Errorf("RootRef = %q", g.RootRef)
	}
	if len(g.Components) != 5 {
		t.Fatalf("got %d components", len(g.Components))
	}
	if g.Dependencies[0].Ref != g.RootRef {
		t.Errorf("first entry = %q", g.Dependencies[0].Ref)
	}
	root := edgesOf(g, g.RootRef)
	for _, want := range []string{"pkg:npm/lodash@4.17.21", "pkg:pypi/requests@2.31.0", "pkg:pypi/pytest@7.4.0"} {
		if !slices.Contains(root, want) {
			t.Errorf("root edges %v missing %s", root, want)
		}
	}
	for _, d := range g.Dependencies {
		if d.Ref == "pkg:pypi/app@1.0.0" || slices.Contains(d.DependsOn, "pkg:pypi/app@1.0.0") {
			t.Errorf("synthetic root survived: %+v", d)
		}
	}
	if g.Lockfiles[deps.PyPI] != "poetry.lock" || g.Lockfiles[deps.NPM] != "package-lock.json" {
		t.Errorf("Lockfiles = %v", g.Lockfiles)
	}
}

func TestCombine_DedupFirstWins(t *testing.T) {
	a := pythonResult()
	b := pythonResult()
	b.Components[0].Description = "second"
	b.Dependencies = append(b.Dependencies, deps.Dependency{Ref: "pkg:pypi/pytest@7.4.0", DependsOn: []string{"pkg:pypi/urllib3@2.0.7"}})

	g, err := Combine([]*deps.ParseResult{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Components) != 3 {
		t.Fatalf("got %d components", len(g.Components))
	}
	if g.Components[0].Description != "" {
		t.Error("later duplicate overwrote the first")
	}
	if got := edgesOf(g, "pkg:pypi/pytest@7.4.0"); !slices.Equal(got, []string{"pkg:pypi/urllib3@2.0.7"}) {
		t.Errorf("merged pytest edges = %v", got)
	}
	ids := make(map[string]bool)
	for _, d := range g.Dependencies {
		if ids[d.Ref] {
			t.Errorf("duplicate entry %s", d.Ref)
		}
		ids[d.Ref] = true
	}
}

func TestCombine_DanglingAndCycles(t *testing.T) {
	r := pythonResult()
	r.Dependencies = append(r.Dependencies, deps.Dependency{Ref: "pkg:pypi/requests@2.31.0", DependsOn: []string{"pkg:pypi/ghost@1.0.0"}})
	r.Dependencies = append(r.Dependencies, deps.Dependency{Ref: "pkg:pypi/ghost@1.0.0", DependsOn: []string{"pkg:pypi/requests@2.31.0"}})

	g, err := Combine([]*deps.ParseResult{r})
	if err != nil {
		t.Fatal(err)
	}
	if g.Dangling != 2 {
		t.Errorf("Dangling = %d, want 2", g.Dangling)
	}
	if got := edgesOf(g, "pkg:pypi/requests@2.31.0"); !slices.Equal(got, []string{"pkg:pypi/urllib3@2.0.7"}) {
		t.Errorf("requests edges = %v", got)
	}
	if got := g.DAG().Cycles(); got != 1 {
		t.Errorf("Cycles = %d, want 1", got)
	}
}

func TestPrune(t *testing.T) {
	g, err := Combine([]*deps.ParseResult{pythonResult()})
	if err != nil {
		t.Fatal(err)
	}
	g.Prune()
	if len(g.Components) != 2 {
		t.Fatalf("got %d components after prune", len(g.Components))
	}
	for _, d := range g.Dependencies[1:] {
		if len(d.DependsOn) != 0 {
			t.Errorf("transitive edges kept: %+v", d)
		}
	}
	if len(g.Dependencies[0].DependsOn) != 2 {
		t.Errorf("root edges = %v", g.Dependencies[0].DependsOn)
	}
}

func assemble(t *testing.T, results ...*deps.ParseResult) *cdx.BOM {
	t.Helper()
	g, err := Combine(results)
	if err != nil {
		t.Fatal(err)
	}
	bom, err := Assemble(g, AssembleOptions{
		SerialNumber: "urn:uuid:00000000-0000-0000-0000-000000000001",
		Timestamp:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		ToolVersion:  "v1.0.0",
	})
	if err != nil {
		t.Fatal(err)
	}
	return bom
}

func TestAssemble(t *testing.T) {
	bom := assemble(t, pythonResult())

	if bom.BOMFormat != "CycloneDX" || bom.SerialNumber != "urn:uuid:00000000-0000-0000-0000-000000000001" {
		t.Errorf("header = %s %s", bom.BOMFormat, bom.SerialNumber)
	}
	md := bom.Metadata
	if md.Timestamp != "2024-01-02T03:04:05Z" {
		t.Errorf("Timestamp = %q", md.Timestamp)
	}
	tool := (*md.Tools.Components)[0]
	if tool.Name != "stackbom" || tool.Version != "v1.0.0" {
		t.Errorf("tool = %+v", tool)
	}
	root := md.Component
	if root.BOMRef != "pkg:pypi/app@1.0.0" || root.Type != cdx.ComponentTypeApplication {
		t.Errorf("root = %+v", root)
	}
	if root.ExternalReferences == nil || len(*root.ExternalReferences) != 1 || (*root.ExternalReferences)[0].Type != cdx.ERTypeWebsite {
		t.Errorf("root refs = %+v", root.ExternalReferences)
	}
	if md.Authors == nil || (*md.Authors)[0].Name != "Jane Doe" {
		t.Errorf("authors = %+v", md.Authors)
	}

	comps := make(map[string]cdx.Component)
	for _, c := range *bom.Components {
		comps[c.BOMRef] = c
	}
	req := comps["pkg:pypi/requests@2.31.0"]
	if req.Scope != cdx.ScopeRequired || req.PackageURL != req.BOMRef {
		t.Errorf("requests = %+v", req)
	}
	if req.Licenses == nil || (*req.Licenses)[0].License.ID != "Apache-2.0" {
		t.Errorf("requests licenses = %+v", req.Licenses)
	}
	pytest := comps["pkg:pypi/pytest@7.4.0"]
	if pytest.Scope != cdx.ScopeOptional {
		t.Errorf("pytest scope = %q", pytest.Scope)
	}
	var extras, markers string
	for _, p := range *pytest.Properties {
		switch p.Name {
		case PropExtras:
			extras = p.Value
		case PropMarkers:
			markers = p.Value
		}
	}
	if extras != "testing" || !strings.Contains(markers, "python_version") {
		t.Errorf("pytest properties = %+v", *pytest.Properties)
	}

	refs := map[string]bool{root.BOMRef: true}
	for ref := range comps {
		refs[ref] = true
	}
	for _, d := range *bom.Dependencies {
		if !refs[d.Ref] {
			t.Errorf("dangling ref %s", d.Ref)
		}
		for _, on := range *d.Dependencies {
			if !refs[on] {
				t.Errorf("dangling dependsOn %s", on)
			}
		}
	}
}

func TestAssemble_Errors(t *testing.T) {
	g, err := Combine([]*deps.ParseResult{npmResult()})
	if err != nil {
		t.Fatal(err)
	}

	bad := *g
	bad.Components = append(slices.Clone(g.Components), deps.Component{Ecosystem: deps.NPM, Version: "1.0.0"})
	if _, err := Assemble(&bad, AssembleOptions{}); !errors.Is(err, errors.ErrCodeAssembly) {
		t.Errorf("unnamed component err = %v", err)
	}

	bad = *g
	bad.Dependencies = append(slices.Clone(g.Dependencies), deps.Dependency{Ref: "pkg:npm/lodash@4.17.21", DependsOn: []string{"pkg:npm/ghost@1.0.0"}})
	_, err = Assemble(&bad, AssembleOptions{})
	if !errors.Is(err, errors.ErrCodeAssembly) || !strings.Contains(err.Error(), "pkg:npm/lodash@4.17.21") {
		t.Errorf("unknown edge err = %v", err)
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	var a, b bytes.Buffer
	if err := Encode(&a, assemble(t, npmResult(), pythonResult()), true); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&b, assemble(t, pythonResult(), npmResult()), true); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("documents differ between runs")
	}
}

func TestEncodeDecode(t *testing.T) {
	bom := assemble(t, npmResult())
	var buf bytes.Buffer
	if err := Encode(&buf, bom, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"bom-ref":"pkg:npm/lodash@4.17.21"`) {
		t.Errorf("encoded = %s", buf.String())
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(*got.Components) != len(*bom.Components) || got.Metadata.Component.BOMRef != "pkg:npm/web@2.0.0" {
		t.Errorf("decoded = %+v", got)
	}

	if _, err := Decode(strings.NewReader("{")); !errors.Is(err, errors.ErrCodeDecode) {
		t.Errorf("err = %v", err)
	}
}

func TestAnnotate(t *testing.T) {
	bom := assemble(t, npmResult())
	ref := "pkg:npm/lodash@4.17.21"

	out, ok := Annotate(bom, ref, []cdx.Property{{Name: "stackbom:risk:score", Value: "0.5"}})
	if !ok {
		t.Fatal("Annotate reported missing component")
	}
	if got := Annotations(out, ref, "stackbom:risk:"); len(got) != 1 || got[0].Value != "0.5" {
		t.Errorf("Annotations = %+v", got)
	}
	if got := Annotations(bom, ref, "stackbom:risk:"); len(got) != 0 {
		t.Error("original document was modified")
	}

	out, _ = Annotate(out, ref, []cdx.Property{{Name: "stackbom:risk:score", Value: "0.9"}})
	if got := Annotations(out, ref, "stackbom:risk:"); len(got) != 1 || got[0].Value != "0.9" {
		t.Errorf("replaced Annotations = %+v", got)
	}

	if _, ok := Annotate(bom, "pkg:npm/ghost@1.0.0", nil); ok {
		t.Error("expected missing component")
	}
}

func TestAssemble_ExternalRefs(t *testing.T) {
	b := deps.NewResultBuilder(deps.Composer, deps.Options{})
	b.Add(deps.Component{
		Namespace: "monolog",
		Name:      "monolog",
		Version:   "3.5.0",
		Licenses:  []string{"MIT OR Apache-2.0"},
		ExternalRefs: []deps.ExternalRef{
			{Type: deps.RefVCS, URL: "git+https://github.com/Seldaek/monolog.git"},
			{Type: deps.RefDistribution, URL: "https://example.com/monolog.zip"},
			{Type: deps.RefWebsite, URL: ""},
		},
	})
	bom := assemble(t, b.Build("/src/shop", deps.ProjectMetadata{Name: "acme/shop"}, ""))

	c := (*bom.Components)[0]
	if c.Group != "monolog" || c.ExternalReferences == nil || len(*c.ExternalReferences) != 2 {
		t.Fatalf("component = %+v", c)
	}
	if got := (*c.ExternalReferences)[0]; got.Type != cdx.ERTypeVCS || got.URL != "https://github.com/Seldaek/monolog" {
		t.Errorf("vcs ref = %+v", got)
	}
	if c.Licenses == nil || (*c.Licenses)[0].Expression != "MIT OR Apache-2.0" {
		t.Errorf("licenses = %+v", c.Licenses)
	}
	if root := bom.Metadata.Component; root.ExternalReferences != nil {
		t.Errorf("root without homepage has refs: %+v", *root.ExternalReferences)
	}
}
