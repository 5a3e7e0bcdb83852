package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/matzehuels/stackbom/pkg/dag"
)

func testDAG() *dag.DAG {
	g := dag.New(dag.Metadata{"root": "app"})
	g.AddNode(dag.Node{ID: "app", Meta: dag.Metadata{"name": "app", "version": "1.0.0"}})
	g.AddNode(dag.Node{ID: "pkg:pypi/requests@2.31.0", Meta: dag.Metadata{"name": "requests", "version": "2.31.0", "scope": "required"}})
	g.AddNode(dag.Node{ID: "pkg:pypi/urllib3@2.0.7", Meta: dag.Metadata{"name": "urllib3", "version": "2.0.7", "scope": "required"}})
	g.AddNode(dag.Node{ID: "pkg:pypi/pytest@8.0.0", Meta: dag.Metadata{"name": "pytest", "version": "8.0.0", "scope": "optional"}})
	g.AddEdge(dag.Edge{From: "app", To: "pkg:pypi/requests@2.31.0"})
	g.AddEdge(dag.Edge{From: "app", To: "pkg:pypi/pytest@8.0.0"})
	g.AddEdge(dag.Edge{From: "pkg:pypi/requests@2.31.0", To: "pkg:pypi/urllib3@2.0.7"})
	return g
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(testDAG(), Options{})

	for _, want := range []string{
		"digraph G",
		`"pkg:pypi/requests@2.31.0" [label="requests@2.31.0"]`,
		`"app" -> "pkg:pypi/requests@2.31.0";`,
		`"pkg:pypi/requests@2.31.0" -> "pkg:pypi/urllib3@2.0.7";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
}

func TestToDOT_Ranks(t *testing.T) {
	dot := ToDOT(testDAG(), Options{})

	for _, want := range []string{
		`{ rank=same; "app"; }`,
		`{ rank=same; "pkg:pypi/requests@2.31.0"; "pkg:pypi/pytest@8.0.0"; }`,
		`{ rank=same; "pkg:pypi/urllib3@2.0.7"; }`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing rank %q", want)
		}
	}
}

func TestToDOT_RanksWithoutRoot(t *testing.T) {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "a"})
	g.AddNode(dag.Node{ID: "b"})
	g.AddEdge(dag.Edge{From: "a", To: "b"})

	dot := ToDOT(g, Options{})
	if !strings.Contains(dot, `{ rank=same; "a"; }`) || !strings.Contains(dot, `{ rank=same; "b"; }`) {
		t.Errorf("ToDOT() ranks from sources missing\n%s", dot)
	}
	if !strings.Contains(dot, `"a" [label="a"]`) {
		t.Error("node without metadata should be labelled by ID")
	}
}

func TestToDOT_Optional(t *testing.T) {
	dot := ToDOT(testDAG(), Options{})

	line := lineFor(dot, `"pkg:pypi/pytest@8.0.0" [`)
	if !strings.Contains(line, "dashed") || !strings.Contains(line, "lightgrey") {
		t.Errorf("optional node not dashed: %q", line)
	}
	if line := lineFor(dot, `"pkg:pypi/urllib3@2.0.7" [`); strings.Contains(line, "dashed") {
		t.Errorf("required node dashed: %q", line)
	}
}

func TestToDOT_Cycle(t *testing.T) {
	g := testDAG()
	g.AddEdge(dag.Edge{From: "pkg:pypi/urllib3@2.0.7", To: "pkg:pypi/requests@2.31.0"})

	dot := ToDOT(g, Options{})
	want := `"pkg:pypi/urllib3@2.0.7" -> "pkg:pypi/requests@2.31.0" [color=red, constraint=false];`
	if !strings.Contains(dot, want) {
		t.Errorf("back edge not marked\n%s", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	n := dag.Node{ID: "pkg:npm/lodash@4.17.21", Meta: dag.Metadata{"name": "lodash", "version": "4.17.21", "scope": "required"}}

	if got := fmtLabel(n, false); got != "lodash@4.17.21" {
		t.Errorf("fmtLabel() = %q", got)
	}
	want := "lodash@4.17.21\npkg:npm/lodash@4.17.21\nscope: required"
	if got := fmtLabel(n, true); got != want {
		t.Errorf("fmtLabel() detailed = %q, want %q", got, want)
	}
}

func TestFromBOM(t *testing.T) {
	bom := cdx.NewBOM()
	bom.Metadata = &cdx.Metadata{Component: &cdx.Component{BOMRef: "root", Name: "shop", Version: "2.1.0"}}
	bom.Components = &[]cdx.Component{
		{BOMRef: "pkg:maven/org.slf4j/slf4j-api@2.0.9", Group: "org.slf4j", Name: "slf4j-api", Version: "2.0.9", Scope: cdx.ScopeRequired},
		{BOMRef: "pkg:maven/junit/junit@4.13.2", Group: "junit", Name: "junit", Version: "4.13.2", Scope: cdx.ScopeOptional},
	}
	bom.Dependencies = &[]cdx.Dependency{
		{Ref: "root", Dependencies: &[]string{"pkg:maven/org.slf4j/slf4j-api@2.0.9", "pkg:maven/junit/junit@4.13.2"}},
		{Ref: "pkg:maven/org.slf4j/slf4j-api@2.0.9"},
		{Ref: "pkg:maven/junit/junit@4.13.2", Dependencies: &[]string{"pkg:maven/missing@1"}},
	}

	g := FromBOM(bom)
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("nodes = %d, edges = %d", g.NodeCount(), g.EdgeCount())
	}
	n, ok := g.Node("pkg:maven/junit/junit@4.13.2")
	if !ok || n.Meta["scope"] != "optional" || n.Meta["name"] != "junit/junit" {
		t.Errorf("junit node = %+v", n)
	}
	if root, _ := g.Meta()["root"].(string); root != "root" {
		t.Errorf("root = %q", root)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Error("svg without viewBox should be unchanged")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testDAG(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "requests@2.31.0") {
		t.Error("RenderSVG() output missing svg or label")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("expected error for invalid DOT")
	}
}

func TestRenderPNG(t *testing.T) {
	png, err := RenderPNG(context.Background(), ToDOT(testDAG(), Options{}))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("RenderPNG() output is not a PNG: % x", png[:min(len(png), 8)])
	}
}

func TestToPDF_MissingConverter(t *testing.T) {
	old := rsvgConvert
	rsvgConvert = "rsvg-convert-not-installed"
	t.Cleanup(func() { rsvgConvert = old })

	_, err := ToPDF(context.Background(), []byte("<svg/>"))
	if err == nil || !strings.Contains(err.Error(), "librsvg") {
		t.Errorf("err = %v, want librsvg hint", err)
	}
}

func lineFor(dot, prefix string) string {
	for _, l := range strings.Split(dot, "\n") {
		if strings.Contains(l, prefix) {
			return l
		}
	}
	return ""
}
