package golang

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/stackbom/pkg/deps"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const goMod = `module github.com/example/service/v2

go 1.22

require (
	github.com/spf13/cobra v1.8.0
	golang.org/x/sync v0.6.0
	github.com/old/lib v1.0.0
	example.com/local v0.0.0
)

require github.com/inconshreveable/mousetrap v1.1.0 // indirect

replace github.com/old/lib => github.com/new/lib v1.2.0

replace example.com/local => ../local
`

const goSum = `github.com/spf13/cobra v1.8.0 h1:7aJaZx1B85qltLMc546zn58BxxfZdR/W22ej9CFoEf0=
github.com/spf13/cobra v1.8.0/go.mod h1:WXLWApfZ71AjXPya3WOlMsY9yMs7YeiHhFVlvLyhcho=
golang.org/x/sync v0.6.0 h1:not-base64!
`

func TestParser_GoMod(t *testing.T) {
	dir := writeFiles(t, map[string]string{"go.mod": goMod, "go.sum": goSum})
	res, err := New().Parse(context.Background(), dir, deps.Options{})
	if err != nil {
		t.Fatal(err)
	}

	if res.Metadata.Name != "github.com/example/service/v2" {
		t.Errorf("Name = %q", res.Metadata.Name)
	}
	if res.Metadata.Repository != "https://github.com/example/service" {
		t.Errorf("Repository = %q", res.Metadata.Repository)
	}
	if res.Lockfile != "go.mod" {
		t.Errorf("Lockfile = %q", res.Lockfile)
	}

	ids := make(map[string]deps.Component)
	for _, c := range res.Components {
		ids[c.ID()] = c
	}
	if len(ids) != 4 {
		t.Fatalf("got %d components: %v", len(ids), ids)
	}
	cobra, ok := ids["pkg:golang/github.com/spf13/cobra@v1.8.0"]
	if !ok {
		t.Fatalf("cobra missing: %v", ids)
	}
	if len(cobra.Hashes) != 1 || len(cobra.Hashes[0].Value) != 64 {
		t.Errorf("cobra hashes = %+v", cobra.Hashes)
	}
	if _, ok := ids["pkg:golang/github.com/new/lib@v1.2.0"]; !ok {
		t.Error("replacement not applied")
	}
	if c := ids["pkg:golang/golang.org/x/sync@v0.6.0"]; len(c.Hashes) != 0 {
		t.Error("invalid go.sum digest should be ignored")
	}

	for _, d := range res.Dependencies {
		if d.Ref == res.RootRef && len(d.DependsOn) != 3 {
			t.Errorf("root dependsOn = %v, want 3 direct modules", d.DependsOn)
		}
	}
}

func TestParser_Corrupt(t *testing.T) {
	dir := writeFiles(t, map[string]string{"go.mod": "module\nrequire (\n"})
	p := New()
	if !p.Detect(dir) {
		t.Fatal("Detect() = false")
	}
	res, err := p.Parse(context.Background(), dir, deps.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Components) != 0 || res.Metadata.Version != deps.UnknownVersion {
		t.Errorf("result = %+v", res)
	}
}

func TestParser_Detect(t *testing.T) {
	if New().Detect(writeFiles(t, map[string]string{"go.sum": ""})) {
		t.Error("go.sum alone should not be detected")
	}
}
