package java

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

const pomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <parent>
    <groupId>com.acme</groupId>
    <artifactId>acme-parent</artifactId>
    <version>2.1.0</version>
  </parent>
  <artifactId>shop</artifactId>
  <description>Acme shop</description>
  <url>https://acme.example.com</url>
  <licenses><license><name>Apache-2.0</name></license></licenses>
  <scm><url>https://github.com/acme/shop</url></scm>
  <properties>
    <guava.version>32.1.3-jre</guava.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>org.slf4j</groupId>
        <artifactId>slf4j-api</artifactId>
        <version>2.0.9</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>${guava.version}</version>
    </dependency>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
    </dependency>
    <dependency>
      <groupId>com.acme</groupId>
      <artifactId>shop-core</artifactId>
      <version>${project.version}</version>
    </dependency>
    <dependency>
      <groupId>org.apache.commons</groupId>
      <artifactId>commons-lang3</artifactId>
      <version>[3.0,4.0)</version>
    </dependency>
    <dependency>
      <groupId>io.netty</groupId>
      <artifactId>netty-all</artifactId>
      <version>${netty.version}</version>
    </dependency>
    <dependency>
      <groupId>javax.servlet</groupId>
      <artifactId>servlet-api</artifactId>
      <version>2.5</version>
      <scope>provided</scope>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13.2</version>
      <scope>test</scope>
    </dependency>
  </dependencies>
</project>`

func byID(res *deps.ParseResult) map[string]deps.Component {
	m := make(map[string]deps.Component)
	for _, c := range res.Components {
		m[c.ID()] = c
	}
	return m
}

func TestParser_POM(t *testing.T) {
	dir := writeFiles(t, map[string]string{"pom.xml": pomFixture})
	res, err := New().Parse(context.Background(), dir, deps.Options{})
	if err != nil {
		t.Fatal(err)
	}

	m := res.Metadata
	if m.Name != "com.acme:shop" || m.Version != "2.1.0" || m.License != "Apache-2.0" {
		t.Errorf("Metadata = %+v", m)
	}
	if res.RootRef != "pkg:maven/com.acme/shop@2.1.0" {
		t.Errorf("RootRef = %q", res.RootRef)
	}
	if res.Lockfile != "pom.xml" {
		t.Errorf("Lockfile = %q", res.Lockfile)
	}

	comps := byID(res)
	for _, id := range []string{
		"pkg:maven/com.google.guava/guava@32.1.3-jre",
		"pkg:maven/org.slf4j/slf4j-api@2.0.9",
		"pkg:maven/com.acme/shop-core@2.1.0",
		"pkg:maven/org.apache.commons/commons-lang3@0.0.0",
		"pkg:maven/io.netty/netty-all@0.0.0",
		"pkg:maven/junit/junit@4.13.2",
	} {
		if _, ok := comps[id]; !ok {
			t.Errorf("missing %s", id)
		}
	}
	if len(comps) != 6 {
		t.Errorf("got %d components, want 6 (provided scope skipped)", len(comps))
	}
	if comps["pkg:maven/junit/junit@4.13.2"].Scope != deps.ScopeOptional {
		t.Error("junit should be optional")
	}
	if len(res.Dependencies) == 0 || len(res.Dependencies[0].DependsOn) != 6 {
		t.Errorf("root edges = %+v", res.Dependencies)
	}
}

func TestParser_GradleLockfile(t *testing.T) {
	lock := `# This is a Gradle generated file for dependency locking.
# Manual edits can break the build and are not advised.
com.google.guava:guava:32.1.3-jre=compileClasspath,runtimeClasspath,testCompileClasspath
junit:junit:4.13.2=testCompileClasspath,testRuntimeClasspath
org.hamcrest:hamcrest-core:1.3=testRuntimeClasspath
empty=annotationProcessor
`
	dir := writeFiles(t, map[string]string{
		"gradle.lockfile":     lock,
		"build.gradle":        "plugins { id 'java' }\n",
		"settings.gradle.kts": `rootProject.name = "inventory"` + "\n",
	})
	if !New().Detect(dir) {
		t.Fatal("Detect = false")
	}
	res, err := New().Parse(context.Background(), dir, deps.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata.Name != "inventory" || res.Lockfile != "gradle.lockfile" {
		t.Errorf("Metadata = %+v, Lockfile = %q", res.Metadata, res.Lockfile)
	}
	comps := byID(res)
	if len(comps) != 3 {
		t.Fatalf("got %d components", len(comps))
	}
	if comps["pkg:maven/com.google.guava/guava@32.1.3-jre"].Scope != deps.ScopeRequired {
		t.Error("guava should be required")
	}
	if comps["pkg:maven/junit/junit@4.13.2"].Scope != deps.ScopeOptional {
		t.Error("junit should be optional")
	}

	res, err = New().Parse(context.Background(), dir, deps.Options{ExcludeDev: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Components) != 1 {
		t.Errorf("ExcludeDev kept %d components", len(res.Components))
	}
}

func TestParser_LockfileBeatsPOM(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"pom.xml":         pomFixture,
		"gradle.lockfile": "org.yaml:snakeyaml:2.2=runtimeClasspath\n",
	})
	res, err := New().Parse(context.Background(), dir, deps.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Components) != 1 || res.Components[0].Name != "snakeyaml" {
		t.Errorf("Components = %+v", res.Components)
	}
	if res.Metadata.Name != "com.acme:shop" {
		t.Errorf("Metadata.Name = %q", res.Metadata.Name)
	}
}

func TestParser_CorruptPOM(t *testing.T) {
	dir := writeFiles(t, map[string]string{"pom.xml": "<project><artifactId>broken"})
	res, err := New().Parse(context.Background(), dir, deps.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Components) != 0 {
		t.Errorf("Components = %+v", res.Components)
	}
	if res.Metadata.Name != filepath.Base(dir) || res.Metadata.Version != deps.UnknownVersion {
		t.Errorf("Metadata = %+v", res.Metadata)
	}
}

func TestParser_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Parse(ctx, t.TempDir(), deps.Options{}); err == nil {
		t.Error("expected error")
	}
}

func TestTestOnly(t *testing.T) {
	tests := []struct {
		confs string
		want  bool
	}{
		{"testCompileClasspath,testRuntimeClasspath", true},
		{"compileClasspath,testRuntimeClasspath", false},
		{"", false},
		{"runtimeClasspath", false},
	}
	for _, tt := range tests {
		if got := testOnly(tt.confs); got != tt.want {
			t.Errorf("testOnly(%q) = %v, want %v", tt.confs, got, tt.want)
		}
	}
}
