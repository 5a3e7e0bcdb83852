package java

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

// Parser reads pom.xml and gradle.lockfile.
type Parser struct{}

// New returns a Java parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Ecosystem() deps.Ecosystem { return deps.Maven }

func (p *Parser) Detect(root string) bool {
	return deps.Exists(root, "gradle.lockfile", "pom.xml", "build.gradle", "build.gradle.kts")
}

func (p *Parser) Parse(ctx context.Context, root string, opts deps.Options) (*deps.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	logger := opts.Logger.With("ecosystem", deps.Maven)
	b := deps.NewResultBuilder(deps.Maven, opts)

	pom, err := readPOM(filepath.Join(root, "pom.xml"))
	if err != nil && !os.IsNotExist(err) {
		logger.Warn("pom.xml unreadable", "err", err)
	}
	meta := pom.metadata()
	if meta.Name == "" {
		meta.Name = gradleProjectName(root)
	}

	if lock, ok := deps.FirstExisting(root, "gradle.lockfile"); ok {
		if err := parseGradleLockfile(lock, b); err != nil {
			logger.Warn("lockfile unreadable", "file", lock, "err", err)
		}
		return b.Build(root, meta, lock), nil
	}
	if pom == nil {
		return b.Build(root, meta, ""), nil
	}
	for _, c := range pom.components() {
		b.Add(c)
		b.Direct(c.Namespace + ":" + c.Name)
	}
	return b.Build(root, meta, "pom.xml"), nil
}

var rootProjectRE = regexp.MustCompile(`rootProject\.name\s*=\s*["']([^"']+)["']`)

func gradleProjectName(root string) string {
	for _, name := range []string{"settings.gradle", "settings.gradle.kts"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		if m := rootProjectRE.FindSubmatch(data); m != nil {
			return string(m[1])
		}
	}
	return ""
}

// parseGradleLockfile reads "group:artifact:version=conf1,conf2" lines.
// The format has no edges, so every entry is direct.
func parseGradleLockfile(path string, b *deps.ResultBuilder) error {
	lines, err := decode.ReadLines(path)
	if err != nil {
		return err
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		coord, confs, _ := strings.Cut(line, "=")
		parts := strings.Split(coord, ":")
		if len(parts) != 3 {
			// "empty=..." and malformed entries
			continue
		}
		b.Add(deps.Component{
			Namespace: parts[0],
			Name:      parts[1],
			Version:   parts[2],
			Scope:     deps.ScopeFor(testOnly(confs)),
		})
		b.Direct(parts[0] + ":" + parts[1])
	}
	return nil
}

func testOnly(confs string) bool {
	list := strings.Split(confs, ",")
	n := 0
	for _, c := range list {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		n++
		if !strings.HasPrefix(strings.ToLower(c), "test") {
			return false
		}
	}
	return n > 0
}
