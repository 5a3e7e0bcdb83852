// Package golang reads Go modules.
//
// go.mod is parsed with golang.org/x/mod/modfile. Every require is a
// component; replace directives pointing at another module substitute its
// path and version, and local-path replacements are dropped. Requirements
// not marked "// indirect" are the project's direct dependencies. go.sum
// contributes module hashes.
package golang

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	"github.com/matzehuels/stackbom/pkg/deps"
)

// Parser reads go.mod and go.sum.
type Parser struct{}

// New returns a Go modules parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Ecosystem() deps.Ecosystem { return deps.Golang }

func (p *Parser) Detect(root string) bool {
	return deps.Exists(root, "go.mod")
}

func (p *Parser) Parse(ctx context.Context, root string, opts deps.Options) (*deps.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	logger := opts.Logger.With("ecosystem", deps.Golang)
	b := deps.NewResultBuilder(deps.Golang, opts)

	path := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("go.mod unreadable", "file", path, "err", err)
		return b.Build(root, deps.ProjectMetadata{}, ""), nil
	}
	f, err := modfile.Parse(path, data, nil)
	if err != nil {
		logger.Warn("go.mod unreadable", "file", path, "err", err)
		return b.Build(root, deps.ProjectMetadata{}, ""), nil
	}

	sums := readGoSum(filepath.Join(root, "go.sum"))
	for _, req := range f.Require {
		mod, ok := replaced(f.Replace, req.Mod)
		if !ok {
			logger.Debug("skipping local replacement", "module", req.Mod.Path)
			continue
		}
		ns, name := deps.SplitName(deps.Golang, mod.Path)
		c := deps.Component{Namespace: ns, Name: name, Version: mod.Version}
		if h, ok := sums[mod]; ok {
			c.Hashes = []deps.Hash{h}
		}
		b.Add(c)
		if !req.Indirect {
			b.Direct(mod.Path)
		}
	}
	return b.Build(root, metadata(f), path), nil
}

func metadata(f *modfile.File) deps.ProjectMetadata {
	if f.Module == nil {
		return deps.ProjectMetadata{}
	}
	meta := deps.ProjectMetadata{Name: f.Module.Mod.Path}
	for _, host := range []string{"github.com/", "gitlab.com/", "bitbucket.org/"} {
		if strings.HasPrefix(meta.Name, host) {
			parts := strings.SplitN(meta.Name, "/", 4)
			if len(parts) >= 3 {
				meta.Repository = "https://" + strings.Join(parts[:3], "/")
			}
		}
	}
	return meta
}

// replaced applies the replace directives to m. It reports false for
// replacements by a local directory.
func replaced(replaces []*modfile.Replace, m module.Version) (module.Version, bool) {
	for _, r := range replaces {
		if r.Old.Path != m.Path || (r.Old.Version != "" && r.Old.Version != m.Version) {
			continue
		}
		if r.New.Version == "" {
			return module.Version{}, false
		}
		return r.New, true
	}
	return m, true
}

// readGoSum maps module versions to their h1 directory hash. The h1 value is
// a base64 SHA-256 digest.
func readGoSum(path string) map[module.Version]deps.Hash {
	sums := make(map[module.Version]deps.Hash)
	f, err := os.Open(path)
	if err != nil {
		return sums
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 || strings.HasSuffix(fields[1], "/go.mod") {
			continue
		}
		digest, ok := strings.CutPrefix(fields[2], "h1:")
		if !ok {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(digest)
		if err != nil {
			continue
		}
		sums[module.Version{Path: fields[0], Version: fields[1]}] = deps.Hash{Alg: "SHA-256", Value: hex.EncodeToString(raw)}
	}
	return sums
}
