// Package php reads Composer projects.
//
// Metadata comes from composer.json and components from composer.lock:
// "packages" are required, "packages-dev" are development-only. Edges come
// from each package's "require" map. Platform requirements (php, ext-*,
// lib-*, composer-*) have no vendor prefix and are skipped.
package php

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/stackbom/pkg/decode"
	"github.com/matzehuels/stackbom/pkg/deps"
)

// Parser reads composer.json and composer.lock.
type Parser struct{}

// New returns a PHP parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Ecosystem() deps.Ecosystem { return deps.Composer }

func (p *Parser) Detect(root string) bool {
	return deps.Exists(root, "composer.lock", "composer.json")
}

func (p *Parser) Parse(ctx context.Context, root string, opts deps.Options) (*deps.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	logger := opts.Logger.With("ecosystem", deps.Composer)

	var manifest composerJSON
	path := filepath.Join(root, "composer.json")
	if err := decode.ReadFile(path, decode.JSON, &manifest); err != nil && !os.IsNotExist(err) {
		logger.Warn("manifest unreadable", "file", path, "err", err)
	}

	b := deps.NewResultBuilder(deps.Composer, opts)
	lock, ok := deps.FirstExisting(root, "composer.lock")
	if !ok {
		add := func(req map[string]string, dev bool) {
			for _, name := range packageNames(req) {
				ns, n := deps.SplitName(deps.Composer, name)
				b.Add(deps.Component{Namespace: ns, Name: n, Version: deps.UnknownVersion, Scope: deps.ScopeFor(dev)})
				b.Direct(name)
			}
		}
		add(manifest.Require, false)
		add(manifest.RequireDev, true)
		return b.Build(root, manifest.metadata(), ""), nil
	}

	var cl composerLock
	if err := decode.ReadFile(lock, decode.JSON, &cl); err != nil {
		logger.Warn("lockfile unreadable", "file", lock, "err", err)
	}
	for _, pkg := range cl.Packages {
		b.Add(pkg.component(false))
	}
	for _, pkg := range cl.PackagesDev {
		b.Add(pkg.component(true))
	}
	b.Direct(packageNames(manifest.Require)...)
	b.Direct(packageNames(manifest.RequireDev)...)
	return b.Build(root, manifest.metadata(), lock), nil
}

// packageNames returns the vendor/package keys of a require map, sorted.
func packageNames(req map[string]string) []string {
	names := make([]string, 0, len(req))
	for name := range req {
		if strings.Contains(name, "/") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

type composerAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type composerJSON struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Homepage    string            `json:"homepage"`
	License     json.RawMessage   `json:"license"`
	Authors     []composerAuthor  `json:"authors"`
	Keywords    []string          `json:"keywords"`
	Support     map[string]string `json:"support"`
	Require     map[string]string `json:"require"`
	RequireDev  map[string]string `json:"require-dev"`
}

func (c composerJSON) metadata() deps.ProjectMetadata {
	meta := deps.ProjectMetadata{
		Name:        c.Name,
		Version:     c.Version,
		Description: c.Description,
		Homepage:    c.Homepage,
		Repository:  c.Support["source"],
		License:     strings.Join(licenses(c.License), " OR "),
		Keywords:    c.Keywords,
	}
	for _, a := range c.Authors {
		if a.Email != "" {
			meta.Authors = append(meta.Authors, fmt.Sprintf("%s <%s>", a.Name, a.Email))
		} else if a.Name != "" {
			meta.Authors = append(meta.Authors, a.Name)
		}
	}
	return meta
}

// licenses decodes a license given as a string or a list of strings.
func licenses(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []string
	_ = json.Unmarshal(raw, &list)
	return list
}

type composerLock struct {
	Packages    []lockPackage `json:"packages"`
	PackagesDev []lockPackage `json:"packages-dev"`
}

type lockPackage struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Homepage    string            `json:"homepage"`
	License     json.RawMessage   `json:"license"`
	Require     map[string]string `json:"require"`
	Source      struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"source"`
	Dist struct {
		URL    string `json:"url"`
		Shasum string `json:"shasum"`
	} `json:"dist"`
}

func (p lockPackage) component(dev bool) deps.Component {
	ns, name := deps.SplitName(deps.Composer, p.Name)
	c := deps.Component{
		Namespace:    ns,
		Name:         name,
		Version:      p.Version,
		Description:  p.Description,
		Scope:        deps.ScopeFor(dev),
		Licenses:     licenses(p.License),
		Dependencies: packageNames(p.Require),
	}
	if p.Dist.Shasum != "" {
		c.Hashes = []deps.Hash{{Alg: "SHA-1", Value: p.Dist.Shasum}}
	}
	if p.Homepage != "" {
		c.ExternalRefs = append(c.ExternalRefs, deps.ExternalRef{Type: deps.RefWebsite, URL: p.Homepage})
	}
	if p.Source.Type == "git" && p.Source.URL != "" {
		c.ExternalRefs = append(c.ExternalRefs, deps.ExternalRef{Type: deps.RefVCS, URL: p.Source.URL})
	}
	if p.Dist.URL != "" {
		c.ExternalRefs = append(c.ExternalRefs, deps.ExternalRef{Type: deps.RefDistribution, URL: p.Dist.URL})
	}
	return c
}
