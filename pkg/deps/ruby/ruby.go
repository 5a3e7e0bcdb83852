package ruby

import (
	"context"
	"path/filepath"

	"github.com/matzehuels/stackbom/pkg/deps"
)

// Parser reads Gemfile, Gemfile.lock and gemspecs.
type Parser struct{}

// New returns a Ruby parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Ecosystem() deps.Ecosystem { return deps.Gem }

func (p *Parser) Detect(root string) bool {
	if deps.Exists(root, "Gemfile.lock", "Gemfile", "gems.rb", "gems.locked") {
		return true
	}
	_, ok := deps.Match(root, "*.gemspec")
	return ok
}

func (p *Parser) Parse(ctx context.Context, root string, opts deps.Options) (*deps.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	logger := opts.Logger.With("ecosystem", deps.Gem)

	var meta deps.ProjectMetadata
	if spec, ok := deps.Match(root, "*.gemspec"); ok {
		var err error
		if meta, err = readGemspec(spec); err != nil {
			logger.Warn("gemspec unreadable", "file", spec, "err", err)
		}
	}

	var gf gemfile
	if path, ok := deps.FirstExisting(root, "Gemfile", "gems.rb"); ok {
		var err error
		if gf, err = readGemfile(path); err != nil {
			logger.Warn("Gemfile unreadable", "file", path, "err", err)
		}
	}

	b := deps.NewResultBuilder(deps.Gem, opts)
	lock, ok := deps.FirstExisting(root, "Gemfile.lock", "gems.locked")
	if !ok {
		for _, g := range gf.gems {
			b.Add(deps.Component{Name: g.name, Version: deps.UnknownVersion, Scope: deps.ScopeFor(g.dev)})
			b.Direct(g.name)
		}
		return b.Build(root, meta, ""), nil
	}
	if err := parseLockfile(lock, b, gf); err != nil {
		logger.Warn("lockfile unreadable", "file", filepath.Base(lock), "err", err)
	}
	return b.Build(root, meta, lock), nil
}
