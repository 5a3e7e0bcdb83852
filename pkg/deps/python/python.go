package python

import (
	"context"
	"path/filepath"
	"slices"
	"sort"

	"github.com/matzehuels/stackbom/pkg/deps"
)

// Lockfiles in priority order, most complete first. Only the first one found
// is parsed.
var Lockfiles = []string{"poetry.lock", "uv.lock", "Pipfile.lock", "requirements.txt"}

var manifests = []string{"pyproject.toml", "setup.cfg", "setup.py", "Pipfile"}

// devRequirements are read as development-only when requirements.txt is the
// selected lockfile.
var devRequirements = []string{"requirements-dev.txt", "dev-requirements.txt"}

// Parser reads Python projects.
type Parser struct{}

// New returns a Python parser.
func New() *Parser { return &Parser{} }

func (p *Parser) Ecosystem() deps.Ecosystem { return deps.PyPI }

func (p *Parser) Detect(root string) bool {
	return deps.Exists(root, slices.Concat(Lockfiles, manifests)...)
}

func (p *Parser) Parse(ctx context.Context, root string, opts deps.Options) (*deps.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()
	logger := opts.Logger.With("ecosystem", deps.PyPI)

	proj := readProject(root, logger)
	b := deps.NewResultBuilder(deps.PyPI, opts)

	lock, ok := deps.FirstExisting(root, Lockfiles...)
	if !ok {
		// Without a lockfile only the declared names are known.
		addDeclared(b, proj.declared, false)
		addDeclared(b, proj.declaredDev, true)
		return b.Build(root, proj.meta, ""), nil
	}

	var err error
	switch filepath.Base(lock) {
	case "poetry.lock":
		err = parsePoetryLock(lock, b, proj)
	case "uv.lock":
		err = parseUVLock(lock, b)
	case "Pipfile.lock":
		err = parsePipfileLock(lock, b)
	case "requirements.txt":
		err = parseRequirementsFile(lock, b, false)
		for _, name := range devRequirements {
			if dev, ok := deps.FirstExisting(root, name); ok {
				if derr := parseRequirementsFile(dev, b, true); derr != nil {
					logger.Warn("requirements unreadable", "file", dev, "err", derr)
				}
			}
		}
	}
	if err != nil {
		logger.Warn("lockfile unreadable", "file", lock, "err", err)
		if b.Len() == 0 {
			addDeclared(b, proj.declared, false)
			addDeclared(b, proj.declaredDev, true)
		}
	}
	return b.Build(root, proj.meta, lock), nil
}

func addDeclared(b *deps.ResultBuilder, reqs []requirement, dev bool) {
	for _, r := range reqs {
		b.Add(r.component(dev))
		b.Direct(r.Name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
