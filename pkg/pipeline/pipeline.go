// Package pipeline generates a bill of materials for a project directory.
//
// This package implements the detect → parse → combine → assemble pipeline
// shared by the CLI and the HTTP API. By centralizing this logic, both entry
// points produce identical documents for the same project.
//
// # Stages
//
//  1. Detect: pick the ecosystem parsers whose files exist under the root
//  2. Parse: run every applicable parser concurrently
//  3. Combine: merge the results into one graph (single-threaded)
//  4. Assemble: emit the CycloneDX document
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	bom, err := runner.Generate(ctx, "./myproject", pipeline.Options{
//	    IncludeDev: true,
//	    Deep:       true,
//	})
//
// A run with no applicable ecosystem fails with a NOTHING_DETECTED error
// rather than producing an empty document.
package pipeline

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/deps/languages"
	"github.com/matzehuels/stackbom/pkg/errors"
	"github.com/matzehuels/stackbom/pkg/observability"
	"github.com/matzehuels/stackbom/pkg/sbom"
)

// Options configures one generation run.
type Options struct {
	Ecosystems []string // Restrict detection to these names or aliases
	IncludeDev bool     // Keep development-only packages (scope "optional")
	Deep       bool     // Keep transitive packages and edges

	// Assemble overrides document fields such as the serial number.
	Assemble sbom.AssembleOptions
}

// DefaultOptions returns the options used when a caller sets nothing.
func DefaultOptions() Options {
	return Options{IncludeDev: true, Deep: true}
}

// Runner executes the pipeline. It holds no per-run state, so one Runner
// can serve concurrent requests.
type Runner struct {
	Logger *log.Logger

	// Detect selects parsers; defaults to languages.DetectApplicable.
	Detect func(root string, filter []string) ([]deps.Parser, error)
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Logger: logger, Detect: languages.DetectApplicable}
}

// Generate builds the CycloneDX document for the project at root.
func (r *Runner) Generate(ctx context.Context, root string, opts Options) (*cdx.BOM, error) {
	g, err := r.Graph(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnAssembleStart(ctx, len(g.Components))
	start := time.Now()
	bom, err := sbom.Assemble(g, opts.Assemble)
	hooks.OnAssembleComplete(ctx, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.logger().Info("assembled document",
		"components", len(g.Components),
		"root", g.RootRef)
	return bom, nil
}

// Graph runs detection, parsing and merging, stopping short of assembly.
func (r *Runner) Graph(ctx context.Context, root string, opts Options) (*sbom.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "project root %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "project root %s is not a directory", root)
	}

	parsers, err := r.detect(ctx, root, opts.Ecosystems)
	if err != nil {
		return nil, err
	}

	results, err := r.parseAll(ctx, root, parsers, opts)
	if err != nil {
		return nil, err
	}

	g, err := sbom.Combine(results)
	if err != nil {
		return nil, err
	}
	logger := r.logger()
	if g.Dangling > 0 {
		logger.Warn("dropped edges to missing components", "count", g.Dangling)
	}
	if n := g.DAG().Cycles(); n > 0 {
		logger.Debug("dependency cycles kept", "back_edges", n)
	}
	if !opts.Deep {
		g.Prune()
	}
	return g, nil
}

func (r *Runner) detect(ctx context.Context, root string, filter []string) ([]deps.Parser, error) {
	detect := r.Detect
	if detect == nil {
		detect = languages.DetectApplicable
	}
	parsers, err := detect(root, filter)

	names := make([]string, len(parsers))
	for i, p := range parsers {
		names[i] = string(p.Ecosystem())
	}
	observability.Pipeline().OnDetect(ctx, root, names, err)
	if err != nil {
		return nil, err
	}
	r.logger().Debug("detected ecosystems", "root", root, "ecosystems", strings.Join(names, ","))
	return parsers, nil
}

// parseAll runs the parsers concurrently. Each goroutine owns one slot of
// the result slice. A failing parser is logged and leaves its slot nil;
// only cancellation aborts the run.
func (r *Runner) parseAll(ctx context.Context, root string, parsers []deps.Parser, opts Options) ([]*deps.ParseResult, error) {
	logger := r.logger()
	parseOpts := deps.Options{ExcludeDev: !opts.IncludeDev, Logger: logger}
	hooks := observability.Pipeline()

	results := make([]*deps.ParseResult, len(parsers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range parsers {
		g.Go(func() error {
			eco := string(p.Ecosystem())
			hooks.OnParseStart(gctx, eco, root)
			start := time.Now()
			res, err := p.Parse(gctx, root, parseOpts)

			n := 0
			if res != nil {
				n = len(res.Components)
			}
			hooks.OnParseComplete(gctx, eco, root, n, time.Since(start), err)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("parse failed", "ecosystem", eco, "err", err)
				return nil
			}
			logger.Debug("parsed", "ecosystem", eco, "lockfile", res.Lockfile, "components", n)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard)
	}
	return r.Logger
}
