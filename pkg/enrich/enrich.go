// Package enrich annotates a generated document with risk data looked up
// per package URL.
//
// Enrichment never changes component identities or dependency edges. It
// works on a copy of the document and only adds CycloneDX properties:
//
//	stackbom:risk:score      highest issue score, 0 to 10
//	stackbom:risk:issues     number of issues
//	stackbom:risk:class      none, low, medium, high or critical
//	stackbom:risk:issue:<n>  "<id> (<severity>): <summary>", 1-based
//
// A failed lookup leaves that component unannotated and is counted in
// [Result.Failed]; the remaining components are still enriched.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackbom/pkg/cache"
	"github.com/matzehuels/stackbom/pkg/deps"
	"github.com/matzehuels/stackbom/pkg/observability"
	"github.com/matzehuels/stackbom/pkg/sbom"
)

// Property names written by enrichment.
const (
	PropPrefix = "stackbom:risk:"
	PropScore  = PropPrefix + "score"
	PropIssues = PropPrefix + "issues"
	PropClass  = PropPrefix + "class"
	PropIssue  = PropPrefix + "issue:" // suffixed with the 1-based index
)

// Risk classes, ordered by severity.
const (
	ClassNone     = "none"
	ClassLow      = "low"
	ClassMedium   = "medium"
	ClassHigh     = "high"
	ClassCritical = "critical"
)

// Issue is one finding for a package.
type Issue struct {
	ID       string   `json:"id"`
	Summary  string   `json:"summary,omitempty"`
	Severity string   `json:"severity"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Report is the risk assessment for one package URL.
type Report struct {
	Score           float64 `json:"score"`
	Issues          []Issue `json:"issues"`
	SupplyChainRisk string  `json:"supply_chain_risk"`
}

// Lookup fetches the report for one package URL.
type Lookup interface {
	Name() string
	Lookup(ctx context.Context, purl string) (*Report, error)
}

// Options bounds an enrichment run.
type Options struct {
	Concurrency int           // Parallel lookups, default 8
	Timeout     time.Duration // Per lookup, default 10s
	Refresh     bool          // Ignore cached reports
}

// Defaults for [Options].
const (
	DefaultConcurrency = 8
	DefaultTimeout     = 10 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Result is an enriched copy of a document with counters.
type Result struct {
	BOM       *cdx.BOM
	Annotated int // Components that received a report
	Failed    int // Lookups that returned an error
	Skipped   int // Components without a resolved version
}

// Enricher annotates documents.
type Enricher interface {
	Enrich(ctx context.Context, bom *cdx.BOM, opts Options) (*Result, error)
}

// Service implements [Enricher] over any [Lookup]. Reports are cached
// under [cache.Keyer.RiskKey] when Cache is set.
type Service struct {
	Lookup Lookup
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewService creates a service. Nil cache and logger disable caching and
// logging.
func NewService(l Lookup, c cache.Cache, logger *log.Logger) *Service {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{Lookup: l, Cache: c, Keyer: cache.NewDefaultKeyer(), Logger: logger}
}

// Enrich looks up every component concurrently and annotates a copy of bom.
// Only cancellation of ctx fails the call.
func (s *Service) Enrich(ctx context.Context, bom *cdx.BOM, opts Options) (*Result, error) {
	if bom == nil {
		return nil, fmt.Errorf("enrich: nil document")
	}
	opts = opts.withDefaults()
	out := sbom.Clone(bom)
	res := &Result{BOM: out}
	if out.Components == nil || len(*out.Components) == 0 {
		return res, nil
	}
	comps := *out.Components

	hooks := observability.Pipeline()
	hooks.OnEnrichStart(ctx, len(comps))
	start := time.Now()

	reports := make([]*Report, len(comps))
	failed := make([]bool, len(comps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range comps {
		purl := comps[i].PackageURL
		if purl == "" || comps[i].Version == deps.UnknownVersion {
			res.Skipped++
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			report, err := s.lookup(gctx, purl, opts)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger().Debug("lookup failed", "purl", purl, "err", err)
				failed[i] = true
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range comps {
		switch {
		case failed[i]:
			res.Failed++
		case reports[i] != nil:
			sbom.SetProperties(&comps[i], Properties(reports[i]))
			res.Annotated++
		}
	}
	hooks.OnEnrichComplete(ctx, res.Annotated, res.Failed, time.Since(start))
	if res.Failed > 0 {
		s.logger().Warn("enrichment incomplete", "failed", res.Failed, "annotated", res.Annotated)
	}
	return res, nil
}

func (s *Service) lookup(ctx context.Context, purl string, opts Options) (*Report, error) {
	key := s.keyer().RiskKey(s.Lookup.Name(), purl)
	if !opts.Refresh {
		if data, hit, err := s.Cache.Get(ctx, key); err == nil && hit {
			var r Report
			if json.Unmarshal(data, &r) == nil {
				return &r, nil
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	r, err := s.Lookup.Lookup(ctx, purl)
	if err != nil {
		return nil, err
	}
	if r == nil {
		r = &Report{}
	}
	r.normalize()
	if data, err := json.Marshal(r); err == nil {
		_ = s.Cache.Set(ctx, key, data, cache.TTLRisk)
	}
	return r, nil
}

func (s *Service) keyer() cache.Keyer {
	if s.Keyer == nil {
		return cache.NewDefaultKeyer()
	}
	return s.Keyer
}

func (s *Service) logger() *log.Logger {
	if s.Logger == nil {
		return log.New(io.Discard)
	}
	return s.Logger
}

// Properties renders a report as component properties.
func Properties(r *Report) []cdx.Property {
	props := []cdx.Property{
		{Name: PropScore, Value: strconv.FormatFloat(r.Score, 'f', 1, 64)},
		{Name: PropIssues, Value: strconv.Itoa(len(r.Issues))},
		{Name: PropClass, Value: r.SupplyChainRisk},
	}
	for i, issue := range r.Issues {
		v := fmt.Sprintf("%s (%s)", issue.ID, issue.Severity)
		if issue.Summary != "" {
			v += ": " + issue.Summary
		}
		props = append(props, cdx.Property{Name: PropIssue + strconv.Itoa(i+1), Value: v})
	}
	return props
}

// ReportFrom reads a report back from the annotations of the component
// identified by ref. It returns nil when the component was not enriched.
func ReportFrom(bom *cdx.BOM, ref string) *Report {
	props := sbom.Annotations(bom, ref, PropPrefix)
	if len(props) == 0 {
		return nil
	}
	r := &Report{}
	for _, p := range props {
		switch p.Name {
		case PropScore:
			r.Score, _ = strconv.ParseFloat(p.Value, 64)
		case PropClass:
			r.SupplyChainRisk = p.Value
		default:
			if strings.HasPrefix(p.Name, PropIssue) {
				r.Issues = append(r.Issues, parseIssue(p.Value))
			}
		}
	}
	return r
}

func parseIssue(v string) Issue {
	var issue Issue
	id, rest, ok := strings.Cut(v, " (")
	issue.ID = id
	if !ok {
		return issue
	}
	sev, summary, _ := strings.Cut(rest, ")")
	issue.Severity = sev
	if len(summary) > 2 {
		issue.Summary = summary[2:]
	}
	return issue
}
