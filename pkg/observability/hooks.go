// Package observability lets a host program watch SBOM generation without
// the library depending on a metrics or tracing backend.
//
// Libraries fetch the current hooks and report events:
//
//	hooks := observability.Pipeline()
//	hooks.OnParseStart(ctx, "cargo", root)
//	res, err := p.Parse(ctx, root, opts)
//	hooks.OnParseComplete(ctx, "cargo", root, len(res.Components), time.Since(start), err)
//
// A program registers its implementations once, before generating:
//
//	observability.Register(observability.Hooks{HTTP: myHTTPMetrics{}})
//
// Unregistered categories stay no-ops.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from SBOM generation.
type PipelineHooks interface {
	// OnDetect reports the ecosystems found under root.
	OnDetect(ctx context.Context, root string, ecosystems []string, err error)

	// One start/complete pair per ecosystem parser.
	OnParseStart(ctx context.Context, ecosystem, root string)
	OnParseComplete(ctx context.Context, ecosystem, root string, components int, duration time.Duration, err error)

	OnAssembleStart(ctx context.Context, components int)
	OnAssembleComplete(ctx context.Context, duration time.Duration, err error)

	OnEnrichStart(ctx context.Context, components int)
	OnEnrichComplete(ctx context.Context, annotated, failed int, duration time.Duration)
}

// CacheHooks receives lookup cache events. Kind is the key's kind prefix
// ("http", "risk").
type CacheHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnCacheSet(ctx context.Context, kind string, size int)
}

// HTTPHooks receives events from requests to vulnerability services.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, status int, duration time.Duration)
	// OnError reports transport failures such as timeouts. Error statuses
	// arrive through OnResponse.
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks ignores every event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnDetect(context.Context, string, []string, error) {}
func (NoopPipelineHooks) OnParseStart(context.Context, string, string)      {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnAssembleStart(context.Context, int)                      {}
func (NoopPipelineHooks) OnAssembleComplete(context.Context, time.Duration, error)  {}
func (NoopPipelineHooks) OnEnrichStart(context.Context, int)                        {}
func (NoopPipelineHooks) OnEnrichComplete(context.Context, int, int, time.Duration) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// Hooks bundles one implementation per event category. Nil fields leave
// that category unchanged on [Register].
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

var current atomic.Pointer[Hooks]

func init() { Reset() }

// Register installs the non-nil hooks in h.
func Register(h Hooks) {
	next := *current.Load()
	if h.Pipeline != nil {
		next.Pipeline = h.Pipeline
	}
	if h.Cache != nil {
		next.Cache = h.Cache
	}
	if h.HTTP != nil {
		next.HTTP = h.HTTP
	}
	current.Store(&next)
}

// Reset restores the no-op hooks.
func Reset() {
	current.Store(&Hooks{Pipeline: NoopPipelineHooks{}, Cache: NoopCacheHooks{}, HTTP: NoopHTTPHooks{}})
}

func Pipeline() PipelineHooks { return current.Load().Pipeline }
func Cache() CacheHooks       { return current.Load().Cache }
func HTTP() HTTPHooks         { return current.Load().HTTP }
