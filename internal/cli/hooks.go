package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackbom/pkg/observability"
)

// traceHooks logs pipeline, cache and HTTP events at debug level. It is
// registered by --verbose.
type traceHooks struct {
	logger *log.Logger
}

func registerTraceHooks(l *log.Logger) {
	h := traceHooks{logger: l.WithPrefix("trace")}
	observability.Register(observability.Hooks{Pipeline: h, Cache: h, HTTP: h})
}

func (h traceHooks) OnDetect(_ context.Context, root string, ecosystems []string, err error) {
	h.logger.Debug("detect", "root", root, "ecosystems", ecosystems, "err", err)
}

func (h traceHooks) OnParseStart(_ context.Context, ecosystem, root string) {
	h.logger.Debug("parse start", "ecosystem", ecosystem)
}

func (h traceHooks) OnParseComplete(_ context.Context, ecosystem, _ string, components int, d time.Duration, err error) {
	h.logger.Debug("parse done", "ecosystem", ecosystem, "components", components, "took", d, "err", err)
}

func (h traceHooks) OnAssembleStart(_ context.Context, components int) {
	h.logger.Debug("assemble start", "components", components)
}

func (h traceHooks) OnAssembleComplete(_ context.Context, d time.Duration, err error) {
	h.logger.Debug("assemble done", "took", d, "err", err)
}

func (h traceHooks) OnEnrichStart(_ context.Context, components int) {
	h.logger.Debug("enrich start", "components", components)
}

func (h traceHooks) OnEnrichComplete(_ context.Context, annotated, failed int, d time.Duration) {
	h.logger.Debug("enrich done", "annotated", annotated, "failed", failed, "took", d)
}

func (h traceHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}
func (h traceHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h traceHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "bytes", size)
}

func (h traceHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "url", host+path)
}

func (h traceHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "url", host+path, "status", status, "took", d)
}

func (h traceHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "url", host+path, "err", err)
}
