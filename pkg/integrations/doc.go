// Package integrations provides the HTTP layer for external APIs queried
// during enrichment.
//
// [Client] wraps net/http with:
//   - retries for network errors, 429 and 5xx responses, honouring
//     Retry-After (see [httputil.Policy])
//   - JSON response caching through any [cache.Cache] backend
//   - default headers such as bearer credentials
//   - request and cache events reported to [observability] hooks
//
// Typical use from an API client:
//
//	c := integrations.NewClient(backend, cache.TTLHTTP, headers)
//	key := cache.NewDefaultKeyer().HTTPKey("osv", purl)
//	var resp queryResponse
//	err := c.Cached(ctx, key, false, &resp, func() error {
//	    return c.PostJSON(ctx, url, query, &resp)
//	})
package integrations
