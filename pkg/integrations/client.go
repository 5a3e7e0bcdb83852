package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/stackbom/pkg/cache"
	"github.com/matzehuels/stackbom/pkg/httputil"
	"github.com/matzehuels/stackbom/pkg/observability"
)

// Client is the HTTP layer shared by enrichment sources. It posts JSON
// queries, retries transient failures and caches decoded responses.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	headers map[string]string
	retry   httputil.Policy
	now     func() time.Time
}

// NewClient creates a Client whose cached responses live for ttl. Headers
// are sent with every request. A nil cache disables caching.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    NewHTTPClient(),
		cache:   c,
		ttl:     ttl,
		headers: headers,
		retry:   httputil.DefaultPolicy,
		now:     time.Now,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// SetRetryPolicy replaces [httputil.DefaultPolicy].
func (c *Client) SetRetryPolicy(p httputil.Policy) { c.retry = p }

// Cached decodes the entry stored under key into v, or runs fetch (with
// retries) to fill v and stores the result. Refresh skips the read but
// still writes. Entries that no longer decode are refetched.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	hooks := observability.Cache()
	kind := cache.Kind(key)
	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit && json.Unmarshal(data, v) == nil {
			hooks.OnCacheHit(ctx, kind)
			return nil
		}
		hooks.OnCacheMiss(ctx, kind)
	}
	if err := c.retry.Do(ctx, fetch); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if c.cache.Set(ctx, key, data, c.ttl) == nil {
		hooks.OnCacheSet(ctx, kind, len(data))
	}
	return nil
}

// PostJSON sends in as a JSON body and decodes the JSON response into v.
func (c *Client) PostJSON(ctx context.Context, url string, in, v any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	for k, val := range c.headers {
		req.Header.Set(k, val)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s response: %w", req.URL.Host, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (io.ReadCloser, error) {
	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := c.checkResponse(resp); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// checkResponse maps a status to the package's error values. Rate limits
// and server errors are retryable; a Retry-After hint is passed on.
func (c *Client) checkResponse(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	case code == http.StatusTooManyRequests || code >= 500:
		return &httputil.RetryableError{
			Err:   fmt.Errorf("%w: status %d", ErrNetwork, code),
			After: httputil.RetryAfter(resp.Header.Get("Retry-After"), c.now()),
		}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
