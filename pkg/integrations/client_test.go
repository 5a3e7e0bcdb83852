package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/stackbom/pkg/cache"
	"github.com/matzehuels/stackbom/pkg/httputil"
)

const lodash = "pkg:npm/lodash@4.17.21"

type osvQuery struct {
	Package struct {
		PURL string `json:"purl"`
	} `json:"package"`
}

type osvResponse struct {
	Vulns []struct {
		ID string `json:"id"`
	} `json:"vulns"`
}

func query(purl string) osvQuery {
	var q osvQuery
	q.Package.PURL = purl
	return q
}

// osvServer answers queries with one advisory per package, after failing
// the first len(statuses) requests with the given codes.
func osvServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			if statuses[n-1] == http.StatusTooManyRequests {
				w.Header().Set("Retry-After", "0")
			}
			w.WriteHeader(statuses[n-1])
			return
		}
		var q osvQuery
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			t.Errorf("decode query: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"vulns": []map[string]string{{"id": "GHSA-" + q.Package.PURL}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, c cache.Cache, srv *httptest.Server, headers map[string]string) *Client {
	t.Helper()
	client := NewClient(c, cache.TTLHTTP, headers)
	client.SetHTTPClient(srv.Client())
	client.SetRetryPolicy(httputil.Policy{Attempts: 3, Delay: time.Millisecond})
	return client
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil, cache.TTLHTTP, nil)
	if _, ok := c.cache.(cache.NullCache); !ok {
		t.Errorf("nil cache = %T, want NullCache", c.cache)
	}
	if c.retry != httputil.DefaultPolicy {
		t.Errorf("retry = %+v", c.retry)
	}
	if c.http.Timeout != httpTimeout {
		t.Errorf("timeout = %v", c.http.Timeout)
	}
}

func TestClientPostJSON(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		got = r.Header.Clone()
		var q osvQuery
		json.NewDecoder(r.Body).Decode(&q)
		json.NewEncoder(w).Encode(map[string]any{"vulns": []map[string]string{{"id": q.Package.PURL}}})
	}))
	defer srv.Close()

	c := newTestClient(t, nil, srv, map[string]string{"Authorization": "Bearer secret", "Content-Type": "text/plain"})
	var resp osvResponse
	if err := c.PostJSON(context.Background(), srv.URL, query(lodash), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Vulns) != 1 || resp.Vulns[0].ID != lodash {
		t.Errorf("response = %+v", resp)
	}
	if got.Get("Authorization") != "Bearer secret" {
		t.Errorf("Authorization = %q", got.Get("Authorization"))
	}
	if got.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, JSON must win over defaults", got.Get("Content-Type"))
	}
}

func TestClientPostJSON_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	var resp osvResponse
	if err := newTestClient(t, nil, srv, nil).PostJSON(context.Background(), srv.URL, query(lodash), &resp); err != nil {
		t.Errorf("empty 200 body: %v", err)
	}
}

func TestClientPostJSON_Statuses(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantErr   error
		wantCalls int32
	}{
		{"recovers from 503", []int{503}, nil, 2},
		{"honours 429 retry-after", []int{429, 429}, nil, 3},
		{"gives up on persistent 502", []int{502, 502, 502}, ErrNetwork, 3},
		{"404 is not retried", []int{404}, ErrNotFound, 1},
		{"401 is not retried", []int{401}, ErrUnauthorized, 1},
		{"403 is not retried", []int{403}, ErrUnauthorized, 1},
		{"400 is not retried", []int{400}, ErrNetwork, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := osvServer(t, tt.statuses...)
			c := newTestClient(t, nil, srv, nil)
			var resp osvResponse
			err := c.Cached(context.Background(), "http:osv:"+lodash, false, &resp, func() error {
				return c.PostJSON(context.Background(), srv.URL, query(lodash), &resp)
			})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("err = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("requests = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestCheckResponse_RetryAfter(t *testing.T) {
	c := NewClient(nil, cache.TTLHTTP, nil)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After": {"Fri, 01 Mar 2024 12:00:10 GMT"}}}
	var re *httputil.RetryableError
	if err := c.checkResponse(resp); !errors.As(err, &re) || re.After != 10*time.Second {
		t.Errorf("429 = %v (%+v)", err, re)
	}
	resp = &http.Response{StatusCode: http.StatusServiceUnavailable, Header: http.Header{}}
	if err := c.checkResponse(resp); !errors.As(err, &re) || re.After != 0 {
		t.Errorf("503 = %v (%+v)", err, re)
	}
	resp = &http.Response{StatusCode: http.StatusNoContent}
	if err := c.checkResponse(resp); err != nil {
		t.Errorf("204 = %v", err)
	}
}

func TestClientCached(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv, calls := osvServer(t)
	c := newTestClient(t, fc, srv, nil)
	key := cache.NewDefaultKeyer().HTTPKey("osv", lodash)

	lookup := func(refresh bool) osvResponse {
		t.Helper()
		var resp osvResponse
		err := c.Cached(ctx, key, refresh, &resp, func() error {
			return c.PostJSON(ctx, srv.URL, query(lodash), &resp)
		})
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	first := lookup(false)
	second := lookup(false)
	if calls.Load() != 1 {
		t.Errorf("requests after cached lookup = %d, want 1", calls.Load())
	}
	if len(second.Vulns) != 1 || second.Vulns[0].ID != first.Vulns[0].ID {
		t.Errorf("cached response = %+v", second)
	}

	lookup(true)
	if calls.Load() != 2 {
		t.Errorf("requests after refresh = %d, want 2", calls.Load())
	}

	// An entry that no longer decodes into the response type is refetched.
	fc.Set(ctx, key, []byte(`{"vulns": "not a list"}`), cache.TTLHTTP)
	lookup(false)
	if calls.Load() != 3 {
		t.Errorf("requests after bad entry = %d, want 3", calls.Load())
	}
}

func TestClientCached_FetchErrorNotStored(t *testing.T) {
	ctx := context.Background()
	fc, _ := cache.NewFileCache(t.TempDir())
	srv, _ := osvServer(t, 404)
	c := newTestClient(t, fc, srv, nil)
	key := cache.NewDefaultKeyer().HTTPKey("osv", lodash)

	var resp osvResponse
	err := c.Cached(ctx, key, false, &resp, func() error {
		return c.PostJSON(ctx, srv.URL, query(lodash), &resp)
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, hit, _ := fc.Get(ctx, key); hit {
		t.Error("failed lookup was cached")
	}
}

func TestClientCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	c := newTestClient(t, nil, srv, nil)
	var resp osvResponse
	err := c.Cached(ctx, "http:osv:"+lodash, false, &resp, func() error {
		return c.PostJSON(ctx, srv.URL, query(lodash), &resp)
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestNormalizeRepoURL(t *testing.T) {
	tests := map[string]string{
		"":                                  "",
		"git@github.com:serde-rs/serde.git": "https://github.com/serde-rs/serde",
		"git://github.com/lodash/lodash":    "https://github.com/lodash/lodash",
		"git+https://github.com/psf/requests.git": "https://github.com/psf/requests",
		"ssh://git@gitlab.com/group/project.git":  "https://gitlab.com/group/project",
		"git@bitbucket.org:team/repo":             "https://bitbucket.org/team/repo",
		" https://github.com/rails/rails/ ":       "https://github.com/rails/rails",
		"https://example.com/custom":              "https://example.com/custom",
	}
	for in, want := range tests {
		if got := NormalizeRepoURL(in); got != want {
			t.Errorf("NormalizeRepoURL(%q) = %q, want %q", in, got, want)
		}
	}
}
