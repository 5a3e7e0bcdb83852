// Package httputil holds the retry policy shared by API clients.
//
// [Policy.Do] re-runs an operation with exponential backoff, but only for
// errors wrapped in [RetryableError]. Clients wrap transient failures
// (network errors, 429 and 5xx responses) and return everything else
// unwrapped so it fails fast. A rate-limited response can carry the
// server's Retry-After hint, parsed with [RetryAfter]:
//
//	err := httputil.DefaultPolicy.Do(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    if resp.StatusCode == http.StatusTooManyRequests {
//	        after := httputil.RetryAfter(resp.Header.Get("Retry-After"), time.Now())
//	        return &httputil.RetryableError{Err: errRateLimited, After: after}
//	    }
//	    ...
//	})
package httputil
