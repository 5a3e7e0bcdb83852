package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Policy controls how [Policy.Do] retries an operation.
type Policy struct {
	Attempts int           // Total tries, at least one
	Delay    time.Duration // Wait before the second try; doubled after each failure
	MaxDelay time.Duration // Upper bound for any single wait; zero means none
}

// DefaultPolicy is used by API clients unless overridden: three tries
// starting at one second, never waiting longer than 30 seconds.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}

// RetryableError marks a transient failure. After carries the server's
// Retry-After hint and replaces the backoff delay for that wait.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Do runs fn until it succeeds, returns an error not marked with
// [RetryableError], or the attempts are used up. The last error is
// returned; cancellation while waiting returns ctx.Err().
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	for i := 1; ; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		var re *RetryableError
		if i >= attempts || !errors.As(err, &re) {
			return err
		}

		wait := delay
		if re.After > 0 {
			wait = re.After
		}
		if p.MaxDelay > 0 {
			wait = min(wait, p.MaxDelay)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// RetryAfter parses a Retry-After header, either delay seconds or an HTTP
// date relative to now. Missing or malformed values yield zero.
func RetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(t.Sub(now), 0)
	}
	return 0
}
