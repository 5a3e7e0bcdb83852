package integrations

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork covers connection failures and unexpected statuses.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for 401 and 403 responses, usually a
	// missing or rejected token.
	ErrUnauthorized = errors.New("unauthorized")
)

// NewHTTPClient returns the client used when none is injected.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizeRepoURL rewrites the repository forms found in manifests
// (git@host:, git://, git+https://, trailing .git) to a browsable HTTPS URL.
// Unrecognised values are returned trimmed.
func NormalizeRepoURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "git+")
	for _, host := range []string{"github.com", "gitlab.com", "bitbucket.org"} {
		for _, prefix := range []string{"git@" + host + ":", "git://" + host + "/", "ssh://git@" + host + "/"} {
			if rest, ok := strings.CutPrefix(s, prefix); ok {
				s = "https://" + host + "/" + rest
			}
		}
	}
	return strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
}
