package errors

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const maxPathLength = 500

// ValidatePath checks a project path submitted over the HTTP API. The path
// is joined to the server's workspace, so it must be relative, slash
// separated and must not climb out of the workspace.
func ValidatePath(p string) error {
	switch {
	case p == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(p) > maxPathLength:
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	case strings.ContainsFunc(p, unicode.IsControl):
		return New(ErrCodeInvalidPath, "path contains control characters")
	case strings.Contains(p, `\`):
		return New(ErrCodeInvalidPath, "path must use forward slashes")
	case strings.HasPrefix(p, "/"):
		return New(ErrCodeInvalidPath, "path must be relative to the workspace")
	case !filepath.IsLocal(p):
		return New(ErrCodeInvalidPath, "path %q leaves the workspace", p)
	}
	return nil
}

// ValidateURL checks a vulnerability service endpoint: an absolute http or
// https URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL %q has no host", raw)
	}
	return nil
}

var ecosystemName = regexp.MustCompile(`^[a-z][a-z0-9-]{0,31}$`)

// ValidateEcosystemName checks the shape of an ecosystem filter entry.
// Whether the name is actually known is decided by the parser registry.
func ValidateEcosystemName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidEcosystem, "ecosystem name cannot be empty")
	}
	if !ecosystemName.MatchString(name) {
		return New(ErrCodeInvalidEcosystem, "invalid ecosystem name: %q", name)
	}
	return nil
}
