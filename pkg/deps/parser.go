package deps

import (
	"context"
	"os"
	"path/filepath"
	"sort"
)

// Parser extracts components and edges for one ecosystem.
//
// Detect must only check for files directly under root. Parse must not fail
// because a lockfile is missing or malformed: it logs a warning and returns
// whatever it could determine.
type Parser interface {
	// Ecosystem returns the tag of the ecosystem this parser handles.
	Ecosystem() Ecosystem
	// Detect reports whether any known manifest or lockfile exists in root.
	Detect(root string) bool
	// Parse reads the project in root.
	Parse(ctx context.Context, root string, opts Options) (*ParseResult, error)
}

// Exists reports whether any of names is a regular file directly under root.
func Exists(root string, names ...string) bool {
	_, ok := FirstExisting(root, names...)
	return ok
}

// FirstExisting returns the path of the first of names, in the given order,
// that exists under root.
func FirstExisting(root string, names ...string) (string, bool) {
	for _, name := range names {
		p := filepath.Join(root, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Match returns the first file under root matching pattern in lexical order.
func Match(root, pattern string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(root, pattern))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && !fi.IsDir() {
			return m, true
		}
	}
	return "", false
}
