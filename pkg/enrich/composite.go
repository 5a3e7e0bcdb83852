package enrich

import (
	"context"
	"strings"
)

// Composite queries several lookups and merges their reports. Issues are
// deduplicated by ID and alias, the first lookup's copy winning. A lookup
// that fails is skipped; the composite fails only when all of them do.
type Composite struct {
	lookups []Lookup
}

// NewComposite combines lookups in priority order.
func NewComposite(lookups ...Lookup) *Composite {
	return &Composite{lookups}
}

// Name joins the member names, e.g. "osv+mirror".
func (c *Composite) Name() string {
	names := make([]string, len(c.lookups))
	for i, l := range c.lookups {
		names[i] = l.Name()
	}
	return strings.Join(names, "+")
}

func (c *Composite) Lookup(ctx context.Context, purl string) (*Report, error) {
	merged := &Report{}
	seen := make(map[string]bool)
	var firstErr error
	ok := 0
	for _, l := range c.lookups {
		r, err := l.Lookup(ctx, purl)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ok++
		if r == nil {
			continue
		}
		for _, issue := range r.Issues {
			if seen[issue.ID] || anySeen(seen, issue.Aliases) {
				continue
			}
			seen[issue.ID] = true
			for _, a := range issue.Aliases {
				seen[a] = true
			}
			merged.Issues = append(merged.Issues, issue)
		}
	}
	if ok == 0 && firstErr != nil {
		return nil, firstErr
	}
	merged.normalize()
	return merged, nil
}

func anySeen(seen map[string]bool, ids []string) bool {
	for _, id := range ids {
		if seen[id] {
			return true
		}
	}
	return false
}
