package enrich

import (
	"context"
	"strings"

	"github.com/matzehuels/stackbom/pkg/cache"
	"github.com/matzehuels/stackbom/pkg/integrations"
)

// OSVQueryURL is the OSV single-package query endpoint.
const OSVQueryURL = "https://api.osv.dev/v1/query"

// OSVClient looks up known vulnerabilities in the OSV database by package
// URL. Raw responses are cached under [cache.Keyer.HTTPKey].
type OSVClient struct {
	client *integrations.Client
	keyer  cache.Keyer
	url    string
}

// NewOSVClient creates a client. A non-empty token is sent as a bearer
// credential, for OSV-compatible mirrors that require one.
func NewOSVClient(c cache.Cache, token string) *OSVClient {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"Authorization": "Bearer " + token}
	}
	return &OSVClient{
		client: integrations.NewClient(c, cache.TTLHTTP, headers),
		keyer:  cache.NewDefaultKeyer(),
		url:    OSVQueryURL,
	}
}

// WithURL points the client at another OSV-compatible endpoint.
func (o *OSVClient) WithURL(url string) *OSVClient {
	o.url = url
	return o
}

// Client exposes the HTTP client, mainly for tests.
func (o *OSVClient) Client() *integrations.Client { return o.client }

func (o *OSVClient) Name() string { return "osv" }

type osvQuery struct {
	Package struct {
		PURL string `json:"purl"`
	} `json:"package"`
}

type osvVulnerability struct {
	ID       string   `json:"id"`
	Aliases  []string `json:"aliases"`
	Summary  string   `json:"summary"`
	Severity []struct {
		Type  string `json:"type"`
		Score string `json:"score"`
	} `json:"severity"`
	DatabaseSpecific struct {
		Severity string `json:"severity"`
	} `json:"database_specific"`
}

type osvResponse struct {
	Vulns []osvVulnerability `json:"vulns"`
}

// Lookup queries OSV for one package URL.
func (o *OSVClient) Lookup(ctx context.Context, purl string) (*Report, error) {
	var q osvQuery
	q.Package.PURL = purl

	var resp osvResponse
	key := o.keyer.HTTPKey(o.Name(), purl)
	err := o.client.Cached(ctx, key, false, &resp, func() error {
		return o.client.PostJSON(ctx, o.url, q, &resp)
	})
	if err != nil {
		return nil, err
	}

	r := &Report{Issues: make([]Issue, 0, len(resp.Vulns))}
	for _, v := range resp.Vulns {
		r.Issues = append(r.Issues, Issue{
			ID:       v.ID,
			Summary:  strings.TrimSpace(v.Summary),
			Severity: v.DatabaseSpecific.Severity,
			Aliases:  cveAliases(v.ID, v.Aliases),
		})
	}
	r.normalize()
	return r, nil
}

// cveAliases keeps the CVE identifiers among an advisory's aliases.
func cveAliases(id string, aliases []string) []string {
	seen := map[string]bool{id: true}
	var out []string
	for _, a := range aliases {
		if strings.HasPrefix(a, "CVE-") && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
