package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/matzehuels/stackbom/pkg/enrich"
	"github.com/matzehuels/stackbom/pkg/errors"
	"github.com/matzehuels/stackbom/pkg/sbom"
)

const packageLock = `{
  "name": "web",
  "version": "2.0.0",
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "web", "version": "2.0.0", "dependencies": {"lodash": "^4.17.21"}, "devDependencies": {"jest": "^29.0.0"}},
    "node_modules/lodash": {"version": "4.17.21"},
    "node_modules/jest": {"version": "29.7.0", "dev": true}
  }
}`

func newTestServer(t *testing.T, e enrich.Enricher) *httptest.Server {
	t.Helper()
	ws := t.TempDir()
	for _, dir := range []string{"web", "empty"} {
		if err := os.Mkdir(filepath.Join(ws, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(ws, "web", "package-lock.json"), []byte(packageLock), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := New(Config{Workspace: ws, Enricher: e})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func componentRefs(bom *cdx.BOM) []string {
	var out []string
	if bom.Components == nil {
		return out
	}
	for _, c := range *bom.Components {
		out = append(out, c.BOMRef)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestEcosystems(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/v1/ecosystems")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Ecosystems map[string][]string `json:"ecosystems"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(body.Ecosystems["cargo"], []string{"cargo", "rust"}) {
		t.Errorf("cargo names = %v", body.Ecosystems["cargo"])
	}
	if len(body.Ecosystems) != 7 {
		t.Errorf("got %d ecosystems", len(body.Ecosystems))
	}
}

func TestGenerateSBOM(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv, "/v1/sbom", `{"path": "web"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %+v", resp.StatusCode, decodeError(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/vnd.cyclonedx+json") {
		t.Errorf("Content-Type = %q", ct)
	}
	bom, err := sbom.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	got := componentRefs(bom)
	if !slices.Contains(got, "pkg:npm/lodash@4.17.21") || !slices.Contains(got, "pkg:npm/jest@29.7.0") {
		t.Errorf("components = %v", got)
	}
}

func TestGenerateSBOM_ExcludeDev(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv, "/v1/sbom", `{"path": "web", "includeDev": false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	bom, err := sbom.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got := componentRefs(bom); !slices.Equal(got, []string{"pkg:npm/lodash@4.17.21"}) {
		t.Errorf("components = %v", got)
	}
}

func TestGenerateSBOM_Errors(t *testing.T) {
	srv := newTestServer(t, nil)
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"traversal", `{"path": "../etc"}`, http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"absolute", `{"path": "/etc"}`, http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"missing dir", `{"path": "nope"}`, http.StatusBadRequest, errors.ErrCodeInvalidPath},
		{"nothing detected", `{"path": "empty"}`, http.StatusUnprocessableEntity, errors.ErrCodeNothingDetected},
		{"unknown ecosystem", `{"path": "web", "ecosystems": ["cobol"]}`, http.StatusBadRequest, errors.ErrCodeInvalidEcosystem},
		{"filtered out", `{"path": "web", "ecosystems": ["pypi"]}`, http.StatusUnprocessableEntity, errors.ErrCodeNothingDetected},
		{"unknown field", `{"path": "web", "verbose": true}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"malformed", `{"path":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"enrich unavailable", `{"path": "web", "enrich": true}`, http.StatusBadRequest, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/v1/sbom", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body := decodeError(t, resp); body.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", body.Code, tt.code, body.Message)
			}
		})
	}
}

type stubEnricher struct{}

func (stubEnricher) Enrich(_ context.Context, bom *cdx.BOM, _ enrich.Options) (*enrich.Result, error) {
	out, _ := sbom.Annotate(bom, "pkg:npm/lodash@4.17.21", []cdx.Property{{Name: enrich.PropClass, Value: enrich.ClassHigh}})
	return &enrich.Result{BOM: out, Annotated: 1, Failed: 1}, nil
}

func TestGenerateSBOM_Enrich(t *testing.T) {
	srv := newTestServer(t, stubEnricher{})
	resp := post(t, srv, "/v1/sbom", `{"path": "web", "enrich": true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Enrich-Failed"); got != "1" {
		t.Errorf("X-Enrich-Failed = %q", got)
	}
	bom, err := sbom.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	props := sbom.Annotations(bom, "pkg:npm/lodash@4.17.21", enrich.PropPrefix)
	if len(props) != 1 || props[0].Value != enrich.ClassHigh {
		t.Errorf("annotations = %+v", props)
	}
}

func TestGraph(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv, "/v1/graph", `{"path": "web", "deep": false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)
	if !strings.Contains(dot, "digraph G") || !strings.Contains(dot, "lodash@4.17.21") {
		t.Errorf("dot = %s", dot)
	}

	resp = post(t, srv, "/v1/graph", `{"path": "web", "format": "png"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("png status = %d", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errors.ErrNothingDetected, http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeInvalidPath, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeAssembly, "x"), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.status {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}

func TestNew_BadWorkspace(t *testing.T) {
	if _, err := New(Config{Workspace: filepath.Join(t.TempDir(), "missing")}); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("err = %v", err)
	}
}
