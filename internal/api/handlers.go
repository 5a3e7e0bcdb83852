package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/matzehuels/stackbom/pkg/buildinfo"
	"github.com/matzehuels/stackbom/pkg/deps/languages"
	"github.com/matzehuels/stackbom/pkg/enrich"
	"github.com/matzehuels/stackbom/pkg/errors"
	"github.com/matzehuels/stackbom/pkg/pipeline"
	"github.com/matzehuels/stackbom/pkg/render"
	"github.com/matzehuels/stackbom/pkg/sbom"
)

// GenerateRequest is the body of POST /v1/sbom and POST /v1/graph.
// IncludeDev and Deep default to true when omitted.
type GenerateRequest struct {
	Path       string   `json:"path"`
	Ecosystems []string `json:"ecosystems,omitempty"`
	IncludeDev *bool    `json:"includeDev,omitempty"`
	Deep       *bool    `json:"deep,omitempty"`
	Enrich     bool     `json:"enrich,omitempty"`
	Format     string   `json:"format,omitempty"` // graph only: dot (default) or svg
	Detailed   bool     `json:"detailed,omitempty"`
}

func (req GenerateRequest) options() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Ecosystems = req.Ecosystems
	if req.IncludeDev != nil {
		opts.IncludeDev = *req.IncludeDev
	}
	if req.Deep != nil {
		opts.Deep = *req.Deep
	}
	return opts
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (GenerateRequest, error) {
	var req GenerateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleEcosystems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ecosystems": languages.Names()})
}

func (s *Server) handleSBOM(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Enrich && s.enricher == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "enrichment is not configured on this server"))
		return
	}
	root, err := s.resolve(req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	bom, err := s.runner.Generate(ctx, root, req.options())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Enrich {
		res, err := s.enricher.Enrich(ctx, bom, enrich.Options{})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		bom = res.BOM
		w.Header().Set("X-Enrich-Failed", strconv.Itoa(res.Failed))
	}

	var buf bytes.Buffer
	if err := sbom.Encode(&buf, bom, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeCycloneDX)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Format != "" && req.Format != "dot" && req.Format != "svg" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q", req.Format))
		return
	}
	root, err := s.resolve(req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	g, err := s.runner.Graph(r.Context(), root, req.options())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dot := render.ToDOT(g.DAG(), render.Options{Detailed: req.Detailed})
	if req.Format != "svg" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
		return
	}
	svg, err := render.RenderSVG(r.Context(), dot)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render graph"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}
