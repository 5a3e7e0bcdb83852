package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stackbom/pkg/enrich"
	"github.com/matzehuels/stackbom/pkg/errors"
	"github.com/matzehuels/stackbom/pkg/pipeline"
)

const (
	maxBodyBytes   = 64 << 10
	defaultTimeout = 2 * time.Minute

	contentTypeCycloneDX = "application/vnd.cyclonedx+json; version=1.6"
)

// Config configures a [Server].
type Config struct {
	Workspace string          // Directory request paths are resolved against
	Enricher  enrich.Enricher // Optional; requests with "enrich" fail without it
	Logger    *log.Logger
	Timeout   time.Duration // Per request, default 2m
}

// Server handles API requests. It is safe for concurrent use.
type Server struct {
	workspace string
	runner    *pipeline.Runner
	enricher  enrich.Enricher
	logger    *log.Logger
	timeout   time.Duration
}

// New creates a server for cfg.Workspace.
func New(cfg Config) (*Server, error) {
	if cfg.Workspace == "" {
		cfg.Workspace = "."
	}
	ws, err := filepath.Abs(cfg.Workspace)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "workspace %s", cfg.Workspace)
	}
	if fi, err := os.Stat(ws); err != nil || !fi.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "workspace %s is not a directory", ws)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Server{
		workspace: ws,
		runner:    pipeline.NewRunner(logger),
		enricher:  cfg.Enricher,
		logger:    logger,
		timeout:   timeout,
	}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Get("/ecosystems", s.handleEcosystems)
		r.Post("/sbom", s.handleSBOM)
		r.Post("/graph", s.handleGraph)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "workspace", s.workspace)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// resolve maps a request path onto the workspace.
func (s *Server) resolve(p string) (string, error) {
	if p == "" {
		p = "."
	}
	if err := errors.ValidatePath(p); err != nil {
		return "", err
	}
	return filepath.Join(s.workspace, filepath.FromSlash(p)), nil
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: errors.UserMessage(err)})
}

// statusFor maps an error onto an HTTP status and a code for the body.
func statusFor(err error) (int, errors.Code) {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errors.ErrCodeTimeout
	case stderrors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errors.ErrCodeInternal
	}
	code := errors.GetCode(err)
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidEcosystem,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath, errors.ErrCodeUnsupported:
		return http.StatusBadRequest, code
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound, code
	case errors.ErrCodeNothingDetected:
		return http.StatusUnprocessableEntity, code
	case "":
		return http.StatusInternalServerError, errors.ErrCodeInternal
	default:
		return http.StatusInternalServerError, code
	}
}
