// Package api serves layouts over HTTP.
//
// Routes:
//
//	POST /v1/layout          graph document in, layout document out
//	POST /v1/render?format=  graph document in, rendered artifact out
//	GET  /healthz            liveness probe
//	GET  /metrics            Prometheus metrics
//
// Every response carries an X-Request-ID header.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/nodegraph/internal/config"
	"github.com/matzehuels/nodegraph/pkg/buildinfo"
	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/graph"
	"github.com/matzehuels/nodegraph/pkg/layout/params"
	"github.com/matzehuels/nodegraph/pkg/model"
	"github.com/matzehuels/nodegraph/pkg/pipeline"
)

// LayoutRequest is the body of POST /v1/layout and POST /v1/render.
// Params and AssertAssigned override the server configuration when set.
type LayoutRequest struct {
	Graph          graph.Graph    `json:"graph"`
	Params         *params.Params `json:"params,omitempty"`
	AssertAssigned *bool          `json:"assert_assigned,omitempty"`
	Refresh        bool           `json:"refresh,omitempty"`
}

// LayoutResponse is the body of a successful POST /v1/layout.
type LayoutResponse struct {
	RequestID  string       `json:"request_id"`
	GraphHash  string       `json:"graph_hash"`
	CacheHit   bool         `json:"cache_hit"`
	DurationMs int64        `json:"duration_ms"`
	Layout     graph.Layout `json:"layout"`
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	runner *pipeline.Runner
	loader *config.Loader
	logger *log.Logger
}

// New creates an HTTP handler and registers all routes. The loader supplies
// the current configuration for every request, so hot reloads apply without
// a restart.
func New(runner *pipeline.Runner, loader *config.Loader, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	h := &Handler{runner: runner, loader: loader, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(h.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Use(h.timeout)
		r.Post("/layout", h.layout)
		r.Post("/render", h.render)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}

// POST /v1/layout
func (h *Handler) layout(w http.ResponseWriter, r *http.Request) {
	g, opts, err := h.decode(w, r)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	res, err := h.runner.Run(r.Context(), g, opts)
	if err != nil {
		h.logger.Warn("layout failed", "request_id", RequestID(r.Context()), "error", err)
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{
		RequestID:  RequestID(r.Context()),
		GraphHash:  res.GraphHash,
		CacheHit:   res.CacheHit,
		DurationMs: res.Stats.LayoutTime.Milliseconds(),
		Layout:     res.Layout,
	})
}

// POST /v1/render?format=svg|png|dot|json
func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	g, opts, err := h.decode(w, r)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	opts.Format = r.URL.Query().Get("format")
	if err := opts.ValidateForRender(); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	if _, err := h.runner.Run(r.Context(), g, opts); err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	data, err := h.runner.Render(r.Context(), g, opts)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[opts.Format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /healthz
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatJSON: "application/json",
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*model.Graph, pipeline.Options, error) {
	cfg := h.loader.Config()
	if cfg.Server.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.Server.MaxBodyBytes)
	}

	var req LayoutRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, pipeline.Options{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON")
	}
	g, err := graph.ToModel(req.Graph)
	if err != nil {
		return nil, pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Params:         cfg.Layout,
		AssertAssigned: cfg.AssertAssigned,
		Refresh:        req.Refresh,
		Logger:         h.logger.With("request_id", RequestID(r.Context())),
	}
	if req.Params != nil {
		opts.Params = *req.Params
	}
	if req.AssertAssigned != nil {
		opts.AssertAssigned = *req.AssertAssigned
	}
	return g, opts, nil
}

func (h *Handler) timeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := time.Duration(h.loader.Config().Server.RequestTimeout)
		if d <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		middleware.Timeout(d)(next).ServeHTTP(w, r)
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidGraph, errors.ErrCodeUnplacedNode:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
