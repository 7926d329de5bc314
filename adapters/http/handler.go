// Package http provides the HTTP transport for the method endpoint.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/scoreapi/adapters/metrics"
	"github.com/artpar/scoreapi/app"
	"github.com/artpar/scoreapi/domain/rpc"
	"github.com/artpar/scoreapi/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultMaxBodyBytes bounds the size of a method request body.
const DefaultMaxBodyBytes = 1 << 20

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// MethodHandler decodes method requests and writes their outcome.
type MethodHandler struct {
	service *app.MethodService
	logger  zerolog.Logger
	metrics *metrics.Collector
	maxBody int64
}

// NewMethodHandler creates a new HTTP method handler.
func NewMethodHandler(service *app.MethodService, logger zerolog.Logger) *MethodHandler {
	return &MethodHandler{
		service: service,
		logger:  logger,
		maxBody: DefaultMaxBodyBytes,
	}
}

// WithMetrics sets the metrics collector for the handler.
func (h *MethodHandler) WithMetrics(m *metrics.Collector) *MethodHandler {
	h.metrics = m
	return h
}

// WithMaxBodyBytes sets the request body limit. n <= 0 keeps the default.
func (h *MethodHandler) WithMaxBodyBytes(n int64) *MethodHandler {
	if n > 0 {
		h.maxBody = n
	}
	return h
}

// ServeHTTP handles POST /method.
func (h *MethodHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rctx := rpc.NewContext(middleware.GetReqID(r.Context()))

	body, err := h.decode(w, r)
	if err != nil {
		out := app.Outcome{Error: rpc.ErrBadRequest}
		h.logger.Debug().Err(err).Str("request_id", rctx.RequestID).Msg("undecodable request body")
		h.finish(w, r, rctx, out)
		return
	}

	out := h.service.Handle(r.Context(), body, rctx)
	h.finish(w, r, rctx, out)
}

// decode reads a single JSON object from the request body.
// Numbers are kept as json.Number so integers survive exactly.
func (h *MethodHandler) decode(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON document")
	}

	body, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("request body is not a JSON object")
	}
	return body, nil
}

func (h *MethodHandler) finish(w http.ResponseWriter, r *http.Request, rctx *rpc.Context, out app.Outcome) {
	var resp rpc.Response
	if out.Error != nil {
		resp = rpc.Failure(out.Error)
	} else {
		resp = rpc.Success(out.Response)
	}

	writeJSON(w, resp.Code, resp)
	h.log(r, rctx, out, resp)
	h.record(out)
}

func (h *MethodHandler) log(r *http.Request, rctx *rpc.Context, out app.Outcome, resp rpc.Response) {
	var event *zerolog.Event
	switch code := resp.Code; {
	case code >= 500:
		event = h.logger.Error()
	case code >= 400:
		event = h.logger.Warn()
	default:
		event = h.logger.Info()
	}

	event = event.
		Str("request_id", rctx.RequestID).
		Str("path", r.URL.Path).
		Str("method", out.Method).
		Int("code", resp.Code)
	if out.Error != nil {
		event = event.Str("error", out.Error.Message)
	} else {
		event = event.Interface("response", resp.Response)
	}
	if out.AuthFailure != "" {
		event = event.Str("auth_failure", out.AuthFailure)
	}
	rctx.Each(func(key string, value any) {
		event = event.Interface(key, value)
	})
	event.Msg("method request")
}

func (h *MethodHandler) record(out app.Outcome) {
	if h.metrics == nil {
		return
	}

	// Unregistered names are client-controlled, so they share one label.
	method := out.Method
	if !h.service.Known(method) {
		method = "unknown"
	}
	h.metrics.RequestsTotal.WithLabelValues(method, strconv.Itoa(out.Code())).Inc()

	if out.AuthFailure != "" {
		h.metrics.AuthFailures.WithLabelValues(out.AuthFailure).Inc()
	}
	if out.InvalidSchema != "" {
		h.metrics.ValidationFailures.WithLabelValues(out.InvalidSchema).Inc()
	}
}

// NotFound answers every unrouted path with a NOT_FOUND body.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, rpc.NotFound, rpc.Failure(rpc.ErrNotFound))
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	backend ports.HealthChecker
}

// NewHealthHandler creates a new health handler. backend may be nil.
func NewHealthHandler(backend ports.HealthChecker) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Liveness returns a simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings the store backend.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.backend != nil {
		if err := h.backend.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// VersionHandler returns a handler reporting version.
func VersionHandler(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{Version: version, Service: "scoreapi"})
	}
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler // defaults to promhttp.Handler() when Metrics is set
	MetricsPath    string       // defaults to /metrics
	IDs            ports.IDGenerator
	RateLimiter    *RateLimiter // optional per-client limit on /method
	Version        string
}

// NewRouter creates the main HTTP router.
func NewRouter(methodHandler *MethodHandler, healthHandler *HealthHandler, logger zerolog.Logger) chi.Router {
	return NewRouterWithConfig(methodHandler, healthHandler, logger, RouterConfig{})
}

// NewRouterWithConfig creates the main HTTP router with optional config.
func NewRouterWithConfig(methodHandler *MethodHandler, healthHandler *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// Middleware
	r.Use(NewRequestIDMiddleware(cfg.IDs))
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, metricsPath))
	r.Use(middleware.Recoverer)

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics, metricsPath))
	}

	// Health endpoints
	r.Get("/health", healthHandler.Liveness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	if cfg.MetricsHandler != nil {
		r.Handle(metricsPath, cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle(metricsPath, promhttp.Handler())
	}

	r.Get("/version", VersionHandler(cfg.Version))

	if cfg.RateLimiter != nil {
		r.With(cfg.RateLimiter.Handler).Post("/method", methodHandler.ServeHTTP)
	} else {
		r.Post("/method", methodHandler.ServeHTTP)
	}

	r.NotFound(NotFound)

	return r
}

// NewRequestIDMiddleware takes the request id from the X-Request-Id header
// or generates one. A caller-supplied id is echoed in the response.
func NewRequestIDMiddleware(ids ports.IDGenerator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(middleware.RequestIDHeader)
			if id != "" {
				w.Header().Set(middleware.RequestIDHeader, id)
			} else if ids != nil {
				id = ids.New()
			}
			ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewLoggingMiddleware creates a logging middleware using zerolog.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == metricsPath {
				return
			}

			logger.Debug().
				Str("http_method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == metricsPath {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			m.RequestDuration.
				WithLabelValues(routePattern(r), statusLabel(ww.Status())).
				Observe(time.Since(start).Seconds())
		})
	}
}

// routePattern returns the matched chi pattern, which keeps the path
// label bounded.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
