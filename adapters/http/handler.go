// Package http provides the HTTP adapter: the JSON:API read surface over
// the serializer catalog.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/blogapi/adapters/metrics"
	"github.com/artpar/blogapi/app"
	"github.com/artpar/blogapi/core/serializer"
	"github.com/artpar/blogapi/pkg/jsonapi"
	"github.com/artpar/blogapi/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ErrBadInclude is returned for a malformed include query parameter.
var ErrBadInclude = errors.New("malformed include parameter")

// Documents answers document queries. *app.Catalog implements it.
type Documents interface {
	Document(ctx context.Context, q app.Query) (jsonapi.Document, error)
}

// DocumentHandler serves documents for collection, resource and related
// resource URLs.
type DocumentHandler struct {
	docs    Documents
	baseURL string
	ids     ports.IDGenerator
	logger  zerolog.Logger
}

// NewDocumentHandler creates a document handler. An empty baseURL derives
// the link domain from each request.
func NewDocumentHandler(docs Documents, baseURL string, ids ports.IDGenerator, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		docs:    docs,
		baseURL: strings.TrimRight(baseURL, "/"),
		ids:     ids,
		logger:  logger,
	}
}

// Collection serves GET /{type}.
func (h *DocumentHandler) Collection(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, app.Query{Resource: chi.URLParam(r, "type")})
}

// Resource serves GET /{type}/{id}.
func (h *DocumentHandler) Resource(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, app.Query{
		Resource: chi.URLParam(r, "type"),
		ID:       chi.URLParam(r, "id"),
	})
}

// Related serves GET /{type}/{id}/{relation}.
func (h *DocumentHandler) Related(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, app.Query{
		Resource: chi.URLParam(r, "type"),
		ID:       chi.URLParam(r, "id"),
		Relation: chi.URLParam(r, "relation"),
	})
}

func (h *DocumentHandler) serve(w http.ResponseWriter, r *http.Request, q app.Query) {
	if !jsonapi.AcceptsDocument(r.Header.Get("Accept")) {
		h.writeError(w, jsonapi.ErrNotAcceptable("media type parameters are not supported on "+jsonapi.ContentType))
		return
	}

	include, err := ParseInclude(r.URL.Query())
	if err != nil {
		h.writeError(w, jsonapi.ErrInvalidParameter("include", err.Error()))
		return
	}

	domain := h.domain(r)
	q.Include = include
	q.Domain = domain
	q.Links = map[string]string{"self": domain + r.URL.RequestURI()}

	doc, err := h.docs.Document(r.Context(), q)
	if err != nil {
		h.fail(w, r, q, err)
		return
	}
	if err := jsonapi.WriteDocument(w, http.StatusOK, doc); err != nil {
		h.logger.Error().Err(err).Msg("write document")
	}
}

// fail maps a query error to a JSON:API error response.
func (h *DocumentHandler) fail(w http.ResponseWriter, r *http.Request, q app.Query, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		if q.ID != "" {
			h.writeError(w, jsonapi.ErrNotFoundWithID(q.Resource, q.ID))
		} else {
			h.writeError(w, jsonapi.ErrNotFound(q.Resource))
		}
	case errors.Is(err, app.ErrUnknownResource):
		h.writeError(w, jsonapi.ErrNotFound(q.Resource))
	case errors.Is(err, app.ErrUnknownRelation):
		h.writeError(w, jsonapi.NewError(http.StatusNotFound, "not_found", "Not Found").
			Detailf("%s has no relation %q", q.Resource, q.Relation).
			Build())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("document timed out")
		h.writeError(w, jsonapi.ErrServiceUnavailable("The document could not be built in time"))
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
		h.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("request cancelled")
	default:
		event := h.logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context()))
		var relErr *serializer.RelationError
		if errors.As(err, &relErr) {
			event = event.Str("type", relErr.Type).Str("relation", relErr.Relation)
		}
		event.Msg("format document")
		h.writeError(w, jsonapi.ErrInternal(""))
	}
}

func (h *DocumentHandler) writeError(w http.ResponseWriter, e jsonapi.Error) {
	if h.ids != nil {
		e.ID = h.ids.New()
	}
	if err := jsonapi.WriteError(w, e); err != nil {
		h.logger.Error().Err(err).Msg("write error document")
	}
}

// domain returns the configured base URL or scheme://host of r.
func (h *DocumentHandler) domain(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(fwd, ",")[0]))
	}
	return scheme + "://" + r.Host
}

// ParseInclude reads the comma separated include parameter. Repeated
// parameters are concatenated. Empty paths or path segments are rejected.
func ParseInclude(values map[string][]string) ([]string, error) {
	raw, ok := values["include"]
	if !ok {
		return nil, nil
	}
	var paths []string
	for _, v := range raw {
		if v == "" {
			continue
		}
		for _, path := range strings.Split(v, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				return nil, fmt.Errorf("%w: empty path in %q", ErrBadInclude, v)
			}
			for _, seg := range strings.Split(path, ".") {
				if seg == "" {
					return nil, fmt.Errorf("%w: empty segment in %q", ErrBadInclude, path)
				}
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Healthz returns a simple liveness check.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Namespace string
	BaseURL   string

	Metrics        *metrics.Collector
	MetricsPath    string       // default /metrics
	MetricsHandler http.Handler // default promhttp.Handler()

	IDs     ports.IDGenerator
	Timeout time.Duration // default 60s
}

// NewRouter creates the main HTTP router.
func NewRouter(docs Documents, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger, metricsPath))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		handler := cfg.MetricsHandler
		if handler == nil {
			handler = promhttp.Handler()
		}
		r.Handle(metricsPath, handler)
	}

	r.Get("/healthz", Healthz)

	h := NewDocumentHandler(docs, cfg.BaseURL, cfg.IDs, logger)
	routes := func(r chi.Router) {
		r.Get("/{type}", h.Collection)
		r.Get("/{type}/{id}", h.Resource)
		r.Get("/{type}/{id}/{relation}", h.Related)
	}

	if ns := strings.Trim(cfg.Namespace, "/"); ns != "" {
		r.Route("/"+ns, routes)
	} else {
		routes(r)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, jsonapi.NewError(http.StatusNotFound, "not_found", "Not Found").
			Detailf("No route for %s", r.URL.Path).
			Build())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonapi.WriteMethodNotAllowed(w, r.Method, []string{http.MethodGet})
	})

	return r
}

// NewLoggingMiddleware logs each request at debug level. Health and
// metrics requests are skipped.
func NewLoggingMiddleware(logger zerolog.Logger, metricsPath string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if r.URL.Path == "/healthz" || r.URL.Path == metricsPath {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
