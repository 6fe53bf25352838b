// Package metrics provides Prometheus metrics collection for blogapi.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/artpar/blogapi/core/serializer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blogapi"

// Collector holds all Prometheus metrics for blogapi.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Serializer metrics
	FormatDuration   *prometheus.HistogramVec
	IncludedTotal    *prometheus.CounterVec
	RelationDuration *prometheus.HistogramVec
	RelationErrors   *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		FormatDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "serializer",
				Name:      "format_duration_seconds",
				Help:      "Time to build a compound document",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"type", "outcome"},
		),
		IncludedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "serializer",
				Name:      "included_resources_total",
				Help:      "Resources side-loaded into included",
			},
			[]string{"type"},
		),
		RelationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "serializer",
				Name:      "relation_duration_seconds",
				Help:      "Time to resolve one relation",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"type", "relation"},
		),
		RelationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "serializer",
				Name:      "relation_errors_total",
				Help:      "Relation resolutions that failed",
			},
			[]string{"type", "relation"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// FormatDone implements serializer.Observer.
func (c *Collector) FormatDone(resourceType string, d time.Duration, included int, err error) {
	c.FormatDuration.WithLabelValues(resourceType, outcome(err)).Observe(d.Seconds())
	if err == nil && included > 0 {
		c.IncludedTotal.WithLabelValues(resourceType).Add(float64(included))
	}
}

// RelationResolved implements serializer.Observer.
func (c *Collector) RelationResolved(resourceType, relation string, d time.Duration, err error) {
	c.RelationDuration.WithLabelValues(resourceType, relation).Observe(d.Seconds())
	if err != nil {
		c.RelationErrors.WithLabelValues(resourceType, relation).Inc()
	}
}

// RecordReload records the outcome of a config reload.
func (c *Collector) RecordReload(err error, at time.Time) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.Set(float64(at.Unix()))
}

// Middleware records request count, duration and in-flight requests.
// Routes are labelled by their chi pattern to bound cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		c.RequestsInFlight.Inc()
		defer c.RequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := StatusClass(ww.Status())
		route := RoutePattern(r)
		c.RequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

// RoutePattern returns the matched chi route pattern, or "unmatched".
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// StatusClass maps a status code to "2xx", "4xx", ... A zero status means
// nothing was written, which net/http sends as 200.
func StatusClass(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status/100) + "xx"
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ serializer.Observer = (*Collector)(nil)
