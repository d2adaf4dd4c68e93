// Package metrics exposes Prometheus instrumentation for dispatch, chunking
// and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	DispatchRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_dispatch_runs_total",
		Help: "Dispatcher runs by mode and outcome.",
	}, []string{"mode", "outcome"})

	DispatchRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cadence_dispatch_run_duration_seconds",
		Help:    "Duration of dispatcher runs.",
		Buckets: prometheus.DefBuckets,
	})

	MessagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_messages_sent_total",
		Help: "Per-submission send attempts by status.",
	}, []string{"status"})

	DispatchSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_dispatch_skipped_total",
		Help: "Due submissions skipped after claiming, by reason.",
	}, []string{"reason"})

	CursorConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cadence_cursor_conflicts_total",
		Help: "Cursor advances rejected because another run moved the cursor.",
	})

	SubmissionsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_submissions_processed_total",
		Help: "Submissions run through chunking, by status.",
	}, []string{"status"})

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cadence_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cadence_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// MustRegister registers the package collectors with registerer once.
func MustRegister(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		registerer.MustRegister(
			DispatchRunsTotal,
			DispatchRunDuration,
			MessagesSentTotal,
			DispatchSkippedTotal,
			CursorConflictsTotal,
			SubmissionsProcessedTotal,
			httpRequestsTotal,
			httpRequestDuration,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency labelled by the chi route
// pattern, so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		labels := []string{r.Method, route, strconv.Itoa(status)}
		httpRequestsTotal.WithLabelValues(labels...).Inc()
		httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}
