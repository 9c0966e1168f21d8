// Package metrics provides Prometheus collectors for DeveHub.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the application records to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPInFlight        prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRateLimited     prometheus.Counter

	LicensesIssued *prometheus.CounterVec
	Revenue        prometheus.Counter
	Refunds        *prometheus.CounterVec
	UsersDeleted   prometheus.Counter

	DeferredTasks *prometheus.CounterVec

	PayoutRuns        *prometheus.CounterVec
	PayoutTransitions *prometheus.CounterVec
	PayoutLastRunTime prometheus.Gauge
}

// New creates and registers all collectors under namespace.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"method", "route"}),
		HTTPRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),

		LicensesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "licenses",
			Name:      "issued_total",
			Help:      "Licenses issued by pricing tier.",
		}, []string{"tier"}),
		Revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "licenses",
			Name:      "revenue_cents_total",
			Help:      "Gross revenue from issued licenses in cents.",
		}),
		Refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "licenses",
			Name:      "refunds_total",
			Help:      "Refunds by initiator (purchaser or admin).",
		}, []string{"initiator"}),
		UsersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "users",
			Name:      "deleted_total",
			Help:      "Users removed by lifecycle deletion.",
		}),

		DeferredTasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deferred",
			Name:      "tasks_total",
			Help:      "Simulated-delay tasks by kind and outcome.",
		}, []string{"kind", "outcome"}),

		PayoutRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "cycle_runs_total",
			Help:      "Payout cycle runs by phase.",
		}, []string{"phase"}),
		PayoutTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "transitions_total",
			Help:      "License payout status transitions by target status.",
		}, []string{"to"}),
		PayoutLastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last payout cycle run.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPInFlight,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRateLimited,
		m.LicensesIssued,
		m.Revenue,
		m.Refunds,
		m.UsersDeleted,
		m.DeferredTasks,
		m.PayoutRuns,
		m.PayoutTransitions,
		m.PayoutLastRunTime,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLicenseIssued counts an issued license and its amount in cents.
func (m *Metrics) RecordLicenseIssued(tier string, cents int64) {
	if m == nil {
		return
	}
	m.LicensesIssued.WithLabelValues(tier).Inc()
	m.Revenue.Add(float64(cents))
}

// RecordRefund counts a refund by initiator.
func (m *Metrics) RecordRefund(initiator string) {
	if m == nil {
		return
	}
	m.Refunds.WithLabelValues(initiator).Inc()
}

// RecordUserDeleted counts a lifecycle deletion.
func (m *Metrics) RecordUserDeleted() {
	if m == nil {
		return
	}
	m.UsersDeleted.Inc()
}

// RecordDeferred counts a finished deferred task.
func (m *Metrics) RecordDeferred(kind, outcome string) {
	if m == nil {
		return
	}
	m.DeferredTasks.WithLabelValues(kind, outcome).Inc()
}

// RecordPayoutRun counts a payout cycle phase and its transitions.
func (m *Metrics) RecordPayoutRun(phase, to string, transitioned int) {
	if m == nil {
		return
	}
	m.PayoutRuns.WithLabelValues(phase).Inc()
	m.PayoutTransitions.WithLabelValues(to).Add(float64(transitioned))
	m.PayoutLastRunTime.SetToCurrentTime()
}

// RecordRateLimited counts a rejected request.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.HTTPRateLimited.Inc()
}

// InstrumentHandler records request count, latency and in-flight requests.
// Routes are labelled by chi route pattern to keep cardinality bounded.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
