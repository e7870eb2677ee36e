// Package metrics holds the Prometheus collectors for the trip service.
// A nil *Metrics is valid and records nothing, so tests can skip wiring it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	StoreOps       *prometheus.CounterVec
	StoreDuration  *prometheus.HistogramVec
	Fallbacks      *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	PhotoUploads   *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	RequestLatency prometheus.Histogram
}

// New registers the collectors on reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StoreOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store operations by backend, operation and result",
		}, []string{"backend", "operation", "result"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_seconds",
			Help:      "Time spent in primary store calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_total",
			Help:      "Operations served by the local fallback store",
		}, []string{"operation"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_cache_lookups_total",
			Help:      "Document cache hits and misses",
		}, []string{"result"}),
		PhotoUploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Photo upload attempts by result",
		}, []string{"result"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status",
		}, []string{"method", "status"}),
		RequestLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStore records one primary store call.
func (m *Metrics) ObserveStore(backend, op string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.StoreOps.WithLabelValues(backend, op, result(err)).Inc()
	m.StoreDuration.WithLabelValues(op).Observe(seconds)
}

// Fallback counts an operation diverted to the local store.
func (m *Metrics) Fallback(op string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(op).Inc()
}

// CacheHit counts a document cache lookup.
func (m *Metrics) CacheHit(hit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	m.CacheLookups.WithLabelValues(label).Inc()
}

// PhotoUpload counts one file upload attempt.
func (m *Metrics) PhotoUpload(ok bool) {
	if m == nil {
		return
	}
	label := "failed"
	if ok {
		label = "ok"
	}
	m.PhotoUploads.WithLabelValues(label).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, statusClass(status)).Inc()
	m.RequestLatency.Observe(seconds)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
