package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bankmesh"

// Login and transfer result labels.
const (
	ResultOK                = "ok"
	ResultRejected          = "rejected"
	ResultRecipientNotFound = "recipient_not_found"
	ResultSenderNotFound    = "sender_not_found"
	ResultInsufficient      = "insufficient_funds"
	ResultInvalidClass      = "invalid_class"
	ResultInvalidAmount     = "invalid_amount"
	ResultStorageError      = "storage_error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	LoginsTotal     *prometheus.CounterVec
	TransfersTotal  *prometheus.CounterVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DecryptFailures prometheus.Counter
	AcceptThrottled prometheus.Counter
}

// NewRegistry creates a registry with the Go and process collectors
// plus the bankmesh metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of client connections currently being served.",
		}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of accepted client connections.",
		}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		TransfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfer requests by result.",
		}, []string{"result"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Decrypted requests by kind.",
		}, []string{"kind"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a decrypted request.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"kind"}),
		DecryptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decrypt_failures_total",
			Help:      "Messages that could not be decrypted or were not valid UTF-8.",
		}),
		AcceptThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_throttled_total",
			Help:      "Accepted connections that had to wait on the accept rate limit.",
		}),
	}

	reg.MustRegister(
		r.SessionsActive,
		r.SessionsTotal,
		r.LoginsTotal,
		r.TransfersTotal,
		r.RequestsTotal,
		r.RequestDuration,
		r.DecryptFailures,
		r.AcceptThrottled,
	)
	return r
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler exposing this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registerer lets other components (the Badger store) add collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// SessionOpened records an accepted connection.
func (r *Registry) SessionOpened() {
	r.SessionsTotal.Inc()
	r.SessionsActive.Inc()
}

// SessionClosed records the end of a connection.
func (r *Registry) SessionClosed() {
	r.SessionsActive.Dec()
}

// RecordLogin counts a login attempt.
func (r *Registry) RecordLogin(ok bool) {
	result := ResultRejected
	if ok {
		result = ResultOK
	}
	r.LoginsTotal.WithLabelValues(result).Inc()
}

// RecordTransfer counts a transfer by result label.
func (r *Registry) RecordTransfer(result string) {
	r.TransfersTotal.WithLabelValues(result).Inc()
}

// ObserveRequest counts a request and records its handling time.
func (r *Registry) ObserveRequest(kind string, seconds float64) {
	r.RequestsTotal.WithLabelValues(kind).Inc()
	r.RequestDuration.WithLabelValues(kind).Observe(seconds)
}

// IncDecryptFailure counts an undecryptable message.
func (r *Registry) IncDecryptFailure() {
	r.DecryptFailures.Inc()
}

// IncAcceptThrottled counts an accept that waited on the limiter.
func (r *Registry) IncAcceptThrottled() {
	r.AcceptThrottled.Inc()
}
