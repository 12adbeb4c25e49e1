// Package metrics registers the server's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты операций для label "result"
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultExpired = "expired"
	ResultInvalid = "invalid"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry        *prometheus.Registry
	RequestDuration *prometheus.HistogramVec
	Logins          *prometheus.CounterVec
	Refreshes       *prometheus.CounterVec
	AuthFailures    *prometheus.CounterVec
	UsersCreated    prometheus.Counter
	TokensPurged    prometheus.Counter
}

// New creates and registers all Prometheus metrics in a dedicated registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_token_refreshes_total",
			Help: "Refresh token exchanges by result",
		}, []string{"result"}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_access_token_rejections_total",
			Help: "Rejected bearer tokens by reason",
		}, []string{"reason"}),
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_users_created_total",
			Help: "Total number of users created in the system",
		}),
		TokensPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_refresh_tokens_purged_total",
			Help: "Expired refresh tokens removed by the cleanup loop",
		}),
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one handled request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// IncLogin counts a login attempt
func (m *Metrics) IncLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// IncRefresh counts a refresh attempt
func (m *Metrics) IncRefresh(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

// IncAuthFailure counts a rejected access token
func (m *Metrics) IncAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

// AddTokensPurged adds n purged refresh tokens
func (m *Metrics) AddTokensPurged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TokensPurged.Add(float64(n))
}
