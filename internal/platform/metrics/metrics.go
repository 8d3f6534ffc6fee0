package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Result labels for operation counters.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	Registry     *prometheus.Registry
	Operations   *prometheus.CounterVec
	Accounts     prometheus.Gauge
	HTTPRequests *prometheus.CounterVec
	RateLimited  prometheus.Counter
}

// New creates the metrics and registers them on a fresh registry,
// together with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bank_operations_total",
			Help: "Account operations by kind and outcome",
		}, []string{"op", "result"}),
		Accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bank_accounts",
			Help: "Number of registered accounts",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "code"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),
	}
	reg.MustRegister(
		m.Operations,
		m.Accounts,
		m.HTTPRequests,
		m.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation counts one account operation; a nil error is "ok".
func (m *Metrics) ObserveOperation(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultRejected
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

// SetAccounts records the current number of accounts.
func (m *Metrics) SetAccounts(n int) {
	if m == nil {
		return
	}
	m.Accounts.Set(float64(n))
}
