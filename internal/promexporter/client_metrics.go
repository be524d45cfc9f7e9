package promexporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/kvclient"
)

// StatsSource is implemented by *kvclient.Client.
type StatsSource interface {
	Stats() kvclient.ClientStats
	AllPoolStats() []kvclient.ServerPoolStats
}

// ClientMetrics exports the counters of a client, read at scrape time.
type ClientMetrics struct {
	source StatsSource

	requests       *prometheus.Desc
	batches        *prometheus.Desc
	pipelined      *prometheus.Desc
	responseErrors *prometheus.Desc
	errors         *prometheus.Desc

	// Circuit Breaker
	circuitState    *prometheus.Desc
	circuitRequests *prometheus.Desc
	circuitFailures *prometheus.Desc

	// Pool
	poolConnections *prometheus.Desc
	poolCreated     *prometheus.Desc
	poolDestroyed   *prometheus.Desc
	poolAcquires    *prometheus.Desc
	poolWaits       *prometheus.Desc
	poolWaitSeconds *prometheus.Desc
	poolErrors      *prometheus.Desc
}

var _ prometheus.Collector = (*ClientMetrics)(nil)

// NewClientMetrics creates the collector. Register it with a registry.
func NewClientMetrics(source StatsSource) *ClientMetrics {
	server := []string{"server"}

	return &ClientMetrics{
		source: source,

		requests:       prometheus.NewDesc("kv_client_requests_total", "Requests sent one at a time", nil, nil),
		batches:        prometheus.NewDesc("kv_client_batches_total", "Pipelined batches sent", nil, nil),
		pipelined:      prometheus.NewDesc("kv_client_pipelined_requests_total", "Requests sent within batches", nil, nil),
		responseErrors: prometheus.NewDesc("kv_client_response_errors_total", "Err responses received from servers", nil, nil),
		errors:         prometheus.NewDesc("kv_client_errors_total", "Calls that failed without a response", nil, nil),

		circuitState:    prometheus.NewDesc("kv_circuit_breaker_state", "Circuit breaker state (0=closed, 1=half-open, 2=open)", server, nil),
		circuitRequests: prometheus.NewDesc("kv_circuit_breaker_requests", "Number of requests tracked by circuit breaker", server, nil),
		circuitFailures: prometheus.NewDesc("kv_circuit_breaker_failures", "Circuit breaker failure counts", []string{"server", "type"}, nil),

		poolConnections: prometheus.NewDesc("kv_pool_connections", "Connection pool statistics", []string{"server", "state"}, nil),
		poolCreated:     prometheus.NewDesc("kv_pool_connections_created_total", "Total connections created", server, nil),
		poolDestroyed:   prometheus.NewDesc("kv_pool_connections_destroyed_total", "Total connections destroyed", server, nil),
		poolAcquires:    prometheus.NewDesc("kv_pool_acquires_total", "Connection acquire attempts", server, nil),
		poolWaits:       prometheus.NewDesc("kv_pool_acquire_waits_total", "Acquires that waited for a connection", server, nil),
		poolWaitSeconds: prometheus.NewDesc("kv_pool_acquire_wait_seconds_total", "Time spent waiting for a connection", server, nil),
		poolErrors:      prometheus.NewDesc("kv_pool_acquire_errors_total", "Failed connection acquires", server, nil),
	}
}

func (m *ClientMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		m.requests, m.batches, m.pipelined, m.responseErrors, m.errors,
		m.circuitState, m.circuitRequests, m.circuitFailures,
		m.poolConnections, m.poolCreated, m.poolDestroyed, m.poolAcquires,
		m.poolWaits, m.poolWaitSeconds, m.poolErrors,
	} {
		ch <- d
	}
}

func (m *ClientMetrics) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}

	stats := m.source.Stats()
	counter(m.requests, stats.Requests)
	counter(m.batches, stats.Batches)
	counter(m.pipelined, stats.PipelinedRequests)
	counter(m.responseErrors, stats.ResponseErrors)
	counter(m.errors, stats.Errors)

	for _, s := range m.source.AllPoolStats() {
		server := s.Addr

		gauge(m.poolConnections, float64(s.PoolStats.TotalConns), server, "total")
		gauge(m.poolConnections, float64(s.PoolStats.ActiveConns), server, "active")
		gauge(m.poolConnections, float64(s.PoolStats.IdleConns), server, "idle")
		counter(m.poolCreated, s.PoolStats.CreatedConns, server)
		counter(m.poolDestroyed, s.PoolStats.DestroyedConns, server)
		counter(m.poolAcquires, s.PoolStats.AcquireCount, server)
		counter(m.poolWaits, s.PoolStats.AcquireWaitCount, server)
		ch <- prometheus.MustNewConstMetric(m.poolWaitSeconds, prometheus.CounterValue, float64(s.PoolStats.AcquireWaitTimeNs)/1e9, server)
		counter(m.poolErrors, s.PoolStats.AcquireErrors, server)

		gauge(m.circuitState, circuitStateValue(s.CircuitBreakerState), server)
		gauge(m.circuitRequests, float64(s.CircuitBreakerCounts.Requests), server)
		gauge(m.circuitFailures, float64(s.CircuitBreakerCounts.TotalFailures), server, "total")
		gauge(m.circuitFailures, float64(s.CircuitBreakerCounts.ConsecutiveFailures), server, "consecutive")
	}
}

func circuitStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
