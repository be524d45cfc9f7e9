package promexporter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkloadMetrics records the operations of a load generator.
type WorkloadMetrics struct {
	opsTotal *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewWorkloadMetrics creates and registers the workload metrics
func NewWorkloadMetrics(registry prometheus.Registerer) *WorkloadMetrics {
	m := &WorkloadMetrics{
		opsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kv_workload_operations_total",
				Help: "Total number of workload operations",
			},
			[]string{"command", "status"}, // success, failed
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kv_workload_operation_duration_seconds",
				Help:    "Duration of workload operations",
				Buckets: prometheus.ExponentialBuckets(50e-6, 2, 16),
			},
			[]string{"command"},
		),
	}

	registry.MustRegister(m.opsTotal, m.latency)
	return m
}

// RecordOperation records an operation result
func (m *WorkloadMetrics) RecordOperation(command string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.opsTotal.WithLabelValues(command, status).Inc()
	m.latency.WithLabelValues(command).Observe(d.Seconds())
}
