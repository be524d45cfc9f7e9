// Package promexporter exposes client statistics to Prometheus.
package promexporter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter manages Prometheus metrics export
type Exporter struct {
	registry *prometheus.Registry
	workload *WorkloadMetrics
}

// NewExporter creates an exporter for the stats of source.
func NewExporter(source StatsSource) *Exporter {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewClientMetrics(source))

	return &Exporter{
		registry: registry,
		workload: NewWorkloadMetrics(registry),
	}
}

// WorkloadMetrics returns the workload metrics collector
func (e *Exporter) WorkloadMetrics() *WorkloadMetrics {
	return e.workload
}

func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns an HTTP handler for the /metrics endpoint
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// NewServer returns the metrics HTTP server, serving /metrics on addr.
func (e *Exporter) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
