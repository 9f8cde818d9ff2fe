// Package metrics exposes Prometheus metrics for tool dispatch, resolution
// and catalog rebuilds.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the engine.
type Metrics struct {
	registry *prometheus.Registry

	// Dispatch metrics
	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec

	// Resolution metrics
	ResolutionsTotal *prometheus.CounterVec

	// Indexing metrics
	ReindexRunsTotal   *prometheus.CounterVec
	ReindexDuration    prometheus.Histogram
	CatalogDescriptors prometheus.Gauge
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_executions_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_resolutions_total",
				Help: "Total number of tool resolutions by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		ReindexRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_reindex_runs_total",
				Help: "Total number of catalog rebuild runs",
			},
			[]string{"status"},
		),
		ReindexDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "catalog_reindex_duration_seconds",
				Help:    "Duration of catalog rebuilds in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		CatalogDescriptors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_descriptors",
				Help: "Number of descriptors published by the last rebuild",
			},
		),
	}

	registry.MustRegister(
		m.ToolExecutionsTotal,
		m.ToolExecutionDuration,
		m.ResolutionsTotal,
		m.ReindexRunsTotal,
		m.ReindexDuration,
		m.CatalogDescriptors,
	)

	return m
}

// ObserveExecution records one dispatch outcome.
func (m *Metrics) ObserveExecution(toolName string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.ToolExecutionsTotal.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// ObserveResolution records one resolution attempt.
func (m *Metrics) ObserveResolution(mode string, hit bool) {
	outcome := "hit"
	if !hit {
		outcome = "miss"
	}
	m.ResolutionsTotal.WithLabelValues(mode, outcome).Inc()
}

// ObserveReindex records one rebuild run.
func (m *Metrics) ObserveReindex(descriptors int, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.ReindexRunsTotal.WithLabelValues(status).Inc()
	m.ReindexDuration.Observe(duration.Seconds())
	if err == nil {
		m.CatalogDescriptors.Set(float64(descriptors))
	}
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
