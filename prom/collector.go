// Package prom bridges the telemetry manager's health snapshot to Prometheus,
// so the process hosting the manager can expose its own operational metrics
// (active spans, pending export backlog) alongside application metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/swiftcms/telemetry"
)

// Collector exposes Manager health counts as Prometheus gauges. Register it
// on a registry served by promhttp; each scrape takes a fresh snapshot.
type Collector struct {
	manager *telemetry.Manager

	activeSpans    *prometheus.Desc
	pendingSpans   *prometheus.Desc
	pendingMetrics *prometheus.Desc
	samplingRate   *prometheus.Desc
	healthy        *prometheus.Desc
}

// NewCollector creates a collector over the given manager.
func NewCollector(m *telemetry.Manager) *Collector {
	exporterLabel := prometheus.Labels{"exporter": m.HealthStatus().Exporter}
	return &Collector{
		manager: m,
		activeSpans: prometheus.NewDesc(
			"telemetry_active_spans",
			"Number of spans started but not yet ended.",
			nil, exporterLabel,
		),
		pendingSpans: prometheus.NewDesc(
			"telemetry_pending_spans",
			"Number of completed spans waiting for the next export batch.",
			nil, exporterLabel,
		),
		pendingMetrics: prometheus.NewDesc(
			"telemetry_pending_metrics",
			"Number of metrics waiting for the next export batch.",
			nil, exporterLabel,
		),
		samplingRate: prometheus.NewDesc(
			"telemetry_sampling_rate",
			"Configured span sampling rate.",
			nil, exporterLabel,
		),
		healthy: prometheus.NewDesc(
			"telemetry_healthy",
			"Whether the telemetry pipeline reports healthy (1) or not (0).",
			nil, exporterLabel,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSpans
	ch <- c.pendingSpans
	ch <- c.pendingMetrics
	ch <- c.samplingRate
	ch <- c.healthy
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	hs := c.manager.HealthStatus()

	ch <- prometheus.MustNewConstMetric(c.activeSpans, prometheus.GaugeValue, float64(hs.ActiveSpans))
	ch <- prometheus.MustNewConstMetric(c.pendingSpans, prometheus.GaugeValue, float64(hs.PendingSpans))
	ch <- prometheus.MustNewConstMetric(c.pendingMetrics, prometheus.GaugeValue, float64(hs.PendingMetrics))
	ch <- prometheus.MustNewConstMetric(c.samplingRate, prometheus.GaugeValue, hs.SamplingRate)

	healthy := 0.0
	if hs.Healthy {
		healthy = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.healthy, prometheus.GaugeValue, healthy)
}
