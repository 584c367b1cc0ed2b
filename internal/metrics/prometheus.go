package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements Collector using client_golang counters and
// histograms. It registers against the default registry; an embedding
// program decides whether and how to expose it.
type PrometheusMetrics struct {
	sectionDuration *prometheus.HistogramVec
	sectionOutcome  *prometheus.CounterVec
	cycles          *prometheus.CounterVec
	totalErrors     prometheus.Gauge
	launchAttempts  *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics collector.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		sectionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oci_discovery_section_duration_seconds",
				Help:    "Duration of a discovery section extractor run",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"section"},
		),
		sectionOutcome: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oci_discovery_section_total",
				Help: "Total discovery section extractor runs by outcome",
			},
			[]string{"section", "outcome"},
		),
		cycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oci_provision_cycles_total",
				Help: "Total provisioning cycles by outcome",
			},
			[]string{"throttled"},
		),
		totalErrors: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "oci_provision_total_errors",
				Help: "Current cumulative error count across provisioning cycles",
			},
		),
		launchAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oci_provision_launch_attempts_total",
				Help: "Total per-AD launch attempts by classification token",
			},
			[]string{"ad", "token"},
		),
	}
}

// RecordSection implements Collector.RecordSection.
func (m *PrometheusMetrics) RecordSection(section string, ok bool, duration time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.sectionOutcome.With(prometheus.Labels{"section": section, "outcome": outcome}).Inc()
	m.sectionDuration.With(prometheus.Labels{"section": section}).Observe(duration.Seconds())
}

// RecordCycle implements Collector.RecordCycle.
func (m *PrometheusMetrics) RecordCycle(cycle int, throttled bool, totalErrors int) {
	m.cycles.With(prometheus.Labels{"throttled": strconv.FormatBool(throttled)}).Inc()
	m.totalErrors.Set(float64(totalErrors))
}

// RecordLaunchAttempt implements Collector.RecordLaunchAttempt.
func (m *PrometheusMetrics) RecordLaunchAttempt(ad int, token string) {
	m.launchAttempts.With(prometheus.Labels{"ad": strconv.Itoa(ad), "token": token}).Inc()
}
