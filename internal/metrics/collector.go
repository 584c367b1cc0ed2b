// Package metrics records discovery and provisioning outcomes. It never
// gates core logic on Prometheus being present: the NoopCollector is the
// default, and no HTTP server exposes the registry from this package.
package metrics

import (
	"time"

	"github.com/threatflux/libgo/pkg/logger"
)

// Collector records discovery and provisioning outcomes.
type Collector interface {
	// RecordSection records a discovery section extractor's outcome.
	RecordSection(section string, ok bool, duration time.Duration)

	// RecordCycle records one provisioning cycle's outcome.
	RecordCycle(cycle int, throttled bool, totalErrors int)

	// RecordLaunchAttempt records a single per-AD launch attempt.
	RecordLaunchAttempt(ad int, token string)
}

// New creates a Collector, defaulting to a no-op implementation when impl
// is not recognized.
func New(impl string, log logger.Logger) Collector {
	switch impl {
	case "prometheus":
		return NewPrometheusMetrics()
	default:
		return &NoopCollector{}
	}
}

// NoopCollector discards all recordings.
type NoopCollector struct{}

func (n *NoopCollector) RecordSection(section string, ok bool, duration time.Duration) {}
func (n *NoopCollector) RecordCycle(cycle int, throttled bool, totalErrors int)         {}
func (n *NoopCollector) RecordLaunchAttempt(ad int, token string)                       {}
