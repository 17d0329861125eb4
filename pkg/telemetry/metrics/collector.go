package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/thinout/pkg/config"
)

// Run statuses used as the "status" label of runs_total.
const (
	StatusSuccess = "success"
	StatusDryRun  = "dry_run"
	StatusError   = "error"
)

// Collector owns the Prometheus registry and every thinout metric.
//
// A disabled collector accepts all calls and records nothing, so callers
// never need to check whether metrics are on.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	runMetrics *RunMetrics
}

// NewCollector creates a collector registering into registry. If registry is
// nil a fresh registry with Go runtime and process collectors is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "thinout"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:     cfg,
		registry:   registry,
		runMetrics: NewRunMetrics(cfg, registry),
	}
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRun records a finished retention run.
//
// Parameters:
//   - target: target name
//   - status: StatusSuccess, StatusDryRun or StatusError
//   - duration: wall time of the run
//   - removed: number of items removed (or planned for removal in a dry run)
//   - retained: number of items left in the target
func (c *Collector) RecordRun(target, status string, duration time.Duration, removed, retained int) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.RecordRun(target, status, duration, removed, retained)
}

// RecordRemoveFailure records an item that could not be removed.
func (c *Collector) RecordRemoveFailure(target string) {
	if !c.config.Enabled {
		return
	}
	c.runMetrics.removeFailures.WithLabelValues(target).Inc()
}
