package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/thinout/pkg/config"
)

// RunMetrics tracks retention runs.
//
// Metrics:
//   - thinout_runs_total: runs by target and status
//   - thinout_items_removed_total: items removed by target
//   - thinout_items_retained: items left after the last run of a target
//   - thinout_run_duration_seconds: run duration histogram
//   - thinout_remove_failures_total: items whose removal failed
type RunMetrics struct {
	runsTotal      *prometheus.CounterVec
	itemsRemoved   *prometheus.CounterVec
	itemsRetained  *prometheus.GaugeVec
	runDuration    *prometheus.HistogramVec
	removeFailures *prometheus.CounterVec
}

// NewRunMetrics creates and registers run metrics with the provided registry.
func NewRunMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total number of retention runs",
			},
			[]string{"target", "status"},
		),

		itemsRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "items_removed_total",
				Help:      "Total number of items removed by retention runs",
			},
			[]string{"target"},
		),

		itemsRetained: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "items_retained",
				Help:      "Number of items retained after the last run",
			},
			[]string{"target"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Duration of retention runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"target"},
		),

		removeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "remove_failures_total",
				Help:      "Total number of items that could not be removed",
			},
			[]string{"target"},
		),
	}

	registry.MustRegister(
		rm.runsTotal,
		rm.itemsRemoved,
		rm.itemsRetained,
		rm.runDuration,
		rm.removeFailures,
	)

	return rm
}

// RecordRun records the outcome of a single run.
func (rm *RunMetrics) RecordRun(target, status string, duration time.Duration, removed, retained int) {
	rm.runsTotal.WithLabelValues(target, status).Inc()
	rm.runDuration.WithLabelValues(target).Observe(duration.Seconds())
	if status == StatusError {
		return
	}
	if status == StatusSuccess {
		rm.itemsRemoved.WithLabelValues(target).Add(float64(removed))
	}
	rm.itemsRetained.WithLabelValues(target).Set(float64(retained))
}
