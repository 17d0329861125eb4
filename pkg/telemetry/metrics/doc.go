// Package metrics exposes Prometheus metrics for retention runs.
//
// Items removed are only counted for real runs; a dry run increments
// runs_total{status="dry_run"} and updates items_retained with the planned
// result, but leaves items_removed_total untouched.
package metrics
