// Package telemetry groups the observability packages of thinout.
//
//   - logging: slog setup with run, target and trace fields from the context
//   - metrics: Prometheus metrics for retention runs
//   - tracing: OpenTelemetry spans exported over OTLP or to stdout
//   - health: liveness and readiness probes for serve mode
package telemetry
