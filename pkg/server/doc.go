// Package server exposes thinout over HTTP.
//
// Endpoints:
//
//	GET  /health              liveness probe
//	GET  /ready               readiness probe (journal ping)
//	GET  /metrics             Prometheus metrics
//	GET  /runs                journal entries, newest first
//	GET  /runs/{id}           a single journal entry
//	GET  /targets             configured targets and their next run
//	POST /targets/{name}/run  run a target now; ?dry_run=true to plan only
//
// Every request gets an X-Request-ID and is logged on completion.
package server
