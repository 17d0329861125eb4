// Package tracing provides OpenTelemetry tracing for retention runs.
//
// Each run is a "retention.run" span with child spans for listing items,
// thinning, removing files and recording the journal entry. Spans are
// exported over OTLP/gRPC:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    sampler: ratio
//	    sample_ratio: 0.25
//	    otlp:
//	      insecure: true
package tracing
