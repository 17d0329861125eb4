package tracing

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys of retention spans.
const (
	AttrTarget   = "thinout.target"
	AttrRunID    = "thinout.run_id"
	AttrPolicy   = "thinout.policy"
	AttrAnchor   = "thinout.anchor"
	AttrScoring  = "thinout.scoring"
	AttrDryRun   = "thinout.dry_run"
	AttrItems    = "thinout.items"
	AttrRemoved  = "thinout.removed"
	AttrRetained = "thinout.retained"
)

// SetRunAttributes sets the inputs of a retention run on span.
func SetRunAttributes(span trace.Span, target, runID, policy string, anchor time.Time, dryRun bool) {
	span.SetAttributes(
		attribute.String(AttrTarget, target),
		attribute.String(AttrRunID, runID),
		attribute.String(AttrPolicy, policy),
		attribute.String(AttrAnchor, anchor.Format(time.DateOnly)),
		attribute.Bool(AttrDryRun, dryRun),
	)
}

// SetResultAttributes sets the outcome of a retention run on span.
func SetResultAttributes(span trace.Span, removed, retained int) {
	span.SetAttributes(
		attribute.Int(AttrRemoved, removed),
		attribute.Int(AttrRetained, retained),
	)
}
