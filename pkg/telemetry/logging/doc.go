// Package logging configures the process-wide structured logger.
//
// Components obtain their logger with
//
//	slog.Default().With("component", "retention.runner")
//
// and log with the *Context variants. Run IDs, target names and the active
// trace span stored in the context are attached to every record:
//
//	ctx = logging.WithRunID(ctx, run.ID)
//	ctx = logging.WithTarget(ctx, target.Name)
//	logger.InfoContext(ctx, "run finished", "removed", n)
package logging
