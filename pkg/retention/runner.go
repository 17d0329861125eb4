package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/journal"
	"mercator-hq/thinout/pkg/source"
	"mercator-hq/thinout/pkg/telemetry/logging"
	"mercator-hq/thinout/pkg/telemetry/metrics"
	"mercator-hq/thinout/pkg/telemetry/tracing"
	"mercator-hq/thinout/pkg/thinout"
	"mercator-hq/thinout/pkg/timeline"
)

// maxParallelTargets bounds RunAll.
const maxParallelTargets = 4

// Result is the outcome of one run of a target.
type Result struct {
	RunID  string
	Target string
	Anchor time.Time
	DryRun bool

	// Retained are the items left after the run, oldest first.
	Retained []thinout.Item

	// Removed are the removed items in removal order. In a dry run these
	// are the items that would have been removed.
	Removed []thinout.Item

	// Failed are items the engine picked whose files could not be removed.
	Failed []thinout.Item

	// Buckets are the buckets after thinning.
	Buckets []thinout.Bucket
}

// Overview renders the result as a timeline.
func (r *Result) Overview() timeline.Overview {
	return timeline.Render(r.Retained, r.Removed, r.Buckets, r.Anchor)
}

// Runner thins configured targets: it lists their files, runs the engine,
// removes the victims, and records the run in the journal.
//
// Runs of the same target are serialized; different targets may run
// concurrently.
type Runner struct {
	store   journal.Store
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	remover *source.Remover
	now     func() time.Time
	loc     *time.Location
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock sets the clock used for run timestamps and the default anchor.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLocation sets the time zone that defines the civil date of a file.
func WithLocation(loc *time.Location) Option {
	return func(r *Runner) { r.loc = loc }
}

// WithRemover replaces the file remover.
func WithRemover(remover *source.Remover) Option {
	return func(r *Runner) { r.remover = remover }
}

// NewRunner creates a runner. A nil collector or tracer disables metrics or
// tracing.
func NewRunner(store journal.Store, collector *metrics.Collector, tracer *tracing.Tracer, opts ...Option) *Runner {
	if collector == nil {
		collector = metrics.NewCollector(&config.MetricsConfig{}, nil)
	}
	if tracer == nil {
		tracer = tracing.Noop()
	}

	r := &Runner{
		store:   store,
		metrics: collector,
		tracer:  tracer,
		remover: source.NewRemover(),
		now:     time.Now,
		logger:  slog.Default().With("component", "retention.runner"),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) lock(target string) func() {
	r.mu.Lock()
	l, ok := r.locks[target]
	if !ok {
		l = &sync.Mutex{}
		r.locks[target] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Run thins one target. A dry run is forced when either dryRun or the
// target's own dry_run setting is true.
//
// If the engine fails no file is touched. Files that cannot be removed are
// reported in Result.Failed and in the returned error; the run is still
// recorded.
func (r *Runner) Run(ctx context.Context, target config.TargetConfig, dryRun bool) (*Result, error) {
	defer r.lock(target.Name)()

	dryRun = dryRun || target.DryRun
	started := r.now()
	run := journal.NewRun(target.Name, started)
	run.DryRun = dryRun
	run.Policy = target.ThinoutPolicy().String()

	ctx = logging.WithRunID(ctx, run.ID)
	ctx = logging.WithTarget(ctx, target.Name)
	ctx, span := r.tracer.Start(ctx, "retention.run")
	defer span.End()

	result, err := r.thin(ctx, target, dryRun)
	if result != nil {
		run.Anchor = result.Anchor
		run.Retained = len(result.Retained) + len(result.Failed)
		run.Removed = make([]journal.Removal, len(result.Removed))
		for i, it := range result.Removed {
			run.Removed[i] = journal.Removal{ItemID: it.ID, Date: it.Date, Order: i}
		}
		result.RunID = run.ID
	}
	if err != nil {
		run.Error = err.Error()
	}
	run.FinishedAt = r.now()

	tracing.SetRunAttributes(span, target.Name, run.ID, run.Policy, run.Anchor, dryRun)
	tracing.SetResultAttributes(span, len(run.Removed), run.Retained)
	tracing.SetStatus(span, err)

	status := metrics.StatusSuccess
	switch {
	case err != nil:
		status = metrics.StatusError
	case dryRun:
		status = metrics.StatusDryRun
	}
	r.metrics.RecordRun(target.Name, status, run.Duration(), len(run.Removed), run.Retained)

	if rerr := r.store.Record(ctx, run); rerr != nil {
		r.logger.ErrorContext(ctx, "failed to record run", "error", rerr)
	}

	if err != nil {
		r.logger.ErrorContext(ctx, "run failed",
			"error", err,
			"removed", len(run.Removed),
			"duration", run.Duration(),
		)
		return result, err
	}

	r.logger.InfoContext(ctx, "run finished",
		"dry_run", dryRun,
		"removed", len(run.Removed),
		"retained", run.Retained,
		"duration", run.Duration(),
	)
	return result, nil
}

// thin lists, thins and removes. The returned result is nil only when no
// engine could be built.
func (r *Runner) thin(ctx context.Context, target config.TargetConfig, dryRun bool) (*Result, error) {
	scoring, err := thinout.ParseScoring(target.Scoring)
	if err != nil {
		return nil, err
	}
	anchor, err := target.AnchorDate()
	if err != nil {
		return nil, err
	}

	src := &source.FileSource{
		Dir:       target.Dir,
		Pattern:   target.Pattern,
		Recursive: target.Recursive,
		Location:  r.loc,
	}

	listCtx, listSpan := r.tracer.Start(ctx, "source.list")
	files, err := src.List(listCtx)
	tracing.SetStatus(listSpan, err)
	listSpan.End()
	if err != nil {
		return nil, err
	}
	items := src.Items(files, source.WeigherFromConfig(target.Weights, files))

	opts := []thinout.Option{
		thinout.WithScoring(scoring),
		thinout.WithClock(r.now),
		thinout.WithLogger(r.logger),
	}
	if !anchor.IsZero() {
		opts = append(opts, thinout.WithAnchor(anchor))
	}

	eng, err := thinout.New(target.ThinoutPolicy(), items, opts...)
	if err != nil {
		return nil, err
	}

	_, thinSpan := r.tracer.Start(ctx, "thinout.drain")
	victims, err := eng.Drain()
	tracing.SetStatus(thinSpan, err)
	thinSpan.End()

	result := &Result{
		Target:   target.Name,
		Anchor:   eng.Anchor(),
		DryRun:   dryRun,
		Retained: eng.Items(),
		Buckets:  eng.Buckets(),
	}
	if err != nil {
		// Nothing was removed from disk; every item is still there.
		result.Retained = items
		return result, fmt.Errorf("thinning %s: %w", target.Name, err)
	}

	remover := *r.remover
	remover.OnFailure = func(string, error) { r.metrics.RecordRemoveFailure(target.Name) }
	removeCtx, removeSpan := r.tracer.Start(ctx, "source.remove")
	removed, err := remover.Remove(removeCtx, victims, dryRun)
	tracing.SetStatus(removeSpan, err)
	removeSpan.End()

	result.Removed = removed
	if len(removed) < len(victims) {
		done := make(map[string]bool, len(removed))
		for _, it := range removed {
			done[it.ID] = true
		}
		for _, it := range victims {
			if !done[it.ID] {
				result.Failed = append(result.Failed, it)
			}
		}
	}
	return result, err
}

// RunAll runs every target, up to four at a time. Failures do not stop the
// other targets; each is wrapped in a *TargetError and joined into the
// returned error. Results are in target order and nil for targets that
// failed before thinning.
func (r *Runner) RunAll(ctx context.Context, targets []config.TargetConfig, dryRun bool) ([]*Result, error) {
	results := make([]*Result, len(targets))
	errs := make([]error, len(targets))

	var g errgroup.Group
	g.SetLimit(maxParallelTargets)
	for i, t := range targets {
		g.Go(func() error {
			res, err := r.Run(ctx, t, dryRun)
			results[i] = res
			if err != nil {
				errs[i] = &TargetError{Target: t.Name, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}
