package thinout

import (
	"iter"
	"log/slog"
	"slices"
	"time"
)

// Option configures an Engine.
type Option func(*Engine)

// WithAnchor sets the end date of the newest bucket. Items dated on or
// after the anchor are outside every bucket and never removed.
func WithAnchor(anchor time.Time) Option {
	return func(e *Engine) {
		e.anchor = Day(anchor)
		e.anchorSet = true
	}
}

// WithScoring sets the scoring convention of the victim selector.
func WithScoring(scoring Scoring) Option {
	return func(e *Engine) {
		e.selector = NewSelector(scoring)
	}
}

// WithClock sets the clock used to derive the default anchor.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger used for per-removal debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine thins a sequence of items down to a policy, one removal at a time.
//
// It is a pull iterator in the style of bufio.Scanner:
//
//	eng, err := thinout.New(policy, items)
//	if err != nil {
//		return err
//	}
//	for eng.Next() {
//		fmt.Println(eng.Removed().ID)
//	}
//	if err := eng.Err(); err != nil {
//		return err
//	}
//
// An Engine owns its item sequence, is not safe for concurrent use and
// cannot be restarted. Stopping early leaves a valid, partially thinned
// state that can be inspected with Items and Buckets.
type Engine struct {
	items    []Item
	buckets  []Bucket
	selector Selector
	logger   *slog.Logger

	now       func() time.Time
	anchor    time.Time
	anchorSet bool

	removed Item
	count   int
	done    bool
	err     error
}

// New creates an engine over a sorted copy of items. The default anchor is
// tomorrow, so an item dated today falls into the newest bucket.
//
// New fails with a *PolicyError if the policy is invalid; no item is
// inspected in that case.
func New(policy Policy, items []Item, opts ...Option) (*Engine, error) {
	e := &Engine{
		selector: NewSelector(DefaultScoring),
		logger:   slog.Default().With("component", "thinout.engine"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.anchorSet {
		e.anchor = Day(e.now()).AddDate(0, 0, 1)
	}

	buckets, err := policy.Compile(e.anchor)
	if err != nil {
		return nil, err
	}

	e.items = make([]Item, len(items))
	for i, it := range items {
		it.Date = Day(it.Date)
		e.items[i] = it
	}
	slices.SortStableFunc(e.items, func(a, b Item) int {
		return a.Date.Compare(b.Date)
	})
	e.buckets = Reindex(e.items, buckets)

	return e, nil
}

// Next removes the next victim. It returns false once every bucket is
// within capacity or an error occurred; see Err.
func (e *Engine) Next() bool {
	if e.done {
		return false
	}

	for _, b := range e.buckets {
		if !b.TooMany() {
			continue
		}

		idx, err := e.selector.Select(e.items, b)
		if err != nil {
			e.err = err
			e.done = true
			return false
		}

		e.removed = e.items[idx]
		e.items = slices.Delete(e.items, idx, idx+1)
		e.buckets = Reindex(e.items, e.buckets)
		e.count++

		e.logger.Debug("item removed",
			"item", e.removed.ID,
			"date", e.removed.Date.Format(time.DateOnly),
			"bucket_begin", b.Begin.Format(time.DateOnly),
			"bucket_end", b.End.Format(time.DateOnly),
			"bucket_len", b.Len(),
			"capacity", b.Capacity,
		)
		return true
	}

	e.done = true
	return false
}

// Removed returns the item removed by the last successful call to Next.
func (e *Engine) Removed() Item {
	return e.removed
}

// Err returns the error that stopped the engine, if any.
func (e *Engine) Err() error {
	return e.err
}

// All returns an iterator over the remaining removals. Check Err after the
// loop ends.
func (e *Engine) All() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for e.Next() {
			if !yield(e.removed) {
				return
			}
		}
	}
}

// Drain runs the engine to completion and returns the removed items in
// removal order. Items removed before an error are returned with it.
func (e *Engine) Drain() ([]Item, error) {
	var removed []Item
	for e.Next() {
		removed = append(removed, e.removed)
	}
	return removed, e.err
}

// Items returns a copy of the items currently retained, oldest first.
func (e *Engine) Items() []Item {
	return slices.Clone(e.items)
}

// Buckets returns a snapshot of the buckets with their current index ranges.
func (e *Engine) Buckets() []Bucket {
	return slices.Clone(e.buckets)
}

// Anchor returns the end date of the newest bucket.
func (e *Engine) Anchor() time.Time {
	return e.anchor
}

// RemovedCount returns the number of items removed so far.
func (e *Engine) RemovedCount() int {
	return e.count
}

// Compliant reports whether every bucket is within capacity.
func (e *Engine) Compliant() bool {
	for _, b := range e.buckets {
		if b.TooMany() {
			return false
		}
	}
	return true
}

// Thin is a convenience wrapper that runs a new engine to completion and
// returns the retained and removed items.
func Thin(policy Policy, items []Item, opts ...Option) (retained, removed []Item, err error) {
	e, err := New(policy, items, opts...)
	if err != nil {
		return nil, nil, err
	}
	removed, err = e.Drain()
	return e.Items(), removed, err
}
