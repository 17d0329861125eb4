// Package simulate replays a retention policy over a synthetic series with
// one new item per day, for trying out policies before applying them.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mercator-hq/thinout/pkg/thinout"
	"mercator-hq/thinout/pkg/timeline"
)

// Config contains configuration for a simulation.
type Config struct {
	// Policy is the retention policy to replay.
	Policy thinout.Policy

	// Days is the number of days to simulate.
	Days int

	// Start is the date of the first item. Zero means today.
	Start time.Time

	// Scoring is the victim selection convention.
	Scoring thinout.Scoring

	// Persist drops removed items from the series, as a real deployment
	// deleting files would. Without it every day starts over from the full
	// series.
	Persist bool
}

// Frame is the state after thinning one simulated day.
type Frame struct {
	Day      int
	Date     time.Time
	Retained []thinout.Item
	Removed  []thinout.Item
	Overview timeline.Overview
}

// Run simulates cfg.Days days. For every day it adds one item, thins the
// series with the anchor set to the next day and passes the result to fn.
// Returning an error from fn stops the simulation with that error.
func Run(ctx context.Context, cfg Config, fn func(Frame) error) error {
	if cfg.Days < 0 {
		return fmt.Errorf("days must be non-negative, got %d", cfg.Days)
	}
	if err := cfg.Policy.Validate(); err != nil {
		return err
	}
	start := cfg.Start
	if start.IsZero() {
		start = time.Now()
	}
	start = thinout.Day(start)

	var series []thinout.Item
	for i := 0; i < cfg.Days; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		date := start.AddDate(0, 0, i)
		series = append(series, thinout.NewItem(date.Format(time.DateOnly), date))

		anchor := date.AddDate(0, 0, 1)
		eng, err := thinout.New(cfg.Policy, series,
			thinout.WithAnchor(anchor),
			thinout.WithScoring(cfg.Scoring),
		)
		if err != nil {
			return err
		}
		removed, err := eng.Drain()
		if err != nil {
			return fmt.Errorf("day %d: %w", i, err)
		}

		retained := eng.Items()
		if cfg.Persist {
			series = retained
		}

		frame := Frame{
			Day:      i,
			Date:     date,
			Retained: retained,
			Removed:  removed,
			Overview: timeline.Render(retained, removed, eng.Buckets(), anchor),
		}
		if err := fn(frame); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// ErrStop can be returned by a frame callback to end the simulation early
// without an error.
var ErrStop = errors.New("stop simulation")
