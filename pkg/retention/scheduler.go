package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/journal"
)

// Scheduler runs targets on their cron schedules.
//
// Every target with a non-empty schedule gets its own cron entry. A run
// that is still in progress when its next tick fires is skipped. After each
// scheduled run, journal entries older than the keep period are pruned.
type Scheduler struct {
	runner   *Runner
	store    journal.Store
	keepDays int
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	ctx     context.Context
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a scheduler. keepDays <= 0 disables journal pruning.
func NewScheduler(runner *Runner, store journal.Store, keepDays int) *Scheduler {
	return &Scheduler{
		runner:   runner,
		store:    store,
		keepDays: keepDays,
		now:      time.Now,
		entries:  make(map[string]cron.EntryID),
		logger:   slog.Default().With("component", "retention.scheduler"),
	}
}

func (s *Scheduler) newCron() *cron.Cron {
	l := cronLogger{s.logger}
	return cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
}

// Start schedules targets and starts the cron loop. The scheduler stops
// when ctx is cancelled. Common schedules:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "@every 6h"    - Every 6 hours
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
//
// Targets without a schedule are ignored. An invalid schedule fails Start
// before anything is scheduled.
func (s *Scheduler) Start(ctx context.Context, targets []config.TargetConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	c, entries, err := s.schedule(ctx, targets)
	if err != nil {
		return err
	}

	s.cron = c
	s.entries = entries
	s.ctx = ctx
	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"targets", len(entries),
		"keep_days", s.keepDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// schedule builds a cron instance with one entry per scheduled target.
func (s *Scheduler) schedule(ctx context.Context, targets []config.TargetConfig) (*cron.Cron, map[string]cron.EntryID, error) {
	c := s.newCron()
	entries := make(map[string]cron.EntryID)

	for _, t := range targets {
		if t.Schedule == "" {
			continue
		}
		if _, err := cron.ParseStandard(t.Schedule); err != nil {
			return nil, nil, fmt.Errorf("target %s: invalid cron schedule %q: %w", t.Name, t.Schedule, err)
		}

		id, err := c.AddFunc(t.Schedule, func() {
			s.runTarget(ctx, t)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("target %s: failed to schedule run: %w", t.Name, err)
		}
		entries[t.Name] = id
	}
	return c, entries, nil
}

// Reload replaces the scheduled targets. Jobs already running finish under
// the old schedule. On error the previous schedule stays active.
func (s *Scheduler) Reload(targets []config.TargetConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("scheduler not running")
	}

	c, entries, err := s.schedule(s.ctx, targets)
	if err != nil {
		return err
	}

	old := s.cron
	s.cron = c
	s.entries = entries
	s.cron.Start()
	<-old.Stop().Done()

	s.logger.Info("retention schedule reloaded", "targets", len(entries))
	return nil
}

// runTarget executes one scheduled run.
func (s *Scheduler) runTarget(ctx context.Context, target config.TargetConfig) {
	s.logger.Info("starting scheduled run", "target", target.Name)

	if _, err := s.runner.Run(ctx, target, false); err != nil {
		s.logger.Error("scheduled run failed", "target", target.Name, "error", err)
	}

	s.pruneJournal(ctx)
}

// pruneJournal deletes journal entries older than the keep period.
func (s *Scheduler) pruneJournal(ctx context.Context) {
	if s.keepDays <= 0 || s.store == nil {
		return
	}

	cutoff := s.now().AddDate(0, 0, -s.keepDays)
	deleted, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("journal pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("journal pruned", "deleted_count", deleted, "cutoff", cutoff)
	} else {
		s.logger.Debug("journal pruning completed, no runs deleted")
	}
}

// Stop stops the scheduler and waits for any running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled run of target, or nil if the target is
// not scheduled.
func (s *Scheduler) NextRun(target string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	id, ok := s.entries[target]
	if !ok {
		return nil
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() || entry.Next.IsZero() {
		return nil
	}
	next := entry.Next
	return &next
}

// Targets returns the names of the scheduled targets.
func (s *Scheduler) Targets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	return names
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
