// Package retention applies thinning policies to configured targets.
//
// A Runner performs a single run of a target: it lists the target's files,
// thins them with the thinout engine, removes the victims from disk and
// records the run in the journal. Runs are traced and reported to the
// metrics collector.
//
// A Scheduler runs targets on their cron schedules:
//
//	runner := retention.NewRunner(store, collector, tracer)
//	sched := retention.NewScheduler(runner, store, cfg.Journal.KeepDays)
//	if err := sched.Start(ctx, cfg.Targets); err != nil {
//		return err
//	}
//	defer sched.Stop()
package retention
