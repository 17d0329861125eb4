package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/thinout/pkg/cli"
	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/journal"
	"mercator-hq/thinout/pkg/retention"
	"mercator-hq/thinout/pkg/server"
	"mercator-hq/thinout/pkg/telemetry/health"
	"mercator-hq/thinout/pkg/telemetry/metrics"
	"mercator-hq/thinout/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	noWatch       bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run scheduled targets and serve the HTTP API",
	Long: `Run every target that has a schedule on its cron schedule and serve
metrics, health probes and run history over HTTP.

The configuration file is watched and reloaded on change; SIGHUP forces a
reload. Invalid configurations are logged and the previous one stays in
effect. SIGINT or SIGTERM shut down gracefully, waiting for running jobs.

Examples:
  # Serve with the default config file
  thinout serve

  # Listen on all interfaces
  thinout serve --listen 0.0.0.0:9400`,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if err := setupLogging(cfg.Telemetry.Logging); err != nil {
		return err
	}
	logger := slog.Default().With("component", "serve")

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("serve", fmt.Errorf("tracing: %w", err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer store.Close()

	runner := retention.NewRunner(store, collector, tracer)
	scheduler := retention.NewScheduler(runner, store, cfg.Journal.KeepDays)
	if err := scheduler.Start(ctx, cfg.Targets); err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer scheduler.Stop()

	checker := health.New(0)
	checker.RegisterCheck("journal", store.Ping)
	checker.RegisterCheck("scheduler", func(context.Context) error {
		if !scheduler.IsRunning() {
			return errors.New("scheduler stopped")
		}
		return nil
	})

	onReload := func(c *config.Config) {
		if err := scheduler.Reload(c.Targets); err != nil {
			logger.Error("failed to apply reloaded config", "error", err)
		}
	}

	if !serveFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, slog.Default())
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(ctx, onReload); err != nil {
				logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	hup, stopHup := cli.ReloadSignals()
	defer stopHup()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				c, err := config.ReloadConfig(cfgFile)
				if err != nil {
					logger.Error("config reload failed", "error", err)
					continue
				}
				logger.Info("config reloaded", "targets", len(c.Targets))
				onReload(c)
			}
		}
	}()

	srv := server.NewServer(&cfg.Server, server.Dependencies{
		Store:       store,
		Runner:      runner,
		Scheduler:   scheduler,
		Metrics:     collector,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Health:      checker,
		Targets: func() []config.TargetConfig {
			return config.GetConfig().Targets
		},
	})

	logger.Info("thinout serving",
		"version", Version,
		"targets", len(cfg.Targets),
		"scheduled", len(scheduler.Targets()),
		"journal", cfg.Journal.Enabled,
		"metrics", cfg.Telemetry.Metrics.Enabled,
		"tracing", tracer.Enabled(),
	)

	return srv.Start(ctx)
}
