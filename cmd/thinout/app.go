package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"mercator-hq/thinout/pkg/cli"
	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/telemetry/logging"
)

// loadConfig loads the config file with environment overrides and installs
// it as the global configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// setupLogging installs the default logger. Logs go to stderr so that
// command output on stdout stays parseable.
func setupLogging(cfg config.LoggingConfig) error {
	if logLevel != "" {
		cfg.Level = logLevel
	}
	if verbose {
		cfg.Level = "debug"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}

	lc := logging.FromConfig(cfg)
	lc.Writer = os.Stderr
	if _, err := logging.Setup(lc); err != nil {
		return cli.NewConfigError("", fmt.Errorf("logging: %w", err))
	}
	return nil
}

// selectTargets returns the targets named in names, or every target when
// names is empty.
func selectTargets(cfg *config.Config, names []string) ([]config.TargetConfig, error) {
	if len(names) == 0 {
		return cfg.Targets, nil
	}

	targets := make([]config.TargetConfig, 0, len(names))
	for _, name := range names {
		t, ok := cfg.Target(name)
		if !ok {
			return nil, fmt.Errorf("unknown target %q", name)
		}
		if !slices.ContainsFunc(targets, func(c config.TargetConfig) bool { return c.Name == name }) {
			targets = append(targets, *t)
		}
	}
	return targets, nil
}

// printResult writes data in the selected output format.
func printResult(w io.Writer, data any) error {
	f, err := cli.ParseOutputFormat(format)
	if err != nil {
		return err
	}
	return cli.NewFormatter(f).FormatTo(w, data)
}
