package main

import (
	"errors"

	"github.com/spf13/cobra"

	"mercator-hq/thinout/pkg/cli"
	"mercator-hq/thinout/pkg/journal"
	"mercator-hq/thinout/pkg/retention"
	"mercator-hq/thinout/pkg/telemetry/metrics"
)

var runFlags struct {
	targets []string
	dryRun  bool
	kept    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Thin configured targets once",
	Long: `Thin every configured target, or the targets given with --target, once.

Each run lists the target's files, removes the files the policy does not
keep and records the run in the journal when the journal is enabled.

Examples:
  # Thin every target
  thinout run

  # Thin one target without removing anything
  thinout run --target backups --dry-run

  # Machine-readable report
  thinout run --format json`,
	RunE: runTargets,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVarP(&runFlags.targets, "target", "t", nil, "target to run (repeatable, default all)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "report what would be removed without removing it")
	runCmd.Flags().BoolVar(&runFlags.kept, "show-kept", false, "list kept files as well")
}

func runTargets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Telemetry.Logging); err != nil {
		return err
	}

	targets, err := selectTargets(cfg, runFlags.targets)
	if err != nil {
		return err
	}

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer store.Close()

	runner := retention.NewRunner(store, metrics.NewCollector(&cfg.Telemetry.Metrics, nil), nil)
	results, runErr := runner.RunAll(cmd.Context(), targets, runFlags.dryRun)

	report := &runReport{}
	errs := make(map[string]error)
	for _, e := range unjoin(runErr) {
		errs[targetOf(e)] = e
	}
	for i, t := range targets {
		rep := newTargetReport(t.Name, results[i], errs[t.Name])
		rep.showKept = runFlags.kept
		report.Targets = append(report.Targets, rep)
	}

	if err := printResult(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if runErr != nil {
		return cli.NewCommandError("run", runErr)
	}
	return nil
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// targetOf finds the target a run error belongs to.
func targetOf(err error) string {
	var te *retention.TargetError
	if errors.As(err, &te) {
		return te.Target
	}
	return ""
}
