package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/thinout/pkg/cli"
	"mercator-hq/thinout/pkg/journal"
	"mercator-hq/thinout/pkg/retention"
)

var planFlags struct {
	targets []string
	kept    bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a run would remove",
	Long: `Show, for every configured target, which files a run would remove and a
timeline of the result. Nothing is removed and nothing is written to the
journal.

The timeline has one column per day. In the items row "x" marks a day with a
kept file and "-" a day whose files would all be removed. The buckets row
marks each bucket start with "[" and shows its capacity.

Examples:
  # Plan every target
  thinout plan

  # Plan one target and list kept files too
  thinout plan --target backups --show-kept`,
	RunE: planTargets,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringSliceVarP(&planFlags.targets, "target", "t", nil, "target to plan (repeatable, default all)")
	planCmd.Flags().BoolVar(&planFlags.kept, "show-kept", false, "list kept files as well")
}

func planTargets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Telemetry.Logging); err != nil {
		return err
	}

	targets, err := selectTargets(cfg, planFlags.targets)
	if err != nil {
		return err
	}

	runner := retention.NewRunner(journal.NewMemoryStore(), nil, nil)
	results, runErr := runner.RunAll(cmd.Context(), targets, true)

	errs := make(map[string]error)
	for _, e := range unjoin(runErr) {
		errs[targetOf(e)] = e
	}

	report := &runReport{}
	for i, t := range targets {
		rep := newTargetReport(t.Name, results[i], errs[t.Name])
		rep.showKept = planFlags.kept
		rep.showOverview = true
		report.Targets = append(report.Targets, rep)
	}

	if err := printResult(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if runErr != nil {
		return cli.NewCommandError("plan", runErr)
	}
	return nil
}
