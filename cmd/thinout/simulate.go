package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/thinout/pkg/cli"
	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/simulate"
	"mercator-hq/thinout/pkg/thinout"
)

var simulateFlags struct {
	policy        string
	days          int
	start         string
	scoring       string
	deleteRemoved bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a policy over a synthetic daily series",
	Long: `Simulate a policy by adding one item per day and thinning after each day,
printing the timeline after every step.

Without --delete-removed every day thins the full series from scratch, which
shows the steady state of the policy. With it, removed items stay removed,
as they would when files are actually deleted.

Examples:
  # Eighty days of a three tier policy
  thinout simulate --policy 4:4,15:5,40:4 --days 80

  # Start on a fixed date and keep removals
  thinout simulate --policy 7:7,21:3 --start 2024-01-01 --delete-removed`,
	RunE: runSimulation,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateFlags.policy, "policy", "p", "", "retention policy, e.g. 4:4,15:5,40:4 (required)")
	simulateCmd.Flags().IntVarP(&simulateFlags.days, "days", "n", 80, "number of days to simulate")
	simulateCmd.Flags().StringVar(&simulateFlags.start, "start", "", "date of the first item (default today)")
	simulateCmd.Flags().StringVar(&simulateFlags.scoring, "scoring", string(thinout.DefaultScoring), "victim scoring: product or ratio")
	simulateCmd.Flags().BoolVar(&simulateFlags.deleteRemoved, "delete-removed", false, "drop removed items from the series")
	_ = simulateCmd.MarkFlagRequired("policy")
}

// frameReport is one simulated day.
type frameReport struct {
	Day      int      `json:"day"`
	Date     string   `json:"date"`
	Retained int      `json:"retained"`
	Removed  []string `json:"removed"`
	Items    string   `json:"items"`
	Buckets  string   `json:"buckets"`
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if err := setupLogging(config.LoggingConfig{Level: "warn"}); err != nil {
		return err
	}

	policy, err := thinout.ParsePolicy(simulateFlags.policy)
	if err != nil {
		return cli.NewConfigError("--policy", err)
	}
	scoring, err := thinout.ParseScoring(simulateFlags.scoring)
	if err != nil {
		return cli.NewConfigError("--scoring", err)
	}
	start, err := cli.ParseAnchor(simulateFlags.start, time.Now())
	if err != nil {
		return cli.NewConfigError("--start", err)
	}
	outFormat, err := cli.ParseOutputFormat(format)
	if err != nil {
		return err
	}

	cfg := simulate.Config{
		Policy:  policy,
		Days:    simulateFlags.days,
		Start:   start,
		Scoring: scoring,
		Persist: simulateFlags.deleteRemoved,
	}

	var frames []frameReport
	w := cmd.OutOrStdout()
	err = simulate.Run(cmd.Context(), cfg, func(f simulate.Frame) error {
		fr := frameReport{
			Day:      f.Day,
			Date:     f.Date.Format(time.DateOnly),
			Retained: len(f.Retained),
			Removed:  make([]string, len(f.Removed)),
			Items:    f.Overview.Items,
			Buckets:  f.Overview.Buckets,
		}
		for i, it := range f.Removed {
			fr.Removed[i] = it.ID
		}

		if outFormat == cli.FormatText {
			return printFrame(w, fr, f)
		}
		frames = append(frames, fr)
		return nil
	})
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	if outFormat == cli.FormatText {
		return nil
	}
	return printResult(w, simulationReport(frames))
}

func printFrame(w io.Writer, fr frameReport, f simulate.Frame) error {
	_, err := fmt.Fprintf(w, "%s %s  kept %d\n%s\n\n",
		cli.RenderMuted(fmt.Sprintf("day %3d", fr.Day)), fr.Date, fr.Retained, renderOverview(f.Overview))
	return err
}

// simulationReport is the frame list for JSON and CSV output.
type simulationReport []frameReport

func (r simulationReport) Header() []string {
	return []string{"day", "date", "retained", "removed", "items"}
}

func (r simulationReport) Rows() [][]string {
	rows := make([][]string, len(r))
	for i, f := range r {
		rows[i] = []string{
			fmt.Sprint(f.Day),
			f.Date,
			fmt.Sprint(f.Retained),
			fmt.Sprint(len(f.Removed)),
			f.Items,
		}
	}
	return rows
}
