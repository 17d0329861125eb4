package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/thinout/pkg/cli"
	"mercator-hq/thinout/pkg/journal"
)

var historyFlags struct {
	target string
	since  string
	limit  int
	offset int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	Long: `Show runs recorded in the journal, newest first.

Examples:
  # Last runs of every target
  thinout history

  # Runs of one target this year, as CSV
  thinout history --target backups --since 2024-01-01 --format csv`,
	RunE: showHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&historyFlags.target, "target", "t", "", "only show runs of this target")
	historyCmd.Flags().StringVar(&historyFlags.since, "since", "", "only show runs started on or after this date (YYYY-MM-DD or e.g. \"last week\")")
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "l", 20, "maximum number of runs")
	historyCmd.Flags().IntVar(&historyFlags.offset, "offset", 0, "number of runs to skip")
}

// historyReport is a page of journal runs.
type historyReport struct {
	Runs []*journal.Run `json:"runs"`

	now time.Time
}

func (r *historyReport) String() string {
	if len(r.Runs) == 0 {
		return cli.RenderMuted("no runs recorded")
	}

	var b strings.Builder
	for i, run := range r.Runs {
		if i > 0 {
			b.WriteString("\n")
		}

		icon := cli.RenderKeep(cli.IconKeep)
		if run.Failed() {
			icon = cli.RenderDrop(cli.IconDrop)
		}
		mode := ""
		if run.DryRun {
			mode = cli.RenderMuted(" dry run")
		}
		fmt.Fprintf(&b, "%s %-16s %s  removed %s, kept %s  %s%s",
			icon,
			run.Target,
			run.StartedAt.Local().Format(time.DateTime),
			cli.FormatCount(len(run.Removed)),
			cli.FormatCount(run.Retained),
			cli.RenderMuted(cli.FormatAge(run.StartedAt, r.now)),
			mode,
		)
		if run.Failed() {
			fmt.Fprintf(&b, "\n    %s", cli.RenderDrop(run.Error))
		}
	}
	return b.String()
}

func (r *historyReport) Header() []string {
	return []string{"id", "target", "started_at", "duration_ms", "dry_run", "removed", "retained", "error"}
}

func (r *historyReport) Rows() [][]string {
	rows := make([][]string, len(r.Runs))
	for i, run := range r.Runs {
		rows[i] = []string{
			run.ID,
			run.Target,
			run.StartedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(run.Duration().Milliseconds(), 10),
			strconv.FormatBool(run.DryRun),
			strconv.Itoa(len(run.Removed)),
			strconv.Itoa(run.Retained),
			run.Error,
		}
	}
	return rows
}

func showHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Telemetry.Logging); err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return cli.NewConfigError(cfgFile, fmt.Errorf("journal is not enabled"))
	}

	now := time.Now()
	query := &journal.Query{
		Target: historyFlags.target,
		Limit:  historyFlags.limit,
		Offset: historyFlags.offset,
	}
	if historyFlags.since != "" {
		since, err := cli.ParseAnchor(historyFlags.since, now)
		if err != nil {
			return cli.NewConfigError("--since", err)
		}
		query.Since = since
	}

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	return printResult(cmd.OutOrStdout(), &historyReport{Runs: runs, now: now})
}
