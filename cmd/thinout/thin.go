package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/thinout/pkg/cli"
	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/source"
	"mercator-hq/thinout/pkg/thinout"
	"mercator-hq/thinout/pkg/timeline"
)

var thinFlags struct {
	policy     string
	pattern    string
	recursive  bool
	anchor     string
	scoring    string
	sizeWeight bool
	remove     bool
	overview   bool
}

var thinCmd = &cobra.Command{
	Use:   "thin DIR",
	Short: "Thin a directory without a config file",
	Long: `Thin the files in DIR with the given policy. Files are dated by the day of
their modification time.

By default the paths that would be removed are printed, one per line, and
nothing is deleted. Pass --delete to remove them.

The anchor is the end of the newest bucket; files dated on or after it are
kept. It defaults to tomorrow and accepts YYYY-MM-DD or expressions such as
"today" or "next monday".

Examples:
  # List snapshots that a 7:7,21:3,60:2 policy would drop
  thinout thin /var/snapshots --policy 7:7,21:3,60:2

  # Delete them
  thinout thin /var/snapshots --policy 7:7,21:3,60:2 --delete

  # Only consider tarballs, prefer dropping large ones
  thinout thin /var/backups --policy 4:4,15:5 --pattern '*.tar.gz' --size-weight`,
	Args: cobra.ExactArgs(1),
	RunE: thinDir,
}

func init() {
	rootCmd.AddCommand(thinCmd)

	thinCmd.Flags().StringVarP(&thinFlags.policy, "policy", "p", "", "retention policy, e.g. 4:4,15:5,40:4 (required)")
	thinCmd.Flags().StringVar(&thinFlags.pattern, "pattern", config.DefaultTargetPattern, "glob matched against file names")
	thinCmd.Flags().BoolVarP(&thinFlags.recursive, "recursive", "r", false, "descend into subdirectories")
	thinCmd.Flags().StringVar(&thinFlags.anchor, "anchor", "", "end of the newest bucket (default tomorrow)")
	thinCmd.Flags().StringVar(&thinFlags.scoring, "scoring", string(thinout.DefaultScoring), "victim scoring: product or ratio")
	thinCmd.Flags().BoolVar(&thinFlags.sizeWeight, "size-weight", false, "prefer removing large files")
	thinCmd.Flags().BoolVar(&thinFlags.remove, "delete", false, "delete the files instead of listing them")
	thinCmd.Flags().BoolVar(&thinFlags.overview, "overview", false, "print a timeline of the result")
	_ = thinCmd.MarkFlagRequired("policy")
}

// thinReport lists the files picked for removal by the thin command.
type thinReport struct {
	Dir     string       `json:"dir"`
	Anchor  string       `json:"anchor"`
	Deleted bool         `json:"deleted"`
	Removed []itemReport `json:"removed"`
	Kept    int          `json:"kept"`

	overview *timeline.Overview
}

func (r *thinReport) String() string {
	var out string
	for i, it := range r.Removed {
		if i > 0 {
			out += "\n"
		}
		out += it.Path
	}
	if r.overview != nil {
		if out != "" {
			out += "\n\n"
		}
		out += renderOverview(*r.overview)
	}
	return out
}

func (r *thinReport) Header() []string {
	return []string{"path", "date", "status"}
}

func (r *thinReport) Rows() [][]string {
	rows := make([][]string, len(r.Removed))
	for i, it := range r.Removed {
		rows[i] = []string{it.Path, it.Date, it.Status}
	}
	return rows
}

func thinDir(cmd *cobra.Command, args []string) error {
	if err := setupLogging(config.LoggingConfig{Level: config.DefaultLogLevel}); err != nil {
		return err
	}

	policy, err := thinout.ParsePolicy(thinFlags.policy)
	if err != nil {
		return cli.NewConfigError("--policy", err)
	}
	scoring, err := thinout.ParseScoring(thinFlags.scoring)
	if err != nil {
		return cli.NewConfigError("--scoring", err)
	}

	now := time.Now()
	opts := []thinout.Option{thinout.WithScoring(scoring)}
	anchor, err := cli.ParseAnchor(thinFlags.anchor, now)
	if err != nil {
		return cli.NewConfigError("--anchor", err)
	}
	if !anchor.IsZero() {
		opts = append(opts, thinout.WithAnchor(anchor))
	}

	src := &source.FileSource{Dir: args[0], Pattern: thinFlags.pattern, Recursive: thinFlags.recursive}
	files, err := src.List(cmd.Context())
	if err != nil {
		return cli.NewCommandError("thin", err)
	}
	weigher := source.WeigherFromConfig(config.WeightsConfig{Size: thinFlags.sizeWeight}, files)

	eng, err := thinout.New(policy, src.Items(files, weigher), opts...)
	if err != nil {
		return cli.NewConfigError("--policy", err)
	}
	victims, err := eng.Drain()
	if err != nil {
		return cli.NewCommandError("thin", fmt.Errorf("thinning %s: %w", args[0], err))
	}

	removed := victims
	var removeErr error
	if thinFlags.remove {
		removed, removeErr = source.NewRemover().Remove(cmd.Context(), victims, false)
	}

	report := &thinReport{
		Dir:     args[0],
		Anchor:  eng.Anchor().Format(time.DateOnly),
		Deleted: thinFlags.remove,
		Kept:    len(eng.Items()) + len(victims) - len(removed),
	}
	status := statusPlanned
	if thinFlags.remove {
		status = statusRemoved
	}
	for _, it := range removed {
		report.Removed = append(report.Removed, itemReport{
			Path:   it.ID,
			Date:   it.Date.Format(time.DateOnly),
			Status: status,
		})
	}
	if thinFlags.overview {
		o := timeline.Render(eng.Items(), victims, eng.Buckets(), eng.Anchor())
		report.overview = &o
	}

	if err := printResult(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if removeErr != nil {
		return cli.NewCommandError("thin", removeErr)
	}
	return nil
}
