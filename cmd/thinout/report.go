package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mercator-hq/thinout/pkg/cli"
	"mercator-hq/thinout/pkg/retention"
	"mercator-hq/thinout/pkg/thinout"
	"mercator-hq/thinout/pkg/timeline"
)

// itemReport is one file in a report.
type itemReport struct {
	Path   string `json:"path"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// Item statuses.
const (
	statusKept    = "kept"
	statusRemoved = "removed"
	statusPlanned = "would_remove"
	statusFailed  = "failed"
)

// targetReport is the outcome of thinning one target.
type targetReport struct {
	Target   string       `json:"target"`
	RunID    string       `json:"run_id,omitempty"`
	Anchor   string       `json:"anchor"`
	DryRun   bool         `json:"dry_run"`
	Retained int          `json:"retained"`
	Removed  int          `json:"removed"`
	Items    []itemReport `json:"items"`
	Error    string       `json:"error,omitempty"`

	overview     timeline.Overview
	showKept     bool
	showOverview bool
}

func newTargetReport(name string, r *retention.Result, err error) *targetReport {
	rep := &targetReport{Target: name}
	if err != nil {
		rep.Error = err.Error()
	}
	if r == nil {
		return rep
	}

	rep.RunID = r.RunID
	rep.Anchor = r.Anchor.Format(time.DateOnly)
	rep.DryRun = r.DryRun
	rep.Retained = len(r.Retained) + len(r.Failed)
	rep.Removed = len(r.Removed)
	rep.overview = r.Overview()

	removed := statusRemoved
	if r.DryRun {
		removed = statusPlanned
	}
	rep.add(r.Removed, removed)
	rep.add(r.Failed, statusFailed)
	rep.add(r.Retained, statusKept)
	return rep
}

func (r *targetReport) add(items []thinout.Item, status string) {
	for _, it := range items {
		r.Items = append(r.Items, itemReport{
			Path:   it.ID,
			Date:   it.Date.Format(time.DateOnly),
			Status: status,
		})
	}
}

func (r *targetReport) String() string {
	var b strings.Builder

	header := r.Target
	if r.DryRun {
		header += " (dry run)"
	}
	b.WriteString(cli.RenderHeader(header))
	b.WriteString("\n")

	if r.Error != "" {
		fmt.Fprintf(&b, "%s %s\n", cli.RenderDrop(cli.IconDrop), r.Error)
	}
	if r.Anchor == "" {
		return strings.TrimRight(b.String(), "\n")
	}

	for _, it := range r.Items {
		switch it.Status {
		case statusKept:
			if r.showKept {
				fmt.Fprintf(&b, "  %s %s  %s\n", cli.RenderKeep(cli.IconKeep), it.Date, it.Path)
			}
		case statusFailed:
			fmt.Fprintf(&b, "  %s %s  %s\n", cli.RenderWarn(cli.IconWarn), it.Date, it.Path)
		default:
			fmt.Fprintf(&b, "  %s %s  %s\n", cli.RenderDrop(cli.IconDrop), it.Date, it.Path)
		}
	}

	if r.showOverview {
		b.WriteString("\n")
		b.WriteString(renderOverview(r.overview))
		b.WriteString("\n")
	}

	verb := "removed"
	if r.DryRun {
		verb = "would remove"
	}
	fmt.Fprintf(&b, "%s %s, kept %s (anchor %s)",
		verb, cli.FormatCount(r.Removed), cli.FormatCount(r.Retained), r.Anchor)
	return b.String()
}

// runReport is the combined report of several targets.
type runReport struct {
	Targets []*targetReport `json:"targets"`
}

func (r *runReport) String() string {
	parts := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		parts[i] = t.String()
	}
	return strings.Join(parts, "\n\n")
}

func (r *runReport) Header() []string {
	return []string{"target", "path", "date", "status", "dry_run"}
}

func (r *runReport) Rows() [][]string {
	var rows [][]string
	for _, t := range r.Targets {
		for _, it := range t.Items {
			rows = append(rows, []string{t.Target, it.Path, it.Date, it.Status, strconv.FormatBool(t.DryRun)})
		}
	}
	return rows
}

// renderOverview colours the items row of an overview: removed days red,
// kept days green.
func renderOverview(o timeline.Overview) string {
	var b strings.Builder
	for _, r := range o.Items {
		switch r {
		case timeline.GlyphKept:
			b.WriteString(cli.RenderKeep(string(r)))
		case timeline.GlyphRemoved:
			b.WriteString(cli.RenderDrop(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString("\n")
	b.WriteString(cli.RenderMuted(o.Buckets))
	return b.String()
}
