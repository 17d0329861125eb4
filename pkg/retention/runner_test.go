package retention

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/journal"
	"mercator-hq/thinout/pkg/telemetry/metrics"
	"mercator-hq/thinout/pkg/telemetry/tracing"
)

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

// writeSnapshots creates one file per date in dir, modified at noon UTC of
// that date, and returns their paths in the same order.
func writeSnapshots(t *testing.T, dir string, dates ...string) []string {
	t.Helper()

	paths := make([]string, len(dates))
	for i, d := range dates {
		day, err := time.Parse(time.DateOnly, d)
		if err != nil {
			t.Fatalf("bad date %q: %v", d, err)
		}
		path := filepath.Join(dir, "snap-"+d+".tar")
		if err := os.WriteFile(path, []byte(d), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		mtime := day.Add(12 * time.Hour)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatalf("Chtimes() error = %v", err)
		}
		paths[i] = path
	}
	return paths
}

// snapshotTarget keeps one file in the three days before 2024-01-10.
func snapshotTarget(dir string) config.TargetConfig {
	return config.TargetConfig{
		Name:    "snapshots",
		Dir:     dir,
		Pattern: "*.tar",
		Policy:  config.Policy{{Span: 3, Capacity: 1}},
		Anchor:  "2024-01-10",
		Scoring: "product",
	}
}

func newTestRunner(store journal.Store, collector *metrics.Collector, tracer *tracing.Tracer) *Runner {
	return NewRunner(store, collector, tracer,
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
	)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	paths := writeSnapshots(t, dir, "2024-01-01", "2024-01-07", "2024-01-08", "2024-01-09", "2024-01-10")
	store := journal.NewMemoryStore()
	runner := newTestRunner(store, nil, nil)

	result, err := runner.Run(context.Background(), snapshotTarget(dir), false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Removed) != 2 {
		t.Fatalf("removed %d items, want 2", len(result.Removed))
	}
	if len(result.Retained) != 3 {
		t.Errorf("retained %d items, want 3", len(result.Retained))
	}
	if len(result.Failed) != 0 {
		t.Errorf("failed = %v, want none", result.Failed)
	}
	if !result.Anchor.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("anchor = %v, want 2024-01-10", result.Anchor)
	}

	for _, it := range result.Removed {
		if exists(it.ID) {
			t.Errorf("removed file %s still exists", it.ID)
		}
	}
	// Files outside every bucket are never touched.
	for _, p := range []string{paths[0], paths[4]} {
		if !exists(p) {
			t.Errorf("file %s outside the policy was removed", p)
		}
	}

	run, err := store.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if run.Failed() {
		t.Errorf("run recorded as failed: %s", run.Error)
	}
	if run.Policy != "3:1" {
		t.Errorf("policy = %q, want 3:1", run.Policy)
	}
	if run.Retained != 3 || len(run.Removed) != 2 {
		t.Errorf("journal retained=%d removed=%d, want 3 and 2", run.Retained, len(run.Removed))
	}
	for i, rm := range run.Removed {
		if rm.Order != i || rm.ItemID != result.Removed[i].ID {
			t.Errorf("removal %d = %+v, want %s in order", i, rm, result.Removed[i].ID)
		}
	}
}

func TestRunner_DryRun(t *testing.T) {
	tests := []struct {
		name         string
		dryRun       bool
		targetDryRun bool
	}{
		{name: "flag", dryRun: true},
		{name: "target setting", targetDryRun: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := writeSnapshots(t, dir, "2024-01-07", "2024-01-08", "2024-01-09")
			target := snapshotTarget(dir)
			target.DryRun = tt.targetDryRun

			store := journal.NewMemoryStore()
			result, err := newTestRunner(store, nil, nil).Run(context.Background(), target, tt.dryRun)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if !result.DryRun {
				t.Error("result not marked as dry run")
			}
			if len(result.Removed) != 2 {
				t.Errorf("would remove %d items, want 2", len(result.Removed))
			}
			for _, p := range paths {
				if !exists(p) {
					t.Errorf("dry run removed %s", p)
				}
			}

			run, err := store.Get(context.Background(), result.RunID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !run.DryRun {
				t.Error("journal run not marked as dry run")
			}
		})
	}
}

func TestRunner_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.TargetConfig)
	}{
		{
			name:   "unknown scoring",
			modify: func(c *config.TargetConfig) { c.Scoring = "sum" },
		},
		{
			name:   "invalid anchor",
			modify: func(c *config.TargetConfig) { c.Anchor = "tomorrow" },
		},
		{
			name:   "missing directory",
			modify: func(c *config.TargetConfig) { c.Dir = filepath.Join(c.Dir, "missing") },
		},
		{
			name:   "invalid policy",
			modify: func(c *config.TargetConfig) { c.Policy = config.Policy{{Span: 1, Capacity: 2}} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := writeSnapshots(t, dir, "2024-01-08", "2024-01-09")
			target := snapshotTarget(dir)
			tt.modify(&target)

			store := journal.NewMemoryStore()
			_, err := newTestRunner(store, nil, nil).Run(context.Background(), target, false)
			if err == nil {
				t.Fatal("expected error")
			}

			for _, p := range paths {
				if !exists(p) {
					t.Errorf("failed run removed %s", p)
				}
			}

			runs, err := store.List(context.Background(), nil)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(runs) != 1 || !runs[0].Failed() {
				t.Fatalf("expected one failed run in the journal, got %v", runs)
			}
		})
	}
}

func TestRunner_Metrics(t *testing.T) {
	dir := t.TempDir()
	writeSnapshots(t, dir, "2024-01-07", "2024-01-08", "2024-01-09")

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, registry)
	runner := newTestRunner(journal.NewMemoryStore(), collector, nil)

	if _, err := runner.Run(context.Background(), snapshotTarget(dir), false); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	expected := `
# HELP test_items_removed_total Total number of items removed by retention runs
# TYPE test_items_removed_total counter
test_items_removed_total{target="snapshots"} 2
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_items_removed_total"); err != nil {
		t.Error(err)
	}

	count, err := testutil.GatherAndCount(registry, "test_runs_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("runs_total series = %d, want 1", count)
	}
}

func TestRunner_Tracing(t *testing.T) {
	dir := t.TempDir()
	writeSnapshots(t, dir, "2024-01-08", "2024-01-09")

	exporter := tracetest.NewInMemoryExporter()
	tracer, err := tracing.NewWithExporter(&config.TracingConfig{
		Enabled:     true,
		Sampler:     "always",
		ServiceName: "thinout-test",
	}, "test", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	runner := newTestRunner(journal.NewMemoryStore(), nil, tracer)
	if _, err := runner.Run(context.Background(), snapshotTarget(dir), false); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := tracer.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush() error = %v", err)
	}

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	for _, want := range []string{"retention.run", "source.list", "thinout.drain", "source.remove"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing span %q in %v", want, names)
		}
	}
}

func TestRunner_RunAll(t *testing.T) {
	good := snapshotTarget(t.TempDir())
	writeSnapshots(t, good.Dir, "2024-01-07", "2024-01-08", "2024-01-09")

	bad := snapshotTarget(filepath.Join(t.TempDir(), "missing"))
	bad.Name = "missing"

	store := journal.NewMemoryStore()
	results, err := newTestRunner(store, nil, nil).RunAll(context.Background(), []config.TargetConfig{good, bad}, false)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0] == nil || len(results[0].Removed) != 2 {
		t.Errorf("good target result = %+v, want 2 removals", results[0])
	}
	if results[1] != nil {
		t.Errorf("missing target result = %+v, want nil", results[1])
	}
	if store.Len() != 2 {
		t.Errorf("journal has %d runs, want 2", store.Len())
	}
}

func TestRunner_ContextCancelled(t *testing.T) {
	dir := t.TempDir()
	writeSnapshots(t, dir, "2024-01-07", "2024-01-08", "2024-01-09")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner(journal.NewMemoryStore(), nil, nil).Run(ctx, snapshotTarget(dir), false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestResult_Overview(t *testing.T) {
	dir := t.TempDir()
	writeSnapshots(t, dir, "2024-01-07", "2024-01-08", "2024-01-09")

	result, err := newTestRunner(journal.NewMemoryStore(), nil, nil).Run(context.Background(), snapshotTarget(dir), true)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Overview().String() == "" {
		t.Error("empty overview")
	}
}

func TestRunner_RunAllTargetError(t *testing.T) {
	bad := snapshotTarget(filepath.Join(t.TempDir(), "missing"))

	_, err := newTestRunner(journal.NewMemoryStore(), nil, nil).RunAll(context.Background(), []config.TargetConfig{bad}, false)

	var te *TargetError
	if !errors.As(err, &te) {
		t.Fatalf("RunAll() error = %v, want *TargetError", err)
	}
	if te.Target != bad.Name {
		t.Errorf("TargetError.Target = %q, want %q", te.Target, bad.Name)
	}
}
