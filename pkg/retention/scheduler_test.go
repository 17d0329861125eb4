package retention

import (
	"context"
	"testing"
	"time"

	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/journal"
)

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantEntry   bool
		wantError   bool
		wantRunning bool
	}{
		{
			name:        "valid daily schedule",
			schedule:    "0 3 * * *",
			wantEntry:   true,
			wantRunning: true,
		},
		{
			name:        "descriptor",
			schedule:    "@every 6h",
			wantEntry:   true,
			wantRunning: true,
		},
		{
			name:        "no schedule",
			schedule:    "",
			wantRunning: true,
		},
		{
			name:      "invalid schedule",
			schedule:  "invalid cron",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := journal.NewMemoryStore()
			scheduler := NewScheduler(newTestRunner(store, nil, nil), store, 0)

			target := snapshotTarget(t.TempDir())
			target.Schedule = tt.schedule

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := scheduler.Start(ctx, []config.TargetConfig{target})
			if (err != nil) != tt.wantError {
				t.Fatalf("Start() error = %v, wantError %v", err, tt.wantError)
			}
			defer scheduler.Stop()

			if scheduler.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", scheduler.IsRunning(), tt.wantRunning)
			}
			if next := scheduler.NextRun(target.Name); (next != nil) != tt.wantEntry {
				t.Errorf("NextRun() = %v, want entry %v", next, tt.wantEntry)
			}
		})
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	store := journal.NewMemoryStore()
	scheduler := NewScheduler(newTestRunner(store, nil, nil), store, 0)

	if err := scheduler.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer scheduler.Stop()

	if err := scheduler.Start(context.Background(), nil); err == nil {
		t.Error("expected error starting a running scheduler")
	}
}

func TestScheduler_RunsTarget(t *testing.T) {
	dir := t.TempDir()
	writeSnapshots(t, dir, "2024-01-07", "2024-01-08", "2024-01-09")
	target := snapshotTarget(dir)
	target.Schedule = "@every 1s"

	store := journal.NewMemoryStore()
	scheduler := NewScheduler(newTestRunner(store, nil, nil), store, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx, []config.TargetConfig{target}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer scheduler.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for store.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled run did not happen")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestScheduler_Reload(t *testing.T) {
	store := journal.NewMemoryStore()
	scheduler := NewScheduler(newTestRunner(store, nil, nil), store, 0)

	if err := scheduler.Reload(nil); err == nil {
		t.Error("expected error reloading a stopped scheduler")
	}

	a := snapshotTarget(t.TempDir())
	a.Name = "a"
	a.Schedule = "0 3 * * *"

	if err := scheduler.Start(context.Background(), []config.TargetConfig{a}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer scheduler.Stop()

	b := snapshotTarget(t.TempDir())
	b.Name = "b"
	b.Schedule = "0 4 * * *"

	if err := scheduler.Reload([]config.TargetConfig{b}); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if scheduler.NextRun("a") != nil {
		t.Error("target a still scheduled after reload")
	}
	if scheduler.NextRun("b") == nil {
		t.Error("target b not scheduled after reload")
	}

	bad := b
	bad.Schedule = "every day"
	if err := scheduler.Reload([]config.TargetConfig{bad}); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if scheduler.NextRun("b") == nil {
		t.Error("failed reload dropped the previous schedule")
	}
}

func TestScheduler_StopOnCancel(t *testing.T) {
	store := journal.NewMemoryStore()
	scheduler := NewScheduler(newTestRunner(store, nil, nil), store, 0)

	ctx, cancel := context.WithCancel(context.Background())
	if err := scheduler.Start(ctx, nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()

	deadline := time.Now().Add(time.Second)
	for scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_PruneJournal(t *testing.T) {
	ctx := context.Background()
	store := journal.NewMemoryStore()

	old := journal.NewRun("snapshots", testNow.AddDate(0, 0, -40))
	recent := journal.NewRun("snapshots", testNow.AddDate(0, 0, -5))
	for _, r := range []*journal.Run{old, recent} {
		if err := store.Record(ctx, r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	scheduler := NewScheduler(newTestRunner(store, nil, nil), store, 30)
	scheduler.now = func() time.Time { return testNow }
	scheduler.pruneJournal(ctx)

	if store.Len() != 1 {
		t.Fatalf("journal has %d runs, want 1", store.Len())
	}
	if _, err := store.Get(ctx, recent.ID); err != nil {
		t.Errorf("recent run pruned: %v", err)
	}
}
