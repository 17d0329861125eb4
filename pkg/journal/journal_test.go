package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/thinout/pkg/config"
)

var t0 = time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)

func sampleRun(target string, started time.Time) *Run {
	r := NewRun(target, started)
	r.Anchor = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	r.Policy = "4:2,8:3"
	r.FinishedAt = started.Add(1500 * time.Millisecond)
	r.Retained = 5
	r.Removed = []Removal{
		{ItemID: "/b/1", Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), Order: 0},
		{ItemID: "/b/3", Date: time.Date(2024, 2, 22, 0, 0, 0, 0, time.UTC), Order: 1},
	}
	return r
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{"memory": NewMemoryStore()}
	for _, driver := range []string{DriverPure, DriverCGO} {
		s, err := NewSQLiteStore(&SQLiteConfig{
			Driver:      driver,
			Path:        filepath.Join(t.TempDir(), "journal.db"),
			WALMode:     true,
			BusyTimeout: time.Second,
		})
		if err != nil {
			t.Fatalf("NewSQLiteStore(%s) error = %v", driver, err)
		}
		out["sqlite/"+driver] = s
	}
	t.Cleanup(func() {
		for _, s := range out {
			s.Close()
		}
	})
	return out
}

func TestStore_RecordGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			run := sampleRun("db", t0)
			run.Error = "remove /b/3: permission denied"

			if err := s.Record(ctx, run); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			got, err := s.Get(ctx, run.ID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}

			if got.Target != "db" || got.Policy != "4:2,8:3" || got.Retained != 5 {
				t.Errorf("Get() = %+v", got)
			}
			if !got.Anchor.Equal(run.Anchor) {
				t.Errorf("Anchor = %v, want %v", got.Anchor, run.Anchor)
			}
			if !got.StartedAt.Equal(run.StartedAt) {
				t.Errorf("StartedAt = %v, want %v", got.StartedAt, run.StartedAt)
			}
			if got.Duration() != 1500*time.Millisecond {
				t.Errorf("Duration() = %v, want 1.5s", got.Duration())
			}
			if len(got.Removed) != 2 || got.Removed[1].ItemID != "/b/3" || got.Removed[1].Order != 1 {
				t.Errorf("Removed = %+v", got.Removed)
			}
			if !got.Failed() {
				t.Error("Failed() = false, want true")
			}

			// Record replaces an existing run.
			run.Retained = 9
			if err := s.Record(ctx, run); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
			got, _ = s.Get(ctx, run.ID)
			if got.Retained != 9 {
				t.Errorf("Retained after update = %d, want 9", got.Retained)
			}
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_List(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var ids []string
			for i := range 5 {
				target := "db"
				if i%2 == 1 {
					target = "logs"
				}
				r := sampleRun(target, t0.Add(time.Duration(i)*time.Hour))
				ids = append(ids, r.ID)
				if err := s.Record(ctx, r); err != nil {
					t.Fatalf("Record() error = %v", err)
				}
			}

			tests := []struct {
				name  string
				query *Query
				want  []string
			}{
				{name: "all newest first", query: nil, want: []string{ids[4], ids[3], ids[2], ids[1], ids[0]}},
				{name: "by target", query: &Query{Target: "db"}, want: []string{ids[4], ids[2], ids[0]}},
				{name: "since", query: &Query{Since: t0.Add(3 * time.Hour)}, want: []string{ids[4], ids[3]}},
				{name: "limit offset", query: &Query{Limit: 2, Offset: 1}, want: []string{ids[3], ids[2]}},
				{name: "offset past end", query: &Query{Offset: 10}, want: nil},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := s.List(ctx, tt.query)
					if err != nil {
						t.Fatalf("List() error = %v", err)
					}
					if len(got) != len(tt.want) {
						t.Fatalf("List() returned %d runs, want %d", len(got), len(tt.want))
					}
					for i := range got {
						if got[i].ID != tt.want[i] {
							t.Errorf("List()[%d] = %s, want %s", i, got[i].ID, tt.want[i])
						}
					}
				})
			}
		})
	}
}

func TestStore_Prune(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			old := sampleRun("db", t0.AddDate(0, 0, -30))
			recent := sampleRun("db", t0)
			for _, r := range []*Run{old, recent} {
				if err := s.Record(ctx, r); err != nil {
					t.Fatalf("Record() error = %v", err)
				}
			}

			n, err := s.Prune(ctx, t0.AddDate(0, 0, -7))
			if err != nil {
				t.Fatalf("Prune() error = %v", err)
			}
			if n != 1 {
				t.Errorf("Prune() = %d, want 1", n)
			}
			if _, err := s.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("old run still present: %v", err)
			}
			if _, err := s.Get(ctx, recent.ID); err != nil {
				t.Errorf("recent run missing: %v", err)
			}
			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestNewSQLiteStore_UnknownDriver(t *testing.T) {
	_, err := NewSQLiteStore(&SQLiteConfig{Driver: "postgres", Path: ":memory:"})
	var serr *StorageError
	if !errors.As(err, &serr) || serr.Operation != "open" {
		t.Errorf("NewSQLiteStore() error = %v, want open StorageError", err)
	}
}

func TestNewSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(&SQLiteConfig{Driver: DriverPure, Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	run := sampleRun("db", t0)
	if err := s.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(&SQLiteConfig{Driver: DriverPure, Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if _, err := s.Get(ctx, run.ID); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(config.JournalConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(disabled) = %T, want *MemoryStore", s)
	}

	s, err = Open(config.JournalConfig{
		Enabled: true,
		Driver:  DriverPure,
		Path:    filepath.Join(t.TempDir(), "j.db"),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Open(enabled) = %T, want *SQLiteStore", s)
	}
}
