package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/thinout/pkg/config"
	"mercator-hq/thinout/pkg/journal"
	"mercator-hq/thinout/pkg/retention"
	"mercator-hq/thinout/pkg/telemetry/health"
	"mercator-hq/thinout/pkg/telemetry/metrics"
)

func testTarget(t *testing.T) config.TargetConfig {
	t.Helper()

	dir := t.TempDir()
	for _, d := range []string{"2024-01-07", "2024-01-08", "2024-01-09"} {
		day, _ := time.Parse(time.DateOnly, d)
		path := filepath.Join(dir, d+".bak")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		mtime := day.Add(12 * time.Hour)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	return config.TargetConfig{
		Name:    "backups",
		Dir:     dir,
		Pattern: "*.bak",
		Policy:  config.Policy{{Span: 3, Capacity: 1}},
		Anchor:  "2024-01-10",
	}
}

func newTestServer(t *testing.T, store journal.Store, targets ...config.TargetConfig) *Server {
	t.Helper()

	runner := retention.NewRunner(store, nil, nil, retention.WithLocation(time.UTC))
	return NewServer(&config.ServerConfig{ListenAddress: "127.0.0.1:0"}, Dependencies{
		Store:   store,
		Runner:  runner,
		Metrics: metrics.NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry()),
		Targets: func() []config.TargetConfig { return targets },
	})
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	h := newTestServer(t, journal.NewMemoryStore()).Handler()

	rec := do(t, h, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}

	if rec := do(t, h, http.MethodGet, "/ready"); rec.Code != http.StatusOK {
		t.Errorf("GET /ready = %d, want 200", rec.Code)
	}
}

func TestServer_ReadyDegraded(t *testing.T) {
	checker := health.New(time.Second)
	checker.RegisterCheck("journal", func(context.Context) error { return errors.New("locked") })

	srv := NewServer(&config.ServerConfig{}, Dependencies{Store: journal.NewMemoryStore(), Health: checker})
	if rec := do(t, srv.Handler(), http.MethodGet, "/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /ready = %d, want 503", rec.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	h := newTestServer(t, journal.NewMemoryStore()).Handler()

	rec := do(t, h, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", rec.Code)
	}
}

func TestServer_RunTargetAndHistory(t *testing.T) {
	target := testTarget(t)
	store := journal.NewMemoryStore()
	h := newTestServer(t, store, target).Handler()

	rec := do(t, h, http.MethodPost, "/targets/backups/run?dry_run=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST run = %d: %s", rec.Code, rec.Body)
	}

	var result runResultResponse
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.DryRun || len(result.Removed) != 2 || result.Retained != 1 {
		t.Errorf("result = %+v, want dry run with 2 removed and 1 retained", result)
	}

	rec = do(t, h, http.MethodGet, "/runs?target=backups")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /runs = %d", rec.Code)
	}
	var runs runsResponse
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if runs.Count != 1 || runs.Runs[0].ID != result.RunID {
		t.Fatalf("runs = %+v, want the run just made", runs)
	}

	rec = do(t, h, http.MethodGet, "/runs/"+result.RunID)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /runs/{id} = %d, want 200", rec.Code)
	}
}

func TestServer_Errors(t *testing.T) {
	h := newTestServer(t, journal.NewMemoryStore(), testTarget(t)).Handler()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/runs/does-not-exist", http.StatusNotFound},
		{http.MethodGet, "/runs?limit=-1", http.StatusBadRequest},
		{http.MethodGet, "/runs?since=yesterday", http.StatusBadRequest},
		{http.MethodPost, "/targets/unknown/run", http.StatusNotFound},
		{http.MethodPost, "/targets/backups/run?dry_run=maybe", http.StatusBadRequest},
		{http.MethodGet, "/targets/backups/run", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if rec := do(t, h, tt.method, tt.path); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServer_ListTargets(t *testing.T) {
	h := newTestServer(t, journal.NewMemoryStore(), testTarget(t)).Handler()

	rec := do(t, h, http.MethodGet, "/targets")
	var targets []targetResponse
	if err := json.NewDecoder(rec.Body).Decode(&targets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(targets) != 1 || targets[0].Policy != "3:1" {
		t.Errorf("targets = %+v", targets)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := do(t, h, http.MethodGet, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal error") {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestRequestIDMiddleware_ReusesClientID(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc" || rec.Header().Get(RequestIDHeader) != "abc" {
		t.Errorf("request ID = %q / %q, want abc", seen, rec.Header().Get(RequestIDHeader))
	}
}

func TestServer_StartShutdown(t *testing.T) {
	srv := newTestServer(t, journal.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + srv.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("server still running after shutdown")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
