package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/thinout/pkg/cli"
)

// execute runs the root command with args and fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeBackups creates one file per date in a new directory and returns it.
func writeBackups(t *testing.T, dates ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, d := range dates {
		day, err := time.ParseInLocation(time.DateOnly, d, time.Local)
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, "db-"+d+".sql")
		if err := os.WriteFile(path, []byte(d), 0o644); err != nil {
			t.Fatal(err)
		}
		mtime := day.Add(12 * time.Hour)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thinout.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func targetConfig(t *testing.T, dir string) string {
	t.Helper()
	return writeConfigFile(t, fmt.Sprintf(`
targets:
  - name: db
    dir: %q
    pattern: "*.sql"
    policy: "3:1"
    anchor: "2024-01-10"
journal:
  enabled: true
  path: %q
`, dir, filepath.Join(t.TempDir(), "journal.db")))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "thinout "+Version) {
		t.Errorf("output = %q", out)
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "--config", targetConfig(t, t.TempDir()))
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out, "Configuration valid (1 targets)") || !strings.Contains(out, "policy 3:1 (3 days)") {
		t.Errorf("output = %q", out)
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	path := writeConfigFile(t, `
targets:
  - name: db
    dir: /tmp
    policy: "3:5"
`)
	_, err := execute(t, "validate", "--config", path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Errorf("exit code = %d, want %d", code, cli.ExitConfig)
	}
}

func TestThinCommand(t *testing.T) {
	dir := writeBackups(t, "2024-01-07", "2024-01-08", "2024-01-09")

	out, err := execute(t, "thin", dir, "--policy", "3:1", "--anchor", "2024-01-10")
	if err != nil {
		t.Fatalf("thin error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("listed %d paths, want 2: %q", len(lines), out)
	}
	if countFiles(t, dir) != 3 {
		t.Error("thin without --delete removed files")
	}

	if _, err := execute(t, "thin", dir, "--policy", "3:1", "--anchor", "2024-01-10", "--delete"); err != nil {
		t.Fatalf("thin --delete error = %v", err)
	}
	if n := countFiles(t, dir); n != 1 {
		t.Errorf("%d files left, want 1", n)
	}
}

func TestThinCommand_BadPolicy(t *testing.T) {
	_, err := execute(t, "thin", t.TempDir(), "--policy", "3:5")
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("error = %v, want config error", err)
	}
}

func TestSimulateCommand(t *testing.T) {
	out, err := execute(t, "simulate", "--policy", "2:1", "--days", "5", "--start", "2024-01-01")
	if err != nil {
		t.Fatalf("simulate error = %v", err)
	}
	if !strings.Contains(out, "day   4") || !strings.Contains(out, "2024-01-05") {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, "simulate", "--policy", "2:1", "--days", "5", "--start", "2024-01-01", "--format", "json")
	if err != nil {
		t.Fatalf("simulate --format json error = %v", err)
	}
	var frames []frameReport
	if err := json.Unmarshal([]byte(out), &frames); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(frames) != 5 {
		t.Errorf("got %d frames, want 5", len(frames))
	}
}

func TestRunPlanAndHistory(t *testing.T) {
	dir := writeBackups(t, "2024-01-07", "2024-01-08", "2024-01-09")
	cfgPath := targetConfig(t, dir)

	out, err := execute(t, "plan", "--config", cfgPath)
	if err != nil {
		t.Fatalf("plan error = %v", err)
	}
	if !strings.Contains(out, "would remove 2") {
		t.Errorf("plan output = %q", out)
	}
	if countFiles(t, dir) != 3 {
		t.Fatal("plan removed files")
	}

	out, err = execute(t, "run", "--config", cfgPath, "--format", "json")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	var report runReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode run report: %v\n%s", err, out)
	}
	if len(report.Targets) != 1 || report.Targets[0].Removed != 2 {
		t.Errorf("run report = %s", out)
	}
	if n := countFiles(t, dir); n != 1 {
		t.Errorf("%d files left, want 1", n)
	}

	out, err = execute(t, "history", "--config", cfgPath, "--format", "json")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	var history historyReport
	if err := json.Unmarshal([]byte(out), &history); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(history.Runs) != 1 || history.Runs[0].Target != "db" || len(history.Runs[0].Removed) != 2 {
		t.Errorf("history = %s", out)
	}

	out, err = execute(t, "history", "--config", cfgPath, "--format", "csv")
	if err != nil {
		t.Fatalf("history --format csv error = %v", err)
	}
	if !strings.HasPrefix(out, "id,target,started_at") {
		t.Errorf("csv output = %q", out)
	}
}

func TestRunCommand_UnknownTarget(t *testing.T) {
	_, err := execute(t, "run", "--config", targetConfig(t, t.TempDir()), "--target", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown target") {
		t.Errorf("error = %v, want unknown target", err)
	}
}

func TestRootCommand_BadFormat(t *testing.T) {
	if _, err := execute(t, "version", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
