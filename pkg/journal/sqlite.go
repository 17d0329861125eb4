package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/thinout/pkg/config"
)

// SQLite driver names.
const (
	// DriverCGO is github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPure is modernc.org/sqlite.
	DriverPure = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite store.
type SQLiteConfig struct {
	// Driver is DriverCGO or DriverPure.
	Driver string

	// Path is the database file path. ":memory:" opens a private
	// in-memory database.
	Path string

	// WALMode enables write-ahead logging.
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	BusyTimeout time.Duration
}

// SQLiteStore implements Store on top of SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (and if needed creates) the journal database.
func NewSQLiteStore(cfg *SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverPure
	}
	if cfg.Driver != DriverCGO && cfg.Driver != DriverPure {
		return nil, NewStorageError(cfg.Driver, "open", fmt.Errorf("unknown driver %q", cfg.Driver))
	}

	logger := slog.Default().With("component", "journal.sqlite")

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, NewStorageError(cfg.Driver, "mkdir", err)
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, NewStorageError(cfg.Driver, "open", err)
	}
	// A single connection keeps pragmas and in-memory databases consistent.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, config: cfg, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("journal opened",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
	)
	return s, nil
}

// initialize sets pragmas and creates the schema.
func (s *SQLiteStore) initialize() error {
	backend := s.config.Driver

	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError(backend, "enable_wal", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStorageError(backend, "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError(backend, "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError(backend, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(backend, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(backend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Record inserts or replaces run.
func (s *SQLiteStore) Record(ctx context.Context, run *Run) error {
	removed, err := json.Marshal(run.Removed)
	if err != nil {
		return NewStorageError(s.config.Driver, "record", err)
	}

	var errVal any
	if run.Error != "" {
		errVal = run.Error
	}

	_, err = s.db.ExecContext(ctx, upsertRun,
		run.ID, run.Target, run.Anchor.Format(time.DateOnly), run.Policy,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
		run.DryRun, run.Retained, string(removed), errVal,
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "record", err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "get", err)
	}
	return run, nil
}

// List returns runs matching query, newest first.
func (s *SQLiteStore) List(ctx context.Context, query *Query) ([]*Run, error) {
	var where []string
	var args []any
	if query != nil && query.Target != "" {
		where = append(where, "target = ?")
		args = append(args, query.Target)
	}
	if query != nil && !query.Since.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, query.Since.UnixMilli())
	}

	q := selectRuns
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY started_at DESC, id LIMIT ? OFFSET ?"
	offset := 0
	if query != nil {
		offset = query.Offset
	}
	args = append(args, query.limit(), offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "list", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, NewStorageError(s.config.Driver, "scan", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "list", err)
	}
	return runs, nil
}

// Prune deletes runs started before olderThan.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", olderThan.UnixMilli())
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "prune", err)
	}
	if n > 0 {
		s.logger.Info("journal pruned", "deleted", n, "older_than", olderThan)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run                 Run
		anchor, removed     string
		startedAt, finished int64
		errVal              sql.NullString
	)
	err := sc.Scan(&run.ID, &run.Target, &anchor, &run.Policy, &startedAt, &finished,
		&run.DryRun, &run.Retained, &removed, &errVal)
	if err != nil {
		return nil, err
	}

	if run.Anchor, err = time.Parse(time.DateOnly, anchor); err != nil {
		return nil, fmt.Errorf("invalid anchor %q: %w", anchor, err)
	}
	if err := json.Unmarshal([]byte(removed), &run.Removed); err != nil {
		return nil, fmt.Errorf("invalid removals: %w", err)
	}
	run.StartedAt = time.UnixMilli(startedAt).UTC()
	run.FinishedAt = time.UnixMilli(finished).UTC()
	run.Error = errVal.String
	return &run, nil
}

// Open returns the store configured by cfg: an SQLite store when the
// journal is enabled, a memory store otherwise.
func Open(cfg config.JournalConfig) (Store, error) {
	if !cfg.Enabled {
		return NewMemoryStore(), nil
	}
	return NewSQLiteStore(&SQLiteConfig{
		Driver:      cfg.Driver,
		Path:        cfg.Path,
		WALMode:     true,
		BusyTimeout: cfg.BusyTimeout,
	})
}
