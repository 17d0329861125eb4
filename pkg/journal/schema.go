package journal

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the journal tables. Times are stored as Unix milliseconds
// so both SQLite drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    target TEXT NOT NULL,
    anchor TEXT NOT NULL,
    policy TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    dry_run BOOLEAN NOT NULL,
    retained INTEGER NOT NULL,
    removed TEXT NOT NULL,
    error TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target, started_at);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const upsertRun = `
INSERT INTO runs (id, target, anchor, policy, started_at, finished_at, dry_run, retained, removed, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    target = excluded.target,
    anchor = excluded.anchor,
    policy = excluded.policy,
    started_at = excluded.started_at,
    finished_at = excluded.finished_at,
    dry_run = excluded.dry_run,
    retained = excluded.retained,
    removed = excluded.removed,
    error = excluded.error;
`

const selectRuns = `
SELECT id, target, anchor, policy, started_at, finished_at, dry_run, retained, removed, error
FROM runs`
