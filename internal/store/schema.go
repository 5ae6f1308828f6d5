package store

// Schema v1 - snapshot blobs
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Serialized catalog dumps, newest last
CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  serial TEXT NOT NULL,
  media_flags INTEGER NOT NULL,
  format TEXT NOT NULL DEFAULT 'binary',
  compressed INTEGER DEFAULT 0,
  raw_len INTEGER NOT NULL,
  blob BLOB NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_snapshots_serial ON snapshots(serial);
`

// Schema v2 - import run history
const schemaV2 = `
CREATE TABLE IF NOT EXISTS import_runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  root TEXT NOT NULL,
  started_at DATETIME,
  completed_at DATETIME,
  files_seen INTEGER DEFAULT 0,
  items_added INTEGER DEFAULT 0,
  errors INTEGER DEFAULT 0,
  snapshot_id INTEGER REFERENCES snapshots(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_import_runs_completed ON import_runs(completed_at);
`

// migrations are applied in order; entry i brings the schema to version i+1
var migrations = []string{schemaV1, schemaV2}
