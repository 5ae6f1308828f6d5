// Package store persists serialized catalog dumps in a SQLite database.
// The catalog itself stays in memory; this is only where the blob lives
// between runs, together with a history of import runs.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/util"
	_ "modernc.org/sqlite" // SQLite driver
)

// Store represents the persisted snapshot database
type Store struct {
	db *sql.DB
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	NetworkOptimized bool // Apply network-optimized pragmas
}

// Open opens or creates a SQLite database at the given path with default options
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens or creates a SQLite database with custom options
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if opts.NetworkOptimized {
		if err := store.applyNetworkPragmas(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply network pragmas: %w", err)
		}
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// applyNetworkPragmas trades durability at each commit for fewer round-trips
// when the database sits on a network share
func (s *Store) applyNetworkPragmas() error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = -16000",
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SQLiteVersion reports the version of the embedded engine, or "" if an
// in-memory database cannot be opened
func SQLiteVersion() string {
	mem, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer mem.Close()

	var v string
	if mem.QueryRow("SELECT sqlite_version()").Scan(&v) != nil {
		return ""
	}
	return v
}

// CheckIntegrity runs sqlite's integrity check over the snapshot tables
func (s *Store) CheckIntegrity() error {
	var verdict string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&verdict); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if verdict != "ok" {
		return fmt.Errorf("snapshot database is damaged: %s", verdict)
	}
	return nil
}

// migrate brings the schema up to the newest version in one transaction
func (s *Store) migrate() error {
	from, err := s.getSchemaVersion()
	if err != nil {
		return err
	}
	if from >= len(migrations) {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		for v := from + 1; v <= len(migrations); v++ {
			if _, err := tx.Exec(migrations[v-1]); err != nil {
				return fmt.Errorf("schema v%d: %w", v, err)
			}
			if err := s.setSchemaVersion(tx, v); err != nil {
				return fmt.Errorf("schema v%d: recording version: %w", v, err)
			}
		}
		util.DebugLog("Snapshot database migrated from schema v%d to v%d", from, len(migrations))
		return nil
	})
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Snapshot is one stored dump. Blob is exactly what the dump package
// produced, compressed or not.
type Snapshot struct {
	ID         int64
	Serial     string
	MediaFlags catalog.MediaFlags
	Format     string // "binary" or "xml"
	Compressed bool
	RawLen     int64
	Blob       []byte
	CreatedAt  time.Time
}

// ImportRun records one pass of the importer
type ImportRun struct {
	ID          int64
	Root        string
	StartedAt   time.Time
	CompletedAt time.Time
	FilesSeen   int
	ItemsAdded  int
	Errors      int
	SnapshotID  int64
}
