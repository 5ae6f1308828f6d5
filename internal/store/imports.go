package store

import (
	"database/sql"
	"time"

	"github.com/franz/media-catalog/internal/util"
)

// StartImportRun records the start of an import and sets run.ID
func (s *Store) StartImportRun(run *ImportRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	id, err := util.RetryWithBackoff(nil, func() (int64, error) {
		result, err := s.db.Exec(`
			INSERT INTO import_runs (root, started_at) VALUES (?, ?)
		`, run.Root, run.StartedAt)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}, "start import run")
	if err != nil {
		return err
	}

	run.ID = id
	return nil
}

// FinishImportRun stores the counters of a finished run
func (s *Store) FinishImportRun(run *ImportRun) error {
	if run.CompletedAt.IsZero() {
		run.CompletedAt = time.Now().UTC()
	}

	var snapshotID any
	if run.SnapshotID != 0 {
		snapshotID = run.SnapshotID
	}

	return util.Retry(nil, func() error {
		_, err := s.db.Exec(`
			UPDATE import_runs
			SET completed_at = ?, files_seen = ?, items_added = ?, errors = ?, snapshot_id = ?
			WHERE id = ?
		`, run.CompletedAt, run.FilesSeen, run.ItemsAdded, run.Errors, snapshotID, run.ID)
		return err
	}, "finish import run")
}

// RecentImportRuns returns up to limit runs, newest first
func (s *Store) RecentImportRuns(limit int) ([]*ImportRun, error) {
	rows, err := s.db.Query(`
		SELECT id, root, started_at, completed_at, files_seen, items_added, errors, COALESCE(snapshot_id, 0)
		FROM import_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*ImportRun
	for rows.Next() {
		var run ImportRun
		var completed sql.NullTime

		err := rows.Scan(&run.ID, &run.Root, &run.StartedAt, &completed, &run.FilesSeen, &run.ItemsAdded, &run.Errors, &run.SnapshotID)
		if err != nil {
			return nil, err
		}

		if completed.Valid {
			run.CompletedAt = completed.Time
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
