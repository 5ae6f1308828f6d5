package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/util"
)

// SaveSnapshot stores a dump blob and sets snap.ID and snap.CreatedAt
func (s *Store) SaveSnapshot(snap *Snapshot) error {
	if len(snap.Blob) == 0 {
		return fmt.Errorf("refusing to store an empty snapshot")
	}
	if snap.Format == "" {
		snap.Format = "binary"
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	compressed := 0
	if snap.Compressed {
		compressed = 1
	}

	id, err := util.RetryWithBackoff(nil, func() (int64, error) {
		result, err := s.db.Exec(`
			INSERT INTO snapshots (serial, media_flags, format, compressed, raw_len, blob, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, snap.Serial, uint32(snap.MediaFlags), snap.Format, compressed, snap.RawLen, snap.Blob, snap.CreatedAt)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}, "save snapshot")
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	snap.ID = id
	return nil
}

const snapshotColumns = `id, serial, media_flags, format, compressed, raw_len, created_at`

func scanSnapshot(row interface{ Scan(...any) error }, withBlob bool) (*Snapshot, error) {
	var snap Snapshot
	var flags uint32
	var compressed int

	dest := []any{&snap.ID, &snap.Serial, &flags, &snap.Format, &compressed, &snap.RawLen, &snap.CreatedAt}
	if withBlob {
		dest = append(dest, &snap.Blob)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	snap.MediaFlags = catalog.MediaFlags(flags)
	snap.Compressed = compressed == 1
	return &snap, nil
}

// LatestSnapshot returns the newest snapshot with its blob, or nil if the
// store is empty
func (s *Store) LatestSnapshot() (*Snapshot, error) {
	row := s.db.QueryRow(`SELECT ` + snapshotColumns + `, blob FROM snapshots ORDER BY id DESC LIMIT 1`)
	snap, err := scanSnapshot(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// GetSnapshot returns one snapshot with its blob, or nil if it does not exist
func (s *Store) GetSnapshot(id int64) (*Snapshot, error) {
	row := s.db.QueryRow(`SELECT `+snapshotColumns+`, blob FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row, true)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// ListSnapshots returns every snapshot, newest first, without blobs
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	rows, err := s.db.Query(`SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows, false)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// PruneSnapshots deletes all but the newest keep snapshots and returns how
// many were removed
func (s *Store) PruneSnapshots(keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}

	var removed int64
	err := s.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			DELETE FROM snapshots
			WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)
		`, keep)
		if err != nil {
			return err
		}
		removed, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	if removed > 0 {
		util.DebugLog("Pruned %d snapshots, kept %d", removed, keep)
	}
	return removed, nil
}

// CountSnapshots returns the number of stored snapshots
func (s *Store) CountSnapshots() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count)
	return count, err
}
