package store

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/franz/media-catalog/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenAndMigrate(t *testing.T) {
	store := openTestStore(t)

	version, err := store.getSchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}

	if version != len(migrations) {
		t.Errorf("expected schema version %d, got %d", len(migrations), version)
	}

	tables := []string{"snapshots", "import_runs", "schema_version"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	if err := store.CheckIntegrity(); err != nil {
		t.Errorf("integrity check failed on a fresh store: %v", err)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := first.SaveSnapshot(&Snapshot{Serial: "a", Blob: []byte{1}}); err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer second.Close()

	count, err := second.CountSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 snapshot after reopen, got %d", count)
	}
}

func TestSnapshotSaveAndLatest(t *testing.T) {
	store := openTestStore(t)

	latest, err := store.LatestSnapshot()
	if err != nil {
		t.Fatalf("failed to query empty store: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected no snapshot, got %+v", latest)
	}

	for i, serial := range []string{"s1", "s2", "s3"} {
		snap := &Snapshot{
			Serial:     serial,
			MediaFlags: catalog.FlagMusic | catalog.FlagMovie,
			Compressed: i%2 == 0,
			RawLen:     int64(100 + i),
			Blob:       bytes.Repeat([]byte{byte(i)}, 10),
		}
		if err := store.SaveSnapshot(snap); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
		if snap.ID == 0 {
			t.Error("expected snapshot ID to be set after insert")
		}
	}

	latest, err = store.LatestSnapshot()
	if err != nil {
		t.Fatalf("failed to get latest snapshot: %v", err)
	}
	if latest.Serial != "s3" || !latest.Compressed || latest.RawLen != 102 || latest.Format != "binary" {
		t.Errorf("unexpected latest snapshot %+v", latest)
	}
	if latest.MediaFlags != catalog.FlagMusic|catalog.FlagMovie {
		t.Errorf("expected flags %#x, got %#x", catalog.FlagMusic|catalog.FlagMovie, latest.MediaFlags)
	}
	if !bytes.Equal(latest.Blob, bytes.Repeat([]byte{2}, 10)) {
		t.Errorf("blob not preserved: %v", latest.Blob)
	}

	list, err := store.ListSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].Serial != "s3" || list[0].Blob != nil {
		t.Errorf("expected 3 snapshots newest first without blobs, got %+v", list)
	}

	first, err := store.GetSnapshot(list[2].ID)
	if err != nil || first == nil || first.Serial != "s1" {
		t.Errorf("expected s1, got %+v (%v)", first, err)
	}
	missing, err := store.GetSnapshot(999)
	if err != nil || missing != nil {
		t.Errorf("expected nil for missing snapshot, got %+v (%v)", missing, err)
	}

	if err := store.SaveSnapshot(&Snapshot{Serial: "empty"}); err == nil {
		t.Error("expected empty blob to be refused")
	}
}

func TestPruneSnapshots(t *testing.T) {
	store := openTestStore(t)

	for _, serial := range []string{"a", "b", "c", "d"} {
		if err := store.SaveSnapshot(&Snapshot{Serial: serial, Blob: []byte(serial)}); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.PruneSnapshots(2)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	list, _ := store.ListSnapshots()
	if len(list) != 2 || list[0].Serial != "d" || list[1].Serial != "c" {
		t.Errorf("expected c and d to remain, got %+v", list)
	}

	if _, err := store.PruneSnapshots(0); err == nil {
		t.Error("expected error for keep=0")
	}
}

func TestImportRuns(t *testing.T) {
	store := openTestStore(t)

	run := &ImportRun{Root: "/music"}
	if err := store.StartImportRun(run); err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	runs, err := store.RecentImportRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || !runs[0].CompletedAt.IsZero() {
		t.Fatalf("expected one open run, got %+v", runs)
	}

	snap := &Snapshot{Serial: "x", Blob: []byte{1}}
	if err := store.SaveSnapshot(snap); err != nil {
		t.Fatal(err)
	}
	run.FilesSeen = 12
	run.ItemsAdded = 10
	run.Errors = 2
	run.SnapshotID = snap.ID
	if err := store.FinishImportRun(run); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	runs, _ = store.RecentImportRuns(10)
	got := runs[0]
	if got.FilesSeen != 12 || got.ItemsAdded != 10 || got.Errors != 2 || got.SnapshotID != snap.ID {
		t.Errorf("unexpected run %+v", got)
	}
	if got.CompletedAt.IsZero() {
		t.Error("expected completion time")
	}
}
