package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/report"
	"github.com/franz/media-catalog/internal/scan"
	"github.com/franz/media-catalog/internal/store"
	"github.com/franz/media-catalog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Import a music directory and store a new catalog snapshot",
	Long: `Scan a directory of audio files and store the result as a catalog snapshot.

This command performs three steps:
1. Discovery: walks the source directory and reads tags from each file
2. Build: groups tracks into albums (title sets), discs (collections)
   and tracks (items), with genres as categories and embedded art as images
3. Persist: encodes the catalog as a binary dump and saves it in the database

By default the music partition of the latest snapshot is replaced, while
movies and pictures are carried over. With --merge new tracks are added
to the existing music partition instead.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("source", "s", "", "directory to import")
	importCmd.Flags().Int("concurrency", 8, "parallel tag readers")
	importCmd.Flags().Bool("merge", false, "add to the existing music catalog instead of replacing it")
	importCmd.Flags().Bool("compress", true, "store the snapshot compressed")
	importCmd.Flags().Bool("probe", true, "read durations and audio formats with ffprobe")
	importCmd.Flags().Int("keep", 10, "snapshots to keep after the import")
	importCmd.Flags().String("events", "artifacts", "directory for the JSONL event log")

	viper.BindPFlag("source", importCmd.Flags().Lookup("source"))
	viper.BindPFlag("concurrency", importCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("compress", importCmd.Flags().Lookup("compress"))
	viper.BindPFlag("keep", importCmd.Flags().Lookup("keep"))
	viper.BindPFlag("probe", importCmd.Flags().Lookup("probe"))
	viper.BindPFlag("events", importCmd.Flags().Lookup("events"))
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	source := GetConfigString("source", "")
	if source == "" && len(args) > 0 {
		source = args[0]
	}
	if source == "" {
		return fmt.Errorf("source directory is required (use --source/-s or set in config)")
	}
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return fmt.Errorf("source directory does not exist: %s", source)
	}

	concurrency := GetConfigInt("concurrency", 8)
	compress := GetConfigBool("compress", true)
	keep := GetConfigInt("keep", 10)
	merge, _ := cmd.Flags().GetBool("merge")
	dbPath := viper.GetString("db")

	util.InfoLog("Opening database: %s", dbPath)
	db, err := openDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	live, prev, err := loadLatest(db)
	if err != nil {
		return err
	}
	if prev != nil {
		util.InfoLog("Starting from snapshot %d (%s)", prev.ID, humanize.Time(prev.CreatedAt))
	}

	run := &store.ImportRun{Root: source}
	if err := db.StartImportRun(run); err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}

	logLevel := report.LevelInfo
	if util.IsQuiet() {
		logLevel = report.LevelWarning
	} else if util.IsVerbose() {
		logLevel = report.LevelDebug
	}
	logger, err := report.NewEventLogger(GetConfigString("events", "artifacts"), logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	startTime := time.Now()
	scanner := scan.New(&scan.Config{
		AdditionalExts: GetConfigStringSlice("extensions"),
		Concurrency:    concurrency,
		Probe:          GetConfigBool("probe", true),
		Logger:         logger,
	})

	added, scanned, err := importInto(ctx, scanner, live, source, merge)
	if err != nil {
		return err
	}
	run.FilesSeen = scanned.FilesSeen
	run.ItemsAdded = added.Items
	run.Errors = len(scanned.Errors) + added.Errors

	snap, err := encodeCatalog(live, formatBinary, catalog.FlagAll, compress)
	if err != nil {
		return err
	}
	if err := db.SaveSnapshot(snap); err != nil {
		return err
	}
	run.SnapshotID = snap.ID
	logger.LogSnapshot(snap.ID, snap.Serial, int64(len(snap.Blob)))
	if err := db.FinishImportRun(run); err != nil {
		util.WarnLog("Failed to finish import run record: %v", err)
	}

	if keep > 0 {
		removed, err := db.PruneSnapshots(keep)
		if err != nil {
			util.WarnLog("Failed to prune snapshots: %v", err)
		} else if removed > 0 {
			util.InfoLog("Pruned %d old snapshots", removed)
		}
	}

	// Summary
	util.InfoLog("")
	util.SuccessLog("=== Import Summary ===")
	util.InfoLog("Total time: %v", time.Since(startTime).Round(time.Millisecond))
	util.InfoLog("  Files seen: %d", scanned.FilesSeen)
	util.InfoLog("  Albums added: %d", added.TitleSets)
	util.InfoLog("  Discs added: %d", added.Collections)
	util.InfoLog("  Tracks added: %d", added.Items)
	if added.Skipped > 0 {
		util.InfoLog("  Tracks already cataloged: %d", added.Skipped)
	}
	if run.Errors > 0 {
		util.WarnLog("  Errors: %d", run.Errors)
	}
	util.InfoLog("Snapshot %d: %s (%s raw)", snap.ID,
		humanize.Bytes(uint64(len(snap.Blob))), humanize.Bytes(uint64(snap.RawLen)))
	if path := logger.Path(); path != "" {
		util.InfoLog("Event log: %s", path)
	}

	return nil
}

// importInto scans source into live. Without merge the music partition is
// built from scratch and swapped in; with merge the tracks are built into
// the live catalog directly.
func importInto(ctx context.Context, scanner *scan.Scanner, live *catalog.Catalog, source string, merge bool) (*scan.BuildStats, *scan.Result, error) {
	if !merge {
		scratch, stats, result, err := scanner.Import(ctx, source)
		if err != nil {
			return nil, result, fmt.Errorf("import failed: %w", err)
		}
		if err := live.TakeMedia(scratch, catalog.MediaMusic); err != nil {
			return nil, result, err
		}
		return stats, result, nil
	}

	tracks, result, err := scanner.Scan(ctx, source)
	if err != nil {
		return nil, result, fmt.Errorf("scan failed: %w", err)
	}
	stats, err := scanner.Build(live, tracks)
	if err != nil {
		return nil, result, fmt.Errorf("build failed: %w", err)
	}
	live.LoadComplete()
	return stats, result, nil
}
