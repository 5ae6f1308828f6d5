package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/scan"
	"github.com/franz/media-catalog/internal/store"
	"github.com/franz/media-catalog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the database and stored catalog",
	Long: `Run diagnostic checks to ensure mcat can operate correctly.

This command checks:
- ffprobe (optional, for durations and audio formats)
- SQLite version
- Database accessibility and integrity
- The latest snapshot decodes and passes every catalog invariant
- A dump file, if given with --dump
- The import source directory, if configured

Use this command to troubleshoot issues before importing or exporting.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().String("src", "", "Source directory to check (optional)")
	doctorCmd.Flags().String("dump", "", "Dump file to check (optional)")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func pass(name, message string) checkResult {
	return checkResult{name: name, message: message}
}

func warn(name, message string) checkResult {
	return checkResult{name: name, message: message, warning: true}
}

func fail(name, message string) checkResult {
	return checkResult{name: name, message: message, error: true}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	util.InfoLog("=== mcat Doctor - System Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{checkFFprobe(), checkSQLite()}

	dbPath := viper.GetString("db")
	results = append(results, checkDatabase(dbPath))
	if _, err := os.Stat(dbPath); err == nil {
		results = append(results, checkSnapshot(dbPath))
	}

	if dumpPath, _ := cmd.Flags().GetString("dump"); dumpPath != "" {
		results = append(results, checkDumpFile(dumpPath))
	}

	srcPath, _ := cmd.Flags().GetString("src")
	if srcPath == "" {
		srcPath = viper.GetString("source")
	}
	if srcPath != "" {
		results = append(results, checkSourceDirectory(srcPath))
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	var failed, warned int
	for _, r := range results {
		line := r.name
		if r.message != "" {
			line += ": " + r.message
		}
		switch {
		case r.error:
			failed++
			util.ErrorLog("[✗] %s", line)
		case r.warning:
			warned++
			util.WarnLog("[⚠] %s", line)
		default:
			util.SuccessLog("[✓] %s", line)
		}
	}

	util.InfoLog("")
	switch {
	case failed > 0:
		util.ErrorLog("%d of %d checks failed", failed, len(results))
		return fmt.Errorf("system diagnostics failed")
	case warned > 0:
		util.WarnLog("All checks passed, %d with warnings", warned)
	default:
		util.SuccessLog("All %d checks passed", len(results))
	}
	return nil
}

// checkFFprobe reports the ffprobe version. Imports work without it, so a
// missing binary is only a warning.
func checkFFprobe() checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, "ffprobe", "-version").CombinedOutput()
	if err != nil {
		return warn("ffprobe (optional)", "not found (durations and audio formats will be empty)")
	}

	version := "unknown"
	if line, _, _ := strings.Cut(string(output), "\n"); line != "" {
		if parts := strings.Fields(line); len(parts) >= 3 {
			version = parts[2]
		}
	}

	return pass("ffprobe (optional)", fmt.Sprintf("version %s", version))
}

// checkSQLite verifies SQLite version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return fail("SQLite", "unable to determine version")
	}

	return pass("SQLite", fmt.Sprintf("version %s (built-in)", version))
}

// checkDatabase verifies database file accessibility
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return warn("Database", "no database path specified (use --db flag or config)")
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return pass("Database", fmt.Sprintf("%s (will be created on first import)", dbPath))
		}
		return fail("Database", fmt.Sprintf("cannot access %s: %v", dbPath, err))
	}

	if !info.Mode().IsRegular() {
		return fail("Database", fmt.Sprintf("%s is not a regular file", dbPath))
	}

	db, err := openDB(dbPath)
	if err != nil {
		return fail("Database", fmt.Sprintf("cannot open %s: %v", dbPath, err))
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return fail("Database", fmt.Sprintf("integrity check failed: %v", err))
	}

	count, _ := db.CountSnapshots()
	return pass("Database", fmt.Sprintf("%s (%s, %d snapshots)", dbPath, humanize.Bytes(uint64(info.Size())), count))
}

// checkSnapshot decodes the newest snapshot and validates every media type
func checkSnapshot(dbPath string) checkResult {
	db, err := openDB(dbPath)
	if err != nil {
		return fail("Latest snapshot", fmt.Sprintf("cannot open %s: %v", dbPath, err))
	}
	defer db.Close()

	snap, err := db.LatestSnapshot()
	if err != nil {
		return fail("Latest snapshot", err.Error())
	}
	if snap == nil {
		return warn("Latest snapshot", "none stored yet (run 'mcat import')")
	}

	c, _, err := decodeSnapshot(snap)
	if err != nil {
		return fail("Latest snapshot", err.Error())
	}
	if err := validateAll(c); err != nil {
		return fail("Latest snapshot", fmt.Sprintf("snapshot %d is inconsistent: %v", snap.ID, err))
	}

	return pass("Latest snapshot", fmt.Sprintf("snapshot %d from %s, %s", snap.ID, humanize.Time(snap.CreatedAt), summarize(c)))
}

// checkDumpFile verifies a dump file decodes and is consistent
func checkDumpFile(path string) checkResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return fail("Dump file", fmt.Sprintf("cannot read %s: %v", path, err))
	}

	c, h, format, err := decodeDump(data)
	if err != nil {
		return fail("Dump file", fmt.Sprintf("%s: %v", path, err))
	}
	if err := validateAll(c); err != nil {
		return fail("Dump file", fmt.Sprintf("%s is inconsistent: %v", path, err))
	}

	return pass("Dump file", fmt.Sprintf("%s (%s v%d, serial %s, %s)", path, format, h.Version, h.Serial, summarize(c)))
}

// checkSourceDirectory verifies the import source is readable and reports
// how many entries it holds
func checkSourceDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return fail("Source directory", fmt.Sprintf("cannot access %s: %v", path, err))
	}

	if !info.IsDir() {
		return fail("Source directory", fmt.Sprintf("%s is not a directory", path))
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fail("Source directory", fmt.Sprintf("cannot read %s: %v", path, err))
	}

	return pass("Source directory", fmt.Sprintf("%s (%d entries, %d audio extensions supported)",
		path, len(entries), len(scan.New(nil).GetSupportedExtensions())))
}

func validateAll(c *catalog.Catalog) error {
	var errs []error
	for _, mt := range catalog.MediaTypes {
		if err := c.Validate(mt); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", mt, err))
		}
	}
	return errors.Join(errs...)
}

func summarize(c *catalog.Catalog) string {
	var sets, items int
	for _, mt := range catalog.MediaTypes {
		if st, err := c.Stats(mt); err == nil {
			sets += st.TitleSets
			items += st.Items
		}
	}
	return fmt.Sprintf("%d title sets, %d items", sets, items)
}
