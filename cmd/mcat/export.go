package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/dump"
	"github.com/franz/media-catalog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the latest catalog snapshot to a dump file",
	Long: `Write the latest catalog snapshot as a binary or XML dump.
An older snapshot can be exported with --snapshot (see "mcat stats").

The dump can be limited to some media types with --media (for example
"music,pic") and snappy-compressed with --compress.`,
	RunE: runExport,
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a dump file and store it as a new snapshot",
	Long: `Read a binary or XML dump, compressed or not, and store it as a new
snapshot. Only the media types present in the dump replace those of the
latest snapshot; the others are carried over. A dump that fails to decode
leaves the database untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(loadCmd)

	exportCmd.Flags().StringP("out", "o", "", "output file (required)")
	exportCmd.Flags().String("format", formatBinary, "dump format: binary or xml")
	exportCmd.Flags().String("media", "", "media types to include (default all)")
	exportCmd.Flags().Bool("compress", false, "snappy-compress the dump")
	exportCmd.Flags().Int64("snapshot", 0, "snapshot id to export (default latest)")
	exportCmd.MarkFlagRequired("out")
}

func runExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	media, _ := cmd.Flags().GetString("media")
	compress, _ := cmd.Flags().GetBool("compress")
	snapshotID, _ := cmd.Flags().GetInt64("snapshot")

	flags, err := parseMediaFlags(media)
	if err != nil {
		return err
	}

	db, err := openDB(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var c *catalog.Catalog
	if snapshotID > 0 {
		stored, err := db.GetSnapshot(snapshotID)
		if err != nil {
			return fmt.Errorf("failed to read snapshot %d: %w", snapshotID, err)
		}
		if stored == nil {
			return fmt.Errorf("snapshot %d not found", snapshotID)
		}
		if c, _, err = decodeSnapshot(stored); err != nil {
			return err
		}
	} else if c, _, err = loadLatest(db); err != nil {
		return err
	}

	snap, err := encodeCatalog(c, format, flags, compress)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, snap.Blob, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	util.SuccessLog("Wrote %s dump to %s (%s, serial %s)", snap.Format, out,
		humanize.Bytes(uint64(len(snap.Blob))), snap.Serial)
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	db, err := openDB(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	live, _, err := loadLatest(db)
	if err != nil {
		return err
	}

	h, format, err := loadDump(live, data)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	util.InfoLog("Loaded %s dump %s (version %d, flags %#x)", format, h.Serial, h.Version, uint32(h.Flags))

	snap, err := encodeCatalog(live, formatBinary, catalog.FlagAll, true)
	if err != nil {
		return err
	}
	if err := db.SaveSnapshot(snap); err != nil {
		return err
	}
	util.SuccessLog("Stored snapshot %d (%s)", snap.ID, humanize.Bytes(uint64(len(snap.Blob))))
	return nil
}

// loadDump swaps the media types of a dump into live, leaving live as it
// was if the dump does not decode
func loadDump(live *catalog.Catalog, data []byte) (dump.Header, string, error) {
	if dump.IsCompressed(data) {
		raw, err := dump.Decompress(data)
		if err != nil {
			return dump.Header{}, "", err
		}
		data = raw
	}
	if isXMLDump(data) {
		h, err := dump.LoadXML(live, data)
		return h, formatXML, err
	}
	h, err := dump.LoadBinary(live, data)
	return h, formatBinary, err
}
