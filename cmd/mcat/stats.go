package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog counts and snapshot history",
	Long: `Show per media type counts for the latest snapshot, the stored
snapshots and the most recent import runs.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().Int("runs", 5, "import runs to list")
	statsCmd.Flags().Bool("artists", false, "also list the artists of the music catalog")
}

func runStats(cmd *cobra.Command, args []string) error {
	dbPath := viper.GetString("db")
	runs, _ := cmd.Flags().GetInt("runs")
	artists, _ := cmd.Flags().GetBool("artists")

	db, err := openDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	c, snap, err := loadLatest(db)
	if err != nil {
		return err
	}
	if snap == nil {
		util.WarnLog("No snapshots found. Run 'mcat import' first.")
		return nil
	}

	out := cmd.OutOrStdout()
	if err := printCatalogStats(out, c); err != nil {
		return err
	}
	if artists {
		if err := printArtists(out, c, catalog.MediaMusic); err != nil {
			return err
		}
	}

	snaps, err := db.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		compressed := "no"
		if s.Compressed {
			compressed = "yes"
		}
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.Serial,
			s.Format,
			compressed,
			humanize.Time(s.CreatedAt),
			humanize.Bytes(uint64(s.RawLen)),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"ID", "Serial", "Format", "Compressed", "Created", "Size"}, rows, 5))

	recent, err := db.RecentImportRuns(runs)
	if err != nil {
		return fmt.Errorf("failed to list import runs: %w", err)
	}
	if len(recent) > 0 {
		rows = rows[:0]
		for _, r := range recent {
			finished := "running"
			if !r.CompletedAt.IsZero() {
				finished = humanize.Time(r.CompletedAt)
			}
			rows = append(rows, []string{
				r.Root,
				finished,
				humanize.Comma(int64(r.FilesSeen)),
				humanize.Comma(int64(r.ItemsAdded)),
				strconv.Itoa(r.Errors),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Import root", "Finished", "Files", "Added", "Errors"}, rows, 2))
	}
	return nil
}

// printCatalogStats writes one row per media type
func printCatalogStats(w io.Writer, c *catalog.Catalog) error {
	rows := make([][]string, 0, len(catalog.MediaTypes))
	for _, mt := range catalog.MediaTypes {
		st, err := c.Stats(mt)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			mt.Tag(),
			humanize.Comma(int64(st.Categories)),
			humanize.Comma(int64(st.TitleSets)),
			humanize.Comma(int64(st.Collections)),
			humanize.Comma(int64(st.Playlists)),
			humanize.Comma(int64(st.Items)),
			humanize.Comma(int64(st.Images)),
			humanize.Bytes(st.ArtBytes),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Media", "Categories", "Title sets", "Collections", "Playlists", "Items", "Images", "Art"},
		rows, 1))
	return nil
}

// printArtists writes the by-artist view of one media type
func printArtists(w io.Writer, c *catalog.Catalog, mt catalog.MediaType) error {
	view, err := c.ArtistView(mt)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(view))
	for _, e := range view {
		rows = append(rows, []string{e.Artist, strconv.Itoa(len(e.TitleSets)), strconv.Itoa(len(e.Collections))})
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderTable([]string{"Artist", "Title sets", "Collections"}, rows, 1))
	return nil
}
