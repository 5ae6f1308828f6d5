package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/media-catalog/internal/catalog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Pick random items from a category",
	Long: `Build a random play queue from the collections of one category.

The category is either a category cookie such as "Music,a" or a numeric id
combined with --media. The queue may come back shorter than --limit when the
category holds few items.`,
	RunE: runSample,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <cookie>",
	Short: "Show the entities a cookie addresses",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

var slotsCmd = &cobra.Command{
	Use:   "slots <moniker>",
	Short: "Show which changer slots hold a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSlots,
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(slotsCmd)

	sampleCmd.Flags().String("media", "music", "media type")
	sampleCmd.Flags().String("category", "1", "category cookie or id")
	sampleCmd.Flags().Int("limit", catalog.DefaultSampleSize, "maximum items")
	sampleCmd.Flags().Uint64("seed", 0, "random seed (0 = time based)")

	slotsCmd.Flags().String("media", "movie", "media type")
}

// openLatest opens the database and decodes its newest snapshot
func openLatest() (*catalog.Catalog, error) {
	db, err := openDB(viper.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	c, _, err := loadLatest(db)
	return c, err
}

// parseCategory accepts "Music,a" style cookies or a decimal id
func parseCategory(s string, mt catalog.MediaType) (catalog.MediaType, catalog.ID, error) {
	if strings.Contains(s, ",") {
		ck, err := catalog.DecodeCookie(s)
		if err != nil {
			return 0, 0, err
		}
		if ck.Kind != catalog.CookieCategory {
			return 0, 0, fmt.Errorf("%q is a %s cookie, not a category", s, ck.Kind)
		}
		return ck.MediaType, ck.CategoryID, nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || n == 0 {
		return 0, 0, fmt.Errorf("invalid category id %q", s)
	}
	return mt, catalog.ID(n), nil
}

func runSample(cmd *cobra.Command, args []string) error {
	media, _ := cmd.Flags().GetString("media")
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetInt("limit")
	seed, _ := cmd.Flags().GetUint64("seed")

	mt, err := parseMediaType(media)
	if err != nil {
		return err
	}
	mt, cat, err := parseCategory(category, mt)
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	c, err := openLatest()
	if err != nil {
		return err
	}
	items, err := c.RandomItems(mt, cat, limit, rand.New(rand.NewPCG(seed, seed>>1)))
	if err != nil {
		return err
	}
	printPlayQueue(cmd.OutOrStdout(), items)
	return nil
}

func printPlayQueue(w io.Writer, items []catalog.PlayItem) {
	rows := make([][]string, 0, len(items))
	var total uint32
	for i, it := range items {
		total += it.Duration
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			it.Name,
			it.Artist,
			it.CollectionName,
			it.ItemCookie,
			formatDuration(it.Duration),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Title", "Artist", "Collection", "Cookie", "Length"}, rows, 5))
	fmt.Fprintf(w, "%d items, %s\n", len(items), formatDuration(total))
}

func formatDuration(secs uint32) string {
	return (time.Duration(secs) * time.Second).String()
}

func runResolve(cmd *cobra.Command, args []string) error {
	c, err := openLatest()
	if err != nil {
		return err
	}
	res, err := c.Resolve(args[0])
	if err != nil {
		return err
	}
	printResolved(cmd.OutOrStdout(), res)
	return nil
}

func printResolved(w io.Writer, res catalog.Resolved) {
	rows := [][]string{
		{"Cookie", res.Cookie.String() + " (" + res.Cookie.Kind.String() + ")"},
		{"Category", fmt.Sprintf("%d %s", res.Category.ID, res.Category.Name)},
	}
	if ts := res.TitleSet; ts != nil {
		rows = append(rows,
			[]string{"Title set", fmt.Sprintf("%d %s", ts.ID, ts.Name)},
			[]string{"  Artist", ts.Artist},
			[]string{"  Items", strconv.Itoa(int(ts.ItemCount))},
			[]string{"  Length", formatDuration(ts.Duration)},
		)
	}
	if col := res.Collection; col != nil {
		rows = append(rows,
			[]string{"Collection", fmt.Sprintf("%d %s", col.ID, col.Name)},
			[]string{"  Artist", col.Artist},
			[]string{"  Location", col.Location},
		)
		if col.Year > 0 {
			rows = append(rows, []string{"  Year", strconv.Itoa(int(col.Year))})
		}
	}
	if it := res.Item; it != nil {
		rows = append(rows,
			[]string{"Item", fmt.Sprintf("%d %s", it.ID, it.Name)},
			[]string{"  Artist", it.Artist},
			[]string{"  Location", it.Location},
		)
		if it.Format.SampleRate > 0 {
			rows = append(rows, []string{"  Format", fmt.Sprintf("%d Hz, %d bit, %d ch, %s/s",
				it.Format.SampleRate, it.Format.BitDepth, it.Format.Channels, humanize.Bytes(uint64(it.Format.BitRate)/8))})
		}
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, 0))
}

func runSlots(cmd *cobra.Command, args []string) error {
	media, _ := cmd.Flags().GetString("media")
	mt, err := parseMediaType(media)
	if err != nil {
		return err
	}

	c, err := openLatest()
	if err != nil {
		return err
	}
	info, err := c.QuerySlots(mt, args[0], true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rows := make([][]string, 0, info.Occupied.Count())
	for slot, ok := info.Occupied.NextSet(0); ok; slot, ok = info.Occupied.NextSet(slot + 1) {
		rows = append(rows, []string{strconv.FormatUint(uint64(slot), 10), info.Names[slot]})
	}
	fmt.Fprintln(out, renderTable([]string{"Slot", "Collection"}, rows, 0))
	fmt.Fprintf(out, "%d occupied slots on %s\n", len(rows), args[0])
	return nil
}
