package scan

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/report"
	"github.com/franz/media-catalog/internal/util"
)

func TestBuildMultiDiscAlbum(t *testing.T) {
	tracks := []Track{
		{Path: "/m/Band/Big/CD2/01.flac", Title: "Third", Artist: "Band", AlbumArtist: "Band", Album: "Big", Disc: 2, Track: 1, Genre: "Rock", Year: 1994},
		{Path: "/m/Band/Big/CD1/02.flac", Title: "Second", Artist: "Band", AlbumArtist: "Band", Album: "Big", Disc: 1, Track: 2, Genre: "Rock"},
		{Path: "/m/Band/Big/CD1/01.flac", Title: "First", Artist: "Band", AlbumArtist: "Band", Album: "Big", Disc: 1, Track: 1, Genre: "Rock", Picture: []byte{0xFF, 0xD8}},
	}

	c := catalog.New()
	stats, err := Build(c, tracks)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	c.LoadComplete()

	if stats.TitleSets != 1 || stats.Collections != 2 || stats.Items != 3 || stats.Categories != 1 || stats.Images != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	ts, ok := c.TitleSetByUniqueID(catalog.MediaMusic, util.StableKey("set", "Band", "Big"))
	if !ok {
		t.Fatal("expected title set keyed by album artist and album")
	}
	if ts.ItemCount != 3 || ts.Artist != "Band" || ts.SeqNum != 1 || ts.ArtID == 0 {
		t.Errorf("unexpected title set %+v", ts)
	}

	cols, err := c.CollectionsOf(catalog.MediaMusic, ts.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || cols[0].Name != "Big (Disc 1)" || cols[1].Name != "Big (Disc 2)" {
		t.Fatalf("expected discs in order, got %+v", cols)
	}
	if cols[1].Year != 1994 || cols[0].ArtID != ts.ArtID {
		t.Errorf("unexpected disc fields %+v", cols[1])
	}

	items, _ := c.ItemsOf(catalog.MediaMusic, cols[0].ID)
	if len(items) != 2 || items[0].Name != "First" || items[1].Name != "Second" {
		t.Errorf("expected tracks in track order, got %+v", items)
	}
	if items[0].Location != "/m/Band/Big/CD1/01.flac" {
		t.Errorf("expected item location to be the file path, got %q", items[0].Location)
	}

	rock, ok := c.CategoryByUniqueID(catalog.MediaMusic, util.StableKey("genre", "Rock"))
	if !ok {
		t.Fatal("expected genre category")
	}
	if rock.ID < catalog.FirstUserCategory {
		t.Errorf("genre category got reserved id %d", rock.ID)
	}
	for _, col := range cols {
		if !col.InCategory(rock.ID) || !col.InCategory(catalog.CategoryAll) {
			t.Errorf("collection %q categories %v", col.Name, col.Categories)
		}
	}

	if err := c.Validate(catalog.MediaMusic); err != nil {
		t.Errorf("validation failed: %v", err)
	}
}

func TestBuildCompilation(t *testing.T) {
	tracks := []Track{
		{Path: "/m/Hits/01.mp3", Title: "A", Artist: "One", AlbumArtist: "One", Album: "Hits", Track: 1, Compilation: true},
		{Path: "/m/Hits/02.mp3", Title: "B", Artist: "Two", Album: "Hits", Track: 2, Compilation: true},
	}

	c := catalog.New()
	if _, err := Build(c, tracks); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	sets := c.TitleSets(catalog.MediaMusic, nil, nil)
	if len(sets) != 1 {
		t.Fatalf("expected compilation tracks to share one title set, got %d", len(sets))
	}
	if sets[0].Artist != catalog.VariousArtists || sets[0].Name != "Hits" {
		t.Errorf("unexpected compilation set %+v", sets[0])
	}
	cols := c.Collections(catalog.MediaMusic, nil, nil)
	if len(cols) != 1 || cols[0].Name != "Hits" || cols[0].Artist != catalog.VariousArtists {
		t.Errorf("unexpected compilation collection %+v", cols)
	}
}

func TestBuildGrouping(t *testing.T) {
	tracks := []Track{
		{Path: "/a/1.mp3", Artist: "Zed", Album: "Late"},
		{Path: "/b/1.mp3", Artist: "Abe", Album: "Early"},
		{Path: "/c/1.mp3", Artist: "Abe"},
	}

	albums := groupAlbums(tracks)
	if len(albums) != 3 {
		t.Fatalf("expected 3 albums, got %d", len(albums))
	}
	want := []struct{ artist, name string }{
		{"Abe", "Early"},
		{"Abe", unknownAlbum},
		{"Zed", "Late"},
	}
	for i, w := range want {
		if albums[i].artist != w.artist || albums[i].name != w.name {
			t.Errorf("album %d = %s/%s, want %s/%s", i, albums[i].artist, albums[i].name, w.artist, w.name)
		}
	}
	if _, ok := albums[0].discs[1]; !ok {
		t.Error("expected untagged disc to default to 1")
	}
}

func TestBuildTwiceAddsNothing(t *testing.T) {
	tracks := []Track{
		{Path: "/m/X/Y/01.mp3", Size: 10, ModTime: 100, Title: "One", Artist: "X", Album: "Y", Track: 1, Genre: "Pop"},
		{Path: "/m/X/Y/02.mp3", Size: 10, ModTime: 100, Title: "Two", Artist: "X", Album: "Y", Track: 2, Genre: "Pop"},
	}

	c := catalog.New()
	if _, err := Build(c, tracks); err != nil {
		t.Fatal(err)
	}
	stats, err := Build(c, tracks)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if stats.Items != 0 || stats.Collections != 0 || stats.TitleSets != 0 || stats.Categories != 0 {
		t.Errorf("expected nothing new, got %+v", stats)
	}
	if stats.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", stats.Skipped)
	}
	if n := len(c.Items(catalog.MediaMusic, nil)); n != 2 {
		t.Errorf("expected 2 items, got %d", n)
	}

	// a replaced file gets a new key and lands in the existing disc
	replaced := tracks[1]
	replaced.ModTime = 200
	stats, err = Build(c, []Track{replaced})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Items != 1 || stats.Collections != 0 {
		t.Errorf("expected one item added to the existing disc, got %+v", stats)
	}
	cols := c.Collections(catalog.MediaMusic, nil, nil)
	if len(cols) != 1 || len(cols[0].Items) != 3 {
		t.Errorf("expected one disc with 3 items, got %+v", cols)
	}
}

func TestScannerBuildWritesEventLog(t *testing.T) {
	logger, err := report.NewEventLogger(t.TempDir(), report.LevelDebug)
	if err != nil {
		t.Fatal(err)
	}
	tracks := []Track{
		{Path: "/m/X/Y/01.mp3", Size: 1, ModTime: 1, Title: "One", Artist: "X", Album: "Y", Track: 1, Genre: "Pop"},
	}

	scanner := New(&Config{Logger: logger})
	c := catalog.New()
	if _, err := scanner.Build(c, tracks); err != nil {
		t.Fatal(err)
	}
	if _, err := scanner.Build(c, tracks); err != nil {
		t.Fatal(err)
	}
	logger.Close()

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]int)
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e report.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		counts[string(e.Event)+":"+e.Kind]++
	}

	want := map[string]int{
		"add:category":   1,
		"add:collection": 1,
		"add:item":       1,
		"add:title set":  1,
		"skip:item":      1,
	}
	for k, n := range want {
		if counts[k] != n {
			t.Errorf("expected %d %s events, got %d (all: %v)", n, k, counts[k], counts)
		}
	}
}
