package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/franz/media-catalog/internal/catalog"
)

// Track is everything the importer knows about one audio file
type Track struct {
	Path        string
	Size        int64
	ModTime     int64 // unix seconds
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Year        int
	Track       int
	Disc        int
	Compilation bool
	Format      string
	Picture     []byte
	FromTags    bool

	// filled by ffprobe when enabled
	Duration uint32 // seconds
	Audio    catalog.AudioFormat
}

// readTrack reads embedded tags and fills any gaps from the path. Files
// without readable tags still produce a track.
func readTrack(path string) (Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to stat file: %w", err)
	}
	t := Track{Path: path, Size: info.Size(), ModTime: info.ModTime().Unix()}

	if err := readTags(path, &t); err == nil {
		t.FromTags = true
	}
	fillFromPath(&t)
	return t, nil
}

func readTags(path string, t *Track) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}

	t.Title = cleanString(m.Title())
	t.Artist = cleanString(m.Artist())
	t.AlbumArtist = cleanString(m.AlbumArtist())
	t.Album = cleanString(m.Album())
	t.Genre = cleanString(m.Genre())
	t.Year = m.Year()
	t.Track, _ = m.Track()
	t.Disc, _ = m.Disc()
	t.Format = string(m.FileType())
	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		t.Picture = pic.Data
	}

	// TCMP (ID3v2), cpil (MP4), COMPILATION (Vorbis)
	for _, key := range []string{"TCMP", "cpil", "COMPILATION", "compilation"} {
		switch v := m.Raw()[key].(type) {
		case string:
			t.Compilation = v == "1" || strings.EqualFold(v, "true")
		case int:
			t.Compilation = v == 1
		case bool:
			t.Compilation = v
		}
		if t.Compilation {
			break
		}
	}
	return nil
}

// fillFromPath only fills fields the tags left empty
func fillFromPath(t *Track) {
	h := parseFilename(t.Path)
	if t.Title == "" {
		t.Title = h.Title
	}
	if t.Artist == "" {
		t.Artist = h.Artist
	}
	if t.Album == "" {
		t.Album = h.Album
	}
	if t.Track == 0 {
		t.Track = h.Track
	}
	if t.Disc == 0 {
		t.Disc = h.Disc
	}
	if t.Year == 0 {
		t.Year = h.Year
	}
	if t.Format == "" {
		t.Format = strings.ToUpper(strings.TrimPrefix(strings.ToLower(filepath.Ext(t.Path)), "."))
	}
}
