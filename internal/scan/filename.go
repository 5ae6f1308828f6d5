package scan

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// filenameHints is what can be guessed about a track from its path alone
type filenameHints struct {
	Artist string
	Album  string
	Title  string
	Track  int
	Disc   int
	Year   int
}

var (
	// "01 - Artist - Title"
	trackArtistTitleRe = regexp.MustCompile(`^(\d+)\s*[-_.]\s*(.+?)\s+-\s+(.+)$`)
	// "01 - Title", "01. Title", "01_Title"
	trackTitleRe = regexp.MustCompile(`^(\d+)\s*[-_.]\s*(.+)$`)
	// "Artist - Title"
	artistTitleRe = regexp.MustCompile(`^(.+?)\s+-\s+(.+)$`)

	discDirRe     = regexp.MustCompile(`(?i)^(disc|cd|disk)\s*(\d+)$`)
	yearPrefixRe  = regexp.MustCompile(`^(\d{4})\s*[-_.]\s*(.+)$`)
	yearSuffixRe  = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)$`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// parseFilename guesses track metadata from "Artist/Album/NN - Title.ext"
// style layouts. A "Disc N" folder below the album is recognized.
func parseFilename(path string) filenameHints {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	var h filenameHints
	switch {
	case trackArtistTitleRe.MatchString(name):
		m := trackArtistTitleRe.FindStringSubmatch(name)
		h.Track, _ = strconv.Atoi(m[1])
		h.Artist = cleanString(m[2])
		h.Title = cleanString(m[3])
	case trackTitleRe.MatchString(name):
		m := trackTitleRe.FindStringSubmatch(name)
		h.Track, _ = strconv.Atoi(m[1])
		h.Title = cleanString(strings.ReplaceAll(m[2], "_", " "))
	case artistTitleRe.MatchString(name):
		m := artistTitleRe.FindStringSubmatch(name)
		h.Artist = cleanString(m[1])
		h.Title = cleanString(m[2])
	default:
		h.Title = cleanString(name)
	}

	dirs := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	if n := len(dirs); n > 0 {
		if m := discDirRe.FindStringSubmatch(dirs[n-1]); m != nil {
			h.Disc, _ = strconv.Atoi(m[2])
			dirs = dirs[:n-1]
		}
	}
	if n := len(dirs); n >= 2 {
		h.Album = dirs[n-1]
		if h.Artist == "" {
			h.Artist = cleanString(dirs[n-2])
		}
		if m := yearPrefixRe.FindStringSubmatch(h.Album); m != nil {
			h.Year, _ = strconv.Atoi(m[1])
			h.Album = m[2]
		} else if m := yearSuffixRe.FindStringSubmatch(h.Album); m != nil {
			h.Album = m[1]
			h.Year, _ = strconv.Atoi(m[2])
		}
		h.Album = cleanString(h.Album)
	}
	return h
}

// cleanString NFC-normalizes, trims and collapses whitespace
func cleanString(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
