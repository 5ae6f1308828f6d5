// Package scan imports a directory of audio files into a catalog. It is a
// driver outside the catalog core: it reads tags, then builds title sets,
// collections and items into a scratch catalog the caller swaps in.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/report"
	"github.com/franz/media-catalog/internal/util"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
)

// AudioExtensions are the default supported audio file extensions
var AudioExtensions = []string{
	".mp3",
	".flac",
	".m4a",
	".aac",
	".ogg",
	".opus",
	".wav",
	".aiff",
	".aif",
	".wma",
	".ape",
	".wv",  // WavPack
	".mpc", // Musepack
}

// Scanner discovers audio files in a directory tree and reads their tags
type Scanner struct {
	extensions  map[string]bool
	concurrency int
	probe       bool
	readTrack   func(path string) (Track, error)
	logger      *report.EventLogger
}

// Config holds scanner configuration
type Config struct {
	AdditionalExts []string
	Concurrency    int
	Probe          bool // read duration and audio format with ffprobe
	Logger         *report.EventLogger
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg == nil {
		cfg = &Config{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.AdditionalExts {
		extMap[strings.ToLower(ext)] = true
	}

	probe := cfg.Probe
	if probe && !ProbeAvailable() {
		util.WarnLog("ffprobe not found in PATH - durations and audio formats will be empty")
		util.WarnLog("Install ffmpeg for best results: https://ffmpeg.org/")
		probe = false
	}

	return &Scanner{
		extensions:  extMap,
		concurrency: concurrency,
		probe:       probe,
		readTrack:   readTrack,
		logger:      cfg.Logger,
	}
}

// Result summarizes a scan
type Result struct {
	FilesSeen    int
	FromTags     int
	FromFilename int
	Errors       []error
}

// Scan walks root and reads every audio file it finds. Per-file failures
// are collected in the result and do not stop the scan.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Track, *Result, error) {
	util.InfoLog("Starting scan of: %s", root)
	result := &Result{}

	var paths []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			result.Errors = append(result.Errors, fmt.Errorf("access error: %s: %w", path, err))
			s.logger.LogError(path, err)
			return nil
		}
		if !d.IsDir() && s.isAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, result, fmt.Errorf("walk error: %w", walkErr)
	}
	result.FilesSeen = len(paths)
	util.InfoLog("Found %d audio files", len(paths))

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() && len(paths) > 0 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Reading tags"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	type outcome struct {
		path  string
		track Track
		err   error
	}
	p := pool.NewWithResults[outcome]().WithMaxGoroutines(s.concurrency)
	for _, path := range paths {
		p.Go(func() outcome {
			if bar != nil {
				defer bar.Add(1)
			}
			if err := ctx.Err(); err != nil {
				return outcome{path: path, err: err}
			}
			t, err := s.readTrack(path)
			if err != nil {
				return outcome{path: path, err: fmt.Errorf("%s: %w", path, err)}
			}
			if s.probe {
				if props, err := probeFile(ctx, path); err == nil {
					t.Duration = props.Duration
					t.Audio = props.Format
				} else {
					util.DebugLog("Probe failed for %s: %v", path, err)
				}
			}
			return outcome{path: path, track: t}
		})
	}
	outcomes := p.Wait()
	if bar != nil {
		bar.Finish()
	}
	if err := ctx.Err(); err != nil {
		return nil, result, err
	}

	tracks := make([]Track, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			util.ErrorLog("Failed to read %v", o.err)
			result.Errors = append(result.Errors, o.err)
			s.logger.LogError(o.path, o.err)
			continue
		}
		s.logger.LogScan(o.path, o.track.Size, o.track.FromTags)
		if o.track.FromTags {
			result.FromTags++
		} else {
			result.FromFilename++
		}
		tracks = append(tracks, o.track)
	}
	slices.SortFunc(tracks, func(a, b Track) int { return strings.Compare(a.Path, b.Path) })

	util.SuccessLog("Scan complete: %d files, %d tagged, %d from filenames, %d errors",
		result.FilesSeen, result.FromTags, result.FromFilename, len(result.Errors))
	return tracks, result, nil
}

// Import scans root and builds the result into a fresh, loaded catalog.
// The live catalog is not touched; callers move the result in with TakeFrom
// or TakeMedia.
func (s *Scanner) Import(ctx context.Context, root string) (*catalog.Catalog, *BuildStats, *Result, error) {
	tracks, result, err := s.Scan(ctx, root)
	if err != nil {
		return nil, nil, result, err
	}

	scratch := catalog.New()
	stats, err := s.Build(scratch, tracks)
	if err != nil {
		return nil, stats, result, err
	}
	scratch.LoadComplete()
	return scratch, stats, result, nil
}

// Build adds tracks to c like the package level Build, recording every
// added and skipped record in the scanner's event log
func (s *Scanner) Build(c *catalog.Catalog, tracks []Track) (*BuildStats, error) {
	return build(c, tracks, s.logger)
}

// isAudioFile checks if a file has a supported audio extension
func (s *Scanner) isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return s.extensions[ext]
}

// GetSupportedExtensions returns the supported extensions, sorted
func (s *Scanner) GetSupportedExtensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}
