package scan

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/report"
	"github.com/franz/media-catalog/internal/util"
)

const unknownAlbum = "Unknown Album"

// BuildStats counts what Build added
type BuildStats struct {
	TitleSets   int
	Collections int
	Items       int
	Categories  int
	Images      int
	Skipped     int // already in the catalog
	Errors      int
}

// album is one title set worth of tracks, split by disc
type album struct {
	key    string
	artist string
	name   string
	discs  map[int][]Track
}

// groupAlbums buckets tracks by (album artist, album). Compilations group
// under VariousArtists so their tracks stay together.
func groupAlbums(tracks []Track) []*album {
	byKey := make(map[string]*album)
	for _, t := range tracks {
		artist := t.AlbumArtist
		if t.Compilation {
			artist = catalog.VariousArtists
		}
		if artist == "" {
			artist = t.Artist
		}
		name := t.Album
		if name == "" {
			name = unknownAlbum
		}
		key := util.StableKey("set", artist, name)
		a, ok := byKey[key]
		if !ok {
			a = &album{key: key, artist: artist, name: name, discs: make(map[int][]Track)}
			byKey[key] = a
		}
		disc := max(t.Disc, 1)
		a.discs[disc] = append(a.discs[disc], t)
	}

	albums := make([]*album, 0, len(byKey))
	for _, a := range byKey {
		for _, disc := range a.discs {
			slices.SortFunc(disc, func(x, y Track) int {
				return cmp.Or(cmp.Compare(x.Track, y.Track), strings.Compare(x.Path, y.Path))
			})
		}
		albums = append(albums, a)
	}
	slices.SortFunc(albums, func(x, y *album) int {
		return cmp.Or(strings.Compare(strings.ToLower(x.artist), strings.ToLower(y.artist)),
			strings.Compare(strings.ToLower(x.name), strings.ToLower(y.name)),
			strings.Compare(x.key, y.key))
	})
	return albums
}

// builder carries state across albums for one Build call
type builder struct {
	c      *catalog.Catalog
	stats  *BuildStats
	genres map[string]catalog.ID
	seq    uint32
	log    *report.EventLogger
}

// Build adds tracks to c as music title sets (albums), collections (discs)
// and items. Records already present by unique id are reused, so building
// the same tree twice adds nothing. Per-track failures are logged and
// counted; running out of ids aborts.
func Build(c *catalog.Catalog, tracks []Track) (*BuildStats, error) {
	return build(c, tracks, nil)
}

func build(c *catalog.Catalog, tracks []Track, log *report.EventLogger) (*BuildStats, error) {
	b := &builder{
		log:    log,
		c:      c,
		stats:  &BuildStats{},
		genres: make(map[string]catalog.ID),
		seq:    uint32(len(c.TitleSets(catalog.MediaMusic, nil, nil))),
	}

	for _, a := range groupAlbums(tracks) {
		if err := b.addAlbum(a); err != nil {
			return b.stats, err
		}
	}

	if err := c.AccumulateArtistNames(catalog.MediaMusic); err != nil {
		return b.stats, err
	}
	util.InfoLog("Built %d albums, %d discs, %d tracks (%d skipped, %d errors)",
		b.stats.TitleSets, b.stats.Collections, b.stats.Items, b.stats.Skipped, b.stats.Errors)
	return b.stats, nil
}

func (b *builder) addAlbum(a *album) error {
	artID, err := b.albumArt(a)
	if err != nil {
		return err
	}

	discNums := slices.Sorted(maps.Keys(a.discs))

	var newCols []catalog.ID
	for _, d := range discNums {
		colID, created, err := b.addDisc(a, d, len(discNums) > 1, artID)
		if err != nil {
			return err
		}
		if created {
			newCols = append(newCols, colID)
		}
	}
	if len(newCols) == 0 {
		return nil
	}

	if ts, ok := b.c.TitleSetByUniqueID(catalog.MediaMusic, a.key); ok {
		ts.Collections = append(ts.Collections, newCols...)
		return b.c.UpdateTitleSet(ts)
	}

	b.seq++
	tsID, err := b.c.AddTitleSet(catalog.TitleSet{
		UniqueID:    a.key,
		MediaType:   catalog.MediaMusic,
		Name:        a.name,
		Artist:      a.artist,
		SeqNum:      b.seq,
		Collections: newCols,
		ArtID:       artID,
	}, false)
	if err != nil {
		return fmt.Errorf("album %q: %w", a.name, err)
	}
	b.log.LogAdd("title set", a.key, uint16(tsID), a.name, "")
	b.stats.TitleSets++
	return nil
}

// addDisc creates or extends the collection for one disc. created reports
// whether the collection is new and still needs an owning title set.
func (b *builder) addDisc(a *album, disc int, multi bool, artID catalog.ID) (catalog.ID, bool, error) {
	tracks := a.discs[disc]
	uid := util.StableKey("disc", a.key, fmt.Sprint(disc))

	colID := catalog.ID(0)
	created := false
	if col, ok := b.c.CollectionByUniqueID(catalog.MediaMusic, uid); ok {
		colID = col.ID
	} else {
		name := a.name
		if multi {
			name = fmt.Sprintf("%s (Disc %d)", a.name, disc)
		}
		cats, err := b.categories(tracks)
		if err != nil {
			return 0, false, err
		}
		id, err := b.c.AddCollection(catalog.Collection{
			UniqueID:   uid,
			MediaType:  catalog.MediaMusic,
			Name:       name,
			Artist:     a.artist,
			Year:       albumYear(tracks),
			Location:   filepath.Dir(tracks[0].Path),
			LocKind:    catalog.LocFileItem,
			Categories: cats,
			ArtID:      artID,
		}, false)
		if err != nil {
			return 0, false, fmt.Errorf("disc %q: %w", name, err)
		}
		colID = id
		created = true
		b.log.LogAdd("collection", uid, uint16(id), name, filepath.Dir(tracks[0].Path))
		b.stats.Collections++
	}

	added := 0
	for _, t := range tracks {
		uid := util.FileKey(t.Path, t.Size, t.ModTime)
		if _, ok := b.c.ItemByUniqueID(catalog.MediaMusic, uid); ok {
			b.stats.Skipped++
			b.log.LogSkip(uid, t.Path)
			continue
		}
		title := t.Title
		if title == "" {
			title = filepath.Base(t.Path)
		}
		itemID, err := b.c.AddItemToCollection(catalog.MediaMusic, colID, catalog.Item{
			UniqueID:  uid,
			MediaType: catalog.MediaMusic,
			Name:      title,
			Artist:    t.Artist,
			Duration:  t.Duration,
			Format:    t.Audio,
			Location:  t.Path,
		})
		if errors.Is(err, catalog.ErrIDSpaceExhausted) {
			return 0, false, err
		}
		if err != nil {
			util.ErrorLog("Failed to add %s: %v", t.Path, err)
			b.log.LogError(t.Path, err)
			b.stats.Errors++
			continue
		}
		b.log.LogAdd("item", uid, uint16(itemID), title, t.Path)
		added++
		b.stats.Items++
	}

	if created && added == 0 {
		b.c.RemoveCollection(catalog.MediaMusic, colID)
		b.stats.Collections--
		return 0, false, nil
	}
	return colID, created, nil
}

// categories maps the genres of tracks to user categories, creating them
// on first use
func (b *builder) categories(tracks []Track) ([]catalog.ID, error) {
	var ids []catalog.ID
	for _, t := range tracks {
		if t.Genre == "" {
			continue
		}
		uid := util.StableKey("genre", t.Genre)
		id, ok := b.genres[uid]
		if !ok {
			if cat, found := b.c.CategoryByUniqueID(catalog.MediaMusic, uid); found {
				id = cat.ID
			} else {
				var err error
				id, err = b.c.AddCategory(catalog.Category{
					UniqueID:  uid,
					MediaType: catalog.MediaMusic,
					Name:      t.Genre,
				}, false)
				if err != nil {
					return nil, fmt.Errorf("genre %q: %w", t.Genre, err)
				}
				b.log.LogAdd("category", uid, uint16(id), t.Genre, "")
				b.stats.Categories++
			}
			b.genres[uid] = id
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// albumArt stores the first embedded picture of the album, if any
func (b *builder) albumArt(a *album) (catalog.ID, error) {
	uid := util.StableKey("art", a.key)
	if img, ok := b.c.ImageByUniqueID(catalog.MediaMusic, uid); ok {
		return img.ID, nil
	}
	for _, d := range slices.Sorted(maps.Keys(a.discs)) {
		for _, t := range a.discs[d] {
			if len(t.Picture) == 0 {
				continue
			}
			id, err := b.c.AddImage(catalog.Image{
				UniqueID:  uid,
				MediaType: catalog.MediaMusic,
				Large:     catalog.Art{Path: t.Path, Data: t.Picture},
			}, false)
			if err != nil {
				return 0, fmt.Errorf("art for %q: %w", a.name, err)
			}
			b.log.LogAdd("image", uid, uint16(id), a.name, t.Path)
			b.stats.Images++
			return id, nil
		}
	}
	return 0, nil
}

func albumYear(tracks []Track) uint16 {
	for _, t := range tracks {
		if t.Year > 0 && t.Year <= 0xFFFF {
			return uint16(t.Year)
		}
	}
	return 0
}
