package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/franz/media-catalog/internal/util"
)

// finalizeCollection recomputes the aggregated duration and audio format
// from the current item list. Idempotent.
func (p *partition) finalizeCollection(col *Collection) {
	var dur uint32
	var format AudioFormat
	for _, id := range col.Items {
		it, ok := p.items.get(id)
		if !ok {
			continue
		}
		dur += it.Duration
		if format.zero() && !it.Format.zero() {
			format = it.Format
		}
	}
	col.Duration = dur
	col.Format = format
}

// finalizeTitleSet rolls collection aggregates and artists up into ts.
// Collection finalize must have run first.
func (p *partition) finalizeTitleSet(ts *TitleSet) {
	var dur, count uint32
	artists := make([]string, 0, len(ts.Collections))
	for _, id := range ts.Collections {
		col, ok := p.cols.get(id)
		if !ok {
			continue
		}
		dur += col.Duration
		count += uint32(len(col.Items))
		artists = append(artists, col.Artist)
	}
	ts.Duration = dur
	ts.ItemCount = count
	if artist, ok := commonArtist(artists); ok {
		ts.Artist = artist
	}
}

// finalizeOwner re-finalizes the title set owning collection id, if any
func (p *partition) finalizeOwner(colID ID) {
	setID, ok := p.colOwner[colID]
	if !ok {
		return
	}
	if ts, ok := p.sets.get(setID); ok {
		p.finalizeTitleSet(ts)
	}
}

// commonArtist returns the shared artist, VariousArtists if they differ, or
// false if no non-empty artist was seen
func commonArtist(names []string) (string, bool) {
	artist := ""
	for _, name := range names {
		if name == "" {
			continue
		}
		if artist == "" {
			artist = name
		} else if name != artist {
			return VariousArtists, true
		}
	}
	return artist, artist != ""
}

// FinalizeCollection recomputes a collection's aggregates and then its
// owning title set's
func (c *Catalog) FinalizeCollection(mt MediaType, id ID) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	col, ok := p.cols.get(id)
	if !ok {
		return notFound(mt, KindCollection, id)
	}
	p.finalizeCollection(col)
	p.finalizeOwner(id)
	p.touch()
	return nil
}

// FinalizeTitleSet recomputes a title set's aggregates
func (c *Catalog) FinalizeTitleSet(mt MediaType, id ID) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	ts, ok := p.sets.get(id)
	if !ok {
		return notFound(mt, KindTitleSet, id)
	}
	p.finalizeTitleSet(ts)
	p.touch()
	return nil
}

// AccumulateArtistNames sets every collection's artist from its items (the
// common artist or VariousArtists), then rolls collections up into title sets.
// Run it after an import that only populated item artists.
func (c *Catalog) AccumulateArtistNames(mt MediaType) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	for _, col := range p.cols.byID {
		artists := make([]string, 0, len(col.Items))
		for _, id := range col.Items {
			if it, ok := p.items.get(id); ok {
				artists = append(artists, it.Artist)
			}
		}
		if artist, ok := commonArtist(artists); ok {
			col.Artist = artist
		}
	}
	for _, ts := range p.sets.byID {
		p.finalizeTitleSet(ts)
	}
	p.touch()
	return nil
}

// LoadComplete must run once after a bulk load or edit session. It restores
// id order, rebuilds ownership, and finalizes every collection and then
// every title set.
func (c *Catalog) LoadComplete() {
	for _, p := range c.parts {
		p.cats.sort()
		p.images.sort()
		p.items.sort()
		p.cols.sort()
		p.sets.sort()
		p.ensureBuiltins()
		p.rebuildOwners()

		for _, col := range p.cols.byID {
			p.finalizeCollection(col)
		}
		for _, ts := range p.sets.byID {
			p.finalizeTitleSet(ts)
		}
		p.touch()
		p.complete = true
		util.DebugLog("Catalog %s load complete: %d sets, %d collections, %d items",
			p.mt, p.sets.len(), p.cols.len(), p.items.len())
	}
}

func (p *partition) rebuildOwners() {
	clear(p.itemOwner)
	clear(p.colOwner)
	for _, col := range p.cols.byID {
		if col.Playlist {
			continue
		}
		for _, item := range col.Items {
			if prev, ok := p.itemOwner[item]; ok {
				util.WarnLog("Item %d claimed by collections %d and %d", item, prev, col.ID)
				continue
			}
			p.itemOwner[item] = col.ID
		}
	}
	for _, ts := range p.sets.byID {
		for _, col := range ts.Collections {
			if prev, ok := p.colOwner[col]; ok {
				util.WarnLog("Collection %d claimed by title sets %d and %d", col, prev, ts.ID)
				continue
			}
			p.colOwner[col] = ts.ID
		}
	}
}

// ---- removal cascades ----

// Remove drops one entity, running the cascade for its kind
func (c *Catalog) Remove(mt MediaType, kind DataKind, id ID) bool {
	switch kind {
	case KindCategory:
		return c.RemoveCategory(mt, id)
	case KindImage:
		return c.RemoveImage(mt, id)
	case KindItem:
		return c.RemoveItem(mt, id)
	case KindCollection:
		return c.RemoveCollection(mt, id)
	case KindTitleSet:
		return c.RemoveTitleSet(mt, id)
	}
	return false
}

// RemoveCategory drops a user category and its memberships. Built-ins stay.
func (c *Catalog) RemoveCategory(mt MediaType, id ID) bool {
	p, err := c.part(mt)
	if err != nil {
		return false
	}
	cat, ok := p.cats.get(id)
	if !ok || cat.Builtin() {
		return false
	}
	for _, col := range p.cols.byID {
		col.Categories = slices.DeleteFunc(col.Categories, func(x ID) bool { return x == id })
	}
	p.cats.remove(id)
	p.touch()
	return true
}

// RemoveImage drops an image and clears art references to it
func (c *Catalog) RemoveImage(mt MediaType, id ID) bool {
	p, err := c.part(mt)
	if err != nil {
		return false
	}
	if _, ok := p.images.remove(id); !ok {
		return false
	}
	for _, col := range p.cols.byID {
		if col.ArtID == id {
			col.ArtID = 0
		}
	}
	for _, ts := range p.sets.byID {
		if ts.ArtID == id {
			ts.ArtID = 0
		}
	}
	p.touch()
	return true
}

// RemoveItem drops an item from its owner and from every playlist that
// references it, then re-finalizes each affected collection and title set.
func (c *Catalog) RemoveItem(mt MediaType, id ID) bool {
	p, err := c.part(mt)
	if err != nil {
		return false
	}
	if _, ok := p.items.get(id); !ok {
		return false
	}

	var affected []*Collection
	for _, col := range p.cols.byID {
		if !col.HasItem(id) {
			continue
		}
		col.Items = slices.DeleteFunc(col.Items, func(x ID) bool { return x == id })
		affected = append(affected, col)
	}
	delete(p.itemOwner, id)
	p.items.remove(id)

	for _, col := range affected {
		p.finalizeCollection(col)
		p.finalizeOwner(col.ID)
	}
	p.touch()
	util.DebugLog("Removed %s item %d from %d collections", mt, id, len(affected))
	return true
}

// RemoveCollection detaches a collection from its title set and drops it.
// Its items stay in the catalog; use PruneHierarchy to delete them too.
func (c *Catalog) RemoveCollection(mt MediaType, id ID) bool {
	p, err := c.part(mt)
	if err != nil {
		return false
	}
	col, ok := p.cols.get(id)
	if !ok {
		return false
	}

	if setID, ok := p.colOwner[id]; ok {
		delete(p.colOwner, id)
		if ts, ok := p.sets.get(setID); ok {
			ts.Collections = slices.DeleteFunc(ts.Collections, func(x ID) bool { return x == id })
			p.finalizeTitleSet(ts)
		}
	}
	if !col.Playlist {
		for _, item := range col.Items {
			if p.itemOwner[item] == id {
				delete(p.itemOwner, item)
			}
		}
	}
	p.cols.remove(id)
	p.touch()
	return true
}

// RemoveTitleSet drops a title set. Its collections stay in the catalog.
func (c *Catalog) RemoveTitleSet(mt MediaType, id ID) bool {
	p, err := c.part(mt)
	if err != nil {
		return false
	}
	ts, ok := p.sets.remove(id)
	if !ok {
		return false
	}
	for _, col := range ts.Collections {
		if p.colOwner[col] == id {
			delete(p.colOwner, col)
		}
	}
	p.touch()
	return true
}

// PruneHierarchy deletes top-down: a title set with its collections and
// their owned items, or a single collection and its owned items. Playlists
// are dropped without touching the items they reference.
func (c *Catalog) PruneHierarchy(mt MediaType, isTitleLevel bool, id ID) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	if !isTitleLevel {
		if _, ok := p.cols.get(id); !ok {
			return notFound(mt, KindCollection, id)
		}
		c.pruneCollection(mt, p, id)
		return nil
	}

	ts, ok := p.sets.get(id)
	if !ok {
		return notFound(mt, KindTitleSet, id)
	}
	for _, colID := range slices.Clone(ts.Collections) {
		c.pruneCollection(mt, p, colID)
	}
	c.RemoveTitleSet(mt, id)
	util.DebugLog("Pruned %s title set %d", mt, id)
	return nil
}

func (c *Catalog) pruneCollection(mt MediaType, p *partition, id ID) {
	col, ok := p.cols.get(id)
	if !ok {
		return
	}
	var owned []ID
	if !col.Playlist {
		owned = slices.Clone(col.Items)
	}
	c.RemoveCollection(mt, id)
	for _, item := range owned {
		c.RemoveItem(mt, item)
	}
}

// ---- structural edits ----

// AddItemToCollection creates a new item owned by an ordinary collection and
// appends it to the collection's item list
func (c *Catalog) AddItemToCollection(mt MediaType, colID ID, it Item) (ID, error) {
	p, err := c.part(mt)
	if err != nil {
		return 0, err
	}
	if it.MediaType != mt {
		return 0, fmt.Errorf("item %q is %s: %w", it.Name, it.MediaType, ErrWrongMediaType)
	}
	col, ok := p.cols.get(colID)
	if !ok {
		return 0, notFound(mt, KindCollection, colID)
	}
	if col.Playlist {
		return 0, fmt.Errorf("playlist %q cannot own items: %w", col.Name, ErrWrongDataKind)
	}

	it.UniqueID = newUniqueID(it.UniqueID)
	id, err := p.items.insert(&it, false, 1)
	if err != nil {
		return 0, err
	}
	col.Items = append(col.Items, id)
	p.itemOwner[id] = colID
	p.finalizeCollection(col)
	p.finalizeOwner(colID)
	p.touch()
	return id, nil
}

func (p *partition) playlist(id ID) (*Collection, error) {
	col, ok := p.cols.get(id)
	if !ok {
		return nil, notFound(p.mt, KindCollection, id)
	}
	if !col.Playlist {
		return nil, fmt.Errorf("collection %q: %w", col.Name, ErrNotAPlaylist)
	}
	return col, nil
}

// AddPlaylistItem appends a reference to an existing item. The item's owner
// is unchanged.
func (c *Catalog) AddPlaylistItem(mt MediaType, playlistID, itemID ID) error {
	_, err := c.addPlaylistItem(mt, playlistID, itemID, false)
	return err
}

// AddPlaylistItemUnique is AddPlaylistItem that skips items already present.
// It reports whether the item was added.
func (c *Catalog) AddPlaylistItemUnique(mt MediaType, playlistID, itemID ID) (bool, error) {
	return c.addPlaylistItem(mt, playlistID, itemID, true)
}

func (c *Catalog) addPlaylistItem(mt MediaType, playlistID, itemID ID, dedupe bool) (bool, error) {
	p, err := c.part(mt)
	if err != nil {
		return false, err
	}
	col, err := p.playlist(playlistID)
	if err != nil {
		return false, err
	}
	if _, ok := p.items.get(itemID); !ok {
		return false, notFound(mt, KindItem, itemID)
	}
	if dedupe && col.HasItem(itemID) {
		return false, nil
	}
	col.Items = append(col.Items, itemID)
	p.finalizeCollection(col)
	p.finalizeOwner(playlistID)
	p.touch()
	return true, nil
}

// RemovePlaylistItemAt drops the reference at index (0-based). The item
// itself stays in the catalog.
func (c *Catalog) RemovePlaylistItemAt(mt MediaType, playlistID ID, index int) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	col, err := p.playlist(playlistID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(col.Items) {
		return fmt.Errorf("playlist %q index %d: %w", col.Name, index, ErrNotFound)
	}
	col.Items = slices.Delete(col.Items, index, index+1)
	p.finalizeCollection(col)
	p.finalizeOwner(playlistID)
	p.touch()
	return nil
}

// MoveItem reorders an item within a collection. Cookies encoded before the
// move no longer point at the same item.
func (c *Catalog) MoveItem(mt MediaType, colID ID, from, to int) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	col, ok := p.cols.get(colID)
	if !ok {
		return notFound(mt, KindCollection, colID)
	}
	items, err := move(col.Items, from, to)
	if err != nil {
		return fmt.Errorf("collection %q: %w", col.Name, err)
	}
	col.Items = items
	// the audio format comes from the first item carrying one
	p.finalizeCollection(col)
	p.finalizeOwner(colID)
	p.touch()
	return nil
}

// MoveCollection reorders a collection within its title set
func (c *Catalog) MoveCollection(mt MediaType, setID ID, from, to int) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	ts, ok := p.sets.get(setID)
	if !ok {
		return notFound(mt, KindTitleSet, setID)
	}
	cols, err := move(ts.Collections, from, to)
	if err != nil {
		return fmt.Errorf("title set %q: %w", ts.Name, err)
	}
	ts.Collections = cols
	p.finalizeTitleSet(ts)
	p.touch()
	return nil
}

// SetCollectionCategories replaces the category memberships of a collection.
// The implicit all/playlists memberships are always kept.
func (c *Catalog) SetCollectionCategories(mt MediaType, colID ID, cats []ID) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	col, ok := p.cols.get(colID)
	if !ok {
		return notFound(mt, KindCollection, colID)
	}
	for _, cat := range cats {
		if _, ok := p.cats.get(cat); !ok {
			return fmt.Errorf("collection %q: %w", col.Name, notFound(mt, KindCategory, cat))
		}
	}
	next := Collection{Playlist: col.Playlist, Categories: slices.Clone(cats)}
	enroll(&next)
	col.Categories = next.Categories
	p.touch()
	return nil
}

func move(ids []ID, from, to int) ([]ID, error) {
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return nil, fmt.Errorf("move %d -> %d of %d: %w", from, to, len(ids), ErrNotFound)
	}
	id := ids[from]
	out := slices.Delete(slices.Clone(ids), from, from+1)
	return slices.Insert(out, to, id), nil
}

// ---- validation ----

// Validate checks the structural invariants of one partition and returns
// every violation found, joined
func (c *Catalog) Validate(mt MediaType) error {
	p, err := c.part(mt)
	if err != nil {
		return err
	}
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	checkIndex(p.cats, add)
	checkIndex(p.images, add)
	checkIndex(p.items, add)
	checkIndex(p.cols, add)
	checkIndex(p.sets, add)

	itemOwners := make(map[ID]ID)
	for _, col := range p.cols.byID {
		if !col.InCategory(CategoryAll) {
			add("collection %d not in the all category", col.ID)
		}
		for _, item := range col.Items {
			if _, ok := p.items.get(item); !ok {
				add("collection %d references missing item %d", col.ID, item)
			}
			if col.Playlist {
				continue
			}
			if prev, ok := itemOwners[item]; ok {
				add("item %d owned by collections %d and %d", item, prev, col.ID)
			}
			itemOwners[item] = col.ID
		}
	}

	colOwners := make(map[ID]int)
	for _, ts := range p.sets.byID {
		for _, col := range ts.Collections {
			colOwners[col]++
		}
	}
	for _, col := range p.cols.byID {
		if !col.Playlist && colOwners[col.ID] != 1 {
			add("collection %d owned by %d title sets", col.ID, colOwners[col.ID])
		}
	}
	return errors.Join(errs...)
}

func checkIndex[T any, P record[T]](x *index[T, P], add func(string, ...any)) {
	if !slices.IsSortedFunc(x.byID, x.compare) {
		add("%s index not sorted by id", x.kind)
	}
	if len(x.byUID) != len(x.byID) {
		add("%s index has %d ids but %d unique ids", x.kind, len(x.byID), len(x.byUID))
	}
	for _, p := range x.byID {
		if p.surrogateID() == 0 {
			add("%s with zero id", x.kind)
		}
		if q, ok := x.byUID[p.uniqueKey()]; !ok || any(q) != any(p) {
			add("%s %d unique id %q does not resolve back", x.kind, p.surrogateID(), p.uniqueKey())
		}
	}
}
