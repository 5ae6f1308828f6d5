package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Resolved is the entity chain a cookie names. Deeper links are nil when
// the cookie stops above them.
type Resolved struct {
	Cookie     Cookie
	Category   Category
	TitleSet   *TitleSet
	Collection *Collection
	Item       *Item
}

// Resolve decodes a cookie and looks up every entity on its path
func (c *Catalog) Resolve(cookie string) (Resolved, error) {
	ck, err := DecodeCookie(cookie)
	if err != nil {
		return Resolved{}, err
	}
	p, err := c.part(ck.MediaType)
	if err != nil {
		return Resolved{}, err
	}

	res := Resolved{Cookie: ck}
	cat, ok := fetch(p.cats, ck.CategoryID)
	if !ok {
		return res, notFound(ck.MediaType, KindCategory, ck.CategoryID)
	}
	res.Category = cat
	if ck.Kind == CookieCategory {
		return res, nil
	}

	ts, ok := fetch(p.sets, ck.TitleID)
	if !ok {
		return res, notFound(ck.MediaType, KindTitleSet, ck.TitleID)
	}
	if !p.setInCategory(&ts, ck.CategoryID) {
		return res, fmt.Errorf("title set %d not in category %d: %w", ts.ID, ck.CategoryID, ErrNotFound)
	}
	res.TitleSet = &ts
	if ck.Kind == CookieTitle {
		return res, nil
	}

	if int(ck.CollectionIndex) > len(ts.Collections) {
		return res, fmt.Errorf("title set %d has no collection #%d: %w", ts.ID, ck.CollectionIndex, ErrNotFound)
	}
	colID := ts.Collections[ck.CollectionIndex-1]
	col, ok := fetch(p.cols, colID)
	if !ok {
		return res, notFound(ck.MediaType, KindCollection, colID)
	}
	res.Collection = &col
	if ck.Kind == CookieCollection {
		return res, nil
	}

	if int(ck.ItemIndex) > len(col.Items) {
		return res, fmt.Errorf("collection %d has no item #%d: %w", col.ID, ck.ItemIndex, ErrNotFound)
	}
	itemID := col.Items[ck.ItemIndex-1]
	it, ok := fetch(p.items, itemID)
	if !ok {
		return res, notFound(ck.MediaType, KindItem, itemID)
	}
	res.Item = &it
	return res, nil
}

func (p *partition) setInCategory(ts *TitleSet, cat ID) bool {
	for _, id := range ts.Collections {
		if col, ok := p.cols.get(id); ok && col.InCategory(cat) {
			return true
		}
	}
	return false
}

// CollectionCookie returns the cookie of a stored collection as seen
// through category cat
func (c *Catalog) CollectionCookie(mt MediaType, cat, colID ID) (Cookie, error) {
	p, err := c.part(mt)
	if err != nil {
		return Cookie{}, err
	}
	setID, ok := p.colOwner[colID]
	if !ok {
		return Cookie{}, fmt.Errorf("collection %d has no title set: %w", colID, ErrNotFound)
	}
	ts, _ := p.sets.get(setID)
	pos := slices.Index(ts.Collections, colID)
	return CollectionCookieAt(mt, cat, setID, uint16(pos+1)), nil
}

// ItemCookie returns the cookie of an item within collection colID
func (c *Catalog) ItemCookie(mt MediaType, cat, colID, itemID ID) (Cookie, error) {
	ck, err := c.CollectionCookie(mt, cat, colID)
	if err != nil {
		return Cookie{}, err
	}
	col, _ := c.parts[mt].cols.get(colID)
	pos := slices.Index(col.Items, itemID)
	if pos < 0 {
		return Cookie{}, fmt.Errorf("collection %d does not list item %d: %w", colID, itemID, ErrNotFound)
	}
	return ItemCookieAt(mt, cat, ck.TitleID, ck.CollectionIndex, uint16(pos+1)), nil
}

// ---- enumeration ----

// Categories returns the categories passing keep (nil keeps all) in id order
func (c *Catalog) Categories(mt MediaType, keep func(Category) bool) []Category {
	p, err := c.part(mt)
	if err != nil {
		return nil
	}
	return collect(p.cats, keep, nil)
}

// NonEmptyCategories returns categories with at least one title set
func (c *Catalog) NonEmptyCategories(mt MediaType) []Category {
	p, err := c.part(mt)
	if err != nil {
		return nil
	}
	used := make(map[ID]bool)
	for _, col := range p.cols.byID {
		if _, owned := p.colOwner[col.ID]; !owned {
			continue
		}
		for _, cat := range col.Categories {
			used[cat] = true
		}
	}
	return collect(p.cats, func(cat Category) bool { return used[cat.ID] }, nil)
}

// Collections returns the collections passing keep, ordered by order (nil
// keeps id order)
func (c *Catalog) Collections(mt MediaType, keep func(Collection) bool, order func(a, b Collection) int) []Collection {
	p, err := c.part(mt)
	if err != nil {
		return nil
	}
	return collect(p.cols, keep, order)
}

// TitleSets returns the title sets passing keep, ordered by order
func (c *Catalog) TitleSets(mt MediaType, keep func(TitleSet) bool, order func(a, b TitleSet) int) []TitleSet {
	p, err := c.part(mt)
	if err != nil {
		return nil
	}
	return collect(p.sets, keep, order)
}

// Items returns the items passing keep in id order
func (c *Catalog) Items(mt MediaType, keep func(Item) bool) []Item {
	p, err := c.part(mt)
	if err != nil {
		return nil
	}
	return collect(p.items, keep, nil)
}

// Images returns the images passing keep in id order
func (c *Catalog) Images(mt MediaType, keep func(Image) bool) []Image {
	p, err := c.part(mt)
	if err != nil {
		return nil
	}
	return collect(p.images, keep, nil)
}

func collect[T interface{ Clone() T }, P record[T]](x *index[T, P], keep func(T) bool, order func(a, b T) int) []T {
	out := make([]T, 0, x.len())
	for _, p := range x.byID {
		if keep != nil && !keep(*p) {
			continue
		}
		out = append(out, (*p).Clone())
	}
	if order != nil {
		slices.SortStableFunc(out, order)
	}
	return out
}

// TitleSetsInCategory returns the title sets having at least one collection
// in cat. Membership is derived, never stored.
func (c *Catalog) TitleSetsInCategory(mt MediaType, cat ID) ([]TitleSet, error) {
	p, err := c.part(mt)
	if err != nil {
		return nil, err
	}
	if _, ok := p.cats.get(cat); !ok {
		return nil, notFound(mt, KindCategory, cat)
	}
	return collect(p.sets, func(ts TitleSet) bool { return p.setInCategory(&ts, cat) }, nil), nil
}

// CollectionsOf returns a title set's collections in stored order
func (c *Catalog) CollectionsOf(mt MediaType, setID ID) ([]Collection, error) {
	ts, err := c.LookupTitleSet(mt, setID)
	if err != nil {
		return nil, err
	}
	out := make([]Collection, 0, len(ts.Collections))
	for _, id := range ts.Collections {
		col, err := c.LookupCollection(mt, id)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

// ItemsOf returns a collection's items in stored order
func (c *Catalog) ItemsOf(mt MediaType, colID ID) ([]Item, error) {
	col, err := c.LookupCollection(mt, colID)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(col.Items))
	for _, id := range col.Items {
		it, err := c.LookupItem(mt, id)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// ByName orders collections case-insensitively by name
func ByName(a, b Collection) int {
	return cmp.Or(
		strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		cmp.Compare(a.ID, b.ID),
	)
}

// ByArtist orders collections by artist, then name
func ByArtist(a, b Collection) int {
	return cmp.Or(
		strings.Compare(strings.ToLower(a.Artist), strings.ToLower(b.Artist)),
		ByName(a, b),
	)
}

// ByYear orders collections by year, then name
func ByYear(a, b Collection) int {
	return cmp.Or(cmp.Compare(a.Year, b.Year), ByName(a, b))
}

// ---- location lookups ----

// FindCollectionByLocation returns the first collection with the given location
func (c *Catalog) FindCollectionByLocation(mt MediaType, loc string) (Collection, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Collection{}, false
	}
	for _, col := range p.cols.byID {
		if col.Location == loc {
			return col.Clone(), true
		}
	}
	return Collection{}, false
}

// CollectionByLocation is the strict form of FindCollectionByLocation
func (c *Catalog) CollectionByLocation(mt MediaType, loc string) (Collection, error) {
	if col, ok := c.FindCollectionByLocation(mt, loc); ok {
		return col, nil
	}
	return Collection{}, fmt.Errorf("%s collection at %q: %w", mt, loc, ErrNotFound)
}

// FindItemByLocation returns the first item with the given location
func (c *Catalog) FindItemByLocation(mt MediaType, loc string) (Item, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Item{}, false
	}
	for _, it := range p.items.byID {
		if it.Location == loc {
			return *it, true
		}
	}
	return Item{}, false
}

// ItemByLocation is the strict form of FindItemByLocation
func (c *Catalog) ItemByLocation(mt MediaType, loc string) (Item, error) {
	if it, ok := c.FindItemByLocation(mt, loc); ok {
		return it, nil
	}
	return Item{}, fmt.Errorf("%s item at %q: %w", mt, loc, ErrNotFound)
}

// ---- changer slots ----

// SlotInfo reports which slots of a changer hold a collection
type SlotInfo struct {
	Occupied *bitset.BitSet
	Names    map[uint]string
}

// QuerySlots scans changer collections located at "moniker.slot" and marks
// their slots. Names are filled only when withNames is set.
func (c *Catalog) QuerySlots(mt MediaType, moniker string, withNames bool) (SlotInfo, error) {
	p, err := c.part(mt)
	if err != nil {
		return SlotInfo{}, err
	}
	info := SlotInfo{Occupied: bitset.New(0)}
	if withNames {
		info.Names = make(map[uint]string)
	}
	for _, col := range p.cols.byID {
		if col.LocKind != LocChanger {
			continue
		}
		slot, ok := changerSlot(col.Location, moniker)
		if !ok {
			continue
		}
		info.Occupied.Set(slot)
		if withNames {
			info.Names[slot] = col.Name
		}
	}
	return info, nil
}

// changerSlot parses "moniker.N"
func changerSlot(loc, moniker string) (uint, bool) {
	name, num, ok := strings.Cut(loc, ".")
	if !ok || !strings.EqualFold(name, moniker) {
		return 0, false
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}

// ---- stats ----

// Stats holds simple per-media-type counts
type Stats struct {
	MediaType   MediaType
	Categories  int
	TitleSets   int
	Collections int
	Playlists   int
	Items       int
	Images      int
	ArtPieces   int
	ArtBytes    uint64
}

// Stats counts the entities of one media type
func (c *Catalog) Stats(mt MediaType) (Stats, error) {
	p, err := c.part(mt)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		MediaType:   mt,
		Categories:  p.cats.len(),
		TitleSets:   p.sets.len(),
		Collections: p.cols.len(),
		Items:       p.items.len(),
		Images:      p.images.len(),
	}
	for _, col := range p.cols.byID {
		if col.Playlist {
			st.Playlists++
		}
	}
	for _, img := range p.images.byID {
		st.ArtPieces += img.ArtCount()
		st.ArtBytes += uint64(img.Large.Len()) + uint64(img.Small.Len()) + uint64(img.Poster.Len())
	}
	return st, nil
}

// ---- by-artist view ----

// ArtistEntry groups the collections and title sets credited to one artist
type ArtistEntry struct {
	Artist      string
	Collections []ID
	TitleSets   []ID
}

// ArtistView returns the by-artist index, rebuilding it if any mutation has
// happened since it was last built
func (c *Catalog) ArtistView(mt MediaType) ([]ArtistEntry, error) {
	p, err := c.part(mt)
	if err != nil {
		return nil, err
	}
	if !p.complete {
		return nil, fmt.Errorf("artist view: %w", ErrNotComplete)
	}
	if p.artistsDirty {
		p.artists = p.buildArtistView()
		p.artistsDirty = false
	}

	out := make([]ArtistEntry, len(p.artists))
	for i, e := range p.artists {
		out[i] = ArtistEntry{
			Artist:      e.Artist,
			Collections: slices.Clone(e.Collections),
			TitleSets:   slices.Clone(e.TitleSets),
		}
	}
	return out, nil
}

func (p *partition) buildArtistView() []ArtistEntry {
	byArtist := make(map[string]*ArtistEntry)
	for _, col := range p.cols.byID {
		if col.Playlist || col.Artist == "" {
			continue
		}
		e, ok := byArtist[col.Artist]
		if !ok {
			e = &ArtistEntry{Artist: col.Artist}
			byArtist[col.Artist] = e
		}
		e.Collections = append(e.Collections, col.ID)
		if setID, ok := p.colOwner[col.ID]; ok && !slices.Contains(e.TitleSets, setID) {
			e.TitleSets = append(e.TitleSets, setID)
		}
	}

	out := make([]ArtistEntry, 0, len(byArtist))
	for _, e := range byArtist {
		slices.Sort(e.TitleSets)
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b ArtistEntry) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Artist), strings.ToLower(b.Artist)),
			strings.Compare(a.Artist, b.Artist),
		)
	})
	return out
}
