// Package catalog is the in-memory media metadata engine: categories, images,
// items, collections and title sets for each media type, the indices that
// hold them and the fix-ups that keep cross references consistent.
//
// A Catalog has no internal locking. The owner serializes access; to refresh
// from a slow source, build a second Catalog, call LoadComplete on it and
// move it into the live one with TakeFrom.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/franz/media-catalog/internal/util"
	"github.com/google/uuid"
)

// partition holds everything for one media type
type partition struct {
	mt     MediaType
	cats   *index[Category, *Category]
	images *index[Image, *Image]
	items  *index[Item, *Item]
	cols   *index[Collection, *Collection]
	sets   *index[TitleSet, *TitleSet]

	// reverse ownership, maintained at the add/update/remove chokepoints
	itemOwner map[ID]ID // item -> owning (non-playlist) collection
	colOwner  map[ID]ID // collection -> owning title set

	artists      []ArtistEntry
	artistsDirty bool

	complete bool // LoadComplete has run on this partition
}

func newPartition(mt MediaType) *partition {
	return &partition{
		mt:           mt,
		cats:         newIndex[Category](KindCategory),
		images:       newIndex[Image](KindImage),
		items:        newIndex[Item](KindItem),
		cols:         newIndex[Collection](KindCollection),
		sets:         newIndex[TitleSet](KindTitleSet),
		itemOwner:    make(map[ID]ID),
		colOwner:     make(map[ID]ID),
		artistsDirty: true,
	}
}

// touch invalidates derived views after any mutation
func (p *partition) touch() {
	p.artistsDirty = true
	p.artists = nil
}

// Catalog holds one partition per media type
type Catalog struct {
	parts [mediaTypeCount]*partition
}

// New creates an empty catalog with the built-in categories in place
func New() *Catalog {
	c := NewBare()
	for _, mt := range MediaTypes {
		c.parts[mt].ensureBuiltins()
	}
	return c
}

// NewBare creates a catalog without built-in categories. Loaders use it so
// that the built-ins can be taken from the dump with their stored ids.
func NewBare() *Catalog {
	c := &Catalog{}
	for _, mt := range MediaTypes {
		c.parts[mt] = newPartition(mt)
	}
	return c
}

// Complete reports whether every partition has been through LoadComplete,
// either here or in the catalog it was taken from
func (c *Catalog) Complete() bool {
	for _, p := range c.parts {
		if !p.complete {
			return false
		}
	}
	return true
}

func (c *Catalog) part(mt MediaType) (*partition, error) {
	if !mt.Valid() {
		return nil, fmt.Errorf("media type %d: %w", mt, ErrWrongMediaType)
	}
	return c.parts[mt], nil
}

// AllCategoryName returns the name of the implicit "all" category for mt
func AllCategoryName(mt MediaType) string {
	switch mt {
	case MediaMovie:
		return "All Movies"
	case MediaPicture:
		return "All Pictures"
	}
	return "All Music"
}

// BuiltinUniqueID derives the unique id of a built-in category from its name
func BuiltinUniqueID(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

func builtinCategories(mt MediaType) []Category {
	all := AllCategoryName(mt)
	return []Category{
		{ID: CategoryAll, UniqueID: BuiltinUniqueID(all), MediaType: mt, Name: all},
		{ID: CategoryPlaylists, UniqueID: BuiltinUniqueID("Playlists"), MediaType: mt, Name: "Playlists"},
	}
}

// isBuiltinCategory reports whether id is one ensureBuiltins provides
func isBuiltinCategory(id ID) bool {
	return id == CategoryAll || id == CategoryPlaylists
}

func (p *partition) ensureBuiltins() {
	for _, cat := range builtinCategories(p.mt) {
		if _, ok := p.cats.get(cat.ID); ok {
			continue
		}
		if _, err := p.cats.insert(&cat, true, FirstUserCategory); err != nil {
			util.WarnLog("Built-in category %q not restored: %v", cat.Name, err)
		}
	}
}

func fetch[T interface{ Clone() T }, P record[T]](x *index[T, P], id ID) (T, bool) {
	p, ok := x.get(id)
	if !ok {
		var zero T
		return zero, false
	}
	return (*p).Clone(), true
}

func fetchUID[T interface{ Clone() T }, P record[T]](x *index[T, P], uid string) (T, bool) {
	p, ok := x.getUID(uid)
	if !ok {
		var zero T
		return zero, false
	}
	return (*p).Clone(), true
}

func notFound(mt MediaType, kind DataKind, id ID) error {
	return fmt.Errorf("%s %s id %d: %w", mt, kind, id, ErrNotFound)
}

func newUniqueID(uid string) string {
	if uid == "" {
		return uuid.NewString()
	}
	return uid
}

// ---- categories ----

// AddCategory inserts a category. Unless takeID is set the id is allocated
// above the reserved built-in range.
func (c *Catalog) AddCategory(cat Category, takeID bool) (ID, error) {
	p, err := c.part(cat.MediaType)
	if err != nil {
		return 0, err
	}
	cat.UniqueID = newUniqueID(cat.UniqueID)
	id, err := p.cats.insert(&cat, takeID, FirstUserCategory)
	if err != nil {
		return 0, err
	}
	p.touch()
	return id, nil
}

// Category returns a detached copy of the category
func (c *Catalog) Category(mt MediaType, id ID) (Category, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Category{}, false
	}
	return fetch(p.cats, id)
}

// CategoryByUniqueID returns a detached copy of the category
func (c *Catalog) CategoryByUniqueID(mt MediaType, uid string) (Category, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Category{}, false
	}
	return fetchUID(p.cats, uid)
}

// LookupCategory is the strict form of Category
func (c *Catalog) LookupCategory(mt MediaType, id ID) (Category, error) {
	if cat, ok := c.Category(mt, id); ok {
		return cat, nil
	}
	return Category{}, notFound(mt, KindCategory, id)
}

// UpdateCategory commits an edited copy
func (c *Catalog) UpdateCategory(cat Category) error {
	p, err := c.part(cat.MediaType)
	if err != nil {
		return err
	}
	if err := p.cats.replace(&cat); err != nil {
		return err
	}
	p.touch()
	return nil
}

// ---- images ----

// AddImage inserts an image record
func (c *Catalog) AddImage(img Image, takeID bool) (ID, error) {
	p, err := c.part(img.MediaType)
	if err != nil {
		return 0, err
	}
	img = img.Clone()
	img.UniqueID = newUniqueID(img.UniqueID)
	id, err := p.images.insert(&img, takeID, 1)
	if err != nil {
		return 0, err
	}
	p.touch()
	return id, nil
}

// Image returns a detached copy of the image
func (c *Catalog) Image(mt MediaType, id ID) (Image, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Image{}, false
	}
	return fetch(p.images, id)
}

// ImageByUniqueID returns a detached copy of the image
func (c *Catalog) ImageByUniqueID(mt MediaType, uid string) (Image, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Image{}, false
	}
	return fetchUID(p.images, uid)
}

// LookupImage is the strict form of Image
func (c *Catalog) LookupImage(mt MediaType, id ID) (Image, error) {
	if img, ok := c.Image(mt, id); ok {
		return img, nil
	}
	return Image{}, notFound(mt, KindImage, id)
}

// UpdateImage commits an edited copy
func (c *Catalog) UpdateImage(img Image) error {
	p, err := c.part(img.MediaType)
	if err != nil {
		return err
	}
	img = img.Clone()
	if err := p.images.replace(&img); err != nil {
		return err
	}
	p.touch()
	return nil
}

// ---- items ----

// AddItem inserts a free-standing item. It becomes owned once a collection
// lists it; see also AddItemToCollection.
func (c *Catalog) AddItem(it Item, takeID bool) (ID, error) {
	p, err := c.part(it.MediaType)
	if err != nil {
		return 0, err
	}
	it.UniqueID = newUniqueID(it.UniqueID)
	id, err := p.items.insert(&it, takeID, 1)
	if err != nil {
		return 0, err
	}
	p.touch()
	return id, nil
}

// Item returns a detached copy of the item
func (c *Catalog) Item(mt MediaType, id ID) (Item, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Item{}, false
	}
	return fetch(p.items, id)
}

// ItemByUniqueID returns a detached copy of the item
func (c *Catalog) ItemByUniqueID(mt MediaType, uid string) (Item, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Item{}, false
	}
	return fetchUID(p.items, uid)
}

// LookupItem is the strict form of Item
func (c *Catalog) LookupItem(mt MediaType, id ID) (Item, error) {
	if it, ok := c.Item(mt, id); ok {
		return it, nil
	}
	return Item{}, notFound(mt, KindItem, id)
}

// ItemOwner returns the id of the ordinary collection that owns the item
func (c *Catalog) ItemOwner(mt MediaType, id ID) (ID, bool) {
	p, err := c.part(mt)
	if err != nil {
		return 0, false
	}
	owner, ok := p.itemOwner[id]
	return owner, ok
}

// UpdateItem commits an edited copy and re-finalizes every collection that
// references the item.
func (c *Catalog) UpdateItem(it Item) error {
	p, err := c.part(it.MediaType)
	if err != nil {
		return err
	}
	if err := p.items.replace(&it); err != nil {
		return err
	}
	for _, col := range p.cols.byID {
		if col.HasItem(it.ID) {
			p.finalizeCollection(col)
			p.finalizeOwner(col.ID)
		}
	}
	p.touch()
	return nil
}

// ---- collections ----

// checkCollection validates the references of col against p without
// mutating anything. self is the id the collection will have (0 for new).
func (p *partition) checkCollection(col *Collection, self ID) error {
	seen := make(map[ID]bool, len(col.Items))
	for _, id := range col.Items {
		if _, ok := p.items.get(id); !ok {
			return fmt.Errorf("collection %q: %w", col.Name, notFound(p.mt, KindItem, id))
		}
		if col.Playlist {
			continue
		}
		if seen[id] {
			return fmt.Errorf("collection %q lists item %d twice: %w", col.Name, id, ErrDuplicateID)
		}
		seen[id] = true
		if owner, ok := p.itemOwner[id]; ok && owner != self {
			return fmt.Errorf("collection %q item %d owned by collection %d: %w", col.Name, id, owner, ErrOwned)
		}
	}
	for _, cat := range col.Categories {
		if _, ok := p.cats.get(cat); !ok && !isBuiltinCategory(cat) {
			return fmt.Errorf("collection %q: %w", col.Name, notFound(p.mt, KindCategory, cat))
		}
	}
	if col.ArtID != 0 {
		if _, ok := p.images.get(col.ArtID); !ok {
			return fmt.Errorf("collection %q art: %w", col.Name, notFound(p.mt, KindImage, col.ArtID))
		}
	}
	return nil
}

// enroll adds the implicit categories and normalizes the category set
func enroll(col *Collection) {
	col.Categories = append(col.Categories, CategoryAll)
	if col.Playlist {
		col.Categories = append(col.Categories, CategoryPlaylists)
	}
	slices.Sort(col.Categories)
	col.Categories = slices.Compact(col.Categories)
}

// AddCollection inserts a collection. Ordinary collections take ownership of
// the listed items; playlists only reference them.
func (c *Catalog) AddCollection(col Collection, takeID bool) (ID, error) {
	p, err := c.part(col.MediaType)
	if err != nil {
		return 0, err
	}

	col = col.Clone()
	col.UniqueID = newUniqueID(col.UniqueID)
	enroll(&col)
	if err := p.checkCollection(&col, 0); err != nil {
		return 0, err
	}
	id, err := p.cols.insert(&col, takeID, 1)
	if err != nil {
		return 0, err
	}
	p.ensureBuiltins()

	stored, _ := p.cols.get(id)
	if !stored.Playlist {
		for _, item := range stored.Items {
			p.itemOwner[item] = id
		}
	}
	p.finalizeCollection(stored)
	p.touch()
	return id, nil
}

// Collection returns a detached copy of the collection
func (c *Catalog) Collection(mt MediaType, id ID) (Collection, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Collection{}, false
	}
	return fetch(p.cols, id)
}

// CollectionByUniqueID returns a detached copy of the collection
func (c *Catalog) CollectionByUniqueID(mt MediaType, uid string) (Collection, bool) {
	p, err := c.part(mt)
	if err != nil {
		return Collection{}, false
	}
	return fetchUID(p.cols, uid)
}

// LookupCollection is the strict form of Collection
func (c *Catalog) LookupCollection(mt MediaType, id ID) (Collection, error) {
	if col, ok := c.Collection(mt, id); ok {
		return col, nil
	}
	return Collection{}, notFound(mt, KindCollection, id)
}

// CollectionOwner returns the id of the title set that owns the collection
func (c *Catalog) CollectionOwner(mt MediaType, id ID) (ID, bool) {
	p, err := c.part(mt)
	if err != nil {
		return 0, false
	}
	owner, ok := p.colOwner[id]
	return owner, ok
}

// UpdateCollection commits an edited copy. The playlist flag cannot change.
func (c *Catalog) UpdateCollection(col Collection) error {
	p, err := c.part(col.MediaType)
	if err != nil {
		return err
	}
	cur, ok := p.cols.get(col.ID)
	if !ok {
		return fmt.Errorf("collection id %d: %w", col.ID, ErrUpdateRejected)
	}
	if cur.Playlist != col.Playlist {
		return fmt.Errorf("collection %q playlist flag changed: %w", col.Name, ErrUpdateRejected)
	}

	col = col.Clone()
	enroll(&col)
	if err := p.checkCollection(&col, col.ID); err != nil {
		return err
	}
	oldItems := slices.Clone(cur.Items)
	if err := p.cols.replace(&col); err != nil {
		return err
	}

	if !col.Playlist {
		for _, item := range oldItems {
			delete(p.itemOwner, item)
		}
		for _, item := range col.Items {
			p.itemOwner[item] = col.ID
		}
	}
	p.finalizeCollection(cur)
	p.finalizeOwner(col.ID)
	p.touch()
	return nil
}

// ---- title sets ----

func (p *partition) checkTitleSet(ts *TitleSet, self ID) error {
	seen := make(map[ID]bool, len(ts.Collections))
	for _, id := range ts.Collections {
		if _, ok := p.cols.get(id); !ok {
			return fmt.Errorf("title set %q: %w", ts.Name, notFound(p.mt, KindCollection, id))
		}
		if seen[id] {
			return fmt.Errorf("title set %q lists collection %d twice: %w", ts.Name, id, ErrDuplicateID)
		}
		seen[id] = true
		if owner, ok := p.colOwner[id]; ok && owner != self {
			return fmt.Errorf("title set %q collection %d owned by set %d: %w", ts.Name, id, owner, ErrOwned)
		}
	}
	if ts.ArtID != 0 {
		if _, ok := p.images.get(ts.ArtID); !ok {
			return fmt.Errorf("title set %q art: %w", ts.Name, notFound(p.mt, KindImage, ts.ArtID))
		}
	}
	return nil
}

// AddTitleSet inserts a title set that owns the listed collections
func (c *Catalog) AddTitleSet(ts TitleSet, takeID bool) (ID, error) {
	p, err := c.part(ts.MediaType)
	if err != nil {
		return 0, err
	}
	ts = ts.Clone()
	ts.UniqueID = newUniqueID(ts.UniqueID)
	if err := p.checkTitleSet(&ts, 0); err != nil {
		return 0, err
	}
	id, err := p.sets.insert(&ts, takeID, 1)
	if err != nil {
		return 0, err
	}

	stored, _ := p.sets.get(id)
	for _, col := range stored.Collections {
		p.colOwner[col] = id
	}
	p.finalizeTitleSet(stored)
	p.touch()
	return id, nil
}

// TitleSet returns a detached copy of the title set
func (c *Catalog) TitleSet(mt MediaType, id ID) (TitleSet, bool) {
	p, err := c.part(mt)
	if err != nil {
		return TitleSet{}, false
	}
	return fetch(p.sets, id)
}

// TitleSetByUniqueID returns a detached copy of the title set
func (c *Catalog) TitleSetByUniqueID(mt MediaType, uid string) (TitleSet, bool) {
	p, err := c.part(mt)
	if err != nil {
		return TitleSet{}, false
	}
	return fetchUID(p.sets, uid)
}

// LookupTitleSet is the strict form of TitleSet
func (c *Catalog) LookupTitleSet(mt MediaType, id ID) (TitleSet, error) {
	if ts, ok := c.TitleSet(mt, id); ok {
		return ts, nil
	}
	return TitleSet{}, notFound(mt, KindTitleSet, id)
}

// UpdateTitleSet commits an edited copy
func (c *Catalog) UpdateTitleSet(ts TitleSet) error {
	p, err := c.part(ts.MediaType)
	if err != nil {
		return err
	}
	cur, ok := p.sets.get(ts.ID)
	if !ok {
		return fmt.Errorf("title set id %d: %w", ts.ID, ErrUpdateRejected)
	}
	ts = ts.Clone()
	if err := p.checkTitleSet(&ts, ts.ID); err != nil {
		return err
	}
	oldCols := slices.Clone(cur.Collections)
	if err := p.sets.replace(&ts); err != nil {
		return err
	}

	for _, col := range oldCols {
		delete(p.colOwner, col)
	}
	for _, col := range ts.Collections {
		p.colOwner[col] = ts.ID
	}
	p.finalizeTitleSet(cur)
	p.touch()
	return nil
}
