package catalog

import "slices"

// ID is a surrogate id, unique within a (media type, kind) partition.
// Zero is never assigned.
type ID uint16

// MaxID is the highest surrogate id the catalog will hand out
const MaxID ID = 0xFFFF

// MediaType partitions the catalog
type MediaType uint8

const (
	MediaMusic MediaType = iota
	MediaMovie
	MediaPicture

	mediaTypeCount
)

// MediaTypes lists every media type in dump order
var MediaTypes = []MediaType{MediaMusic, MediaMovie, MediaPicture}

// Tag returns the short name used in cookies and dumps
func (m MediaType) Tag() string {
	switch m {
	case MediaMusic:
		return "Music"
	case MediaMovie:
		return "Movie"
	case MediaPicture:
		return "Pic"
	}
	return "?"
}

func (m MediaType) String() string {
	return m.Tag()
}

// Valid reports whether m names a known media type
func (m MediaType) Valid() bool {
	return m < mediaTypeCount
}

// Flag returns the bit used for m in a MediaFlags set
func (m MediaType) Flag() MediaFlags {
	return 1 << MediaFlags(m)
}

// ParseMediaTag maps a cookie tag back to its media type
func ParseMediaTag(tag string) (MediaType, bool) {
	for _, mt := range MediaTypes {
		if mt.Tag() == tag {
			return mt, true
		}
	}
	return 0, false
}

// MediaFlags is a bitset of media types
type MediaFlags uint32

const (
	FlagMusic   MediaFlags = 1 << MediaMusic
	FlagMovie   MediaFlags = 1 << MediaMovie
	FlagPicture MediaFlags = 1 << MediaPicture

	FlagAll = FlagMusic | FlagMovie | FlagPicture
)

// Has reports whether mt is in the set
func (f MediaFlags) Has(mt MediaType) bool {
	return f&mt.Flag() != 0
}

// DataKind identifies one of the five entity kinds
type DataKind uint8

const (
	KindCategory DataKind = iota + 1
	KindImage
	KindItem
	KindCollection
	KindTitleSet
)

func (k DataKind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindImage:
		return "image"
	case KindItem:
		return "item"
	case KindCollection:
		return "collection"
	case KindTitleSet:
		return "title set"
	}
	return "unknown"
}

// LocKind describes how a collection's Location string is interpreted
type LocKind uint8

const (
	// LocFileCol: the collection location is a single file or directory
	LocFileCol LocKind = iota
	// LocFileItem: each item carries its own location
	LocFileItem
	// LocChanger: location is "moniker.slot" on changer hardware
	LocChanger
)

// Built-in category ids. Ids below FirstUserCategory are reserved.
const (
	CategoryAll       ID = 1
	CategoryPlaylists ID = 2

	FirstUserCategory ID = 10
)

// VariousArtists is used when children disagree on the artist
const VariousArtists = "Various Artists"

// Category groups collections. Membership lives on the collection.
type Category struct {
	ID        ID
	UniqueID  string
	MediaType MediaType
	Name      string
}

// Builtin reports whether the category is one of the fixed categories
func (c Category) Builtin() bool {
	return c.ID != 0 && c.ID < FirstUserCategory
}

func (c Category) Clone() Category { return c }

// Art is one cover-art payload. Data may be empty when only the size and
// source path are known.
type Art struct {
	Path string
	Size uint32
	Data []byte
}

// Len returns the payload byte length
func (a Art) Len() uint32 {
	if len(a.Data) > 0 {
		return uint32(len(a.Data))
	}
	return a.Size
}

// Present reports whether this art slot is populated
func (a Art) Present() bool {
	return a.Len() > 0 || a.Path != ""
}

func (a Art) clone() Art {
	a.Data = slices.Clone(a.Data)
	return a
}

// Image holds up to three art payloads
type Image struct {
	ID        ID
	UniqueID  string
	MediaType MediaType
	Large     Art
	Small     Art
	Poster    Art
}

// ArtCount returns how many of the art slots are populated
func (i Image) ArtCount() int {
	n := 0
	for _, a := range []Art{i.Large, i.Small, i.Poster} {
		if a.Present() {
			n++
		}
	}
	return n
}

func (i Image) Clone() Image {
	i.Large = i.Large.clone()
	i.Small = i.Small.clone()
	i.Poster = i.Poster.clone()
	return i
}

// AudioFormat holds the per-track audio properties
type AudioFormat struct {
	BitDepth   uint32
	BitRate    uint32
	Channels   uint32
	SampleRate uint32
}

func (f AudioFormat) zero() bool {
	return f == AudioFormat{}
}

// Item is a single track, chapter or picture
type Item struct {
	ID        ID
	UniqueID  string
	MediaType MediaType
	Name      string
	Artist    string
	Duration  uint32 // seconds
	Format    AudioFormat
	Location  string
}

func (i Item) Clone() Item { return i }

// Collection is an album, movie disc or picture folder. Ordinary collections
// own their items; playlists only reference them.
type Collection struct {
	ID          ID
	UniqueID    string
	MediaType   MediaType
	Name        string
	Artist      string
	Year        uint16
	Rating      uint8
	Label       string
	Description string
	Location    string
	LocKind     LocKind
	Items       []ID
	Categories  []ID
	Playlist    bool
	ArtID       ID

	// Aggregated by FinalizeCollection
	Duration uint32
	Format   AudioFormat
}

// InCategory reports whether the collection is a member of cat
func (c Collection) InCategory(cat ID) bool {
	_, ok := slices.BinarySearch(c.Categories, cat)
	return ok
}

// HasItem reports whether the collection references id
func (c Collection) HasItem(id ID) bool {
	return slices.Contains(c.Items, id)
}

func (c Collection) Clone() Collection {
	c.Items = slices.Clone(c.Items)
	c.Categories = slices.Clone(c.Categories)
	return c
}

// TitleSet is the top-level container, e.g. a multi-disc album
type TitleSet struct {
	ID          ID
	UniqueID    string
	MediaType   MediaType
	Name        string
	Artist      string
	SeqNum      uint32
	UserRating  uint8
	Collections []ID
	ArtID       ID

	// Aggregated by FinalizeTitleSet
	Duration  uint32
	ItemCount uint32
}

func (t TitleSet) Clone() TitleSet {
	t.Collections = slices.Clone(t.Collections)
	return t
}

// index adapters

func (c *Category) surrogateID() ID { return c.ID }
func (c *Category) setSurrogateID(id ID) { c.ID = id }
func (c *Category) uniqueKey() string { return c.UniqueID }
func (i *Image) surrogateID() ID { return i.ID }
func (i *Image) setSurrogateID(id ID) { i.ID = id }
func (i *Image) uniqueKey() string { return i.UniqueID }
func (i *Item) surrogateID() ID { return i.ID }
func (i *Item) setSurrogateID(id ID) { i.ID = id }
func (i *Item) uniqueKey() string { return i.UniqueID }
func (c *Collection) surrogateID() ID { return c.ID }
func (c *Collection) setSurrogateID(id ID) { c.ID = id }
func (c *Collection) uniqueKey() string { return c.UniqueID }
func (t *TitleSet) surrogateID() ID { return t.ID }
func (t *TitleSet) setSurrogateID(id ID) { t.ID = id }
func (t *TitleSet) uniqueKey() string { return t.UniqueID }
