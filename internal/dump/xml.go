package dump

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/util"
)

type xmlDB struct {
	XMLName    xml.Name       `xml:"MediaDB"`
	FmtVer     uint16         `xml:"FmtVer,attr"`
	SerialNum  string         `xml:"SerialNum,attr"`
	MediaTypes uint32         `xml:"MediaTypes,attr"`
	Types      []xmlMediaType `xml:"MediaType"`
}

type xmlMediaType struct {
	Tag         string         `xml:"Tag,attr"`
	Images      xmlImages      `xml:"Images"`
	Categories  xmlCategories  `xml:"Categories"`
	Items       xmlItems       `xml:"Items"`
	Collections xmlCollections `xml:"Collections"`
	Sets        xmlSets        `xml:"Sets"`
}

type xmlImages struct {
	Count int        `xml:"Count,attr"`
	List  []xmlImage `xml:"Image"`
}

type xmlArt struct {
	Path string `xml:"Path,attr,omitempty"`
	Size uint32 `xml:"Size,attr,omitempty"`
	Data string `xml:",chardata"`
}

type xmlImage struct {
	ID     catalog.ID `xml:"ID,attr"`
	UID    string     `xml:"UID,attr"`
	Large  *xmlArt    `xml:"Large,omitempty"`
	Small  *xmlArt    `xml:"Small,omitempty"`
	Poster *xmlArt    `xml:"Poster,omitempty"`
}

type xmlCategories struct {
	Count int           `xml:"Count,attr"`
	List  []xmlCategory `xml:"Category"`
}

type xmlCategory struct {
	ID   catalog.ID `xml:"ID,attr"`
	UID  string     `xml:"UID,attr"`
	Name string     `xml:"Name,attr"`
}

type xmlItems struct {
	Count int       `xml:"Count,attr"`
	List  []xmlItem `xml:"Item"`
}

type xmlItem struct {
	ID         catalog.ID `xml:"ID,attr"`
	UID        string     `xml:"UID,attr"`
	Name       string     `xml:"Name,attr"`
	Artist     string     `xml:"Artist,attr,omitempty"`
	Duration   uint32     `xml:"Duration,attr"`
	BitDepth   uint32     `xml:"BitDepth,attr,omitempty"`
	BitRate    uint32     `xml:"BitRate,attr,omitempty"`
	Channels   uint32     `xml:"Channels,attr,omitempty"`
	SampleRate uint32     `xml:"SampleRate,attr,omitempty"`
	Location   string     `xml:"Location,attr,omitempty"`
}

type xmlCollections struct {
	Count int             `xml:"Count,attr"`
	List  []xmlCollection `xml:"Collection"`
}

type xmlCollection struct {
	ID          catalog.ID `xml:"ID,attr"`
	UID         string     `xml:"UID,attr"`
	Name        string     `xml:"Name,attr"`
	Artist      string     `xml:"Artist,attr,omitempty"`
	Year        uint16     `xml:"Year,attr,omitempty"`
	Rating      uint8      `xml:"Rating,attr,omitempty"`
	Label       string     `xml:"Label,attr,omitempty"`
	Location    string     `xml:"Location,attr,omitempty"`
	LocKind     uint8      `xml:"LocKind,attr"`
	Playlist    bool       `xml:"Playlist,attr,omitempty"`
	ArtID       catalog.ID `xml:"ArtID,attr,omitempty"`
	Duration    uint32     `xml:"Duration,attr"`
	Description string     `xml:"Description,omitempty"`
	Items       string     `xml:"Items"`
	Categories  string     `xml:"Categories"`
}

type xmlSets struct {
	Count int      `xml:"Count,attr"`
	List  []xmlSet `xml:"Set"`
}

type xmlSet struct {
	ID          catalog.ID `xml:"ID,attr"`
	UID         string     `xml:"UID,attr"`
	Name        string     `xml:"Name,attr"`
	Artist      string     `xml:"Artist,attr,omitempty"`
	SeqNum      uint32     `xml:"SeqNum,attr,omitempty"`
	UserRating  uint8      `xml:"UserRating,attr,omitempty"`
	ArtID       catalog.ID `xml:"ArtID,attr,omitempty"`
	Duration    uint32     `xml:"Duration,attr"`
	ItemCount   uint32     `xml:"ItemCount,attr"`
	Collections string     `xml:"Collections"`
}

// EncodeXML renders the selected media types as an indented XML document.
// Aggregates are written for external readers and ignored on load.
func EncodeXML(c *catalog.Catalog, serial string, flags catalog.MediaFlags) ([]byte, error) {
	db := xmlDB{FmtVer: FormatVersion, SerialNum: serial, MediaTypes: uint32(flags)}
	for _, mt := range catalog.MediaTypes {
		if flags.Has(mt) {
			db.Types = append(db.Types, toXML(c, mt))
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(db); err != nil {
		return nil, fmt.Errorf("failed to encode xml: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func toXML(c *catalog.Catalog, mt catalog.MediaType) xmlMediaType {
	out := xmlMediaType{Tag: mt.Tag()}

	for _, img := range c.Images(mt, nil) {
		out.Images.List = append(out.Images.List, xmlImage{
			ID:     img.ID,
			UID:    img.UniqueID,
			Large:  artToXML(img.Large),
			Small:  artToXML(img.Small),
			Poster: artToXML(img.Poster),
		})
	}
	for _, cat := range c.Categories(mt, nil) {
		out.Categories.List = append(out.Categories.List, xmlCategory{ID: cat.ID, UID: cat.UniqueID, Name: cat.Name})
	}
	for _, it := range c.Items(mt, nil) {
		out.Items.List = append(out.Items.List, xmlItem{
			ID:         it.ID,
			UID:        it.UniqueID,
			Name:       it.Name,
			Artist:     it.Artist,
			Duration:   it.Duration,
			BitDepth:   it.Format.BitDepth,
			BitRate:    it.Format.BitRate,
			Channels:   it.Format.Channels,
			SampleRate: it.Format.SampleRate,
			Location:   it.Location,
		})
	}
	for _, col := range c.Collections(mt, nil, nil) {
		out.Collections.List = append(out.Collections.List, xmlCollection{
			ID:          col.ID,
			UID:         col.UniqueID,
			Name:        col.Name,
			Artist:      col.Artist,
			Year:        col.Year,
			Rating:      col.Rating,
			Label:       col.Label,
			Location:    col.Location,
			LocKind:     uint8(col.LocKind),
			Playlist:    col.Playlist,
			ArtID:       col.ArtID,
			Duration:    col.Duration,
			Description: col.Description,
			Items:       formatIDs(col.Items),
			Categories:  formatIDs(col.Categories),
		})
	}
	for _, ts := range c.TitleSets(mt, nil, nil) {
		out.Sets.List = append(out.Sets.List, xmlSet{
			ID:          ts.ID,
			UID:         ts.UniqueID,
			Name:        ts.Name,
			Artist:      ts.Artist,
			SeqNum:      ts.SeqNum,
			UserRating:  ts.UserRating,
			ArtID:       ts.ArtID,
			Duration:    ts.Duration,
			ItemCount:   ts.ItemCount,
			Collections: formatIDs(ts.Collections),
		})
	}

	out.Images.Count = len(out.Images.List)
	out.Categories.Count = len(out.Categories.List)
	out.Items.Count = len(out.Items.List)
	out.Collections.Count = len(out.Collections.List)
	out.Sets.Count = len(out.Sets.List)
	return out
}

func artToXML(a catalog.Art) *xmlArt {
	if !a.Present() {
		return nil
	}
	return &xmlArt{Path: a.Path, Size: a.Size, Data: base64.StdEncoding.EncodeToString(a.Data)}
}

func artFromXML(x *xmlArt) (catalog.Art, error) {
	if x == nil {
		return catalog.Art{}, nil
	}
	a := catalog.Art{Path: x.Path, Size: x.Size}
	if s := strings.TrimSpace(x.Data); s != "" {
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return a, fmt.Errorf("art data: %v: %w", err, ErrFormat)
		}
		a.Data = data
	}
	return a, nil
}

func formatIDs(ids []catalog.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, " ")
}

func parseIDs(s string) ([]catalog.ID, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]catalog.ID, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("id list %q: %v: %w", s, err, ErrFormat)
		}
		out[i] = catalog.ID(v)
	}
	return out, nil
}

// DecodeXML parses an XML dump into a fresh catalog and runs LoadComplete
func DecodeXML(data []byte) (*catalog.Catalog, Header, error) {
	var db xmlDB
	if err := xml.Unmarshal(data, &db); err != nil {
		return nil, Header{}, fmt.Errorf("%v: %w", err, ErrFormat)
	}
	h := Header{Version: db.FmtVer, Serial: db.SerialNum, Flags: catalog.MediaFlags(db.MediaTypes)}
	if h.Version == 0 || h.Version > FormatVersion {
		return nil, h, fmt.Errorf("version %d, newest supported %d: %w", h.Version, FormatVersion, ErrFormat)
	}

	c := catalog.NewBare()
	seen := catalog.MediaFlags(0)
	for _, block := range db.Types {
		mt, ok := catalog.ParseMediaTag(block.Tag)
		if !ok || !h.Flags.Has(mt) || seen.Has(mt) {
			return nil, h, fmt.Errorf("unexpected media type block %q: %w", block.Tag, ErrFormat)
		}
		seen |= mt.Flag()
		if err := fromXML(c, mt, block); err != nil {
			// conflicting records make the dump malformed as a whole
			if !errors.Is(err, ErrFormat) {
				err = fmt.Errorf("%w: %w", err, ErrFormat)
			}
			return nil, h, fmt.Errorf("%s: %w", mt, err)
		}
	}
	if seen != h.Flags {
		return nil, h, fmt.Errorf("header media types %#x but blocks for %#x: %w", uint32(h.Flags), uint32(seen), ErrFormat)
	}

	c.LoadComplete()
	util.DebugLog("Decoded xml dump: %d media types, serial %q", len(db.Types), h.Serial)
	return c, h, nil
}

func checkCount(what string, count, n int) error {
	if count != n {
		return fmt.Errorf("%s count %d but %d entries: %w", what, count, n, ErrFormat)
	}
	return nil
}

func fromXML(c *catalog.Catalog, mt catalog.MediaType, block xmlMediaType) error {
	if err := checkCount("images", block.Images.Count, len(block.Images.List)); err != nil {
		return err
	}
	for _, x := range block.Images.List {
		img := catalog.Image{ID: x.ID, UniqueID: x.UID, MediaType: mt}
		var err error
		if img.Large, err = artFromXML(x.Large); err != nil {
			return err
		}
		if img.Small, err = artFromXML(x.Small); err != nil {
			return err
		}
		if img.Poster, err = artFromXML(x.Poster); err != nil {
			return err
		}
		if _, err := c.AddImage(img, true); err != nil {
			return err
		}
	}

	if err := checkCount("categories", block.Categories.Count, len(block.Categories.List)); err != nil {
		return err
	}
	for _, x := range block.Categories.List {
		if _, err := c.AddCategory(catalog.Category{ID: x.ID, UniqueID: x.UID, MediaType: mt, Name: x.Name}, true); err != nil {
			return err
		}
	}

	if err := checkCount("items", block.Items.Count, len(block.Items.List)); err != nil {
		return err
	}
	for _, x := range block.Items.List {
		it := catalog.Item{
			ID:        x.ID,
			UniqueID:  x.UID,
			MediaType: mt,
			Name:      x.Name,
			Artist:    x.Artist,
			Duration:  x.Duration,
			Format: catalog.AudioFormat{
				BitDepth:   x.BitDepth,
				BitRate:    x.BitRate,
				Channels:   x.Channels,
				SampleRate: x.SampleRate,
			},
			Location: x.Location,
		}
		if _, err := c.AddItem(it, true); err != nil {
			return err
		}
	}

	if err := checkCount("collections", block.Collections.Count, len(block.Collections.List)); err != nil {
		return err
	}
	for _, x := range block.Collections.List {
		items, err := parseIDs(x.Items)
		if err != nil {
			return err
		}
		cats, err := parseIDs(x.Categories)
		if err != nil {
			return err
		}
		col := catalog.Collection{
			ID:          x.ID,
			UniqueID:    x.UID,
			MediaType:   mt,
			Name:        x.Name,
			Artist:      x.Artist,
			Year:        x.Year,
			Rating:      x.Rating,
			Label:       x.Label,
			Description: x.Description,
			Location:    x.Location,
			LocKind:     catalog.LocKind(x.LocKind),
			Items:       items,
			Categories:  cats,
			Playlist:    x.Playlist,
			ArtID:       x.ArtID,
		}
		if _, err := c.AddCollection(col, true); err != nil {
			return err
		}
	}

	if err := checkCount("sets", block.Sets.Count, len(block.Sets.List)); err != nil {
		return err
	}
	for _, x := range block.Sets.List {
		cols, err := parseIDs(x.Collections)
		if err != nil {
			return err
		}
		ts := catalog.TitleSet{
			ID:          x.ID,
			UniqueID:    x.UID,
			MediaType:   mt,
			Name:        x.Name,
			Artist:      x.Artist,
			SeqNum:      x.SeqNum,
			UserRating:  x.UserRating,
			Collections: cols,
			ArtID:       x.ArtID,
		}
		if _, err := c.AddTitleSet(ts, true); err != nil {
			return err
		}
	}
	return nil
}

// LoadXML decodes an XML dump and swaps it into dst on success
func LoadXML(dst *catalog.Catalog, data []byte) (Header, error) {
	scratch, h, err := DecodeXML(data)
	if err != nil {
		return h, err
	}
	return h, swapIn(dst, scratch, h.Flags)
}
