package dump

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/util"
)

// FormatVersion is the newest binary and XML format this package reads
const FormatVersion uint16 = 1

const (
	frameMarker byte = 0xF0
	endMarker   byte = 0xF1
)

// record kind tags, written in this order inside each media type frame
const (
	tagImage      byte = 1
	tagCategory   byte = 2
	tagItem       byte = 3
	tagCollection byte = 4
	tagTitleSet   byte = 5
)

// Header is the dump preamble. Serial is opaque and round-tripped unchanged.
type Header struct {
	Version uint16
	Serial  string
	Flags   catalog.MediaFlags
}

// EncodeBinary writes every media type selected by flags. Records are
// written in id order; aggregates are not stored and get recomputed on load.
func EncodeBinary(c *catalog.Catalog, serial string, flags catalog.MediaFlags) ([]byte, error) {
	e := &encoder{}
	e.u16(FormatVersion)
	e.str(serial)
	e.u32(uint32(flags))

	for _, mt := range catalog.MediaTypes {
		if !flags.Has(mt) {
			continue
		}
		e.u8(frameMarker)
		e.u8(uint8(mt))

		images := c.Images(mt, nil)
		e.u8(tagImage)
		e.u32(uint32(len(images)))
		for _, img := range images {
			encodeImage(e, img)
			e.u8(frameMarker)
		}

		cats := c.Categories(mt, nil)
		e.u8(tagCategory)
		e.u32(uint32(len(cats)))
		for _, cat := range cats {
			e.id(cat.ID)
			e.str(cat.UniqueID)
			e.str(cat.Name)
			e.u8(frameMarker)
		}

		items := c.Items(mt, nil)
		e.u8(tagItem)
		e.u32(uint32(len(items)))
		for _, it := range items {
			encodeItem(e, it)
			e.u8(frameMarker)
		}

		cols := c.Collections(mt, nil, nil)
		e.u8(tagCollection)
		e.u32(uint32(len(cols)))
		for _, col := range cols {
			encodeCollection(e, col)
			e.u8(frameMarker)
		}

		sets := c.TitleSets(mt, nil, nil)
		e.u8(tagTitleSet)
		e.u32(uint32(len(sets)))
		for _, ts := range sets {
			encodeTitleSet(e, ts)
			e.u8(frameMarker)
		}
	}
	e.u8(endMarker)

	util.DebugLog("Encoded binary dump: %s, flags %#x", humanize.Bytes(uint64(len(e.buf))), uint32(flags))
	return e.buf, nil
}

func encodeArt(e *encoder, a catalog.Art) {
	e.str(a.Path)
	e.u32(a.Size)
	e.bytes(a.Data)
}

func encodeImage(e *encoder, img catalog.Image) {
	e.id(img.ID)
	e.str(img.UniqueID)
	encodeArt(e, img.Large)
	encodeArt(e, img.Small)
	encodeArt(e, img.Poster)
}

func encodeFormat(e *encoder, f catalog.AudioFormat) {
	e.u32(f.BitDepth)
	e.u32(f.BitRate)
	e.u32(f.Channels)
	e.u32(f.SampleRate)
}

func encodeItem(e *encoder, it catalog.Item) {
	e.id(it.ID)
	e.str(it.UniqueID)
	e.str(it.Name)
	e.str(it.Artist)
	e.u32(it.Duration)
	encodeFormat(e, it.Format)
	e.str(it.Location)
}

func encodeCollection(e *encoder, col catalog.Collection) {
	e.id(col.ID)
	e.str(col.UniqueID)
	e.str(col.Name)
	e.str(col.Artist)
	e.u16(col.Year)
	e.u8(col.Rating)
	e.str(col.Label)
	e.str(col.Description)
	e.str(col.Location)
	e.u8(uint8(col.LocKind))
	e.ids(col.Items)
	e.ids(col.Categories)
	e.flag(col.Playlist)
	e.id(col.ArtID)
}

func encodeTitleSet(e *encoder, ts catalog.TitleSet) {
	e.id(ts.ID)
	e.str(ts.UniqueID)
	e.str(ts.Name)
	e.str(ts.Artist)
	e.u32(ts.SeqNum)
	e.u8(ts.UserRating)
	e.ids(ts.Collections)
	e.id(ts.ArtID)
}

// DecodeBinary parses a binary dump into a fresh catalog and runs
// LoadComplete on it
func DecodeBinary(data []byte) (*catalog.Catalog, Header, error) {
	d := &decoder{data: data}
	var h Header
	h.Version = d.u16()
	if d.err == nil && (h.Version == 0 || h.Version > FormatVersion) {
		return nil, h, fmt.Errorf("version %d, newest supported %d: %w", h.Version, FormatVersion, ErrFormat)
	}
	h.Serial = d.str()
	h.Flags = catalog.MediaFlags(d.u32())
	if d.err != nil {
		return nil, h, d.err
	}

	c := catalog.NewBare()
	seen := catalog.MediaFlags(0)
	for d.err == nil {
		at := d.off
		marker := d.u8()
		if d.err != nil {
			break
		}
		if marker == endMarker {
			break
		}
		if marker != frameMarker {
			d.fail("expected frame marker at offset %d, got 0x%02x", at, marker)
			break
		}
		mt := catalog.MediaType(d.u8())
		if d.err != nil {
			break
		}
		if !mt.Valid() || !h.Flags.Has(mt) || seen.Has(mt) {
			d.fail("unexpected media type frame %d at offset %d", mt, at)
			break
		}
		seen |= mt.Flag()
		decodeFrame(d, c, mt)
	}
	if d.err == nil && seen != h.Flags {
		d.fail("header flags %#x but frames for %#x", uint32(h.Flags), uint32(seen))
	}
	if d.err == nil && d.off != len(data) {
		d.fail("%d trailing bytes after end marker", len(data)-d.off)
	}
	if d.err != nil {
		return nil, h, d.err
	}

	c.LoadComplete()
	util.DebugLog("Decoded binary dump: %s, serial %q", humanize.Bytes(uint64(len(data))), h.Serial)
	return c, h, nil
}

// decodeFrame reads the five record lists of one media type
func decodeFrame(d *decoder, c *catalog.Catalog, mt catalog.MediaType) {
	list := func(tag byte, minSize int, read func()) {
		at := d.off
		if got := d.u8(); d.err == nil && got != tag {
			d.fail("expected record kind %d at offset %d, got %d", tag, at, got)
		}
		n := d.length(minSize)
		for i := 0; i < n && d.err == nil; i++ {
			read()
			d.expect(frameMarker, "record terminator")
		}
	}
	add := func(what string, id catalog.ID, err error) {
		if err != nil && d.err == nil {
			d.err = fmt.Errorf("%s %s %d: %w: %w", mt, what, id, err, ErrFormat)
		}
	}

	list(tagImage, 3, func() {
		img := catalog.Image{MediaType: mt, ID: d.id(), UniqueID: d.str()}
		img.Large = decodeArt(d)
		img.Small = decodeArt(d)
		img.Poster = decodeArt(d)
		if d.err == nil {
			_, err := c.AddImage(img, true)
			add("image", img.ID, err)
		}
	})
	list(tagCategory, 3, func() {
		cat := catalog.Category{MediaType: mt, ID: d.id(), UniqueID: d.str(), Name: d.str()}
		if d.err == nil {
			_, err := c.AddCategory(cat, true)
			add("category", cat.ID, err)
		}
	})
	list(tagItem, 3, func() {
		it := catalog.Item{MediaType: mt, ID: d.id(), UniqueID: d.str(), Name: d.str(), Artist: d.str()}
		it.Duration = d.u32()
		it.Format = decodeFormat(d)
		it.Location = d.str()
		if d.err == nil {
			_, err := c.AddItem(it, true)
			add("item", it.ID, err)
		}
	})
	list(tagCollection, 3, func() {
		col := catalog.Collection{MediaType: mt, ID: d.id(), UniqueID: d.str(), Name: d.str(), Artist: d.str()}
		col.Year = d.u16()
		col.Rating = d.u8()
		col.Label = d.str()
		col.Description = d.str()
		col.Location = d.str()
		col.LocKind = catalog.LocKind(d.u8())
		col.Items = d.ids()
		col.Categories = d.ids()
		col.Playlist = d.flag()
		col.ArtID = d.id()
		if d.err == nil {
			_, err := c.AddCollection(col, true)
			add("collection", col.ID, err)
		}
	})
	list(tagTitleSet, 3, func() {
		ts := catalog.TitleSet{MediaType: mt, ID: d.id(), UniqueID: d.str(), Name: d.str(), Artist: d.str()}
		ts.SeqNum = d.u32()
		ts.UserRating = d.u8()
		ts.Collections = d.ids()
		ts.ArtID = d.id()
		if d.err == nil {
			_, err := c.AddTitleSet(ts, true)
			add("title set", ts.ID, err)
		}
	})
}

func decodeArt(d *decoder) catalog.Art {
	return catalog.Art{Path: d.str(), Size: d.u32(), Data: d.bytes()}
}

func decodeFormat(d *decoder) catalog.AudioFormat {
	return catalog.AudioFormat{BitDepth: d.u32(), BitRate: d.u32(), Channels: d.u32(), SampleRate: d.u32()}
}

// LoadBinary decodes a dump and, only if decoding succeeds, replaces each
// media type partition of dst named in the header flags
func LoadBinary(dst *catalog.Catalog, data []byte) (Header, error) {
	scratch, h, err := DecodeBinary(data)
	if err != nil {
		return h, err
	}
	return h, swapIn(dst, scratch, h.Flags)
}

func swapIn(dst, scratch *catalog.Catalog, flags catalog.MediaFlags) error {
	for _, mt := range catalog.MediaTypes {
		if !flags.Has(mt) {
			continue
		}
		if err := dst.TakeMedia(scratch, mt); err != nil {
			return err
		}
	}
	return nil
}
