package main

import (
	"bytes"
	"fmt"

	"github.com/franz/media-catalog/internal/catalog"
	"github.com/franz/media-catalog/internal/dump"
	"github.com/franz/media-catalog/internal/store"
	"github.com/franz/media-catalog/internal/util"
	"github.com/google/uuid"
)

const (
	formatBinary = "binary"
	formatXML    = "xml"
)

// encodeCatalog serializes c into a snapshot ready to be saved or written
// out. The serial is fresh for every dump.
func encodeCatalog(c *catalog.Catalog, format string, flags catalog.MediaFlags, compress bool) (*store.Snapshot, error) {
	serial := uuid.NewString()

	var raw []byte
	var err error
	switch format {
	case formatBinary, "bin", "":
		format = formatBinary
		raw, err = dump.EncodeBinary(c, serial, flags)
	case formatXML:
		raw, err = dump.EncodeXML(c, serial, flags)
	default:
		return nil, fmt.Errorf("unknown dump format %q (use binary or xml)", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	snap := &store.Snapshot{
		Serial:     serial,
		MediaFlags: flags,
		Format:     format,
		RawLen:     int64(len(raw)),
		Blob:       raw,
	}
	if compress {
		snap.Blob = dump.Compress(raw)
		snap.Compressed = true
	}
	return snap, nil
}

// decodeDump reads a dump of either format, compressed or not
func decodeDump(data []byte) (*catalog.Catalog, dump.Header, string, error) {
	if dump.IsCompressed(data) {
		raw, err := dump.Decompress(data)
		if err != nil {
			return nil, dump.Header{}, "", err
		}
		data = raw
	}
	if isXMLDump(data) {
		c, h, err := dump.DecodeXML(data)
		return c, h, formatXML, err
	}
	c, h, err := dump.DecodeBinary(data)
	return c, h, formatBinary, err
}

func isXMLDump(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\ufeff"), []byte("<"))
}

// decodeSnapshot rebuilds the catalog stored in snap
func decodeSnapshot(snap *store.Snapshot) (*catalog.Catalog, dump.Header, error) {
	data := snap.Blob
	if snap.Compressed {
		raw, err := dump.Decompress(data)
		if err != nil {
			return nil, dump.Header{}, fmt.Errorf("snapshot %d: %w", snap.ID, err)
		}
		data = raw
	}

	var c *catalog.Catalog
	var h dump.Header
	var err error
	switch snap.Format {
	case formatXML:
		c, h, err = dump.DecodeXML(data)
	default:
		c, h, err = dump.DecodeBinary(data)
	}
	if err != nil {
		return nil, h, fmt.Errorf("snapshot %d: %w", snap.ID, err)
	}
	return c, h, nil
}

// loadLatest returns the catalog of the newest snapshot, or an empty loaded
// catalog when the database holds none
func loadLatest(db *store.Store) (*catalog.Catalog, *store.Snapshot, error) {
	snap, err := db.LatestSnapshot()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read latest snapshot: %w", err)
	}
	if snap == nil {
		util.DebugLog("No snapshot stored yet, starting from an empty catalog")
		c := catalog.New()
		c.LoadComplete()
		return c, nil, nil
	}

	c, h, err := decodeSnapshot(snap)
	if err != nil {
		return nil, nil, err
	}
	util.DebugLog("Loaded snapshot %d (serial %s, flags %#x)", snap.ID, h.Serial, uint32(h.Flags))
	return c, snap, nil
}
