package dump

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"
)

const envelopeHeader = 8

// Compress wraps raw in the envelope: u32 raw length, u32 complement of the
// raw length, snappy block payload
func Compress(raw []byte) []byte {
	out := make([]byte, envelopeHeader, envelopeHeader+snappy.MaxEncodedLen(len(raw)))
	n := uint32(len(raw))
	binary.LittleEndian.PutUint32(out[0:4], n)
	binary.LittleEndian.PutUint32(out[4:8], ^n)
	return append(out, snappy.Encode(nil, raw)...)
}

// Decompress checks the envelope before trusting any length in it and
// fails with ErrCorruptDump on any mismatch
func Decompress(data []byte) ([]byte, error) {
	if len(data) < envelopeHeader {
		return nil, fmt.Errorf("envelope of %d bytes: %w", len(data), ErrCorruptDump)
	}
	raw := binary.LittleEndian.Uint32(data[0:4])
	check := binary.LittleEndian.Uint32(data[4:8])
	if raw != ^check {
		return nil, fmt.Errorf("length check %#08x does not match %#08x: %w", check, raw, ErrCorruptDump)
	}

	payload := data[envelopeHeader:]
	n, err := snappy.DecodedLen(payload)
	if err != nil {
		return nil, fmt.Errorf("payload header: %v: %w", err, ErrCorruptDump)
	}
	if uint32(n) != raw || n < 0 {
		return nil, fmt.Errorf("payload inflates to %d bytes, envelope says %d: %w", n, raw, ErrCorruptDump)
	}
	out, err := snappy.Decode(make([]byte, n), payload)
	if err != nil {
		return nil, fmt.Errorf("payload: %v: %w", err, ErrCorruptDump)
	}
	if uint32(len(out)) != raw {
		return nil, fmt.Errorf("inflated %d bytes, envelope says %d: %w", len(out), raw, ErrCorruptDump)
	}
	return out, nil
}

// IsCompressed reports whether data starts with a valid envelope header
func IsCompressed(data []byte) bool {
	if len(data) < envelopeHeader {
		return false
	}
	return binary.LittleEndian.Uint32(data[0:4]) == ^binary.LittleEndian.Uint32(data[4:8])
}
