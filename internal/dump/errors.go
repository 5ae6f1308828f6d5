// Package dump serializes a catalog to the binary and XML dump formats and
// wraps binary dumps in a compressed envelope.
//
// Loads always build into a scratch catalog and move it into the target
// only when the whole dump decoded cleanly.
package dump

import "errors"

var (
	// ErrFormat is returned for bad markers, mismatched record kinds,
	// truncated input or a version newer than FormatVersion
	ErrFormat = errors.New("dump format error")

	// ErrCorruptDump is returned when the compressed envelope fails its
	// length check or does not inflate to the advertised size
	ErrCorruptDump = errors.New("corrupt dump")
)
