package util

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// StableKey derives a unique id from the parts that identify a record across
// imports, e.g. album artist and album name. Parts are NFC-normalized,
// lowercased and trimmed first, so cosmetic tag differences map to one key.
func StableKey(prefix string, parts ...string) string {
	h := sha1.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(strings.ToLower(strings.TrimSpace(norm.NFC.String(part)))))
	}
	return fmt.Sprintf("%s-%x", prefix, h.Sum(nil)[:10])
}

// FileKey creates a stable key for a media file from its path, size and
// mtime. It changes when the file is replaced in place.
func FileKey(path string, size int64, mtimeUnix int64) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s:%d:%d", norm.NFC.String(path), size, mtimeUnix)
	return fmt.Sprintf("file-%x", h.Sum(nil)[:10])
}
