package catalog

import "errors"

// Sentinel errors returned by catalog operations. They are usually wrapped
// with context, so compare with errors.Is.
var (
	// ErrNotFound indicates an id, unique id or location did not resolve
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates an insert with an id that is already present
	ErrDuplicateID = errors.New("duplicate id")

	// ErrDuplicateUniqueID indicates an insert with a unique id that is already present
	ErrDuplicateUniqueID = errors.New("duplicate unique id")

	// ErrWrongMediaType indicates an entity or cookie for another partition
	ErrWrongMediaType = errors.New("wrong media type")

	// ErrWrongDataKind indicates a handle for another entity kind
	ErrWrongDataKind = errors.New("wrong data kind")

	// ErrMalformedCookie indicates a cookie that does not match the grammar
	ErrMalformedCookie = errors.New("malformed cookie")

	// ErrNotAPlaylist indicates a playlist-only edit on an ordinary collection
	ErrNotAPlaylist = errors.New("not a playlist")

	// ErrUpdateRejected indicates an update whose id and unique id do not
	// resolve to the same stored record
	ErrUpdateRejected = errors.New("update rejected")

	// ErrIDSpaceExhausted indicates the 16-bit id space is used up
	ErrIDSpaceExhausted = errors.New("id space exhausted")

	// ErrNotComplete indicates a query that needs finalized aggregates was
	// issued before LoadComplete ran
	ErrNotComplete = errors.New("catalog load not complete")

	// ErrOwned indicates an item or collection already has an owner
	ErrOwned = errors.New("already owned")
)
