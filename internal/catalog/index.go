package catalog

import (
	"cmp"
	"fmt"
	"slices"
)

// record is implemented by pointers to the five entity structs
type record[T any] interface {
	*T
	surrogateID() ID
	setSurrogateID(ID)
	uniqueKey() string
}

// index keeps a by-id view sorted for binary search and a by-unique-id hash
// view. Both are only touched through insert/remove/replace.
type index[T any, P record[T]] struct {
	kind  DataKind
	byID  []P
	byUID map[string]P
}

func newIndex[T any, P record[T]](kind DataKind) *index[T, P] {
	return &index[T, P]{
		kind:  kind,
		byUID: make(map[string]P),
	}
}

func (x *index[T, P]) len() int {
	return len(x.byID)
}

func (x *index[T, P]) search(id ID) (int, bool) {
	return slices.BinarySearchFunc(x.byID, id, func(p P, id ID) int {
		return cmp.Compare(p.surrogateID(), id)
	})
}

func (x *index[T, P]) get(id ID) (P, bool) {
	if i, ok := x.search(id); ok {
		return x.byID[i], true
	}
	var zero P
	return zero, false
}

func (x *index[T, P]) getUID(uid string) (P, bool) {
	p, ok := x.byUID[uid]
	return p, ok
}

// maxID returns the highest id present, or 0 if empty
func (x *index[T, P]) maxID() ID {
	var hi ID
	for _, p := range x.byID {
		hi = max(hi, p.surrogateID())
	}
	return hi
}

// nextID returns highest+1, never below floor. Ids are not recycled.
func (x *index[T, P]) nextID(floor ID) (ID, error) {
	hi := x.maxID()
	if hi == MaxID {
		return 0, fmt.Errorf("%s: %w", x.kind, ErrIDSpaceExhausted)
	}
	return max(hi+1, floor), nil
}

// checkInsert validates p without mutating the index. A zero id with takeID
// set is treated as a request for allocation.
func (x *index[T, P]) checkInsert(p P, takeID bool) error {
	if _, ok := x.byUID[p.uniqueKey()]; ok {
		return fmt.Errorf("%s %q: %w", x.kind, p.uniqueKey(), ErrDuplicateUniqueID)
	}
	if takeID && p.surrogateID() != 0 {
		if _, ok := x.search(p.surrogateID()); ok {
			return fmt.Errorf("%s id %d: %w", x.kind, p.surrogateID(), ErrDuplicateID)
		}
	}
	return nil
}

// insert adds p, assigning an id unless takeID is set
func (x *index[T, P]) insert(p P, takeID bool, floor ID) (ID, error) {
	if err := x.checkInsert(p, takeID); err != nil {
		return 0, err
	}
	if !takeID || p.surrogateID() == 0 {
		id, err := x.nextID(floor)
		if err != nil {
			return 0, err
		}
		p.setSurrogateID(id)
	}

	at, _ := x.search(p.surrogateID())
	x.byID = slices.Insert(x.byID, at, p)
	x.byUID[p.uniqueKey()] = p
	return p.surrogateID(), nil
}

func (x *index[T, P]) remove(id ID) (P, bool) {
	i, ok := x.search(id)
	if !ok {
		var zero P
		return zero, false
	}
	p := x.byID[i]
	x.byID = slices.Delete(x.byID, i, i+1)
	delete(x.byUID, p.uniqueKey())
	return p, true
}

// replace overwrites the stored record in place. The id and unique id of p
// must both resolve to the same stored record.
func (x *index[T, P]) replace(p P) error {
	cur, ok := x.get(p.surrogateID())
	if !ok {
		return fmt.Errorf("%s id %d: %w", x.kind, p.surrogateID(), ErrUpdateRejected)
	}
	other, ok := x.byUID[p.uniqueKey()]
	if !ok || any(cur) != any(other) {
		return fmt.Errorf("%s id %d / %q: %w", x.kind, p.surrogateID(), p.uniqueKey(), ErrUpdateRejected)
	}
	*cur = *p
	return nil
}

// sort restores by-id order after a bulk load
func (x *index[T, P]) sort() {
	if slices.IsSortedFunc(x.byID, x.compare) {
		return
	}
	slices.SortFunc(x.byID, x.compare)
}

func (x *index[T, P]) compare(a, b P) int {
	return cmp.Compare(a.surrogateID(), b.surrogateID())
}

func (x *index[T, P]) clear() {
	x.byID = nil
	x.byUID = make(map[string]P)
}
