package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// CookieKind is the depth of a cookie in the hierarchy
type CookieKind uint8

const (
	CookieCategory CookieKind = iota + 1
	CookieTitle
	CookieCollection
	CookieItem
)

func (k CookieKind) String() string {
	switch k {
	case CookieCategory:
		return "category"
	case CookieTitle:
		return "title"
	case CookieCollection:
		return "collection"
	case CookieItem:
		return "item"
	}
	return "unknown"
}

// Cookie is the decoded form of an address. CollectionIndex and ItemIndex
// are 1-based positions within the parent, not surrogate ids, so a cookie
// is only valid until the parent's child order changes.
type Cookie struct {
	Kind            CookieKind
	MediaType       MediaType
	CategoryID      ID
	TitleID         ID
	CollectionIndex uint16
	ItemIndex       uint16
}

// CategoryCookie builds the address of a category
func CategoryCookie(mt MediaType, cat ID) Cookie {
	return Cookie{Kind: CookieCategory, MediaType: mt, CategoryID: cat}
}

// TitleCookie builds the address of a title set seen through a category
func TitleCookie(mt MediaType, cat, title ID) Cookie {
	return Cookie{Kind: CookieTitle, MediaType: mt, CategoryID: cat, TitleID: title}
}

// CollectionCookieAt builds the address of the colIndex'th (1-based)
// collection of a title set
func CollectionCookieAt(mt MediaType, cat, title ID, colIndex uint16) Cookie {
	return Cookie{Kind: CookieCollection, MediaType: mt, CategoryID: cat, TitleID: title, CollectionIndex: colIndex}
}

// ItemCookieAt builds the address of the itemIndex'th (1-based) item of a
// collection
func ItemCookieAt(mt MediaType, cat, title ID, colIndex, itemIndex uint16) Cookie {
	return Cookie{
		Kind:            CookieItem,
		MediaType:       mt,
		CategoryID:      cat,
		TitleID:         title,
		CollectionIndex: colIndex,
		ItemIndex:       itemIndex,
	}
}

// String encodes the cookie. Invalid cookies encode to "".
func (c Cookie) String() string {
	s, err := EncodeCookie(c)
	if err != nil {
		return ""
	}
	return s
}

// Parent returns the cookie one level up. A category cookie is its own parent.
func (c Cookie) Parent() Cookie {
	switch c.Kind {
	case CookieItem:
		c.ItemIndex = 0
		c.Kind = CookieCollection
	case CookieCollection:
		c.CollectionIndex = 0
		c.Kind = CookieTitle
	case CookieTitle:
		c.TitleID = 0
		c.Kind = CookieCategory
	}
	return c
}

// EncodeCookie renders c as "tag,cat[,title[,col[,item]]]" in lowercase hex
func EncodeCookie(c Cookie) (string, error) {
	if !c.MediaType.Valid() {
		return "", fmt.Errorf("media type %d: %w", c.MediaType, ErrMalformedCookie)
	}
	fields := []uint16{uint16(c.CategoryID)}
	switch c.Kind {
	case CookieItem:
		fields = append(fields, uint16(c.TitleID), c.CollectionIndex, c.ItemIndex)
	case CookieCollection:
		fields = append(fields, uint16(c.TitleID), c.CollectionIndex)
	case CookieTitle:
		fields = append(fields, uint16(c.TitleID))
	case CookieCategory:
	default:
		return "", fmt.Errorf("cookie kind %d: %w", c.Kind, ErrMalformedCookie)
	}

	var b strings.Builder
	b.WriteString(c.MediaType.Tag())
	for _, f := range fields {
		if f == 0 {
			return "", fmt.Errorf("zero field in %s cookie: %w", c.Kind, ErrMalformedCookie)
		}
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(f), 16))
	}
	return b.String(), nil
}

// ClassifyCookie returns the kind of a cookie from its token count alone
func ClassifyCookie(s string) (CookieKind, error) {
	switch n := strings.Count(s, ",") + 1; n {
	case 2, 3, 4, 5:
		return CookieKind(n - 1), nil
	default:
		return 0, fmt.Errorf("cookie %q has %d tokens: %w", s, n, ErrMalformedCookie)
	}
}

// DecodeCookie parses a cookie, rejecting bad tags, bad hex and zero fields
func DecodeCookie(s string) (Cookie, error) {
	kind, err := ClassifyCookie(s)
	if err != nil {
		return Cookie{}, err
	}
	tokens := strings.Split(s, ",")
	mt, ok := ParseMediaTag(tokens[0])
	if !ok {
		return Cookie{}, fmt.Errorf("cookie %q media tag %q: %w", s, tokens[0], ErrMalformedCookie)
	}

	vals := make([]uint16, len(tokens)-1)
	for i, tok := range tokens[1:] {
		v, err := strconv.ParseUint(tok, 16, 16)
		if err != nil || v == 0 {
			return Cookie{}, fmt.Errorf("cookie %q field %q: %w", s, tok, ErrMalformedCookie)
		}
		vals[i] = uint16(v)
	}

	c := Cookie{Kind: kind, MediaType: mt, CategoryID: ID(vals[0])}
	if kind >= CookieTitle {
		c.TitleID = ID(vals[1])
	}
	if kind >= CookieCollection {
		c.CollectionIndex = vals[2]
	}
	if kind >= CookieItem {
		c.ItemIndex = vals[3]
	}
	return c, nil
}
