package catalog

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
)

// DefaultSampleSize caps RandomItems when the caller passes no limit
const DefaultSampleSize = 50

// PlayItem is one entry of a randomized play queue
type PlayItem struct {
	CollectionCookie string
	TitleCookie      string
	ItemCookie       string
	ItemID           ID
	Name             string
	Artist           string
	CollectionName   string
	TitleName        string
	Duration         uint32
	Location         string
	ArtID            ID
}

// RandomItems picks up to limit distinct items from collections in category
// cat. The attempt budget is 5*limit, so fewer items come back when the
// category is small. rng may be nil.
func (c *Catalog) RandomItems(mt MediaType, cat ID, limit int, rng *rand.Rand) ([]PlayItem, error) {
	p, err := c.part(mt)
	if err != nil {
		return nil, err
	}
	if !p.complete {
		return nil, fmt.Errorf("random items: %w", ErrNotComplete)
	}
	if _, ok := p.cats.get(cat); !ok {
		return nil, notFound(mt, KindCategory, cat)
	}
	if limit <= 0 {
		limit = DefaultSampleSize
	}
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	// candidates: title sets with at least one collection in cat, and for
	// each the 0-based positions of those collections
	type candidate struct {
		set  *TitleSet
		cols []int
	}
	var cands []candidate
	for _, ts := range p.sets.byID {
		var cols []int
		for i, id := range ts.Collections {
			if col, ok := p.cols.get(id); ok && col.InCategory(cat) && len(col.Items) > 0 {
				cols = append(cols, i)
			}
		}
		if len(cols) > 0 {
			cands = append(cands, candidate{set: ts, cols: cols})
		}
	}
	if len(cands) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, limit)
	out := make([]PlayItem, 0, limit)
	for attempt := 0; attempt < 5*limit && len(out) < limit; attempt++ {
		cand := cands[intN(len(cands))]
		colPos := cand.cols[intN(len(cand.cols))]
		col, _ := p.cols.get(cand.set.Collections[colPos])
		itemPos := intN(len(col.Items))

		ck := ItemCookieAt(mt, cat, cand.set.ID, uint16(colPos+1), uint16(itemPos+1))
		key := ck.String()
		if seen[key] {
			continue
		}
		it, ok := p.items.get(col.Items[itemPos])
		if !ok {
			continue
		}
		seen[key] = true

		artist := it.Artist
		if artist == "" {
			artist = col.Artist
		}
		out = append(out, PlayItem{
			CollectionCookie: ck.Parent().String(),
			TitleCookie:      ck.Parent().Parent().String(),
			ItemCookie:       key,
			ItemID:           it.ID,
			Name:             it.Name,
			Artist:           artist,
			CollectionName:   col.Name,
			TitleName:        cand.set.Name,
			Duration:         it.Duration,
			Location:         it.Location,
			ArtID:            cmp.Or(col.ArtID, cand.set.ArtID),
		})
	}
	return slices.Clip(out), nil
}

