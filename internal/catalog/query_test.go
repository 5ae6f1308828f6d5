package catalog

import (
	"errors"
	"slices"
	"testing"
)

func TestResolve(t *testing.T) {
	c := New()
	setID, colID, items := addAlbum(t, c, "Album", "A", 100, 200)
	jazz, _ := c.AddCategory(Category{MediaType: MediaMusic, Name: "Jazz"}, false)

	ck, err := c.ItemCookie(MediaMusic, CategoryAll, colID, items[1])
	if err != nil {
		t.Fatalf("item cookie: %v", err)
	}
	res, err := c.Resolve(ck.String())
	if err != nil {
		t.Fatalf("resolve %q: %v", ck, err)
	}
	if res.Category.ID != CategoryAll || res.TitleSet.ID != setID || res.Collection.ID != colID || res.Item.ID != items[1] {
		t.Errorf("unexpected chain %+v", res)
	}

	title, err := c.Resolve(TitleCookie(MediaMusic, CategoryAll, setID).String())
	if err != nil {
		t.Fatalf("resolve title: %v", err)
	}
	if title.Collection != nil || title.Item != nil {
		t.Error("title cookie resolved below the title level")
	}

	testCases := []struct {
		name   string
		cookie string
		want   error
	}{
		{"malformed", "Music,0", ErrMalformedCookie},
		{"missing category", CategoryCookie(MediaMusic, 99).String(), ErrNotFound},
		{"set not in category", TitleCookie(MediaMusic, jazz, setID).String(), ErrNotFound},
		{"collection index past end", CollectionCookieAt(MediaMusic, CategoryAll, setID, 2).String(), ErrNotFound},
		{"item index past end", ItemCookieAt(MediaMusic, CategoryAll, setID, 1, 3).String(), ErrNotFound},
		{"wrong partition", TitleCookie(MediaMovie, CategoryAll, setID).String(), ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Resolve(tc.cookie); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEnumeration(t *testing.T) {
	c := New()
	addAlbum(t, c, "Zebra", "Beta", 100)
	setID, _, _ := addAlbum(t, c, "Alpha", "alpha", 100)
	jazz, _ := c.AddCategory(Category{MediaType: MediaMusic, Name: "Jazz"}, false)
	addPlaylist(t, c, "mix")

	byName := c.Collections(MediaMusic, func(col Collection) bool { return !col.Playlist }, ByName)
	if len(byName) != 2 || byName[0].Name != "Alpha" {
		t.Errorf("expected Alpha first, got %+v", byName)
	}
	byArtist := c.Collections(MediaMusic, nil, ByArtist)
	if len(byArtist) != 3 {
		t.Fatalf("expected 3 collections, got %d", len(byArtist))
	}

	nonEmpty := c.NonEmptyCategories(MediaMusic)
	for _, cat := range nonEmpty {
		if cat.ID == jazz || cat.ID == CategoryPlaylists {
			t.Errorf("category %q has no title set collections", cat.Name)
		}
	}
	if len(nonEmpty) != 1 {
		t.Errorf("expected only the all category, got %d", len(nonEmpty))
	}

	sets, err := c.TitleSetsInCategory(MediaMusic, CategoryAll)
	if err != nil || len(sets) != 2 {
		t.Errorf("expected 2 sets, got %d (%v)", len(sets), err)
	}
	cols, err := c.CollectionsOf(MediaMusic, setID)
	if err != nil || len(cols) != 1 || cols[0].Name != "Alpha" {
		t.Errorf("unexpected collections %+v (%v)", cols, err)
	}
	items, err := c.ItemsOf(MediaMusic, cols[0].ID)
	if err != nil || len(items) != 1 {
		t.Errorf("unexpected items %+v (%v)", items, err)
	}
	if _, err := c.ItemsOf(MediaMusic, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocationLookup(t *testing.T) {
	c := New()
	_, colID, items := addAlbum(t, c, "Album", "A", 100)
	col, _ := c.Collection(MediaMusic, colID)
	col.Location = "/music/Album"
	if err := c.UpdateCollection(col); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := c.CollectionByLocation(MediaMusic, "/music/Album")
	if err != nil || got.ID != colID {
		t.Errorf("expected %d, got %d (%v)", colID, got.ID, err)
	}
	it, ok := c.FindItemByLocation(MediaMusic, "/music/Album/01.flac")
	if !ok || it.ID != items[0] {
		t.Errorf("expected item %d, got %+v", items[0], it)
	}
	if _, err := c.ItemByLocation(MediaMusic, "/nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuerySlots(t *testing.T) {
	c := New()
	for _, loc := range []string{"Changer1.3", "changer1.7", "Other.2", "Changer1.x"} {
		_, err := c.AddCollection(Collection{
			MediaType: MediaMusic,
			Name:      "disc in " + loc,
			Location:  loc,
			LocKind:   LocChanger,
		}, false)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	// file-located collections never count
	_, _ = c.AddCollection(Collection{MediaType: MediaMusic, Name: "file", Location: "Changer1.9"}, false)

	info, err := c.QuerySlots(MediaMusic, "Changer1", true)
	if err != nil {
		t.Fatalf("query slots: %v", err)
	}
	if info.Occupied.Count() != 2 || !info.Occupied.Test(3) || !info.Occupied.Test(7) {
		t.Errorf("expected slots 3 and 7, got %s", info.Occupied)
	}
	if info.Names[7] != "disc in changer1.7" {
		t.Errorf("unexpected name %q", info.Names[7])
	}

	bare, _ := c.QuerySlots(MediaMusic, "Changer1", false)
	if bare.Names != nil {
		t.Error("names filled without being asked")
	}
}

func TestStats(t *testing.T) {
	c := New()
	addAlbum(t, c, "Album", "A", 100, 200)
	addPlaylist(t, c, "mix")
	_, _ = c.AddImage(Image{
		MediaType: MediaMusic,
		Large:     Art{Data: make([]byte, 10)},
		Small:     Art{Path: "/art/s.jpg", Size: 4},
	}, false)

	st, err := c.Stats(MediaMusic)
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{
		MediaType:   MediaMusic,
		Categories:  2,
		TitleSets:   1,
		Collections: 2,
		Playlists:   1,
		Items:       2,
		Images:      1,
		ArtPieces:   2,
		ArtBytes:    14,
	}
	if st != want {
		t.Errorf("expected %+v, got %+v", want, st)
	}
}

func TestArtistView(t *testing.T) {
	c := New()
	addAlbum(t, c, "One", "beta", 100)
	_, colID, _ := addAlbum(t, c, "Two", "Alpha", 100)
	addAlbum(t, c, "Three", "Alpha", 100)
	c.LoadComplete()

	view, err := c.ArtistView(MediaMusic)
	if err != nil {
		t.Fatalf("artist view: %v", err)
	}
	names := make([]string, len(view))
	for i, e := range view {
		names[i] = e.Artist
	}
	if !slices.Equal(names, []string{"Alpha", "beta"}) {
		t.Errorf("unexpected artists %v", names)
	}
	if len(view[0].Collections) != 2 || len(view[0].TitleSets) != 2 {
		t.Errorf("expected 2 collections and sets for Alpha, got %+v", view[0])
	}

	// mutations invalidate the view
	col, _ := c.Collection(MediaMusic, colID)
	col.Artist = "Gamma"
	if err := c.UpdateCollection(col); err != nil {
		t.Fatal(err)
	}
	view, _ = c.ArtistView(MediaMusic)
	if len(view) != 3 {
		t.Errorf("expected 3 artists after rename, got %d", len(view))
	}
}
