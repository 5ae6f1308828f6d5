package catalog

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestRandomItems(t *testing.T) {
	c := New()
	addAlbum(t, c, "One", "A", 1, 2, 3)
	addAlbum(t, c, "Two", "B", 4, 5, 6)
	jazz, _ := c.AddCategory(Category{MediaType: MediaMusic, Name: "Jazz"}, false)

	if _, err := c.RandomItems(MediaMusic, CategoryAll, 4, nil); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("expected ErrNotComplete before load, got %v", err)
	}
	c.LoadComplete()

	rng := rand.New(rand.NewPCG(1, 2))

	t.Run("more requested than available", func(t *testing.T) {
		got, err := c.RandomItems(MediaMusic, CategoryAll, 50, rng)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 6 {
			t.Fatalf("expected all 6 items, got %d", len(got))
		}
		seen := make(map[string]bool)
		for _, pi := range got {
			if seen[pi.ItemCookie] {
				t.Errorf("duplicate cookie %q", pi.ItemCookie)
			}
			seen[pi.ItemCookie] = true

			res, err := c.Resolve(pi.ItemCookie)
			if err != nil {
				t.Fatalf("cookie %q does not resolve: %v", pi.ItemCookie, err)
			}
			if res.Item.ID != pi.ItemID || res.Item.Duration != pi.Duration {
				t.Errorf("cookie %q resolves to %+v, entry says %+v", pi.ItemCookie, res.Item, pi)
			}
			if pi.TitleName != pi.CollectionName || pi.Artist == "" {
				t.Errorf("unexpected display fields %+v", pi)
			}
		}
	})

	t.Run("limit respected", func(t *testing.T) {
		got, err := c.RandomItems(MediaMusic, CategoryAll, 4, rng)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 4 {
			t.Errorf("expected 4 items, got %d", len(got))
		}
	})

	t.Run("empty category", func(t *testing.T) {
		got, err := c.RandomItems(MediaMusic, jazz, 4, rng)
		if err != nil || len(got) != 0 {
			t.Errorf("expected nothing, got %d (%v)", len(got), err)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		if _, err := c.RandomItems(MediaMusic, 999, 4, rng); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRandomItemsDeterministic(t *testing.T) {
	c := New()
	for _, name := range []string{"a", "b", "c", "d"} {
		addAlbum(t, c, name, "X", 10, 20, 30, 40)
	}
	c.LoadComplete()

	first, _ := c.RandomItems(MediaMusic, CategoryAll, 5, rand.New(rand.NewPCG(7, 7)))
	second, _ := c.RandomItems(MediaMusic, CategoryAll, 5, rand.New(rand.NewPCG(7, 7)))
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ItemCookie != second[i].ItemCookie {
			t.Errorf("entry %d differs: %q vs %q", i, first[i].ItemCookie, second[i].ItemCookie)
		}
	}
}
