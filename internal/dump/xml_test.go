package dump

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/franz/media-catalog/internal/catalog"
)

func TestXMLRoundTrip(t *testing.T) {
	src := buildCatalog(t)
	flags := catalog.FlagMusic | catalog.FlagMovie

	doc, err := EncodeXML(src, testSerial, flags)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	text := string(doc)
	for _, want := range []string{
		`<MediaDB FmtVer="1" SerialNum="serial-2024-0001" MediaTypes="3">`,
		`<MediaType Tag="Music">`,
		`<Items Count="3">`,
		`<Sets Count="1">`,
		`Modal &lt;jazz&gt; &amp; more`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("document missing %q", want)
		}
	}

	got, h, err := DecodeXML(doc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if h.Serial != testSerial || h.Flags != flags {
		t.Errorf("unexpected header %+v", h)
	}

	again, err := EncodeXML(got, testSerial, flags)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(doc, again) {
		t.Error("re-encoded document differs from the original")
	}

	// xml and binary views of the same catalog agree
	fromXML, _ := EncodeBinary(got, testSerial, flags)
	fromSrc, _ := EncodeBinary(src, testSerial, flags)
	if !bytes.Equal(fromXML, fromSrc) {
		t.Error("binary dump of the xml-loaded catalog differs")
	}
}

func TestDecodeXMLRejectsBadInput(t *testing.T) {
	src := buildCatalog(t)
	doc, _ := EncodeXML(src, testSerial, catalog.FlagMusic)
	text := string(doc)

	testCases := []struct {
		name string
		doc  string
	}{
		{"not xml", "{}"},
		{"newer version", strings.Replace(text, `FmtVer="1"`, `FmtVer="9"`, 1)},
		{"count mismatch", strings.Replace(text, `<Items Count="3">`, `<Items Count="4">`, 1)},
		{"unknown tag", strings.Replace(text, `Tag="Music"`, `Tag="Book"`, 1)},
		{"unflagged type", strings.Replace(text, `MediaTypes="1"`, `MediaTypes="2"`, 1)},
		{"bad id list", strings.Replace(text, `<Categories>1 10</Categories>`, `<Categories>1 x</Categories>`, 1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.doc == text {
				t.Fatal("fixture replacement did not apply")
			}
			if _, _, err := DecodeXML([]byte(tc.doc)); !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestLoadXML(t *testing.T) {
	src := buildCatalog(t)
	doc, _ := EncodeXML(src, "s", catalog.FlagMovie)

	dst := catalog.New()
	if _, err := LoadXML(dst, doc); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := dst.CollectionByUniqueID(catalog.MediaMovie, "disc"); !ok {
		t.Error("movie partition not loaded")
	}
	slots, _ := dst.QuerySlots(catalog.MediaMovie, "Changer1", false)
	if !slots.Occupied.Test(4) {
		t.Error("changer location lost")
	}
}

func TestLoadXMLRejectsFlaggedTypeWithoutBlock(t *testing.T) {
	src := buildCatalog(t)
	doc, _ := EncodeXML(src, testSerial, catalog.FlagMusic)
	text := strings.Replace(string(doc), `MediaTypes="1"`, `MediaTypes="3"`, 1)
	if text == string(doc) {
		t.Fatal("fixture replacement did not apply")
	}

	dst := buildCatalog(t)
	if _, err := LoadXML(dst, []byte(text)); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if _, ok := dst.CollectionByUniqueID(catalog.MediaMovie, "disc"); !ok {
		t.Error("failed load erased the movie partition")
	}
}

func TestDecodeXMLConflictingRecords(t *testing.T) {
	src := buildCatalog(t)
	doc, _ := EncodeXML(src, testSerial, catalog.FlagMusic)
	text := strings.Replace(string(doc), `<Items>1 2 3</Items>`, `<Items>1 2 9</Items>`, 1)
	if text == string(doc) {
		t.Fatal("fixture replacement did not apply")
	}

	_, _, err := DecodeXML([]byte(text))
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected the dangling reference cause to be kept, got %v", err)
	}
}
