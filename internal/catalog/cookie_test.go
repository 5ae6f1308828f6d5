package catalog

import (
	"errors"
	"testing"
)

func TestEncodeCookie(t *testing.T) {
	testCases := []struct {
		name   string
		cookie Cookie
		want   string
	}{
		{"category", CategoryCookie(MediaMusic, 1), "Music,1"},
		{"title", TitleCookie(MediaMovie, 0x0a, 0xff), "Movie,a,ff"},
		{"collection", CollectionCookieAt(MediaMusic, 1, 0x12, 3), "Music,1,12,3"},
		{"item", ItemCookieAt(MediaPicture, 2, 0xbeef, 1, 0x10), "Pic,2,beef,1,10"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeCookie(tc.cookie)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}

			back, err := DecodeCookie(got)
			if err != nil {
				t.Fatalf("failed to decode %q: %v", got, err)
			}
			if back != tc.cookie {
				t.Errorf("round trip: expected %+v, got %+v", tc.cookie, back)
			}
		})
	}
}

func TestEncodeCookieRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		cookie Cookie
	}{
		{"zero category", CategoryCookie(MediaMusic, 0)},
		{"zero title", TitleCookie(MediaMusic, 1, 0)},
		{"zero collection index", CollectionCookieAt(MediaMusic, 1, 2, 0)},
		{"zero item index", ItemCookieAt(MediaMusic, 1, 2, 3, 0)},
		{"bad media type", CategoryCookie(MediaType(7), 1)},
		{"bad kind", Cookie{Kind: 9, MediaType: MediaMusic, CategoryID: 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := EncodeCookie(tc.cookie); !errors.Is(err, ErrMalformedCookie) {
				t.Errorf("expected ErrMalformedCookie, got %v", err)
			}
			if s := tc.cookie.String(); s != "" {
				t.Errorf("expected empty string, got %q", s)
			}
		})
	}
}

func TestDecodeCookie(t *testing.T) {
	testCases := []struct {
		input   string
		want    Cookie
		wantErr bool
	}{
		{input: "Music,1,12,3", want: CollectionCookieAt(MediaMusic, 1, 0x12, 3)},
		{input: "Music,1,12", want: TitleCookie(MediaMusic, 1, 0x12)},
		{input: "Movie,A,FF,2,1", want: ItemCookieAt(MediaMovie, 0x0a, 0xff, 2, 1)},
		{input: "Pic,ffff", want: CategoryCookie(MediaPicture, 0xffff)},
		{input: "Music", wantErr: true},
		{input: "Music,1,2,3,4,5", wantErr: true},
		{input: "Book,1", wantErr: true},
		{input: "music,1", wantErr: true},
		{input: "Music,0", wantErr: true},
		{input: "Music,1,zz", wantErr: true},
		{input: "Music,10000", wantErr: true},
		{input: "Music,", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := DecodeCookie(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedCookie) {
					t.Fatalf("expected ErrMalformedCookie, got %v (%+v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestClassifyCookie(t *testing.T) {
	testCases := []struct {
		input string
		want  CookieKind
	}{
		{"Music,1", CookieCategory},
		{"Music,1,2", CookieTitle},
		{"Music,1,2,3", CookieCollection},
		{"Music,1,2,3,4", CookieItem},
		// classification looks at token count only
		{"x,y,z", CookieTitle},
	}

	for _, tc := range testCases {
		got, err := ClassifyCookie(tc.input)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.input, tc.want, got)
		}
	}
}

func TestCookieParent(t *testing.T) {
	ck := ItemCookieAt(MediaMusic, 1, 0x12, 3, 4)

	want := []string{"Music,1,12,3", "Music,1,12", "Music,1", "Music,1"}
	for _, w := range want {
		ck = ck.Parent()
		if got := ck.String(); got != w {
			t.Errorf("expected %q, got %q", w, got)
		}
	}
}
