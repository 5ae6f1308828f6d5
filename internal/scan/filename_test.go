package scan

import "testing"

func TestParseFilename(t *testing.T) {
	tests := []struct {
		path string
		want filenameHints
	}{
		{
			path: "/music/Miles Davis/Kind of Blue/01 - So What.flac",
			want: filenameHints{Artist: "Miles Davis", Album: "Kind of Blue", Title: "So What", Track: 1},
		},
		{
			path: "/music/Miles Davis/1959 - Kind of Blue/02. Freddie Freeloader.mp3",
			want: filenameHints{Artist: "Miles Davis", Album: "Kind of Blue", Title: "Freddie Freeloader", Track: 2, Year: 1959},
		},
		{
			path: "/music/Various/Hits (1999)/03 - Some Band - Some Song.mp3",
			want: filenameHints{Artist: "Some Band", Album: "Hits", Title: "Some Song", Track: 3, Year: 1999},
		},
		{
			path: "/music/Band/Big Album/CD2/04_Deep_Cut.ogg",
			want: filenameHints{Artist: "Band", Album: "Big Album", Title: "Deep Cut", Track: 4, Disc: 2},
		},
		{
			path: "/loose/Artist - Title.m4a",
			want: filenameHints{Artist: "Artist", Album: "loose", Title: "Title"},
		},
		{
			path: "track.wav",
			want: filenameHints{Title: "track"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := parseFilename(tt.path)
			if got != tt.want {
				t.Errorf("parseFilename(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCleanString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  padded  ", "padded"},
		{"many   inner\t spaces", "many inner spaces"},
		{"Beyoncé", "Beyoncé"},
	}

	for _, tt := range tests {
		if got := cleanString(tt.in); got != tt.want {
			t.Errorf("cleanString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
