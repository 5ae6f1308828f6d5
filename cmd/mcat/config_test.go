package main

import (
	"testing"

	"github.com/franz/media-catalog/internal/catalog"
)

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		in      string
		want    catalog.MediaType
		wantErr bool
	}{
		{"music", catalog.MediaMusic, false},
		{"Music", catalog.MediaMusic, false},
		{" movie ", catalog.MediaMovie, false},
		{"Pic", catalog.MediaPicture, false},
		{"pictures", catalog.MediaPicture, false},
		{"podcast", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseMediaType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMediaType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseMediaType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseMediaFlags(t *testing.T) {
	tests := []struct {
		in      string
		want    catalog.MediaFlags
		wantErr bool
	}{
		{"", catalog.FlagAll, false},
		{"music", catalog.FlagMusic, false},
		{"music,pic", catalog.FlagMusic | catalog.FlagPicture, false},
		{"movie,movie", catalog.FlagMovie, false},
		{"music,tapes", 0, true},
	}

	for _, tt := range tests {
		got, err := parseMediaFlags(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMediaFlags(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseMediaFlags(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		mt      catalog.MediaType
		wantMT  catalog.MediaType
		wantID  catalog.ID
		wantErr bool
	}{
		{"1", catalog.MediaMusic, catalog.MediaMusic, 1, false},
		{"12", catalog.MediaMovie, catalog.MediaMovie, 12, false},
		{"Movie,a", catalog.MediaMusic, catalog.MediaMovie, 10, false},
		{"Music,1,2", catalog.MediaMusic, 0, 0, true}, // title cookie
		{"0", catalog.MediaMusic, 0, 0, true},
		{"70000", catalog.MediaMusic, 0, 0, true},
		{"jazz", catalog.MediaMusic, 0, 0, true},
	}

	for _, tt := range tests {
		mt, id, err := parseCategory(tt.in, tt.mt)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (mt != tt.wantMT || id != tt.wantID) {
			t.Errorf("parseCategory(%q) = %v/%d, want %v/%d", tt.in, mt, id, tt.wantMT, tt.wantID)
		}
	}
}
