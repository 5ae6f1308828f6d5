package scan

import (
	"encoding/json"
	"testing"

	"github.com/franz/media-catalog/internal/catalog"
)

func TestIntOrStringUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"integer value", `{"value": 16}`, 16},
		{"string integer", `{"value": "24"}`, 24},
		{"N/A string", `{"value": "N/A"}`, 0},
		{"empty string", `{"value": ""}`, 0},
		{"zero", `{"value": 0}`, 0},
		{"invalid string", `{"value": "invalid"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result struct {
				Value intOrString `json:"value"`
			}
			if err := json.Unmarshal([]byte(tt.input), &result); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if int(result.Value) != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, result.Value)
			}
		})
	}
}

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    audioProps
		wantErr bool
	}{
		{
			name: "flac",
			input: `{"streams":[{"codec_type":"audio","sample_rate":"96000","channels":2,"bits_per_raw_sample":"24"}],
				"format":{"duration":"245.6","bit_rate":"3000000"}}`,
			want: audioProps{Duration: 246, Format: catalog.AudioFormat{BitDepth: 24, BitRate: 3000000, Channels: 2, SampleRate: 96000}},
		},
		{
			name: "mp3 with cover stream first",
			input: `{"streams":[{"codec_type":"video"},{"codec_type":"audio","sample_rate":"44100","channels":2,"bits_per_sample":0,"bit_rate":"320000"}],
				"format":{"duration":"180.2","bit_rate":"321000"}}`,
			want: audioProps{Duration: 180, Format: catalog.AudioFormat{BitRate: 320000, Channels: 2, SampleRate: 44100}},
		},
		{
			name:  "no format section",
			input: `{"streams":[{"codec_type":"audio","sample_rate":"48000","channels":6}]}`,
			want:  audioProps{Format: catalog.AudioFormat{Channels: 6, SampleRate: 48000}},
		},
		{
			name:    "no audio stream",
			input:   `{"streams":[{"codec_type":"video"}],"format":{"duration":"10"}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			input:   `ffprobe version 6.0`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbe([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseProbe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseProbe() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildCarriesAudioProps(t *testing.T) {
	format := catalog.AudioFormat{BitDepth: 16, BitRate: 1411200, Channels: 2, SampleRate: 44100}
	tracks := []Track{
		{Path: "/m/A/B/01.flac", Title: "One", Artist: "A", Album: "B", Track: 1, Duration: 100, Audio: format},
		{Path: "/m/A/B/02.flac", Title: "Two", Artist: "A", Album: "B", Track: 2, Duration: 50, Audio: format},
	}

	c := catalog.New()
	if _, err := Build(c, tracks); err != nil {
		t.Fatal(err)
	}
	c.LoadComplete()

	cols := c.Collections(catalog.MediaMusic, nil, nil)
	if len(cols) != 1 || cols[0].Duration != 150 || cols[0].Format != format {
		t.Errorf("expected aggregated duration and format, got %+v", cols)
	}
	sets := c.TitleSets(catalog.MediaMusic, nil, nil)
	if len(sets) != 1 || sets[0].Duration != 150 || sets[0].ItemCount != 2 {
		t.Errorf("expected title set roll-up, got %+v", sets)
	}
}
