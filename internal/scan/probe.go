package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/franz/media-catalog/internal/catalog"
)

// errNoProbe is returned when ffprobe is not installed
var errNoProbe = errors.New("ffprobe not found in PATH")

const probeTimeout = 30 * time.Second

// probeOutput is the part of `ffprobe -print_format json` the importer reads
type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  *probeFormat  `json:"format"`
}

// intOrString unmarshals both 16 and "16"; "N/A" and junk become 0
type intOrString int

func (i *intOrString) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*i = intOrString(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		n = 0
	}
	*i = intOrString(n)
	return nil
}

type probeStream struct {
	CodecType        string      `json:"codec_type"`
	SampleRate       intOrString `json:"sample_rate"`
	Channels         int         `json:"channels"`
	BitsPerSample    intOrString `json:"bits_per_sample"`
	BitsPerRawSample intOrString `json:"bits_per_raw_sample"`
	BitRate          intOrString `json:"bit_rate"`
}

type probeFormat struct {
	FormatName string      `json:"format_name"`
	Duration   string      `json:"duration"`
	BitRate    intOrString `json:"bit_rate"`
}

// audioProps are the properties tags do not carry
type audioProps struct {
	Duration uint32 // seconds, rounded
	Format   catalog.AudioFormat
}

// ProbeAvailable reports whether ffprobe is on PATH
func ProbeAvailable() bool {
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// probeFile runs ffprobe on path
func probeFile(ctx context.Context, path string) (audioProps, error) {
	if !ProbeAvailable() {
		return audioProps{}, errNoProbe
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return audioProps{}, fmt.Errorf("ffprobe failed: %s", exitErr.Stderr)
		}
		return audioProps{}, fmt.Errorf("ffprobe execution failed: %w", err)
	}
	return parseProbe(output)
}

// parseProbe takes the first audio stream. The container bit rate is used
// when the stream has none, as with most VBR files.
func parseProbe(output []byte) (audioProps, error) {
	var info probeOutput
	if err := json.Unmarshal(output, &info); err != nil {
		return audioProps{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var props audioProps
	found := false
	for _, s := range info.Streams {
		if s.CodecType != "audio" {
			continue
		}
		props.Format = catalog.AudioFormat{
			SampleRate: uint32(max(s.SampleRate, 0)),
			Channels:   uint32(max(s.Channels, 0)),
			BitRate:    uint32(max(s.BitRate, 0)),
			BitDepth:   uint32(max(s.BitsPerSample, 0)),
		}
		if props.Format.BitDepth == 0 {
			props.Format.BitDepth = uint32(max(s.BitsPerRawSample, 0))
		}
		found = true
		break
	}
	if !found {
		return audioProps{}, fmt.Errorf("no audio stream")
	}

	if f := info.Format; f != nil {
		if secs, err := strconv.ParseFloat(f.Duration, 64); err == nil && secs > 0 {
			props.Duration = uint32(math.Round(secs))
		}
		if props.Format.BitRate == 0 {
			props.Format.BitRate = uint32(max(f.BitRate, 0))
		}
	}
	return props, nil
}
