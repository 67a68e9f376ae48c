// ABOUTME: Tests for MP3 decoder
// ABOUTME: Tests channel mode detection, seeking and truncated streams on silent Layer III frames
package decode

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Resonate-Protocol/resonate-decoder/internal/testaudio"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

const (
	// MPEG-1 Layer III, 128 kbps, 44.1 kHz, no CRC, no padding
	silentFrameLen     = 417
	silentFrameSamples = 1152
)

// silentMP3 returns n MPEG-1 Layer III frames whose side info and main
// data are all zero, which decode to silence.
func silentMP3(n int, mono bool) []byte {
	mode := byte(0x00)
	if mono {
		mode = 0xC0
	}
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		frame := make([]byte, silentFrameLen)
		copy(frame, []byte{0xFF, 0xFB, 0x90, mode})
		buf.Write(frame)
	}
	return buf.Bytes()
}

func TestMP3ChannelMode(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		mode byte
		ok   bool
	}{
		{"stereo", []byte{0xFF, 0xFB, 0x90, 0x00}, 0x0, true},
		{"joint stereo", []byte{0xFF, 0xFB, 0x90, 0x44}, 0x1, true},
		{"mono", []byte{0xFF, 0xFB, 0x90, 0xC4}, 0x3, true},
		{"mpeg2 mono", []byte{0xFF, 0xF3, 0x50, 0xC0}, 0x3, true},
		{"after junk", []byte{0x00, 0xFF, 0x00, 0xFF, 0xFB, 0x90, 0xC0}, 0x3, true},
		{"layer ii skipped", []byte{0xFF, 0xFD, 0x90, 0xC0, 0xFF, 0xFB, 0x90, 0x00}, 0x0, true},
		{"bad bitrate", []byte{0xFF, 0xFB, 0xF0, 0xC0}, 0, false},
		{"reserved rate", []byte{0xFF, 0xFB, 0x9C, 0xC0}, 0, false},
		{"too short", []byte{0xFF, 0xFB, 0x90}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, ok := mp3ChannelMode(tt.buf)
			if ok != tt.ok || mode != tt.mode {
				t.Errorf("mp3ChannelMode() = %#x, %v; want %#x, %v", mode, ok, tt.mode, tt.ok)
			}
		})
	}
}

func TestMP3Format(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		positions []audio.ChannelPosition
	}{
		{"stereo", silentMP3(3, false), audio.DefaultPositions(2)},
		{"mono", silentMP3(3, true), []audio.ChannelPosition{audio.PositionMono}},
		{"mono behind id3", testaudio.WithID3(silentMP3(3, true), 300), []audio.ChannelPosition{audio.PositionMono}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range []io.Reader{bytes.NewReader(tt.data), struct{ io.Reader }{bytes.NewReader(tt.data)}} {
				stream, err := Probe(r, Options{})
				if err != nil {
					t.Fatalf("Probe failed: %v", err)
				}
				dec, ok := stream.(*MP3Decoder)
				if !ok {
					t.Fatalf("expected *MP3Decoder, got %T", stream)
				}

				format := dec.Format()
				if format.SampleRate != 44100 {
					t.Errorf("expected 44100 Hz, got %d", format.SampleRate)
				}
				if diff := cmp.Diff(tt.positions, format.Positions); diff != "" {
					t.Errorf("positions mismatch (-want +got):\n%s", diff)
				}

				total := 0
				for _, block := range readAll(t, dec) {
					if block.Channels != format.Channels {
						t.Fatalf("block has %d channels, format has %d", block.Channels, format.Channels)
					}
					for _, s := range block.Samples {
						if s != 0 {
							t.Fatalf("expected silence, got %v", s)
						}
					}
					total += block.Frames()
				}
				if total != 3*silentFrameSamples {
					t.Errorf("expected %d frames, got %d", 3*silentFrameSamples, total)
				}
			}
		})
	}
}

func TestMP3SeekTo(t *testing.T) {
	dec, err := NewMP3(bytes.NewReader(silentMP3(5, false)), Options{})
	if err != nil {
		t.Fatalf("NewMP3 failed: %v", err)
	}

	offset := audio.FramesDuration(2*silentFrameSamples, 44100)
	landed, err := dec.SeekTo(offset)
	if err != nil {
		t.Fatalf("SeekTo failed: %v", err)
	}
	if landed > offset || offset-landed > time.Millisecond {
		t.Errorf("expected to land just at or before %v, got %v", offset, landed)
	}

	blocks := readAll(t, dec)
	if len(blocks) == 0 {
		t.Fatal("expected blocks after seeking")
	}
	if blocks[0].Timestamp != landed {
		t.Errorf("first block at %v, expected %v", blocks[0].Timestamp, landed)
	}
	rest := 0
	for _, block := range blocks {
		rest += block.Frames()
	}
	// go-mp3 seeks to the exact output frame
	if want := 5*silentFrameSamples - int(audio.DurationFrames(offset, 44100)); rest != want {
		t.Errorf("expected %d frames after seeking, got %d", want, rest)
	}
}

func TestMP3SeekUnsupported(t *testing.T) {
	dec, err := NewMP3(struct{ io.Reader }{bytes.NewReader(silentMP3(3, false))}, Options{})
	if err != nil {
		t.Fatalf("NewMP3 failed: %v", err)
	}

	if _, err := dec.SeekTo(10 * time.Millisecond); !errors.Is(err, ErrSeekUnsupported) {
		t.Fatalf("expected ErrSeekUnsupported, got %v", err)
	}
}

func TestMP3Truncated(t *testing.T) {
	data := silentMP3(3, false)
	data = data[:2*silentFrameLen+silentFrameLen/2]

	dec, err := NewMP3(bytes.NewReader(data), Options{})
	if err != nil {
		t.Fatalf("NewMP3 failed: %v", err)
	}

	total := 0
	for _, block := range readAll(t, dec) {
		total += block.Frames()
	}
	if total != 2*silentFrameSamples {
		t.Errorf("expected the 2 complete frames (%d samples), got %d", 2*silentFrameSamples, total)
	}
}
