// ABOUTME: FLAC and ID3 fixture builders
// ABOUTME: Encodes synthetic FLAC streams with mewkiz/flac and prepends ID3v2 tags
package testaudio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FLAC describes a fixture stream. Data is interleaved; every frame but
// the last holds BlockSize samples per channel.
type FLAC struct {
	SampleRate int
	BitDepth   int
	Channels   int
	BlockSize  int
	Data       []int32
}

// Bytes encodes f with verbatim subframes.
func (f FLAC) Bytes(t testing.TB) []byte {
	t.Helper()

	block := f.BlockSize
	if block == 0 {
		block = 256
	}
	frames := len(f.Data) / f.Channels

	info := &meta.StreamInfo{
		BlockSizeMin:  uint16(block),
		BlockSizeMax:  uint16(block),
		SampleRate:    uint32(f.SampleRate),
		NChannels:     uint8(f.Channels),
		BitsPerSample: uint8(f.BitDepth),
		NSamples:      uint64(frames),
	}

	var buf bytes.Buffer
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		t.Fatalf("failed to create flac encoder: %v", err)
	}

	for offset := 0; offset < frames; offset += block {
		n := min(block, frames-offset)
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        uint32(f.SampleRate),
				Channels:          frame.Channels(f.Channels - 1),
				BitsPerSample:     uint8(f.BitDepth),
			},
			Subframes: make([]*frame.Subframe, f.Channels),
		}
		for c := range fr.Subframes {
			samples := make([]int32, n)
			for i := range samples {
				samples[i] = f.Data[(offset+i)*f.Channels+c]
			}
			fr.Subframes[c] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   samples,
				NSamples:  n,
			}
		}
		if err := enc.WriteFrame(fr); err != nil {
			t.Fatalf("failed to write flac frame: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalize flac stream: %v", err)
	}
	return buf.Bytes()
}

// Write encodes f into a file under t.TempDir and returns its path.
func (f FLAC) Write(t testing.TB, name string) string {
	t.Helper()
	return WriteFile(t, name, f.Bytes(t))
}

// WriteFile stores data under t.TempDir and returns its path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

// WithID3 prepends an ID3v2.4 tag with padding bytes of zeroed body.
func WithID3(data []byte, padding int) []byte {
	header := []byte{'I', 'D', '3', 4, 0, 0,
		byte(padding>>21) & 0x7f,
		byte(padding>>14) & 0x7f,
		byte(padding>>7) & 0x7f,
		byte(padding) & 0x7f,
	}
	out := append(header, make([]byte, padding)...)
	return append(out, data...)
}
