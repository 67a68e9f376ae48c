// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC frames to float32 blocks, one block per frame
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct {
	stream   *flac.Stream
	format   audio.FormatInfo
	bitDepth int
	frames   int64
}

// NewFLAC creates a FLAC stream
func NewFLAC(r io.Reader) (*FLACDecoder, error) {
	// flac.Stream.Close closes its reader when it can; ownership of r stays
	// with the caller.
	stream, err := flac.New(struct{ io.Reader }{r})
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	format := audio.FormatInfo{
		Channels:   channels,
		SampleRate: int(info.SampleRate),
		Positions:  audio.DefaultPositions(channels),
	}
	if err := format.Validate(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("invalid flac format: %w", err)
	}

	return &FLACDecoder{
		stream:   stream,
		format:   format,
		bitDepth: int(info.BitsPerSample),
	}, nil
}

// Format returns the stream format
func (d *FLACDecoder) Format() audio.FormatInfo {
	return d.format
}

// ReadBlock decodes the next FLAC frame
func (d *FLACDecoder) ReadBlock() (audio.Block, error) {
	frame, err := d.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return audio.Block{}, io.EOF
		}
		return audio.Block{}, fmt.Errorf("flac decode error: %w", err)
	}

	channels := d.format.Channels
	if len(frame.Subframes) != channels {
		return audio.Block{}, fmt.Errorf("flac frame has %d subframes, expected %d", len(frame.Subframes), channels)
	}

	blockSize := int(frame.BlockSize)
	samples := make([]float32, blockSize*channels)
	for ch := 0; ch < channels; ch++ {
		sub := frame.Subframes[ch].Samples
		for i := 0; i < blockSize && i < len(sub); i++ {
			samples[i*channels+ch] = audio.SampleFromInt(sub[i], d.bitDepth)
		}
	}

	block := audio.Block{
		Timestamp: audio.FramesDuration(d.frames, d.format.SampleRate),
		Channels:  channels,
		Samples:   samples,
	}
	d.frames += int64(blockSize)
	return block, nil
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return d.stream.Close()
}
