// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MPEG-1/2 Layer III to float32 mono or stereo blocks
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

// go-mp3 always produces 16-bit little-endian stereo, duplicating mono.
const (
	mp3OutputChannels = 2
	mp3BytesPerFrame  = 4

	mp3HeaderLen = 4
	// mp3SyncWindow is how far past any ID3 tag the first frame header is
	// searched for.
	mp3SyncWindow = 4096
	mp3ModeMono   = 0x3
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct {
	decoder  *mp3.Decoder
	format   audio.FormatInfo
	seekable bool
	buf      []byte
	frames   int64
}

// NewMP3 creates an MP3 stream. The channel count comes from the first
// frame header, so mono sources report a single channel.
func NewMP3(r io.Reader, opts Options) (*MP3Decoder, error) {
	src := newPrefixReader(r)
	channels, err := mp3SourceChannels(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read mp3 frame header: %w", err)
	}

	decoder, err := mp3.NewDecoder(src.reader())
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	format := audio.FormatInfo{
		Channels:   channels,
		SampleRate: decoder.SampleRate(),
		Positions:  audio.DefaultPositions(channels),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mp3 format: %w", err)
	}

	_, seekable := src.reader().(io.Seeker)
	return &MP3Decoder{
		decoder:  decoder,
		format:   format,
		seekable: seekable,
		buf:      make([]byte, opts.blockFrames()*mp3BytesPerFrame),
	}, nil
}

// Format returns the stream format
func (d *MP3Decoder) Format() audio.FormatInfo {
	return d.format
}

// ReadBlock decodes the next block of frames
func (d *MP3Decoder) ReadBlock() (audio.Block, error) {
	n, err := io.ReadFull(d.decoder, d.buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return audio.Block{}, io.EOF
		}
		return audio.Block{}, fmt.Errorf("mp3 decode error: %w", err)
	}

	frames := n / mp3BytesPerFrame
	if frames == 0 {
		return audio.Block{}, io.EOF
	}

	channels := d.format.Channels
	samples := make([]float32, frames*channels)
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			at := (f*mp3OutputChannels + c) * 2
			samples[f*channels+c] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(d.buf[at:])))
		}
	}

	block := audio.Block{
		Timestamp: audio.FramesDuration(d.frames, d.format.SampleRate),
		Channels:  channels,
		Samples:   samples,
	}
	d.frames += int64(frames)
	return block, nil
}

// SeekTo repositions the decoder. Only seekable sources are supported.
func (d *MP3Decoder) SeekTo(offset time.Duration) (time.Duration, error) {
	if !d.seekable {
		return 0, ErrSeekUnsupported
	}
	frames := audio.DurationFrames(offset, d.format.SampleRate)
	pos, err := d.decoder.Seek(frames*mp3BytesPerFrame, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("mp3 seek failed: %w", err)
	}
	d.frames = pos / mp3BytesPerFrame
	return audio.FramesDuration(d.frames, d.format.SampleRate), nil
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return nil
}

// mp3SourceChannels finds the first frame header after any ID3v2 tag and
// returns its channel count. Streams without a recognizable header are
// reported as stereo and left for go-mp3 to reject.
func mp3SourceChannels(src *prefixReader) (int, error) {
	head, err := src.peekAt(0, id3HeaderLen)
	if err != nil {
		return 0, err
	}
	window, err := src.peekAt(ID3TagLen(head), mp3SyncWindow)
	if err != nil {
		return 0, err
	}
	if mode, ok := mp3ChannelMode(window); ok && mode == mp3ModeMono {
		return 1, nil
	}
	return 2, nil
}

// mp3ChannelMode scans buf for the first plausible Layer III frame header
// and returns its channel mode bits.
func mp3ChannelMode(buf []byte) (byte, bool) {
	for i := 0; i+mp3HeaderLen <= len(buf); i++ {
		h := buf[i : i+mp3HeaderLen]
		if h[0] != 0xFF || h[1]&0xE0 != 0xE0 {
			continue
		}
		version := (h[1] >> 3) & 0x3
		layer := (h[1] >> 1) & 0x3
		bitrate := h[2] >> 4
		rate := (h[2] >> 2) & 0x3
		if version == 0x1 || layer != 0x1 || bitrate == 0xF || rate == 0x3 {
			continue
		}
		return h[3] >> 6, true
	}
	return 0, false
}
