// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF/WAVE integer and float PCM, plain or extensible, to float32 blocks
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE

	// fmt chunk size once the extensible fields are present
	wavExtensibleFmtLen = 40
)

// wavSubFormatTail is the part of the KSDATAFORMAT_SUBTYPE GUID shared by
// every format code; the first two bytes carry the code itself.
var wavSubFormatTail = []byte{0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// wavSpeakerPositions maps WAVEFORMATEXTENSIBLE channel mask bits, lowest
// first, to positions. Speakers with no counterpart map to PositionNone.
var wavSpeakerPositions = []audio.ChannelPosition{
	audio.PositionFrontLeft,
	audio.PositionFrontRight,
	audio.PositionFrontCenter,
	audio.PositionLFE,
	audio.PositionRearLeft,
	audio.PositionRearRight,
	audio.PositionNone, // front left of center
	audio.PositionNone, // front right of center
	audio.PositionRearCenter,
	audio.PositionSideLeft,
	audio.PositionSideRight,
}

// wavExtension holds the WAVEFORMATEXTENSIBLE fields that follow the
// plain fmt chunk.
type wavExtension struct {
	ValidBits   uint16
	ChannelMask uint32
	SubFormat   [16]byte
}

// formatCode returns the audio format code carried by the SubFormat GUID.
func (e wavExtension) formatCode() (uint16, error) {
	if !bytes.Equal(e.SubFormat[2:], wavSubFormatTail) {
		return 0, fmt.Errorf("unsupported wav sub-format % x", e.SubFormat)
	}
	return binary.LittleEndian.Uint16(e.SubFormat[:2]), nil
}

// positions assigns mask speakers to channels in mask order.
func (e wavExtension) positions(channels int) []audio.ChannelPosition {
	if e.ChannelMask == 0 {
		return audio.DefaultPositions(channels)
	}
	if channels == 1 {
		return []audio.ChannelPosition{audio.PositionMono}
	}
	layout := make([]audio.ChannelPosition, 0, channels)
	for bit := 0; bit < 32 && len(layout) < channels; bit++ {
		if e.ChannelMask&(1<<bit) == 0 {
			continue
		}
		pos := audio.PositionNone
		if bit < len(wavSpeakerPositions) {
			pos = wavSpeakerPositions[bit]
		}
		layout = append(layout, pos)
	}
	for len(layout) < channels {
		layout = append(layout, audio.PositionNone)
	}
	return layout
}

// readWAVExtension walks the RIFF chunks from the start of rs to the fmt
// chunk and decodes its extensible fields. rs is left where it was.
func readWAVExtension(rs io.ReadSeeker, start int64) (wavExtension, error) {
	pos, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return wavExtension{}, err
	}
	defer rs.Seek(pos, io.SeekStart)

	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return wavExtension{}, err
	}
	parser := riff.New(rs)
	if err := parser.ParseHeaders(); err != nil {
		return wavExtension{}, err
	}
	for {
		chunk, err := parser.NextChunk()
		if err != nil {
			return wavExtension{}, fmt.Errorf("no fmt chunk: %w", err)
		}
		if chunk.ID != riff.FmtID {
			chunk.Drain()
			continue
		}
		if chunk.Size < wavExtensibleFmtLen {
			return wavExtension{}, fmt.Errorf("extensible fmt chunk is %d bytes, want %d", chunk.Size, wavExtensibleFmtLen)
		}

		var fields struct {
			Plain       [16]byte
			CbSize      uint16
			ValidBits   uint16
			ChannelMask uint32
			SubFormat   [16]byte
		}
		if err := chunk.ReadLE(&fields); err != nil {
			return wavExtension{}, err
		}
		return wavExtension{
			ValidBits:   fields.ValidBits,
			ChannelMask: fields.ChannelMask,
			SubFormat:   fields.SubFormat,
		}, nil
	}
}

var errWAVCodec = errors.New("unsupported wav codec")

// WAVDecoder decodes WAV audio
type WAVDecoder struct {
	dec      *wav.Decoder
	format   audio.FormatInfo
	bitDepth int
	float    bool
	buf      *goaudio.IntBuffer
	carry    []int // samples of an incomplete trailing frame
	frames   int64
	// the RIFF chunk reader is not bounded, so stop at the data chunk size
	remaining int
}

// NewWAV creates a WAV stream. Non-seekable sources are read whole into
// memory before the stream opens because the RIFF parser requires random
// access; callers streaming long WAV input should pass an io.ReadSeeker.
func NewWAV(r io.Reader, opts Options) (*WAVDecoder, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to buffer wav stream: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to locate wav stream start: %w", err)
	}

	dec := wav.NewDecoder(rs)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate wav data chunk: %w", err)
	}
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wav headers: %w", err)
	}
	if dec.PCMChunk == nil {
		return nil, fmt.Errorf("wav stream has no data chunk")
	}

	channels := int(dec.NumChans)
	code := dec.WavAudioFormat
	positions := audio.DefaultPositions(channels)
	if code == wavFormatExtensible {
		ext, err := readWAVExtension(rs, start)
		if err != nil {
			return nil, fmt.Errorf("failed to read extensible wav format: %w", err)
		}
		if code, err = ext.formatCode(); err != nil {
			return nil, err
		}
		positions = ext.positions(channels)
	}
	switch code {
	case wavFormatPCM, wavFormatFloat:
	default:
		return nil, fmt.Errorf("%w: wav format code %#x", errWAVCodec, code)
	}

	format := audio.FormatInfo{
		Channels:   channels,
		SampleRate: int(dec.SampleRate),
		Positions:  positions,
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wav format: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported wav bit depth: %d", bitDepth)
	}
	isFloat := code == wavFormatFloat
	if isFloat && bitDepth != 32 {
		return nil, fmt.Errorf("unsupported wav float bit depth: %d", bitDepth)
	}

	return &WAVDecoder{
		dec:      dec,
		format:   format,
		bitDepth: bitDepth,
		float:    isFloat,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			Data:   make([]int, opts.blockFrames()*channels),
		},
		remaining: dec.PCMSize / (bitDepth / 8),
	}, nil
}

// Format returns the stream format
func (d *WAVDecoder) Format() audio.FormatInfo {
	return d.format
}

// ReadBlock decodes the next block of frames
func (d *WAVDecoder) ReadBlock() (audio.Block, error) {
	if d.remaining <= 0 {
		return audio.Block{}, io.EOF
	}
	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil {
		return audio.Block{}, fmt.Errorf("wav decode error: %w", err)
	}
	if n == 0 {
		return audio.Block{}, io.EOF
	}
	n = min(n, d.remaining)
	d.remaining -= n

	raw := append(d.carry, d.buf.Data[:n]...)
	channels := d.format.Channels
	whole := len(raw) / channels * channels
	d.carry = append(d.carry[:0:0], raw[whole:]...)
	raw = raw[:whole]

	samples := make([]float32, len(raw))
	for i, v := range raw {
		samples[i] = d.sample(v)
	}

	block := audio.Block{
		Timestamp: audio.FramesDuration(d.frames, d.format.SampleRate),
		Channels:  channels,
		Samples:   samples,
	}
	d.frames += int64(len(raw) / channels)
	return block, nil
}

func (d *WAVDecoder) sample(v int) float32 {
	switch {
	case d.float:
		return math.Float32frombits(uint32(int32(v)))
	case d.bitDepth == 8:
		return audio.SampleFromUint8(uint8(v))
	default:
		return audio.SampleFromInt(int32(v), d.bitDepth)
	}
}

// Close releases decoder resources
func (d *WAVDecoder) Close() error {
	return nil
}
