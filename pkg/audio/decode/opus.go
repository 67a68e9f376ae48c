// ABOUTME: Ogg/Opus audio decoder
// ABOUTME: Demuxes Ogg pages into Opus packets and decodes them to float32 blocks
package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/jonas747/ogg"
	"gopkg.in/hraban/opus.v2"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

const (
	// Opus always decodes at 48kHz; the input rate in the header is informational.
	opusSampleRate = 48000
	// 120ms at 48kHz, the largest Opus frame.
	opusMaxFrameSize = 5760
	opusHeadLen      = 19
)

// OpusHead is the identification header of an Ogg Opus stream.
type OpusHead struct {
	Version         uint8
	Channels        int
	PreSkip         int
	InputSampleRate uint32
	OutputGain      int16
	MappingFamily   uint8
}

// ParseOpusHead parses the identification header packet.
func ParseOpusHead(packet []byte) (OpusHead, error) {
	if len(packet) < opusHeadLen || !bytes.HasPrefix(packet, []byte("OpusHead")) {
		return OpusHead{}, fmt.Errorf("invalid OpusHead packet")
	}
	head := OpusHead{
		Version:         packet[8],
		Channels:        int(packet[9]),
		PreSkip:         int(binary.LittleEndian.Uint16(packet[10:12])),
		InputSampleRate: binary.LittleEndian.Uint32(packet[12:16]),
		OutputGain:      int16(binary.LittleEndian.Uint16(packet[16:18])),
		MappingFamily:   packet[18],
	}
	if head.Version>>4 != 0 {
		return OpusHead{}, fmt.Errorf("unsupported opus version: %d", head.Version)
	}
	if head.Channels == 0 {
		return OpusHead{}, fmt.Errorf("opus stream has no channels")
	}
	if head.MappingFamily != 0 || head.Channels > 2 {
		return OpusHead{}, fmt.Errorf("unsupported opus channel mapping family %d with %d channels", head.MappingFamily, head.Channels)
	}
	return head, nil
}

// Gain returns the linear factor for OutputGain, a Q7.8 value in dB.
func (h OpusHead) Gain() float32 {
	return float32(math.Pow(10, float64(h.OutputGain)/(20*256)))
}

// opusFramesWithin returns how many of n decoded frames lie before the end
// of stream. Only the final page's granule position marks the end; it
// counts samples from the start of the stream, pre-skip included.
func opusFramesWithin(page ogg.Page, preSkip int, emitted int64, n int) int {
	if page.Type&ogg.EOS == 0 {
		return n
	}
	left := page.Granule - int64(preSkip) - emitted
	if left <= 0 {
		return 0
	}
	return int(min(left, int64(n)))
}

// OpusDecoder decodes Opus audio
type OpusDecoder struct {
	packets *ogg.PacketDecoder
	decoder *opus.Decoder
	format  audio.FormatInfo
	pcm     []float32
	gain    float32
	preSkip int
	skip    int
	page    ogg.Page // page the last packet finished on
	frames  int64
}

// NewOpus creates an Ogg/Opus stream
func NewOpus(r io.Reader) (*OpusDecoder, error) {
	packets := ogg.NewPacketDecoder(ogg.NewDecoder(r))

	packet, _, err := packets.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to read OpusHead: %w", err)
	}
	head, err := ParseOpusHead(packet)
	if err != nil {
		return nil, err
	}

	// OpusTags carries only metadata.
	if _, _, err := packets.Decode(); err != nil {
		return nil, fmt.Errorf("failed to read OpusTags: %w", err)
	}

	dec, err := opus.NewDecoder(opusSampleRate, head.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		packets: packets,
		decoder: dec,
		format: audio.FormatInfo{
			Channels:   head.Channels,
			SampleRate: opusSampleRate,
			Positions:  audio.DefaultPositions(head.Channels),
		},
		pcm:     make([]float32, opusMaxFrameSize*head.Channels),
		gain:    head.Gain(),
		preSkip: head.PreSkip,
		skip:    head.PreSkip,
	}, nil
}

// Format returns the stream format
func (d *OpusDecoder) Format() audio.FormatInfo {
	return d.format
}

// ReadBlock decodes the next Opus packet
func (d *OpusDecoder) ReadBlock() (audio.Block, error) {
	channels := d.format.Channels
	for {
		packet, page, err := d.packets.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return audio.Block{}, io.EOF
			}
			return audio.Block{}, fmt.Errorf("ogg demux error: %w", err)
		}
		// a zero page means the packet came from the page already held
		if page.Data != nil {
			d.page = page
		}
		if len(packet) == 0 {
			continue
		}

		n, err := d.decoder.DecodeFloat32(packet, d.pcm)
		if err != nil {
			return audio.Block{}, fmt.Errorf("opus decode failed: %w", err)
		}

		start := 0
		if d.skip > 0 {
			start = min(d.skip, n)
			d.skip -= start
		}
		if start == n {
			continue
		}
		keep := opusFramesWithin(d.page, d.preSkip, d.frames, n-start)
		if keep == 0 {
			if d.page.Type&ogg.EOS != 0 {
				return audio.Block{}, io.EOF
			}
			continue
		}

		samples := make([]float32, keep*channels)
		copy(samples, d.pcm[start*channels:(start+keep)*channels])
		if d.gain != 1 {
			for i := range samples {
				samples[i] *= d.gain
			}
		}

		block := audio.Block{
			Timestamp: audio.FramesDuration(d.frames, opusSampleRate),
			Channels:  channels,
			Samples:   samples,
		}
		d.frames += int64(keep)
		return block, nil
	}
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
