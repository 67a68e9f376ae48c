// ABOUTME: Audio type definitions
// ABOUTME: Defines stream format info, decoded blocks and per-channel buffers
package audio

import (
	"fmt"
	"time"
)

// ChannelPosition is the speaker position a demultiplexed channel carries.
type ChannelPosition int

const (
	PositionInvalid ChannelPosition = iota - 1
	PositionNone
	PositionMono
	PositionFrontLeft
	PositionFrontRight
	PositionFrontCenter
	PositionLFE
	PositionRearLeft
	PositionRearRight
	PositionRearCenter
	PositionSideLeft
	PositionSideRight
)

var positionNames = map[ChannelPosition]string{
	PositionInvalid:     "invalid",
	PositionNone:        "none",
	PositionMono:        "mono",
	PositionFrontLeft:   "front-left",
	PositionFrontRight:  "front-right",
	PositionFrontCenter: "front-center",
	PositionLFE:         "lfe",
	PositionRearLeft:    "rear-left",
	PositionRearRight:   "rear-right",
	PositionRearCenter:  "rear-center",
	PositionSideLeft:    "side-left",
	PositionSideRight:   "side-right",
}

func (p ChannelPosition) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("position(%d)", int(p))
}

// Valid reports whether p names a known position. PositionNone is valid
// (unpositioned channel); PositionInvalid is not.
func (p ChannelPosition) Valid() bool {
	_, ok := positionNames[p]
	return ok && p != PositionInvalid
}

// DefaultPositions returns the conventional WAVE/SMPTE speaker layout for n
// channels. Layouts beyond 7.1 are reported unpositioned.
func DefaultPositions(n int) []ChannelPosition {
	var layout []ChannelPosition
	switch n {
	case 1:
		layout = []ChannelPosition{PositionMono}
	case 2:
		layout = []ChannelPosition{PositionFrontLeft, PositionFrontRight}
	case 3:
		layout = []ChannelPosition{PositionFrontLeft, PositionFrontRight, PositionFrontCenter}
	case 4:
		layout = []ChannelPosition{PositionFrontLeft, PositionFrontRight, PositionRearLeft, PositionRearRight}
	case 5:
		layout = []ChannelPosition{PositionFrontLeft, PositionFrontRight, PositionFrontCenter, PositionRearLeft, PositionRearRight}
	case 6:
		layout = []ChannelPosition{PositionFrontLeft, PositionFrontRight, PositionFrontCenter, PositionLFE, PositionRearLeft, PositionRearRight}
	case 7:
		layout = []ChannelPosition{PositionFrontLeft, PositionFrontRight, PositionFrontCenter, PositionLFE, PositionRearCenter, PositionSideLeft, PositionSideRight}
	case 8:
		layout = []ChannelPosition{PositionFrontLeft, PositionFrontRight, PositionFrontCenter, PositionLFE, PositionRearLeft, PositionRearRight, PositionSideLeft, PositionSideRight}
	default:
		if n <= 0 {
			return nil
		}
		layout = make([]ChannelPosition, n)
		for i := range layout {
			layout[i] = PositionNone
		}
	}
	return layout
}

// FormatInfo describes a decoded stream once its media type is known.
type FormatInfo struct {
	Channels   int
	SampleRate int
	// Positions[i] is the position of channel i; len(Positions) == Channels.
	Positions []ChannelPosition
}

// Validate checks that the format can be demultiplexed.
func (f FormatInfo) Validate() error {
	if f.Channels <= 0 {
		return fmt.Errorf("format has no channels")
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("format has no sample rate")
	}
	if len(f.Positions) != f.Channels {
		return fmt.Errorf("format has %d positions for %d channels", len(f.Positions), f.Channels)
	}
	return nil
}

// Block is one unit of interleaved float32 PCM produced by a decoder.
type Block struct {
	Timestamp time.Duration
	Channels  int
	Samples   []float32
}

// Frames returns the number of sample frames in the block.
func (b Block) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// FramesDuration converts a frame count at sampleRate to a duration.
func FramesDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames * int64(time.Second) / int64(sampleRate))
}

// DurationFrames converts a duration to a whole number of frames at sampleRate.
func DurationFrames(d time.Duration, sampleRate int) int64 {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return int64(d) * int64(sampleRate) / int64(time.Second)
}

// ChannelBuffer is an immutable single-channel run of float32 samples.
type ChannelBuffer struct {
	samples   []float32
	timestamp time.Duration
	duration  time.Duration
	position  ChannelPosition
}

// NewChannelBuffer wraps samples; the caller must not modify them afterwards.
func NewChannelBuffer(samples []float32, timestamp, duration time.Duration, position ChannelPosition) *ChannelBuffer {
	return &ChannelBuffer{
		samples:   samples,
		timestamp: timestamp,
		duration:  duration,
		position:  position,
	}
}

// Len returns the number of samples.
func (b *ChannelBuffer) Len() int { return len(b.samples) }

// At returns sample i.
func (b *ChannelBuffer) At(i int) float32 { return b.samples[i] }

// Samples returns a copy of the buffer contents.
func (b *ChannelBuffer) Samples() []float32 {
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// CopyTo copies samples into dst and returns the number copied.
func (b *ChannelBuffer) CopyTo(dst []float32) int { return copy(dst, b.samples) }

// Timestamp is the presentation time of the first sample.
func (b *ChannelBuffer) Timestamp() time.Duration { return b.timestamp }

// Duration is the playback length of the buffer.
func (b *ChannelBuffer) Duration() time.Duration { return b.duration }

// Position is the speaker position of the channel.
func (b *ChannelBuffer) Position() ChannelPosition { return b.position }
