// ABOUTME: Re-interleaves per-channel buffers for playback
// ABOUTME: Groups one buffer per channel in arrival order and maps them onto output channels
package app

import (
	"time"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

// interleaver collects the buffers each channel delivers. Channels deliver
// the same blocks in the same order, so the k-th buffer of every channel
// belongs to the same group.
type interleaver struct {
	channels  int
	out       int
	pending   [][]*audio.ChannelBuffer
	positions []audio.ChannelPosition
}

// newInterleaver maps channels onto out output channels. Output channel c
// plays source channel c; extra source channels are dropped.
func newInterleaver(channels, out int) *interleaver {
	return &interleaver{
		channels:  channels,
		out:       min(out, channels),
		pending:   make([][]*audio.ChannelBuffer, channels),
		positions: make([]audio.ChannelPosition, channels),
	}
}

type group struct {
	frames    []float32
	timestamp time.Duration
	duration  time.Duration
}

// add queues buf for channel ch. Once every channel has a pending buffer
// it pops one from each and returns their interleaved frames.
func (m *interleaver) add(ch int, buf *audio.ChannelBuffer) (group, bool) {
	m.pending[ch] = append(m.pending[ch], buf)
	m.positions[ch] = buf.Position()

	for _, q := range m.pending {
		if len(q) == 0 {
			return group{}, false
		}
	}

	heads := make([]*audio.ChannelBuffer, m.channels)
	n := -1
	for c := range m.pending {
		heads[c] = m.pending[c][0]
		m.pending[c] = m.pending[c][1:]
		if n < 0 || heads[c].Len() < n {
			n = heads[c].Len()
		}
	}

	frames := make([]float32, n*m.out)
	for c := 0; c < m.out; c++ {
		for i := 0; i < n; i++ {
			frames[i*m.out+c] = heads[c].At(i)
		}
	}
	return group{frames: frames, timestamp: heads[0].Timestamp(), duration: heads[0].Duration()}, true
}

// layout returns the last seen position name of every channel.
func (m *interleaver) layout() []string {
	names := make([]string, len(m.positions))
	for i, p := range m.positions {
		names[i] = p.String()
	}
	return names
}
