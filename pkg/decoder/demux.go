// ABOUTME: Channel demultiplexer
// ABOUTME: Splits interleaved blocks into per-channel buffers on bounded queues
package decoder

import (
	"context"
	"time"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

type demuxer struct {
	format    audio.FormatInfo
	rate      int
	queues    []chan *audio.ChannelBuffer
	onChannel func(index int)
}

func newDemuxer(format audio.FormatInfo, rate, depth int, onChannel func(int)) *demuxer {
	queues := make([]chan *audio.ChannelBuffer, format.Channels)
	for i := range queues {
		queues[i] = make(chan *audio.ChannelBuffer, depth)
	}
	return &demuxer{
		format:    format,
		rate:      rate,
		queues:    queues,
		onChannel: onChannel,
	}
}

// announce raises one channel-discovered event per output channel.
func (d *demuxer) announce() {
	for i := range d.queues {
		d.onChannel(i)
	}
}

func (d *demuxer) queue(index int) <-chan *audio.ChannelBuffer {
	return d.queues[index]
}

// push deinterleaves samples (already at the output rate) and queues one
// buffer per channel, blocking while a queue is full.
func (d *demuxer) push(ctx context.Context, timestamp time.Duration, samples []float32) error {
	n := len(d.queues)
	frames := len(samples) / n
	if frames == 0 {
		return nil
	}
	duration := audio.FramesDuration(int64(frames), d.rate)

	for c := 0; c < n; c++ {
		out := make([]float32, frames)
		for f := range out {
			out[f] = samples[f*n+c]
		}
		buf := audio.NewChannelBuffer(out, timestamp, duration, d.format.Positions[c])

		select {
		case d.queues[c] <- buf:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// finish signals end of stream to every channel.
func (d *demuxer) finish() {
	for _, q := range d.queues {
		close(q)
	}
}
