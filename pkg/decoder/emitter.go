// ABOUTME: Per-channel emitter
// ABOUTME: Pulls channel buffers, trims before the start offset and delivers progress under credit
package decoder

import (
	"time"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

type emitter struct {
	p        *pipeline
	index    int
	queue    <-chan *audio.ChannelBuffer
	window   *creditWindow
	start    time.Duration
	position audio.ChannelPosition
}

func newEmitter(p *pipeline, index int, queue <-chan *audio.ChannelBuffer, position audio.ChannelPosition) *emitter {
	return &emitter{
		p:        p,
		index:    index,
		queue:    queue,
		window:   newCreditWindow(p.credits, CreditWindow),
		start:    p.req.StartOffset,
		position: position,
	}
}

func (e *emitter) run() error {
	ctx := e.p.ctx
	for {
		var buf *audio.ChannelBuffer
		var ok bool
		select {
		case buf, ok = <-e.queue:
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			e.p.channelDrained(e.index)
			return nil
		}

		if err := e.check(buf); err != nil {
			return e.p.fail(ctx, err)
		}
		if e.start > 0 && buf.Timestamp() < e.start {
			e.p.metrics.RecordTrimmed(ctx, e.index)
			continue
		}

		waited, err := e.window.acquire(ctx)
		if waited > 0 {
			e.p.metrics.RecordCreditWait(ctx, waited)
			e.p.log.Debug("credit wait", "channel", e.index, "waited", waited)
		}
		if err != nil {
			return e.p.fail(ctx, err)
		}

		if e.p.disp.progress(buf, uint32(e.index)) {
			e.p.metrics.RecordEmitted(ctx, e.index)
		}
		e.window.record()
	}
}

// check rejects buffers that cannot be delivered.
func (e *emitter) check(buf *audio.ChannelBuffer) *Error {
	switch {
	case buf == nil:
		return &Error{Kind: KindInvalidSample}
	case buf.Len() == 0:
		return &Error{Kind: KindBufferReadFailed}
	case buf.Position() != e.position:
		return backendError("channel %d buffer has position %s, expected %s", e.index, buf.Position(), e.position)
	}
	return nil
}
