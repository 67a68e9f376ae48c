// ABOUTME: Decode entry point and lifecycle controller
// ABOUTME: Drives a session from Idle to Stopped and delivers exactly one terminal callback
package decoder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio/decode"
)

// Source is what to decode: a URI, or a raw byte stream when URI is empty.
//
// WAV input that cannot seek, such as an http(s) URI or a plain io.Reader
// stream, is read whole into memory before the format is reported. Other
// formats are decoded as they arrive.
type Source struct {
	// URI is a file path, file://, http(s):// or s3:// location.
	URI string

	// Stream is read directly and is never closed by the decoder.
	Stream io.Reader
}

func (s Source) describe() string {
	if s.URI != "" {
		return s.URI
	}
	return "stream"
}

// Request describes one decode session.
type Request struct {
	Source Source

	// StartOffset drops audio before this position. Zero means no offset.
	StartOffset time.Duration
}

// Decode decodes req.Source into per-channel float32 buffers delivered
// through cb. It blocks until the terminal callback (OnEOS or OnError) has
// fired and the pipeline is torn down, or returns right after reporting a
// setup failure.
//
// Each channel may emit CreditWindow buffers before it blocks waiting for a
// value on credits; one value lets one channel continue for another window.
// A closed credit channel ends the session with a Backend error. Cancelling
// ctx ends the session with a Backend error.
func Decode(ctx context.Context, req Request, credits <-chan Credit, cb Callbacks, opts Options) {
	disp := newDispatcher(cb)

	o, err := opts.resolve()
	if err != nil {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("decode setup failed", "error", err)
		disp.error(classify(err))
		return
	}
	if req.Source.URI == "" && req.Source.Stream == nil {
		o.Logger.Warn("decode setup failed", "error", "no source")
		disp.error(backendError("no source: set a URI or a stream"))
		return
	}
	if req.StartOffset < 0 {
		disp.error(backendError("negative start offset %v", req.StartOffset))
		return
	}

	p := newPipeline(ctx, req, credits, disp, o)
	defer p.teardown()
	p.run(ctx)
}

// run drives the pipeline to a terminal event and delivers it.
func (p *pipeline) run(parent context.Context) {
	p.metrics.SessionStarted(parent)
	p.log.Info("decode session started",
		"source", p.req.Source.describe(),
		"start_offset", p.req.StartOffset,
		"target_sample_rate", p.opts.sampleRate)

	msg := p.drive(parent)

	outcome := "eos"
	if msg.err != nil {
		outcome = "error"
		_ = p.setState(StateError)
		p.log.Warn("decode session failed", "error", msg.err)
		p.disp.error(msg.err)
	} else {
		_ = p.setState(StateEOS)
		p.log.Info("decode session finished")
		p.disp.eos()
	}
	p.metrics.SessionFinished(context.WithoutCancel(parent), outcome)
}

func (p *pipeline) drive(parent context.Context) message {
	if err := p.setState(StatePaused); err != nil {
		return message{err: classify(err)}
	}
	p.group.Go(p.runSource)

	select {
	case <-p.prerolled:
	case msg := <-p.bus:
		return msg
	case <-parent.Done():
		return cancelled(parent)
	}
	if parent.Err() != nil {
		return cancelled(parent)
	}

	if p.req.StartOffset > 0 {
		if err := p.seek(p.req.StartOffset); err != nil {
			return message{err: err}
		}
	}

	if err := p.setState(StatePlaying); err != nil {
		return message{err: classify(err)}
	}
	close(p.play)

	select {
	case msg := <-p.bus:
		return msg
	case <-parent.Done():
		return cancelled(parent)
	}
}

// seek repositions the source before playback. Sources that cannot seek
// rely on per-channel trimming alone.
func (p *pipeline) seek(offset time.Duration) *Error {
	seeker, ok := p.stream.(decode.Seeker)
	if !ok {
		p.log.Debug("source cannot seek, trimming only", "offset", offset)
		return nil
	}

	landed, err := seeker.SeekTo(offset)
	if errors.Is(err, decode.ErrSeekUnsupported) {
		p.log.Debug("source cannot seek, trimming only", "offset", offset)
		return nil
	}
	if err != nil {
		return &Error{Kind: KindBackend, Detail: "seek failed: " + err.Error(), Err: err}
	}
	p.log.Debug("seeked", "offset", offset, "position", landed)
	return nil
}

func cancelled(ctx context.Context) message {
	return message{err: &Error{Kind: KindBackend, Detail: "decode cancelled: " + ctx.Err().Error(), Err: ctx.Err()}}
}
