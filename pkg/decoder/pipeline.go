// ABOUTME: Decode pipeline graph and shared session state
// ABOUTME: Tracks lifecycle state, attached stages, the completion bus and teardown
package decoder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"weak"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Resonate-Protocol/resonate-decoder/internal/observe"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio/decode"
)

// message is a terminal bus event; a nil err means end of stream.
type message struct {
	err *Error
}

type pipeline struct {
	id      string
	log     *slog.Logger
	metrics *observe.Metrics
	disp    *dispatcher
	opts    resolved
	req     Request
	credits <-chan Credit

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	// bus holds the first terminal event; later ones are dropped.
	bus       chan message
	prerolled chan struct{}
	play      chan struct{}

	// stream is written by the source stage before prerolled is closed and
	// is only touched by the controller between prerolled and play.
	stream decode.Stream

	// Topology extension handlers. They hold only a weak reference to the
	// pipeline and refuse to extend a stopped one.
	onFormat  func(audio.FormatInfo) (*demuxer, error)
	onChannel func(index int)

	mu       sync.Mutex
	state    State
	stages   []string
	format   *audio.FormatInfo
	demux    *demuxer
	wired    []bool
	drained  int
	closeSrc func() error

	teardownOnce sync.Once
}

func newPipeline(parent context.Context, req Request, credits <-chan Credit, disp *dispatcher, opts resolved) *pipeline {
	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)
	id := uuid.NewString()

	p := &pipeline{
		id:        id,
		log:       opts.Logger.With("session", id),
		metrics:   opts.metrics,
		disp:      disp,
		opts:      opts,
		req:       req,
		credits:   credits,
		ctx:       gctx,
		cancel:    cancel,
		group:     group,
		bus:       make(chan message, 1),
		prerolled: make(chan struct{}),
		play:      make(chan struct{}),
		state:     StateIdle,
		stages:    []string{"source"},
	}

	ref := weak.Make(p)
	p.onFormat = func(format audio.FormatInfo) (*demuxer, error) {
		pp := ref.Value()
		if pp == nil || pp.State() == StateStopped {
			return nil, backendError("pipeline torn down before format discovery")
		}
		return pp.extendFormat(format)
	}
	p.onChannel = func(index int) {
		pp := ref.Value()
		if pp == nil || pp.State() == StateStopped {
			disp.error(backendError("pipeline torn down before channel %d was wired", index))
			return
		}
		if err := pp.extendChannel(index); err != nil {
			pp.post(err)
		}
	}
	return p
}

// State returns the current lifecycle state.
func (p *pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Stages lists the attached stages in attachment order.
func (p *pipeline) Stages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.stages))
	copy(out, p.stages)
	return out
}

func (p *pipeline) setState(to State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	from := p.state
	if from == StateStopped && to == StateStopped {
		return nil
	}
	if from == StateStopped || !canTransition(from, to) {
		return stateChangeError(from, to)
	}
	if to == StatePaused && len(p.stages) == 0 {
		return &Error{Kind: KindStateChangeFailed, Detail: "no source stage attached"}
	}

	p.state = to
	p.log.Debug("state changed", "from", from, "to", to)
	return nil
}

// post publishes a terminal event. Only the first event is kept.
func (p *pipeline) post(err *Error) {
	select {
	case p.bus <- message{err: err}:
	default:
	}
}

// fail reports err on the bus unless the session is already shutting down.
func (p *pipeline) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	e := classify(err)
	p.post(e)
	return e
}

func (p *pipeline) extendFormat(format audio.FormatInfo) (*demuxer, error) {
	if err := format.Validate(); err != nil {
		return nil, backendError("missing format metadata: %v", err)
	}

	p.mu.Lock()
	if p.format != nil {
		d := p.demux
		p.mu.Unlock()
		return d, nil
	}
	f := format
	p.format = &f
	p.demux = newDemuxer(format, p.opts.sampleRate, p.opts.QueueDepth, p.onChannel)
	p.wired = make([]bool, format.Channels)
	p.stages = append(p.stages, "convert", "resample", "capsfilter", "deinterleave")
	d := p.demux
	p.mu.Unlock()

	p.log.Debug("format discovered",
		"channels", format.Channels,
		"sample_rate", format.SampleRate,
		"target_sample_rate", p.opts.sampleRate)
	p.disp.ready(uint32(format.Channels))
	return d, nil
}

func (p *pipeline) extendChannel(index int) *Error {
	p.mu.Lock()
	if index < 0 || index >= len(p.wired) {
		p.mu.Unlock()
		return backendError("channel %d out of range", index)
	}
	if p.wired[index] {
		p.mu.Unlock()
		return nil
	}
	p.wired[index] = true
	p.stages = append(p.stages, fmt.Sprintf("queue%d", index), fmt.Sprintf("sink%d", index))
	e := newEmitter(p, index, p.demux.queue(index), p.format.Positions[index])
	p.mu.Unlock()

	p.log.Debug("channel wired", "channel", index, "position", e.position)
	p.group.Go(e.run)
	return nil
}

// channelDrained is called by each emitter once its queue is exhausted.
// The last one posts end of stream.
func (p *pipeline) channelDrained(index int) {
	p.mu.Lock()
	p.drained++
	all := p.drained == len(p.wired)
	p.mu.Unlock()

	p.log.Debug("channel drained", "channel", index)
	if all {
		p.post(nil)
	}
}

func (p *pipeline) setCloser(c io.Closer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeSrc = sync.OnceValue(c.Close)
}

func (p *pipeline) closeSource() {
	p.mu.Lock()
	closeSrc := p.closeSrc
	p.mu.Unlock()
	if closeSrc != nil {
		if err := closeSrc(); err != nil {
			p.log.Debug("closing source failed", "error", err)
		}
	}
}

// teardown stops the pipeline and waits for every stage to exit. It is
// safe to call more than once.
func (p *pipeline) teardown() {
	p.teardownOnce.Do(func() {
		_ = p.setState(StateStopped)
		p.cancel()
		p.closeSource()
		if err := p.group.Wait(); err != nil {
			p.log.Debug("stages exited", "error", err)
		}
		p.log.Debug("pipeline torn down")
	})
}
