// ABOUTME: Decode player application
// ABOUTME: Runs one decode session, plays its channels and grants credit as audio is consumed
package app

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Resonate-Protocol/resonate-decoder/internal/ui"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/decoder"
)

// creditBuffer bounds credits granted ahead of the emitters.
const creditBuffer = 64

// Config holds player configuration
type Config struct {
	Source      decoder.Source
	StartOffset time.Duration
	Options     decoder.Options
}

// Player consumes a decode session. It is single use.
type Player struct {
	config Config
	log    *slog.Logger
	status func(ui.StatusMsg)
	rate   int

	mu         sync.Mutex
	output     output.Output
	mix        *interleaver
	layoutSent bool
	consumed   int
	delivered  int64
	granted    int64
}

// New creates a new player. out may be nil to decode without playback and
// status may be nil when nothing displays progress.
func New(config Config, out output.Output, status func(ui.StatusMsg)) *Player {
	logger := config.Options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if status == nil {
		status = func(ui.StatusMsg) {}
	}

	rate := config.Options.TargetSampleRate
	if rate == 0 {
		rate = decoder.DefaultSampleRate
	}

	return &Player{
		config: config,
		log:    logger,
		status: status,
		rate:   int(math.Round(rate)),
		output: out,
	}
}

// Run decodes the configured source until end of stream, error or ctx
// cancellation. It returns the session error, if any.
func (p *Player) Run(ctx context.Context) error {
	credits := make(chan decoder.Credit, creditBuffer)

	var sessionErr error
	cb := decoder.Callbacks{
		OnReady: p.onReady,
		OnProgress: func(buf *audio.ChannelBuffer, ch uint32) {
			p.onProgress(ctx, credits, buf, ch)
		},
		OnError: func(err error) {
			sessionErr = err
			p.status(ui.StatusMsg{State: "error", Err: err.Error()})
		},
		OnEOS: func() {
			p.status(ui.StatusMsg{State: "finished"})
		},
	}

	req := decoder.Request{Source: p.config.Source, StartOffset: p.config.StartOffset}
	decoder.Decode(ctx, req, credits, cb, p.config.Options)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.output != nil {
		if err := p.output.Close(); err != nil {
			p.log.Warn("failed to close output", "error", err)
		}
	}
	return sessionErr
}

func (p *Player) onReady(channels uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	outChannels := min(int(channels), 2)
	p.mix = newInterleaver(int(channels), outChannels)

	if p.output != nil {
		if err := p.output.Open(p.rate, outChannels); err != nil {
			p.log.Warn("playback disabled", "error", err)
			p.output = nil
		}
	}
	if channels > 2 {
		p.log.Info("playing the first two channels only", "channels", channels)
	}

	p.status(ui.StatusMsg{State: "playing", SampleRate: p.rate, Channels: int(channels)})
}

func (p *Player) onProgress(ctx context.Context, credits chan<- decoder.Credit, buf *audio.ChannelBuffer, ch uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.delivered++
	g, ok := p.mix.add(int(ch), buf)
	if !ok {
		return
	}

	if p.output != nil {
		if err := p.output.Write(g.frames); err != nil {
			p.log.Warn("playback stopped", "error", err)
			p.output = nil
		}
	}

	// Every channel's buffer in the group is consumed now.
	p.consumed += p.mix.channels
	for p.consumed >= decoder.CreditWindow {
		p.consumed -= decoder.CreditWindow
		select {
		case credits <- decoder.Credit{}:
			p.granted++
		case <-ctx.Done():
			return
		}
	}

	msg := ui.StatusMsg{
		Position:  g.timestamp + g.duration,
		Delivered: p.delivered,
		Credits:   p.granted,
	}
	if !p.layoutSent {
		p.layoutSent = true
		msg.Channels = p.mix.channels
		msg.SampleRate = p.rate
		msg.Positions = p.mix.layout()
	}
	p.status(msg)
}
