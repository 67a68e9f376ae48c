// ABOUTME: Source stage and format prober
// ABOUTME: Opens the source, discovers its format, then decodes and resamples into the demuxer
package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio/resample"
)

// runSource is the pipeline's source stage. It prerolls (format discovery
// and channel wiring) while Paused and produces data once Playing.
func (p *pipeline) runSource() error {
	ctx := p.ctx

	r, err := p.openSource(ctx)
	if err != nil {
		return p.fail(ctx, err)
	}
	defer p.closeSource()

	stream, err := decode.Probe(r, decode.Options{BlockFrames: p.opts.BlockFrames})
	if err != nil {
		return p.fail(ctx, fmt.Errorf("failed to probe source: %w", err))
	}
	defer stream.Close()

	format := stream.Format()
	demux, err := p.onFormat(format)
	if err != nil {
		return p.fail(ctx, err)
	}
	resampler := resample.New(format.SampleRate, p.opts.sampleRate, format.Channels)
	demux.announce()

	p.stream = stream
	close(p.prerolled)

	select {
	case <-p.play:
	case <-ctx.Done():
		return ctx.Err()
	}

	var end time.Duration
	for {
		block, err := stream.ReadBlock()
		if errors.Is(err, io.EOF) {
			if err := demux.push(ctx, end, resampler.Flush()); err != nil {
				return err
			}
			demux.finish()
			return nil
		}
		if err != nil {
			return p.fail(ctx, err)
		}
		if block.Frames() == 0 {
			continue
		}

		end = block.Timestamp + audio.FramesDuration(int64(block.Frames()), format.SampleRate)
		samples := resampler.Resample(block.Samples)
		if err := demux.push(ctx, block.Timestamp, samples); err != nil {
			return err
		}
	}
}

func (p *pipeline) openSource(ctx context.Context) (io.Reader, error) {
	src := p.req.Source
	if src.URI == "" {
		return src.Stream, nil
	}

	rc, err := p.opts.Opener.Open(ctx, src.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src.URI, err)
	}
	p.setCloser(rc)
	return rc, nil
}
