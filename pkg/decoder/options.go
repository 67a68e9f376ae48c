// ABOUTME: Decode options and defaults
// ABOUTME: Target sample rate, buffering, logging, metrics and source resolution
package decoder

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/Resonate-Protocol/resonate-decoder/internal/config"
	"github.com/Resonate-Protocol/resonate-decoder/internal/observe"
	"github.com/Resonate-Protocol/resonate-decoder/internal/source"
	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio/decode"
)

const (
	// DefaultSampleRate is used when Options.TargetSampleRate is zero.
	DefaultSampleRate = 44100

	// DefaultQueueDepth is the per-channel buffer count between demux and emitter.
	DefaultQueueDepth = 50

	// CreditWindow is the number of blocks a channel may emit per credit.
	CreditWindow = 40

	defaultHTTPTimeout = 30 * time.Second
)

// SourceOpener resolves Source.URI to a byte stream.
type SourceOpener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Options configures a decode session
type Options struct {
	// TargetSampleRate is the output rate in Hz. Zero selects DefaultSampleRate.
	TargetSampleRate float64

	// BlockFrames is the decode granularity for sample-oriented codecs.
	BlockFrames int

	// QueueDepth bounds each channel's pending buffers.
	QueueDepth int

	Logger        *slog.Logger
	MeterProvider metric.MeterProvider
	Opener        SourceOpener
}

// DefaultOptions returns options equivalent to the zero value with all
// defaults filled in.
func DefaultOptions() Options {
	o, _ := Options{}.resolve()
	return o.Options
}

// resolved carries options plus derived session collaborators.
type resolved struct {
	Options
	sampleRate int
	metrics    *observe.Metrics
}

func (o Options) resolve() (resolved, error) {
	if o.TargetSampleRate == 0 {
		o.TargetSampleRate = DefaultSampleRate
	}
	if math.IsNaN(o.TargetSampleRate) || math.IsInf(o.TargetSampleRate, 0) || o.TargetSampleRate < 1 {
		return resolved{}, backendError("invalid target sample rate %v", o.TargetSampleRate)
	}
	if o.BlockFrames <= 0 {
		o.BlockFrames = decode.DefaultBlockFrames
	}
	if o.QueueDepth <= 0 {
		o.QueueDepth = DefaultQueueDepth
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Opener == nil {
		registry, err := source.NewDefaultRegistry(defaultHTTPTimeout, nil)
		if err != nil {
			return resolved{}, classify(err)
		}
		o.Opener = registry
	}

	metrics := observe.DefaultMetrics()
	if o.MeterProvider != nil {
		m, err := observe.NewMetrics(o.MeterProvider)
		if err != nil {
			return resolved{}, backendError("failed to create metrics: %v", err)
		}
		metrics = m
	}

	return resolved{
		Options:    o,
		sampleRate: int(math.Round(o.TargetSampleRate)),
		metrics:    metrics,
	}, nil
}

// OptionsFromEnv builds options from DECODER_* environment variables,
// including an s3:// opener when DECODER_S3_ENDPOINT is set.
func OptionsFromEnv(ctx context.Context) (Options, error) {
	cfg, err := config.NewDecoderConfigFromEnv(ctx)
	if err != nil {
		return Options{}, err
	}
	s3cfg, err := config.NewS3ConfigFromEnv(ctx)
	if err != nil {
		return Options{}, err
	}
	registry, err := source.NewDefaultRegistry(cfg.HTTPTimeout, s3cfg)
	if err != nil {
		return Options{}, err
	}

	return Options{
		TargetSampleRate: cfg.TargetSampleRate,
		BlockFrames:      cfg.BlockFrames,
		QueueDepth:       cfg.QueueDepth,
		Opener:           registry,
	}, nil
}
