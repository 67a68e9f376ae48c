// ABOUTME: OpenTelemetry metric instruments for the decode pipeline
// ABOUTME: Counts emitted and trimmed blocks, credit waits and session outcomes
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Resonate-Protocol/resonate-decoder/internal/version"
)

// Metrics holds the pipeline's instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// BlocksEmitted counts channel buffers delivered to the consumer.
	// Use with attribute.Int("channel", ...)
	BlocksEmitted metric.Int64Counter

	// BlocksTrimmed counts channel buffers dropped before the start offset.
	BlocksTrimmed metric.Int64Counter

	// CreditWaits counts times an emitter blocked for consumer credit.
	CreditWaits metric.Int64Counter

	// CreditWaitDuration tracks how long emitters waited for credit.
	CreditWaitDuration metric.Float64Histogram

	// Sessions counts finished sessions. Use with attribute.String("outcome", ...)
	Sessions metric.Int64Counter

	ActiveSessions metric.Int64UpDownCounter
}

// waitBuckets are histogram boundaries in seconds for consumer stalls.
var waitBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30,
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(version.Module, metric.WithInstrumentationVersion(version.Version))
	var err error
	met := &Metrics{}

	if met.BlocksEmitted, err = m.Int64Counter("decoder.blocks.emitted",
		metric.WithDescription("Channel buffers delivered to the consumer."),
	); err != nil {
		return nil, err
	}
	if met.BlocksTrimmed, err = m.Int64Counter("decoder.blocks.trimmed",
		metric.WithDescription("Channel buffers dropped before the start offset."),
	); err != nil {
		return nil, err
	}
	if met.CreditWaits, err = m.Int64Counter("decoder.credit.waits",
		metric.WithDescription("Times an emitter blocked waiting for consumer credit."),
	); err != nil {
		return nil, err
	}
	if met.CreditWaitDuration, err = m.Float64Histogram("decoder.credit.wait.duration",
		metric.WithDescription("Time spent blocked waiting for consumer credit."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(waitBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Sessions, err = m.Int64Counter("decoder.sessions",
		metric.WithDescription("Finished decode sessions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("decoder.active_sessions",
		metric.WithDescription("Decode sessions currently running."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a shared instance built from the global provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) RecordEmitted(ctx context.Context, channel int) {
	m.BlocksEmitted.Add(ctx, 1, metric.WithAttributes(attribute.Int("channel", channel)))
}

func (m *Metrics) RecordTrimmed(ctx context.Context, channel int) {
	m.BlocksTrimmed.Add(ctx, 1, metric.WithAttributes(attribute.Int("channel", channel)))
}

func (m *Metrics) RecordCreditWait(ctx context.Context, d time.Duration) {
	m.CreditWaits.Add(ctx, 1)
	m.CreditWaitDuration.Record(ctx, d.Seconds())
}

// SessionStarted increments the active session gauge.
func (m *Metrics) SessionStarted(ctx context.Context) {
	m.ActiveSessions.Add(ctx, 1)
}

// SessionFinished records the outcome and decrements the active gauge.
func (m *Metrics) SessionFinished(ctx context.Context, outcome string) {
	m.ActiveSessions.Add(ctx, -1)
	m.Sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
