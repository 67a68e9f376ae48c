// ABOUTME: Shared helpers for decoder tests
// ABOUTME: Records callbacks and builds quiet options with an in-memory meter
package decoder

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

// recorder captures every callback in arrival order.
type recorder struct {
	mu       sync.Mutex
	events   []string
	ready    []uint32
	buffers  map[uint32][]*audio.ChannelBuffer
	errs     []error
	eosCount int

	// afterProgress runs outside the lock after each progress callback.
	afterProgress func()
}

func newRecorder() *recorder {
	return &recorder{buffers: make(map[uint32][]*audio.ChannelBuffer)}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnReady: func(n uint32) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, "ready")
			r.ready = append(r.ready, n)
		},
		OnProgress: func(buf *audio.ChannelBuffer, ch uint32) {
			r.mu.Lock()
			r.events = append(r.events, "progress")
			r.buffers[ch] = append(r.buffers[ch], buf)
			after := r.afterProgress
			r.mu.Unlock()
			if after != nil {
				after()
			}
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, "error")
			r.errs = append(r.errs, err)
		},
		OnEOS: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, "eos")
			r.eosCount++
		},
	}
}

func (r *recorder) progressCount(ch uint32) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffers[ch])
}

func (r *recorder) totalProgress() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, bufs := range r.buffers {
		total += len(bufs)
	}
	return total
}

func (r *recorder) snapshot() (events []string, errs []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...), append([]error(nil), r.errs...)
}

// testOptions returns options that log nowhere and record metrics in reader.
func testOptions(t *testing.T) (Options, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	return Options{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		MeterProvider: mp,
	}, reader
}

// plentifulCredits returns a credit channel that never runs dry in tests.
func plentifulCredits() chan Credit {
	credits := make(chan Credit, 1000)
	for i := 0; i < cap(credits); i++ {
		credits <- Credit{}
	}
	return credits
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
