package decoder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

func newTestPipeline(t *testing.T, rec *recorder) *pipeline {
	t.Helper()
	opts, _ := testOptions(t)
	o, err := opts.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	p := newPipeline(context.Background(), Request{Source: Source{URI: "unused.wav"}}, plentifulCredits(), newDispatcher(rec.callbacks()), o)
	t.Cleanup(p.teardown)
	return p
}

func testFormat(channels int) audio.FormatInfo {
	return audio.FormatInfo{
		Channels:   channels,
		SampleRate: 8000,
		Positions:  audio.DefaultPositions(channels),
	}
}

func TestPipelineTopology(t *testing.T) {
	rec := newRecorder()
	p := newTestPipeline(t, rec)

	if diff := cmp.Diff([]string{"source"}, p.Stages()); diff != "" {
		t.Errorf("initial stages mismatch (-want +got):\n%s", diff)
	}

	d1, err := p.onFormat(testFormat(2))
	if err != nil {
		t.Fatalf("onFormat: %v", err)
	}
	d2, err := p.onFormat(testFormat(2))
	if err != nil || d1 != d2 {
		t.Fatalf("second format discovery should reuse the demuxer, err=%v", err)
	}

	p.onChannel(0)
	p.onChannel(1)
	p.onChannel(0)

	want := []string{"source", "convert", "resample", "capsfilter", "deinterleave", "queue0", "sink0", "queue1", "sink1"}
	if diff := cmp.Diff(want, p.Stages()); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{2}, rec.ready); diff != "" {
		t.Errorf("ready mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineRejectsBadFormat(t *testing.T) {
	p := newTestPipeline(t, newRecorder())

	_, err := p.onFormat(audio.FormatInfo{Channels: 2})
	if !errors.Is(err, ErrBackend) {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestPipelineChannelOutOfRange(t *testing.T) {
	p := newTestPipeline(t, newRecorder())
	if _, err := p.onFormat(testFormat(1)); err != nil {
		t.Fatalf("onFormat: %v", err)
	}

	if err := p.extendChannel(3); err == nil || err.Kind != KindBackend {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestPipelineTeardownIdempotent(t *testing.T) {
	p := newTestPipeline(t, newRecorder())
	p.teardown()
	p.teardown()

	if got := p.State(); got != StateStopped {
		t.Errorf("State() = %s, want stopped", got)
	}
}

func TestPipelineExtendAfterTeardown(t *testing.T) {
	rec := newRecorder()
	p := newTestPipeline(t, rec)
	p.teardown()

	if _, err := p.onFormat(testFormat(2)); !errors.Is(err, ErrBackend) {
		t.Errorf("expected backend error, got %v", err)
	}

	p.onChannel(0)
	_, errs := rec.snapshot()
	if len(errs) != 1 || !errors.Is(errs[0], ErrBackend) {
		t.Errorf("expected one backend report, got %v", errs)
	}
}

func TestPipelineExtendAfterTerminal(t *testing.T) {
	rec := newRecorder()
	p := newTestPipeline(t, rec)
	p.disp.eos()
	p.teardown()

	p.onChannel(0)
	events, _ := rec.snapshot()
	if diff := cmp.Diff([]string{"eos"}, events); diff != "" {
		t.Errorf("nothing may follow the terminal callback (-want +got):\n%s", diff)
	}
}

func TestPipelineStateChecks(t *testing.T) {
	p := newTestPipeline(t, newRecorder())

	if err := p.setState(StatePlaying); !errors.Is(err, ErrStateChangeFailed) {
		t.Errorf("Idle -> Playing should fail, got %v", err)
	}
	if err := p.setState(StatePaused); err != nil {
		t.Fatalf("Idle -> Paused: %v", err)
	}
	p.teardown()
	if err := p.setState(StatePlaying); !errors.Is(err, ErrStateChangeFailed) {
		t.Errorf("Stopped -> Playing should fail, got %v", err)
	}
}

func TestPipelineDrainPostsEOS(t *testing.T) {
	p := newTestPipeline(t, newRecorder())
	if _, err := p.onFormat(testFormat(2)); err != nil {
		t.Fatalf("onFormat: %v", err)
	}

	p.channelDrained(0)
	select {
	case msg := <-p.bus:
		t.Fatalf("bus message before every channel drained: %v", msg.err)
	default:
	}

	p.channelDrained(1)
	select {
	case msg := <-p.bus:
		if msg.err != nil {
			t.Errorf("expected end of stream, got %v", msg.err)
		}
	default:
		t.Fatal("no bus message after the last channel drained")
	}
}

func TestPipelineBusKeepsFirst(t *testing.T) {
	p := newTestPipeline(t, newRecorder())
	p.post(&Error{Kind: KindInvalidSample})
	p.post(nil)
	p.post(backendError("late"))

	msg := <-p.bus
	if msg.err == nil || msg.err.Kind != KindInvalidSample {
		t.Errorf("expected the first message, got %v", msg.err)
	}
}

func TestEmitterRejectsBadBuffers(t *testing.T) {
	tests := []struct {
		name string
		buf  *audio.ChannelBuffer
		want error
	}{
		{"nil block", nil, ErrInvalidSample},
		{"empty block", audio.NewChannelBuffer(nil, 0, 0, audio.PositionMono), ErrBufferReadFailed},
		{"wrong position", audio.NewChannelBuffer([]float32{0.5}, 0, time.Millisecond, audio.PositionFrontLeft), ErrBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, newRecorder())
			if _, err := p.onFormat(testFormat(1)); err != nil {
				t.Fatalf("onFormat: %v", err)
			}
			p.onChannel(0)

			p.demux.queues[0] <- tt.buf

			select {
			case msg := <-p.bus:
				if !errors.Is(msg.err, tt.want) {
					t.Errorf("bus error = %v, want %v", msg.err, tt.want)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("emitter did not report the buffer")
			}
		})
	}
}

func TestEmitterTrimsBeforeStart(t *testing.T) {
	rec := newRecorder()
	opts, _ := testOptions(t)
	o, err := opts.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	req := Request{Source: Source{URI: "unused.wav"}, StartOffset: 10 * time.Millisecond}
	p := newPipeline(context.Background(), req, plentifulCredits(), newDispatcher(rec.callbacks()), o)
	t.Cleanup(p.teardown)

	if _, err := p.onFormat(testFormat(1)); err != nil {
		t.Fatalf("onFormat: %v", err)
	}
	p.onChannel(0)

	for _, ts := range []time.Duration{0, 5 * time.Millisecond, 10 * time.Millisecond, 15 * time.Millisecond} {
		p.demux.queues[0] <- audio.NewChannelBuffer([]float32{0.1}, ts, 5*time.Millisecond, audio.PositionMono)
	}
	p.demux.finish()

	select {
	case msg := <-p.bus:
		if msg.err != nil {
			t.Fatalf("unexpected error: %v", msg.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel never drained")
	}

	var got []time.Duration
	for _, buf := range rec.buffers[0] {
		got = append(got, buf.Timestamp())
	}
	if diff := cmp.Diff([]time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, got); diff != "" {
		t.Errorf("delivered timestamps mismatch (-want +got):\n%s", diff)
	}
}
