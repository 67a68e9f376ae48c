package decoder

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

func TestDispatcherOrdering(t *testing.T) {
	rec := newRecorder()
	d := newDispatcher(rec.callbacks())
	buf := audio.NewChannelBuffer([]float32{1}, 0, time.Millisecond, audio.PositionMono)

	if d.progress(buf, 0) {
		t.Error("progress delivered before ready")
	}
	if !d.ready(1) {
		t.Fatal("first ready was not delivered")
	}
	if d.ready(1) {
		t.Error("ready delivered twice")
	}
	if !d.progress(buf, 0) {
		t.Error("progress after ready was not delivered")
	}
	if !d.eos() {
		t.Fatal("eos was not delivered")
	}
	if d.error(backendError("late")) {
		t.Error("error delivered after eos")
	}
	if d.progress(buf, 0) {
		t.Error("progress delivered after eos")
	}

	events, _ := rec.snapshot()
	if diff := cmp.Diff([]string{"ready", "progress", "eos"}, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatcherNilCallbacks(t *testing.T) {
	d := newDispatcher(Callbacks{})
	d.ready(2)
	d.progress(audio.NewChannelBuffer([]float32{1}, 0, 0, audio.PositionFrontLeft), 0)
	if !d.error(backendError("boom")) {
		t.Error("terminal should still be claimed with nil callbacks")
	}
}

func TestDispatcherSingleTerminal(t *testing.T) {
	rec := newRecorder()
	d := newDispatcher(rec.callbacks())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				d.eos()
			} else {
				d.error(backendError("racer %d", i))
			}
		}(i)
	}
	wg.Wait()

	events, _ := rec.snapshot()
	if len(events) != 1 {
		t.Fatalf("expected one terminal callback, got %v", events)
	}
}

func TestDispatcherTerminalWaitsForProgress(t *testing.T) {
	rec := newRecorder()
	d := newDispatcher(rec.callbacks())
	d.ready(1)

	inProgress := make(chan struct{})
	release := make(chan struct{})
	rec.afterProgress = func() {
		close(inProgress)
		<-release
	}

	go d.progress(audio.NewChannelBuffer([]float32{1}, 0, 0, audio.PositionMono), 0)
	<-inProgress

	terminated := make(chan struct{})
	go func() {
		d.error(backendError("stop"))
		close(terminated)
	}()

	select {
	case <-terminated:
		t.Fatal("terminal callback ran while progress was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-terminated

	events, errs := rec.snapshot()
	if diff := cmp.Diff([]string{"ready", "progress", "error"}, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if !errors.Is(errs[0], ErrBackend) {
		t.Errorf("expected backend error, got %v", errs[0])
	}
}
