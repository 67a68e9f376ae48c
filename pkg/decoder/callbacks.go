// ABOUTME: Callback surface of a decode session
// ABOUTME: Serializes ready/progress/terminal delivery across pipeline goroutines
package decoder

import (
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

// Callbacks receive everything a session produces. They may be invoked from
// different goroutines; nil callbacks are skipped.
type Callbacks struct {
	// OnReady reports the channel count once the format is known.
	OnReady func(channels uint32)

	// OnProgress delivers one channel's buffer. channel is in [0, channels).
	OnProgress func(buf *audio.ChannelBuffer, channel uint32)

	// OnError reports a fatal failure; err is always an *Error.
	OnError func(err error)

	// OnEOS reports that every channel has been fully delivered.
	OnEOS func()
}

// dispatcher guards the callback set. Progress and ready run under a read
// lock; the terminal callback takes the write lock once, so it waits for
// in-flight progress and nothing is delivered after it.
type dispatcher struct {
	cb      Callbacks
	mu      sync.RWMutex
	done    bool
	readied atomic.Bool
}

func newDispatcher(cb Callbacks) *dispatcher {
	return &dispatcher{cb: cb}
}

func (d *dispatcher) ready(channels uint32) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.done || !d.readied.CompareAndSwap(false, true) {
		return false
	}
	if d.cb.OnReady != nil {
		d.cb.OnReady(channels)
	}
	return true
}

func (d *dispatcher) progress(buf *audio.ChannelBuffer, channel uint32) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.done || !d.readied.Load() {
		return false
	}
	if d.cb.OnProgress != nil {
		d.cb.OnProgress(buf, channel)
	}
	return true
}

// terminate marks the session finished; only the first caller wins.
func (d *dispatcher) terminate() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return false
	}
	d.done = true
	return true
}

func (d *dispatcher) error(err *Error) bool {
	if !d.terminate() {
		return false
	}
	if d.cb.OnError != nil {
		d.cb.OnError(err)
	}
	return true
}

func (d *dispatcher) eos() bool {
	if !d.terminate() {
		return false
	}
	if d.cb.OnEOS != nil {
		d.cb.OnEOS()
	}
	return true
}
