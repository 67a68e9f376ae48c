// ABOUTME: Oto-based audio output implementation
// ABOUTME: Handles PCM playback with software volume control using oto library
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	log        *slog.Logger
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int

	mu     sync.Mutex
	volume int
	muted  bool
	ready  bool
}

// NewOto creates a new Oto output
func NewOto(logger *slog.Logger) *Oto {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oto{
		log:    logger,
		volume: 100,
	}
}

// Open initializes the output device. oto allows one context per process,
// so a second Open with a different format is refused.
func (o *Oto) Open(sampleRate, channels int) error {
	if channels < 1 || channels > 2 {
		return fmt.Errorf("oto supports 1 or 2 channels, got %d", channels)
	}

	if o.otoCtx != nil {
		if o.sampleRate == sampleRate && o.channels == channels {
			o.log.Debug("audio output already initialized with same format, reusing context")
			return nil
		}
		return fmt.Errorf("format change (%dHz %dch -> %dHz %dch) not supported by oto",
			o.sampleRate, o.channels, sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.mu.Lock()
	o.ready = true
	o.mu.Unlock()

	o.log.Info("audio output initialized", "sample_rate", sampleRate, "channels", channels)
	return nil
}

// Write outputs audio samples (blocks until written)
func (o *Oto) Write(samples []float32) error {
	o.mu.Lock()
	ready, volume, muted := o.ready, o.volume, o.muted
	o.mu.Unlock()

	if !ready {
		return fmt.Errorf("output not initialized")
	}

	// Write to pipe (which feeds the persistent player)
	if _, err := o.pipeWriter.Write(encodeInt16LE(samples, gain(volume, muted))); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	o.ready = false
	o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	volume = max(0, min(100, volume))
	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
	o.log.Debug("volume set", "volume", volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
	o.log.Debug("mute set", "muted", muted)
}

// gain calculates the volume multiplier
func gain(volume int, muted bool) float32 {
	if muted {
		return 0
	}
	return float32(volume) / 100
}

// encodeInt16LE scales, clips and packs samples as signed 16-bit little endian.
func encodeInt16LE(samples []float32, gain float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := audio.Clamp(s*gain) * math.MaxInt16
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}
