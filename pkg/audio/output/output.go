// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for playback of decoded float32 frames
package output

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write plays interleaved float32 frames (blocks until written)
	Write(samples []float32) error

	// Close releases output resources
	Close() error
}

// Volume is implemented by outputs with software gain.
type Volume interface {
	SetVolume(volume int)
	SetMuted(muted bool)
}
