// ABOUTME: Streaming linear resampler for float32 interleaved audio
// ABOUTME: Keeps interpolation phase and the previous frame across blocks
package resample

// Resampler performs linear interpolation to convert between sample rates.
// Successive calls to Resample are treated as one continuous signal.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64 // input frames advanced per output frame
	position   float64 // next output position, in frames of the joined signal
	last       []float32
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		last:       make([]float32, channels),
	}
}

// Passthrough reports whether input and output rates match.
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// OutputRate returns the target sample rate.
func (r *Resampler) OutputRate() int {
	return r.outputRate
}

// Resample converts one block of interleaved input frames and returns the
// interleaved output frames that can be produced so far. The input slice is
// returned unchanged in passthrough mode.
func (r *Resampler) Resample(input []float32) []float32 {
	if r.Passthrough() || len(input) < r.channels {
		return input
	}

	ch := r.channels
	inputFrames := len(input) / ch

	// The joined signal is the previous block's last frame followed by input.
	offset := 0
	if r.primed {
		offset = 1
	}
	joined := inputFrames + offset
	frame := func(i int) []float32 {
		if i < offset {
			return r.last
		}
		i -= offset
		return input[i*ch : (i+1)*ch]
	}

	out := make([]float32, 0, (int(float64(inputFrames)/r.ratio)+1)*ch)
	for {
		idx := int(r.position)
		if idx+1 >= joined {
			break
		}
		frac := float32(r.position - float64(idx))
		a, b := frame(idx), frame(idx+1)
		for c := 0; c < ch; c++ {
			out = append(out, a[c]*(1-frac)+b[c]*frac)
		}
		r.position += r.ratio
	}

	copy(r.last, input[(inputFrames-1)*ch:inputFrames*ch])
	r.position -= float64(joined - 1)
	r.primed = true
	return out
}

// Flush returns the output frames still owed for the end of the signal,
// holding the final input frame, and resets the resampler. It returns nil
// in passthrough mode or before any input.
func (r *Resampler) Flush() []float32 {
	if r.Passthrough() || !r.primed {
		return nil
	}
	var out []float32
	for r.position < 1 {
		out = append(out, r.last...)
		r.position += r.ratio
	}
	r.Reset()
	return out
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.last {
		r.last[i] = 0
	}
}

// OutputFramesNeeded estimates how many output frames inputFrames will yield
func (r *Resampler) OutputFramesNeeded(inputFrames int) int {
	return int(int64(inputFrames) * int64(r.outputRate) / int64(r.inputRate))
}
