// ABOUTME: Sample format conversions
// ABOUTME: Normalizes integer PCM of any bit depth to float32 in [-1, 1)
package audio

// SampleFromInt16 converts a signed 16-bit sample to float32.
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768
}

// SampleFromUint8 converts an unsigned 8-bit (WAVE-style) sample to float32.
func SampleFromUint8(sample uint8) float32 {
	return (float32(sample) - 128) / 128
}

// SampleFromInt converts a signed sample of the given bit depth to float32.
func SampleFromInt(sample int32, bitDepth int) float32 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float32(float64(sample) / float64(int64(1)<<(bitDepth-1)))
}

// Clamp limits s to [-1, 1].
func Clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
