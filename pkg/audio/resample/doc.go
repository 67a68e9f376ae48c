// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts float32 audio between sample rates across block boundaries
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling, carrying interpolation state
// between blocks so a stream can be resampled one block at a time.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := r.Resample(block.Samples)
package resample
