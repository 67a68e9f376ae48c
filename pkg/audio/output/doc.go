// ABOUTME: Audio output package for playing decoded audio
// ABOUTME: Provides the Output interface and an oto implementation
// Package output plays interleaved float32 frames on the local sound device.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(44100, 2)
//	err = out.Write(frames)
package output
