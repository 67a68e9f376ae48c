// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines FormatInfo, Block, ChannelBuffer and sample conversions
// Package audio provides the fundamental types shared by the decode pipeline.
//
//   - FormatInfo: channel count, sample rate and speaker positions of a stream
//   - Block: interleaved float32 PCM produced by a decoder
//   - ChannelBuffer: one demultiplexed, timestamped, immutable channel run
//
// Integer PCM of any bit depth is normalized to float32 in [-1, 1):
//
//	f := audio.SampleFromInt(s, 24)
//	g := audio.SampleFromInt16(s16)
package audio
