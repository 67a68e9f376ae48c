// ABOUTME: Audio decode package for container probing and codec backends
// ABOUTME: Provides the Stream interface and WAV, MP3, FLAC and Ogg/Opus backends
// Package decode turns encoded media into interleaved float32 blocks.
//
// Supports: WAV (8/16/24/32-bit integer and 32-bit float, plain or
// extensible), MP3, FLAC, Opus in an Ogg container.
//
// Probe sniffs the container from the first bytes of the stream and opens
// the matching backend. A leading ID3v2 tag is looked past, so tagged FLAC
// is recognized as FLAC. A stream whose type cannot be determined yields
// ErrUnsupportedFormat; a recognized container with a broken header yields a
// plain error.
//
// Example:
//
//	stream, err := decode.Probe(f, decode.Options{})
//	format := stream.Format()
//	block, err := stream.ReadBlock()
package decode
