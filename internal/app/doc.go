// ABOUTME: Package app wires a decode session to playback and the TUI
// ABOUTME: Used by the resonate-decode command
// Package app runs a decode session as a player: it re-interleaves the
// per-channel buffers, writes them to an output and grants the decoder
// credit as audio is consumed.
package app
