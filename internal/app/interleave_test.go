package app

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

func buffer(pos audio.ChannelPosition, ts time.Duration, samples ...float32) *audio.ChannelBuffer {
	return audio.NewChannelBuffer(samples, ts, time.Duration(len(samples))*time.Millisecond, pos)
}

func TestInterleaverStereo(t *testing.T) {
	m := newInterleaver(2, 2)

	if _, ok := m.add(0, buffer(audio.PositionFrontLeft, 0, 1, 2)); ok {
		t.Fatal("group completed with one channel missing")
	}
	if _, ok := m.add(0, buffer(audio.PositionFrontLeft, 2*time.Millisecond, 5, 6)); ok {
		t.Fatal("group completed with one channel missing")
	}

	g, ok := m.add(1, buffer(audio.PositionFrontRight, 0, 3, 4))
	if !ok {
		t.Fatal("expected a complete group")
	}
	if diff := cmp.Diff([]float32{1, 3, 2, 4}, g.frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if g.timestamp != 0 || g.duration != 2*time.Millisecond {
		t.Errorf("group timing = %v+%v", g.timestamp, g.duration)
	}

	g, ok = m.add(1, buffer(audio.PositionFrontRight, 2*time.Millisecond, 7, 8))
	if !ok {
		t.Fatal("expected the second group")
	}
	if diff := cmp.Diff([]float32{5, 7, 6, 8}, g.frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"front-left", "front-right"}, m.layout()); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestInterleaverDropsExtraChannels(t *testing.T) {
	m := newInterleaver(3, 2)
	m.add(2, buffer(audio.PositionFrontCenter, 0, 9))
	m.add(1, buffer(audio.PositionFrontRight, 0, 2))
	g, ok := m.add(0, buffer(audio.PositionFrontLeft, 0, 1))
	if !ok {
		t.Fatal("expected a complete group")
	}
	if diff := cmp.Diff([]float32{1, 2}, g.frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestInterleaverMono(t *testing.T) {
	m := newInterleaver(1, 2)
	g, ok := m.add(0, buffer(audio.PositionMono, 0, 0.25, 0.5))
	if !ok {
		t.Fatal("mono buffers complete a group on their own")
	}
	if diff := cmp.Diff([]float32{0.25, 0.5}, g.frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}
