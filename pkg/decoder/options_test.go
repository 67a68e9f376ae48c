package decoder

import (
	"context"
	"errors"
	"testing"
)

func TestOptionsResolveDefaults(t *testing.T) {
	o, err := Options{}.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if o.sampleRate != DefaultSampleRate {
		t.Errorf("sampleRate = %d, want %d", o.sampleRate, DefaultSampleRate)
	}
	if o.QueueDepth != DefaultQueueDepth {
		t.Errorf("QueueDepth = %d, want %d", o.QueueDepth, DefaultQueueDepth)
	}
	if o.Opener == nil || o.Logger == nil || o.metrics == nil {
		t.Error("resolve should fill in opener, logger and metrics")
	}
}

func TestOptionsResolveRoundsRate(t *testing.T) {
	o, err := Options{TargetSampleRate: 22049.6}.resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if o.sampleRate != 22050 {
		t.Errorf("sampleRate = %d, want 22050", o.sampleRate)
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("DECODER_TARGET_SAMPLE_RATE", "48000")
	t.Setenv("DECODER_BLOCK_FRAMES", "256")
	t.Setenv("DECODER_QUEUE_DEPTH", "8")

	opts, err := OptionsFromEnv(context.Background())
	if err != nil {
		t.Fatalf("OptionsFromEnv: %v", err)
	}
	if opts.TargetSampleRate != 48000 || opts.BlockFrames != 256 || opts.QueueDepth != 8 {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.Opener == nil {
		t.Error("expected an opener")
	}
}

func TestOptionsFromEnvInvalid(t *testing.T) {
	t.Setenv("DECODER_TARGET_SAMPLE_RATE", "-1")

	if _, err := OptionsFromEnv(context.Background()); err == nil {
		t.Error("expected an error for a negative sample rate")
	}
}

func TestInvalidRateIsBackend(t *testing.T) {
	_, err := Options{TargetSampleRate: -5}.resolve()
	if !errors.Is(err, ErrBackend) {
		t.Errorf("expected backend error, got %v", err)
	}
}
