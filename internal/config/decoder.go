// ABOUTME: Decoder pipeline settings loaded from the environment
// ABOUTME: Target sample rate, block size, queue depth and HTTP timeout
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type DecoderConfig struct {
	TargetSampleRate float64       `env:"DECODER_TARGET_SAMPLE_RATE, default=44100"`
	BlockFrames      int           `env:"DECODER_BLOCK_FRAMES, default=1024"`
	QueueDepth       int           `env:"DECODER_QUEUE_DEPTH, default=50"`
	HTTPTimeout      time.Duration `env:"DECODER_HTTP_TIMEOUT, default=30s"`
}

func NewDecoderConfigFromEnv(ctx context.Context) (*DecoderConfig, error) {
	return newDecoderConfig(ctx, envconfig.OsLookuper())
}

func newDecoderConfig(ctx context.Context, l envconfig.Lookuper) (*DecoderConfig, error) {
	var cfg DecoderConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.TargetSampleRate <= 0 {
		return nil, fmt.Errorf("DECODER_TARGET_SAMPLE_RATE must be positive, got %v", cfg.TargetSampleRate)
	}
	if cfg.BlockFrames <= 0 {
		return nil, fmt.Errorf("DECODER_BLOCK_FRAMES must be positive, got %d", cfg.BlockFrames)
	}
	if cfg.QueueDepth <= 0 {
		return nil, fmt.Errorf("DECODER_QUEUE_DEPTH must be positive, got %d", cfg.QueueDepth)
	}

	return &cfg, nil
}
