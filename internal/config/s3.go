// ABOUTME: Object storage settings loaded from the environment
// ABOUTME: Enables s3:// sources when an endpoint is configured
package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// S3Config enables s3:// sources when Endpoint is set.
type S3Config struct {
	Endpoint  string `env:"DECODER_S3_ENDPOINT"`
	AccessKey string `env:"DECODER_S3_ACCESS_KEY"`
	SecretKey string `env:"DECODER_S3_SECRET_KEY"`
	Region    string `env:"DECODER_S3_REGION"`
	UseSSL    bool   `env:"DECODER_S3_USE_SSL, default=true"`
}

func (c *S3Config) Enabled() bool {
	return c != nil && c.Endpoint != ""
}

func NewS3ConfigFromEnv(ctx context.Context) (*S3Config, error) {
	return newS3Config(ctx, envconfig.OsLookuper())
}

func newS3Config(ctx context.Context, l envconfig.Lookuper) (*S3Config, error) {
	var cfg S3Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.Enabled() && (cfg.AccessKey == "") != (cfg.SecretKey == "") {
		return nil, fmt.Errorf("DECODER_S3_ACCESS_KEY and DECODER_S3_SECRET_KEY must be set together")
	}

	return &cfg, nil
}
