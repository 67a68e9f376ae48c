// ABOUTME: Default opener registry
// ABOUTME: Wires file, HTTP and optional S3 openers from configuration
package source

import (
	"net/http"
	"time"

	"github.com/Resonate-Protocol/resonate-decoder/internal/config"
)

// NewDefaultRegistry registers file, http and https openers, plus s3 when
// s3cfg is enabled.
func NewDefaultRegistry(httpTimeout time.Duration, s3cfg *config.S3Config) (*Registry, error) {
	r := NewRegistry()

	// Client.Timeout would cut off long streams, so only bound the headers.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = httpTimeout
	httpOpener := HTTPOpener{Client: &http.Client{Transport: transport}}
	r.Register("http", httpOpener)
	r.Register("https", httpOpener)

	if s3cfg.Enabled() {
		s3, err := NewS3Opener(s3cfg)
		if err != nil {
			return nil, err
		}
		r.Register("s3", s3)
	}
	return r, nil
}
