// ABOUTME: HTTP(S) opener
// ABOUTME: Streams remote media over a plain GET request
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPOpener streams http and https URIs
type HTTPOpener struct {
	Client *http.Client
}

func (o HTTPOpener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}
	return resp.Body, nil
}
