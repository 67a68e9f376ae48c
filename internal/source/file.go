// ABOUTME: Local file opener
// ABOUTME: Opens plain paths and file:// URIs as seekable streams
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// FileOpener opens local files
type FileOpener struct{}

func (FileOpener) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	path := uri
	if strings.Contains(uri, "://") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("invalid file uri %q: %w", uri, err)
		}
		path = u.Path
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	return f, nil
}
