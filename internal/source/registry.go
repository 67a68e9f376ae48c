// ABOUTME: URI resolution for decode sources
// ABOUTME: Maps URI schemes to openers that yield raw media byte streams
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrUnsupportedScheme is returned when no opener handles a URI's scheme.
var ErrUnsupportedScheme = errors.New("unsupported uri scheme")

// Opener opens the byte stream behind a URI.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, uri string) (io.ReadCloser, error)

func (f OpenerFunc) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	return f(ctx, uri)
}

// Registry dispatches URIs to openers by scheme
type Registry struct {
	mu      sync.RWMutex
	openers map[string]Opener
}

// NewRegistry creates a registry that handles local files.
func NewRegistry() *Registry {
	r := &Registry{openers: make(map[string]Opener)}
	r.Register("file", FileOpener{})
	return r
}

// Register installs o for scheme, replacing any previous opener.
func (r *Registry) Register(scheme string, o Opener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openers[strings.ToLower(scheme)] = o
}

// Schemes lists the registered schemes.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schemes := make([]string, 0, len(r.openers))
	for s := range r.openers {
		schemes = append(schemes, s)
	}
	return schemes
}

// Open resolves uri. A URI without a scheme is treated as a file path.
func (r *Registry) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	scheme := Scheme(uri)

	r.mu.RLock()
	o, ok := r.openers[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return o.Open(ctx, uri)
}

// Scheme returns the lowercased scheme of uri, or "file" for plain paths.
func Scheme(uri string) string {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return "file"
	}
	return strings.ToLower(uri[:i])
}
