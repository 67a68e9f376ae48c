// ABOUTME: Error taxonomy for decode sessions
// ABOUTME: Every failure reported to OnError is an *Error carrying one Kind
package decoder

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio/decode"
)

// Kind classifies a session-fatal failure.
type Kind int

const (
	// KindBackend is an engine or I/O failure; Detail describes it.
	KindBackend Kind = iota + 1
	// KindInvalidMediaFormat means the source is not decodable audio.
	KindInvalidMediaFormat
	// KindInvalidSample means a channel pulled a block with no payload.
	KindInvalidSample
	// KindBufferReadFailed means a pulled block could not be read.
	KindBufferReadFailed
	// KindStateChangeFailed means a lifecycle transition was refused.
	KindStateChangeFailed
)

func (k Kind) String() string {
	switch k {
	case KindBackend:
		return "backend"
	case KindInvalidMediaFormat:
		return "invalid media format"
	case KindInvalidSample:
		return "invalid sample"
	case KindBufferReadFailed:
		return "buffer read failed"
	case KindStateChangeFailed:
		return "state change failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type passed to Callbacks.OnError.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrBackend            = &Error{Kind: KindBackend}
	ErrInvalidMediaFormat = &Error{Kind: KindInvalidMediaFormat}
	ErrInvalidSample      = &Error{Kind: KindInvalidSample}
	ErrBufferReadFailed   = &Error{Kind: KindBufferReadFailed}
	ErrStateChangeFailed  = &Error{Kind: KindStateChangeFailed}
)

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func backendError(format string, args ...any) *Error {
	return &Error{Kind: KindBackend, Detail: fmt.Sprintf(format, args...)}
}

func stateChangeError(from, to State) *Error {
	return &Error{Kind: KindStateChangeFailed, Detail: fmt.Sprintf("%s -> %s", from, to)}
}

// classify maps an internal error onto the taxonomy.
func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, decode.ErrUnsupportedFormat) {
		return &Error{Kind: KindInvalidMediaFormat, Detail: err.Error(), Err: err}
	}
	return &Error{Kind: KindBackend, Detail: err.Error(), Err: err}
}
