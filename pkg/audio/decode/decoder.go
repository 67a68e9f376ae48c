// ABOUTME: Stream interface and container probing
// ABOUTME: Sniffs the media type of a byte stream and opens the matching codec backend
package decode

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Resonate-Protocol/resonate-decoder/pkg/audio"
)

// DefaultBlockFrames is the block size used by sample-oriented backends.
const DefaultBlockFrames = 1024

// sniffLen covers the first Ogg page header plus the OpusHead magic.
const sniffLen = 36

const (
	id3HeaderLen  = 10
	id3FooterFlag = 0x10

	// maxPeekOffset bounds how much of a non-seekable stream is held in
	// memory to look past a leading tag.
	maxPeekOffset = 16 << 20
)

var (
	// ErrUnsupportedFormat is returned when the media type cannot be determined.
	ErrUnsupportedFormat = errors.New("unsupported media format")

	// ErrSeekUnsupported is returned by SeekTo when the source cannot seek.
	ErrSeekUnsupported = errors.New("seek not supported by source")
)

// Stream is a decoded audio stream yielding interleaved float32 blocks.
type Stream interface {
	// Format describes the stream; it is known as soon as the stream is open.
	Format() audio.FormatInfo

	// ReadBlock returns the next block, or io.EOF once the stream is drained.
	ReadBlock() (audio.Block, error)

	// Close releases decoder resources
	Close() error
}

// Seeker is implemented by streams that can reposition natively. SeekTo
// moves to a position at or before offset and returns where it landed.
type Seeker interface {
	SeekTo(offset time.Duration) (time.Duration, error)
}

// Options tunes backend behavior.
type Options struct {
	// BlockFrames is the number of frames per block for backends that are
	// not frame-structured (WAV, MP3). Zero means DefaultBlockFrames.
	BlockFrames int
}

func (o Options) blockFrames() int {
	if o.BlockFrames <= 0 {
		return DefaultBlockFrames
	}
	return o.BlockFrames
}

// Kind identifies a container/codec combination.
type Kind string

const (
	KindUnknown Kind = ""
	KindWAV     Kind = "wav"
	KindMP3     Kind = "mp3"
	KindFLAC    Kind = "flac"
	KindOpus    Kind = "ogg-opus"
)

// Sniff inspects the leading bytes of a stream. A leading ID3v2 tag is
// reported as MP3; Probe looks past the tag before deciding.
func Sniff(head []byte) Kind {
	switch {
	case len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return KindWAV
	case bytes.HasPrefix(head, []byte("fLaC")):
		return KindFLAC
	case len(head) >= 36 && bytes.HasPrefix(head, []byte("OggS")) && bytes.Equal(head[28:36], []byte("OpusHead")):
		return KindOpus
	case bytes.HasPrefix(head, []byte("ID3")):
		return KindMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return KindMP3
	}
	return KindUnknown
}

// ID3TagLen returns the length of an ID3v2 tag at the start of head,
// including its header and optional footer, or 0 when there is none.
func ID3TagLen(head []byte) int {
	if len(head) < id3HeaderLen || !bytes.HasPrefix(head, []byte("ID3")) {
		return 0
	}
	// the size is a syncsafe integer: 7 bits per byte
	size := int(head[6]&0x7f)<<21 | int(head[7]&0x7f)<<14 | int(head[8]&0x7f)<<7 | int(head[9]&0x7f)
	n := id3HeaderLen + size
	if head[5]&id3FooterFlag != 0 {
		n += id3HeaderLen
	}
	return n
}

// Probe determines the media type of r and opens a Stream for it. The
// returned Stream does not close r.
func Probe(r io.Reader, opts Options) (Stream, error) {
	src := newPrefixReader(r)
	head, err := src.peekAt(0, sniffLen)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream header: %w", err)
	}

	kind := Sniff(head)
	if tag := ID3TagLen(head); tag > 0 {
		after, err := src.peekAt(tag, sniffLen)
		if err != nil {
			return nil, fmt.Errorf("failed to read past id3 tag: %w", err)
		}
		switch kind = Sniff(after); kind {
		case KindMP3, KindUnknown:
			// go-mp3 skips the tag itself and resyncs on padding
			kind = KindMP3
		default:
			if err := src.skip(tag); err != nil {
				return nil, fmt.Errorf("failed to skip id3 tag: %w", err)
			}
		}
	}

	switch kind {
	case KindWAV:
		return NewWAV(src.reader(), opts)
	case KindMP3:
		return NewMP3(src.reader(), opts)
	case KindFLAC:
		return NewFLAC(src.reader())
	case KindOpus:
		return NewOpus(src.reader())
	}

	if len(head) == 0 {
		return nil, fmt.Errorf("%w: empty stream", ErrUnsupportedFormat)
	}
	return nil, fmt.Errorf("%w: unrecognized header % x", ErrUnsupportedFormat, head[:min(len(head), 8)])
}

// prefixReader looks ahead into a stream without consuming it. Seekable
// sources stay seekable; anything else is buffered.
type prefixReader struct {
	rs    io.ReadSeeker
	start int64
	br    *bufio.Reader
}

func newPrefixReader(r io.Reader) *prefixReader {
	if rs, ok := r.(io.ReadSeeker); ok {
		if start, err := rs.Seek(0, io.SeekCurrent); err == nil {
			return &prefixReader{rs: rs, start: start}
		}
	}
	return &prefixReader{br: bufio.NewReader(r)}
}

// peekAt returns up to n bytes found off bytes past the current position.
// Fewer bytes are returned near the end of the stream.
func (p *prefixReader) peekAt(off, n int) ([]byte, error) {
	if p.rs != nil {
		if _, err := p.rs.Seek(p.start+int64(off), io.SeekStart); err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		read, err := io.ReadFull(p.rs, buf)
		if _, serr := p.rs.Seek(p.start, io.SeekStart); serr != nil {
			return nil, serr
		}
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		return buf[:read], nil
	}

	if off > maxPeekOffset {
		return nil, fmt.Errorf("look-ahead of %d bytes exceeds %d", off, maxPeekOffset)
	}
	if need := off + n; need > p.br.Size() {
		p.br = bufio.NewReaderSize(p.br, need)
	}
	buf, err := p.br.Peek(off + n)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(buf) <= off {
		return nil, nil
	}
	return buf[off:], nil
}

// skip consumes n bytes.
func (p *prefixReader) skip(n int) error {
	if p.rs != nil {
		start, err := p.rs.Seek(p.start+int64(n), io.SeekStart)
		if err != nil {
			return err
		}
		p.start = start
		return nil
	}
	_, err := p.br.Discard(n)
	return err
}

// reader returns the stream positioned at the first unconsumed byte.
func (p *prefixReader) reader() io.Reader {
	if p.rs != nil {
		return p.rs
	}
	return p.br
}
