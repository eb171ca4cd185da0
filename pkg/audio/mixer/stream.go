// ABOUTME: Stream contract consumed by the audio context
// ABOUTME: Defines Stream, handles and registration errors
package mixer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/livepaper/livepaper-go/pkg/audio"
)

// Stream is a playable audio source already conformant to the context format
type Stream interface {
	// Format returns the layout of the samples Read produces
	Format() audio.Format

	// Read copies up to len(samples) interleaved samples (24-bit range)
	// without blocking on I/O. A short read is treated as an underrun.
	// io.EOF or ErrStreamClosed retire the stream.
	Read(samples []int32) (int, error)

	// Alive reports whether the stream can still produce audio
	Alive() bool
}

// Named is implemented by streams that carry a display name
type Named interface {
	Name() string
}

var (
	ErrNilStream          = errors.New("nil stream")
	ErrIncompatibleFormat = errors.New("incompatible stream format")
	ErrDuplicateStream    = errors.New("stream already registered")
	ErrClosed             = errors.New("audio context closed")
	ErrStreamClosed       = errors.New("stream closed")
	ErrUnknownStream      = errors.New("unknown stream handle")
)

// FormatError reports a stream whose format differs from the context's
type FormatError struct {
	Want audio.Format
	Got  audio.Format
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: stream is %s, context requires %s", ErrIncompatibleFormat, e.Got, e.Want)
}

// Unwrap lets errors.Is match ErrIncompatibleFormat
func (e *FormatError) Unwrap() error {
	return ErrIncompatibleFormat
}

// Handle identifies one registration
type Handle string

func newHandle() Handle {
	return Handle(uuid.New().String())
}

func (h Handle) String() string {
	return string(h)
}

// streamName returns a display name for logs and the status view
func streamName(s Stream, h Handle) string {
	if n, ok := s.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	id := string(h)
	if len(id) > 8 {
		id = id[:8]
	}
	return "stream-" + id
}
