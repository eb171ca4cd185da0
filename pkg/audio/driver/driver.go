// ABOUTME: Audio driver capability contract
// ABOUTME: Common interface, options and backend selection for output devices
package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/livepaper/livepaper-go/pkg/audio"
)

const (
	// DefaultBufferMs is the device period used when Options.BufferMs is unset
	DefaultBufferMs = 20
)

var (
	ErrUnsupportedEncoding = errors.New("sample encoding not supported by driver")
	ErrAlreadyStarted      = errors.New("driver already started")
	ErrClosed              = errors.New("driver closed")
	ErrDeviceStopped       = errors.New("audio device stopped unexpectedly")
)

// Source supplies mixed audio to a driver. Mix fills samples (interleaved,
// 24-bit range) and returns the number of samples written.
type Source interface {
	Mix(samples []int32) int
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(samples []int32) int

// Mix calls f(samples)
func (f SourceFunc) Mix(samples []int32) int { return f(samples) }

// Driver represents an audio output device with a fixed format
type Driver interface {
	// Name returns the backend name
	Name() string

	// Format returns the output format the device requires
	Format() audio.Format

	// SampleRate is Format().SampleRate
	SampleRate() int

	// Channels is Format().Channels
	Channels() int

	// Start begins pulling audio from src on the device cadence
	Start(src Source) error

	// Close stops the device and releases resources
	Close() error
}

// Options configures a driver
type Options struct {
	// Format requested from the device
	Format audio.Format

	// BufferMs is the device period in milliseconds (default: 20)
	BufferMs int

	// OnError receives asynchronous device failures
	OnError func(error)
}

func (o Options) withDefaults() Options {
	if o.BufferMs <= 0 {
		o.BufferMs = DefaultBufferMs
	}
	return o
}

func (o Options) reportError(err error) {
	if o.OnError != nil {
		o.OnError(err)
	}
}

// Names lists the backends New understands
func Names() []string {
	return []string{"oto", "malgo", "portaudio", "null"}
}

// New creates the named backend
func New(name string, opts Options) (Driver, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "oto":
		d, err := NewOto(opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "malgo", "miniaudio":
		d, err := NewMalgo(opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "portaudio":
		d, err := NewPortAudio(opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "null", "none", "silent":
		d, err := NewNull(opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown audio driver: %q (available: %s)", name, strings.Join(Names(), ", "))
	}
}

// fixedFormat implements the format accessors shared by every backend
type fixedFormat struct {
	format audio.Format
}

func (f fixedFormat) Format() audio.Format { return f.format }
func (f fixedFormat) SampleRate() int      { return f.format.SampleRate }
func (f fixedFormat) Channels() int        { return f.format.Channels }
