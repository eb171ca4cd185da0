//go:build portaudio

// ABOUTME: PortAudio audio driver
// ABOUTME: Cross-platform callback output using PortAudio
package driver

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/livepaper/livepaper-go/pkg/audio"
)

// PortAudio driver implementation
type PortAudio struct {
	fixedFormat

	opts    Options
	stream  *portaudio.Stream
	src     Source
	samples []int32

	mu     sync.Mutex
	closed bool
}

// NewPortAudio initializes PortAudio; the stream opens on Start
func NewPortAudio(opts Options) (*PortAudio, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	switch opts.Format.Encoding {
	case audio.EncodingS16, audio.EncodingS32, audio.EncodingF32:
	default:
		return nil, fmt.Errorf("%w: portaudio supports s16, s32 and f32, got %s", ErrUnsupportedEncoding, opts.Format.Encoding)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	log.Printf("Audio output initialized: %s (portaudio)", opts.Format)

	return &PortAudio{
		fixedFormat: fixedFormat{format: opts.Format},
		opts:        opts,
	}, nil
}

func (p *PortAudio) Name() string { return "portaudio" }

// mix runs one pass into the scratch buffer sized for n samples
func (p *PortAudio) mix(n int) []int32 {
	if cap(p.samples) < n {
		p.samples = make([]int32, n)
	}
	samples := p.samples[:n]
	written := p.src.Mix(samples)
	for i := written; i < n; i++ {
		samples[i] = 0
	}
	return samples
}

// callback returns a stream callback typed for the configured encoding
func (p *PortAudio) callback() interface{} {
	switch p.format.Encoding {
	case audio.EncodingS16:
		return func(out []int16) {
			for i, s := range p.mix(len(out)) {
				out[i] = audio.SampleToInt16(s)
			}
		}
	case audio.EncodingS32:
		return func(out []int32) {
			for i, s := range p.mix(len(out)) {
				out[i] = s << 8
			}
		}
	default:
		return func(out []float32) {
			for i, s := range p.mix(len(out)) {
				out[i] = audio.SampleToFloat32(s)
			}
		}
	}
}

// Start opens the default output stream and starts it
func (p *PortAudio) Start(src Source) error {
	if src == nil {
		return fmt.Errorf("portaudio driver: nil source")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.stream != nil {
		return ErrAlreadyStarted
	}

	p.src = src
	framesPerBuffer := p.format.SampleRate * p.opts.BufferMs / 1000
	stream, err := portaudio.OpenDefaultStream(0, p.format.Channels, float64(p.format.SampleRate), framesPerBuffer, p.callback())
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start stream: %w", err)
	}
	p.stream = stream
	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			log.Printf("Warning: portaudio stop error: %v", err)
		}
		if err := p.stream.Close(); err != nil {
			log.Printf("Warning: portaudio close error: %v", err)
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}

var _ Driver = (*PortAudio)(nil)
