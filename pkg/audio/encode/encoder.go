// ABOUTME: Encoder interface and codec factory
// ABOUTME: Selects a packet encoder from stream parameters
package encode

import (
	"fmt"
	"strings"

	"github.com/livepaper/livepaper-go/pkg/audio"
)

// Encoder encodes PCM int32 samples to packets
type Encoder interface {
	// Encode converts one block of interleaved samples to a packet
	Encode(samples []int32) ([]byte, error)

	// Params returns the parameters a decoder needs for the packets
	Params() Params

	// Close releases encoder resources
	Close() error
}

// Params describes the packet stream an encoder produces
type Params = audio.CodecParams

// New creates an encoder for p.Codec
func New(p Params) (Encoder, error) {
	p.Codec = strings.ToLower(p.Codec)
	switch p.Codec {
	case "pcm":
		return NewPCM(p)
	case "opus":
		return NewOpus(p)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", p.Codec)
	}
}
