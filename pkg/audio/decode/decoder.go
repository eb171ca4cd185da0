// ABOUTME: Decoder interface and codec factory
// ABOUTME: Selects a packet decoder from stream parameters
package decode

import (
	"fmt"
	"strings"

	"github.com/livepaper/livepaper-go/pkg/audio"
)

// Decoder decodes encoded packets to PCM int32 samples
type Decoder interface {
	// Decode converts one encoded packet to interleaved samples
	Decode(data []byte) ([]int32, error)

	// Close releases decoder resources
	Close() error
}

// Params describes an encoded packet stream as a container reports it
type Params = audio.CodecParams

// New creates a decoder for p.Codec
func New(p Params) (Decoder, error) {
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
