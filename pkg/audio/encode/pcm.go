// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to 16-bit or 24-bit little-endian PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/livepaper/livepaper-go/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	params Params
}

// NewPCM creates a new PCM encoder
func NewPCM(p Params) (Encoder, error) {
	if p.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", p.Codec)
	}

	if p.BitDepth != 16 && p.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", p.BitDepth)
	}

	return &PCMEncoder{params: p}, nil
}

// Encode converts int32 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	if e.params.BitDepth == 24 {
		output := make([]byte, len(samples)*3)
		for i, sample := range samples {
			b := audio.SampleTo24Bit(sample)
			copy(output[i*3:], b[:])
		}
		return output, nil
	}

	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
	}
	return output, nil
}

// Params returns the encoder parameters
func (e *PCMEncoder) Params() Params {
	return e.params
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
