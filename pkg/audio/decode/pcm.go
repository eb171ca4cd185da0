// ABOUTME: Raw PCM packet decoder
// ABOUTME: Decodes little-endian 16-bit and 24-bit PCM to int32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/livepaper/livepaper-go/pkg/audio"
)

// PCMDecoder decodes little-endian PCM packets
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(p Params) (Decoder, error) {
	if p.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", p.Codec)
	}

	if p.BitDepth != 16 && p.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", p.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: p.BitDepth,
	}, nil
}

// Decode converts PCM bytes to int32 samples. A trailing partial sample
// is dropped.
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	width := d.bitDepth / 8
	samples := make([]int32, len(data)/width)

	switch d.bitDepth {
	case 24:
		for i := range samples {
			off := i * 3
			samples[i] = audio.SampleFrom24Bit([3]byte{data[off], data[off+1], data[off+2]})
		}
	default:
		for i := range samples {
			samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
		}
	}
	return samples, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
