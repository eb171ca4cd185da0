// ABOUTME: Opus packet decoder
// ABOUTME: Decodes Opus packets to int32 samples
package decode

import (
	"fmt"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrame is the largest frame a packet can carry (120ms at 48kHz)
const maxOpusFrame = 5760

// OpusDecoder decodes Opus packets
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
	pcm16    []int16
}

// NewOpus creates a new Opus decoder
func NewOpus(p Params) (Decoder, error) {
	if p.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", p.Codec)
	}

	dec, err := opus.NewDecoder(p.SampleRate, p.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{
		decoder:  dec,
		channels: p.Channels,
		pcm16:    make([]int16, maxOpusFrame*p.Channels),
	}, nil
}

// Decode converts one Opus packet to int32 samples
func (d *OpusDecoder) Decode(data []byte) ([]int32, error) {
	n, err := d.decoder.Decode(data, d.pcm16)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	// n is per channel; Opus output is always 16-bit
	total := n * d.channels
	pcm32 := make([]int32, total)
	for i := 0; i < total; i++ {
		pcm32[i] = audio.SampleFromInt16(d.pcm16[i])
	}
	return pcm32, nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
