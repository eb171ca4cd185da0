// ABOUTME: Opus audio encoder
// ABOUTME: Encodes fixed-duration int32 blocks to Opus packets
package encode

import (
	"fmt"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket bounds a single encoded packet
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio. Every Encode call must carry one frame
// of 2.5, 5, 10, 20, 40 or 60ms.
type OpusEncoder struct {
	encoder *opus.Encoder
	params  Params
	pcm16   []int16
	packet  []byte
}

// NewOpus creates a new Opus encoder
func NewOpus(p Params) (Encoder, error) {
	if p.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", p.Codec)
	}
	if !SupportsOpusRate(p.SampleRate) {
		return nil, fmt.Errorf("unsupported opus sample rate: %d", p.SampleRate)
	}

	enc, err := opus.NewEncoder(p.SampleRate, p.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	// Opus output is always 16-bit
	p.BitDepth = 16

	return &OpusEncoder{
		encoder: enc,
		params:  p,
		packet:  make([]byte, maxOpusPacket),
	}, nil
}

// SupportsOpusRate reports whether Opus can encode at rate
func SupportsOpusRate(rate int) bool {
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
		return true
	}
	return false
}

// Encode converts int32 samples to one Opus packet
func (e *OpusEncoder) Encode(samples []int32) ([]byte, error) {
	if cap(e.pcm16) < len(samples) {
		e.pcm16 = make([]int16, len(samples))
	}
	pcm := e.pcm16[:len(samples)]
	for i, sample := range samples {
		pcm[i] = audio.SampleToInt16(sample)
	}

	n, err := e.encoder.Encode(pcm, e.packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	out := make([]byte, n)
	copy(out, e.packet[:n])
	return out, nil
}

// Params returns the encoder parameters
func (e *OpusEncoder) Params() Params {
	return e.params
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
