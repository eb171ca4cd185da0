// ABOUTME: Tests for Opus decoding of monitor feed frames
// ABOUTME: Decodes packets from the encoder in sequence and checks buffer reuse
package decode

import (
	"math"
	"slices"
	"testing"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/encode"
)

// sineFrames encodes count frames of a 400Hz sine the way the monitor feed does
func sineFrames(t *testing.T, p Params, frameSamples, count int) [][]byte {
	t.Helper()
	enc, err := encode.NewOpus(p)
	if err != nil {
		t.Fatalf("encode.NewOpus failed: %v", err)
	}
	defer enc.Close()

	packets := make([][]byte, count)
	block := make([]int32, frameSamples*p.Channels)
	for f := range packets {
		for i := 0; i < frameSamples; i++ {
			n := f*frameSamples + i
			v := int32(0.5 * audio.Max24Bit * math.Sin(2*math.Pi*400*float64(n)/float64(p.SampleRate)))
			for ch := 0; ch < p.Channels; ch++ {
				block[i*p.Channels+ch] = v
			}
		}
		packet, err := enc.Encode(block)
		if err != nil {
			t.Fatalf("encode frame %d: %v", f, err)
		}
		packets[f] = packet
	}
	return packets
}

func TestOpusDecodeFeedFrames(t *testing.T) {
	tests := []struct {
		name         string
		params       Params
		frameSamples int
	}{
		{"8k mono 20ms", Params{Codec: "opus", SampleRate: 8000, Channels: 1, BitDepth: 16}, 160},
		{"48k stereo 10ms", Params{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}, 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets := sineFrames(t, tt.params, tt.frameSamples, 6)

			dec, err := New(tt.params)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer dec.Close()

			var peak int32
			for i, packet := range packets {
				samples, err := dec.Decode(packet)
				if err != nil {
					t.Fatalf("decode packet %d: %v", i, err)
				}
				if len(samples) != tt.frameSamples*tt.params.Channels {
					t.Fatalf("packet %d: expected %d samples, got %d", i, tt.frameSamples*tt.params.Channels, len(samples))
				}
				for _, s := range samples {
					if s&0xFF != 0 {
						t.Fatalf("packet %d: sample %d is not 16-bit scaled", i, s)
					}
					peak = max(peak, s, -s)
				}
			}
			// the codec settles after the first frames; the tone must come through
			if peak < audio.Max24Bit/8 {
				t.Errorf("expected the tone to survive decoding, peak %d", peak)
			}
		})
	}
}

func TestOpusDecodeReturnsFreshSlices(t *testing.T) {
	p := Params{Codec: "opus", SampleRate: 8000, Channels: 1, BitDepth: 16}
	packets := sineFrames(t, p, 160, 4)

	dec, err := NewOpus(p)
	if err != nil {
		t.Fatalf("NewOpus failed: %v", err)
	}
	defer dec.Close()

	// the decoder reuses one int16 buffer; returned blocks must not share it
	var kept [][]int32
	var copies [][]int32
	for i, packet := range packets {
		samples, err := dec.Decode(packet)
		if err != nil {
			t.Fatalf("decode packet %d: %v", i, err)
		}
		kept = append(kept, samples)
		copies = append(copies, slices.Clone(samples))
	}
	for i := range kept {
		if !slices.Equal(kept[i], copies[i]) {
			t.Errorf("block %d changed after later decodes", i)
		}
	}
}

func TestOpusDecodeRejectsEmptyPacket(t *testing.T) {
	dec, err := NewOpus(Params{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewOpus failed: %v", err)
	}
	defer dec.Close()

	if _, err := dec.Decode(nil); err == nil {
		t.Error("expected an empty packet to fail")
	}
}

func TestNewOpusRejects(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"pcm params", Params{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}},
		{"44.1k", Params{Codec: "opus", SampleRate: 44100, Channels: 2, BitDepth: 16}},
		{"surround", Params{Codec: "opus", SampleRate: 48000, Channels: 6, BitDepth: 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if dec, err := NewOpus(tt.params); err == nil || dec != nil {
				t.Errorf("expected rejection, got %v, %v", dec, err)
			}
		})
	}
}
