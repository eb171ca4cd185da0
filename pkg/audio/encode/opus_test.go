// ABOUTME: Unit tests for Opus encoder
// ABOUTME: Tests frame encoding and that packets decode to a full frame
package encode

import (
	"testing"

	"github.com/livepaper/livepaper-go/pkg/audio/decode"
)

func TestNewOpus(t *testing.T) {
	if _, err := NewOpus(Params{Codec: "pcm", SampleRate: 48000, Channels: 2}); err == nil {
		t.Error("NewOpus() accepted pcm codec")
	}

	enc, err := NewOpus(Params{Codec: "opus", SampleRate: 24000, Channels: 1, BitDepth: 24})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer enc.Close()

	if got := enc.Params().BitDepth; got != 16 {
		t.Errorf("Params().BitDepth = %d, want 16", got)
	}
}

func TestOpusEncoder_Encode(t *testing.T) {
	enc, err := NewOpus(Params{Codec: "opus", SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer enc.Close()

	// 20ms at 48kHz
	frameSize := 48000 / 50
	samples := make([]int32, frameSize*2)
	for i := range samples {
		samples[i] = int32((i % 1000) * 8388)
	}

	packet, err := enc.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(packet) == 0 || len(packet) > maxOpusPacket {
		t.Fatalf("Encode() packet size %d out of range", len(packet))
	}

	dec, err := decode.New(enc.Params())
	if err != nil {
		t.Fatalf("decode.New() failed: %v", err)
	}
	out, err := dec.Decode(packet)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(out) != len(samples) {
		t.Errorf("decoded %d samples, want %d", len(out), len(samples))
	}
}

func TestOpusEncoder_EncodeSilence(t *testing.T) {
	enc, err := NewOpus(Params{Codec: "opus", SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer enc.Close()

	packet, err := enc.Encode(make([]int32, 960*2))
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(packet) == 0 {
		t.Error("Encode() returned empty packet for silence")
	}
}

func TestOpusEncoder_RejectsOddFrame(t *testing.T) {
	enc, err := NewOpus(Params{Codec: "opus", SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer enc.Close()

	// 7ms is not a legal Opus frame duration
	if _, err := enc.Encode(make([]int32, 336*2)); err == nil {
		t.Error("Encode() accepted a 7ms frame")
	}
}
