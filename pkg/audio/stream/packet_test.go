// ABOUTME: Tests for the packet-fed source
// ABOUTME: Uses PCM packets to check buffering, end and close
package stream

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/livepaper/livepaper-go/pkg/audio/decode"
)

var pcmParams = decode.Params{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}

func TestPacketSourceCarriesLeftover(t *testing.T) {
	packets := make(chan []byte, 2)
	// four 16-bit samples: 1, 2, 3, 4
	packets <- []byte{1, 0, 2, 0, 3, 0, 4, 0}
	close(packets)

	src, err := NewPacketSource(pcmParams, packets)
	if err != nil {
		t.Fatalf("NewPacketSource failed: %v", err)
	}
	defer src.Close()

	buf := make([]int32, 3)
	n, err := src.Read(buf)
	if n != 3 || err != nil {
		t.Fatalf("expected 3 samples, got %d (%v)", n, err)
	}
	if buf[0] != 1<<8 || buf[2] != 3<<8 {
		t.Errorf("unexpected samples %v", buf)
	}

	n, err = src.Read(buf)
	if n != 1 || buf[0] != 4<<8 {
		t.Errorf("expected leftover sample, got %d %v (%v)", n, buf[:n], err)
	}

	if _, err := src.Read(buf); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after channel close, got %v", err)
	}
}

func TestPacketSourceCloseUnblocksRead(t *testing.T) {
	src, err := NewPacketSource(pcmParams, make(chan []byte))
	if err != nil {
		t.Fatalf("NewPacketSource failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := src.Read(make([]int32, 4))
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	src.Close()
	src.Close()

	select {
	case err := <-done:
		if !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read stayed blocked after Close")
	}
}

func TestNewPacketSourceErrors(t *testing.T) {
	if _, err := NewPacketSource(decode.Params{Codec: "pcm", BitDepth: 16}, nil); err == nil {
		t.Error("expected error for missing rate and channels")
	}
	if _, err := NewPacketSource(decode.Params{Codec: "vorbis", SampleRate: 48000, Channels: 2}, nil); err == nil {
		t.Error("expected error for unsupported codec")
	}
}
