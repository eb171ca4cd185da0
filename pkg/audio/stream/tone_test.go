// ABOUTME: Tests for the sine tone generator
// ABOUTME: Checks channel duplication, duration limit and close
package stream

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/mixer"
)

func TestToneDuplicatesChannels(t *testing.T) {
	format := audio.Format{Encoding: audio.EncodingF32, SampleRate: 48000, Channels: 2}
	tone := NewTone(format, 1000, 0)

	buf := make([]int32, 96)
	n, err := tone.Read(buf)
	if err != nil || n != 96 {
		t.Fatalf("expected 96 samples, got %d (%v)", n, err)
	}

	peak := int32(0)
	for i := 0; i < n; i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("frame %d: channels differ (%d vs %d)", i/2, buf[i], buf[i+1])
		}
		if buf[i] > peak {
			peak = buf[i]
		}
	}
	if peak == 0 || peak > audio.Max24Bit/2+1 {
		t.Errorf("unexpected peak %d for half amplitude", peak)
	}
}

func TestToneDuration(t *testing.T) {
	format := audio.Format{Encoding: audio.EncodingS16, SampleRate: 1000, Channels: 1}
	tone := NewTone(format, 100, 50*time.Millisecond) // 50 frames

	buf := make([]int32, 40)
	if n, err := tone.Read(buf); n != 40 || err != nil {
		t.Fatalf("expected 40 samples, got %d (%v)", n, err)
	}

	n, err := tone.Read(buf)
	if n != 10 || !errors.Is(err, io.EOF) {
		t.Errorf("expected (10, EOF), got (%d, %v)", n, err)
	}
	if tone.Alive() {
		t.Error("expected finished tone to report not alive")
	}
}

func TestToneClose(t *testing.T) {
	tone := NewTone(testFormat, 440, 0)
	tone.Close()

	if _, err := tone.Read(make([]int32, 4)); !errors.Is(err, mixer.ErrStreamClosed) {
		t.Errorf("expected ErrStreamClosed, got %v", err)
	}
}

func TestToneAmplitude(t *testing.T) {
	tone := NewTone(testFormat, 250, 0)
	tone.SetAmplitude(0)

	buf := make([]int32, 20)
	tone.Read(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d: expected silence, got %d", i, v)
		}
	}
}
