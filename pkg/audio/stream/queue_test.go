// ABOUTME: Tests for the ring-buffer queue stream
// ABOUTME: Covers wraparound, end-of-input and close semantics
package stream

import (
	"errors"
	"io"
	"testing"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/mixer"
)

var testFormat = audio.Format{Encoding: audio.EncodingS16, SampleRate: 1000, Channels: 2}

func TestQueueCapacity(t *testing.T) {
	q := NewQueue("q", testFormat, 10) // 10 frames, 20 samples

	if q.Free() != 20 {
		t.Fatalf("expected 20 free slots, got %d", q.Free())
	}

	written := q.Write(ramp(30))
	if written != 20 {
		t.Errorf("expected 20 written, got %d", written)
	}
	if q.Free() != 0 || q.Available() != 20 {
		t.Errorf("expected full queue, free=%d available=%d", q.Free(), q.Available())
	}
}

func TestQueueWraparound(t *testing.T) {
	q := NewQueue("q", testFormat, 5) // 10 samples

	q.Write(ramp(8))
	buf := make([]int32, 6)
	if n, err := q.Read(buf); n != 6 || err != nil {
		t.Fatalf("expected 6 samples, got %d (%v)", n, err)
	}

	// 2 left, write 8 more across the wrap point
	next := []int32{9, 10, 11, 12, 13, 14, 15, 16}
	if n := q.Write(next); n != 8 {
		t.Fatalf("expected 8 written, got %d", n)
	}

	out := make([]int32, 10)
	n, err := q.Read(out)
	if err != nil || n != 10 {
		t.Fatalf("expected 10 samples, got %d (%v)", n, err)
	}
	for i, v := range out {
		if v != int32(i+7) {
			t.Fatalf("sample %d: expected %d, got %d", i, i+7, v)
		}
	}
}

func TestQueueShortReadIsNotAnError(t *testing.T) {
	q := NewQueue("q", testFormat, 10)
	q.Write([]int32{1, 2})

	buf := make([]int32, 8)
	n, err := q.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 samples, got %d", n)
	}
	if !q.Alive() {
		t.Error("expected queue to stay alive on underrun")
	}
}

func TestQueueCloseWrite(t *testing.T) {
	q := NewQueue("q", testFormat, 10)
	q.Write([]int32{1, 2, 3, 4})
	q.CloseWrite()

	if q.Write([]int32{5}) != 0 {
		t.Error("expected writes to be refused after CloseWrite")
	}
	if !q.Alive() {
		t.Error("expected queue alive while samples remain")
	}

	buf := make([]int32, 8)
	n, err := q.Read(buf)
	if n != 4 {
		t.Errorf("expected 4 buffered samples, got %d", n)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF once drained, got %v", err)
	}
	if q.Alive() {
		t.Error("expected drained queue to report not alive")
	}
}

func TestQueueCloseWithError(t *testing.T) {
	boom := errors.New("decoder failed")
	q := NewQueue("q", testFormat, 10)
	q.CloseWithError(boom)

	_, err := q.Read(make([]int32, 2))
	if !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}

func TestQueueClose(t *testing.T) {
	q := NewQueue("q", testFormat, 10)
	q.Write([]int32{1, 2})
	q.Close()

	n, err := q.Read(make([]int32, 2))
	if n != 0 || !errors.Is(err, mixer.ErrStreamClosed) {
		t.Errorf("expected (0, ErrStreamClosed), got (%d, %v)", n, err)
	}
	if q.Alive() {
		t.Error("expected closed queue to report not alive")
	}
}

func TestQueueDefaults(t *testing.T) {
	q := NewQueue("q", testFormat, 0)
	want := testFormat.SamplesFor(DefaultQueueMs)
	if q.Free() != want {
		t.Errorf("expected default capacity %d, got %d", want, q.Free())
	}
	if q.Name() != "q" || q.Format() != testFormat {
		t.Errorf("unexpected identity: %s %s", q.Name(), q.Format())
	}
}

func TestQueueRegistersWithContext(t *testing.T) {
	drv := newTestDriver(t, testFormat)
	ctx, err := mixer.NewContext(drv, nil)
	if err != nil {
		t.Fatalf("failed to create context: %v", err)
	}
	defer ctx.Close()

	q := NewQueue("wallpaper", testFormat, 10)
	q.Write([]int32{100, 200, 300, 400})
	q.CloseWrite()

	if _, err := ctx.AddStream(q); err != nil {
		t.Fatalf("AddStream failed: %v", err)
	}

	block := make([]int32, 4)
	ctx.Mix(block)
	if block[0] != 100 || block[3] != 400 {
		t.Errorf("unexpected mix output: %v", block)
	}

	// drained and ended: retired by the pass that hit EOF
	if ctx.Len() != 0 {
		t.Errorf("expected queue to be retired, %d streams remain", ctx.Len())
	}
}
