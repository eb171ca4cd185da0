// ABOUTME: Shared fakes for stream package tests
// ABOUTME: Provides an in-memory source with configurable read sizes
package stream

import (
	"io"
	"sync"
	"testing"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/driver"
)

// sliceSource serves fixed samples, at most chunk per Read
type sliceSource struct {
	mu       sync.Mutex
	samples  []int32
	rate     int
	channels int
	chunk    int
	endErr   error
	closed   bool
}

func newSliceSource(samples []int32, rate, channels int) *sliceSource {
	return &sliceSource{samples: samples, rate: rate, channels: channels, endErr: io.EOF}
}

func (s *sliceSource) Read(buf []int32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) == 0 {
		return 0, s.endErr
	}
	limit := len(buf)
	if s.chunk > 0 && limit > s.chunk {
		limit = s.chunk
	}
	n := copy(buf[:limit], s.samples)
	s.samples = s.samples[n:]
	return n, nil
}

func (s *sliceSource) SampleRate() int { return s.rate }
func (s *sliceSource) Channels() int   { return s.channels }

func (s *sliceSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *sliceSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func ramp(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i + 1)
	}
	return out
}

func newTestDriver(t *testing.T, format audio.Format) *driver.Null {
	t.Helper()
	drv, err := driver.NewNull(driver.Options{Format: format})
	if err != nil {
		t.Fatalf("failed to create null driver: %v", err)
	}
	t.Cleanup(func() { drv.Close() })
	return drv
}
