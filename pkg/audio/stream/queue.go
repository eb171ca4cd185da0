// ABOUTME: Ring-buffer stream bridging blocking producers to the mix pass
// ABOUTME: Writes and reads never block; short reads count as underruns
package stream

import (
	"io"
	"sync"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/mixer"
)

// DefaultQueueMs is the queue capacity used when none is given
const DefaultQueueMs = 500

// Queue is a thread-safe circular buffer of samples that implements
// mixer.Stream. A producer writes decoded samples, the mix pass drains them.
type Queue struct {
	name   string
	format audio.Format

	mu       sync.Mutex
	buffer   []int32
	readPos  int
	writePos int
	size     int
	count    int // samples currently buffered

	// endErr is returned once the buffer drains after CloseWrite
	endErr error
	closed bool
}

// NewQueue creates a queue holding capacityMs of audio in format
func NewQueue(name string, format audio.Format, capacityMs int) *Queue {
	if capacityMs <= 0 {
		capacityMs = DefaultQueueMs
	}

	size := format.SamplesFor(capacityMs)
	if size < format.Channels {
		size = format.Channels
	}

	return &Queue{
		name:   name,
		format: format,
		buffer: make([]int32, size),
		size:   size,
	}
}

// Name returns the queue's display name
func (q *Queue) Name() string {
	return q.name
}

// Format returns the format of the buffered samples
func (q *Queue) Format() audio.Format {
	return q.format
}

// Write adds as many samples as fit and returns how many were taken.
// Nothing is accepted after CloseWrite or Close.
func (q *Queue) Write(samples []int32) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.endErr != nil {
		return 0
	}

	written := 0
	for written < len(samples) && q.count < q.size {
		// copy the contiguous run up to the wrap point
		run := q.size - q.writePos
		if free := q.size - q.count; run > free {
			run = free
		}
		if rest := len(samples) - written; run > rest {
			run = rest
		}
		copy(q.buffer[q.writePos:q.writePos+run], samples[written:written+run])
		q.writePos = (q.writePos + run) % q.size
		q.count += run
		written += run
	}
	return written
}

// Read drains up to len(samples) buffered samples without blocking
func (q *Queue) Read(samples []int32) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, mixer.ErrStreamClosed
	}

	read := 0
	for read < len(samples) && q.count > 0 {
		run := q.size - q.readPos
		if run > q.count {
			run = q.count
		}
		if rest := len(samples) - read; run > rest {
			run = rest
		}
		copy(samples[read:read+run], q.buffer[q.readPos:q.readPos+run])
		q.readPos = (q.readPos + run) % q.size
		q.count -= run
		read += run
	}

	if q.count == 0 && q.endErr != nil {
		return read, q.endErr
	}
	return read, nil
}

// Alive reports whether the queue can still deliver samples
func (q *Queue) Alive() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.closed && !(q.endErr != nil && q.count == 0)
}

// Available returns the number of buffered samples
func (q *Queue) Available() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Free returns the number of free slots
func (q *Queue) Free() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size - q.count
}

// CloseWrite marks the end of input. Buffered samples are still
// delivered, then Read returns io.EOF.
func (q *Queue) CloseWrite() {
	q.CloseWithError(io.EOF)
}

// CloseWithError ends input like CloseWrite but reports err after the
// buffer drains
func (q *Queue) CloseWithError(err error) {
	if err == nil {
		err = io.EOF
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.endErr == nil {
		q.endErr = err
	}
}

// Close discards buffered samples; the next Read reports ErrStreamClosed
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.count = 0
	return nil
}

var _ mixer.Stream = (*Queue)(nil)
