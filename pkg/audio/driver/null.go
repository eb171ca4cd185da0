// ABOUTME: Null audio driver with a software timer cadence
// ABOUTME: Pulls and discards mixed audio when no device is available
package driver

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Null drives mix passes from a ticker and discards the result. It keeps
// wallpapers running silently when no real device can be opened.
type Null struct {
	fixedFormat

	period time.Duration
	block  []int32
	opts   Options

	mu      sync.Mutex
	src     Source
	started bool
	closed  bool

	cycleMu  sync.Mutex
	passes   atomic.Int64
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewNull creates a null driver that reports opts.Format
func NewNull(opts Options) (*Null, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	return &Null{
		fixedFormat: fixedFormat{format: opts.Format},
		period:      time.Duration(opts.BufferMs) * time.Millisecond,
		block:       make([]int32, opts.Format.SamplesFor(opts.BufferMs)),
		opts:        opts,
		stopChan:    make(chan struct{}),
	}, nil
}

func (n *Null) Name() string { return "null" }

// Start begins the ticker cadence
func (n *Null) Start(src Source) error {
	if src == nil {
		return fmt.Errorf("null driver: nil source")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}
	n.src = src
	n.started = true

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.run()
	}()

	log.Printf("Audio output initialized: %s (null, %v period)", n.format, n.period)
	return nil
}

func (n *Null) run() {
	ticker := time.NewTicker(n.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.Cycle()
		case <-n.stopChan:
			return
		}
	}
}

// Cycle runs one device period synchronously and returns the mixed block.
// The returned slice is reused by the next cycle.
func (n *Null) Cycle() []int32 {
	n.mu.Lock()
	src := n.src
	n.mu.Unlock()

	if src == nil {
		return nil
	}

	n.cycleMu.Lock()
	defer n.cycleMu.Unlock()

	written := src.Mix(n.block)
	for i := written; i < len(n.block); i++ {
		n.block[i] = 0
	}
	n.passes.Add(1)
	return n.block
}

// Passes returns the number of completed device periods
func (n *Null) Passes() int64 {
	return n.passes.Load()
}

// Close stops the cadence
func (n *Null) Close() error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	n.stopOnce.Do(func() {
		close(n.stopChan)
	})
	n.wg.Wait()
	return nil
}

var _ Driver = (*Null)(nil)
