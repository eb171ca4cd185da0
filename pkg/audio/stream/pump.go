// ABOUTME: Goroutine moving samples from a blocking source into a queue
// ABOUTME: Throttles on a full queue and ends the queue when the source ends
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

const (
	// pumpChunkMs is how much audio one source read asks for
	pumpChunkMs = 10
	// pumpBackoff is the wait when the queue is full or the source is idle
	pumpBackoff = 5 * time.Millisecond
)

// Pump reads from a Source on its own goroutine and writes into a Queue.
// The pump owns the source and closes it when it stops.
type Pump struct {
	src   Source
	queue *Queue

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error
}

// NewPump binds src to q. The source must already be in the queue's rate
// and channel layout; use Conform first otherwise.
func NewPump(src Source, q *Queue) (*Pump, error) {
	if src == nil || q == nil {
		return nil, fmt.Errorf("pump requires a source and a queue")
	}

	format := q.Format()
	if src.SampleRate() != format.SampleRate || src.Channels() != format.Channels {
		return nil, fmt.Errorf("source is %dHz/%dch, queue expects %dHz/%dch",
			src.SampleRate(), src.Channels(), format.SampleRate, format.Channels)
	}

	return &Pump{
		src:   src,
		queue: q,
		done:  make(chan struct{}),
	}, nil
}

// Start launches the pump goroutine
func (p *Pump) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)
}

// Stop cancels the pump and waits for it to exit
func (p *Pump) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
			<-p.done
		}
	})
}

// Done is closed when the pump goroutine exits
func (p *Pump) Done() <-chan struct{} {
	return p.done
}

// Err returns the source error that ended the pump, if any
func (p *Pump) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Pump) run(ctx context.Context) {
	defer close(p.done)
	defer p.src.Close()

	format := p.queue.Format()
	buf := make([]int32, format.SamplesFor(pumpChunkMs))
	var pending []int32

	for {
		if ctx.Err() != nil {
			p.queue.CloseWrite()
			return
		}

		if len(pending) == 0 {
			n, err := p.src.Read(buf)
			pending = buf[:n]

			if err != nil {
				p.drain(ctx, pending)
				if errors.Is(err, io.EOF) {
					p.queue.CloseWrite()
					return
				}
				log.Printf("Stream %s: source error: %v", p.queue.Name(), err)
				p.setErr(err)
				p.queue.CloseWithError(err)
				return
			}
			if n == 0 {
				if !p.wait(ctx) {
					p.queue.CloseWrite()
					return
				}
				continue
			}
		}

		written := p.queue.Write(pending)
		pending = pending[written:]
		if written == 0 {
			if !p.queue.Alive() {
				// consumer went away
				return
			}
			if !p.wait(ctx) {
				p.queue.CloseWrite()
				return
			}
		}
	}
}

// drain writes the final samples of a source before its queue is ended
func (p *Pump) drain(ctx context.Context, pending []int32) {
	for len(pending) > 0 {
		written := p.queue.Write(pending)
		pending = pending[written:]
		if written == 0 && (!p.queue.Alive() || !p.wait(ctx)) {
			return
		}
	}
}

// wait sleeps one backoff interval; false means the pump was cancelled
func (p *Pump) wait(ctx context.Context) bool {
	timer := time.NewTimer(pumpBackoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (p *Pump) setErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}
