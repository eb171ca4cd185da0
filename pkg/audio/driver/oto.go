// ABOUTME: Oto-based audio driver
// ABOUTME: Feeds an oto player from the mix source through a pull reader
package driver

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/livepaper/livepaper-go/pkg/audio"
)

// Oto driver implementation using the oto library. oto pulls bytes from an
// io.Reader on its own goroutine, which is where mix passes happen.
type Oto struct {
	fixedFormat

	opts   Options
	otoCtx *oto.Context
	player *oto.Player
	reader *pullReader

	mu       sync.Mutex
	closed   bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// otoFormat maps a sample encoding to the oto format constant
func otoFormat(enc audio.SampleEncoding) (oto.Format, error) {
	switch enc {
	case audio.EncodingS16:
		return oto.FormatSignedInt16LE, nil
	case audio.EncodingF32:
		return oto.FormatFloat32LE, nil
	default:
		return 0, fmt.Errorf("%w: oto supports s16 and f32, got %s", ErrUnsupportedEncoding, enc)
	}
}

// NewOto opens the oto context with the requested format. oto allows a
// single context per process, so one Oto driver should exist at a time.
func NewOto(opts Options) (*Oto, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	format, err := otoFormat(opts.Format.Encoding)
	if err != nil {
		return nil, err
	}

	op := &oto.NewContextOptions{
		SampleRate:   opts.Format.SampleRate,
		ChannelCount: opts.Format.Channels,
		Format:       format,
		BufferSize:   time.Duration(opts.BufferMs) * time.Millisecond,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	log.Printf("Audio output initialized: %s (oto)", opts.Format)

	return &Oto{
		fixedFormat: fixedFormat{format: opts.Format},
		opts:        opts,
		otoCtx:      ctx,
		stopChan:    make(chan struct{}),
	}, nil
}

func (o *Oto) Name() string { return "oto" }

// Start creates the persistent player that reads from src
func (o *Oto) Start(src Source) error {
	if src == nil {
		return fmt.Errorf("oto driver: nil source")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.player != nil {
		return ErrAlreadyStarted
	}

	o.reader = newPullReader(src, o.format)
	o.player = o.otoCtx.NewPlayer(o.reader)
	o.player.Play()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.watch()
	}()

	return nil
}

// watch surfaces asynchronous device failures to the owner
func (o *Oto) watch() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := o.otoCtx.Err(); err != nil {
				o.opts.reportError(fmt.Errorf("oto context: %w", err))
				return
			}
			if err := o.player.Err(); err != nil {
				o.opts.reportError(fmt.Errorf("oto player: %w", err))
				return
			}
		case <-o.stopChan:
			return
		}
	}
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	o.stopOnce.Do(func() {
		close(o.stopChan)
	})
	o.wg.Wait()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Warning: oto player close error: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend oto context: %w", err)
		}
	}
	return nil
}

var _ Driver = (*Oto)(nil)

// pullReader turns Source.Mix into an io.Reader of encoded frames
type pullReader struct {
	src     Source
	format  audio.Format
	samples []int32
}

func newPullReader(src Source, format audio.Format) *pullReader {
	return &pullReader{
		src:    src,
		format: format,
	}
}

// Read fills p with whole frames of mixed audio
func (r *pullReader) Read(p []byte) (int, error) {
	frameBytes := r.format.FrameBytes()
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}

	total := frames * r.format.Channels
	if cap(r.samples) < total {
		r.samples = make([]int32, total)
	}
	samples := r.samples[:total]

	written := r.src.Mix(samples)
	for i := written; i < total; i++ {
		samples[i] = 0
	}

	encodeSamples(p, samples, r.format.Encoding)
	return frames * frameBytes, nil
}
