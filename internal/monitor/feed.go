// ABOUTME: Encoded copy of the mixed output for listening monitors
// ABOUTME: A mixer tap fills a queue; a goroutine encodes fixed frames from it
package monitor

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/encode"
	"github.com/livepaper/livepaper-go/pkg/audio/stream"
)

// feedFrameMs is the duration of one encoded packet
const feedFrameMs = 20

// feedQueueMs bounds how far the encoder may fall behind the mix
const feedQueueMs = 200

// AudioConfig enables the audio feed
type AudioConfig struct {
	// Codec is "opus" or "pcm"; empty disables the feed
	Codec string
	// Format is the mixer output format
	Format audio.Format
}

// feed encodes tapped mix blocks into fixed-duration packets
type feed struct {
	queue   *stream.Queue
	encoder encode.Encoder
	start   StreamStart

	frame   int // interleaved samples per packet
	pending []int32
	scratch []int32
	elapsed int64 // microseconds encoded so far

	dropped atomic.Int64
	stopCh  chan struct{}
	once    sync.Once
	done    chan struct{}
}

// newFeed creates a feed for format. Opus falls back to 16-bit PCM when
// the format is outside what Opus can carry.
func newFeed(cfg AudioConfig) (*feed, error) {
	if err := cfg.Format.Validate(); err != nil {
		return nil, fmt.Errorf("audio feed: %w", err)
	}

	params := encode.Params{
		Codec:      strings.ToLower(cfg.Codec),
		SampleRate: cfg.Format.SampleRate,
		Channels:   cfg.Format.Channels,
		BitDepth:   16,
	}
	if params.Codec == "opus" && (!encode.SupportsOpusRate(params.SampleRate) || params.Channels > 2) {
		log.Printf("Monitor: opus cannot carry %s, streaming pcm instead", cfg.Format)
		params.Codec = "pcm"
	}

	enc, err := encode.New(params)
	if err != nil {
		return nil, fmt.Errorf("audio feed: %w", err)
	}

	frame := cfg.Format.SamplesFor(feedFrameMs)
	return &feed{
		queue:   stream.NewQueue("monitor-feed", cfg.Format, feedQueueMs),
		encoder: enc,
		start:   StreamStart{CodecParams: enc.Params(), FrameMs: feedFrameMs},
		frame:   frame,
		scratch: make([]int32, cfg.Format.SamplesFor(feedQueueMs)),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// tap receives mixed blocks on the device cadence. It never blocks; a
// block that does not fit whole is dropped so frames stay aligned.
func (f *feed) tap(block []int32) {
	if f.queue.Free() < len(block) {
		f.dropped.Add(int64(len(block)))
		return
	}
	f.queue.Write(block)
}

// run encodes whole frames until stop, handing each to emit
func (f *feed) run(emit func(AudioChunk)) {
	defer close(f.done)

	ticker := time.NewTicker(feedFrameMs * time.Millisecond)
	defer ticker.Stop()

	frameMicros := int64(feedFrameMs * 1000)

	for {
		select {
		case <-f.stopCh:
			return
		case <-ticker.C:
		}

		n, _ := f.queue.Read(f.scratch)
		f.pending = append(f.pending, f.scratch[:n]...)

		off := 0
		for len(f.pending)-off >= f.frame {
			data, err := f.encoder.Encode(f.pending[off : off+f.frame])
			off += f.frame
			if err != nil {
				log.Printf("Monitor: encode failed: %v", err)
				continue
			}
			emit(AudioChunk{Timestamp: f.elapsed, Data: data})
			f.elapsed += frameMicros
		}
		f.pending = append(f.pending[:0], f.pending[off:]...)
	}
}

func (f *feed) stop() {
	f.once.Do(func() {
		close(f.stopCh)
		<-f.done
		f.queue.Close()
		f.encoder.Close()
	})
}
