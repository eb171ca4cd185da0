// ABOUTME: Sine tone generator usable as a source or a mixer stream
// ABOUTME: Used by soundcheck and as a placeholder wallpaper soundtrack
package stream

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/mixer"
)

// Tone generates a sine wave. It never blocks, so it can be registered
// with an audio context directly.
type Tone struct {
	format    audio.Format
	frequency float64
	amplitude float64

	mu          sync.Mutex
	sampleIndex uint64
	limit       uint64 // frames; 0 means endless
	closed      bool
}

// NewTone creates a tone at frequency Hz. A non-zero duration ends the
// tone with io.EOF after that much audio.
func NewTone(format audio.Format, frequency float64, duration time.Duration) *Tone {
	var limit uint64
	if duration > 0 {
		limit = uint64(duration.Seconds() * float64(format.SampleRate))
	}

	return &Tone{
		format:    format,
		frequency: frequency,
		amplitude: 0.5,
		limit:     limit,
	}
}

// SetAmplitude sets the peak level, 0.0 to 1.0
func (t *Tone) SetAmplitude(amplitude float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.amplitude = math.Max(0, math.Min(1, amplitude))
}

// Read generates whole frames of the tone
func (t *Tone) Read(samples []int32) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, mixer.ErrStreamClosed
	}

	channels := t.format.Channels
	numFrames := len(samples) / channels
	if t.limit > 0 {
		remaining := t.limit - t.sampleIndex
		if remaining == 0 {
			return 0, io.EOF
		}
		if uint64(numFrames) > remaining {
			numFrames = int(remaining)
		}
	}

	for i := 0; i < numFrames; i++ {
		tm := float64(t.sampleIndex+uint64(i)) / float64(t.format.SampleRate)
		value := int32(math.Sin(2*math.Pi*t.frequency*tm) * audio.Max24Bit * t.amplitude)
		for ch := 0; ch < channels; ch++ {
			samples[i*channels+ch] = value
		}
	}
	t.sampleIndex += uint64(numFrames)

	if t.limit > 0 && t.sampleIndex >= t.limit {
		return numFrames * channels, io.EOF
	}
	return numFrames * channels, nil
}

// Format returns the tone's format
func (t *Tone) Format() audio.Format { return t.format }

// SampleRate returns the tone's sample rate
func (t *Tone) SampleRate() int { return t.format.SampleRate }

// Channels returns the tone's channel count
func (t *Tone) Channels() int { return t.format.Channels }

// Name returns a display name
func (t *Tone) Name() string { return fmt.Sprintf("tone-%.0fHz", t.frequency) }

// Title returns the display name
func (t *Tone) Title() string { return t.Name() }

// Alive reports whether the tone still produces audio
func (t *Tone) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed && (t.limit == 0 || t.sampleIndex < t.limit)
}

// Close stops the tone
func (t *Tone) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

var (
	_ Source       = (*Tone)(nil)
	_ mixer.Stream = (*Tone)(nil)
)
