// ABOUTME: Malgo-based audio driver with 24-bit and float support
// ABOUTME: Uses miniaudio via malgo; the device callback runs the mix pass
package driver

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/livepaper/livepaper-go/pkg/audio"
)

// Malgo driver implementation using malgo/miniaudio
type Malgo struct {
	fixedFormat

	opts     Options
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	src      Source

	// touched only from the device callback
	samples []int32

	mu      sync.Mutex
	started bool
	closing bool
}

// malgoFormat maps a sample encoding to the malgo format constant
func malgoFormat(enc audio.SampleEncoding) (malgo.FormatType, error) {
	switch enc {
	case audio.EncodingS16:
		return malgo.FormatS16, nil
	case audio.EncodingS24:
		return malgo.FormatS24, nil
	case audio.EncodingS32:
		return malgo.FormatS32, nil
	case audio.EncodingF32:
		return malgo.FormatF32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
}

// NewMalgo initializes the miniaudio context and playback device
func NewMalgo(opts Options) (*Malgo, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	format, err := malgoFormat(opts.Format.Encoding)
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	m := &Malgo{
		fixedFormat: fixedFormat{format: opts.Format},
		opts:        opts,
		malgoCtx:    ctx,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(opts.Format.Channels)
	deviceConfig.SampleRate = uint32(opts.Format.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = uint32(opts.BufferMs)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample, frameCount)
		},
		Stop: m.onStop,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		m.freeContext()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	m.device = device

	log.Printf("Audio output initialized: %s (malgo/%s)", opts.Format, formatName(format))

	return m, nil
}

func (m *Malgo) Name() string { return "malgo" }

// Start starts the device; miniaudio begins invoking the data callback
func (m *Malgo) Start(src Source) error {
	if src == nil {
		return fmt.Errorf("malgo driver: nil source")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrClosed
	}
	if m.started {
		return ErrAlreadyStarted
	}

	m.src = src
	if err := m.device.Start(); err != nil {
		m.src = nil
		return fmt.Errorf("failed to start device: %w", err)
	}
	m.started = true
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	total := int(frameCount) * m.format.Channels
	if cap(m.samples) < total {
		m.samples = make([]int32, total)
	}
	samples := m.samples[:total]

	written := 0
	if m.src != nil {
		written = m.src.Mix(samples)
	}
	for i := written; i < total; i++ {
		samples[i] = 0
	}

	encodeSamples(pOutput, samples, m.format.Encoding)
}

// onStop fires when miniaudio stops the device, including on device loss
func (m *Malgo) onStop() {
	m.mu.Lock()
	closing := m.closing
	m.mu.Unlock()

	if !closing {
		m.opts.reportError(ErrDeviceStopped)
	}
}

// Close stops the device and releases the context
func (m *Malgo) Close() error {
	m.mu.Lock()
	m.closing = true
	device := m.device
	m.device = nil
	m.started = false
	m.mu.Unlock()

	if device != nil {
		if err := device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		device.Uninit()
	}

	m.freeContext()
	return nil
}

func (m *Malgo) freeContext() {
	if m.malgoCtx == nil {
		return
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
}

var _ Driver = (*Malgo)(nil)

// formatName returns human-readable format name
func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	case malgo.FormatF32:
		return "F32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
