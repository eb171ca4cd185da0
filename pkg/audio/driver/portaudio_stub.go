//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package driver

import (
	"errors"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio driver implementation (stub)
type PortAudio struct {
	fixedFormat
}

// NewPortAudio always fails without the portaudio build tag
func NewPortAudio(opts Options) (*PortAudio, error) {
	return nil, errPortAudioDisabled
}

func (p *PortAudio) Name() string { return "portaudio" }

// Start is unavailable without the portaudio build tag
func (p *PortAudio) Start(src Source) error {
	return errPortAudioDisabled
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}

var _ Driver = (*PortAudio)(nil)
