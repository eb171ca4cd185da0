// ABOUTME: Source contract for decoded audio and file opening
// ABOUTME: Selects the decoder for a wallpaper audio file by extension
package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source provides decoded PCM samples at its native format. Unlike a mixer
// stream, Read may block on I/O or decoding.
type Source interface {
	// Read fills samples with interleaved int32 samples in 24-bit range.
	// It returns io.EOF once the source is exhausted.
	Read(samples []int32) (int, error)
	// SampleRate returns the native sample rate
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Close releases the source
	Close() error
}

// Titled is implemented by sources that know a display title
type Titled interface {
	Title() string
}

// Open creates a source for an audio file. Looping sources restart at the
// end of the file, the way wallpapers loop.
func Open(path string, loop bool) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return NewMP3Source(path, loop)
	case ".flac":
		return NewFLACSource(path, loop)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
}

// titleFromPath uses the file name without extension as a title
func titleFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
