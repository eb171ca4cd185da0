// ABOUTME: MP3 file source backed by go-mp3
// ABOUTME: Decodes 16-bit stereo and optionally loops at end of file
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hajimehoshi/go-mp3"
	"github.com/livepaper/livepaper-go/pkg/audio"
)

// MP3Source reads from an MP3 file
type MP3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	loop    bool
	title   string
	buf     []byte
}

// NewMP3Source creates a new MP3 audio source
func NewMP3Source(path string, loop bool) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	title := titleFromPath(path)
	log.Printf("Loaded MP3: %s (sample rate: %d Hz, loop: %v)", title, decoder.SampleRate(), loop)

	return &MP3Source{
		file:    f,
		decoder: decoder,
		loop:    loop,
		title:   title,
	}, nil
}

// Read decodes up to len(samples) samples
func (s *MP3Source) Read(samples []int32) (int, error) {
	// go-mp3 always emits 16-bit little-endian stereo
	numBytes := (len(samples) / 2) * 4
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := s.decoder.Read(buf)
	if errors.Is(err, io.EOF) && n == 0 && s.loop {
		// Rewind and try once more; an empty file stays at EOF
		if _, seekErr := s.decoder.Seek(0, io.SeekStart); seekErr != nil {
			return 0, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		n, err = s.decoder.Read(buf)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}

	if errors.Is(err, io.EOF) && !s.loop {
		return numSamples, io.EOF
	}
	return numSamples, nil
}

// SampleRate returns the decoded sample rate
func (s *MP3Source) SampleRate() int { return s.decoder.SampleRate() }

// Channels is always 2 for MP3
func (s *MP3Source) Channels() int { return 2 }

// Title returns the file name without extension
func (s *MP3Source) Title() string { return s.title }

// Close closes the underlying file
func (s *MP3Source) Close() error {
	return s.file.Close()
}
