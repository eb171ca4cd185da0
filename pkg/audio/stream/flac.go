// ABOUTME: FLAC file source backed by mewkiz/flac
// ABOUTME: Scales any bit depth to 24-bit range and optionally loops
package stream

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/flac"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file       *os.File
	stream     *flac.Stream
	loop       bool
	title      string
	sampleRate int
	channels   int
	bitDepth   int

	// pending holds interleaved samples of a frame not yet returned
	pending []int32
}

// NewFLACSource creates a new FLAC audio source
func NewFLACSource(path string, loop bool) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	s := &FLACSource{
		file:       f,
		stream:     stream,
		loop:       loop,
		title:      titleFromPath(path),
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
	}

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d, loop: %v)",
		s.title, s.sampleRate, s.channels, s.bitDepth, loop)
	return s, nil
}

// Read decodes frames until samples is full or the file ends
func (s *FLACSource) Read(samples []int32) (int, error) {
	read := 0
	rewound := false

	for read < len(samples) {
		if len(s.pending) > 0 {
			n := copy(samples[read:], s.pending)
			s.pending = s.pending[n:]
			read += n
			continue
		}

		frame, err := s.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			// A second EOF right after rewinding means the file has no audio
			if !s.loop || rewound {
				return read, io.EOF
			}
			if err := s.rewind(); err != nil {
				return read, err
			}
			rewound = true
			continue
		}
		if err != nil {
			return read, err
		}
		rewound = false

		blockSize := int(frame.BlockSize)
		interleaved := make([]int32, 0, blockSize*s.channels)
		for i := 0; i < blockSize; i++ {
			for ch := 0; ch < s.channels; ch++ {
				interleaved = append(interleaved, scaleTo24(frame.Subframes[ch].Samples[i], s.bitDepth))
			}
		}
		s.pending = interleaved
	}

	return read, nil
}

// rewind restarts decoding at the beginning of the file
func (s *FLACSource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	return nil
}

// scaleTo24 moves a sample of the given bit depth into 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth > 24:
		return sample >> (bitDepth - 24)
	default:
		return sample << (24 - bitDepth)
	}
}

// SampleRate returns the stream sample rate
func (s *FLACSource) SampleRate() int { return s.sampleRate }

// Channels returns the stream channel count
func (s *FLACSource) Channels() int { return s.channels }

// Title returns the file name without extension
func (s *FLACSource) Title() string { return s.title }

// Close closes the underlying file
func (s *FLACSource) Close() error {
	return s.file.Close()
}
