// ABOUTME: Source decoding codec packets delivered by a container demuxer
// ABOUTME: Blocks until a packet arrives and carries leftover samples
package stream

import (
	"fmt"
	"io"
	"sync"

	"github.com/livepaper/livepaper-go/pkg/audio/decode"
)

// PacketSource decodes packets received on a channel. Closing the packet
// channel ends the source with io.EOF.
type PacketSource struct {
	decoder decode.Decoder
	params  decode.Params
	packets <-chan []byte

	pending []int32

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPacketSource creates a decoder for p and reads packets from packets
func NewPacketSource(p decode.Params, packets <-chan []byte) (*PacketSource, error) {
	if p.SampleRate <= 0 || p.Channels <= 0 {
		return nil, fmt.Errorf("invalid packet stream parameters: %dHz/%dch", p.SampleRate, p.Channels)
	}

	dec, err := decode.New(p)
	if err != nil {
		return nil, err
	}

	return &PacketSource{
		decoder: dec,
		params:  p,
		packets: packets,
		closed:  make(chan struct{}),
	}, nil
}

// Read returns decoded samples, waiting for the next packet when none are
// buffered
func (s *PacketSource) Read(samples []int32) (int, error) {
	for len(s.pending) == 0 {
		select {
		case <-s.closed:
			return 0, io.EOF
		case pkt, ok := <-s.packets:
			if !ok {
				return 0, io.EOF
			}
			decoded, err := s.decoder.Decode(pkt)
			if err != nil {
				return 0, fmt.Errorf("%s packet: %w", s.params.Codec, err)
			}
			s.pending = decoded
		}
	}

	n := copy(samples, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// SampleRate returns the decoded sample rate
func (s *PacketSource) SampleRate() int { return s.params.SampleRate }

// Channels returns the decoded channel count
func (s *PacketSource) Channels() int { return s.params.Channels }

// Close unblocks a pending Read and releases the decoder
func (s *PacketSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.decoder.Close()
	})
	return err
}
