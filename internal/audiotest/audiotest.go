// ABOUTME: Audio file fixtures for tests
// ABOUTME: Writes small FLAC and MP3 files so decoders run against real containers
package audiotest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FLACBlockSize is the number of samples per channel in every frame but the last
const FLACBlockSize = 256

// Ramp returns frames*channels interleaved 16-bit samples where frame i of
// channel ch holds i*channels+ch, so every sample is unique and ordered
func Ramp(frames, channels int) []int32 {
	samples := make([]int32, frames*channels)
	for i := range samples {
		samples[i] = int32(i)
	}
	return samples
}

// WriteFLAC encodes interleaved 16-bit samples as a verbatim FLAC file
// under dir and returns its path
func WriteFLAC(t *testing.T, dir, name string, sampleRate, channels int, samples []int32) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}

	total := len(samples) / channels
	info := &meta.StreamInfo{
		BlockSizeMin:  FLACBlockSize,
		BlockSizeMax:  FLACBlockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     uint8(channels),
		BitsPerSample: 16,
		NSamples:      uint64(total),
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		f.Close()
		t.Fatalf("flac encoder: %v", err)
	}

	layout := frame.ChannelsMono
	if channels == 2 {
		layout = frame.ChannelsLR
	}

	for num, start := 0, 0; start < total; num, start = num+1, start+FLACBlockSize {
		n := min(FLACBlockSize, total-start)
		subframes := make([]*frame.Subframe, channels)
		for ch := range subframes {
			chSamples := make([]int32, n)
			for i := range chSamples {
				chSamples[i] = samples[(start+i)*channels+ch]
			}
			subframes[ch] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   chSamples,
				NSamples:  n,
			}
		}

		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        uint32(sampleRate),
				Channels:          layout,
				BitsPerSample:     16,
				Num:               uint64(num),
			},
			Subframes: subframes,
		}
		if err := enc.WriteFrame(fr); err != nil {
			enc.Close()
			t.Fatalf("flac frame %d: %v", num, err)
		}
	}

	// Close also closes f
	if err := enc.Close(); err != nil {
		t.Fatalf("flac close: %v", err)
	}
	return path
}

// MP3FrameSamples is the number of samples per channel in one MPEG-1 Layer III frame
const MP3FrameSamples = 1152

// mp3FrameSize is the byte length of a 128 kbps 44.1 kHz frame without padding
const mp3FrameSize = 144 * 128000 / 44100

// WriteSilentMP3 writes frames MPEG-1 Layer III stereo frames at 44.1 kHz
// whose side information is all zero, so each decodes to silence
func WriteSilentMP3(t *testing.T, dir, name string, frames int) string {
	t.Helper()

	data := make([]byte, 0, frames*mp3FrameSize)
	for i := 0; i < frames; i++ {
		fr := make([]byte, mp3FrameSize)
		// sync, MPEG-1, Layer III, no CRC, 128 kbps, 44.1 kHz, stereo
		copy(fr, []byte{0xFF, 0xFB, 0x90, 0x00})
		data = append(data, fr...)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
