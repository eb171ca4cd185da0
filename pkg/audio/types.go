// ABOUTME: Audio type definitions
// ABOUTME: Defines the output format triplet and sample conversions
package audio

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// ErrInvalidFormat is returned by Format.Validate
var ErrInvalidFormat = errors.New("invalid audio format")

// SampleEncoding is the sample layout a device expects
type SampleEncoding int

const (
	EncodingUnknown SampleEncoding = iota
	EncodingS16                    // signed 16-bit little-endian
	EncodingS24                    // signed 24-bit packed little-endian
	EncodingS32                    // signed 32-bit little-endian
	EncodingF32                    // 32-bit float little-endian
)

func (e SampleEncoding) String() string {
	switch e {
	case EncodingS16:
		return "s16"
	case EncodingS24:
		return "s24"
	case EncodingS32:
		return "s32"
	case EncodingF32:
		return "f32"
	default:
		return fmt.Sprintf("unknown(%d)", int(e))
	}
}

// BytesPerSample returns the size of one sample, or 0 for unknown encodings
func (e SampleEncoding) BytesPerSample() int {
	switch e {
	case EncodingS16:
		return 2
	case EncodingS24:
		return 3
	case EncodingS32, EncodingF32:
		return 4
	default:
		return 0
	}
}

// ParseEncoding maps a config name ("s16", "f32", ...) to an encoding
func ParseEncoding(name string) (SampleEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "s16", "s16le", "int16":
		return EncodingS16, nil
	case "s24", "s24le", "int24":
		return EncodingS24, nil
	case "s32", "s32le", "int32":
		return EncodingS32, nil
	case "f32", "f32le", "float", "float32":
		return EncodingF32, nil
	default:
		return EncodingUnknown, fmt.Errorf("unknown sample encoding: %q", name)
	}
}

// Format describes the output format a driver dictates
type Format struct {
	Encoding   SampleEncoding
	SampleRate int
	Channels   int
}

// Validate reports whether every field of the format is usable
func (f Format) Validate() error {
	if f.Encoding.BytesPerSample() == 0 {
		return fmt.Errorf("%w: encoding %s", ErrInvalidFormat, f.Encoding)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channels %d", ErrInvalidFormat, f.Channels)
	}
	return nil
}

// FrameBytes returns the size in bytes of one interleaved frame
func (f Format) FrameBytes() int {
	return f.Encoding.BytesPerSample() * f.Channels
}

// SamplesFor returns the interleaved sample count covering ms milliseconds
func (f Format) SamplesFor(ms int) int {
	return (f.SampleRate * ms / 1000) * f.Channels
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.Encoding)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleToFloat32 converts a 24-bit range sample to [-1, 1]
func SampleToFloat32(sample int32) float32 {
	return float32(sample) / (Max24Bit + 1)
}

// SampleFromFloat32 converts a [-1, 1] float to the 24-bit range, clipping
func SampleFromFloat32(sample float32) int32 {
	return Clamp24(int64(float64(sample) * (Max24Bit + 1)))
}

// Clamp24 clips an accumulated value to the 24-bit range
func Clamp24(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}

// CodecParams describes an encoded packet stream: the codec name plus the
// PCM shape packets decode to
type CodecParams struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

func (p CodecParams) String() string {
	return fmt.Sprintf("%s %dHz/%dch/%dbit", p.Codec, p.SampleRate, p.Channels, p.BitDepth)
}
