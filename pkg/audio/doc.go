// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, SampleEncoding and sample conversion functions
// Package audio provides the fundamental audio types shared by drivers,
// the mixer and streams.
//
// This package defines:
//   - Format: the negotiated output format (encoding, sample rate, channels)
//   - SampleEncoding: the device sample layout (S16, S24, S32, F32)
//   - CodecParams: the shape of an encoded packet stream, shared by the
//     decode and encode packages
//
// Internally all samples travel as int32 values in the 24-bit range.
// Conversion helpers map that representation to and from device layouts:
//   - 16-bit ↔ 24-bit conversions
//   - int32 ↔ packed 24-bit byte conversions
//   - int32 ↔ float32 conversions
//
// Example:
//
//	format := audio.Format{
//	    Encoding:   audio.EncodingF32,
//	    SampleRate: 48000,
//	    Channels:   2,
//	}
//
//	// Convert 16-bit sample to 24-bit range
//	sample24 := audio.SampleFromInt16(sample16)
package audio
