// ABOUTME: Packet decoder package for wallpaper audio tracks
// ABOUTME: Provides the Decoder interface with PCM and Opus implementations
// Package decode turns codec packets pulled from a wallpaper container into
// int32 samples in 24-bit range.
//
// Whole-file formats (MP3, FLAC) are decoded by the stream package, which
// reads them directly. This package covers packetized tracks.
//
// Example:
//
//	dec, err := decode.New(decode.Params{Codec: "opus", SampleRate: 48000, Channels: 2})
//	samples, err := dec.Decode(packet)
package decode
