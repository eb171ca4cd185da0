// ABOUTME: Package documentation for audio encoders
// ABOUTME: Encoders turn mixed int32 blocks into monitor wire packets
// Package encode turns int32 samples in the 24-bit range into encoded
// packets. It is the inverse of package decode and is used to ship the
// mixed output to remote monitors.
//
// Supports: PCM (16-bit and 24-bit little-endian), Opus
//
// Example:
//
//	enc, err := encode.New(encode.Params{Codec: "opus", SampleRate: 48000, Channels: 2})
//	packet, err := enc.Encode(block)
package encode
