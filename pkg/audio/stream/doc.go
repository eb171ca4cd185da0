// ABOUTME: Reference streams feeding the audio context
// ABOUTME: Decoded sources, queues and the pump bridging them
// Package stream builds mixer streams out of decoded audio.
//
// A Source produces samples at its native rate and may block. The audio
// context needs the opposite: streams in its own format that never block.
// The pieces in this package bridge the two:
//
//	src, err := stream.Open("rain.flac", true)
//	conv := stream.Conform(src, ctx.Format())
//	q := stream.NewQueue("rain", ctx.Format(), 500)
//	pump, err := stream.NewPump(conv, q)
//	pump.Start(context.Background())
//	h, err := ctx.AddStream(q)
//
// Tone implements both contracts and can be registered directly.
package stream
