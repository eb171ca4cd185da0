// ABOUTME: Audio context package binding one driver to many streams
// ABOUTME: Provides stream registration, the mix pass and format pass-through
// Package mixer provides the audio Context: the single registration point
// streams attach to and the Source a driver pulls mixed audio from.
//
// The Context never converts formats. Producers query Format (or
// SampleRate and Channels) and conform before calling AddStream, which
// rejects anything else with a *FormatError.
//
// Streams leave the mix either explicitly through RemoveStream or
// implicitly when they report exhaustion (Alive returns false, or Read
// returns io.EOF or ErrStreamClosed).
//
// Example:
//
//	ctx, err := mixer.NewContext(drv, app)
//	h, err := ctx.AddStream(myStream)
//	err = drv.Start(ctx)
//	...
//	ctx.RemoveStream(h)
package mixer
