// ABOUTME: Audio driver package for platform output devices
// ABOUTME: Provides the Driver capability contract and its backends
// Package driver hides platform audio output backends behind one
// capability contract.
//
// A Driver owns the physical output device and dictates the one output
// format every stream must match. Once started it pulls mixed audio from a
// Source on its own cadence and writes it to the device.
//
// Backends:
//   - oto: ebitengine/oto (s16, f32)
//   - malgo: miniaudio via gen2brain/malgo (s16, s24, s32, f32)
//   - portaudio: gordonklaus/portaudio (build with -tags portaudio)
//   - null: software cadence with no device, used for silent mode and tests
//
// Example:
//
//	drv, err := driver.New("malgo", driver.Options{
//	    Format: audio.Format{Encoding: audio.EncodingF32, SampleRate: 48000, Channels: 2},
//	})
//	err = drv.Start(mixerContext)
package driver
