// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion for producers
// that need to conform to a driver's rate before registering a stream.
//
// Uses linear interpolation and keeps the last frame of each chunk so
// consecutive chunks join without a discontinuity.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	outputSize := r.Resample(inputSamples, outputSamples)
package resample
