// ABOUTME: Streaming linear resampler for converting audio sample rates
// ABOUTME: Interpolates across chunk boundaries using the previous chunk's last frame
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64

	// position is the read position in input frames relative to the start
	// of the next chunk; -1 addresses lastFrame
	position  float64
	lastFrame []int32
	hasLast   bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]int32, channels),
	}
}

// InputRate returns the source sample rate
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the target sample rate
func (r *Resampler) OutputRate() int { return r.outputRate }

// Channels returns the interleaved channel count
func (r *Resampler) Channels() int { return r.channels }

// sample returns channel ch of frame idx, where idx -1 is the saved frame
func (r *Resampler) sample(input []int32, idx, ch int) int32 {
	if idx < 0 {
		return r.lastFrame[ch]
	}
	return input[idx*r.channels+ch]
}

// Resample converts input samples to output sample rate using linear interpolation
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate
// Returns the number of output samples written.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(math.Floor(r.position))
		if idx+1 >= inputFrames {
			break
		}

		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := r.sample(input, idx, ch)
			s2 := r.sample(input, idx+1, ch)
			output[outIdx*r.channels+ch] = int32(float64(s1)*(1.0-frac) + float64(s2)*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// Carry the last frame and rebase position onto the next chunk
	copy(r.lastFrame, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.hasLast = true
	r.position -= float64(inputFrames)
	if r.position < -1 {
		// Output filled before input ran out; the rest of the chunk is dropped
		r.position = -1
	}

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.hasLast = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(math.Ceil(float64(inputFrames) / r.ratio))
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(math.Ceil(float64(outputFrames)*r.ratio)) + 1
	return inputFrames * r.channels
}
