// ABOUTME: Adapts a source to the audio context's rate and channel layout
// ABOUTME: Remaps channels then resamples with the streaming resampler
package stream

import (
	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/resample"
)

// Conform returns src unchanged when it already matches target, otherwise a
// source producing target's rate and channel count
func Conform(src Source, target audio.Format) Source {
	if src.SampleRate() == target.SampleRate && src.Channels() == target.Channels {
		return src
	}

	c := &converter{
		src:    src,
		target: target,
	}
	if src.SampleRate() != target.SampleRate {
		c.rs = resample.New(src.SampleRate(), target.SampleRate, target.Channels)
	}
	return c
}

type converter struct {
	src    Source
	target audio.Format
	rs     *resample.Resampler

	in      []int32 // source layout
	mapped  []int32 // target layout at source rate
	out     []int32 // resampler output
	pending []int32
	err     error
}

func (c *converter) Read(samples []int32) (int, error) {
	srcCh := c.src.Channels()
	dstCh := c.target.Channels

	for len(c.pending) == 0 {
		if c.err != nil {
			return 0, c.err
		}

		frames := len(samples) / dstCh
		if frames == 0 {
			return 0, nil
		}
		if c.rs != nil {
			frames = c.rs.InputSamplesNeeded(frames*dstCh) / dstCh
		}

		c.in = grow(c.in, frames*srcCh)
		n, err := c.src.Read(c.in)
		inFrames := n / srcCh

		c.mapped = grow(c.mapped, inFrames*dstCh)
		remapChannels(c.mapped, c.in[:inFrames*srcCh], srcCh, dstCh)

		if c.rs != nil && inFrames > 0 {
			// one spare frame covers the carried position
			c.out = grow(c.out, c.rs.OutputSamplesNeeded(inFrames*dstCh)+dstCh)
			produced := c.rs.Resample(c.mapped, c.out)
			c.pending = c.out[:produced]
		} else {
			c.pending = c.mapped
		}

		if err != nil {
			c.err = err
			continue
		}
		if inFrames == 0 {
			return 0, nil
		}
	}

	n := copy(samples, c.pending)
	c.pending = c.pending[n:]
	if len(c.pending) == 0 && c.err != nil {
		return n, c.err
	}
	return n, nil
}

func (c *converter) SampleRate() int { return c.target.SampleRate }
func (c *converter) Channels() int   { return c.target.Channels }
func (c *converter) Close() error    { return c.src.Close() }

// Title passes through the wrapped source's title
func (c *converter) Title() string {
	if t, ok := c.src.(Titled); ok {
		return t.Title()
	}
	return ""
}

// remapChannels converts interleaved frames between channel counts. Mono
// is duplicated, downmix to mono averages, other layouts copy the shared
// channels and silence the rest.
func remapChannels(dst, src []int32, srcCh, dstCh int) {
	frames := len(src) / srcCh
	for f := 0; f < frames; f++ {
		in := src[f*srcCh : (f+1)*srcCh]
		out := dst[f*dstCh : (f+1)*dstCh]

		switch {
		case srcCh == dstCh:
			copy(out, in)
		case srcCh == 1:
			for ch := range out {
				out[ch] = in[0]
			}
		case dstCh == 1:
			var sum int64
			for _, s := range in {
				sum += int64(s)
			}
			out[0] = int32(sum / int64(srcCh))
		default:
			for ch := range out {
				if ch < srcCh {
					out[ch] = in[ch]
				} else {
					out[ch] = 0
				}
			}
		}
	}
}

func grow(buf []int32, n int) []int32 {
	if cap(buf) < n {
		return make([]int32, n)
	}
	return buf[:n]
}
