// ABOUTME: Sample encoding for device buffers
// ABOUTME: Packs 24-bit range int32 samples into the device sample layout
package driver

import (
	"encoding/binary"
	"math"

	"github.com/livepaper/livepaper-go/pkg/audio"
)

// encodeSamples writes samples into out using enc; out must hold
// len(samples)*enc.BytesPerSample() bytes
func encodeSamples(out []byte, samples []int32, enc audio.SampleEncoding) {
	switch enc {
	case audio.EncodingS16:
		for i, sample := range samples {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.SampleToInt16(sample)))
		}
	case audio.EncodingS24:
		for i, sample := range samples {
			b := audio.SampleTo24Bit(sample)
			out[i*3] = b[0]
			out[i*3+1] = b[1]
			out[i*3+2] = b[2]
		}
	case audio.EncodingS32:
		for i, sample := range samples {
			// Shift 24-bit value to upper bits of 32-bit container
			binary.LittleEndian.PutUint32(out[i*4:], uint32(sample<<8))
		}
	case audio.EncodingF32:
		for i, sample := range samples {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(audio.SampleToFloat32(sample)))
		}
	}
}
