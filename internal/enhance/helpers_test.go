package enhance_test

import (
	"math"
	"math/rand"

	"github.com/Raikerian/go-voice-enhancer/pkg/audio"
)

// wavFromInt16 builds a canonical 16-bit stream with exact sample values.
func wavFromInt16(rate uint32, channels uint16, samples []int16) []byte {
	out := audio.Serialize(audio.Descriptor{SampleRate: rate, NumChannels: channels}, make([]float64, len(samples)))
	copy(out[audio.CanonicalHeaderSize:], audio.PCMInt16ToLE(samples))
	return out
}

// quietNoise returns n samples alternating around +-amplitude.
func quietNoise(n int, amplitude float64) []int16 {
	v := int16(math.Round(amplitude * audio.PCM16FullScale))
	out := make([]int16, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = v
		} else {
			out[i] = -v
		}
	}
	return out
}

func tone(n int, rate, freq, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(math.Round(amplitude * audio.PCM16MaxValue * math.Sin(2*math.Pi*freq*float64(i)/rate)))
	}
	return out
}

func randomLoud(n int, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(rng.Intn(65536) - 32768)
	}
	return out
}

func interleave(left, right []int16) []int16 {
	out := make([]int16, 0, len(left)*2)
	for i := range left {
		out = append(out, left[i], right[i])
	}
	return out
}
