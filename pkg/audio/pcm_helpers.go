package audio

import (
	"encoding/binary"
	"math"
)

// PCMInt16ToLE converts int16 samples to raw little-endian bytes.
func PCMInt16ToLE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// PCM16Samples converts raw little-endian bytes to int16 samples. A trailing
// odd byte is ignored.
func PCM16Samples(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// Normalize16 maps an int16 sample onto [-1, 1).
func Normalize16(s int16) float64 {
	return float64(s) / PCM16FullScale
}

// Quantize16 clamps x to [-1, 1] and rounds it half away from zero onto the
// int16 grid used by Serialize.
func Quantize16(x float64) int16 {
	if math.IsNaN(x) {
		return 0
	}
	x = max(-1.0, min(1.0, x))
	return int16(math.Round(x * PCM16MaxValue))
}
