package enhance

import (
	"math"

	"github.com/Raikerian/go-voice-enhancer/pkg/audio"
)

const (
	// SilenceFloorDB is reported when there is nothing to measure.
	SilenceFloorDB = -120.0
	noiseEpsilon   = 1e-6
)

// NoiseProfile is the ambient level measured over the leading window of a
// recording and the gate threshold derived from it.
type NoiseProfile struct {
	NoiseFloorDB        float64 `json:"noise_floor_db"`
	GateThresholdDB     float64 `json:"gate_threshold_db"`
	GateThresholdLinear float64 `json:"gate_threshold_linear"`
	SampleCount         int     `json:"sample_count"`
}

// EstimateNoise measures the mean absolute amplitude of the first
// cfg.ProfileWindow of interleaved 16-bit samples and expresses it in dBFS.
func EstimateNoise(samples []int16, sampleRate uint32, numChannels uint16, cfg Config) NoiseProfile {
	window := int(math.Round(cfg.ProfileWindow.Seconds() * float64(sampleRate) * float64(numChannels)))
	n := min(max(window, 0), len(samples))

	floor := SilenceFloorDB
	if n > 0 {
		var sum float64
		for _, s := range samples[:n] {
			sum += math.Abs(audio.Normalize16(s))
		}
		floor = 20 * math.Log10(max(noiseEpsilon, sum/float64(n)))
	}

	profile := NoiseProfile{
		NoiseFloorDB:    floor,
		GateThresholdDB: floor + cfg.ThresholdBoostDB,
		SampleCount:     n,
	}
	profile.GateThresholdLinear = math.Pow(10, profile.GateThresholdDB/20)
	return profile
}
