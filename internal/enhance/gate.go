package enhance

import (
	"math"

	"github.com/Raikerian/go-voice-enhancer/pkg/audio"
)

// Gate is a binary-target noise gate with per-channel exponential gain
// smoothing. Samples at or below the threshold pull the gain toward the
// reduction factor, louder samples pull it back to unity.
//
// A Gate belongs to a single recording. Successive Process calls continue
// the same interleaved stream.
type Gate struct {
	threshold    float64
	reduction    float64
	attackCoeff  float64
	releaseCoeff float64
	limiter      Limiter

	gains []float64
	next  int // channel of the next sample
}

// NewGate builds a gate for an interleaved stream of numChannels channels.
func NewGate(profile NoiseProfile, cfg Config, sampleRate uint32, numChannels uint16) *Gate {
	channels := max(int(numChannels), 1)
	gains := make([]float64, channels)
	for i := range gains {
		gains[i] = 1.0
	}

	return &Gate{
		threshold:    profile.GateThresholdLinear,
		reduction:    cfg.ReductionFactor,
		attackCoeff:  smoothingCoeff(sampleRate, cfg.Attack.Seconds()),
		releaseCoeff: smoothingCoeff(sampleRate, cfg.Release.Seconds()),
		limiter:      Limiter{Ceiling: cfg.LimiterCeiling},
		gains:        gains,
	}
}

// smoothingCoeff is the one-pole coefficient for a time constant in seconds.
// A zero rate or time constant means the gain jumps straight to its target.
func smoothingCoeff(sampleRate uint32, seconds float64) float64 {
	if sampleRate == 0 || seconds <= 0 {
		return 0
	}
	return math.Exp(-1 / (float64(sampleRate) * seconds))
}

// Process gates 16-bit samples and returns normalised, limited output of the
// same length and channel layout.
func (g *Gate) Process(samples []int16) []float64 {
	out := make([]float64, len(samples))
	channels := len(g.gains)

	for i, s := range samples {
		c := g.next
		x := audio.Normalize16(s)

		target := g.reduction
		if math.Abs(x) > g.threshold {
			target = 1.0
		}

		k := g.releaseCoeff
		if target >= g.gains[c] {
			k = g.attackCoeff
		}
		g.gains[c] = g.gains[c]*k + target*(1-k)

		out[i] = g.limiter.Apply(x * g.gains[c])
		g.next = (c + 1) % channels
	}

	return out
}

// Gain returns the current smoothed gain of a channel.
func (g *Gate) Gain(channel int) float64 {
	return g.gains[channel]
}

// Channels returns the number of interleaved channels.
func (g *Gate) Channels() int {
	return len(g.gains)
}
