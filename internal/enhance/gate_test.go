package enhance_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-voice-enhancer/internal/enhance"
	"github.com/Raikerian/go-voice-enhancer/pkg/audio"
)

const rate44k = 44100

// Half a second of room tone followed by half a second of a 0.5 tone.
func TestGate_SilenceThenTone(t *testing.T) {
	cfg := enhance.DefaultConfig()
	silence := quietNoise(rate44k/2, 0.001)
	toneHalf := tone(rate44k/2, rate44k, 440, 0.5)

	profile := enhance.EstimateNoise(append(append([]int16{}, silence...), toneHalf...), rate44k, 1, cfg)
	assert.InDelta(t, 20*math.Log10(0.001), profile.NoiseFloorDB, 0.1)
	assert.InDelta(t, -52, profile.GateThresholdDB, 0.1)

	gate := enhance.NewGate(profile, cfg, rate44k, 1)

	// Release (100 ms) pulls the gain down across the silent half.
	gate.Process(silence[:rate44k/10])
	assert.InDelta(t, 0.05+0.95*math.Exp(-1), gate.Gain(0), 0.005)

	gate.Process(silence[rate44k/10:])
	assert.InDelta(t, 0.05+0.95*math.Exp(-5), gate.Gain(0), 0.001)
	assert.Less(t, gate.Gain(0), 0.06)
	assert.Greater(t, gate.Gain(0), cfg.ReductionFactor)

	// Attack (5 ms) brings it back once the tone starts.
	fiveMs := rate44k * 5 / 1000
	gate.Process(toneHalf[:fiveMs])
	assert.Greater(t, gate.Gain(0), 0.6, "gain should be well on its way after one attack constant")

	thirtyMs := rate44k * 30 / 1000
	gate.Process(toneHalf[fiveMs:thirtyMs])
	assert.InDelta(t, 1.0, gate.Gain(0), 0.01)

	rest := toneHalf[thirtyMs:]
	out := gate.Process(rest)
	require.Len(t, out, len(rest))
	for i, s := range rest {
		x := audio.Normalize16(s)
		if math.Abs(x) < 0.05 {
			continue
		}
		assert.InEpsilon(t, x, out[i], 0.02, "sample %d", i)
	}
}

func TestGate_SilenceStaysSilent(t *testing.T) {
	cfg := enhance.DefaultConfig()
	samples := make([]int16, rate44k)
	profile := enhance.EstimateNoise(samples, rate44k, 1, cfg)
	gate := enhance.NewGate(profile, cfg, rate44k, 1)

	out := gate.Process(samples)

	settle := rate44k * 150 / 1000
	for _, y := range out[settle:] {
		assert.Equal(t, 0.0, y)
	}
	assert.Less(t, gate.Gain(0), 0.06)
}

func TestGate_PreservesLoudSignal(t *testing.T) {
	cfg := enhance.DefaultConfig()
	lead := quietNoise(rate44k/5, 0.001)
	samples := tone(rate44k/10, rate44k, 220, 0.95)
	profile := enhance.EstimateNoise(append(append([]int16{}, lead...), samples...), rate44k, 1, cfg)
	gate := enhance.NewGate(profile, cfg, rate44k, 1)

	gate.Process(lead)
	settle := rate44k * 30 / 1000
	gate.Process(samples[:settle])
	out := gate.Process(samples[settle:])

	assert.InDelta(t, 1.0, gate.Gain(0), 0.01)
	for i, s := range samples[settle:] {
		x := audio.Normalize16(s)
		if math.Abs(x) < 0.05 {
			continue
		}
		assert.InEpsilon(t, x, out[i], 0.02, "sample %d", i)
	}
}

func TestGate_LimiterCeiling(t *testing.T) {
	cfg := enhance.DefaultConfig()
	samples := append(quietNoise(rate44k/5, 0.001), randomLoud(rate44k/4, 7)...)
	profile := enhance.EstimateNoise(samples, rate44k, 1, cfg)
	gate := enhance.NewGate(profile, cfg, rate44k, 1)

	out := gate.Process(samples)
	var peak float64
	for _, y := range out {
		require.LessOrEqual(t, math.Abs(y), cfg.LimiterCeiling)
		peak = max(peak, math.Abs(y))
	}
	assert.Equal(t, cfg.LimiterCeiling, peak)

	for _, s := range audio.PCM16Samples(audio.Serialize(audio.Descriptor{SampleRate: rate44k, NumChannels: 1}, out)[audio.CanonicalHeaderSize:]) {
		require.LessOrEqual(t, int(s), 32127)
		require.GreaterOrEqual(t, int(s), -32127)
	}
}

func TestGate_ChannelsAreIndependent(t *testing.T) {
	cfg := enhance.DefaultConfig()
	const rate = 16000
	lead := quietNoise(rate/5, 0.001)
	left := append(append([]int16{}, lead...), tone(rate/2, rate, 300, 0.6)...)
	right := append(append([]int16{}, lead...), quietNoise(rate/2, 0.001)...)
	samples := interleave(left, right)

	profile := enhance.EstimateNoise(samples, rate, 2, cfg)
	gate := enhance.NewGate(profile, cfg, rate, 2)
	out := gate.Process(samples)

	require.Len(t, out, len(samples))
	assert.Equal(t, 2, gate.Channels())
	assert.InDelta(t, 1.0, gate.Gain(0), 0.01)
	assert.Less(t, gate.Gain(1), 0.06)
}

func TestGate_SplitProcessingMatchesSingleCall(t *testing.T) {
	cfg := enhance.DefaultConfig()
	samples := interleave(tone(4000, 8000, 200, 0.3), quietNoise(4000, 0.002))
	profile := enhance.EstimateNoise(samples, 8000, 2, cfg)

	whole := enhance.NewGate(profile, cfg, 8000, 2).Process(samples)

	split := enhance.NewGate(profile, cfg, 8000, 2)
	var parts []float64
	parts = append(parts, split.Process(samples[:1001])...) // odd split crosses a frame
	parts = append(parts, split.Process(samples[1001:])...)

	assert.Equal(t, whole, parts)
}

func TestGate_ZeroSampleRateJumpsToTarget(t *testing.T) {
	cfg := enhance.DefaultConfig()
	profile := enhance.NoiseProfile{GateThresholdLinear: 0.1}
	gate := enhance.NewGate(profile, cfg, 0, 0)

	out := gate.Process([]int16{100, 20000})

	assert.Equal(t, 1, gate.Channels())
	assert.InDelta(t, audio.Normalize16(100)*cfg.ReductionFactor, out[0], 1e-12)
	assert.InDelta(t, audio.Normalize16(20000), out[1], 1e-12)
}

func TestLimiter(t *testing.T) {
	l := enhance.Limiter{Ceiling: 0.98}

	assert.Equal(t, 0.98, l.Apply(1.5))
	assert.Equal(t, -0.98, l.Apply(-1))
	assert.Equal(t, 0.5, l.Apply(0.5))
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*enhance.Config)
		wantErr bool
	}{
		"defaults":            {mutate: func(*enhance.Config) {}},
		"negative_boost_ok":   {mutate: func(c *enhance.Config) { c.ThresholdBoostDB = -3 }},
		"zero_window":         {mutate: func(c *enhance.Config) { c.ProfileWindow = 0 }, wantErr: true},
		"zero_reduction":      {mutate: func(c *enhance.Config) { c.ReductionFactor = 0 }, wantErr: true},
		"reduction_above_one": {mutate: func(c *enhance.Config) { c.ReductionFactor = 1.5 }, wantErr: true},
		"zero_attack":         {mutate: func(c *enhance.Config) { c.Attack = 0 }, wantErr: true},
		"negative_release":    {mutate: func(c *enhance.Config) { c.Release = -1 }, wantErr: true},
		"ceiling_above_one":   {mutate: func(c *enhance.Config) { c.LimiterCeiling = 1.2 }, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := enhance.DefaultConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}

	assert.NotEqual(t, enhance.DefaultConfig().Fingerprint(), func() string {
		c := enhance.DefaultConfig()
		c.Attack *= 2
		return c.Fingerprint()
	}())
}
