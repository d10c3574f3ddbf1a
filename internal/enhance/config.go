package enhance

import (
	"fmt"
	"time"
)

// Default processing parameters.
const (
	DefaultProfileWindow    = 200 * time.Millisecond
	DefaultThresholdBoostDB = 8.0
	DefaultReductionFactor  = 0.05
	DefaultAttack           = 5 * time.Millisecond
	DefaultRelease          = 100 * time.Millisecond
	DefaultLimiterCeiling   = 0.98
)

// Config holds the parameters of one pipeline run. Attack is the time
// constant of the gain rising toward unity when the gate opens; Release is
// the time constant of the gain falling toward ReductionFactor when it closes.
//
// Quiet audio is therefore not cut at once: with the defaults a gate that
// starts open is still at 0.4 after 100 ms of silence and reaches about
// 0.056 after 500 ms, while a tone onset reopens it within 30 ms.
type Config struct {
	ProfileWindow    time.Duration `yaml:"profile_window"`
	ThresholdBoostDB float64       `yaml:"threshold_boost_db"`
	ReductionFactor  float64       `yaml:"reduction_factor"`
	Attack           time.Duration `yaml:"attack"`
	Release          time.Duration `yaml:"release"`
	LimiterCeiling   float64       `yaml:"limiter_ceiling"`
}

// DefaultConfig returns the compiled-in parameters.
func DefaultConfig() Config {
	return Config{
		ProfileWindow:    DefaultProfileWindow,
		ThresholdBoostDB: DefaultThresholdBoostDB,
		ReductionFactor:  DefaultReductionFactor,
		Attack:           DefaultAttack,
		Release:          DefaultRelease,
		LimiterCeiling:   DefaultLimiterCeiling,
	}
}

// Validate rejects parameters the gate cannot run with.
func (c Config) Validate() error {
	if c.ProfileWindow <= 0 {
		return fmt.Errorf("profile_window must be positive, got %s", c.ProfileWindow)
	}
	if c.ReductionFactor <= 0 || c.ReductionFactor > 1 {
		return fmt.Errorf("reduction_factor must be in (0, 1], got %g", c.ReductionFactor)
	}
	if c.Attack <= 0 {
		return fmt.Errorf("attack must be positive, got %s", c.Attack)
	}
	if c.Release <= 0 {
		return fmt.Errorf("release must be positive, got %s", c.Release)
	}
	if c.LimiterCeiling <= 0 || c.LimiterCeiling > 1 {
		return fmt.Errorf("limiter_ceiling must be in (0, 1], got %g", c.LimiterCeiling)
	}
	return nil
}

// Fingerprint identifies the parameter set in cache keys.
func (c Config) Fingerprint() string {
	return fmt.Sprintf("w=%d;b=%g;r=%g;a=%d;rl=%d;l=%g",
		c.ProfileWindow, c.ThresholdBoostDB, c.ReductionFactor, c.Attack, c.Release, c.LimiterCeiling)
}
