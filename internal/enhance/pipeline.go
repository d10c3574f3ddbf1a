// Package enhance implements the noise-reduction pipeline applied to
// recorded speaker samples: noise-floor profiling, an adaptive gate with a
// limiter, and the fail-open orchestration around them.
package enhance

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Raikerian/go-voice-enhancer/pkg/audio"
)

// State is a step of a pipeline run.
type State int

const (
	StateReceived State = iota
	StateAnalyzed
	StateProcessed
	StatePassthroughUnsupportedFormat
	StatePassthroughAnalysisError
	StateDone
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateAnalyzed:
		return "analyzed"
	case StateProcessed:
		return "processed"
	case StatePassthroughUnsupportedFormat:
		return "passthrough_unsupported_format"
	case StatePassthroughAnalysisError:
		return "passthrough_analysis_error"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrUnsupportedBitDepth marks a valid WAV stream that is not 16-bit PCM.
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	// ErrInvalidConfig marks a run skipped because its parameters were rejected.
	ErrInvalidConfig = errors.New("invalid processing config")
	// ErrInternal marks a run that panicked and fell back to passthrough.
	ErrInternal = errors.New("internal pipeline failure")
)

// Result is the outcome of a pipeline run. Output is always usable audio:
// either the enhanced WAV stream or the original input.
type Result struct {
	Output     []byte
	Descriptor audio.Descriptor
	Outcome    State
	Profile    *NoiseProfile
	// ContentType is audio/wav when Output was produced by the pipeline and
	// empty when Output is the caller's own buffer.
	ContentType string
	// Degenerate is set when there was no audio to measure.
	Degenerate bool
	// Err explains a passthrough. It is informational only.
	Err error
}

// Processed reports whether Output was rewritten.
func (r Result) Processed() bool {
	return r.Outcome == StateProcessed
}

// Analysis describes a buffer without producing output.
type Analysis struct {
	Descriptor audio.Descriptor `json:"descriptor"`
	Outcome    State            `json:"-"`
	Profile    *NoiseProfile    `json:"noise_profile,omitempty"`
	Err        error            `json:"-"`
}

// Pipeline runs the enhancement chain. It keeps no state between calls and
// is safe for concurrent use.
type Pipeline struct {
	logger *zap.Logger
	cfg    Config
}

// NewPipeline returns a Pipeline using cfg as its default parameters.
func NewPipeline(logger *zap.Logger, cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("enhance config: %w", err)
	}

	logger.Info("Enhancement pipeline initialized",
		zap.Duration("profile_window", cfg.ProfileWindow),
		zap.Float64("threshold_boost_db", cfg.ThresholdBoostDB),
		zap.Float64("reduction_factor", cfg.ReductionFactor),
		zap.Duration("attack", cfg.Attack),
		zap.Duration("release", cfg.Release),
		zap.Float64("limiter_ceiling", cfg.LimiterCeiling))

	return &Pipeline{logger: logger, cfg: cfg}, nil
}

// Config returns the default parameters.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Process enhances input with the default parameters.
func (p *Pipeline) Process(input []byte) Result {
	return p.ProcessWith(input, p.cfg)
}

// ProcessWith enhances input with cfg. It never fails: any condition that
// prevents processing returns the original bytes.
func (p *Pipeline) ProcessWith(input []byte, cfg Config) (res Result) {
	state := StateReceived

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Enhancement pipeline panicked, returning original audio",
				zap.String("category", "internal"),
				zap.Stringer("state", state),
				zap.Int("input_bytes", len(input)),
				zap.Any("panic", r))
			res = passthrough(input, audio.DefaultDescriptor(), StatePassthroughAnalysisError,
				fmt.Errorf("%w: %v", ErrInternal, r))
		}
		p.transition(&state, res.Outcome)
		p.transition(&state, StateDone)
	}()

	if err := cfg.Validate(); err != nil {
		p.logger.Error("Rejected processing config, returning original audio",
			zap.String("category", "config"),
			zap.Error(err))
		return passthrough(input, audio.DefaultDescriptor(), StatePassthroughAnalysisError,
			fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	header, err := audio.Parse(input)
	if err != nil {
		p.logger.Warn("Input is not a canonical WAV stream, using default descriptor",
			zap.String("category", "format_error"),
			zap.Int("input_bytes", len(input)),
			zap.Error(err))
		return passthrough(input, audio.DefaultDescriptor(), StatePassthroughAnalysisError, err)
	}
	p.transition(&state, StateAnalyzed)

	if !isPCM16(header.Descriptor) {
		p.logger.Warn("Unsupported WAV format, returning original audio",
			zap.String("category", "unsupported_bit_depth"),
			zap.Uint16("audio_format", header.AudioFormat),
			zap.Uint16("bits_per_sample", header.BitsPerSample),
			zap.Uint32("sample_rate", header.SampleRate),
			zap.Uint16("channels", header.NumChannels))
		return passthrough(input, header.Descriptor, StatePassthroughUnsupportedFormat,
			fmt.Errorf("%w: %d-bit format %d", ErrUnsupportedBitDepth, header.BitsPerSample, header.AudioFormat))
	}

	// A trailing partial frame is not rewritten.
	header.Descriptor = header.WholeFrames()
	samples := audio.PCM16Samples(header.Data(input))
	profile := EstimateNoise(samples, header.SampleRate, header.NumChannels, cfg)
	gate := NewGate(profile, cfg, header.SampleRate, header.NumChannels)
	gated := gate.Process(samples)
	output := audio.Serialize(header.Descriptor, gated)

	degenerate := len(samples) == 0 || header.SampleRate == 0 || header.NumChannels == 0
	if degenerate {
		p.logger.Warn("Degenerate input, nothing to enhance",
			zap.String("category", "degenerate_input"),
			zap.Int("samples", len(samples)),
			zap.Uint32("sample_rate", header.SampleRate),
			zap.Uint16("channels", header.NumChannels))
	}

	p.logger.Debug("Enhanced audio",
		zap.Uint32("sample_rate", header.SampleRate),
		zap.Uint16("channels", header.NumChannels),
		zap.Int("samples", len(samples)),
		zap.Bool("canonical_header", header.Canonical),
		zap.Float64("duration_seconds", header.DurationSeconds),
		zap.Float64("noise_floor_db", profile.NoiseFloorDB),
		zap.Float64("gate_threshold_db", profile.GateThresholdDB))

	return Result{
		Output:      output,
		Descriptor:  header.Descriptor,
		Outcome:     StateProcessed,
		Profile:     &profile,
		ContentType: audio.ContentTypeWAV,
		Degenerate:  degenerate,
	}
}

// Analyze parses input and profiles its noise floor without gating.
func (p *Pipeline) Analyze(input []byte) Analysis {
	header, err := audio.Parse(input)
	if err != nil {
		return Analysis{Descriptor: audio.DefaultDescriptor(), Outcome: StatePassthroughAnalysisError, Err: err}
	}
	if !isPCM16(header.Descriptor) {
		return Analysis{
			Descriptor: header.Descriptor,
			Outcome:    StatePassthroughUnsupportedFormat,
			Err:        fmt.Errorf("%w: %d-bit", ErrUnsupportedBitDepth, header.BitsPerSample),
		}
	}

	header.Descriptor = header.WholeFrames()
	samples := audio.PCM16Samples(header.Data(input))
	profile := EstimateNoise(samples, header.SampleRate, header.NumChannels, p.cfg)
	return Analysis{Descriptor: header.Descriptor, Outcome: StateProcessed, Profile: &profile}
}

func (p *Pipeline) transition(state *State, next State) {
	if *state == next {
		return
	}
	p.logger.Debug("Pipeline transition", zap.Stringer("from", *state), zap.Stringer("to", next))
	*state = next
}

func isPCM16(d audio.Descriptor) bool {
	pcm := d.AudioFormat == audio.FormatPCM || d.AudioFormat == audio.FormatExtensible
	return pcm && d.BitsPerSample == 16
}

func passthrough(input []byte, d audio.Descriptor, outcome State, err error) Result {
	return Result{Output: input, Descriptor: d, Outcome: outcome, Err: err}
}
