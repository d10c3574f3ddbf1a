// Package audio implements the canonical PCM WAV container used for speaker
// samples: header parsing, chunk walking and 16-bit serialization.
package audio

// Format constants shared by the codec and the enhancement pipeline.
const (
	// Canonical RIFF/WAVE layout.
	CanonicalHeaderSize = 44
	FormatPCM           = 1
	FormatExtensible    = 0xFFFE

	// Fallback description for buffers that are not WAV at all (e.g. WebM
	// recordings from browsers that ignore the requested mime type).
	DefaultSampleRate    = 44_100 // Hz
	DefaultBitsPerSample = 16
	DefaultChannels      = 1

	// 16-bit PCM scaling.
	PCM16FullScale = 32768.0 // |int16| normaliser
	PCM16MaxValue  = 32767.0 // float -> int16 multiplier

	// ContentTypeWAV is the mime type of every buffer produced by Serialize.
	ContentTypeWAV = "audio/wav"
)
