package audio

import (
	"encoding/binary"
	"fmt"
)

// Descriptor summarises a PCM WAV stream.
type Descriptor struct {
	SampleRate      uint32  `json:"sample_rate"`
	BitsPerSample   uint16  `json:"bits_per_sample"`
	NumChannels     uint16  `json:"num_channels"`
	DataByteSize    uint32  `json:"data_byte_size"`
	DurationSeconds float64 `json:"duration_seconds"`
	AudioFormat     uint16  `json:"audio_format"`
}

// Header locates the data region of a parsed stream.
type Header struct {
	Descriptor
	DataOffset int
	// Canonical is true when the stream matched the fixed 44-byte layout.
	Canonical bool
}

// DefaultDescriptor is substituted for buffers that fail to parse.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		SampleRate:    DefaultSampleRate,
		BitsPerSample: DefaultBitsPerSample,
		NumChannels:   DefaultChannels,
		AudioFormat:   FormatPCM,
	}
}

// BlockAlign returns the size in bytes of one interleaved frame.
func (d Descriptor) BlockAlign() int {
	return int(d.BitsPerSample) / 8 * int(d.NumChannels)
}

// Duration returns DataByteSize expressed in seconds, or 0 when the format
// fields cannot describe a byte rate.
func (d Descriptor) Duration() float64 {
	bytesPerSecond := float64(d.BitsPerSample) / 8 * float64(d.NumChannels) * float64(d.SampleRate)
	if bytesPerSecond == 0 {
		return 0
	}
	return float64(d.DataByteSize) / bytesPerSecond
}

// WholeFrames returns d with DataByteSize rounded down to a whole number of
// interleaved frames and the duration recomputed.
func (d Descriptor) WholeFrames() Descriptor {
	if align := uint32(d.BlockAlign()); align > 0 {
		d.DataByteSize -= d.DataByteSize % align
	}
	d.DurationSeconds = d.Duration()
	return d
}

// Data returns the data region of b described by h.
func (h Header) Data(b []byte) []byte {
	end := h.DataOffset + int(h.DataByteSize)
	if h.DataOffset > len(b) || end > len(b) {
		return nil
	}
	return b[h.DataOffset:end]
}

// Parse validates b as a RIFF/WAVE stream and describes its format and data
// region. Canonical 44-byte headers are read at fixed offsets; anything else
// is parsed by walking the RIFF sub-chunks.
func Parse(b []byte) (Header, error) {
	r := NewReader(b)
	if len(b) < CanonicalHeaderSize {
		return Header{}, formatErr("parse", len(b),
			fmt.Errorf("%w: need at least %d bytes, got %d", ErrNotCanonicalWAV, CanonicalHeaderSize, len(b)))
	}
	if id, _ := r.FourCCAt(0); id != "RIFF" {
		return Header{}, formatErr("parse", 0, fmt.Errorf("%w: missing RIFF tag", ErrNotCanonicalWAV))
	}
	if id, _ := r.FourCCAt(8); id != "WAVE" {
		return Header{}, formatErr("parse", 8, fmt.Errorf("%w: missing WAVE tag", ErrNotCanonicalWAV))
	}

	var (
		h   Header
		err error
	)
	if isCanonical(r) {
		h, err = parseCanonical(r)
	} else {
		h, err = walkChunks(r)
	}
	if err != nil {
		return Header{}, err
	}

	h.DataByteSize = clampDataSize(h, len(b))
	h.DurationSeconds = h.Duration()
	return h, nil
}

func isCanonical(r *Reader) bool {
	fmtID, _ := r.FourCCAt(12)
	fmtSize, _ := r.Uint32At(16)
	dataID, _ := r.FourCCAt(36)
	return fmtID == "fmt " && fmtSize == 16 && dataID == "data"
}

func parseCanonical(r *Reader) (Header, error) {
	var (
		h   = Header{DataOffset: CanonicalHeaderSize, Canonical: true}
		err error
	)
	if h.AudioFormat, err = r.Uint16At(20); err != nil {
		return Header{}, formatErr("fmt", 20, err)
	}
	if h.NumChannels, err = r.Uint16At(22); err != nil {
		return Header{}, formatErr("fmt", 22, err)
	}
	if h.SampleRate, err = r.Uint32At(24); err != nil {
		return Header{}, formatErr("fmt", 24, err)
	}
	if h.BitsPerSample, err = r.Uint16At(34); err != nil {
		return Header{}, formatErr("fmt", 34, err)
	}
	if h.DataByteSize, err = r.Uint32At(40); err != nil {
		return Header{}, formatErr("data", 40, err)
	}
	return h, nil
}

// walkChunks scans the RIFF body chunk by chunk. Chunk bodies are padded to
// an even length.
func walkChunks(r *Reader) (Header, error) {
	if err := r.Seek(12); err != nil {
		return Header{}, formatErr("walk", 12, err)
	}

	var (
		h       Header
		haveFmt bool
	)
	for r.Len() >= 8 {
		start := r.Pos()
		id, _ := r.FourCC()
		size, _ := r.Uint32()

		switch id {
		case "fmt ":
			if err := readFmtChunk(r, size, &h); err != nil {
				return Header{}, formatErr("fmt", start, err)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Header{}, formatErr("data", start, fmt.Errorf("%w: data chunk before fmt", ErrMissingChunk))
			}
			h.DataOffset = r.Pos()
			h.DataByteSize = size
			return h, nil
		}

		if err := r.Seek(start + 8); err != nil {
			return Header{}, formatErr("walk", start, err)
		}
		body := int(size) + int(size&1)
		if body > r.Len() {
			return Header{}, formatErr("walk", start, fmt.Errorf("chunk %q declares %d bytes: %w", id, size, ErrTruncated))
		}
		_ = r.Skip(body)
	}

	missing := "data"
	if !haveFmt {
		missing = "fmt "
	}
	return Header{}, formatErr("walk", r.Pos(), fmt.Errorf("%w: %q", ErrMissingChunk, missing))
}

func readFmtChunk(r *Reader, size uint32, h *Header) error {
	if size < 16 {
		return fmt.Errorf("fmt chunk is %d bytes, need 16: %w", size, ErrTruncated)
	}
	body, err := r.Bytes(16)
	if err != nil {
		return err
	}
	h.AudioFormat = binary.LittleEndian.Uint16(body[0:])
	h.NumChannels = binary.LittleEndian.Uint16(body[2:])
	h.SampleRate = binary.LittleEndian.Uint32(body[4:])
	h.BitsPerSample = binary.LittleEndian.Uint16(body[14:])
	return nil
}

// clampDataSize trims the declared data size to the bytes actually present.
func clampDataSize(h Header, total int) uint32 {
	available := max(0, total-h.DataOffset)
	return uint32(min(int64(h.DataByteSize), int64(available)))
}

// Serialize writes samples as a canonical 16-bit PCM WAV stream using the
// sample rate and channel count of d. Samples are clamped to [-1, 1], scaled
// by 32767 and rounded half away from zero.
func Serialize(d Descriptor, samples []float64) []byte {
	channels := max(d.NumChannels, 1)
	const bitsPerSample = 16
	dataSize := uint32(len(samples) * 2)

	out := make([]byte, CanonicalHeaderSize+len(samples)*2)
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], 36+dataSize)
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], FormatPCM)
	binary.LittleEndian.PutUint16(out[22:24], channels)
	binary.LittleEndian.PutUint32(out[24:28], d.SampleRate)
	binary.LittleEndian.PutUint32(out[28:32], d.SampleRate*uint32(channels)*bitsPerSample/8)
	binary.LittleEndian.PutUint16(out[32:34], channels*bitsPerSample/8)
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], dataSize)

	pcm := out[CanonicalHeaderSize:]
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(Quantize16(s)))
	}
	return out
}
