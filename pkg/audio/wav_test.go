package audio_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/go-voice-enhancer/pkg/audio"
)

func TestParse_RejectsNonWAV(t *testing.T) {
	webm := append([]byte{0x1A, 0x45, 0xDF, 0xA3}, make([]byte, 60)...)
	riffAVI := append([]byte("RIFF\x00\x00\x00\x00AVI "), make([]byte, 40)...)

	tests := map[string]struct {
		input []byte
	}{
		"nil":           {input: nil},
		"too_short":     {input: []byte("RIFF\x24\x00\x00\x00WAVE")},
		"webm":          {input: webm},
		"riff_not_wave": {input: riffAVI},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := audio.Parse(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, audio.ErrNotCanonicalWAV)

			var fe *audio.FormatError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestParse_CanonicalHeader(t *testing.T) {
	samples := make([]float64, 4410)
	out := audio.Serialize(audio.Descriptor{SampleRate: 44100, NumChannels: 1}, samples)

	h, err := audio.Parse(out)
	require.NoError(t, err)

	assert.True(t, h.Canonical)
	assert.Equal(t, audio.CanonicalHeaderSize, h.DataOffset)
	assert.Equal(t, uint32(44100), h.SampleRate)
	assert.Equal(t, uint16(16), h.BitsPerSample)
	assert.Equal(t, uint16(1), h.NumChannels)
	assert.Equal(t, uint16(audio.FormatPCM), h.AudioFormat)
	assert.Equal(t, uint32(len(samples)*2), h.DataByteSize)
	assert.InDelta(t, 0.1, h.DurationSeconds, 1e-12)
	assert.Len(t, h.Data(out), len(samples)*2)
}

func TestParse_ZeroRateOrChannelsHasZeroDuration(t *testing.T) {
	out := audio.Serialize(audio.Descriptor{SampleRate: 0, NumChannels: 1}, make([]float64, 100))

	h, err := audio.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, 0.0, h.DurationSeconds)

	binary.LittleEndian.PutUint32(out[24:], 8000)
	binary.LittleEndian.PutUint16(out[22:], 0)
	h, err = audio.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, 0.0, h.DurationSeconds)
}

func TestParse_WalksExtraChunks(t *testing.T) {
	pcm := audio.PCMInt16ToLE([]int16{1, -2, 3, -4, 5, -6})
	b := buildRIFF(t,
		chunk("LIST", []byte("INFOISFT\x05\x00\x00\x00test\x00")), // odd size, padded
		chunk("fmt ", fmtBody(1, 2, 16000, 16)),
		chunk("fact", []byte{3, 0, 0, 0}),
		chunk("data", pcm),
	)

	h, err := audio.Parse(b)
	require.NoError(t, err)

	assert.False(t, h.Canonical)
	assert.Equal(t, uint32(16000), h.SampleRate)
	assert.Equal(t, uint16(2), h.NumChannels)
	assert.Equal(t, uint16(16), h.BitsPerSample)
	assert.Equal(t, uint32(len(pcm)), h.DataByteSize)
	assert.Equal(t, pcm, h.Data(b))
	assert.Equal(t, []int16{1, -2, 3, -4, 5, -6}, audio.PCM16Samples(h.Data(b)))
}

func TestParse_ExtensibleFmtChunk(t *testing.T) {
	fmtExt := append(fmtBody(1, 1, 48000, 16), 0, 0) // cbSize
	b := buildRIFF(t,
		chunk("fmt ", fmtExt),
		chunk("data", make([]byte, 96)),
	)

	h, err := audio.Parse(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(48000), h.SampleRate)
	assert.Equal(t, 46, h.DataOffset)
	assert.InDelta(t, 0.001, h.DurationSeconds, 1e-12)
}

func TestParse_ChunkErrors(t *testing.T) {
	tests := map[string]struct {
		chunks  [][]byte
		wantErr error
	}{
		"no_data_chunk": {
			chunks:  [][]byte{chunk("fmt ", fmtBody(1, 1, 8000, 16)), chunk("LIST", make([]byte, 20))},
			wantErr: audio.ErrMissingChunk,
		},
		"no_fmt_chunk": {
			chunks:  [][]byte{chunk("LIST", make([]byte, 20)), chunk("JUNK", make([]byte, 20))},
			wantErr: audio.ErrMissingChunk,
		},
		"data_before_fmt": {
			chunks:  [][]byte{chunk("data", make([]byte, 20)), chunk("fmt ", fmtBody(1, 1, 8000, 16))},
			wantErr: audio.ErrMissingChunk,
		},
		"short_fmt_chunk": {
			chunks:  [][]byte{chunk("fmt ", make([]byte, 8)), chunk("data", make([]byte, 40))},
			wantErr: audio.ErrTruncated,
		},
		"oversized_chunk": {
			chunks:  [][]byte{rawChunk("LIST", 1<<20, make([]byte, 32))},
			wantErr: audio.ErrTruncated,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := audio.Parse(buildRIFF(t, tt.chunks...))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_ClampsDeclaredDataSize(t *testing.T) {
	out := audio.Serialize(audio.Descriptor{SampleRate: 8000, NumChannels: 2}, make([]float64, 8))
	// Streaming recorders leave the size at its maximum.
	binary.LittleEndian.PutUint32(out[40:], math.MaxUint32)
	out = append(out, 0x01, 0x02) // half a stereo frame

	h, err := audio.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, uint32(18), h.DataByteSize)
	assert.Len(t, h.Data(out), 18)

	whole := h.WholeFrames()
	assert.Equal(t, uint32(16), whole.DataByteSize)
	assert.InDelta(t, 16.0/32000.0, whole.DurationSeconds, 1e-15)
}

func TestDescriptor_WholeFrames(t *testing.T) {
	tests := map[string]struct {
		in   audio.Descriptor
		want uint32
	}{
		"already_aligned": {in: audio.Descriptor{SampleRate: 8000, BitsPerSample: 16, NumChannels: 2, DataByteSize: 400}, want: 400},
		"partial_24_bit":  {in: audio.Descriptor{SampleRate: 16000, BitsPerSample: 24, NumChannels: 1, DataByteSize: 3200}, want: 3198},
		"zero_channels":   {in: audio.Descriptor{SampleRate: 8000, BitsPerSample: 16, DataByteSize: 7}, want: 7},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := tt.in.WholeFrames()
			assert.Equal(t, tt.want, got.DataByteSize)
			assert.Equal(t, got.Duration(), got.DurationSeconds)
		})
	}
}

func TestSerialize_Quantization(t *testing.T) {
	tests := map[string]struct {
		in   float64
		want int16
	}{
		"zero":             {in: 0, want: 0},
		"full_scale":       {in: 1, want: 32767},
		"negative_full":    {in: -1, want: -32767},
		"clamped_high":     {in: 1.7, want: 32767},
		"clamped_low":      {in: -3, want: -32767},
		"half":             {in: 0.5, want: 16384}, // 16383.5 rounds away from zero
		"negative_half":    {in: -0.5, want: -16384},
		"limiter_ceiling":  {in: 0.98, want: 32112},
		"nan_is_silence":   {in: math.NaN(), want: 0},
		"small_rounds_up":  {in: 0.6 / 32767, want: 1},
		"small_rounds_off": {in: 0.4 / 32767, want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out := audio.Serialize(audio.Descriptor{SampleRate: 8000, NumChannels: 1}, []float64{tt.in})
			require.Len(t, out, audio.CanonicalHeaderSize+2)
			got := int16(binary.LittleEndian.Uint16(out[audio.CanonicalHeaderSize:]))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	for _, rate := range []uint32{8000, 16000, 22050, 44100, 48000} {
		for _, channels := range []uint16{1, 2} {
			d := audio.Descriptor{SampleRate: rate, NumChannels: channels}
			samples := make([]float64, int(rate)/10*int(channels))
			for i := range samples {
				samples[i] = 0.25 * math.Sin(float64(i)/7)
			}

			first, err := audio.Parse(audio.Serialize(d, samples))
			require.NoError(t, err)

			again, err := audio.Parse(audio.Serialize(first.Descriptor, samples))
			require.NoError(t, err)

			assert.Equal(t, rate, again.SampleRate)
			assert.Equal(t, channels, again.NumChannels)
			assert.InDelta(t, 0.1, again.DurationSeconds, 1e-9, "rate=%d channels=%d", rate, channels)
			assert.Equal(t, first.Descriptor, again.Descriptor)
		}
	}
}

// The output must decode with an independent reader.
func TestSerialize_ReadableByReferenceDecoder(t *testing.T) {
	samples := []float64{0, 0.5, -0.5, 0.98, -0.98, 1}
	out := audio.Serialize(audio.Descriptor{SampleRate: 22050, NumChannels: 2}, samples)

	dec := wav.NewDecoder(bytes.NewReader(out))
	require.True(t, dec.IsValidFile())
	assert.Equal(t, uint32(22050), dec.SampleRate)
	assert.Equal(t, uint16(2), dec.NumChans)
	assert.Equal(t, uint16(16), dec.BitDepth)

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 16384, -16384, 32112, -32112, 32767}, buf.Data)
}

// Files written by a reference encoder must parse.
func TestParse_ReferenceEncoderOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 16000, 16, 1, 1)
	data := make([]int, 1600)
	for i := range data {
		data[i] = (i % 200) - 100
	}
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	h, err := audio.Parse(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), h.SampleRate)
	assert.Equal(t, uint16(1), h.NumChannels)
	assert.InDelta(t, 0.1, h.DurationSeconds, 1e-9)

	got := audio.PCM16Samples(h.Data(b))
	require.Len(t, got, len(data))
	assert.Equal(t, int16(-100), got[0])
	assert.Equal(t, int16(99), got[199])
}

func chunk(id string, body []byte) []byte {
	return rawChunk(id, uint32(len(body)), body)
}

func rawChunk(id string, size uint32, body []byte) []byte {
	out := make([]byte, 8, 8+len(body)+1)
	copy(out, id)
	binary.LittleEndian.PutUint32(out[4:], size)
	out = append(out, body...)
	if len(body)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func fmtBody(format, channels uint16, rate uint32, bits uint16) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint16(b[0:], format)
	binary.LittleEndian.PutUint16(b[2:], channels)
	binary.LittleEndian.PutUint32(b[4:], rate)
	binary.LittleEndian.PutUint32(b[8:], rate*uint32(channels)*uint32(bits)/8)
	binary.LittleEndian.PutUint16(b[12:], channels*bits/8)
	binary.LittleEndian.PutUint16(b[14:], bits)
	return b
}

func buildRIFF(t *testing.T, chunks ...[]byte) []byte {
	t.Helper()
	body := []byte("WAVE")
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := make([]byte, 8, 8+len(body))
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(len(body)))
	return append(out, body...)
}
