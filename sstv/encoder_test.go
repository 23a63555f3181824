package sstv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncoderRejectsBadInput(t *testing.T) {
	_, err := NewEncoder(ModeS1, 0)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)

	_, err = NewEncoder(ModeID(250), 48000)
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = NewEncoder(ModeAVT24, 48000)
	assert.ErrorIs(t, err, ErrModeUnsupported)
}

func TestSetImageValidatesDimensions(t *testing.T) {
	enc, err := NewEncoder(ModeS1, 48000)
	require.NoError(t, err)

	wrongSize := solidRGBImage(10, 10, 0)
	assert.ErrorIs(t, enc.SetImage(wrongSize), ErrImageSizeMismatch)

	bad := &Image{Width: 320, Height: 256, Format: FormatRGB24, Pixels: make([]byte, 10)}
	assert.ErrorIs(t, enc.SetImage(bad), ErrImageFormatInvalid)

	good := solidRGBImage(320, 256, 255)
	assert.NoError(t, enc.SetImage(good))
}

func TestGenerateEmptyOutputWithoutImage(t *testing.T) {
	enc, err := NewEncoder(ModeS1, 48000)
	require.NoError(t, err)

	buf := make([]int16, 1024)
	n := enc.Generate(buf)
	assert.Equal(t, 0, n, "generate with no image attached must return 0, not an error")
}

// T9: for every mode at every supported sample rate, generate produces a
// total within line_count samples of the predicted total_samples.
func TestGenerateSampleCountInvariant(t *testing.T) {
	modes := []ModeID{ModeS1, ModeM1, ModeR36, ModePD120, ModeSC180, ModeP3, ModeMR73}
	rates := []int{48000, 44100, 22050, 11025}

	for _, id := range modes {
		spec, ok := GetModeInfo(id)
		require.True(t, ok)
		for _, fs := range rates {
			t.Run(spec.ShortName, func(t *testing.T) {
				enc, err := NewEncoder(id, fs)
				require.NoError(t, err)
				require.NoError(t, enc.SetImage(solidRGBImage(spec.ImgWidth, spec.ImgHeight, 200)))

				predicted := enc.TotalSamples()
				actual := drainEncoder(enc)

				assert.InDelta(t, predicted, actual, float64(spec.NumLines),
					"mode %s at %dHz: actual %d vs predicted %d", spec.ShortName, fs, actual, predicted)
			})
		}
	}
}

func drainEncoder(enc *Encoder) int {
	buf := make([]int16, 4096)
	total := 0
	for {
		n := enc.Generate(buf)
		total += n
		if n == 0 {
			break
		}
	}
	return total
}

// T12: the 8-bit VIS stage emits round(0.910*fs) samples; the 16-bit stage
// emits round(1.210*fs).
func TestVISFramerDurationSamples(t *testing.T) {
	const fs = 48000.0

	std := newVISFramer(VISDescriptor{Present: true, Code: 0x3C}, 1080, 1320)
	assert.InDelta(t, math.Round(0.910*fs), sumFramerSamples(std, fs), 1)

	ext := newVISFramer(VISDescriptor{Present: true, Extended: true, Code: 0x45}, 1080, 1320)
	assert.InDelta(t, math.Round(1.210*fs), sumFramerSamples(ext, fs), 1)
}

func sumFramerSamples(f *visFramer, fs float64) float64 {
	var sec float64
	for {
		seg, ok := f.current()
		if !ok {
			break
		}
		sec += seg.timeSec
		f.advance()
	}
	return math.Round(sec * fs)
}

// S1: encode Scottie 1 of a 320x256 full-white image at 48kHz.
func TestScenarioScottie1FullWhite(t *testing.T) {
	const fs = 48000
	enc, err := NewEncoder(ModeS1, fs)
	require.NoError(t, err)
	require.NoError(t, enc.SetImage(solidRGBImage(320, 256, 255)))

	buf := make([]int16, enc.TotalSamples()+4096)
	n := enc.Generate(buf)
	samples := buf[:n]

	assert.GreaterOrEqual(t, n, 5257000)
	assert.LessOrEqual(t, n, 5259000)

	peak := int16(0)
	for _, s := range samples {
		v := s
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, 32767, int(peak), 328) // within 1% of full scale

	// First 48 samples (1ms at 48kHz) are the leading 1900Hz preamble tone;
	// count zero crossings as a coarse frequency check (expect ~3.8).
	crossings := zeroCrossings(samples[:48])
	assert.InDelta(t, 3.8, float64(crossings), 2.5)
}

func zeroCrossings(samples []int16) int {
	count := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			count++
		}
	}
	return count
}

// S4: encode Martin 2 of a 16-colour pattern; cumulative body sample count
// across 256 lines must differ from 256*round(226.798*fs/1000) by at most
// 256. VIS is disabled here so the preamble's exact 8*4800 sample
// contribution can be subtracted without rounding ambiguity.
func TestScenarioMartin2SampleDrift(t *testing.T) {
	const fs = 48000
	enc, err := NewEncoder(ModeM2, fs)
	require.NoError(t, err)
	enc.SetVISEnabled(false)

	pattern := make([]byte, 320*256*3)
	for i := range pattern {
		pattern[i] = byte((i * 37) % 256)
	}
	require.NoError(t, enc.SetImage(&Image{Width: 320, Height: 256, Format: FormatRGB24, Pixels: pattern}))

	total := drainEncoder(enc)
	const preambleSamples = 8 * 4800 // 8 tones * 100ms * 48kHz, each exact
	body := total - preambleSamples

	target := 256 * int(math.Round(226.798e-3*fs))
	assert.InDelta(t, target, body, 256)
}

// ModeMC (narrow-band Martin colour) must schedule its sync/porch tones at
// 1900/2044Hz and its pixel range within [2044,2300]Hz, not the wideband
// Martin 1200/1500Hz shape scheduleMartinRL uses for ModeMR/ModeML.
func TestModeMCUsesNarrowFrequencies(t *testing.T) {
	const fs = 48000
	spec, ok := GetModeInfo(ModeMC)
	require.True(t, ok)

	enc, err := NewEncoder(ModeMC, fs)
	require.NoError(t, err)
	require.NoError(t, enc.SetImage(solidRGBImage(spec.ImgWidth, spec.ImgHeight, 128)))

	segs := enc.buildLineSegments(0, 0)
	require.NotEmpty(t, segs)

	assert.Equal(t, 1900.0, segs[0].freqHz, "ModeMC sync tone must be 1900Hz, not wideband Martin's 1200Hz")
	assert.Equal(t, 2044.0, segs[1].freqHz, "ModeMC porch tone must be 2044Hz, not wideband Martin's 1500Hz")

	for _, s := range segs[2:] {
		if s.freqHz == 1900 || s.freqHz == 2044 {
			continue // sync/porch/septr tones between channels
		}
		assert.GreaterOrEqual(t, s.freqHz, 2044.0, "ModeMC pixel tones must stay within the narrow [2044,2300]Hz range")
		assert.LessOrEqual(t, s.freqHz, 2300.0, "ModeMC pixel tones must stay within the narrow [2044,2300]Hz range")
	}
}
