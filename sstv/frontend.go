package sstv

import "math"

const clipLimit = 24576

// frontend implements the receive filter chain: clip -> two-tap LPF ->
// Kaiser band-pass FIR (wide pre-sync, narrow post-sync) -> peak-following
// AGC -> four-resonator bank -> abs envelope -> 50 Hz IIR LPF per tone.
// No allocation occurs after construction.
type frontend struct {
	fs float64

	prevSample float64

	wideBPF   *FIRFilter
	narrowBPF *FIRFilter
	useNarrow bool

	agcPeak    float64
	agcMean    float64
	agcGain    float64
	agcCounter int
	agcWindow  int
	agcFast    bool

	res1080, res1200, res1320, res1900 *Resonator
	env1080, env1200, env1320, env1900 *BiquadCascade
}

func newFrontend(fs float64) *frontend {
	tapScale := fs / 11025.0
	taps := int(24 * tapScale)
	if taps < 4 {
		taps = 4
	}

	f := &frontend{
		fs:        fs,
		wideBPF:   NewFIRFilter(DesignKaiserFIR(FilterBPF, taps, fs, 400, 2500, 20, 1)),
		narrowBPF: NewFIRFilter(DesignKaiserFIR(FilterBPF, taps, fs, 1080, 2600, 20, 1)),
		agcWindow: int(0.1 * fs),
		agcFast:   true,
		agcGain:   1,

		res1080: NewResonator(1080, 80, fs),
		res1200: NewResonator(1200, 100, fs),
		res1320: NewResonator(1320, 80, fs),
		res1900: NewResonator(1900, 100, fs),

		env1080: DesignLowpassCascade(50, fs, 2, false, 0),
		env1200: DesignLowpassCascade(50, fs, 2, false, 0),
		env1320: DesignLowpassCascade(50, fs, 2, false, 0),
		env1900: DesignLowpassCascade(50, fs, 2, false, 0),
	}
	if f.agcWindow < 1 {
		f.agcWindow = 1
	}
	return f
}

// toneEnergies is the per-sample output of the front end.
type toneEnergies struct {
	d1080, d1200, d1320, d1900 float64
}

// setNarrowBand switches between the wide pre-sync and narrow post-sync
// band-pass filter. Switching does not reset either filter's delay line;
// only one is actively consulted at a time.
func (f *frontend) setNarrowBand(narrow bool) {
	f.useNarrow = narrow
}

// step pushes one raw PCM sample through the whole chain.
func (f *frontend) step(x float64) toneEnergies {
	if x > clipLimit {
		x = clipLimit
	} else if x < -clipLimit {
		x = -clipLimit
	}

	lpf := 0.5 * (x + f.prevSample)
	f.prevSample = x

	var bp float64
	if f.useNarrow {
		bp = f.narrowBPF.Step(lpf)
	} else {
		bp = f.wideBPF.Step(lpf)
	}

	f.updateAGC(bp)
	agcOut := bp * f.agcGain
	if agcOut > 16384 {
		agcOut = 16384
	} else if agcOut < -16384 {
		agcOut = -16384
	}
	scaled := agcOut * 32
	if scaled > 16384 {
		scaled = 16384
	} else if scaled < -16384 {
		scaled = -16384
	}

	d1080 := f.env1080.Step(math.Abs(f.res1080.Step(scaled)))
	d1200 := f.env1200.Step(math.Abs(f.res1200.Step(scaled)))
	d1320 := f.env1320.Step(math.Abs(f.res1320.Step(scaled)))
	d1900 := f.env1900.Step(math.Abs(f.res1900.Step(scaled)))

	return toneEnergies{d1080, d1200, d1320, d1900}
}

func (f *frontend) updateAGC(x float64) {
	absX := math.Abs(x)
	if absX > f.agcPeak {
		f.agcPeak = absX
	}
	f.agcMean = 0.999*f.agcMean + 0.001*absX
	f.agcCounter++
	if f.agcCounter >= f.agcWindow {
		f.agcCounter = 0
		peak := f.agcPeak
		if !f.agcFast {
			peak = f.agcMean
		}
		if peak < 32 {
			peak = 32
		}
		f.agcGain = 16384 / peak
		f.agcPeak = 0
	}
}

func (f *frontend) reset() {
	f.prevSample = 0
	f.wideBPF.Reset()
	f.narrowBPF.Reset()
	f.useNarrow = false
	f.agcPeak = 0
	f.agcMean = 0
	f.agcGain = 1
	f.agcCounter = 0
	f.res1080.Reset()
	f.res1200.Reset()
	f.res1320.Reset()
	f.res1900.Reset()
	f.env1080.Reset()
	f.env1200.Reset()
	f.env1320.Reset()
	f.env1900.Reset()
}
