package sstv

import (
	"math"
)

// FilterKind selects the band shape produced by DesignKaiserFIR.
type FilterKind int

const (
	FilterLPF FilterKind = iota
	FilterHPF
	FilterBPF
	FilterBEF
)

// DesignKaiserFIR builds an N+1-tap symmetric, linear-phase FIR kernel.
// fc/fc2 are cutoff frequencies in Hz; fc2 is only consulted for BPF/BEF.
// attenDB is the desired stop-band attenuation; gain scales the resulting
// taps (use 1.0 for unity passband gain).
func DesignKaiserFIR(kind FilterKind, n int, fs, fc, fc2, attenDB, gain float64) []float64 {
	if n%2 != 0 {
		n++
	}
	taps := make([]float64, n+1)
	beta := kaiserBeta(attenDB)
	winValues := kaiserWindow(n+1, beta)

	center := float64(n) / 2
	switch kind {
	case FilterLPF:
		wc := 2 * math.Pi * fc / fs
		for i := 0; i <= n; i++ {
			taps[i] = sinc(wc, float64(i)-center) * winValues[i]
		}
		normalizeDC(taps)
	case FilterHPF:
		wc := 2 * math.Pi * fc / fs
		for i := 0; i <= n; i++ {
			d := float64(i) - center
			allPass := 0.0
			if d == 0 {
				allPass = 1
			}
			taps[i] = (allPass - sinc(wc, d)) * winValues[i]
		}
		normalizeAtFreq(taps, fs, fs/2)
	case FilterBPF:
		wl := 2 * math.Pi * fc / fs
		wh := 2 * math.Pi * fc2 / fs
		for i := 0; i <= n; i++ {
			d := float64(i) - center
			taps[i] = (sinc(wh, d) - sinc(wl, d)) * winValues[i]
		}
		normalizeAtFreq(taps, fs, (fc+fc2)/2)
	case FilterBEF:
		wl := 2 * math.Pi * fc / fs
		wh := 2 * math.Pi * fc2 / fs
		for i := 0; i <= n; i++ {
			d := float64(i) - center
			allPass := 0.0
			if d == 0 {
				allPass = 1
			}
			taps[i] = (allPass - (sinc(wh, d) - sinc(wl, d))) * winValues[i]
		}
		normalizeAtFreq(taps, fs, 0)
	}

	if gain != 1 && gain != 0 {
		for i := range taps {
			taps[i] *= gain
		}
	}
	return taps
}

func sinc(w, d float64) float64 {
	if d == 0 {
		return w / math.Pi
	}
	return math.Sin(w*d) / (math.Pi * d)
}

func normalizeDC(taps []float64) {
	var sum float64
	for _, t := range taps {
		sum += t
	}
	if sum == 0 {
		return
	}
	for i := range taps {
		taps[i] /= sum
	}
}

// normalizeAtFreq scales taps so the filter's magnitude response at freqHz
// is unity.
func normalizeAtFreq(taps []float64, fs, freqHz float64) {
	w := 2 * math.Pi * freqHz / fs
	var re, im float64
	for i, t := range taps {
		re += t * math.Cos(w*float64(i))
		im += t * math.Sin(w*float64(i))
	}
	mag := math.Hypot(re, im)
	if mag == 0 {
		return
	}
	for i := range taps {
		taps[i] /= mag
	}
}

// kaiserWindow returns the n-sample Kaiser window for shape parameter beta.
func kaiserWindow(n int, beta float64) []float64 {
	w := make([]float64, n)
	denom := besselI0(beta)
	center := 0.5 * float64(n-1)
	for i := 0; i < n; i++ {
		r := (float64(i) - center) / center
		arg := beta * math.Sqrt(1-r*r)
		w[i] = besselI0(arg) / denom
	}
	return w
}

// besselI0 evaluates the zeroth-order modified Bessel function of the
// first kind via its power series; sufficient precision for window
// generation (x stays well under 20 for any realistic attenuation target).
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	halfX := x / 2
	for k := 1; k < 40; k++ {
		term *= (halfX * halfX) / float64(k*k)
		sum += term
		if term < 1e-16*sum {
			break
		}
	}
	return sum
}

// kaiserBeta implements Harris's piecewise formula for the Kaiser window
// shape parameter as a function of desired stop-band attenuation in dB.
func kaiserBeta(attenDB float64) float64 {
	switch {
	case attenDB > 50:
		return 0.1102 * (attenDB - 8.7)
	case attenDB >= 21:
		return 0.5842*math.Pow(attenDB-21, 0.4) + 0.07886*(attenDB-21)
	default:
		return 0
	}
}

// FIRFilter is a causal FIR filter with its own delay line. Zero allocation
// after construction.
type FIRFilter struct {
	taps  []float64
	delay []float64
	pos   int
}

// NewFIRFilter builds a filter around a copy of taps.
func NewFIRFilter(taps []float64) *FIRFilter {
	t := make([]float64, len(taps))
	copy(t, taps)
	return &FIRFilter{taps: t, delay: make([]float64, len(taps))}
}

// Step pushes one input sample through the filter and returns the output.
func (f *FIRFilter) Step(x float64) float64 {
	f.delay[f.pos] = x
	var acc float64
	n := len(f.taps)
	idx := f.pos
	for i := 0; i < n; i++ {
		acc += f.taps[i] * f.delay[idx]
		idx--
		if idx < 0 {
			idx = n - 1
		}
	}
	f.pos++
	if f.pos >= n {
		f.pos = 0
	}
	return acc
}

// Reset zeroes the delay line without reallocating.
func (f *FIRFilter) Reset() {
	for i := range f.delay {
		f.delay[i] = 0
	}
	f.pos = 0
}

// Biquad is one second-order section in Direct-Form II transposed form.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

// Step pushes one sample through the section.
func (b *Biquad) Step(x float64) float64 {
	y := b.b0*x + b.z1
	b.z1 = b.b1*x - b.a1*y + b.z2
	b.z2 = b.b2*x - b.a2*y
	return y
}

// Reset zeroes the section's state.
func (b *Biquad) Reset() {
	b.z1, b.z2 = 0, 0
}

// BiquadCascade is a chain of Biquad sections implementing a Butterworth or
// Chebyshev Type I low-pass of the given order via the bilinear transform.
type BiquadCascade struct {
	sections []Biquad
}

// DesignLowpassCascade builds a cascade of order/2 (rounded up) biquad
// sections. When chebyshev is true, ripple (dB) shapes the passband;
// otherwise the poles are maximally flat (Butterworth).
func DesignLowpassCascade(fc, fs float64, order int, chebyshev bool, rippleDB float64) *BiquadCascade {
	if order < 2 {
		order = 2
	}
	nSections := (order + 1) / 2
	warped := 2 * fs * math.Tan(math.Pi*fc/fs)

	eps := 1.0
	if chebyshev && rippleDB > 0 {
		eps = math.Sqrt(math.Pow(10, rippleDB/10) - 1)
	}

	sections := make([]Biquad, 0, nSections)
	for k := 0; k < nSections; k++ {
		theta := math.Pi * (2*float64(k) + 1) / (2 * float64(order))
		var re, im float64
		if chebyshev {
			sinhV := math.Asinh(1/eps) / float64(order)
			re = -math.Sin(theta) * math.Sinh(sinhV)
			im = math.Cos(theta) * math.Cosh(sinhV)
		} else {
			re = -math.Sin(theta)
			im = math.Cos(theta)
		}
		// Scale the analog prototype pole by the warped cutoff.
		pr := re * warped
		pi := im * warped

		// Bilinear transform: s = 2*fs*(z-1)/(z+1), applied to a real
		// pair of complex-conjugate poles, yields a real biquad directly.
		sections = append(sections, bilinearPoleToBiquad(pr, pi, fs))
	}
	return &BiquadCascade{sections: sections}
}

func bilinearPoleToBiquad(pr, pi, fs float64) Biquad {
	// Analog second-order section: H(s) = wn^2 / (s^2 - 2*pr*s + (pr^2+pi^2))
	wn2 := pr*pr + pi*pi
	k := 2 * fs

	a0 := k*k - 2*pr*k + wn2
	a1 := 2*wn2 - 2*k*k
	a2 := k*k + 2*pr*k + wn2
	b0 := wn2
	b1 := 2 * wn2
	b2 := wn2

	return Biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

// Step pushes x through every section in series.
func (c *BiquadCascade) Step(x float64) float64 {
	for i := range c.sections {
		x = c.sections[i].Step(x)
	}
	return x
}

// Reset zeroes every section's state.
func (c *BiquadCascade) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// Resonator is the single second-order "tank" filter used to estimate the
// energy of one tone.
type Resonator struct {
	a0, b1, b2 float64
	y1, y2     float64
}

// NewResonator builds a resonator centred at f Hz with bandwidth bw Hz at
// sample rate fs.
func NewResonator(f, bw, fs float64) *Resonator {
	w := 2 * math.Pi * f / fs
	r := &Resonator{
		a0: math.Sin(w) / ((fs / 6) / bw),
		b1: 2 * math.Exp(-math.Pi*bw/fs) * math.Cos(w),
		b2: -math.Exp(-2 * math.Pi * bw / fs),
	}
	return r
}

// Step pushes x through the resonator and returns y[n].
func (r *Resonator) Step(x float64) float64 {
	y := r.a0*x + r.b1*r.y1 + r.b2*r.y2
	if math.Abs(y) < 1e-37 {
		y = 0
	}
	r.y2 = r.y1
	r.y1 = y
	return y
}

// Reset zeroes the resonator's history.
func (r *Resonator) Reset() {
	r.y1, r.y2 = 0, 0
}
