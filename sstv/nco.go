package sstv

import "math"

// NCO is a phase-continuous, table-based sine oscillator. Frequency is
// commanded each step via u in [0,1]: instantaneous frequency is
// base + gain*u. Table size is 2*fs, giving sub-Hz resolution without
// interpolation and bounding drift over long transmissions.
type NCO struct {
	fs    float64
	base  float64
	gain  float64
	table []float64
	size  float64
	phase float64
}

// NewNCO allocates the sine table once; no further allocation occurs.
func NewNCO(fs, base, gain float64) *NCO {
	tableSize := int(2 * fs)
	table := make([]float64, tableSize)
	for i := range table {
		table[i] = math.Sin(2 * math.Pi * float64(i) / float64(tableSize))
	}
	return &NCO{
		fs:    fs,
		base:  base,
		gain:  gain,
		table: table,
		size:  float64(tableSize),
	}
}

// Step advances the oscillator by one sample under command u (clamped to
// [0,1]) and returns the instantaneous output.
func (n *NCO) Step(u float64) float64 {
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	n.phase += n.size*n.base/n.fs + n.size*n.gain*u/n.fs
	for n.phase >= n.size {
		n.phase -= n.size
	}
	for n.phase < 0 {
		n.phase += n.size
	}
	return n.table[int(n.phase)]
}

// Frequency converts a commanded u in [0,1] to the corresponding absolute
// frequency in Hz, given this NCO's base/gain configuration.
func (n *NCO) Frequency(u float64) float64 {
	return n.base + n.gain*u
}

// Phase returns the current raw phase accumulator value, in [0, table size).
func (n *NCO) Phase() float64 {
	return n.phase
}

// Reset zeroes the phase accumulator without reallocating the sine table.
func (n *NCO) Reset() {
	n.phase = 0
}

// FreqToU normalises an absolute frequency command to the [0,1] range used
// by Step, for the wide-band mapping centred at 1100/1200 Hz (u = (f -
// 1100)/1200, clamped).
func FreqToU(f float64) float64 {
	u := (f - 1100) / 1200
	if u < 0 {
		return 0
	}
	if u > 1 {
		return 1
	}
	return u
}
