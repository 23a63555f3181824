package sstv

type visState int

const (
	visIdle visState = iota
	visValidate
	visSampleBit
)

// sensitivityTable maps a 0-3 sensitivity setting to (S_lvl, S_lvl2).
var sensitivityTable = [4]struct{ sLvl, sLvl2 float64 }{
	{3200, 120},
	{2400, 80},
	{1600, 60},
	{900, 40},
}

// visResult is what the automaton publishes once a VIS code resolves.
type visResult struct {
	mode     ModeSpec
	resolved bool
}

// visAutomaton is the receive VIS state machine of spec.md §4.7: a
// sustained-gate idle detector, a validation hold, then 8-bit (or 16-bit
// extended) data sampling at 30ms/bit.
type visAutomaton struct {
	fs float64

	sLvl, sLvl2 float64

	state        visState
	idleCount    int
	idleNeeded   int
	validCount   int
	validNeeded  int
	bitTimer     int
	bitPeriod    int
	bitsLeft     int
	data         uint8
	extended     bool
	extendedByte uint8

	syncDetected bool
	lastParityOK bool

	markIsD1080 bool
}

func newVISAutomaton(fs float64, sensitivity int) *visAutomaton {
	if sensitivity < 0 || sensitivity > 3 {
		sensitivity = 1
	}
	row := sensitivityTable[sensitivity]
	a := &visAutomaton{
		fs:          fs,
		sLvl:        row.sLvl,
		sLvl2:       row.sLvl2,
		idleNeeded:  msToSamples(12, fs),
		validNeeded: msToSamples(15, fs),
		bitPeriod:   msToSamples(30, fs),
		markIsD1080: true,
	}
	return a
}

// setTones configures which resonator channel is treated as the bit=1
// ("mark") side of the data-bit decision: d1080 if markHz is the lower of
// the pair (the spec.md §4.6 default), d1320 otherwise. The resonator bank
// itself stays fixed at 1080/1200/1320/1900Hz; this only swaps which side
// of the comparison wins, for interoperability with third-party encoders
// that invert the mark/space assignment.
func (a *visAutomaton) setTones(markHz, spaceHz float64) {
	a.markIsD1080 = markHz <= spaceHz
}

func msToSamples(ms, fs float64) int {
	n := int(ms/1000*fs + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

func (a *visAutomaton) setSensitivity(level int) {
	if level < 0 || level > 3 {
		return
	}
	row := sensitivityTable[level]
	a.sLvl, a.sLvl2 = row.sLvl, row.sLvl2
}

// step feeds one sample's tone energies into the automaton. It returns a
// visResult with resolved=true exactly on the sample where a code is
// published.
func (a *visAutomaton) step(e toneEnergies) visResult {
	startBitCond := e.d1200 > e.d1900 && e.d1200 > a.sLvl && (e.d1200-e.d1900) >= a.sLvl

	switch a.state {
	case visIdle:
		a.syncDetected = false
		if startBitCond {
			a.idleCount++
			if a.idleCount >= a.idleNeeded {
				a.state = visValidate
				a.validCount = 0
			}
		} else {
			a.idleCount = 0
		}

	case visValidate:
		if startBitCond {
			a.validCount++
			if a.validCount >= a.validNeeded {
				a.syncDetected = true
				a.state = visSampleBit
				a.bitTimer = a.bitPeriod
				a.bitsLeft = 8
				a.data = 0
				a.extended = false
			}
		} else {
			a.state = visIdle
			a.idleCount = 0
		}

	case visSampleBit:
		a.bitTimer--
		if a.bitTimer > 0 {
			break
		}
		a.bitTimer = a.bitPeriod

		if e.d1080 < e.d1900 && e.d1320 < e.d1900 && absF(e.d1080-e.d1320) < a.sLvl2 {
			a.resetToIdle()
			break
		}

		bit := uint8(0)
		if a.markIsD1080 {
			if e.d1080 > e.d1320 {
				bit = 1
			}
		} else {
			if e.d1320 > e.d1080 {
				bit = 1
			}
		}
		a.data |= bit << uint(8-a.bitsLeft)
		a.bitsLeft--

		if a.bitsLeft == 0 {
			low7 := a.data & 0x7F
			parityBit := (a.data >> 7) & 1
			a.lastParityOK = parityBit == visParity(low7)

			if low7 == 0x23 && !a.extended {
				a.extended = true
				a.extendedByte = 0
				a.data = 0
				a.bitsLeft = 8
				// The transmitted frame inserts a 30ms stop tone between the
				// two bytes; skip it before sampling the second byte's bits.
				a.bitTimer = 2 * a.bitPeriod
				break
			}

			var mode ModeSpec
			var ok bool
			if a.extended {
				mode, ok = GetModeByExtendedVIS(low7)
			} else {
				mode, ok = GetModeByVIS(low7)
			}
			a.resetToIdle()
			if ok {
				return visResult{mode: mode, resolved: true}
			}
		}
	}
	return visResult{}
}

func (a *visAutomaton) resetToIdle() {
	a.state = visIdle
	a.idleCount = 0
	a.validCount = 0
	a.syncDetected = false
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
