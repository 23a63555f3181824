package sstv

import (
	"io"

	"github.com/google/uuid"
)

// Status is the result of a Feed call.
type Status int

const (
	StatusNeedMore Status = iota
	StatusImageReady
	StatusError
)

// DecoderState is a snapshot of the decoder's progress, exposed via State.
type DecoderState struct {
	CurrentMode  ModeID
	SyncDetected bool
	ImageReady   bool
	CurrentLine  int
	TotalLines   int
}

// DecoderOption configures a new Decoder.
type DecoderOption func(*Decoder)

// WithDecoderDebug attaches a diagnostic writer and level to the decoder.
func WithDecoderDebug(w io.Writer, level int) DecoderOption {
	return func(d *Decoder) { d.log = newLogger("decoder", level, w) }
}

// WithDecoderMetrics attaches a metrics bundle; nil disables instrumentation.
func WithDecoderMetrics(m *Metrics) DecoderOption {
	return func(d *Decoder) { d.metrics = m }
}

// Decoder consumes floating-point PCM samples (nominal ±32768 full scale)
// and recovers the transmitted mode identifier via VIS. Full image
// reconstruction is out of scope; once a mode resolves, State().CurrentMode
// and TotalLines are available for a caller-provided line decoder.
type Decoder struct {
	id uuid.UUID
	fs float64

	front *frontend
	vis   *visAutomaton

	modeHint   ModeID
	visEnabled bool
	sensLevel  int
	markHz     float64
	spaceHz    float64

	currentMode ModeID
	modeKnown   bool
	imageReady  bool

	log     *logger
	metrics *Metrics
}

// NewDecoder creates a decoder at the given sample rate.
func NewDecoder(sampleRate int, opts ...DecoderOption) (*Decoder, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	d := &Decoder{
		id:         uuid.New(),
		fs:         float64(sampleRate),
		front:      newFrontend(float64(sampleRate)),
		vis:        newVISAutomaton(float64(sampleRate), 1),
		visEnabled: true,
		sensLevel:  1,
		markHz:     1080,
		spaceHz:    1320,
		log:        newLogger("decoder", LevelOff, nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ID returns the handle's correlation identifier.
func (d *Decoder) ID() uuid.UUID { return d.id }

// SetModeHint records the mode the caller expects, e.g. a narrow mode that
// sends no VIS code. The hint is only stored: Feed and State do not consult
// it, so State().CurrentMode stays ModeUnknown until VIS resolves a code.
func (d *Decoder) SetModeHint(mode ModeID) { d.modeHint = mode }

// SetVISEnabled toggles VIS detection.
func (d *Decoder) SetVISEnabled(enabled bool) { d.visEnabled = enabled }

// SetVISTones configures the (mark, space) frequency pair the caller's
// transmitter uses, for interoperability with third-party encoders.
// The resonator bank itself is fixed at 1080/1200/1320/1900Hz per §4.6;
// this only swaps which of d1080/d1320 is treated as the "mark" side
// during the bit decision.
func (d *Decoder) SetVISTones(markHz, spaceHz float64) {
	d.markHz, d.spaceHz = markHz, spaceHz
	d.vis.setTones(markHz, spaceHz)
}

// SetSensitivity selects the S_lvl/S_lvl2 row (0-3).
func (d *Decoder) SetSensitivity(level int) error {
	if level < 0 || level > 3 {
		return ErrInvalidSampleRate
	}
	d.sensLevel = level
	d.vis.setSensitivity(level)
	return nil
}

// Feed processes n samples synchronously; there is no internal buffering
// or background work.
func (d *Decoder) Feed(samples []float64) (Status, error) {
	for _, s := range samples {
		d.front.setNarrowBand(d.vis.syncDetected)
		energies := d.front.step(s)
		if !d.visEnabled || d.modeKnown {
			continue
		}
		res := d.vis.step(energies)
		if res.resolved {
			d.currentMode = res.mode.ID
			d.modeKnown = true
			d.metrics.incVISDetected(res.mode.ShortName)
			if !d.vis.lastParityOK {
				d.metrics.incVISParityFailed()
				d.log.infof("VIS parity mismatch for %s, resolving anyway", res.mode.ShortName)
			}
			d.log.infof("resolved mode %s", res.mode.ShortName)
		}
	}
	return StatusNeedMore, nil
}

// State returns a snapshot of decoder progress.
func (d *Decoder) State() DecoderState {
	total := 0
	if d.modeKnown {
		if spec, ok := GetModeInfo(d.currentMode); ok {
			total = spec.NumLines
		}
	}
	return DecoderState{
		CurrentMode:  d.currentMode,
		SyncDetected: d.vis.syncDetected,
		ImageReady:   d.imageReady,
		TotalLines:   total,
	}
}

// Image returns the decoded image, valid only after ImageReady. Full image
// reconstruction is out of this library's scope (see design notes); this
// always returns ErrImageNotReady.
func (d *Decoder) Image() (*Image, error) {
	if !d.imageReady {
		return nil, ErrImageNotReady
	}
	return nil, ErrImageNotReady
}

// Reset rewinds the decoder. Filter delay lines and AGC state are zeroed
// (the designed taps are kept) and the VIS automaton is rebuilt; per spec.md
// §4.7 this must only be invoked between frames, never mid-transmission.
func (d *Decoder) Reset() {
	d.front.reset()
	d.vis = newVISAutomaton(d.fs, d.sensLevel)
	d.vis.setTones(d.markHz, d.spaceHz)
	d.currentMode = ModeUnknown
	d.modeKnown = false
	d.imageReady = false
}
