package sstv

import (
	"io"

	"github.com/google/uuid"
)

type encStage int

const (
	stagePreamble encStage = iota
	stageVIS
	stageBody
	stageComplete
)

type freqDur struct {
	freqHz float64
	sec    float64
}

type segment struct {
	u       float64
	samples int
}

// EncoderOption configures a new Encoder.
type EncoderOption func(*Encoder)

// WithDebug attaches a diagnostic writer and level to the encoder.
func WithDebug(w io.Writer, level int) EncoderOption {
	return func(e *Encoder) {
		e.log = newLogger("encoder", level, w)
	}
}

// WithMetrics attaches a metrics bundle; pass nil to disable (the default).
func WithMetrics(m *Metrics) EncoderOption {
	return func(e *Encoder) { e.metrics = m }
}

// Encoder converts (mode, image) into a PCM stream.
type Encoder struct {
	id   uuid.UUID
	mode ModeSpec
	fs   float64
	img  *Image

	nco *NCO

	visEnabled bool
	markHz     float64
	spaceHz    float64

	stage        encStage
	preambleSegs []freqDur
	preambleIdx  int
	vis          *visFramer

	curTxLine  int
	curImgLine int
	lineSegs   []freqDur
	lineIdx    int

	frac float64

	curSeg     segment
	segSamples int // samples remaining in curSeg

	totalSamples     int
	generatedSamples int
	complete         bool

	log     *logger
	metrics *Metrics
}

// NewEncoder creates an encoder for mode at the given sample rate.
func NewEncoder(mode ModeID, sampleRate int, opts ...EncoderOption) (*Encoder, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	spec, ok := GetModeInfo(mode)
	if !ok || spec.Name == "" {
		return nil, ErrUnknownMode
	}
	if spec.Unsupported {
		return nil, ErrModeUnsupported
	}

	e := &Encoder{
		id:         uuid.New(),
		mode:       spec,
		fs:         float64(sampleRate),
		nco:        NewNCO(float64(sampleRate), 1080, 1220),
		visEnabled: spec.VIS.Present,
		markHz:     1080,
		spaceHz:    1320,
		log:        newLogger("encoder", LevelOff, nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resetInternal()
	return e, nil
}

// ID returns the handle's correlation identifier.
func (e *Encoder) ID() uuid.UUID { return e.id }

// SetImage attaches the image to transmit. Dimensions must match the mode
// exactly.
func (e *Encoder) SetImage(img *Image) error {
	if !img.valid() {
		return ErrImageFormatInvalid
	}
	if img.Width != e.mode.ImgWidth || img.Height != e.mode.ImgHeight {
		return ErrImageSizeMismatch
	}
	e.img = img
	e.recomputeTotalSamples()
	return nil
}

// SetVISEnabled toggles VIS emission and recomputes total_samples.
func (e *Encoder) SetVISEnabled(enabled bool) {
	e.visEnabled = enabled && e.mode.VIS.Present
	e.recomputeTotalSamples()
}

// Reset rewinds all counters without releasing memory.
func (e *Encoder) Reset() {
	e.resetInternal()
}

func (e *Encoder) resetInternal() {
	e.nco.Reset()
	e.stage = stagePreamble
	e.preambleSegs = buildPreamble(e.mode)
	e.preambleIdx = 0
	e.vis = nil
	e.curTxLine = 0
	e.curImgLine = 0
	e.lineSegs = nil
	e.lineIdx = 0
	e.frac = 0
	e.segSamples = 0
	e.generatedSamples = 0
	e.complete = false
	e.recomputeTotalSamples()
}

func (e *Encoder) recomputeTotalSamples() {
	total := 0.0
	for _, s := range e.preambleSegs {
		total += s.sec
	}
	if e.visEnabled {
		total += visTotalDurationSec(e.mode.VIS)
	}
	total += e.mode.LineTimeSec * float64(e.mode.NumLines)
	if e.mode.Family == FamilyScottie {
		total += e.mode.SyncTimeSec // extra leading sync on transmitted line 0
	}
	e.totalSamples = int(total*e.fs + 0.5)
}

// IsComplete reports whether generation has finished.
func (e *Encoder) IsComplete() bool { return e.complete }

// Progress returns completion fraction in [0,1].
func (e *Encoder) Progress() float64 {
	if e.totalSamples <= 0 {
		return 0
	}
	p := float64(e.generatedSamples) / float64(e.totalSamples)
	if p > 1 {
		return 1
	}
	return p
}

// TotalSamples returns the predicted total sample count for the current
// configuration.
func (e *Encoder) TotalSamples() int { return e.totalSamples }

// Generate pulls up to len(buf) samples. Returns the number produced; 0
// means completion or a missing image (empty-output, not an error).
func (e *Encoder) Generate(buf []int16) int {
	if e.img == nil || e.complete {
		return 0
	}
	n := 0
	for n < len(buf) {
		if e.segSamples == 0 {
			if !e.advanceSegment() {
				e.complete = true
				break
			}
		}
		sample := e.nco.Step(e.curSeg.u)
		buf[n] = toPCM16(sample)
		e.segSamples--
		e.generatedSamples++
		n++
	}
	e.metrics.addSamples(e.mode.ShortName, float64(n))
	return n
}

func toPCM16(x float64) int16 {
	v := x * 32767
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// advanceSegment pulls the next (freq,duration) pair from the stage
// pipeline, converts it to an integer sample count via the shared
// fractional accumulator, and installs it as the active segment. Returns
// false when the transmission is exhausted.
func (e *Encoder) advanceSegment() bool {
	for {
		fd, ok := e.nextFreqDur()
		if !ok {
			return false
		}
		exact := fd.sec * e.fs
		emitted := int(exact + e.frac)
		e.frac = (exact + e.frac) - float64(emitted)
		if emitted <= 0 {
			continue
		}
		e.curSeg = segment{u: FreqToU(fd.freqHz), samples: emitted}
		e.segSamples = emitted
		e.metrics.addSegments(e.mode.ShortName, 1)
		return true
	}
}

// nextFreqDur walks preamble -> vis -> body -> done.
func (e *Encoder) nextFreqDur() (freqDur, bool) {
	for {
		switch e.stage {
		case stagePreamble:
			if e.preambleIdx < len(e.preambleSegs) {
				fd := e.preambleSegs[e.preambleIdx]
				e.preambleIdx++
				return fd, true
			}
			e.stage = stageVIS
		case stageVIS:
			if !e.visEnabled || !e.mode.VIS.Present {
				e.stage = stageBody
				continue
			}
			if e.vis == nil {
				e.vis = newVISFramer(e.mode.VIS, e.markHz, e.spaceHz)
			}
			if seg, ok := e.vis.current(); ok {
				e.vis.advance()
				return freqDur{seg.freqHz, seg.timeSec}, true
			}
			e.stage = stageBody
		case stageBody:
			if e.lineSegs == nil || e.lineIdx >= len(e.lineSegs) {
				if e.curTxLine >= e.mode.NumLines {
					e.stage = stageComplete
					continue
				}
				e.lineSegs = e.buildLineSegments(e.curTxLine, e.curImgLine)
				e.lineIdx = 0
			}
			if e.lineIdx < len(e.lineSegs) {
				fd := e.lineSegs[e.lineIdx]
				e.lineIdx++
				return fd, true
			}
			e.curTxLine++
			e.curImgLine += e.mode.LinesPerTx
			e.lineSegs = nil
		case stageComplete:
			return freqDur{}, false
		}
	}
}

func buildPreamble(mode ModeSpec) []freqDur {
	switch mode.Preamble {
	case PreambleStandard:
		tones := []float64{1900, 1500, 1900, 1500, 2300, 1500, 2300, 1500}
		segs := make([]freqDur, len(tones))
		for i, f := range tones {
			segs[i] = freqDur{f, 100e-3}
		}
		return segs
	case PreambleNarrow:
		tones := []float64{1900, 2300, 1900, 2300}
		segs := make([]freqDur, len(tones))
		for i, f := range tones {
			segs[i] = freqDur{f, 100e-3}
		}
		return segs
	default:
		return nil
	}
}

// pixelFreq maps a pixel value (0-255) to a transmit frequency.
func pixelFreq(v float64, narrow bool) float64 {
	v = clamp255(v)
	if narrow {
		return 2044 + (256*v)/256
	}
	return 1500 + (800*v)/256
}

// buildLineSegments dispatches to the per-family line scheduler.
func (e *Encoder) buildLineSegments(txLine, imgLine int) []freqDur {
	spec := &e.mode
	switch spec.Family {
	case FamilyScottie:
		return e.scheduleScottie(txLine, imgLine)
	case FamilyMartin:
		return e.scheduleMartin(imgLine)
	case FamilySC2:
		return e.scheduleSC2(imgLine)
	case FamilyRobot24:
		if spec.ColorEnc == ColorYThenAltChroma {
			return e.scheduleRobotAltChroma(txLine, imgLine, false)
		}
		return e.scheduleRobotYCbCr(imgLine)
	case FamilyRobot36:
		return e.scheduleRobotAltChroma(txLine, imgLine, false)
	case FamilyRobot72:
		return e.scheduleRobotYCbCr(imgLine)
	case FamilyRobotBW:
		return e.scheduleBW(imgLine)
	case FamilyPD:
		return e.schedulePD(imgLine)
	case FamilyPasokon:
		return e.schedulePasokon(imgLine)
	case FamilyMartinR, FamilyMartinL:
		return e.scheduleMartinRL(imgLine, false)
	case FamilyMartinP:
		return e.scheduleMartinP(imgLine)
	case FamilyMartinNarrow:
		return e.scheduleMartinNarrowBW(imgLine)
	case FamilyMartinColourNarrow:
		return e.scheduleMartinRL(imgLine, true)
	case FamilyAVT:
		return e.scheduleRobotYCbCr(imgLine) // unsupported family; structurally reasonable fallback
	default:
		return nil
	}
}

func (e *Encoder) channel(width int, pixelSec float64, narrow bool, value func(x int) float64) []freqDur {
	segs := make([]freqDur, width)
	for x := 0; x < width; x++ {
		segs[x] = freqDur{pixelFreq(value(x), narrow), pixelSec}
	}
	return segs
}

func (e *Encoder) imgRow(y int) func(x int) (r, g, b uint8) {
	return func(x int) (uint8, uint8, uint8) { return e.img.at(x, y) }
}

func (e *Encoder) scheduleScottie(txLine, imgLine int) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	var segs []freqDur
	if txLine == 0 {
		segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	}
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { _, g, _ := row(x); return float64(g) })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { _, _, b := row(x); return float64(b) })...)
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, freqDur{1500, spec.PorchTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { r, _, _ := row(x); return float64(r) })...)
	return segs
}

func (e *Encoder) scheduleMartin(imgLine int) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	var segs []freqDur
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, freqDur{1500, spec.PorchTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { _, g, _ := row(x); return float64(g) })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { _, _, b := row(x); return float64(b) })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { r, _, _ := row(x); return float64(r) })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	return segs
}

func (e *Encoder) scheduleSC2(imgLine int) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	const fixedWidth = 320
	rescale := func(x int) int { return (x * spec.ImgWidth) / fixedWidth }
	var segs []freqDur
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, freqDur{1500, spec.PorchTimeSec})
	segs = append(segs, e.channel(fixedWidth, spec.PixelTimeSec, false, func(x int) float64 { r, _, _ := row(rescale(x)); return float64(r) })...)
	segs = append(segs, e.channel(fixedWidth, spec.PixelTimeSec, false, func(x int) float64 { _, g, _ := row(rescale(x)); return float64(g) })...)
	segs = append(segs, e.channel(fixedWidth, spec.PixelTimeSec, false, func(x int) float64 { _, _, b := row(rescale(x)); return float64(b) })...)
	return segs
}

// scheduleRobotYCbCr handles the single-Y, full-R-Y, full-B-Y families
// (Robot24, Robot72, and the unsupported AVT fallback). The Y scan uses
// twice the catalogue pixel time; R-Y and B-Y use it as is.
func (e *Encoder) scheduleRobotYCbCr(imgLine int) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	y := make([]float64, spec.ImgWidth)
	ry := make([]float64, spec.ImgWidth)
	by := make([]float64, spec.ImgWidth)
	for x := 0; x < spec.ImgWidth; x++ {
		r, g, b := row(x)
		y[x], ry[x], by[x] = rgbToYCbCr(r, g, b)
	}
	var segs []freqDur
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, freqDur{1500, spec.PorchTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec*2, false, func(x int) float64 { return y[x] })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return ry[x] })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return by[x] })...)
	return segs
}

// scheduleRobotAltChroma handles Robot12/Robot36: single Y line plus one
// chroma channel, alternating R-Y (even transmitted lines) / B-Y (odd).
// The Y scan uses twice the catalogue pixel time, the chroma scan uses it
// as is.
func (e *Encoder) scheduleRobotAltChroma(txLine, imgLine int, narrow bool) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	y := make([]float64, spec.ImgWidth)
	chroma := make([]float64, spec.ImgWidth)
	useRY := txLine%2 == 0
	for x := 0; x < spec.ImgWidth; x++ {
		r, g, b := row(x)
		yy, ry, by := rgbToYCbCr(r, g, b)
		y[x] = yy
		if useRY {
			chroma[x] = ry
		} else {
			chroma[x] = by
		}
	}
	var segs []freqDur
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, freqDur{1500, spec.PorchTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec*2, narrow, func(x int) float64 { return y[x] })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, narrow, func(x int) float64 { return chroma[x] })...)
	return segs
}

func (e *Encoder) scheduleBW(imgLine int) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	var segs []freqDur
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 {
		r, g, b := row(x)
		y, _, _ := rgbToYCbCr(r, g, b)
		return y
	})...)
	return segs
}

// schedulePD handles the dual-Y-per-line pack Y0,(R-Y),(B-Y),Y1.
func (e *Encoder) schedulePD(imgLine int) []freqDur {
	spec := &e.mode
	line0, line1 := imgLine, imgLine+1
	if line1 >= spec.ImgHeight {
		line1 = spec.ImgHeight - 1 // duplicate last line rather than read out of bounds
	}
	row0 := e.imgRow(line0)
	row1 := e.imgRow(line1)
	y0 := make([]float64, spec.ImgWidth)
	y1 := make([]float64, spec.ImgWidth)
	ry := make([]float64, spec.ImgWidth)
	by := make([]float64, spec.ImgWidth)
	for x := 0; x < spec.ImgWidth; x++ {
		r0, g0, b0 := row0(x)
		r1, g1, b1 := row1(x)
		var ry0, by0, ry1, by1 float64
		y0[x], ry0, by0 = rgbToYCbCr(r0, g0, b0)
		y1[x], ry1, by1 = rgbToYCbCr(r1, g1, b1)
		ry[x] = (ry0 + ry1) / 2
		by[x] = (by0 + by1) / 2
	}
	var segs []freqDur
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, freqDur{1500, spec.PorchTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return y0[x] })...)
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return ry[x] })...)
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return by[x] })...)
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return y1[x] })...)
	return segs
}

func (e *Encoder) schedulePasokon(imgLine int) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	var segs []freqDur
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { r, _, _ := row(x); return float64(r) })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { _, g, _ := row(x); return float64(g) })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { _, _, b := row(x); return float64(b) })...)
	segs = append(segs, freqDur{1500, spec.SeptrTimeSec})
	return segs
}

// scheduleMartinRL handles MartinR/MartinL (narrow=false) and
// MartinColourNarrow (narrow=true): Y at twice the catalogue pixel time,
// then R-Y and B-Y at the catalogue pixel time, each of the three scans
// followed by a separator tone. The narrow variant uses the 1900/2044Hz
// sync/porch pair and the [2044,2300]Hz pixel mapping instead of
// 1200/1500Hz and [1500,2300]Hz.
func (e *Encoder) scheduleMartinRL(imgLine int, narrow bool) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	y := make([]float64, spec.ImgWidth)
	ry := make([]float64, spec.ImgWidth)
	by := make([]float64, spec.ImgWidth)
	for x := 0; x < spec.ImgWidth; x++ {
		r, g, b := row(x)
		y[x], ry[x], by[x] = rgbToYCbCr(r, g, b)
	}
	syncHz, porchHz := 1200.0, 1500.0
	if narrow {
		syncHz, porchHz = 1900.0, 2044.0
	}
	var segs []freqDur
	segs = append(segs, freqDur{syncHz, spec.SyncTimeSec})
	segs = append(segs, freqDur{porchHz, spec.PorchTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec*2, narrow, func(x int) float64 { return y[x] })...)
	segs = append(segs, freqDur{porchHz, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, narrow, func(x int) float64 { return ry[x] })...)
	segs = append(segs, freqDur{porchHz, spec.SeptrTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, narrow, func(x int) float64 { return by[x] })...)
	segs = append(segs, freqDur{porchHz, spec.SeptrTimeSec})
	return segs
}

// scheduleMartinP handles MartinP: sync, porch, Y, R-Y, B-Y, Y (next line).
func (e *Encoder) scheduleMartinP(imgLine int) []freqDur {
	spec := &e.mode
	line1 := imgLine + 1
	if line1 >= spec.ImgHeight {
		line1 = spec.ImgHeight - 1
	}
	row0 := e.imgRow(imgLine)
	row1 := e.imgRow(line1)
	y0 := make([]float64, spec.ImgWidth)
	ry := make([]float64, spec.ImgWidth)
	by := make([]float64, spec.ImgWidth)
	y1 := make([]float64, spec.ImgWidth)
	for x := 0; x < spec.ImgWidth; x++ {
		r0, g0, b0 := row0(x)
		r1, g1, b1 := row1(x)
		var ry0, by0 float64
		y0[x], ry0, by0 = rgbToYCbCr(r0, g0, b0)
		y1[x], _, _ = rgbToYCbCr(r1, g1, b1)
		ry[x], by[x] = ry0, by0
	}
	var segs []freqDur
	segs = append(segs, freqDur{1200, spec.SyncTimeSec})
	segs = append(segs, freqDur{1500, spec.PorchTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return y0[x] })...)
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return ry[x] })...)
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return by[x] })...)
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, false, func(x int) float64 { return y1[x] })...)
	return segs
}

func (e *Encoder) scheduleMartinNarrowBW(imgLine int) []freqDur {
	spec := &e.mode
	row := e.imgRow(imgLine)
	var segs []freqDur
	segs = append(segs, freqDur{1900, spec.SyncTimeSec})
	segs = append(segs, freqDur{2044, spec.PorchTimeSec})
	segs = append(segs, e.channel(spec.ImgWidth, spec.PixelTimeSec, true, func(x int) float64 {
		r, g, b := row(x)
		y, _, _ := rgbToYCbCr(r, g, b)
		return y
	})...)
	return segs
}
