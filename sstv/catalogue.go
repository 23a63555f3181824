package sstv

import (
	"strings"

	"golang.org/x/text/cases"
)

// ModeID identifies a catalogue entry. Zero is reserved (ModeUnknown).
type ModeID uint8

// Mode identifiers. Values and VIS codes below are historical constants
// carried from the reference SSTV mode tables (Bruchanov's handbook,
// Barber's mode-spec proposal, Jones's VIS code list, QSSTV).
const (
	ModeUnknown ModeID = 0

	ModeAVT24 ModeID = 2
	ModeAVT90 ModeID = 3
	ModeAVT94 ModeID = 4

	ModeM1 ModeID = 5
	ModeM2 ModeID = 6
	ModeM3 ModeID = 7
	ModeM4 ModeID = 8

	ModeS1  ModeID = 9
	ModeS2  ModeID = 10
	ModeSDX ModeID = 11

	ModeR12   ModeID = 12
	ModeR24   ModeID = 13
	ModeR36   ModeID = 14
	ModeR72   ModeID = 15
	ModeR8BW  ModeID = 16
	ModeR12BW ModeID = 17
	ModeR24BW ModeID = 18
	ModeR36BW ModeID = 19

	ModeSC60  ModeID = 20
	ModeSC120 ModeID = 21
	ModeSC180 ModeID = 22

	ModePD50  ModeID = 23
	ModePD90  ModeID = 24
	ModePD120 ModeID = 25
	ModePD160 ModeID = 26
	ModePD180 ModeID = 27
	ModePD240 ModeID = 28
	ModePD290 ModeID = 29

	ModeP3 ModeID = 30
	ModeP5 ModeID = 31
	ModeP7 ModeID = 32

	ModeMP73  ModeID = 33
	ModeMP115 ModeID = 34
	ModeMP140 ModeID = 35
	ModeMP175 ModeID = 36

	ModeMR73  ModeID = 37
	ModeMR90  ModeID = 38
	ModeMR115 ModeID = 39
	ModeMR140 ModeID = 40
	ModeMR175 ModeID = 41

	ModeML180 ModeID = 42
	ModeML240 ModeID = 43
	ModeML280 ModeID = 44
	ModeML320 ModeID = 45

	ModeFX480 ModeID = 46

	// ModeMN and ModeMC are supplemented narrow-band modes (see DESIGN.md);
	// the reference catalogue this module was grounded on stops at ML320.
	ModeMN ModeID = 47
	ModeMC ModeID = 48

	modeCount = 49
)

// FamilyTag selects the transmit line scheduler and groups modes that share
// a sync/porch/channel shape.
type FamilyTag int

const (
	FamilyRobot24 FamilyTag = iota
	FamilyRobot36
	FamilyRobot72
	FamilyAVT
	FamilyScottie
	FamilyMartin
	FamilySC2
	FamilyPD
	FamilyPasokon
	FamilyMartinR
	FamilyMartinP
	FamilyMartinL
	FamilyRobotBW
	FamilyMartinNarrow
	FamilyMartinColourNarrow
)

// ColorEncoding is the per-mode colour representation.
type ColorEncoding int

const (
	ColorRGBSequential   ColorEncoding = iota // full-resolution R,G,B (or G,B,R) planes in sequence
	ColorYCbCrSequential                      // full Y line, then full R-Y, then full B-Y
	ColorYThenRYBY                            // Y0, R-Y, B-Y, Y1 dual-line pack
	ColorYThenAltChroma                       // single Y line, one chroma channel alternating by line parity
	ColorLuma                                 // luminance only
)

// PreambleStyle selects the leader-tone shape emitted before VIS.
type PreambleStyle int

const (
	PreambleStandard PreambleStyle = iota // 8 tones, 800 ms
	PreambleNarrow                        // 4 tones, 400 ms
	PreambleNone
)

// VISDescriptor is either absent (Present == false) or an 8-bit or 16-bit
// VIS identifier.
type VISDescriptor struct {
	Present  bool
	Extended bool
	Code     uint8 // standard code as listed in the historical tables (bit 7, where set, is ignored by lookup and framing), or the mode-specific second byte of an extended code
}

// ModeSpec is the immutable descriptor for one catalogue entry.
type ModeSpec struct {
	ID        ModeID
	Name      string
	ShortName string
	Family    FamilyTag
	ColorEnc  ColorEncoding
	Preamble  PreambleStyle
	VIS       VISDescriptor

	ImgWidth  int
	ImgHeight int // total image height

	// LinesPerTx is the number of image lines consumed per transmitted
	// line: 2 for the PD/MP dual-Y pack and for the half-height modes that
	// send one of every two image rows (R12, R8-BW, R12-BW, M3, M4); 1 for
	// every other mode.
	LinesPerTx int
	NumLines   int // number of transmitted lines

	SyncTimeSec  float64
	PorchTimeSec float64
	SeptrTimeSec float64
	PixelTimeSec float64
	LineTimeSec  float64

	Unsupported bool
}

// Catalogue is the process-wide, immutable table of all known modes,
// indexed by ModeID. Catalogue[ModeUnknown] is the zero value.
var Catalogue = buildCatalogue()

func buildCatalogue() []ModeSpec {
	c := make([]ModeSpec, modeCount)

	std := func(code uint8) VISDescriptor { return VISDescriptor{Present: true, Code: code} }
	ext := func(second uint8) VISDescriptor { return VISDescriptor{Present: true, Extended: true, Code: second} }
	none := VISDescriptor{}

	set := func(id ModeID, name, short string, fam FamilyTag, col ColorEncoding,
		pre PreambleStyle, vis VISDescriptor, w, h, linesPerTx, numLines int,
		sync, porch, septr, pixel, line float64) {
		c[id] = ModeSpec{
			ID: id, Name: name, ShortName: short, Family: fam, ColorEnc: col, Preamble: pre, VIS: vis,
			ImgWidth: w, ImgHeight: h, LinesPerTx: linesPerTx, NumLines: numLines,
			SyncTimeSec: sync, PorchTimeSec: porch, SeptrTimeSec: septr, PixelTimeSec: pixel, LineTimeSec: line,
		}
	}

	// AVT modes: unsupported (no published reference timing survives in
	// the source catalogue this module is grounded on).
	c[ModeAVT24] = ModeSpec{ID: ModeAVT24, Name: "Amiga Video Transceiver 24", ShortName: "AVT24",
		Family: FamilyAVT, ColorEnc: ColorRGBSequential, Preamble: PreambleStandard, VIS: std(0x24),
		ImgWidth: 128, ImgHeight: 120, LinesPerTx: 1, NumLines: 120, Unsupported: true}
	c[ModeAVT90] = ModeSpec{ID: ModeAVT90, Name: "Amiga Video Transceiver 90", ShortName: "AVT90",
		Family: FamilyAVT, ColorEnc: ColorRGBSequential, Preamble: PreambleStandard, VIS: std(0x44),
		ImgWidth: 320, ImgHeight: 256, LinesPerTx: 1, NumLines: 256, Unsupported: true}
	c[ModeAVT94] = ModeSpec{ID: ModeAVT94, Name: "Amiga Video Transceiver 94", ShortName: "AVT94",
		Family: FamilyAVT, ColorEnc: ColorRGBSequential, Preamble: PreambleStandard, VIS: std(0x64),
		ImgWidth: 320, ImgHeight: 200, LinesPerTx: 1, NumLines: 200, Unsupported: true}

	// Martin
	set(ModeM1, "Martin M1", "M1", FamilyMartin, ColorRGBSequential, PreambleStandard, std(0xAC),
		320, 256, 1, 256, 4.862e-3, 0.572e-3, 0.572e-3, 0.4576e-3, 446.446e-3)
	set(ModeM2, "Martin M2", "M2", FamilyMartin, ColorRGBSequential, PreambleStandard, std(0x28),
		320, 256, 1, 256, 4.862e-3, 0.572e-3, 0.572e-3, 0.2288e-3, 226.798e-3)
	set(ModeM3, "Martin M3", "M3", FamilyMartin, ColorRGBSequential, PreambleStandard, std(0xAE),
		320, 256, 2, 128, 4.862e-3, 0.572e-3, 0.572e-3, 0.4576e-3, 446.446e-3)
	set(ModeM4, "Martin M4", "M4", FamilyMartin, ColorRGBSequential, PreambleStandard, std(0x2A),
		320, 256, 2, 128, 4.862e-3, 0.572e-3, 0.572e-3, 0.2288e-3, 226.798e-3)

	// Scottie
	set(ModeS1, "Scottie S1", "S1", FamilyScottie, ColorRGBSequential, PreambleStandard, std(0x3C),
		320, 256, 1, 256, 9e-3, 1.5e-3, 1.5e-3, 0.4320125e-3, 428.232e-3)
	set(ModeS2, "Scottie S2", "S2", FamilyScottie, ColorRGBSequential, PreambleStandard, std(0xB8),
		320, 256, 1, 256, 9e-3, 1.5e-3, 1.5e-3, 0.2752e-3, 277.692e-3)
	set(ModeSDX, "Scottie DX", "SDX", FamilyScottie, ColorRGBSequential, PreambleStandard, std(0xCC),
		320, 256, 1, 256, 9e-3, 1.5e-3, 1.5e-3, 1.08e-3, 1050.3e-3)

	// Robot
	set(ModeR12, "Robot 12", "R12", FamilyRobot24, ColorYThenAltChroma, PreambleStandard, none,
		320, 240, 2, 120, 9e-3, 3e-3, 6e-3, 0.085415625e-3, 100e-3)
	set(ModeR24, "Robot 24", "R24", FamilyRobot24, ColorYCbCrSequential, PreambleStandard, std(0x84),
		320, 240, 1, 240, 6e-3, 2e-3, 4e-3, 0.14375e-3, 200e-3)
	set(ModeR36, "Robot 36", "R36", FamilyRobot36, ColorYThenAltChroma, PreambleStandard, std(0x88),
		320, 240, 1, 240, 9e-3, 3e-3, 6e-3, 0.1375e-3, 150e-3)
	set(ModeR72, "Robot 72", "R72", FamilyRobot72, ColorYCbCrSequential, PreambleStandard, std(0x0C),
		320, 240, 1, 240, 9e-3, 3e-3, 6e-3, 0.215625e-3, 300e-3)
	set(ModeR8BW, "Robot 8 B/W", "R8-BW", FamilyRobotBW, ColorLuma, PreambleStandard, std(0x82),
		320, 240, 2, 120, 6.666e-3, 0, 0, 0.1875e-3, 66.666e-3)
	set(ModeR12BW, "Robot 12 B/W", "R12-BW", FamilyRobotBW, ColorLuma, PreambleStandard, std(0x86),
		320, 240, 2, 120, 7e-3, 0, 0, 0.290625e-3, 100e-3)
	set(ModeR24BW, "Robot 24 B/W", "R24-BW", FamilyRobotBW, ColorLuma, PreambleStandard, none,
		320, 240, 1, 240, 7e-3, 0, 0, 0.290625e-3, 100e-3)
	set(ModeR36BW, "Robot 36 B/W", "R36-BW", FamilyRobotBW, ColorLuma, PreambleStandard, none,
		320, 240, 1, 240, 7e-3, 0, 0, 0.446875e-3, 150e-3)

	// Wraase SC-2
	set(ModeSC60, "Wraase SC-2 60", "SC60", FamilySC2, ColorRGBSequential, PreambleStandard, std(0xBB),
		320, 256, 1, 256, 5.5006e-3, 0.5e-3, 0, 0.24415e-3, 240.3846e-3)
	set(ModeSC120, "Wraase SC-2 120", "SC120", FamilySC2, ColorRGBSequential, PreambleStandard, std(0x3F),
		320, 256, 1, 256, 5.52248e-3, 0.5e-3, 0, 0.4890625e-3, 475.52248e-3)
	set(ModeSC180, "Wraase SC-2 180", "SC180", FamilySC2, ColorRGBSequential, PreambleStandard, std(0xB7),
		320, 256, 1, 256, 5.5437e-3, 0.5e-3, 0, 0.734375e-3, 711.0437e-3)

	// PD
	set(ModePD50, "PD-50", "PD50", FamilyPD, ColorYThenRYBY, PreambleStandard, std(0xDD),
		320, 256, 2, 128, 20e-3, 2.08e-3, 0, 0.286e-3, 388.16e-3)
	set(ModePD90, "PD-90", "PD90", FamilyPD, ColorYThenRYBY, PreambleStandard, std(0x63),
		320, 256, 2, 128, 20e-3, 2.08e-3, 0, 0.532e-3, 703.04e-3)
	set(ModePD120, "PD-120", "PD120", FamilyPD, ColorYThenRYBY, PreambleStandard, std(0x5F),
		640, 496, 2, 248, 20e-3, 2.08e-3, 0, 0.19e-3, 508.48e-3)
	set(ModePD160, "PD-160", "PD160", FamilyPD, ColorYThenRYBY, PreambleStandard, std(0xE2),
		512, 400, 2, 200, 20e-3, 2.08e-3, 0, 0.382e-3, 804.416e-3)
	set(ModePD180, "PD-180", "PD180", FamilyPD, ColorYThenRYBY, PreambleStandard, std(0x60),
		640, 496, 2, 248, 20e-3, 2.08e-3, 0, 0.286e-3, 754.24e-3)
	set(ModePD240, "PD-240", "PD240", FamilyPD, ColorYThenRYBY, PreambleStandard, std(0xE1),
		640, 496, 2, 248, 20e-3, 2.08e-3, 0, 0.382e-3, 1000e-3)
	set(ModePD290, "PD-290", "PD290", FamilyPD, ColorYThenRYBY, PreambleStandard, std(0xDE),
		800, 616, 2, 308, 20e-3, 2.08e-3, 0, 0.286e-3, 937.28e-3)

	// Pasokon
	set(ModeP3, "Pasokon P3", "P3", FamilyPasokon, ColorRGBSequential, PreambleStandard, std(0x71),
		640, 496, 1, 496, 25.0/4800.0, 0, 5.0/4800.0, 1.0/4800.0, 409.375e-3)
	set(ModeP5, "Pasokon P5", "P5", FamilyPasokon, ColorRGBSequential, PreambleStandard, std(0x72),
		640, 496, 1, 496, 25.0/3200.0, 0, 5.0/3200.0, 1.0/3200.0, 614.0625e-3)
	set(ModeP7, "Pasokon P7", "P7", FamilyPasokon, ColorRGBSequential, PreambleStandard, std(0xF3),
		640, 496, 1, 496, 25.0/2400.0, 0, 5.0/2400.0, 1.0/2400.0, 818.75e-3)

	// MMSSTV MP (extended VIS, 0x23 prefix)
	set(ModeMP73, "MMSSTV MP73", "MP73", FamilyMartinP, ColorYThenRYBY, PreambleStandard, ext(0x25),
		320, 256, 2, 128, 9e-3, 1e-3, 0, 0.4375e-3, 570e-3)
	set(ModeMP115, "MMSSTV MP115", "MP115", FamilyMartinP, ColorYThenRYBY, PreambleStandard, ext(0x29),
		320, 256, 2, 128, 9e-3, 1e-3, 0, 0.696875e-3, 902e-3)
	set(ModeMP140, "MMSSTV MP140", "MP140", FamilyMartinP, ColorYThenRYBY, PreambleStandard, ext(0x2A),
		320, 256, 2, 128, 9e-3, 1e-3, 0, 0.84375e-3, 1090e-3)
	set(ModeMP175, "MMSSTV MP175", "MP175", FamilyMartinP, ColorYThenRYBY, PreambleStandard, ext(0x2C),
		320, 256, 2, 128, 9e-3, 1e-3, 0, 1.0625e-3, 1370e-3)

	// MMSSTV MR
	set(ModeMR73, "MMSSTV MR73", "MR73", FamilyMartinR, ColorYCbCrSequential, PreambleStandard, ext(0x45),
		320, 256, 1, 256, 9e-3, 1e-3, 0.1e-3, 0.215625e-3, 286.3e-3)
	set(ModeMR90, "MMSSTV MR90", "MR90", FamilyMartinR, ColorYCbCrSequential, PreambleStandard, ext(0x46),
		320, 256, 1, 256, 9e-3, 1e-3, 0.1e-3, 0.2671875e-3, 352.3e-3)
	set(ModeMR115, "MMSSTV MR115", "MR115", FamilyMartinR, ColorYCbCrSequential, PreambleStandard, ext(0x49),
		320, 256, 1, 256, 9e-3, 1e-3, 0.1e-3, 0.34375e-3, 450.3e-3)
	set(ModeMR140, "MMSSTV MR140", "MR140", FamilyMartinR, ColorYCbCrSequential, PreambleStandard, ext(0x4A),
		320, 256, 1, 256, 9e-3, 1e-3, 0.1e-3, 0.4203125e-3, 548.3e-3)
	set(ModeMR175, "MMSSTV MR175", "MR175", FamilyMartinR, ColorYCbCrSequential, PreambleStandard, ext(0x4C),
		320, 256, 1, 256, 9e-3, 1e-3, 0.1e-3, 0.5265625e-3, 684.3e-3)

	// MMSSTV ML
	set(ModeML180, "MMSSTV ML180", "ML180", FamilyMartinL, ColorYCbCrSequential, PreambleStandard, ext(0x05),
		640, 496, 1, 496, 9e-3, 1e-3, 0.1e-3, 0.137890625e-3, 363.3e-3)
	set(ModeML240, "MMSSTV ML240", "ML240", FamilyMartinL, ColorYCbCrSequential, PreambleStandard, ext(0x06),
		640, 496, 1, 496, 9e-3, 1e-3, 0.1e-3, 0.184765625e-3, 483.3e-3)
	set(ModeML280, "MMSSTV ML280", "ML280", FamilyMartinL, ColorYCbCrSequential, PreambleStandard, ext(0x09),
		640, 496, 1, 496, 9e-3, 1e-3, 0.1e-3, 0.216796875e-3, 565.3e-3)
	set(ModeML320, "MMSSTV ML320", "ML320", FamilyMartinL, ColorYCbCrSequential, PreambleStandard, ext(0x0A),
		640, 496, 1, 496, 9e-3, 1e-3, 0.1e-3, 0.248046875e-3, 645.3e-3)

	// FAX480
	set(ModeFX480, "FAX480", "FAX480", FamilyRobotBW, ColorLuma, PreambleNone, none,
		512, 480, 1, 480, 5.12e-3, 0, 0, 0.512e-3, 267.264e-3)

	// Supplemented narrow modes (see DESIGN.md): timing derived from the
	// MartinL shape, frequency range remapped to [2044,2300] Hz. MN sends a
	// single Y scan, so its line is 9+1+69 = 79 ms. VIS is absent per the
	// design note on narrow-mode VIS (not transmitted).
	set(ModeMN, "Martin Narrow", "MN", FamilyMartinNarrow, ColorLuma, PreambleNarrow, none,
		320, 256, 1, 256, 9e-3, 1e-3, 0.1e-3, 0.215625e-3, 79e-3)
	set(ModeMC, "Martin Colour Narrow", "MC", FamilyMartinColourNarrow, ColorYCbCrSequential, PreambleNarrow, none,
		320, 256, 1, 256, 9e-3, 1e-3, 0.1e-3, 0.215625e-3, 286.3e-3)

	return c
}

// VISMap maps a 7-bit standard VIS code to a ModeID (0 = no match, 1 would
// mean "see VISXMap" in the source table; this catalogue keeps the two
// namespaces in separate arrays instead so there is no sentinel value to
// special-case).
var VISMap = buildVISMap()

// VISXMap maps the second byte of a 0x23-prefixed extended VIS code to a
// ModeID.
var VISXMap = buildVISXMap()

func buildVISMap() [128]ModeID {
	var m [128]ModeID
	for i := range Catalogue {
		spec := &Catalogue[i]
		if spec.VIS.Present && !spec.VIS.Extended && spec.VIS.Code != 0 {
			m[spec.VIS.Code&0x7F] = ModeID(i)
		}
	}
	return m
}

func buildVISXMap() [128]ModeID {
	var m [128]ModeID
	for i := range Catalogue {
		spec := &Catalogue[i]
		if spec.VIS.Present && spec.VIS.Extended {
			m[spec.VIS.Code&0x7F] = ModeID(i)
		}
	}
	return m
}

// GetModeByVIS resolves a standard 7-bit VIS code to a mode, if any.
func GetModeByVIS(code uint8) (ModeSpec, bool) {
	id := VISMap[code&0x7F]
	if id == ModeUnknown {
		return ModeSpec{}, false
	}
	return Catalogue[id], true
}

// GetModeByExtendedVIS resolves the second byte of a 0x23-prefixed extended
// VIS code to a mode, if any.
func GetModeByExtendedVIS(secondByte uint8) (ModeSpec, bool) {
	id := VISXMap[secondByte&0x7F]
	if id == ModeUnknown {
		return ModeSpec{}, false
	}
	return Catalogue[id], true
}

// GetModeInfo returns the descriptor for mode, if it exists.
func GetModeInfo(mode ModeID) (ModeSpec, bool) {
	if int(mode) <= 0 || int(mode) >= len(Catalogue) {
		return ModeSpec{}, false
	}
	return Catalogue[mode], true
}

// AllModes returns every catalogue entry except the unknown sentinel.
func AllModes() []ModeSpec {
	out := make([]ModeSpec, 0, len(Catalogue)-1)
	for i := 1; i < len(Catalogue); i++ {
		if Catalogue[i].Name == "" {
			continue
		}
		out = append(out, Catalogue[i])
	}
	return out
}

var nameFolder = cases.Fold()

// FindModeByName looks up a mode by its long or short name, case-insensitive.
func FindModeByName(name string) (ModeSpec, bool) {
	folded := nameFolder.String(strings.TrimSpace(name))
	for i := range Catalogue {
		spec := &Catalogue[i]
		if spec.Name == "" {
			continue
		}
		if nameFolder.String(spec.Name) == folded || nameFolder.String(spec.ShortName) == folded {
			return *spec, true
		}
	}
	return ModeSpec{}, false
}
