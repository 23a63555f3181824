package sstv

import (
	"io"

	"gopkg.in/yaml.v3"
)

// Config carries the library's ambient, process-wide tunables. It has no
// effect on the wire-level protocol. NewEncoder and NewDecoder do not read
// it; a caller applies its values through the handle options and setters
// (WithDebug, WithDecoderDebug, WithMetrics, WithDecoderMetrics,
// SetSensitivity, SetVISTones).
type Config struct {
	SSTV struct {
		// DebugLevel gates diagnostic output: 0 off, 1 error, 2 info, 3 trace.
		DebugLevel int `yaml:"debug_level"`
		// Sensitivity selects the S_lvl/S_lvl2 table row (0-3) used by the
		// VIS decoder's idle/sample-bit states.
		Sensitivity int `yaml:"sensitivity"`
		// VISMarkHz/VISSpaceHz hold the (bit=1, bit=0) tone pair for
		// Decoder.SetVISTones. Defaults to the 1080/1320 Hz alternative
		// (see the tone-polarity design note); the encoder's VIS framer
		// always uses 1080/1320 Hz.
		VISMarkHz  float64 `yaml:"vis_mark_hz"`
		VISSpaceHz float64 `yaml:"vis_space_hz"`
		// MetricsEnabled records whether Prometheus instrumentation is
		// wanted; instrumentation is attached by passing a *Metrics option.
		MetricsEnabled bool `yaml:"metrics_enabled"`
	} `yaml:"sstv"`
}

// DefaultConfig returns the library's built-in defaults.
func DefaultConfig() Config {
	var c Config
	c.SSTV.DebugLevel = 0
	c.SSTV.Sensitivity = 1
	c.SSTV.VISMarkHz = 1080
	c.SSTV.VISSpaceHz = 1320
	c.SSTV.MetricsEnabled = false
	return c
}

// LoadConfig decodes a YAML document into a Config, seeding it with
// DefaultConfig first so that a partial document still yields sane values.
func LoadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, err
	}
	return c, nil
}
