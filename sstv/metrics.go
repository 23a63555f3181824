package sstv

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles optional Prometheus instrumentation for an Encoder or
// Decoder. A nil *Metrics is valid everywhere it is used: every method on
// it guards against a nil receiver so the hot per-sample paths pay nothing
// when instrumentation is disabled.
type Metrics struct {
	segmentsEmitted  *prometheus.CounterVec
	samplesEmitted   *prometheus.CounterVec
	visDetected      *prometheus.CounterVec
	visParityFailed  *prometheus.CounterVec
	framesDecoded    *prometheus.CounterVec
}

// NewMetrics registers the library's collectors against reg and returns a
// bundle ready to pass to NewEncoder/NewDecoder. Passing the result of
// NewMetrics is optional; omit it (pass nil) to disable instrumentation.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		segmentsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sstv_segments_emitted_total",
			Help: "Number of transmit segments emitted, by mode.",
		}, []string{"mode"}),
		samplesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sstv_samples_emitted_total",
			Help: "Number of PCM samples emitted, by mode.",
		}, []string{"mode"}),
		visDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sstv_vis_detected_total",
			Help: "Number of VIS codes successfully resolved, by mode.",
		}, []string{"mode"}),
		visParityFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sstv_vis_parity_failures_total",
			Help: "Number of VIS frames whose parity bit did not match.",
		}, nil),
		framesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sstv_frames_decoded_total",
			Help: "Number of image frames fully decoded, by mode.",
		}, []string{"mode"}),
	}
	for _, c := range []prometheus.Collector{
		m.segmentsEmitted, m.samplesEmitted, m.visDetected, m.visParityFailed, m.framesDecoded,
	} {
		reg.MustRegister(c)
	}
	return m
}

func (m *Metrics) addSegments(mode string, n float64) {
	if m == nil {
		return
	}
	m.segmentsEmitted.WithLabelValues(mode).Add(n)
}

func (m *Metrics) addSamples(mode string, n float64) {
	if m == nil {
		return
	}
	m.samplesEmitted.WithLabelValues(mode).Add(n)
}

func (m *Metrics) incVISDetected(mode string) {
	if m == nil {
		return
	}
	m.visDetected.WithLabelValues(mode).Inc()
}

func (m *Metrics) incVISParityFailed() {
	if m == nil {
		return
	}
	m.visParityFailed.WithLabelValues().Inc()
}

func (m *Metrics) incFrameDecoded(mode string) {
	if m == nil {
		return
	}
	m.framesDecoded.WithLabelValues(mode).Inc()
}
