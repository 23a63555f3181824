// Package sstv implements bidirectional conversion between raster images
// and the analog audio waveforms of Slow-Scan Television (SSTV).
//
// On the transmit side, Encoder turns a pixel buffer into a monophonic PCM
// stream obeying the timing, tone, and framing of a chosen SSTV mode. On
// the receive side, Decoder consumes a PCM stream and recovers the
// transmitted mode identifier via the VIS (Vertical Interval Signaling)
// preamble.
//
// The package does not read or write WAV files, does not decode or encode
// PNG/JPEG/GIF, does not talk to a radio or an audio device, and does not
// reconstruct the transmitted image from a received signal — those are
// left to callers. Handles are single-threaded: a given Encoder or Decoder
// must not be driven from more than one goroutine without external
// synchronisation, though distinct handles are fully independent.
package sstv
