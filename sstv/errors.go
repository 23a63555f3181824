package sstv

import "errors"

// Errors returned by the encoder and decoder: configuration errors from the
// constructors, SetImage and SetSensitivity, and ErrImageNotReady from
// Decoder.Image.
var (
	ErrUnknownMode        = errors.New("sstv: unknown mode")
	ErrInvalidSampleRate  = errors.New("sstv: sample rate must be positive")
	ErrImageSizeMismatch  = errors.New("sstv: image dimensions do not match mode")
	ErrImageFormatInvalid = errors.New("sstv: unsupported image format")
	ErrModeUnsupported    = errors.New("sstv: mode has no transmit/receive schedule")
	ErrImageNotReady      = errors.New("sstv: image not ready")
)
