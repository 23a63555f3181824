package sstv

import (
	"fmt"
	"io"
	"log"
)

// Debug levels for logger.level.
const (
	LevelOff = iota
	LevelError
	LevelInfo
	LevelTrace
)

// logger is a per-handle, level-gated diagnostic sink. It never writes to
// stdout on its own: the zero value discards everything, matching the
// library's "never logs to stdout" contract (spec §7). Callers opt in via
// WithDebug.
type logger struct {
	level int
	tag   string
	l     *log.Logger
}

func newLogger(tag string, level int, w io.Writer) *logger {
	if w == nil {
		w = io.Discard
	}
	return &logger{
		level: level,
		tag:   tag,
		l:     log.New(w, "", log.LstdFlags),
	}
}

func (lg *logger) errorf(format string, args ...any) {
	lg.logAt(LevelError, format, args...)
}

func (lg *logger) infof(format string, args ...any) {
	lg.logAt(LevelInfo, format, args...)
}

func (lg *logger) tracef(format string, args ...any) {
	lg.logAt(LevelTrace, format, args...)
}

func (lg *logger) logAt(level int, format string, args ...any) {
	if lg == nil || lg.level < level {
		return
	}
	lg.l.Printf("[sstv:%s] %s", lg.tag, fmt.Sprintf(format, args...))
}
