package monitoring

import (
	"io"
	"log"
)

// Logf is the process-wide operational logger used by the frontier CLI and
// pipeline. It defaults to log.Printf and may be replaced by SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// NewPrefixedLogf returns a Printf-style logger writing to w with a
// bracketed component prefix, e.g. "[frontier] ". A nil writer yields a
// no-op logger.
func NewPrefixedLogf(w io.Writer, component string) func(format string, v ...interface{}) {
	if w == nil {
		return func(string, ...interface{}) {}
	}
	l := log.New(w, "["+component+"] ", log.LstdFlags|log.Lmicroseconds)
	return l.Printf
}
