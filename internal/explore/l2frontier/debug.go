package l2frontier

import (
	"io"
	"log"
	"sync"
)

var (
	logMu      sync.RWMutex
	diagLogger *log.Logger
)

// SetDiagWriter routes clustering diagnostics to w. Pass nil to disable.
func SetDiagWriter(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		diagLogger = nil
		return
	}
	diagLogger = log.New(w, "[l2frontier] ", log.LstdFlags|log.Lmicroseconds)
}

// diagf logs to the diag stream (component counts, dropped clusters).
func diagf(format string, args ...interface{}) {
	logMu.RLock()
	l := diagLogger
	logMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
