// Package monitoring holds the process-level logger shared by the CLI and
// the batch runner.
package monitoring

import (
	"bytes"
	"log"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// LineWriter forwards complete lines written to it to Logf, each tagged
// with Stream. It lets the engine packages' ops/diag/trace streams share
// the process logger.
type LineWriter struct {
	Stream string

	mu  sync.Mutex
	buf []byte
}

// NewLineWriter returns a LineWriter for the named stream.
func NewLineWriter(stream string) *LineWriter {
	return &LineWriter{Stream: stream}
}

// Write buffers p and emits every complete line.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		Logf("%s: %s", w.Stream, w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}
